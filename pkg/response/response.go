package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Barklim/bio/internal/apperr"
)

// ErrorBody is the error envelope returned by every failing endpoint.
// Message is a string for domain errors and a field→message map for
// validation failures.
type ErrorBody struct {
	StatusCode int    `json:"statusCode"`
	Message    any    `json:"message"`
	Error      string `json:"error"`
}

// Err writes an error response with the given status and message.
func Err(c *gin.Context, status int, message any) {
	c.JSON(status, ErrorBody{
		StatusCode: status,
		Message:    message,
		Error:      http.StatusText(status),
	})
}

// AbortErr writes an error response and aborts the handler chain. For use
// in middleware.
func AbortErr(c *gin.Context, status int, message any) {
	c.AbortWithStatusJSON(status, ErrorBody{
		StatusCode: status,
		Message:    message,
		Error:      http.StatusText(status),
	})
}

// FromError translates a service error into its HTTP form. Non-domain
// errors surface as a generic 500; the cause belongs in server logs only.
func FromError(c *gin.Context, err error) {
	Err(c, apperr.Status(err), apperr.Message(err))
}

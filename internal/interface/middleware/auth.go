package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Barklim/bio/internal/application"
	"github.com/Barklim/bio/pkg/helpers"
	"github.com/Barklim/bio/pkg/response"
)

// Context keys set on successful authentication.
const (
	CtxUserIDKey = "userID"
	CtxUserKey   = "authUser"
)

// Auth validates the Authorization bearer token and re-confirms the subject
// against the store on every request: signature and expiry alone never
// authorize access. Rejects when the subject is absent, inactive, or the
// token's email no longer matches the stored one (stale token after an
// email change).
func Auth(auth *application.AuthService, jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			response.AbortErr(c, http.StatusUnauthorized, "Missing access token")
			return
		}
		claims, err := jwt.Parse(token)
		if err != nil {
			response.AbortErr(c, http.StatusUnauthorized, "Invalid token")
			return
		}
		id, err := claims.UserID()
		if err != nil {
			response.AbortErr(c, http.StatusUnauthorized, "Invalid token")
			return
		}

		u := auth.ValidateUser(c.Request.Context(), id)
		if u == nil {
			response.AbortErr(c, http.StatusUnauthorized, "Invalid token: User not found or inactive")
			return
		}
		if u.Email != claims.Email {
			response.AbortErr(c, http.StatusUnauthorized, "Invalid token: User data mismatch")
			return
		}

		c.Set(CtxUserIDKey, u.ID)
		c.Set(CtxUserKey, u)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], helpers.TokenType) {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

package apperr

import (
	"errors"
	"net/http"
)

// Error is a domain error carrying the HTTP status it maps to at the
// transport boundary. Services return these; handlers translate them.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

var (
	ErrEmailTaken         = &Error{Status: http.StatusConflict, Message: "User with this email already exists"}
	ErrInvalidCredentials = &Error{Status: http.StatusUnauthorized, Message: "Invalid email or password"}
	ErrInvalidToken       = &Error{Status: http.StatusUnauthorized, Message: "Invalid token"}
	ErrUserNotFound       = &Error{Status: http.StatusNotFound, Message: "User not found"}
	ErrInternal           = &Error{Status: http.StatusInternalServerError, Message: "Internal server error"}
)

// Status returns the HTTP status for err. Unexpected lower-layer failures
// map to 500 so internals never leak to the caller.
func Status(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return http.StatusInternalServerError
}

// Message returns the client-facing message for err. Non-domain errors get
// the generic internal message; the real cause stays in server logs.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ErrInternal.Message
}

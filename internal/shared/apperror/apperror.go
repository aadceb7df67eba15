// Package apperror defines the error taxonomy shared by every feature and its mapping to HTTP responses.
package apperror

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Kind sentinels. Match them with errors.Is.
var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrInternal     = errors.New("internal error")
)

// Error carries a client-facing message, its kind, and an optional internal cause.
// The cause is never written to a response.
type Error struct {
	kind    error
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

// Is reports whether target is the kind sentinel of e.
func (e *Error) Is(target error) bool {
	return target == e.kind
}

// Unwrap exposes the internal cause.
func (e *Error) Unwrap() error {
	return e.cause
}

// Kind returns the kind sentinel of e.
func (e *Error) Kind() error {
	return e.kind
}

func newError(kind error, msg string, cause []error) *Error {
	e := &Error{kind: kind, Message: msg}
	if len(cause) > 0 {
		e.cause = cause[0]
	}
	return e
}

// Validation reports malformed client input. It is never retried.
func Validation(msg string, cause ...error) *Error { return newError(ErrValidation, msg, cause) }

// NotFound reports that the addressed entity has no matching row.
func NotFound(msg string, cause ...error) *Error { return newError(ErrNotFound, msg, cause) }

// Unauthorized reports a credential or token failure.
// Callers pass a generic message so that expired, tampered and wrong-kind tokens look the same.
func Unauthorized(msg string, cause ...error) *Error { return newError(ErrUnauthorized, msg, cause) }

// Forbidden reports an authenticated caller acting on something it does not own.
func Forbidden(msg string, cause ...error) *Error { return newError(ErrForbidden, msg, cause) }

// Conflict reports a uniqueness violation.
func Conflict(msg string, cause ...error) *Error { return newError(ErrConflict, msg, cause) }

// Internal reports a server-side failure. Its message is replaced by a generic one on the wire.
func Internal(msg string, cause ...error) *Error { return newError(ErrInternal, msg, cause) }

// KindOf returns the kind of the outermost *Error in err's chain, or ErrInternal.
// The outermost wins so that an Internal wrapper around a client error stays internal.
func KindOf(err error) error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.kind
	}
	return ErrInternal
}

// Status maps err to an HTTP status code. Unclassified errors are 500.
func Status(err error) int {
	switch KindOf(err) {
	case ErrValidation:
		return http.StatusBadRequest
	case ErrUnauthorized:
		return http.StatusUnauthorized
	case ErrForbidden:
		return http.StatusForbidden
	case ErrNotFound:
		return http.StatusNotFound
	case ErrConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message that may be shown to the client.
func PublicMessage(err error) string {
	var ae *Error
	if errors.As(err, &ae) && ae.kind != ErrInternal {
		return ae.Message
	}
	return "internal server error"
}

// Respond aborts the request with the status and public message of err.
func Respond(c *gin.Context, err error) {
	c.AbortWithStatusJSON(Status(err), gin.H{"error": PublicMessage(err)})
}

// Middleware writes the last error a handler attached with c.Error, unless a response was already written.
// Server-side failures are logged with their cause.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		if Status(err) >= http.StatusInternalServerError {
			slog.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		}
		if c.Writer.Written() {
			return
		}
		Respond(c, err)
	}
}

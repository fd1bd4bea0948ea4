package app_error

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
)

// Kind is the machine-readable error class surfaced to API callers so
// the frontend can render an actionable message instead of a generic 500.
type Kind string

const (
	KindValidation        Kind = "validation"
	KindConflict          Kind = "conflict"
	KindState             Kind = "state"
	KindNotFound          Kind = "not_found"
	KindResourceExhausted Kind = "resource_exhausted"
)

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return 400
	case KindNotFound:
		return 404
	case KindConflict, KindState:
		return 409
	case KindResourceExhausted:
		return 503
	default:
		return 500
	}
}

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) *Error {
	return New(KindValidation, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return New(KindConflict, format, args...)
}

func State(format string, args ...any) *Error {
	return New(KindState, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, format, args...)
}

func ResourceExhausted(format string, args ...any) *Error {
	return New(KindResourceExhausted, format, args...)
}

func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// Respond maps application errors to their status and kind and everything
// else to a plain 500.
func Respond(c *gin.Context, err error) {
	var appErr *Error
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus(), gin.H{"error": appErr.Message, "kind": appErr.Kind})
		return
	}
	c.JSON(500, gin.H{"error": err.Error()})
}

// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for domain layer.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrDuplicate    = errors.New("duplicate entry")
	ErrValidation   = errors.New("validation failed")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// DelegateError carries a failure reported by a downstream dependency
// together with the status it asked to be relayed with.
type DelegateError struct {
	Status  int
	Message string
	Err     error
}

// Error implements the error interface.
func (e *DelegateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("delegate: %s: %v", e.Message, e.Err)
	}
	return "delegate: " + e.Message
}

// Unwrap exposes the wrapped cause.
func (e *DelegateError) Unwrap() error { return e.Err }

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	var delegate *DelegateError
	switch {
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, ErrUnauthorized):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	case errors.As(err, &delegate):
		status := delegate.Status
		if status < 400 || status > 599 {
			status = http.StatusInternalServerError
		}
		Problem(w, status, http.StatusText(status), delegate.Message)
	default:
		// Never leak internal error detail to the caller.
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

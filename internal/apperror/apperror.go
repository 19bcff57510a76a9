// Package apperror defines the domain error taxonomy shared by the service,
// repository, and handler layers.
//
// Every typed error wraps one sentinel (ErrNotFound, ErrValidation, ...) so
// callers branch with errors.Is and never on message text. The handler package
// is the only place these are translated into HTTP status codes.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation error")
	ErrConflict        = errors.New("conflict")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("unauthenticated")
)

type AppError struct {
	Err     error  // sentinel
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Conflict reports a uniqueness violation. field names the column whose
// value collided, e.g. Conflict("contractor", "email").
func Conflict(resource, field string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("a %s with this %s already exists", resource, field),
		Field:   field,
	}
}

// AccessDenied returns an AppError indicating the row exists but belongs to
// someone else. HTTP handlers map this to 403 Forbidden.
func AccessDenied(resource, id string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: fmt.Sprintf("access denied to %s %s", resource, id),
	}
}

// Unauthenticated is returned when no valid identity accompanies a request.
func Unauthenticated(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Message: message,
	}
}

// IsConflict reports whether err is a uniqueness violation.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// Package apperror defines the domain error taxonomy shared by every layer.
//
// Services and repositories return these errors; the HTTP layer translates
// them to status codes in one place (handler/response.go). Nothing below the
// handler ever imports net/http.
package apperror

import (
	"errors"
	"fmt"
)

// Sentinel errors. Callers check these with errors.Is after unwrapping.
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// AppError carries a sentinel plus a human-readable message safe to show to
// API clients. Internal details (SQL, file paths) never go in Message.
type AppError struct {
	Err     error  // one of the sentinels above
	Message string // client-facing description
	Field   string // optional: input field that caused the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound reports that the referenced entity does not exist.
func NotFound(resource string, id int64) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %d", resource, id),
	}
}

// ValidationFailed reports malformed or missing input.
func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Conflict reports a uniqueness violation (e.g. duplicate email).
func Conflict(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
	}
}

// Unauthorized reports missing or invalid credentials or tokens.
// The message is deliberately uniform for login failures so callers cannot
// tell a wrong password from a nonexistent account.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// Forbidden reports that the authenticated caller lacks permission.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

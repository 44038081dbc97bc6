package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrForbidden indicates that the caller is not entitled to perform the requested action.
var ErrForbidden = errors.New("action forbidden")

// ErrInvalidState indicates that the target entity is not in a state that accepts the
// requested operation (e.g. confirming a match that is already terminal, or running
// discovery against a demand that is no longer PENDING).
var ErrInvalidState = errors.New("invalid state for requested operation")

// ErrConflict indicates that a concurrent writer modified the resource between our
// read and our write. Callers re-read and retry rather than surfacing this.
var ErrConflict = errors.New("concurrent modification conflict")

// AppError carries a status code alongside a message and the wrapped cause.
// Repositories use it for infrastructure failures that have no sentinel.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates an AppError wrapping the given cause.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

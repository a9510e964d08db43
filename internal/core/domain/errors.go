package domain

import (
	"errors"
	"fmt"
)

var (
	ErrPollNotFound       = errors.New("poll not found")
	ErrInvalidOption      = errors.New("invalid option for this poll")
	ErrDuplicateVote      = errors.New("you have already voted on this poll")
	ErrForbidden          = errors.New("not allowed to modify this poll")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
)

// ValidationError reports caller input that violates a precondition. It is
// always raised before the backend is reached.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// BackendError wraps any failure reported by the storage backend. The
// backend message is kept as is.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

func NewBackendError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &BackendError{Op: op, Err: err}
}

func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

func IsBackend(err error) bool {
	var berr *BackendError
	return errors.As(err, &berr)
}

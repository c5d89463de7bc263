package core

import (
	"errors"
	"fmt"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("not authenticated")
	ErrNotFound        = errors.New("transaction not found")
	ErrConflict        = errors.New("conflict")

	// ErrInvalidCredentials covers both an unknown email and a wrong password.
	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", ErrUnauthenticated)
	ErrEmailTaken         = fmt.Errorf("%w: email already registered", ErrConflict)
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Is makes every ValidationError match ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// PublicMessage returns the text shown to API clients for err. Sentinel
// messages stay lowercase for wrapping; the user-facing wording lives here.
func PublicMessage(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid email or password"
	case errors.Is(err, ErrEmailTaken):
		return "Email already registered"
	case errors.Is(err, ErrUnauthenticated):
		return "Not authenticated"
	case errors.Is(err, ErrNotFound):
		return "Transaction not found"
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	return err.Error()
}

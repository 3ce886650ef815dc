package services

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/goblog/internal/common"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameTaken      = fmt.Errorf("username already registered: %w", common.ErrorAlreadyExists)
)

// ValidationError reports the first form field that failed validation.
// It matches common.ErrorValidation under errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return common.ErrorValidation
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// internal hides repository failures behind common.ErrorInternal while
// keeping the cause in the message for logs.
func internal(err error) error {
	return fmt.Errorf("%w: %v", common.ErrorInternal, err)
}

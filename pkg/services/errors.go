// Package services provides the business logic layer on top of persistence
// and the pipeline runner.
package services

import (
	"errors"
	"fmt"
)

// Validation errors indicate client mistakes and map to 400 responses.
var (
	ErrPipelineNameRequired = errors.New("pipeline name is required")
	ErrUserIDRequired       = errors.New("user ID is required")
	ErrStepsRequired        = errors.New("pipeline must have at least one step")
	ErrInvalidStepType      = errors.New("invalid step type")
	ErrInvalidStepConfig    = errors.New("invalid step configuration")
	ErrInputRequired        = errors.New("input text is required")
	ErrUserEmailRequired    = errors.New("user email is required")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error should be reported as HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrPipelineNameRequired) ||
		errors.Is(err, ErrUserIDRequired) ||
		errors.Is(err, ErrStepsRequired) ||
		errors.Is(err, ErrInvalidStepType) ||
		errors.Is(err, ErrInvalidStepConfig) ||
		errors.Is(err, ErrInputRequired) ||
		errors.Is(err, ErrUserEmailRequired)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

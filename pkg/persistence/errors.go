// Package persistence provides standardized error types for storage operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrPipelineNotFound indicates no pipeline matches the id (and owner
	// scope, when supplied).
	ErrPipelineNotFound = errors.New("pipeline not found")

	// ErrExecutionNotFound indicates no execution matches the id.
	ErrExecutionNotFound = errors.New("execution not found")

	// ErrUserNotFound indicates no user matches the id.
	ErrUserNotFound = errors.New("user not found")

	// ErrForeignKeyViolation indicates a write referenced a missing row,
	// typically a pipeline created for a user that does not exist.
	ErrForeignKeyViolation = errors.New("referenced record does not exist")

	// ErrDuplicateKey indicates a unique constraint was violated.
	ErrDuplicateKey = errors.New("record already exists")
)

// StoreError wraps storage errors with operation context. Friendly carries a
// user-facing message for known failure classes; Error() keeps the raw cause
// for logs.
type StoreError struct {
	Op       string // Operation being performed (e.g. "Save", "Delete")
	Entity   string // Entity kind (e.g. "pipeline", "execution")
	ID       string // Entity id if applicable
	Friendly string // User-facing message for known cases
	Err      error  // Underlying error
}

func (e *StoreError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s operation failed for %s %s: %v", e.Op, e.Entity, e.ID, e.Err)
	}

	return fmt.Sprintf("%s operation failed for %s: %v", e.Op, e.Entity, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// FriendlyMessage returns the user-facing message for err when one exists,
// falling back to the raw error text.
func FriendlyMessage(err error) string {
	var storeErr *StoreError
	if errors.As(err, &storeErr) && storeErr.Friendly != "" {
		return storeErr.Friendly
	}

	return err.Error()
}

// IsPipelineNotFound checks if an error indicates a pipeline was not found.
func IsPipelineNotFound(err error) bool {
	return errors.Is(err, ErrPipelineNotFound)
}

// IsExecutionNotFound checks if an error indicates an execution was not found.
func IsExecutionNotFound(err error) bool {
	return errors.Is(err, ErrExecutionNotFound)
}

// IsUserNotFound checks if an error indicates a user was not found.
func IsUserNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}

package processor

import (
	"fmt"

	"github.com/dukex/textpipe/pkg/models"
)

// StepExecutionError indicates the backing generation call for one step
// failed or returned empty content. It aborts the remaining chain.
type StepExecutionError struct {
	StepType models.StepType
	Err      error
}

func (e *StepExecutionError) Error() string {
	return fmt.Sprintf("step %s failed: %v", e.StepType, e.Err)
}

func (e *StepExecutionError) Unwrap() error {
	return e.Err
}

// NewStepExecutionError wraps a backend failure with its step type.
func NewStepExecutionError(stepType models.StepType, err error) *StepExecutionError {
	return &StepExecutionError{
		StepType: stepType,
		Err:      err,
	}
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dukex/textpipe/pkg/eventbus"
	"github.com/dukex/textpipe/pkg/events"
	"github.com/dukex/textpipe/pkg/models"
	"github.com/dukex/textpipe/pkg/persistence"
	"github.com/dukex/textpipe/pkg/runner"
)

// ErrExecutionNotFound is returned when an execution is not found.
var ErrExecutionNotFound = persistence.ErrExecutionNotFound

// Execution runs pipelines against input text and records the results.
type Execution struct {
	persistence persistence.Persistence
	runner      *runner.Runner
	eventBus    eventbus.EventBus
	logger      *slog.Logger
}

// NewExecution creates a new execution service.
func NewExecution(p persistence.Persistence, r *runner.Runner, eb eventbus.EventBus, logger *slog.Logger) *Execution {
	return &Execution{
		persistence: p,
		runner:      r,
		eventBus:    eb,
		logger:      logger,
	}
}

// Execute runs the user's pipeline against the input and persists an
// execution record with per-step outputs. A step failure is not an error
// here: the execution is finalized as failed and returned to the caller.
func (s *Execution) Execute(ctx context.Context, pipelineID, userID, input string) (*models.Execution, error) {
	if strings.TrimSpace(input) == "" {
		return nil, ErrInputRequired
	}

	if strings.TrimSpace(userID) == "" {
		return nil, ErrUserIDRequired
	}

	pipeline, err := s.persistence.Pipelines().GetByID(ctx, pipelineID, userID)
	if err != nil {
		return nil, err
	}

	execution := &models.Execution{
		PipelineID: pipeline.ID,
		UserID:     userID,
		Input:      input,
		Status:     models.ExecutionStatusRunning,
	}

	if err := s.persistence.Executions().Create(ctx, execution); err != nil {
		return nil, fmt.Errorf("failed to create execution: %w", err)
	}

	s.publish(ctx, execution.ID, events.ExecutionStarted{
		BaseEvent:   s.baseEvent(events.ExecutionStartedEvent, pipeline.ID, userID),
		ExecutionID: execution.ID,
		InputLength: len(input),
	})

	result, err := s.runner.Run(ctx, pipeline.Steps, input)
	if err != nil {
		result = &runner.Result{
			Status:       models.ExecutionStatusFailed,
			ErrorMessage: err.Error(),
		}
	}

	execution.Status = result.Status
	execution.TotalProcessingTime = result.TotalProcessingTime
	execution.ErrorMessage = result.ErrorMessage
	execution.Outputs = make([]*models.ExecutionOutput, 0, len(result.Outputs))

	for _, output := range result.Outputs {
		execution.Outputs = append(execution.Outputs, &models.ExecutionOutput{
			ExecutionID:    execution.ID,
			StepID:         output.StepID,
			Output:         output.Output,
			ProcessingTime: output.ProcessingTime,
		})
	}

	if err := s.persistence.Executions().Finalize(ctx, execution); err != nil {
		return nil, fmt.Errorf("failed to finalize execution: %w", err)
	}

	s.publishOutcome(ctx, pipeline.ID, execution)

	return execution, nil
}

// RunAdHoc executes a transient step list without persisting anything. The
// steps are validated the same way stored pipelines are.
func (s *Execution) RunAdHoc(ctx context.Context, steps []*models.Step, input string) (*runner.Result, error) {
	if strings.TrimSpace(input) == "" {
		return nil, ErrInputRequired
	}

	if len(steps) == 0 {
		return nil, ErrStepsRequired
	}

	for i, step := range steps {
		if !step.Type.Known() {
			return nil, NewValidationError(
				"runAdHoc",
				"INVALID_STEP_TYPE",
				fmt.Sprintf("unknown step type '%s' at position %d", step.Type, i+1),
				ErrInvalidStepType,
			)
		}

		if err := models.ValidateStepConfig(step.Type, step.Config); err != nil {
			return nil, NewValidationError(
				"runAdHoc",
				"INVALID_STEP_CONFIG",
				fmt.Sprintf("step %d (%s): %v", i+1, step.Type, err),
				errors.Join(ErrInvalidStepConfig, err),
			)
		}

		if step.Order == 0 {
			step.Order = i + 1
		}

		if step.ID == "" {
			step.ID = fmt.Sprintf("adhoc-%d", i+1)
		}
	}

	return s.runner.Run(ctx, steps, input)
}

// History returns the user's executions, newest first.
func (s *Execution) History(ctx context.Context, userID string) ([]*models.Execution, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUserIDRequired
	}

	return s.persistence.Executions().ListByUser(ctx, userID)
}

// FetchByID retrieves an execution, scoped to the user when userID is not
// empty.
func (s *Execution) FetchByID(ctx context.Context, id, userID string) (*models.Execution, error) {
	return s.persistence.Executions().GetByID(ctx, id, userID)
}

func (s *Execution) publishOutcome(ctx context.Context, pipelineID string, execution *models.Execution) {
	if execution.Status == models.ExecutionStatusCompleted {
		s.publish(ctx, execution.ID, events.ExecutionCompleted{
			BaseEvent:           s.baseEvent(events.ExecutionCompletedEvent, pipelineID, execution.UserID),
			ExecutionID:         execution.ID,
			OutputCount:         len(execution.Outputs),
			TotalProcessingTime: execution.TotalProcessingTime,
		})

		return
	}

	s.publish(ctx, execution.ID, events.ExecutionFailed{
		BaseEvent:           s.baseEvent(events.ExecutionFailedEvent, pipelineID, execution.UserID),
		ExecutionID:         execution.ID,
		Error:               execution.ErrorMessage,
		OutputCount:         len(execution.Outputs),
		TotalProcessingTime: execution.TotalProcessingTime,
	})
}

func (s *Execution) baseEvent(eventType events.EventType, pipelineID, userID string) events.BaseEvent {
	return events.BaseEvent{
		ID:         s.eventBus.GenerateID(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		PipelineID: pipelineID,
		UserID:     userID,
	}
}

func (s *Execution) publish(ctx context.Context, key string, event eventbus.Event) {
	if err := s.eventBus.Publish(ctx, key, event); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish event",
			"event_type", event.GetType(), "error", err)
	}
}

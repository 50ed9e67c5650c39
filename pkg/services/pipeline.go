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
)

// ErrPipelineNotFound is returned when a pipeline is not found.
var ErrPipelineNotFound = persistence.ErrPipelineNotFound

// Pipeline manages pipeline definitions.
type Pipeline struct {
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	logger      *slog.Logger
}

// NewPipeline creates a new pipeline service.
func NewPipeline(p persistence.Persistence, eb eventbus.EventBus, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		persistence: p,
		eventBus:    eb,
		logger:      logger,
	}
}

// HealthCheck checks the health of the persistence layer.
func (s *Pipeline) HealthCheck(ctx context.Context) (string, bool) {
	if s.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := s.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// Create validates and persists a new pipeline with its steps.
func (s *Pipeline) Create(ctx context.Context, pipeline *models.Pipeline) (*models.Pipeline, error) {
	if err := s.validate(pipeline); err != nil {
		return nil, err
	}

	if err := s.persistence.Pipelines().Save(ctx, pipeline); err != nil {
		return nil, fmt.Errorf("failed to save pipeline: %w", err)
	}

	s.publish(ctx, pipeline.ID, events.PipelineCreated{
		BaseEvent: s.baseEvent(events.PipelineCreatedEvent, pipeline.ID, pipeline.UserID),
		Name:      pipeline.Name,
		StepCount: len(pipeline.Steps),
	})

	return pipeline, nil
}

// FetchByID retrieves a pipeline, scoped to the user when userID is not empty.
func (s *Pipeline) FetchByID(ctx context.Context, id, userID string) (*models.Pipeline, error) {
	pipeline, err := s.persistence.Pipelines().GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	models.SortSteps(pipeline.Steps)

	return pipeline, nil
}

// ListByUser returns all pipelines owned by the user.
func (s *Pipeline) ListByUser(ctx context.Context, userID string) ([]*models.Pipeline, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUserIDRequired
	}

	return s.persistence.Pipelines().ListByUser(ctx, userID)
}

// Update replaces the pipeline's attributes. When steps are provided the
// existing set is replaced wholesale; a nil step slice keeps the current
// steps untouched.
func (s *Pipeline) Update(ctx context.Context, pipeline *models.Pipeline) (*models.Pipeline, error) {
	existing, err := s.persistence.Pipelines().GetByID(ctx, pipeline.ID, pipeline.UserID)
	if err != nil {
		return nil, err
	}

	stepsReplaced := pipeline.Steps != nil
	if !stepsReplaced {
		pipeline.Steps = existing.Steps
	}

	pipeline.CreatedAt = existing.CreatedAt

	if err := s.validate(pipeline); err != nil {
		return nil, err
	}

	if err := s.persistence.Pipelines().Save(ctx, pipeline); err != nil {
		return nil, fmt.Errorf("failed to update pipeline: %w", err)
	}

	s.publish(ctx, pipeline.ID, events.PipelineUpdated{
		BaseEvent:     s.baseEvent(events.PipelineUpdatedEvent, pipeline.ID, pipeline.UserID),
		Name:          pipeline.Name,
		StepsReplaced: stepsReplaced,
	})

	return pipeline, nil
}

// Delete removes a pipeline. Executions cascade with it.
func (s *Pipeline) Delete(ctx context.Context, id, userID string) error {
	pipeline, err := s.persistence.Pipelines().GetByID(ctx, id, userID)
	if err != nil {
		return err
	}

	if err := s.persistence.Pipelines().Delete(ctx, pipeline.ID); err != nil {
		return err
	}

	s.publish(ctx, pipeline.ID, events.PipelineDeleted{
		BaseEvent: s.baseEvent(events.PipelineDeletedEvent, pipeline.ID, pipeline.UserID),
	})

	return nil
}

// validate checks the pipeline's own fields and every step's type and
// configuration. Steps without an explicit order get their one-based
// position in the request.
func (s *Pipeline) validate(pipeline *models.Pipeline) error {
	pipeline.Name = strings.TrimSpace(pipeline.Name)
	if pipeline.Name == "" {
		return ErrPipelineNameRequired
	}

	if strings.TrimSpace(pipeline.UserID) == "" {
		return ErrUserIDRequired
	}

	if len(pipeline.Steps) == 0 {
		return ErrStepsRequired
	}

	for i, step := range pipeline.Steps {
		if !step.Type.Known() {
			return NewValidationError(
				"validatePipeline",
				"INVALID_STEP_TYPE",
				fmt.Sprintf("unknown step type '%s' at position %d", step.Type, i+1),
				ErrInvalidStepType,
			)
		}

		if err := models.ValidateStepConfig(step.Type, step.Config); err != nil {
			return NewValidationError(
				"validatePipeline",
				"INVALID_STEP_CONFIG",
				fmt.Sprintf("step %d (%s): %v", i+1, step.Type, err),
				errors.Join(ErrInvalidStepConfig, err),
			)
		}

		if step.Order == 0 {
			step.Order = i + 1
		}
	}

	return nil
}

func (s *Pipeline) baseEvent(eventType events.EventType, pipelineID, userID string) events.BaseEvent {
	return events.BaseEvent{
		ID:         s.eventBus.GenerateID(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		PipelineID: pipelineID,
		UserID:     userID,
	}
}

func (s *Pipeline) publish(ctx context.Context, key string, event eventbus.Event) {
	if err := s.eventBus.Publish(ctx, key, event); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish event",
			"event_type", event.GetType(), "error", err)
	}
}

package services

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dukex/textpipe/pkg/eventbus"
	"github.com/dukex/textpipe/pkg/events"
	"github.com/dukex/textpipe/pkg/mocks"
	"github.com/dukex/textpipe/pkg/models"
	"github.com/dukex/textpipe/pkg/persistence/file"
)

func newMockBus() *mocks.MockEventBus {
	bus := &mocks.MockEventBus{}
	bus.On("GenerateID").Return("event-id")
	bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	return bus
}

func newPipelineService(t *testing.T) (*Pipeline, *mocks.MockEventBus) {
	t.Helper()

	bus := newMockBus()

	return NewPipeline(file.NewPersistence(t.TempDir()), bus, slog.Default()), bus
}

func validPipeline() *models.Pipeline {
	return &models.Pipeline{
		Name:   "Condense and translate",
		UserID: "user-1",
		Steps: []*models.Step{
			{Type: models.StepTypeSummarize, Config: map[string]any{"length": "short"}},
			{Type: models.StepTypeTranslate, Config: map[string]any{"targetLanguage": "French"}},
		},
	}
}

func TestPipelineCreate(t *testing.T) {
	service, bus := newPipelineService(t)

	created, err := service.Create(context.Background(), validPipeline())
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	// Steps without an explicit order get their position in the request.
	assert.Equal(t, 1, created.Steps[0].Order)
	assert.Equal(t, 2, created.Steps[1].Order)

	bus.AssertCalled(t, "Publish", mock.Anything, created.ID, mock.MatchedBy(func(event eventbus.Event) bool {
		return event.GetType() == events.PipelineCreatedEvent
	}))
}

func TestPipelineCreate_ValidationFailures(t *testing.T) {
	service, _ := newPipelineService(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(p *models.Pipeline)
		wantErr error
	}{
		{"blank name", func(p *models.Pipeline) { p.Name = "   " }, ErrPipelineNameRequired},
		{"missing user", func(p *models.Pipeline) { p.UserID = "" }, ErrUserIDRequired},
		{"no steps", func(p *models.Pipeline) { p.Steps = nil }, ErrStepsRequired},
		{"unknown step type", func(p *models.Pipeline) {
			p.Steps[0].Type = models.StepType("condense")
		}, ErrInvalidStepType},
		{"bad step config", func(p *models.Pipeline) {
			p.Steps[0].Config = map[string]any{"length": "gigantic"}
		}, ErrInvalidStepConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pipeline := validPipeline()
			tt.mutate(pipeline)

			_, err := service.Create(ctx, pipeline)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, IsValidationError(err))
		})
	}
}

func TestPipelineUpdate_KeepsStepsWhenOmitted(t *testing.T) {
	service, _ := newPipelineService(t)
	ctx := context.Background()

	created, err := service.Create(ctx, validPipeline())
	require.NoError(t, err)

	updated, err := service.Update(ctx, &models.Pipeline{
		ID:     created.ID,
		Name:   "Renamed",
		UserID: "user-1",
		Steps:  nil,
	})
	require.NoError(t, err)

	assert.Equal(t, "Renamed", updated.Name)
	require.Len(t, updated.Steps, 2)
	assert.Equal(t, models.StepTypeSummarize, updated.Steps[0].Type)
}

func TestPipelineUpdate_ReplacesStepsWhenProvided(t *testing.T) {
	service, _ := newPipelineService(t)
	ctx := context.Background()

	created, err := service.Create(ctx, validPipeline())
	require.NoError(t, err)

	updated, err := service.Update(ctx, &models.Pipeline{
		ID:     created.ID,
		Name:   created.Name,
		UserID: "user-1",
		Steps: []*models.Step{
			{Type: models.StepTypeExtract, Config: map[string]any{"extractType": "topics"}},
		},
	})
	require.NoError(t, err)

	require.Len(t, updated.Steps, 1)
	assert.Equal(t, models.StepTypeExtract, updated.Steps[0].Type)

	loaded, err := service.FetchByID(ctx, created.ID, "user-1")
	require.NoError(t, err)
	assert.Len(t, loaded.Steps, 1)
}

func TestPipelineUpdate_NotFound(t *testing.T) {
	service, _ := newPipelineService(t)

	_, err := service.Update(context.Background(), &models.Pipeline{
		ID:     "missing",
		Name:   "x",
		UserID: "user-1",
	})
	assert.ErrorIs(t, err, ErrPipelineNotFound)
}

func TestPipelineDelete_ScopedToOwner(t *testing.T) {
	service, _ := newPipelineService(t)
	ctx := context.Background()

	created, err := service.Create(ctx, validPipeline())
	require.NoError(t, err)

	err = service.Delete(ctx, created.ID, "someone-else")
	assert.ErrorIs(t, err, ErrPipelineNotFound)

	require.NoError(t, service.Delete(ctx, created.ID, "user-1"))

	_, err = service.FetchByID(ctx, created.ID, "user-1")
	assert.ErrorIs(t, err, ErrPipelineNotFound)
}

func TestPipelineListByUser_RequiresUser(t *testing.T) {
	service, _ := newPipelineService(t)

	_, err := service.ListByUser(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrUserIDRequired)
}

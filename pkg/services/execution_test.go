package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dukex/textpipe/pkg/eventbus"
	"github.com/dukex/textpipe/pkg/events"
	"github.com/dukex/textpipe/pkg/generation"
	"github.com/dukex/textpipe/pkg/mocks"
	"github.com/dukex/textpipe/pkg/models"
	"github.com/dukex/textpipe/pkg/persistence/file"
	"github.com/dukex/textpipe/pkg/processor"
	"github.com/dukex/textpipe/pkg/runner"
)

// echoGenerator returns a deterministic completion per call and can be
// switched to fail.
type echoGenerator struct {
	calls int
	err   error
}

func (g *echoGenerator) Generate(_ context.Context, _ generation.Request) (string, error) {
	g.calls++

	if g.err != nil {
		return "", g.err
	}

	return "generated output", nil
}

func (g *echoGenerator) Name() string { return "echo" }

type executionFixture struct {
	pipelines  *Pipeline
	executions *Execution
	generator  *echoGenerator
	bus        *mocks.MockEventBus
}

func newExecutionFixture(t *testing.T) *executionFixture {
	t.Helper()

	persistence := file.NewPersistence(t.TempDir())
	bus := newMockBus()
	generator := &echoGenerator{}

	proc := processor.NewProcessor(generator, slog.Default())
	run := runner.NewRunner(proc, slog.Default())

	return &executionFixture{
		pipelines:  NewPipeline(persistence, bus, slog.Default()),
		executions: NewExecution(persistence, run, bus, slog.Default()),
		generator:  generator,
		bus:        bus,
	}
}

func (f *executionFixture) createPipeline(t *testing.T) *models.Pipeline {
	t.Helper()

	created, err := f.pipelines.Create(context.Background(), validPipeline())
	require.NoError(t, err)

	return created
}

func TestExecute_CompletedLifecycle(t *testing.T) {
	f := newExecutionFixture(t)
	ctx := context.Background()
	pipeline := f.createPipeline(t)

	execution, err := f.executions.Execute(ctx, pipeline.ID, "user-1", "some input text")
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusCompleted, execution.Status)
	assert.Empty(t, execution.ErrorMessage)
	assert.Equal(t, 2, f.generator.calls)
	require.Len(t, execution.Outputs, 2)
	assert.Equal(t, pipeline.Steps[0].ID, execution.Outputs[0].StepID)
	assert.GreaterOrEqual(t, execution.TotalProcessingTime, int64(0))

	// The record is durable and visible in history.
	loaded, err := f.executions.FetchByID(ctx, execution.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusCompleted, loaded.Status)
	assert.Len(t, loaded.Outputs, 2)

	f.bus.AssertCalled(t, "Publish", mock.Anything, execution.ID, mock.MatchedBy(func(event eventbus.Event) bool {
		return event.GetType() == events.ExecutionStartedEvent
	}))
	f.bus.AssertCalled(t, "Publish", mock.Anything, execution.ID, mock.MatchedBy(func(event eventbus.Event) bool {
		return event.GetType() == events.ExecutionCompletedEvent
	}))
}

func TestExecute_FailedLifecycle(t *testing.T) {
	f := newExecutionFixture(t)
	ctx := context.Background()
	pipeline := f.createPipeline(t)

	f.generator.err = errors.New("backend down")

	execution, err := f.executions.Execute(ctx, pipeline.ID, "user-1", "some input text")
	require.NoError(t, err, "step failures surface through the execution record")

	assert.Equal(t, models.ExecutionStatusFailed, execution.Status)
	assert.Contains(t, execution.ErrorMessage, "backend down")
	assert.Empty(t, execution.Outputs, "the failing first step produced no output")

	loaded, err := f.executions.FetchByID(ctx, execution.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusFailed, loaded.Status)

	f.bus.AssertCalled(t, "Publish", mock.Anything, execution.ID, mock.MatchedBy(func(event eventbus.Event) bool {
		return event.GetType() == events.ExecutionFailedEvent
	}))
}

func TestExecute_FinalizeFailureSurfaces(t *testing.T) {
	pipelines := &mocks.MockPipelineRepository{}
	executions := &mocks.MockExecutionRepository{}
	store := &mocks.MockPersistence{}
	store.On("Pipelines").Return(pipelines)
	store.On("Executions").Return(executions)

	pipeline := validPipeline()
	pipeline.ID = "pipeline-1"
	pipeline.Steps[0].ID = "s1"
	pipeline.Steps[1].ID = "s2"

	pipelines.On("GetByID", mock.Anything, "pipeline-1", "user-1").Return(pipeline, nil)
	executions.On("Create", mock.Anything, mock.Anything).Return(nil)
	executions.On("Finalize", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	generator := &mocks.MockGenerator{}
	generator.On("Generate", mock.Anything, mock.Anything).Return("generated output", nil)

	proc := processor.NewProcessor(generator, slog.Default())
	run := runner.NewRunner(proc, slog.Default())
	service := NewExecution(store, run, newMockBus(), slog.Default())

	_, err := service.Execute(context.Background(), "pipeline-1", "user-1", "input")
	require.ErrorContains(t, err, "disk full")

	executions.AssertExpectations(t)
	generator.AssertExpectations(t)
}

func TestExecute_ValidationBeforeSideEffects(t *testing.T) {
	f := newExecutionFixture(t)
	ctx := context.Background()
	pipeline := f.createPipeline(t)

	_, err := f.executions.Execute(ctx, pipeline.ID, "user-1", "   ")
	assert.ErrorIs(t, err, ErrInputRequired)

	_, err = f.executions.Execute(ctx, pipeline.ID, "", "input")
	assert.ErrorIs(t, err, ErrUserIDRequired)

	// No execution row may exist after rejected requests.
	history, err := f.executions.History(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.Zero(t, f.generator.calls)
}

func TestExecute_UnknownPipeline(t *testing.T) {
	f := newExecutionFixture(t)

	_, err := f.executions.Execute(context.Background(), "missing", "user-1", "input")
	assert.ErrorIs(t, err, ErrPipelineNotFound)
}

func TestExecute_OtherUsersPipeline(t *testing.T) {
	f := newExecutionFixture(t)
	pipeline := f.createPipeline(t)

	_, err := f.executions.Execute(context.Background(), pipeline.ID, "intruder", "input")
	assert.ErrorIs(t, err, ErrPipelineNotFound)
}

func TestRunAdHoc(t *testing.T) {
	f := newExecutionFixture(t)

	steps := []*models.Step{
		{Type: models.StepTypeSummarize},
		{Type: models.StepTypeExtract, Config: map[string]any{"extractType": "keywords"}},
	}

	result, err := f.executions.RunAdHoc(context.Background(), steps, "input text")
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusCompleted, result.Status)
	assert.Len(t, result.Outputs, 2)

	// Nothing is persisted for ad-hoc runs.
	history, err := f.executions.History(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestRunAdHoc_Validation(t *testing.T) {
	f := newExecutionFixture(t)
	ctx := context.Background()

	_, err := f.executions.RunAdHoc(ctx, nil, "input")
	assert.ErrorIs(t, err, ErrStepsRequired)

	_, err = f.executions.RunAdHoc(ctx, []*models.Step{{Type: models.StepTypeSummarize}}, "")
	assert.ErrorIs(t, err, ErrInputRequired)

	_, err = f.executions.RunAdHoc(ctx, []*models.Step{{Type: models.StepType("nope")}}, "input")
	assert.ErrorIs(t, err, ErrInvalidStepType)
}

func TestHistory_RequiresUser(t *testing.T) {
	f := newExecutionFixture(t)

	_, err := f.executions.History(context.Background(), "")
	assert.ErrorIs(t, err, ErrUserIDRequired)
}

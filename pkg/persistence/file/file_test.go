package file

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukex/textpipe/pkg/models"
	"github.com/dukex/textpipe/pkg/persistence"
)

func newTestPersistence(t *testing.T) *Persistence {
	t.Helper()

	return NewPersistence(t.TempDir())
}

func testPipeline(userID string) *models.Pipeline {
	return &models.Pipeline{
		Name:   "Summarize and translate",
		UserID: userID,
		Steps: []*models.Step{
			{Type: models.StepTypeSummarize, Order: 1, Config: map[string]any{"length": "short"}},
			{Type: models.StepTypeTranslate, Order: 2, Config: map[string]any{"targetLanguage": "Spanish"}},
		},
	}
}

func TestPipelineRepository_SaveAndGet(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()

	pipeline := testPipeline("user-1")
	require.NoError(t, p.Pipelines().Save(ctx, pipeline))
	require.NotEmpty(t, pipeline.ID)
	require.NotEmpty(t, pipeline.Steps[0].ID)

	loaded, err := p.Pipelines().GetByID(ctx, pipeline.ID, "user-1")
	require.NoError(t, err)

	assert.Equal(t, pipeline.Name, loaded.Name)
	require.Len(t, loaded.Steps, 2)
	assert.Equal(t, models.StepTypeSummarize, loaded.Steps[0].Type)
	assert.Equal(t, "short", loaded.Steps[0].Config["length"])
}

func TestPipelineRepository_GetScopedToOwner(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()

	pipeline := testPipeline("user-1")
	require.NoError(t, p.Pipelines().Save(ctx, pipeline))

	_, err := p.Pipelines().GetByID(ctx, pipeline.ID, "someone-else")
	assert.ErrorIs(t, err, persistence.ErrPipelineNotFound)

	// Unscoped lookup still finds it.
	loaded, err := p.Pipelines().GetByID(ctx, pipeline.ID, "")
	require.NoError(t, err)
	assert.Equal(t, pipeline.ID, loaded.ID)
}

func TestPipelineRepository_StepsSortedOnLoad(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()

	pipeline := &models.Pipeline{
		Name:   "Out of order",
		UserID: "user-1",
		Steps: []*models.Step{
			{Type: models.StepTypeRewrite, Order: 3},
			{Type: models.StepTypeSummarize, Order: 1},
			{Type: models.StepTypeTranslate, Order: 2},
		},
	}
	require.NoError(t, p.Pipelines().Save(ctx, pipeline))

	loaded, err := p.Pipelines().GetByID(ctx, pipeline.ID, "user-1")
	require.NoError(t, err)
	require.Len(t, loaded.Steps, 3)

	assert.Equal(t, models.StepTypeSummarize, loaded.Steps[0].Type)
	assert.Equal(t, models.StepTypeTranslate, loaded.Steps[1].Type)
	assert.Equal(t, models.StepTypeRewrite, loaded.Steps[2].Type)
}

func TestPipelineRepository_UpdateReplacesSteps(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()

	pipeline := testPipeline("user-1")
	require.NoError(t, p.Pipelines().Save(ctx, pipeline))

	pipeline.Steps = []*models.Step{
		{Type: models.StepTypeExtract, Order: 1, Config: map[string]any{"extractType": "keywords"}},
	}
	require.NoError(t, p.Pipelines().Save(ctx, pipeline))

	loaded, err := p.Pipelines().GetByID(ctx, pipeline.ID, "user-1")
	require.NoError(t, err)
	require.Len(t, loaded.Steps, 1)
	assert.Equal(t, models.StepTypeExtract, loaded.Steps[0].Type)
}

func TestPipelineRepository_ListByUser(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()

	require.NoError(t, p.Pipelines().Save(ctx, testPipeline("user-1")))
	require.NoError(t, p.Pipelines().Save(ctx, testPipeline("user-1")))
	require.NoError(t, p.Pipelines().Save(ctx, testPipeline("user-2")))

	pipelines, err := p.Pipelines().ListByUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, pipelines, 2)
}

func TestPipelineRepository_DeleteCascadesExecutions(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()

	pipeline := testPipeline("user-1")
	require.NoError(t, p.Pipelines().Save(ctx, pipeline))

	execution := &models.Execution{
		PipelineID: pipeline.ID,
		UserID:     "user-1",
		Input:      "input text",
		Status:     models.ExecutionStatusRunning,
	}
	require.NoError(t, p.Executions().Create(ctx, execution))

	require.NoError(t, p.Pipelines().Delete(ctx, pipeline.ID))

	_, err := p.Pipelines().GetByID(ctx, pipeline.ID, "")
	assert.ErrorIs(t, err, persistence.ErrPipelineNotFound)

	_, err = p.Executions().GetByID(ctx, execution.ID, "")
	assert.ErrorIs(t, err, persistence.ErrExecutionNotFound)
}

func TestExecutionRepository_CreateAndFinalize(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()

	execution := &models.Execution{
		PipelineID: "pipeline-1",
		UserID:     "user-1",
		Input:      "text",
		Status:     models.ExecutionStatusRunning,
	}
	require.NoError(t, p.Executions().Create(ctx, execution))
	require.NotEmpty(t, execution.ID)

	execution.Status = models.ExecutionStatusCompleted
	execution.TotalProcessingTime = 1234
	execution.Outputs = []*models.ExecutionOutput{
		{StepID: "s1", Output: "summary", ProcessingTime: 600},
		{StepID: "s2", Output: "translated", ProcessingTime: 500},
	}
	require.NoError(t, p.Executions().Finalize(ctx, execution))

	loaded, err := p.Executions().GetByID(ctx, execution.ID, "user-1")
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusCompleted, loaded.Status)
	assert.Equal(t, int64(1234), loaded.TotalProcessingTime)
	require.Len(t, loaded.Outputs, 2)
	assert.NotEmpty(t, loaded.Outputs[0].ID)
	assert.Equal(t, execution.ID, loaded.Outputs[0].ExecutionID)
}

func TestExecutionRepository_FinalizeUnknownExecution(t *testing.T) {
	p := newTestPersistence(t)

	err := p.Executions().Finalize(context.Background(), &models.Execution{ID: "missing"})
	assert.ErrorIs(t, err, persistence.ErrExecutionNotFound)
}

func TestExecutionRepository_ListByUserNewestFirst(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()

	for range 3 {
		execution := &models.Execution{
			PipelineID: "pipeline-1",
			UserID:     "user-1",
			Input:      "text",
			Status:     models.ExecutionStatusRunning,
		}
		require.NoError(t, p.Executions().Create(ctx, execution))
	}

	executions, err := p.Executions().ListByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, executions, 3)

	for i := 1; i < len(executions); i++ {
		assert.False(t, executions[i].CreatedAt.After(executions[i-1].CreatedAt))
	}
}

func TestUserRepository_DeleteCascades(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()

	user := &models.User{Email: "owner@example.com"}
	require.NoError(t, p.Users().Save(ctx, user))

	pipeline := testPipeline(user.ID)
	require.NoError(t, p.Pipelines().Save(ctx, pipeline))

	execution := &models.Execution{
		PipelineID: pipeline.ID,
		UserID:     user.ID,
		Input:      "text",
		Status:     models.ExecutionStatusRunning,
	}
	require.NoError(t, p.Executions().Create(ctx, execution))

	require.NoError(t, p.Users().Delete(ctx, user.ID))

	_, err := p.Users().GetByID(ctx, user.ID)
	assert.ErrorIs(t, err, persistence.ErrUserNotFound)

	_, err = p.Pipelines().GetByID(ctx, pipeline.ID, "")
	assert.ErrorIs(t, err, persistence.ErrPipelineNotFound)

	executions, err := p.Executions().ListByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, executions)
}

func TestPersistence_HealthCheck(t *testing.T) {
	p := newTestPersistence(t)
	assert.NoError(t, p.HealthCheck(context.Background()))

	missing := NewPersistence("/nonexistent/textpipe-data")
	assert.Error(t, missing.HealthCheck(context.Background()))
}

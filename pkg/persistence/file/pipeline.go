package file

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/dukex/textpipe/pkg/models"
	"github.com/dukex/textpipe/pkg/persistence"
)

// PipelineRepository handles pipeline file operations. Steps live inside the
// pipeline document, so replacing the step set is a plain rewrite.
type PipelineRepository struct {
	root       string
	executions *ExecutionRepository
}

// NewPipelineRepository creates a new pipeline repository. The execution
// repository is needed to cascade deletes.
func NewPipelineRepository(root string, executions *ExecutionRepository) *PipelineRepository {
	return &PipelineRepository{root: root, executions: executions}
}

func (r *PipelineRepository) dir() string {
	return filepath.Join(r.root, "pipelines")
}

// Save creates or fully replaces a pipeline document.
func (r *PipelineRepository) Save(_ context.Context, pipeline *models.Pipeline) error {
	now := time.Now().UTC()

	if pipeline.CreatedAt.IsZero() {
		pipeline.CreatedAt = now
	}

	pipeline.UpdatedAt = now

	if pipeline.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate pipeline ID: %w", err)
		}

		pipeline.ID = id.String()
	}

	for _, step := range pipeline.Steps {
		if step.ID == "" {
			id, err := uuid.NewV7()
			if err != nil {
				return fmt.Errorf("failed to generate step ID: %w", err)
			}

			step.ID = id.String()
		}

		step.PipelineID = pipeline.ID

		if step.CreatedAt.IsZero() {
			step.CreatedAt = now
		}

		step.UpdatedAt = now
	}

	return writeDocument(r.dir(), pipeline.ID, pipeline)
}

// GetByID loads a pipeline, optionally scoped to an owner.
func (r *PipelineRepository) GetByID(_ context.Context, id, userID string) (*models.Pipeline, error) {
	var pipeline models.Pipeline

	found, err := readDocument(r.dir(), id, &pipeline)
	if err != nil {
		return nil, err
	}

	if !found || (userID != "" && pipeline.UserID != userID) {
		return nil, persistence.ErrPipelineNotFound
	}

	models.SortSteps(pipeline.Steps)

	return &pipeline, nil
}

// ListByUser returns the user's pipelines ordered by creation time.
func (r *PipelineRepository) ListByUser(ctx context.Context, userID string) ([]*models.Pipeline, error) {
	ids, err := listDocumentIDs(r.dir())
	if err != nil {
		return nil, err
	}

	pipelines := make([]*models.Pipeline, 0)

	for _, id := range ids {
		pipeline, err := r.GetByID(ctx, id, "")
		if err != nil {
			return nil, err
		}

		if pipeline.UserID == userID {
			pipelines = append(pipelines, pipeline)
		}
	}

	sort.Slice(pipelines, func(i, j int) bool {
		return pipelines[i].CreatedAt.Before(pipelines[j].CreatedAt)
	})

	return pipelines, nil
}

// Delete removes the pipeline and cascades to its executions.
func (r *PipelineRepository) Delete(ctx context.Context, id string) error {
	removed, err := removeDocument(r.dir(), id)
	if err != nil {
		return err
	}

	if !removed {
		return persistence.ErrPipelineNotFound
	}

	return r.executions.deleteByPipeline(ctx, id)
}

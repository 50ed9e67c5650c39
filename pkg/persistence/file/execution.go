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

// ExecutionRepository handles execution file operations. Outputs are embedded
// in the execution document, so they are naturally append-only and cascade
// with it.
type ExecutionRepository struct {
	root string
}

// NewExecutionRepository creates a new execution repository.
func NewExecutionRepository(root string) *ExecutionRepository {
	return &ExecutionRepository{root: root}
}

func (r *ExecutionRepository) dir() string {
	return filepath.Join(r.root, "executions")
}

// Create writes the execution header before any step runs.
func (r *ExecutionRepository) Create(_ context.Context, execution *models.Execution) error {
	now := time.Now().UTC()

	if execution.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate execution ID: %w", err)
		}

		execution.ID = id.String()
	}

	execution.CreatedAt = now
	execution.UpdatedAt = now

	if execution.Outputs == nil {
		execution.Outputs = make([]*models.ExecutionOutput, 0)
	}

	return writeDocument(r.dir(), execution.ID, execution)
}

// Finalize rewrites the document with terminal status and outputs. A single
// file write is atomic enough for the file backend.
func (r *ExecutionRepository) Finalize(_ context.Context, execution *models.Execution) error {
	var existing models.Execution

	found, err := readDocument(r.dir(), execution.ID, &existing)
	if err != nil {
		return err
	}

	if !found {
		return persistence.ErrExecutionNotFound
	}

	now := time.Now().UTC()
	execution.UpdatedAt = now

	for _, output := range execution.Outputs {
		if output.ID == "" {
			id, err := uuid.NewV7()
			if err != nil {
				return fmt.Errorf("failed to generate output ID: %w", err)
			}

			output.ID = id.String()
		}

		output.ExecutionID = execution.ID

		if output.CreatedAt.IsZero() {
			output.CreatedAt = now
		}
	}

	return writeDocument(r.dir(), execution.ID, execution)
}

// GetByID loads an execution, optionally scoped to a user.
func (r *ExecutionRepository) GetByID(_ context.Context, id, userID string) (*models.Execution, error) {
	var execution models.Execution

	found, err := readDocument(r.dir(), id, &execution)
	if err != nil {
		return nil, err
	}

	if !found || (userID != "" && execution.UserID != userID) {
		return nil, persistence.ErrExecutionNotFound
	}

	return &execution, nil
}

// ListByUser returns the user's executions, newest first.
func (r *ExecutionRepository) ListByUser(ctx context.Context, userID string) ([]*models.Execution, error) {
	ids, err := listDocumentIDs(r.dir())
	if err != nil {
		return nil, err
	}

	executions := make([]*models.Execution, 0)

	for _, id := range ids {
		execution, err := r.GetByID(ctx, id, "")
		if err != nil {
			return nil, err
		}

		if execution.UserID == userID {
			executions = append(executions, execution)
		}
	}

	sort.Slice(executions, func(i, j int) bool {
		return executions[i].CreatedAt.After(executions[j].CreatedAt)
	})

	return executions, nil
}

// deleteByPipeline removes every execution belonging to the pipeline.
func (r *ExecutionRepository) deleteByPipeline(ctx context.Context, pipelineID string) error {
	ids, err := listDocumentIDs(r.dir())
	if err != nil {
		return err
	}

	for _, id := range ids {
		execution, err := r.GetByID(ctx, id, "")
		if err != nil {
			return err
		}

		if execution.PipelineID != pipelineID {
			continue
		}

		if _, err := removeDocument(r.dir(), id); err != nil {
			return err
		}
	}

	return nil
}

// deleteByUser removes every execution belonging to the user.
func (r *ExecutionRepository) deleteByUser(ctx context.Context, userID string) error {
	executions, err := r.ListByUser(ctx, userID)
	if err != nil {
		return err
	}

	for _, execution := range executions {
		if _, err := removeDocument(r.dir(), execution.ID); err != nil {
			return err
		}
	}

	return nil
}

package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dukex/textpipe/pkg/models"
	"github.com/dukex/textpipe/pkg/persistence"
)

// PipelineRepository handles pipeline and step database operations.
type PipelineRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPipelineRepository creates a new pipeline repository.
func NewPipelineRepository(db *sql.DB, logger *slog.Logger) *PipelineRepository {
	return &PipelineRepository{db: db, logger: logger}
}

// Save creates the pipeline or fully replaces it. The step set is replaced
// wholesale (delete-all then insert-all) inside one transaction; steps are
// never patched individually.
func (r *PipelineRepository) Save(ctx context.Context, pipeline *models.Pipeline) error {
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

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	pipelineQuery := `
		INSERT INTO pipelines (id, name, description, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			updated_at = EXCLUDED.updated_at
	`

	_, err = tx.ExecContext(ctx, pipelineQuery,
		pipeline.ID,
		pipeline.Name,
		pipeline.Description,
		pipeline.UserID,
		pipeline.CreatedAt,
		pipeline.UpdatedAt,
	)
	if err != nil {
		return classifyError("Save", "pipeline", pipeline.ID, err)
	}

	_, err = tx.ExecContext(ctx, "DELETE FROM pipeline_steps WHERE pipeline_id = $1", pipeline.ID)
	if err != nil {
		return fmt.Errorf("failed to delete existing steps: %w", err)
	}

	err = r.insertSteps(ctx, tx, pipeline)
	if err != nil {
		return err
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *PipelineRepository) insertSteps(ctx context.Context, tx *sql.Tx, pipeline *models.Pipeline) error {
	stepQuery := `
		INSERT INTO pipeline_steps (id, pipeline_id, type, config, step_order, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	now := time.Now().UTC()

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

		configJSON, err := json.Marshal(step.Config)
		if err != nil {
			return fmt.Errorf("failed to marshal step config: %w", err)
		}

		_, err = tx.ExecContext(ctx, stepQuery,
			step.ID,
			step.PipelineID,
			step.Type,
			configJSON,
			step.Order,
			step.CreatedAt,
			step.UpdatedAt,
		)
		if err != nil {
			return classifyError("Save", "pipeline step", step.ID, err)
		}
	}

	return nil
}

// GetByID loads a pipeline with its steps. A non-empty userID scopes the
// read to that owner; a pipeline owned by someone else reads as not found.
func (r *PipelineRepository) GetByID(ctx context.Context, id, userID string) (*models.Pipeline, error) {
	query := `
		SELECT id, name, description, user_id, created_at, updated_at
		FROM pipelines
		WHERE id = $1
	`
	args := []any{id}

	if userID != "" {
		query += " AND user_id = $2"

		args = append(args, userID)
	}

	row := r.db.QueryRowContext(ctx, query, args...)

	pipeline, err := scanPipeline(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrPipelineNotFound
		}

		return nil, fmt.Errorf("failed to scan pipeline: %w", err)
	}

	err = r.loadSteps(ctx, pipeline)
	if err != nil {
		return nil, err
	}

	return pipeline, nil
}

// ListByUser returns the user's pipelines with nested steps, ordered by
// creation time.
func (r *PipelineRepository) ListByUser(ctx context.Context, userID string) ([]*models.Pipeline, error) {
	query := `
		SELECT id, name, description, user_id, created_at, updated_at
		FROM pipelines
		WHERE user_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pipelines: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	pipelines := make([]*models.Pipeline, 0)

	for rows.Next() {
		pipeline, err := scanPipeline(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pipeline: %w", err)
		}

		pipelines = append(pipelines, pipeline)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating pipelines: %w", err)
	}

	for _, pipeline := range pipelines {
		err = r.loadSteps(ctx, pipeline)
		if err != nil {
			return nil, err
		}
	}

	return pipelines, nil
}

// Delete removes the pipeline. Steps, executions and execution outputs go
// with it through the foreign key cascades.
func (r *PipelineRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM pipelines WHERE id = $1", id)
	if err != nil {
		return classifyError("Delete", "pipeline", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return persistence.ErrPipelineNotFound
	}

	return nil
}

// loadSteps reads steps ordered by step_order. Ties on step_order share the
// same created_at within one Save, so the UUIDv7 id breaks them in insertion
// order and repeated reads return an identical sequence.
func (r *PipelineRepository) loadSteps(ctx context.Context, pipeline *models.Pipeline) error {
	query := `
		SELECT id, pipeline_id, type, config, step_order, created_at, updated_at
		FROM pipeline_steps
		WHERE pipeline_id = $1
		ORDER BY step_order, created_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, pipeline.ID)
	if err != nil {
		return fmt.Errorf("failed to query pipeline steps: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	steps := make([]*models.Step, 0)

	for rows.Next() {
		var (
			step       models.Step
			configJSON []byte
		)

		err = rows.Scan(
			&step.ID,
			&step.PipelineID,
			&step.Type,
			&configJSON,
			&step.Order,
			&step.CreatedAt,
			&step.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to scan pipeline step: %w", err)
		}

		if len(configJSON) > 0 {
			err = json.Unmarshal(configJSON, &step.Config)
			if err != nil {
				return fmt.Errorf("failed to unmarshal step config: %w", err)
			}
		}

		steps = append(steps, &step)
	}

	err = rows.Err()
	if err != nil {
		return fmt.Errorf("error iterating pipeline steps: %w", err)
	}

	pipeline.Steps = steps

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPipeline(row rowScanner) (*models.Pipeline, error) {
	var (
		pipeline    models.Pipeline
		description sql.NullString
	)

	err := row.Scan(
		&pipeline.ID,
		&pipeline.Name,
		&description,
		&pipeline.UserID,
		&pipeline.CreatedAt,
		&pipeline.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	pipeline.Description = description.String

	return &pipeline, nil
}

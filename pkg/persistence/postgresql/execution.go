package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dukex/textpipe/pkg/models"
	"github.com/dukex/textpipe/pkg/persistence"
)

// ExecutionRepository handles execution and output database operations.
type ExecutionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewExecutionRepository creates a new execution repository.
func NewExecutionRepository(db *sql.DB, logger *slog.Logger) *ExecutionRepository {
	return &ExecutionRepository{db: db, logger: logger}
}

// Create inserts the execution header. Called before any step runs, so the
// row is visible in running state for the whole run.
func (r *ExecutionRepository) Create(ctx context.Context, execution *models.Execution) error {
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

	query := `
		INSERT INTO executions (id, pipeline_id, user_id, input, status, total_processing_time, error_message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		execution.ID,
		execution.PipelineID,
		execution.UserID,
		execution.Input,
		execution.Status,
		execution.TotalProcessingTime,
		nullableString(execution.ErrorMessage),
		execution.CreatedAt,
		execution.UpdatedAt,
	)
	if err != nil {
		return classifyError("Create", "execution", execution.ID, err)
	}

	return nil
}

// Finalize writes the terminal status, total time and all produced outputs in
// one transaction so readers never observe a partially recorded run.
func (r *ExecutionRepository) Finalize(ctx context.Context, execution *models.Execution) error {
	execution.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	headerQuery := `
		UPDATE executions
		SET status = $2, total_processing_time = $3, error_message = $4, updated_at = $5
		WHERE id = $1
	`

	result, err := tx.ExecContext(ctx, headerQuery,
		execution.ID,
		execution.Status,
		execution.TotalProcessingTime,
		nullableString(execution.ErrorMessage),
		execution.UpdatedAt,
	)
	if err != nil {
		return classifyError("Finalize", "execution", execution.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		err = persistence.ErrExecutionNotFound

		return err
	}

	outputQuery := `
		INSERT INTO execution_outputs (id, execution_id, step_id, output, processing_time, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	for _, output := range execution.Outputs {
		if output.ID == "" {
			var id uuid.UUID

			id, err = uuid.NewV7()
			if err != nil {
				return fmt.Errorf("failed to generate output ID: %w", err)
			}

			output.ID = id.String()
		}

		output.ExecutionID = execution.ID

		if output.CreatedAt.IsZero() {
			output.CreatedAt = time.Now().UTC()
		}

		_, err = tx.ExecContext(ctx, outputQuery,
			output.ID,
			output.ExecutionID,
			output.StepID,
			output.Output,
			output.ProcessingTime,
			output.CreatedAt,
		)
		if err != nil {
			return classifyError("Finalize", "execution output", output.ID, err)
		}
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetByID loads an execution with its outputs in production order.
func (r *ExecutionRepository) GetByID(ctx context.Context, id, userID string) (*models.Execution, error) {
	query := `
		SELECT id, pipeline_id, user_id, input, status, total_processing_time, error_message, created_at, updated_at
		FROM executions
		WHERE id = $1
	`
	args := []any{id}

	if userID != "" {
		query += " AND user_id = $2"

		args = append(args, userID)
	}

	row := r.db.QueryRowContext(ctx, query, args...)

	execution, err := scanExecution(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrExecutionNotFound
		}

		return nil, fmt.Errorf("failed to scan execution: %w", err)
	}

	err = r.loadOutputs(ctx, execution)
	if err != nil {
		return nil, err
	}

	return execution, nil
}

// ListByUser returns the user's executions with outputs, newest first.
func (r *ExecutionRepository) ListByUser(ctx context.Context, userID string) ([]*models.Execution, error) {
	query := `
		SELECT id, pipeline_id, user_id, input, status, total_processing_time, error_message, created_at, updated_at
		FROM executions
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	executions := make([]*models.Execution, 0)

	for rows.Next() {
		execution, err := scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}

		executions = append(executions, execution)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating executions: %w", err)
	}

	for _, execution := range executions {
		err = r.loadOutputs(ctx, execution)
		if err != nil {
			return nil, err
		}
	}

	return executions, nil
}

func (r *ExecutionRepository) loadOutputs(ctx context.Context, execution *models.Execution) error {
	query := `
		SELECT id, execution_id, step_id, output, processing_time, created_at
		FROM execution_outputs
		WHERE execution_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, execution.ID)
	if err != nil {
		return fmt.Errorf("failed to query execution outputs: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	outputs := make([]*models.ExecutionOutput, 0)

	for rows.Next() {
		var output models.ExecutionOutput

		err = rows.Scan(
			&output.ID,
			&output.ExecutionID,
			&output.StepID,
			&output.Output,
			&output.ProcessingTime,
			&output.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to scan execution output: %w", err)
		}

		outputs = append(outputs, &output)
	}

	err = rows.Err()
	if err != nil {
		return fmt.Errorf("error iterating execution outputs: %w", err)
	}

	execution.Outputs = outputs

	return nil
}

func scanExecution(row rowScanner) (*models.Execution, error) {
	var (
		execution    models.Execution
		totalTime    sql.NullInt64
		errorMessage sql.NullString
	)

	err := row.Scan(
		&execution.ID,
		&execution.PipelineID,
		&execution.UserID,
		&execution.Input,
		&execution.Status,
		&totalTime,
		&errorMessage,
		&execution.CreatedAt,
		&execution.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	execution.TotalProcessingTime = totalTime.Int64
	execution.ErrorMessage = errorMessage.String

	return &execution, nil
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

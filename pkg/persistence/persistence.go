// Package persistence provides the data storage abstraction for pipelines,
// executions and users.
package persistence

import (
	"context"

	"github.com/dukex/textpipe/pkg/models"
)

// Persistence bundles the repositories behind one storage backend.
type Persistence interface {
	Users() UserRepository
	Pipelines() PipelineRepository
	Executions() ExecutionRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// UserRepository manages the user rows the engine references. The engine
// never creates users implicitly; rows exist so ownership and cascade
// semantics are real.
type UserRepository interface {
	Save(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	Delete(ctx context.Context, id string) error
}

// PipelineRepository persists pipeline definitions with their ordered steps.
type PipelineRepository interface {
	// Save creates the pipeline or replaces it entirely, including the full
	// step set (delete-all then insert-all, one transaction).
	Save(ctx context.Context, pipeline *models.Pipeline) error

	// GetByID loads a pipeline with its steps ordered by step order. When
	// userID is non-empty the read is scoped to that owner.
	GetByID(ctx context.Context, id, userID string) (*models.Pipeline, error)

	// ListByUser returns the user's pipelines with nested steps, ordered by
	// creation time.
	ListByUser(ctx context.Context, userID string) ([]*models.Pipeline, error)

	// Delete removes the pipeline; steps, executions and outputs cascade.
	Delete(ctx context.Context, id string) error
}

// ExecutionRepository persists the execution lifecycle as an append-only log.
type ExecutionRepository interface {
	// Create inserts the execution header before any step runs.
	Create(ctx context.Context, execution *models.Execution) error

	// Finalize updates the header status/total time and inserts one output
	// row per produced output, all in a single transaction.
	Finalize(ctx context.Context, execution *models.Execution) error

	// GetByID loads an execution with its outputs in production order. When
	// userID is non-empty the read is scoped to that user.
	GetByID(ctx context.Context, id, userID string) (*models.Execution, error)

	// ListByUser returns the user's executions with outputs, newest first.
	ListByUser(ctx context.Context, userID string) ([]*models.Execution, error)
}

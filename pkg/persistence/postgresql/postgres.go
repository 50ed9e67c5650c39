// Package postgresql provides PostgreSQL persistence for pipelines,
// executions and users.
package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/dukex/textpipe/pkg/persistence"
	"github.com/dukex/textpipe/pkg/persistence/sqlbase"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db            *sql.DB
	logger        *slog.Logger
	userRepo      *UserRepository
	pipelineRepo  *PipelineRepository
	executionRepo *ExecutionRepository
}

// NewPersistence connects, runs migrations and returns the persistence layer.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:            database,
		logger:        logger,
		userRepo:      NewUserRepository(database, logger),
		pipelineRepo:  NewPipelineRepository(database, logger),
		executionRepo: NewExecutionRepository(database, logger),
	}, nil
}

// Users returns the user repository.
func (p *Persistence) Users() persistence.UserRepository {
	return p.userRepo
}

// Pipelines returns the pipeline repository.
func (p *Persistence) Pipelines() persistence.PipelineRepository {
	return p.pipelineRepo
}

// Executions returns the execution repository.
func (p *Persistence) Executions() persistence.ExecutionRepository {
	return p.executionRepo
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// classifyError wraps known postgres failure classes with friendly messages
// so the web layer can surface something better than a raw constraint name.
func classifyError(op, entity, id string, err error) error {
	storeErr := &persistence.StoreError{
		Op:     op,
		Entity: entity,
		ID:     id,
		Err:    err,
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Name() {
		case "foreign_key_violation":
			storeErr.Err = fmt.Errorf("%w: %w", persistence.ErrForeignKeyViolation, err)
			storeErr.Friendly = "Referenced user or pipeline does not exist. Please sign in again."
		case "unique_violation":
			storeErr.Err = fmt.Errorf("%w: %w", persistence.ErrDuplicateKey, err)
			storeErr.Friendly = "A record with the same value already exists."
		}
	}

	return storeErr
}

package file

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/dukex/textpipe/pkg/models"
	"github.com/dukex/textpipe/pkg/persistence"
)

// UserRepository handles user file operations.
type UserRepository struct {
	root string
}

// NewUserRepository creates a new user repository.
func NewUserRepository(root string) *UserRepository {
	return &UserRepository{root: root}
}

func (r *UserRepository) dir() string {
	return filepath.Join(r.root, "users")
}

// Save creates or updates a user document.
func (r *UserRepository) Save(_ context.Context, user *models.User) error {
	now := time.Now().UTC()

	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}

	user.UpdatedAt = now

	if user.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate user ID: %w", err)
		}

		user.ID = id.String()
	}

	return writeDocument(r.dir(), user.ID, user)
}

// GetByID returns a user by id.
func (r *UserRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	var user models.User

	found, err := readDocument(r.dir(), id, &user)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, persistence.ErrUserNotFound
	}

	return &user, nil
}

// Delete removes a user and cascades to their pipelines and executions.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	removed, err := removeDocument(r.dir(), id)
	if err != nil {
		return err
	}

	if !removed {
		return persistence.ErrUserNotFound
	}

	executions := NewExecutionRepository(r.root)
	pipelines := NewPipelineRepository(r.root, executions)

	owned, err := pipelines.ListByUser(ctx, id)
	if err != nil {
		return err
	}

	for _, pipeline := range owned {
		if err := pipelines.Delete(ctx, pipeline.ID); err != nil {
			return err
		}
	}

	return executions.deleteByUser(ctx, id)
}

package services

import (
	"context"
	"strings"

	"github.com/dukex/textpipe/pkg/models"
	"github.com/dukex/textpipe/pkg/persistence"
)

// ErrUserNotFound is returned when a user is not found.
var ErrUserNotFound = persistence.ErrUserNotFound

// User manages user accounts.
type User struct {
	persistence persistence.Persistence
}

// NewUser creates a new user service.
func NewUser(p persistence.Persistence) *User {
	return &User{persistence: p}
}

// Create persists a new user account.
func (s *User) Create(ctx context.Context, user *models.User) (*models.User, error) {
	user.Email = strings.TrimSpace(user.Email)
	if user.Email == "" {
		return nil, ErrUserEmailRequired
	}

	if err := s.persistence.Users().Save(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// FetchByID retrieves a user by id.
func (s *User) FetchByID(ctx context.Context, id string) (*models.User, error) {
	return s.persistence.Users().GetByID(ctx, id)
}

// Delete removes a user. Their pipelines and executions cascade with them.
func (s *User) Delete(ctx context.Context, id string) error {
	return s.persistence.Users().Delete(ctx, id)
}

package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dukex/textpipe/pkg/mocks"
	"github.com/dukex/textpipe/pkg/models"
	"github.com/dukex/textpipe/pkg/persistence/file"
)

func TestUserService_CreateAndDelete(t *testing.T) {
	service := NewUser(file.NewPersistence(t.TempDir()))
	ctx := context.Background()

	created, err := service.Create(ctx, &models.User{Email: "owner@example.com", Name: "Owner"})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	loaded, err := service.FetchByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", loaded.Email)

	require.NoError(t, service.Delete(ctx, created.ID))

	_, err = service.FetchByID(ctx, created.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserService_SaveErrorSurfaces(t *testing.T) {
	users := &mocks.MockUserRepository{}
	store := &mocks.MockPersistence{}
	store.On("Users").Return(users)
	users.On("Save", mock.Anything, mock.Anything).Return(errors.New("connection reset"))

	service := NewUser(store)

	_, err := service.Create(context.Background(), &models.User{Email: "owner@example.com"})
	assert.ErrorContains(t, err, "connection reset")
	users.AssertExpectations(t)
}

func TestUserService_EmailRequired(t *testing.T) {
	service := NewUser(file.NewPersistence(t.TempDir()))

	_, err := service.Create(context.Background(), &models.User{Email: "   "})
	assert.ErrorIs(t, err, ErrUserEmailRequired)
	assert.True(t, IsValidationError(err))
}

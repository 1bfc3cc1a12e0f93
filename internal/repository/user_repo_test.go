package repository

import (
	"context"
	"testing"

	"railbook/internal/database"
	"railbook/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func newUserRepo(t *testing.T) *UserRepository {
	t.Helper()
	db, err := database.Connect(":memory:")
	require.NoError(t, err)
	repo := NewUserRepository(db)
	require.NoError(t, repo.Migrate(context.Background()))
	return repo
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()

	u := &domain.User{Username: "asha", PasswordHash: strPtr("$2a$10$hash")}
	require.NoError(t, repo.Create(ctx, u))
	assert.NotZero(t, u.ID)
	assert.Nil(t, u.ExternalID)

	got, err := repo.GetByUsername(ctx, " asha ")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	require.NotNil(t, got.PasswordHash)
	assert.Equal(t, "$2a$10$hash", *got.PasswordHash)

	byID, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "asha", byID.Username)

	exists, err := repo.ExistsByUsername(ctx, "asha")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByUsername(ctx, "ravi")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUserRepository_DuplicateUsername(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &domain.User{Username: "asha", PasswordHash: strPtr("h1")}))
	err := repo.Create(ctx, &domain.User{Username: "asha", PasswordHash: strPtr("h2")})
	assert.ErrorIs(t, err, ErrDuplicateUser)
}

func TestUserRepository_ExternalIdentity(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()

	// several password-only users leave external_id NULL without clashing
	require.NoError(t, repo.Create(ctx, &domain.User{Username: "a", PasswordHash: strPtr("h")}))
	require.NoError(t, repo.Create(ctx, &domain.User{Username: "b", PasswordHash: strPtr("h")}))

	g := &domain.User{Username: "meera@example.com", ExternalID: strPtr("google-123")}
	require.NoError(t, repo.Create(ctx, g))
	assert.Nil(t, g.PasswordHash)

	got, err := repo.GetByExternalID(ctx, "google-123")
	require.NoError(t, err)
	assert.Equal(t, g.ID, got.ID)

	err = repo.Create(ctx, &domain.User{Username: "other", ExternalID: strPtr("google-123")})
	assert.ErrorIs(t, err, ErrDuplicateUser)

	_, err = repo.GetByExternalID(ctx, "google-999")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepository_RequiresCredential(t *testing.T) {
	repo := newUserRepo(t)
	err := repo.Create(context.Background(), &domain.User{Username: "ghost", PasswordHash: strPtr("  ")})
	assert.Error(t, err)

	_, err = repo.GetByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

package repository

import (
	"context"
	"testing"
	"time"

	"accounts-be/internal/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_InsertAndFind(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	created, err := repo.Insert(ctx, &entities.User{Name: "Asha", Email: "Asha@Example.com", PasswordHash: "h"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "asha@example.com", created.Email)
	assert.Equal(t, entities.RoleUser, created.Role)
	assert.False(t, created.CreatedAt.IsZero())

	byEmail, err := repo.FindByEmail(ctx, " ASHA@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	byID, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "h", byID.PasswordHash)
}

func TestMemory_DuplicateEmail(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	_, err := repo.Insert(ctx, &entities.User{Name: "A", Email: "a@x.io", PasswordHash: "h"})
	require.NoError(t, err)

	_, err = repo.Insert(ctx, &entities.User{Name: "B", Email: "A@X.IO", PasswordHash: "h"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestMemory_NotFound(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	_, err := repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = repo.FindByEmail(ctx, "missing@x.io")
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = repo.Update(ctx, &entities.User{ID: "missing"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestMemory_ReturnsCopies(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	created, err := repo.Insert(ctx, &entities.User{Name: "A", Email: "a@x.io", PasswordHash: "h"})
	require.NoError(t, err)

	created.SetOTP("abc123", time.Now())
	created.Name = "mutated"

	stored, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", stored.Name)
	assert.Nil(t, stored.OTP)
}

func TestMemory_UpdateAndListActive(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	a, err := repo.Insert(ctx, &entities.User{Name: "A", Email: "a@x.io", PasswordHash: "h"})
	require.NoError(t, err)
	b, err := repo.Insert(ctx, &entities.User{Name: "B", Email: "b@x.io", PasswordHash: "h"})
	require.NoError(t, err)

	b.MarkDeleted(time.Now())
	updated, err := repo.Update(ctx, b)
	require.NoError(t, err)
	assert.True(t, updated.IsDeleted)
	assert.Equal(t, b.CreatedAt, updated.CreatedAt)

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, a.ID, active[0].ID)
}

func TestMemory_UpdateEmailConflict(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	_, err := repo.Insert(ctx, &entities.User{Name: "A", Email: "a@x.io", PasswordHash: "h"})
	require.NoError(t, err)
	b, err := repo.Insert(ctx, &entities.User{Name: "B", Email: "b@x.io", PasswordHash: "h"})
	require.NoError(t, err)

	b.Email = "a@x.io"
	_, err = repo.Update(ctx, b)
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

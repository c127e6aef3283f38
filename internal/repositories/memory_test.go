package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BradenHooton/eduif/internal/models"
)

func TestMemoryAccountRepository(t *testing.T) {
	testAccountStore(t, NewMemoryAccountRepository())
}

func TestMemoryAuditLogRepository(t *testing.T) {
	testAuditStore(t, NewMemoryAuditLogRepository())
}

func TestMemoryProtectedDataRepository(t *testing.T) {
	testBlobStore(t, NewMemoryProtectedDataRepository())
}

func TestMemoryAccountRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAccountRepository()

	_, err := repo.Create(ctx, newTestAccount(1, "staff", models.RoleStaff))
	require.NoError(t, err)

	got, err := repo.GetByUsername(ctx, "staff")
	require.NoError(t, err)
	got.Locked = true
	got.FailedAttempts = 9

	again, err := repo.GetByUsername(ctx, "staff")
	require.NoError(t, err)
	assert.False(t, again.Locked)
	assert.Equal(t, 0, again.FailedAttempts)
}

func TestMemoryAccountRepository_UpdateCannotRename(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAccountRepository()

	_, err := repo.Create(ctx, newTestAccount(1, "staff", models.RoleStaff))
	require.NoError(t, err)

	updated, err := repo.UpdateByID(ctx, 1, func(a *models.Account) error {
		a.Username = "renamed"
		a.ID = 42
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "staff", updated.Username)
	assert.Equal(t, int64(1), updated.ID)
}

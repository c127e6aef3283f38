package repositories

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BradenHooton/eduif/internal/database"
	"github.com/BradenHooton/eduif/internal/models"
)

func openTestSQLite(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	db, err := database.OpenSQLite(ctx, filepath.Join(t.TempDir(), "nested", "eduif.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.MigrateSQLite(ctx, db))
	return db
}

func TestSQLiteAccountRepository(t *testing.T) {
	testAccountStore(t, NewSQLiteAccountRepository(openTestSQLite(t)))
}

func TestSQLiteAuditLogRepository(t *testing.T) {
	testAuditStore(t, NewSQLiteAuditLogRepository(openTestSQLite(t)))
}

func TestSQLiteProtectedDataRepository(t *testing.T) {
	testBlobStore(t, NewSQLiteProtectedDataRepository(openTestSQLite(t)))
}

func TestSQLite_MigrationsAreIdempotent(t *testing.T) {
	db := openTestSQLite(t)
	require.NoError(t, database.MigrateSQLite(context.Background(), db))
}

func TestSQLite_StateSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "eduif.db")

	db, err := database.OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, database.MigrateSQLite(ctx, db))

	accounts := NewSQLiteAccountRepository(db)
	_, err = accounts.Create(ctx, newTestAccount(3, "student", models.RoleStudent))
	require.NoError(t, err)
	_, err = accounts.UpdateByUsername(ctx, "student", func(a *models.Account) error {
		a.RegisterFailure(3)
		a.RegisterFailure(3)
		a.RegisterFailure(3)
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	reopened, err := database.OpenSQLite(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	got, err := NewSQLiteAccountRepository(reopened).GetByUsername(ctx, "student")
	require.NoError(t, err)
	assert.True(t, got.Locked)
	assert.Equal(t, 3, got.FailedAttempts)
}

func TestSQLite_RejectsUnknownRole(t *testing.T) {
	repo := NewSQLiteAccountRepository(openTestSQLite(t))

	_, err := repo.Create(context.Background(), newTestAccount(0, "janitor", models.Role("janitor")))
	assert.ErrorIs(t, err, models.ErrBadRequest)
}

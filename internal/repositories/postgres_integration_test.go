//go:build integration

package repositories

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/BradenHooton/eduif/internal/database"
)

// setupPostgres starts a disposable PostgreSQL container and applies the
// embedded migrations to it
func setupPostgres(t *testing.T) *database.DB {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("eduif"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	poolConfig, err := pgxpool.ParseConfig(connStr)
	require.NoError(t, err)

	db, err := database.NewConnectionFromConfig(ctx, poolConfig, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.Migrate(ctx))
	return db
}

func TestPostgresRepositories(t *testing.T) {
	db := setupPostgres(t)

	t.Run("accounts", func(t *testing.T) {
		testAccountStore(t, NewAccountRepository(db))
	})
	t.Run("audit log", func(t *testing.T) {
		testAuditStore(t, NewAuditLogRepository(db))
	})
	t.Run("protected data", func(t *testing.T) {
		testBlobStore(t, NewProtectedDataRepository(db))
	})
	t.Run("migrations idempotent", func(t *testing.T) {
		require.NoError(t, db.Migrate(context.Background()))
	})
}

package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/BradenHooton/eduif/internal/config"
	"github.com/BradenHooton/eduif/internal/database"
	"github.com/BradenHooton/eduif/internal/handlers"
	"github.com/BradenHooton/eduif/internal/repositories"
	"github.com/BradenHooton/eduif/internal/services"
)

// storage bundles the repositories of one backend
type storage struct {
	Accounts      services.AccountRepository
	AuditLogs     services.AuditLogRepository
	ProtectedData services.ProtectedDataRepository
	Health        handlers.HealthChecker
	close         func()
}

func (s *storage) Close() {
	if s.close != nil {
		s.close()
	}
}

// sqliteHealth adapts *sql.DB to handlers.HealthChecker
type sqliteHealth struct {
	db *sql.DB
}

func (h sqliteHealth) HealthCheck(ctx context.Context) error {
	return h.db.PingContext(ctx)
}

// openStorage connects to the configured backend and applies migrations
func openStorage(ctx context.Context, cfg *config.DatabaseConfig, logger *slog.Logger) (*storage, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		db, err := database.NewConnection(ctx, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		return &storage{
			Accounts:      repositories.NewAccountRepository(db),
			AuditLogs:     repositories.NewAuditLogRepository(db),
			ProtectedData: repositories.NewProtectedDataRepository(db),
			Health:        db,
			close:         db.Close,
		}, nil

	case config.DriverSQLite:
		db, err := database.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		if err := database.MigrateSQLite(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to migrate sqlite database: %w", err)
		}
		logger.Info("sqlite database opened", slog.String("path", cfg.SQLitePath))
		return &storage{
			Accounts:      repositories.NewSQLiteAccountRepository(db),
			AuditLogs:     repositories.NewSQLiteAuditLogRepository(db),
			ProtectedData: repositories.NewSQLiteProtectedDataRepository(db),
			Health:        sqliteHealth{db: db},
			close:         func() { _ = db.Close() },
		}, nil

	case config.DriverMemory:
		logger.Warn("using in-memory storage; all state is lost on restart")
		return &storage{
			Accounts:      repositories.NewMemoryAccountRepository(),
			AuditLogs:     repositories.NewMemoryAuditLogRepository(),
			ProtectedData: repositories.NewMemoryProtectedDataRepository(),
		}, nil
	}

	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

package background

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// AuditTrimmer drops all but the newest keep audit records
type AuditTrimmer interface {
	Trim(ctx context.Context, keep int) (int64, error)
}

// SessionPurger forgets sessions whose lifetime has elapsed
type SessionPurger interface {
	PurgeExpired() int
}

// CleanupConfig holds the schedule of the maintenance tasks
type CleanupConfig struct {
	AuditRetention         int
	AuditTrimInterval      time.Duration
	SessionCleanupInterval time.Duration
}

// CleanupManager periodically trims the activity trail and purges expired
// sessions from the registry
type CleanupManager struct {
	audit    AuditTrimmer
	sessions SessionPurger
	config   CleanupConfig
	logger   *slog.Logger

	stopCh   chan struct{}
	stopOnce sync.Once
}

// Intervals used when the configured value is not positive
const (
	DefaultAuditTrimInterval      = time.Hour
	DefaultSessionCleanupInterval = 10 * time.Minute
)

// NewCleanupManager creates a new cleanup manager. Non-positive intervals
// fall back to the defaults.
func NewCleanupManager(audit AuditTrimmer, sessions SessionPurger, config CleanupConfig, logger *slog.Logger) *CleanupManager {
	if config.AuditTrimInterval <= 0 {
		config.AuditTrimInterval = DefaultAuditTrimInterval
	}
	if config.SessionCleanupInterval <= 0 {
		config.SessionCleanupInterval = DefaultSessionCleanupInterval
	}

	return &CleanupManager{
		audit:    audit,
		sessions: sessions,
		config:   config,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Start runs both tasks until ctx is cancelled or Stop is called. Each task
// runs once immediately.
func (cm *CleanupManager) Start(ctx context.Context) {
	trimTicker := time.NewTicker(cm.config.AuditTrimInterval)
	defer trimTicker.Stop()
	purgeTicker := time.NewTicker(cm.config.SessionCleanupInterval)
	defer purgeTicker.Stop()

	cm.TrimAuditLog(ctx)
	cm.PurgeSessions()

	for {
		select {
		case <-trimTicker.C:
			cm.TrimAuditLog(ctx)
		case <-purgeTicker.C:
			cm.PurgeSessions()
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

// TrimAuditLog keeps the newest AuditRetention records
func (cm *CleanupManager) TrimAuditLog(ctx context.Context) {
	trimCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	removed, err := cm.audit.Trim(trimCtx, cm.config.AuditRetention)
	if err != nil {
		cm.logger.Error("failed to trim audit log", slog.Any("error", err))
		return
	}

	if removed > 0 {
		cm.logger.Info("audit log trimmed",
			slog.Int64("rows_deleted", removed),
			slog.Int("retention", cm.config.AuditRetention),
		)
	}
}

// PurgeSessions removes expired sessions from the registry
func (cm *CleanupManager) PurgeSessions() {
	if purged := cm.sessions.PurgeExpired(); purged > 0 {
		cm.logger.Info("expired sessions purged", slog.Int("count", purged))
	}
}

// Stop signals the cleanup manager to stop. It is safe to call more than once.
func (cm *CleanupManager) Stop() {
	cm.stopOnce.Do(func() { close(cm.stopCh) })
}

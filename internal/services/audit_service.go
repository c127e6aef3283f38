package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/BradenHooton/eduif/internal/models"
	pkglogger "github.com/BradenHooton/eduif/pkg/logger"
)

// AuditLogRepository is the durable activity trail
type AuditLogRepository interface {
	Append(ctx context.Context, rec *models.AuditRecord) error
	Recent(ctx context.Context, limit int) ([]*models.AuditRecord, error)
	Trim(ctx context.Context, keep int) (int64, error)
	Count(ctx context.Context) (int64, error)
}

// AuditService writes every activity record twice: to the structured log and
// to the repository. A repository failure is logged and never surfaces to
// the operation being audited.
type AuditService struct {
	repo        AuditLogRepository
	auditLogger *pkglogger.AuditLogger
	logger      *slog.Logger
	now         func() time.Time
}

// NewAuditService creates a new AuditService
func NewAuditService(repo AuditLogRepository, logger *slog.Logger) *AuditService {
	return &AuditService{
		repo:        repo,
		auditLogger: pkglogger.NewAuditLogger(logger),
		logger:      logger,
		now:         time.Now,
	}
}

// Record appends one activity record. An empty username is recorded as
// "unknown".
func (s *AuditService) Record(ctx context.Context, username string, action models.AuditAction, details, ip string) {
	if !action.IsValid() {
		s.logger.ErrorContext(ctx, "refusing to record unknown audit action", slog.String("action", string(action)))
		return
	}
	if username == "" {
		username = models.AuditUnknownUser
	}

	rec := &models.AuditRecord{
		Timestamp: s.now().UTC(),
		Username:  username,
		Action:    action,
		Details:   details,
		IPAddress: ip,
	}

	s.auditLogger.LogEvent(ctx, pkglogger.AuditEvent{
		Timestamp: rec.Timestamp,
		Username:  rec.Username,
		Action:    string(rec.Action),
		Details:   rec.Details,
		IPAddress: rec.IPAddress,
		Failure:   action.IsFailure(),
	})

	if err := s.repo.Append(ctx, rec); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist audit record",
			slog.String("action", string(action)),
			slog.Any("error", err),
		)
	}
}

// Recent returns the last limit records, oldest first
func (s *AuditService) Recent(ctx context.Context, limit int) ([]*models.AuditRecord, error) {
	records, err := s.repo.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}
	return records, nil
}

// Trim keeps the newest keep records
func (s *AuditService) Trim(ctx context.Context, keep int) (int64, error) {
	removed, err := s.repo.Trim(ctx, keep)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}
	return removed, nil
}

package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/BradenHooton/eduif/internal/auth"
	"github.com/BradenHooton/eduif/internal/models"
	"github.com/BradenHooton/eduif/internal/observability"
)

// MaxActivityLogLimit caps one activity-log read
const MaxActivityLogLimit = 50

// ActivityReader reads the tail of the activity trail
type ActivityReader interface {
	Recent(ctx context.Context, limit int) ([]*models.AuditRecord, error)
}

// UserSummary is the admin view of an account; it never carries the verifier
type UserSummary struct {
	ID             int64       `json:"id"`
	Username       string      `json:"username"`
	Name           string      `json:"name"`
	Role           models.Role `json:"role"`
	Email          string      `json:"email"`
	Locked         bool        `json:"locked"`
	FailedAttempts int         `json:"failed_attempts"`
}

// DashboardView is what a session sees on its landing page
type DashboardView struct {
	User        *models.Session `json:"user"`
	Permissions []models.Role   `json:"permissions"`
}

// AdminService serves the dashboard and the admin-only read operations
type AdminService struct {
	accounts   AccountRepository
	activity   ActivityReader
	audit      Auditor
	authorizer *auth.Authorizer
	logger     *slog.Logger
}

// NewAdminService creates a new AdminService
func NewAdminService(accounts AccountRepository, activity ActivityReader, audit Auditor, authorizer *auth.Authorizer, logger *slog.Logger) *AdminService {
	return &AdminService{
		accounts:   accounts,
		activity:   activity,
		audit:      audit,
		authorizer: authorizer,
		logger:     logger,
	}
}

// Dashboard records the visit and returns the caller's identity and the
// roles its own role includes
func (s *AdminService) Dashboard(ctx context.Context, session *models.Session, ip string) (*DashboardView, error) {
	if err := s.authorizer.RequireAuthenticated(session); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, session.Username, models.AuditActionDashboardAccess,
		fmt.Sprintf("Accessing %s dashboard", session.Role), ip)

	return &DashboardView{
		User:        session,
		Permissions: session.Role.AllowedRoles(),
	}, nil
}

// ListUsers returns every account without verifiers. Admin only.
func (s *AdminService) ListUsers(ctx context.Context, session *models.Session, ip string) ([]UserSummary, error) {
	if err := s.authorizer.RequireRole(session, models.RoleAdmin); err != nil {
		return nil, err
	}

	accounts, err := s.accounts.List(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list accounts", slog.Any("error", err))
		observability.CaptureError(err, "list_users")
		return nil, fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}

	s.audit.Record(ctx, session.Username, models.AuditActionViewUsers, "Admin viewed all users", ip)

	users := make([]UserSummary, 0, len(accounts))
	for _, a := range accounts {
		users = append(users, UserSummary{
			ID:             a.ID,
			Username:       a.Username,
			Name:           a.Name,
			Role:           a.Role,
			Email:          a.Email,
			Locked:         a.Locked,
			FailedAttempts: a.FailedAttempts,
		})
	}
	return users, nil
}

// ClampActivityLimit maps a requested limit onto 1..MaxActivityLogLimit;
// zero or negative means the maximum
func ClampActivityLimit(limit int) int {
	if limit <= 0 || limit > MaxActivityLogLimit {
		return MaxActivityLogLimit
	}
	return limit
}

// ActivityLog returns the most recent records, oldest first, then records
// the read itself. The returned slice never includes that VIEW_LOGS record.
// Admin only.
func (s *AdminService) ActivityLog(ctx context.Context, session *models.Session, limit int, ip string) ([]*models.AuditRecord, error) {
	if err := s.authorizer.RequireRole(session, models.RoleAdmin); err != nil {
		return nil, err
	}

	records, err := s.activity.Recent(ctx, ClampActivityLimit(limit))
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to read activity log", slog.Any("error", err))
		observability.CaptureError(err, "activity_log")
		return nil, fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}

	s.audit.Record(ctx, session.Username, models.AuditActionViewLogs, "Admin viewed activity logs", ip)
	return records, nil
}

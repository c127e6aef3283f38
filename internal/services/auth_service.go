package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/BradenHooton/eduif/internal/auth"
	"github.com/BradenHooton/eduif/internal/models"
	"github.com/BradenHooton/eduif/internal/observability"
	pkgauth "github.com/BradenHooton/eduif/pkg/auth"
)

// AccountRepository is the credential store. Update* must run fn and the
// write-back atomically per account; if fn fails nothing is written and
// fn's error is returned unchanged.
type AccountRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Account, error)
	GetByUsername(ctx context.Context, username string) (*models.Account, error)
	List(ctx context.Context) ([]*models.Account, error)
	Create(ctx context.Context, acct *models.Account) (*models.Account, error)
	UpdateByUsername(ctx context.Context, username string, fn func(*models.Account) error) (*models.Account, error)
	UpdateByID(ctx context.Context, id int64, fn func(*models.Account) error) (*models.Account, error)
}

// Auditor appends activity records
type Auditor interface {
	Record(ctx context.Context, username string, action models.AuditAction, details, ip string)
}

// SessionIssuer creates and destroys sessions
type SessionIssuer interface {
	Issue(acct *models.Account) (*models.Session, string, error)
	Revoke(id string) bool
}

// LoginResult is a successful login
type LoginResult struct {
	Message string
	Role    models.Role
	Session *models.Session
	Token   string
}

// LoginError is a rejected login. Err is models.ErrInvalidCredential or
// models.ErrAccountLocked; Message is what the client is told.
type LoginError struct {
	Err               error
	Message           string
	RemainingAttempts int
}

func (e *LoginError) Error() string { return e.Message }

func (e *LoginError) Unwrap() error { return e.Err }

// AuthService runs the login lockout state machine. An account is ACTIVE
// with n failures (n < threshold) or LOCKED; only UnlockAccount leaves LOCKED.
type AuthService struct {
	accounts   AccountRepository
	audit      Auditor
	sessions   SessionIssuer
	authorizer *auth.Authorizer
	timing     *auth.TimingDelay
	threshold  int
	logger     *slog.Logger
}

// NewAuthService creates a new AuthService. timing may be nil.
func NewAuthService(
	accounts AccountRepository,
	audit Auditor,
	sessions SessionIssuer,
	authorizer *auth.Authorizer,
	timing *auth.TimingDelay,
	threshold int,
	logger *slog.Logger,
) *AuthService {
	if threshold < 1 {
		threshold = 1
	}
	return &AuthService{
		accounts:   accounts,
		audit:      audit,
		sessions:   sessions,
		authorizer: authorizer,
		timing:     timing,
		threshold:  threshold,
		logger:     logger,
	}
}

type loginOutcome int

const (
	outcomeSuccess loginOutcome = iota
	outcomeFailed
	outcomeLocked
)

// Login verifies credentials and advances the lockout state machine. Every
// attempt appends exactly one audit record. The account state is durably
// written before the outcome is reported; if that write fails the error
// wraps models.ErrPersistence and the outcome is withheld.
func (s *AuthService) Login(ctx context.Context, username, password, ip string) (*LoginResult, error) {
	start := time.Now()

	var outcome loginOutcome
	acct, err := s.accounts.UpdateByUsername(ctx, username, func(a *models.Account) error {
		if a.Locked {
			return models.ErrAccountLocked
		}

		if pkgauth.VerifyPassword(a.PasswordHash, password) {
			a.ResetLockout()
			if pkgauth.NeedsRehash(a.PasswordHash) {
				if upgraded, err := pkgauth.HashPassword(password); err == nil {
					a.PasswordHash = upgraded
				}
			}
			outcome = outcomeSuccess
			return nil
		}

		if a.RegisterFailure(s.threshold) {
			outcome = outcomeLocked
		} else {
			outcome = outcomeFailed
		}
		return nil
	})

	switch {
	case errors.Is(err, models.ErrNotFound):
		s.audit.Record(ctx, username, models.AuditActionLoginFailed, "User not found", ip)
		s.timing.WaitFrom(start, false)
		return nil, &LoginError{Err: models.ErrInvalidCredential, Message: "Invalid credentials"}

	case errors.Is(err, models.ErrAccountLocked):
		s.audit.Record(ctx, username, models.AuditActionLoginBlocked, "Account locked due to multiple failed attempts", ip)
		s.timing.WaitFrom(start, false)
		return nil, &LoginError{Err: models.ErrAccountLocked, Message: "Account is locked. Contact administrator."}

	case err != nil:
		s.logger.ErrorContext(ctx, "login: failed to persist account state", slog.Any("error", err))
		observability.CaptureError(err, "login")
		return nil, fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}

	switch outcome {
	case outcomeLocked:
		msg := fmt.Sprintf("Account locked after %d failed attempts", s.threshold)
		s.audit.Record(ctx, username, models.AuditActionAccountLocked, msg, ip)
		s.timing.WaitFrom(start, false)
		return nil, &LoginError{Err: models.ErrAccountLocked, Message: msg}

	case outcomeFailed:
		s.audit.Record(ctx, username, models.AuditActionLoginFailed,
			fmt.Sprintf("Attempt %d/%d", acct.FailedAttempts, s.threshold), ip)
		s.timing.WaitFrom(start, false)
		remaining := acct.RemainingAttempts(s.threshold)
		return nil, &LoginError{
			Err:               models.ErrInvalidCredential,
			Message:           fmt.Sprintf("Invalid password. %d attempts remaining", remaining),
			RemainingAttempts: remaining,
		}
	}

	session, token, err := s.sessions.Issue(acct)
	if err != nil {
		s.logger.ErrorContext(ctx, "login: failed to issue session", slog.Any("error", err))
		observability.CaptureError(err, "login")
		return nil, models.ErrInternalServer
	}

	s.audit.Record(ctx, username, models.AuditActionLoginSuccess, fmt.Sprintf("User logged in as %s", acct.Role), ip)

	return &LoginResult{
		Message: "Login successful",
		Role:    acct.Role,
		Session: session,
		Token:   token,
	}, nil
}

// Logout destroys the session, if any, and records it. A missing session is
// still recorded, as user "unknown".
func (s *AuthService) Logout(ctx context.Context, session *models.Session, ip string) {
	username := models.AuditUnknownUser
	if session != nil {
		s.sessions.Revoke(session.ID)
		username = session.Username
	}
	s.audit.Record(ctx, username, models.AuditActionLogout, "User logged out", ip)
}

// UnlockAccount returns the target to ACTIVE(0). Unlocking an account that is
// not locked succeeds and is still recorded.
func (s *AuthService) UnlockAccount(ctx context.Context, actor *models.Session, targetID int64, ip string) (*models.Account, error) {
	if err := s.authorizer.RequireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}

	acct, err := s.accounts.UpdateByID(ctx, targetID, func(a *models.Account) error {
		a.ResetLockout()
		return nil
	})
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.ErrorContext(ctx, "unlock: failed to persist account state",
			slog.Int64("target_id", targetID), slog.Any("error", err))
		observability.CaptureError(err, "unlock_account")
		return nil, fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}

	s.audit.Record(ctx, actor.Username, models.AuditActionUserUnlocked,
		fmt.Sprintf("User %s unlocked by admin", acct.Username), ip)

	return acct, nil
}

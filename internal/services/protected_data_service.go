package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/BradenHooton/eduif/internal/auth"
	"github.com/BradenHooton/eduif/internal/models"
	"github.com/BradenHooton/eduif/internal/observability"
	"github.com/BradenHooton/eduif/pkg/vault"
)

// ProtectedDataRepository stores sealed payloads by key
type ProtectedDataRepository interface {
	Get(ctx context.Context, key string) (*models.EncryptedBlob, error)
	Put(ctx context.Context, key string, blob *models.EncryptedBlob) error
}

// ProtectedDataService gates the sealed student payload behind a session and
// records every read
type ProtectedDataService struct {
	repo       ProtectedDataRepository
	vault      *vault.Vault
	audit      Auditor
	authorizer *auth.Authorizer
	logger     *slog.Logger
}

func NewProtectedDataService(repo ProtectedDataRepository, v *vault.Vault, audit Auditor, authorizer *auth.Authorizer, logger *slog.Logger) *ProtectedDataService {
	return &ProtectedDataService{
		repo:       repo,
		vault:      v,
		audit:      audit,
		authorizer: authorizer,
		logger:     logger,
	}
}

// Read returns the decrypted payload. Every call appends one ACCESS_DATA
// record, including rejected unauthenticated calls. A missing blob is
// models.ErrDataUnavailable and a blob that will not open is
// models.ErrDecryption.
func (s *ProtectedDataService) Read(ctx context.Context, session *models.Session, ip string) (json.RawMessage, error) {
	if err := s.authorizer.RequireAuthenticated(session); err != nil {
		s.audit.Record(ctx, models.AuditUnknownUser, models.AuditActionAccessData, "Unauthenticated request for student data", ip)
		return nil, err
	}

	s.audit.Record(ctx, session.Username, models.AuditActionAccessData, "User accessed student data", ip)

	blob, err := s.repo.Get(ctx, models.ProtectedDataKey)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrDataUnavailable
		}
		s.logger.ErrorContext(ctx, "failed to load protected data", slog.Any("error", err))
		observability.CaptureError(err, "read_protected_data")
		return nil, fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}

	payload, err := s.vault.Open(blob)
	if err != nil {
		s.logger.WarnContext(ctx, "protected data could not be decrypted")
		return nil, models.ErrDecryption
	}

	return payload, nil
}

// Store seals payload under a fresh IV and replaces the stored blob. Admin only.
func (s *ProtectedDataService) Store(ctx context.Context, session *models.Session, payload json.RawMessage, ip string) error {
	if err := s.authorizer.RequireRole(session, models.RoleAdmin); err != nil {
		return err
	}
	if !json.Valid(payload) {
		return models.ErrBadRequest
	}

	if err := s.seal(ctx, payload); err != nil {
		return err
	}

	s.audit.Record(ctx, session.Username, models.AuditActionAccessData, "Admin updated student data", ip)
	return nil
}

// SeedIfEmpty seals and stores payload only when no blob exists yet. It
// reports whether it wrote anything.
func (s *ProtectedDataService) SeedIfEmpty(ctx context.Context, payload any) (bool, error) {
	_, err := s.repo.Get(ctx, models.ProtectedDataKey)
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, models.ErrNotFound):
		return false, fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return false, fmt.Errorf("failed to serialize seed payload: %w", err)
	}
	if err := s.seal(ctx, raw); err != nil {
		return false, err
	}
	return true, nil
}

func (s *ProtectedDataService) seal(ctx context.Context, plaintext []byte) error {
	blob, err := s.vault.SealBytes(plaintext)
	if err != nil {
		return fmt.Errorf("failed to seal protected data: %w", err)
	}

	if err := s.repo.Put(ctx, models.ProtectedDataKey, blob); err != nil {
		s.logger.ErrorContext(ctx, "failed to store protected data", slog.Any("error", err))
		observability.CaptureError(err, "store_protected_data")
		return fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}
	return nil
}

package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/BradenHooton/eduif/internal/models"
)

// MockAccountRepository implements AccountRepository for testing
type MockAccountRepository struct {
	GetByIDFunc          func(ctx context.Context, id int64) (*models.Account, error)
	GetByUsernameFunc    func(ctx context.Context, username string) (*models.Account, error)
	ListFunc             func(ctx context.Context) ([]*models.Account, error)
	CreateFunc           func(ctx context.Context, acct *models.Account) (*models.Account, error)
	UpdateByUsernameFunc func(ctx context.Context, username string, fn func(*models.Account) error) (*models.Account, error)
	UpdateByIDFunc       func(ctx context.Context, id int64, fn func(*models.Account) error) (*models.Account, error)
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockAccountRepository) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	if m.GetByUsernameFunc != nil {
		return m.GetByUsernameFunc(ctx, username)
	}
	return nil, models.ErrNotFound
}

func (m *MockAccountRepository) List(ctx context.Context) ([]*models.Account, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []*models.Account{}, nil
}

func (m *MockAccountRepository) Create(ctx context.Context, acct *models.Account) (*models.Account, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, acct)
	}
	return nil, models.ErrInternalServer
}

func (m *MockAccountRepository) UpdateByUsername(ctx context.Context, username string, fn func(*models.Account) error) (*models.Account, error) {
	if m.UpdateByUsernameFunc != nil {
		return m.UpdateByUsernameFunc(ctx, username, fn)
	}
	return nil, models.ErrNotFound
}

func (m *MockAccountRepository) UpdateByID(ctx context.Context, id int64, fn func(*models.Account) error) (*models.Account, error) {
	if m.UpdateByIDFunc != nil {
		return m.UpdateByIDFunc(ctx, id, fn)
	}
	return nil, models.ErrNotFound
}

// MockAuditLogRepository implements AuditLogRepository for testing
type MockAuditLogRepository struct {
	AppendFunc func(ctx context.Context, rec *models.AuditRecord) error
	RecentFunc func(ctx context.Context, limit int) ([]*models.AuditRecord, error)
	TrimFunc   func(ctx context.Context, keep int) (int64, error)
	CountFunc  func(ctx context.Context) (int64, error)
}

func (m *MockAuditLogRepository) Append(ctx context.Context, rec *models.AuditRecord) error {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, rec)
	}
	return nil
}

func (m *MockAuditLogRepository) Recent(ctx context.Context, limit int) ([]*models.AuditRecord, error) {
	if m.RecentFunc != nil {
		return m.RecentFunc(ctx, limit)
	}
	return []*models.AuditRecord{}, nil
}

func (m *MockAuditLogRepository) Trim(ctx context.Context, keep int) (int64, error) {
	if m.TrimFunc != nil {
		return m.TrimFunc(ctx, keep)
	}
	return 0, nil
}

func (m *MockAuditLogRepository) Count(ctx context.Context) (int64, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx)
	}
	return 0, nil
}

// MockProtectedDataRepository implements ProtectedDataRepository for testing
type MockProtectedDataRepository struct {
	GetFunc func(ctx context.Context, key string) (*models.EncryptedBlob, error)
	PutFunc func(ctx context.Context, key string, blob *models.EncryptedBlob) error
}

func (m *MockProtectedDataRepository) Get(ctx context.Context, key string) (*models.EncryptedBlob, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	return nil, models.ErrNotFound
}

func (m *MockProtectedDataRepository) Put(ctx context.Context, key string, blob *models.EncryptedBlob) error {
	if m.PutFunc != nil {
		return m.PutFunc(ctx, key, blob)
	}
	return nil
}

// RecordingAuditor implements Auditor and keeps every record in order
type RecordingAuditor struct {
	mu      sync.Mutex
	Records []models.AuditRecord
}

func (a *RecordingAuditor) Record(_ context.Context, username string, action models.AuditAction, details, ip string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if username == "" {
		username = models.AuditUnknownUser
	}
	a.Records = append(a.Records, models.AuditRecord{
		Username:  username,
		Action:    action,
		Details:   details,
		IPAddress: ip,
	})
}

// Snapshot returns a copy of the records so far
func (a *RecordingAuditor) Snapshot() []models.AuditRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]models.AuditRecord(nil), a.Records...)
}

// Last returns the most recent record
func (a *RecordingAuditor) Last(t *testing.T) models.AuditRecord {
	t.Helper()
	records := a.Snapshot()
	if len(records) == 0 {
		t.Fatal("no audit records")
	}
	return records[len(records)-1]
}

// Actions returns the recorded actions in order
func (a *RecordingAuditor) Actions() []models.AuditAction {
	records := a.Snapshot()
	actions := make([]models.AuditAction, 0, len(records))
	for _, r := range records {
		actions = append(actions, r.Action)
	}
	return actions
}

// testLogger discards output
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testVerifier returns a cheap bcrypt verifier for password
func testVerifier(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt failed: %v", err)
	}
	return string(hash)
}

// NewTestAccount creates an ACTIVE(0) account for testing
func NewTestAccount(t *testing.T, id int64, username, password string, role models.Role) *models.Account {
	t.Helper()
	return &models.Account{
		ID:           id,
		Username:     username,
		Name:         username + " test",
		Email:        username + "@school.example",
		Role:         role,
		PasswordHash: testVerifier(t, password),
	}
}

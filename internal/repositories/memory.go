package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/BradenHooton/eduif/internal/models"
)

// MemoryAccountRepository keeps accounts in process memory. One mutex guards
// the whole map, which makes every Update* atomic.
type MemoryAccountRepository struct {
	mu       sync.Mutex
	accounts map[int64]*models.Account
	now      func() time.Time
}

func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{
		accounts: make(map[int64]*models.Account),
		now:      time.Now,
	}
}

func (r *MemoryAccountRepository) GetByID(_ context.Context, id int64) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	acct, ok := r.accounts[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return acct.Clone(), nil
}

func (r *MemoryAccountRepository) GetByUsername(_ context.Context, username string) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	acct := r.findByUsername(username)
	if acct == nil {
		return nil, models.ErrNotFound
	}
	return acct.Clone(), nil
}

func (r *MemoryAccountRepository) List(_ context.Context) ([]*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	accounts := make([]*models.Account, 0, len(r.accounts))
	for _, acct := range r.accounts {
		accounts = append(accounts, acct.Clone())
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return accounts, nil
}

func (r *MemoryAccountRepository) Create(_ context.Context, acct *models.Account) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.findByUsername(acct.Username) != nil {
		return nil, models.ErrConflict
	}

	created := acct.Clone()
	if created.ID == 0 {
		for id := range r.accounts {
			if id > created.ID {
				created.ID = id
			}
		}
		created.ID++
	} else if _, exists := r.accounts[created.ID]; exists {
		return nil, models.ErrConflict
	}

	now := r.now().UTC()
	created.CreatedAt = now
	created.UpdatedAt = now
	r.accounts[created.ID] = created

	return created.Clone(), nil
}

func (r *MemoryAccountRepository) UpdateByUsername(_ context.Context, username string, fn func(*models.Account) error) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.apply(r.findByUsername(username), fn)
}

func (r *MemoryAccountRepository) UpdateByID(_ context.Context, id int64, fn func(*models.Account) error) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.apply(r.accounts[id], fn)
}

// apply runs fn on a copy and commits it only when fn succeeds
func (r *MemoryAccountRepository) apply(current *models.Account, fn func(*models.Account) error) (*models.Account, error) {
	if current == nil {
		return nil, models.ErrNotFound
	}

	working := current.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}

	working.ID = current.ID
	working.Username = current.Username
	working.CreatedAt = current.CreatedAt
	working.UpdatedAt = r.now().UTC()
	r.accounts[current.ID] = working

	return working.Clone(), nil
}

func (r *MemoryAccountRepository) findByUsername(username string) *models.Account {
	for _, acct := range r.accounts {
		if acct.Username == username {
			return acct
		}
	}
	return nil
}

// MemoryAuditLogRepository is an in-process activity trail
type MemoryAuditLogRepository struct {
	mu      sync.Mutex
	records []models.AuditRecord
	nextID  int64
}

func NewMemoryAuditLogRepository() *MemoryAuditLogRepository {
	return &MemoryAuditLogRepository{nextID: 1}
}

func (r *MemoryAuditLogRepository) Append(_ context.Context, rec *models.AuditRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	rec.ID = r.nextID
	r.nextID++
	r.records = append(r.records, *rec)

	return nil
}

func (r *MemoryAuditLogRepository) Recent(_ context.Context, limit int) ([]*models.AuditRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit < 0 {
		limit = 0
	}
	start := len(r.records) - limit
	if start < 0 {
		start = 0
	}

	out := make([]*models.AuditRecord, 0, len(r.records)-start)
	for i := start; i < len(r.records); i++ {
		rec := r.records[i]
		out = append(out, &rec)
	}
	return out, nil
}

func (r *MemoryAuditLogRepository) Trim(_ context.Context, keep int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if keep < 0 {
		keep = 0
	}
	if len(r.records) <= keep {
		return 0, nil
	}

	removed := len(r.records) - keep
	r.records = append([]models.AuditRecord(nil), r.records[removed:]...)
	return int64(removed), nil
}

func (r *MemoryAuditLogRepository) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return int64(len(r.records)), nil
}

// MemoryProtectedDataRepository holds sealed payloads in memory
type MemoryProtectedDataRepository struct {
	mu    sync.RWMutex
	blobs map[string]models.EncryptedBlob
}

func NewMemoryProtectedDataRepository() *MemoryProtectedDataRepository {
	return &MemoryProtectedDataRepository{blobs: make(map[string]models.EncryptedBlob)}
}

func (r *MemoryProtectedDataRepository) Get(_ context.Context, key string) (*models.EncryptedBlob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	blob, ok := r.blobs[key]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &models.EncryptedBlob{
		IV:         append([]byte(nil), blob.IV...),
		Ciphertext: append([]byte(nil), blob.Ciphertext...),
	}, nil
}

func (r *MemoryProtectedDataRepository) Put(_ context.Context, key string, blob *models.EncryptedBlob) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.blobs[key] = models.EncryptedBlob{
		IV:         append([]byte(nil), blob.IV...),
		Ciphertext: append([]byte(nil), blob.Ciphertext...),
	}
	return nil
}

package repositories

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BradenHooton/eduif/internal/models"
)

// The same behaviour is required of every backend; each backend test file
// feeds its repositories through these helpers.

type accountStore interface {
	GetByID(ctx context.Context, id int64) (*models.Account, error)
	GetByUsername(ctx context.Context, username string) (*models.Account, error)
	List(ctx context.Context) ([]*models.Account, error)
	Create(ctx context.Context, acct *models.Account) (*models.Account, error)
	UpdateByUsername(ctx context.Context, username string, fn func(*models.Account) error) (*models.Account, error)
	UpdateByID(ctx context.Context, id int64, fn func(*models.Account) error) (*models.Account, error)
}

type auditStore interface {
	Append(ctx context.Context, rec *models.AuditRecord) error
	Recent(ctx context.Context, limit int) ([]*models.AuditRecord, error)
	Trim(ctx context.Context, keep int) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type blobStore interface {
	Get(ctx context.Context, key string) (*models.EncryptedBlob, error)
	Put(ctx context.Context, key string, blob *models.EncryptedBlob) error
}

func newTestAccount(id int64, username string, role models.Role) *models.Account {
	return &models.Account{
		ID:           id,
		Username:     username,
		Name:         username + " name",
		Email:        username + "@eduif.com",
		Role:         role,
		PasswordHash: "$argon2id$placeholder",
	}
}

func testAccountStore(t *testing.T, repo accountStore) {
	ctx := context.Background()

	admin, err := repo.Create(ctx, newTestAccount(1, "admin", models.RoleAdmin))
	require.NoError(t, err)
	assert.Equal(t, int64(1), admin.ID)
	assert.False(t, admin.CreatedAt.IsZero())

	student, err := repo.Create(ctx, newTestAccount(0, "student", models.RoleStudent))
	require.NoError(t, err)
	assert.Equal(t, int64(2), student.ID, "zero id takes the next free id")

	_, err = repo.Create(ctx, newTestAccount(0, "admin", models.RoleStaff))
	assert.ErrorIs(t, err, models.ErrConflict)

	t.Run("lookups", func(t *testing.T) {
		got, err := repo.GetByUsername(ctx, "student")
		require.NoError(t, err)
		assert.Equal(t, models.RoleStudent, got.Role)
		assert.Equal(t, "student@eduif.com", got.Email)

		got, err = repo.GetByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "admin", got.Username)

		_, err = repo.GetByUsername(ctx, "ghost")
		assert.ErrorIs(t, err, models.ErrNotFound)
		_, err = repo.GetByID(ctx, 99)
		assert.ErrorIs(t, err, models.ErrNotFound)

		all, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "admin", all[0].Username)
		assert.Equal(t, "student", all[1].Username)
	})

	t.Run("update persists", func(t *testing.T) {
		updated, err := repo.UpdateByUsername(ctx, "student", func(a *models.Account) error {
			a.RegisterFailure(3)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, updated.FailedAttempts)

		got, err := repo.GetByUsername(ctx, "student")
		require.NoError(t, err)
		assert.Equal(t, 1, got.FailedAttempts)
		assert.False(t, got.Locked)
	})

	t.Run("failed update writes nothing", func(t *testing.T) {
		stop := errors.New("stop")
		_, err := repo.UpdateByUsername(ctx, "student", func(a *models.Account) error {
			a.Locked = true
			a.FailedAttempts = 50
			return stop
		})
		assert.ErrorIs(t, err, stop)

		got, err := repo.GetByUsername(ctx, "student")
		require.NoError(t, err)
		assert.Equal(t, 1, got.FailedAttempts)
		assert.False(t, got.Locked)
	})

	t.Run("update by id", func(t *testing.T) {
		updated, err := repo.UpdateByID(ctx, student.ID, func(a *models.Account) error {
			a.ResetLockout()
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 0, updated.FailedAttempts)

		_, err = repo.UpdateByID(ctx, 404, func(*models.Account) error { return nil })
		assert.ErrorIs(t, err, models.ErrNotFound)
		_, err = repo.UpdateByUsername(ctx, "ghost", func(*models.Account) error { return nil })
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("concurrent updates never lose an increment", func(t *testing.T) {
		const workers = 20

		var wg sync.WaitGroup
		errs := make(chan error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := repo.UpdateByUsername(ctx, "admin", func(a *models.Account) error {
					a.FailedAttempts++
					return nil
				})
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			require.NoError(t, err)
		}

		got, err := repo.GetByUsername(ctx, "admin")
		require.NoError(t, err)
		assert.Equal(t, workers, got.FailedAttempts)
	})
}

func testAuditStore(t *testing.T, repo auditStore) {
	ctx := context.Background()

	recent, err := repo.Recent(ctx, 50)
	require.NoError(t, err)
	assert.Empty(t, recent)

	for i := 1; i <= 5; i++ {
		rec := &models.AuditRecord{
			Username:  "admin",
			Action:    models.AuditActionLoginFailed,
			Details:   fmt.Sprintf("Attempt %d/3", i),
			IPAddress: "127.0.0.1",
		}
		require.NoError(t, repo.Append(ctx, rec))
		assert.NotZero(t, rec.ID)
		assert.False(t, rec.Timestamp.IsZero())
	}

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)

	recent, err = repo.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "Attempt 3/3", recent[0].Details, "oldest first")
	assert.Equal(t, "Attempt 5/3", recent[2].Details)
	assert.True(t, recent[0].ID < recent[1].ID && recent[1].ID < recent[2].ID)
	assert.Equal(t, models.AuditActionLoginFailed, recent[0].Action)

	for _, limit := range []int{0, -1} {
		recent, err = repo.Recent(ctx, limit)
		require.NoError(t, err, "limit %d", limit)
		assert.Empty(t, recent, "limit %d", limit)
	}

	removed, err := repo.Trim(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(0), removed)

	removed, err = repo.Trim(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)

	recent, err = repo.Recent(ctx, 50)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "Attempt 4/3", recent[0].Details)
	assert.Equal(t, "Attempt 5/3", recent[1].Details)

	t.Run("concurrent appends are all kept", func(t *testing.T) {
		const writers = 25

		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				assert.NoError(t, repo.Append(ctx, &models.AuditRecord{
					Username: "staff",
					Action:   models.AuditActionAccessData,
					Details:  fmt.Sprintf("read %d", i),
				}))
			}(i)
		}
		wg.Wait()

		count, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2+writers), count)
	})
}

func testBlobStore(t *testing.T, repo blobStore) {
	ctx := context.Background()

	_, err := repo.Get(ctx, models.ProtectedDataKey)
	assert.ErrorIs(t, err, models.ErrNotFound)

	first := &models.EncryptedBlob{IV: []byte{1, 2, 3}, Ciphertext: []byte{4, 5, 6}}
	require.NoError(t, repo.Put(ctx, models.ProtectedDataKey, first))

	got, err := repo.Get(ctx, models.ProtectedDataKey)
	require.NoError(t, err)
	assert.Equal(t, first.IV, got.IV)
	assert.Equal(t, first.Ciphertext, got.Ciphertext)

	second := &models.EncryptedBlob{IV: []byte{9}, Ciphertext: []byte{8, 7}}
	require.NoError(t, repo.Put(ctx, models.ProtectedDataKey, second))

	got, err = repo.Get(ctx, models.ProtectedDataKey)
	require.NoError(t, err)
	assert.Equal(t, second.IV, got.IV)
	assert.Equal(t, second.Ciphertext, got.Ciphertext)
}

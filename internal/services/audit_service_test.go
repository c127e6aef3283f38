package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BradenHooton/eduif/internal/models"
	"github.com/BradenHooton/eduif/internal/repositories"
)

func TestAuditService_Record(t *testing.T) {
	repo := repositories.NewMemoryAuditLogRepository()
	service := NewAuditService(repo, testLogger())
	fixed := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	service.now = func() time.Time { return fixed }

	service.Record(context.Background(), "", models.AuditActionLogout, "User logged out", testIP)

	records, err := repo.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.AuditUnknownUser, records[0].Username)
	assert.Equal(t, fixed, records[0].Timestamp)
	assert.Equal(t, testIP, records[0].IPAddress)
}

func TestAuditService_Record_RejectsUnknownAction(t *testing.T) {
	repo := repositories.NewMemoryAuditLogRepository()
	service := NewAuditService(repo, testLogger())

	service.Record(context.Background(), "admin", models.AuditAction("DROP_TABLES"), "", testIP)

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

// A failing store never surfaces to the caller
func TestAuditService_Record_SwallowsStoreFailure(t *testing.T) {
	called := false
	repo := &MockAuditLogRepository{
		AppendFunc: func(ctx context.Context, rec *models.AuditRecord) error {
			called = true
			return errors.New("read-only file system")
		},
	}
	service := NewAuditService(repo, testLogger())

	assert.NotPanics(t, func() {
		service.Record(context.Background(), "admin", models.AuditActionViewUsers, "Admin viewed all users", testIP)
	})
	assert.True(t, called)
}

func TestAuditService_RecentAndTrim_WrapStoreErrors(t *testing.T) {
	repo := &MockAuditLogRepository{
		RecentFunc: func(ctx context.Context, limit int) ([]*models.AuditRecord, error) {
			return nil, errors.New("locked")
		},
		TrimFunc: func(ctx context.Context, keep int) (int64, error) {
			return 0, errors.New("locked")
		},
	}
	service := NewAuditService(repo, testLogger())

	_, err := service.Recent(context.Background(), 10)
	assert.ErrorIs(t, err, models.ErrPersistence)

	_, err = service.Trim(context.Background(), 10)
	assert.ErrorIs(t, err, models.ErrPersistence)
}

func TestAuditService_Trim(t *testing.T) {
	repo := repositories.NewMemoryAuditLogRepository()
	service := NewAuditService(repo, testLogger())
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		service.Record(ctx, "staff", models.AuditActionDashboardAccess, "Accessing staff dashboard", testIP)
	}

	removed, err := service.Trim(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)
}

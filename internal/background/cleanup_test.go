package background

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeTrimmer struct {
	calls    atomic.Int32
	lastKeep atomic.Int32
	err      error
}

func (f *fakeTrimmer) Trim(_ context.Context, keep int) (int64, error) {
	f.calls.Add(1)
	f.lastKeep.Store(int32(keep))
	return 3, f.err
}

type fakePurger struct {
	calls atomic.Int32
}

func (f *fakePurger) PurgeExpired() int {
	f.calls.Add(1)
	return 1
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCleanupManager_RunsImmediatelyAndOnSchedule(t *testing.T) {
	trimmer := &fakeTrimmer{}
	purger := &fakePurger{}
	cm := NewCleanupManager(trimmer, purger, CleanupConfig{
		AuditRetention:         1000,
		AuditTrimInterval:      10 * time.Millisecond,
		SessionCleanupInterval: 10 * time.Millisecond,
	}, discardLogger())

	done := make(chan struct{})
	go func() {
		cm.Start(context.Background())
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return trimmer.calls.Load() >= 3 && purger.calls.Load() >= 3
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1000), trimmer.lastKeep.Load())

	cm.Stop()
	cm.Stop()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("cleanup manager did not stop")
	}
}

func TestCleanupManager_StopsOnContextCancel(t *testing.T) {
	cm := NewCleanupManager(&fakeTrimmer{err: errors.New("db down")}, &fakePurger{}, CleanupConfig{
		AuditRetention:         10,
		AuditTrimInterval:      time.Hour,
		SessionCleanupInterval: time.Hour,
	}, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		cm.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("cleanup manager ignored context cancellation")
	}
}

func TestCleanupManager_NonPositiveIntervalsUseDefaults(t *testing.T) {
	trimmer := &fakeTrimmer{}
	purger := &fakePurger{}
	cm := NewCleanupManager(trimmer, purger, CleanupConfig{
		AuditRetention:         5,
		AuditTrimInterval:      0,
		SessionCleanupInterval: -time.Minute,
	}, discardLogger())

	assert.Equal(t, DefaultAuditTrimInterval, cm.config.AuditTrimInterval)
	assert.Equal(t, DefaultSessionCleanupInterval, cm.config.SessionCleanupInterval)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		assert.NotPanics(t, func() { cm.Start(ctx) })
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return trimmer.calls.Load() == 1 && purger.calls.Load() == 1
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("cleanup manager did not stop")
	}
}

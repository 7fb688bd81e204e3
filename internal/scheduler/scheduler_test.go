package scheduler_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fileops/notifyd/internal/scheduler"
	"github.com/fileops/notifyd/internal/storage"
	"github.com/fileops/notifyd/internal/storage/mocks"
)

type gauge struct{ value int }

func (g *gauge) SetStalePending(n int) { g.value = n }

func newScheduler(t *testing.T, store storage.DeliveryStore, g scheduler.Gauge) *scheduler.Scheduler {
	t.Helper()
	s, err := scheduler.New(scheduler.Config{
		Deliveries: store,
		Gauge:      g,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		StaleAfter: 5 * time.Minute,
	})
	require.NoError(t, err)
	return s
}

func TestCheckStale_PublishesCount(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	store := &mocks.MockDeliveryStore{}
	store.On("ListStalePending", mock.Anything, now.Add(-5*time.Minute)).Return([]*storage.Delivery{
		{ID: "d-1", Status: storage.DeliveryPending},
		{ID: "d-2", Status: storage.DeliveryPending},
	}, nil)
	g := &gauge{}

	s := newScheduler(t, store, g)
	s.SetClock(func() time.Time { return now })

	n, err := s.ExportedCheckStale(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, g.value)
	store.AssertExpectations(t)
}

func TestCheckStale_ResetsGaugeWhenClear(t *testing.T) {
	store := &mocks.MockDeliveryStore{}
	store.On("ListStalePending", mock.Anything, mock.Anything).Return([]*storage.Delivery{}, nil)
	g := &gauge{value: 7}

	n, err := newScheduler(t, store, g).ExportedCheckStale(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, g.value)
}

func TestCheckStale_StoreError(t *testing.T) {
	store := &mocks.MockDeliveryStore{}
	store.On("ListStalePending", mock.Anything, mock.Anything).Return(nil, errors.New("db locked"))
	g := &gauge{value: 1}

	_, err := newScheduler(t, store, g).ExportedCheckStale(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 1, g.value)
}

func TestCheckStale_DoesNotModifyDeliveries(t *testing.T) {
	db, _, err := storage.NewSQLiteDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	store := storage.NewSQLiteDeliveryStore(db)
	ctx := context.Background()

	old := time.Now().Add(-time.Hour)
	require.NoError(t, store.Create(ctx, &storage.Delivery{
		ID: "d-old", NotificationID: "n-1", WebhookID: "wh-1", Channel: "webhook", CreatedAt: old,
	}))
	require.NoError(t, store.Create(ctx, &storage.Delivery{
		ID: "d-new", NotificationID: "n-2", WebhookID: "wh-1", Channel: "webhook",
	}))

	n, err := newScheduler(t, store, nil).ExportedCheckStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := store.Get(ctx, "d-old")
	require.NoError(t, err)
	assert.Equal(t, storage.DeliveryPending, got.Status)
}

func TestStartStop(t *testing.T) {
	store := &mocks.MockDeliveryStore{}
	store.On("ListStalePending", mock.Anything, mock.Anything).Return([]*storage.Delivery{}, nil).Maybe()

	s := newScheduler(t, store, &gauge{})
	require.NoError(t, s.Start())
	assert.NoError(t, s.Stop())
}

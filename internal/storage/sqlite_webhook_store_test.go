package storage_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fileops/notifyd/internal/storage"
)

func newWebhookStore(t *testing.T) *storage.SQLiteWebhookStore {
	t.Helper()
	db, _, err := storage.NewSQLiteDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return storage.NewSQLiteWebhookStore(db)
}

func seedWebhook(t *testing.T, store storage.WebhookStore, w *storage.Webhook) *storage.Webhook {
	t.Helper()
	require.NoError(t, store.Create(context.Background(), w))
	return w
}

func TestSQLiteWebhookStore_CreateGet(t *testing.T) {
	store := newWebhookStore(t)
	ctx := context.Background()

	seedWebhook(t, store, &storage.Webhook{
		ID: "wh-1", UserID: "u1", URL: "https://example.com/hook", Secret: "s",
		Events: []string{"file_uploaded", "file_shared"}, Active: true,
	})

	got, err := store.Get(ctx, "wh-1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "https://example.com/hook", got.URL)
	assert.Equal(t, "s", got.Secret)
	assert.Equal(t, []string{"file_uploaded", "file_shared"}, got.Events)
	assert.True(t, got.Active)
	assert.Zero(t, got.FailureCount)
	assert.False(t, got.CreatedAt.IsZero())

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSQLiteWebhookStore_FindActiveByEvent(t *testing.T) {
	store := newWebhookStore(t)
	ctx := context.Background()

	seedWebhook(t, store, &storage.Webhook{ID: "a", UserID: "u1", URL: "u", Secret: "s", Events: []string{"file_uploaded"}, Active: true})
	seedWebhook(t, store, &storage.Webhook{ID: "b", UserID: "u2", URL: "u", Secret: "s", Events: []string{"file_shared", "file_uploaded"}, Active: true})
	seedWebhook(t, store, &storage.Webhook{ID: "c", UserID: "u1", URL: "u", Secret: "s", Events: []string{"file_uploaded"}, Active: false})
	seedWebhook(t, store, &storage.Webhook{ID: "d", UserID: "u1", URL: "u", Secret: "s", Events: []string{"file_uploaded_v2"}, Active: true})

	got, err := store.FindActiveByEvent(ctx, "file_uploaded")
	require.NoError(t, err)

	ids := make([]string, 0, len(got))
	for _, w := range got {
		ids = append(ids, w.ID)
	}
	assert.ElementsMatch(t, []string{"a", "b"}, ids)

	none, err := store.FindActiveByEvent(ctx, "system_alert")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLiteWebhookStore_RecordFailureDeactivatesAtThreshold(t *testing.T) {
	store := newWebhookStore(t)
	ctx := context.Background()
	seedWebhook(t, store, &storage.Webhook{ID: "wh", UserID: "u1", URL: "u", Secret: "s", Events: []string{"x"}, Active: true})

	for i := 1; i <= 2; i++ {
		w, err := store.RecordFailure(ctx, "wh", 3)
		require.NoError(t, err)
		assert.Equal(t, i, w.FailureCount)
		assert.True(t, w.Active)
	}

	w, err := store.RecordFailure(ctx, "wh", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, w.FailureCount)
	assert.False(t, w.Active)
}

func TestSQLiteWebhookStore_RecordFailureZeroThresholdNeverDeactivates(t *testing.T) {
	store := newWebhookStore(t)
	ctx := context.Background()
	seedWebhook(t, store, &storage.Webhook{ID: "wh", UserID: "u1", URL: "u", Secret: "s", Events: []string{"x"}, Active: true})

	for i := 0; i < 5; i++ {
		_, err := store.RecordFailure(ctx, "wh", 0)
		require.NoError(t, err)
	}
	w, err := store.Get(ctx, "wh")
	require.NoError(t, err)
	assert.Equal(t, 5, w.FailureCount)
	assert.True(t, w.Active)
}

func TestSQLiteWebhookStore_RecordFailureConcurrent(t *testing.T) {
	store := newWebhookStore(t)
	ctx := context.Background()
	seedWebhook(t, store, &storage.Webhook{ID: "wh", UserID: "u1", URL: "u", Secret: "s", Events: []string{"x"}, Active: true})

	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.RecordFailure(ctx, "wh", 0)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	w, err := store.Get(ctx, "wh")
	require.NoError(t, err)
	assert.Equal(t, n, w.FailureCount)
}

func TestSQLiteWebhookStore_ResetFailures(t *testing.T) {
	store := newWebhookStore(t)
	ctx := context.Background()
	seedWebhook(t, store, &storage.Webhook{ID: "wh", UserID: "u1", URL: "u", Secret: "s", Events: []string{"x"}, Active: true, FailureCount: 4})

	require.NoError(t, store.ResetFailures(ctx, "wh"))
	w, err := store.Get(ctx, "wh")
	require.NoError(t, err)
	assert.Zero(t, w.FailureCount)

	// Resetting an unknown or already-zero webhook is a no-op.
	require.NoError(t, store.ResetFailures(ctx, "wh"))
	require.NoError(t, store.ResetFailures(ctx, "missing"))
}

func TestSQLiteWebhookStore_SetActiveAndRecordFailureMissing(t *testing.T) {
	store := newWebhookStore(t)
	ctx := context.Background()
	seedWebhook(t, store, &storage.Webhook{ID: "wh", UserID: "u1", URL: "u", Secret: "s", Events: []string{"x"}, Active: true})

	w, err := store.SetActive(ctx, "wh", false)
	require.NoError(t, err)
	assert.False(t, w.Active)

	_, err = store.SetActive(ctx, "missing", true)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = store.RecordFailure(ctx, "missing", 3)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSQLiteWebhookStore_ReactivationResetsFailures(t *testing.T) {
	store := newWebhookStore(t)
	ctx := context.Background()
	seedWebhook(t, store, &storage.Webhook{ID: "wh", UserID: "u1", URL: "u", Secret: "s", Events: []string{"x"}, Active: true})

	for i := 0; i < 3; i++ {
		_, err := store.RecordFailure(ctx, "wh", 3)
		require.NoError(t, err)
	}
	w, err := store.Get(ctx, "wh")
	require.NoError(t, err)
	require.False(t, w.Active)
	require.Equal(t, 3, w.FailureCount)

	w, err = store.SetActive(ctx, "wh", true)
	require.NoError(t, err)
	assert.True(t, w.Active)
	assert.Zero(t, w.FailureCount)

	w, err = store.RecordFailure(ctx, "wh", 3)
	require.NoError(t, err)
	assert.True(t, w.Active, "one failure after reactivation must not deactivate again")
	assert.Equal(t, 1, w.FailureCount)

	// Deactivation keeps the count for inspection.
	w, err = store.SetActive(ctx, "wh", false)
	require.NoError(t, err)
	assert.Equal(t, 1, w.FailureCount)
}

func TestSQLiteWebhookStore_ListByUser(t *testing.T) {
	store := newWebhookStore(t)
	ctx := context.Background()
	seedWebhook(t, store, &storage.Webhook{ID: "a", UserID: "u1", URL: "u", Secret: "s", Events: nil, Active: true})
	seedWebhook(t, store, &storage.Webhook{ID: "b", UserID: "u2", URL: "u", Secret: "s", Events: []string{"x"}, Active: true})

	got, err := store.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
	assert.Empty(t, got[0].Events)
}

func TestWebhook_SubscribedTo(t *testing.T) {
	w := &storage.Webhook{Events: []string{"file_uploaded"}}
	assert.True(t, w.SubscribedTo("file_uploaded"))
	assert.False(t, w.SubscribedTo("file_shared"))
}

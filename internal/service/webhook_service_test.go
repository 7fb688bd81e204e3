package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fileops/notifyd/internal/service"
	"github.com/fileops/notifyd/internal/storage"
	"github.com/fileops/notifyd/internal/storage/mocks"
	"github.com/fileops/notifyd/internal/webhook"
)

type stubTester struct {
	result webhook.Result
	tested []string
}

func (s *stubTester) Test(_ context.Context, w *storage.Webhook) webhook.Result {
	s.tested = append(s.tested, w.ID)
	return s.result
}

func TestWebhookService_Test(t *testing.T) {
	store := &mocks.MockWebhookStore{}
	audit := &mocks.MockAuditStore{}
	tester := &stubTester{result: webhook.Result{Success: true, StatusCode: 204}}
	store.On("Get", mock.Anything, "wh-1").Return(&storage.Webhook{ID: "wh-1"}, nil)

	res, err := service.NewWebhookService(store, tester, audit).Test(context.Background(), "wh-1")
	require.NoError(t, err)
	assert.Equal(t, tester.result, res)
	assert.Equal(t, []string{"wh-1"}, tester.tested)
	audit.AssertNotCalled(t, "Log", mock.Anything, mock.Anything)
}

func TestWebhookService_TestNotFound(t *testing.T) {
	store := &mocks.MockWebhookStore{}
	store.On("Get", mock.Anything, "missing").Return(nil, storage.ErrNotFound)
	tester := &stubTester{}

	_, err := service.NewWebhookService(store, tester, &mocks.MockAuditStore{}).Test(context.Background(), "missing")

	var nf *service.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "webhook", nf.Resource)
	assert.Empty(t, tester.tested)
}

func TestWebhookService_SetActive(t *testing.T) {
	store := &mocks.MockWebhookStore{}
	audit := &mocks.MockAuditStore{}
	store.On("SetActive", mock.Anything, "wh-1", true).Return(&storage.Webhook{ID: "wh-1", Active: true}, nil)
	audit.On("Log", mock.Anything, mock.MatchedBy(func(e storage.AuditLogEntry) bool {
		return e.Action == "webhook.activate" && e.SubjectID == "wh-1" && e.Actor == "api"
	})).Return(nil)

	w, err := service.NewWebhookService(store, &stubTester{}, audit).SetActive(context.Background(), "wh-1", true, "")
	require.NoError(t, err)
	assert.True(t, w.Active)
	audit.AssertExpectations(t)
}

func TestWebhookService_ReactivationStartsFailureCountOver(t *testing.T) {
	db, _, err := storage.NewSQLiteDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	store := storage.NewSQLiteWebhookStore(db)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, &storage.Webhook{
		ID: "wh-1", UserID: "u1", URL: "https://hooks.example.com", Secret: "s",
		Events: []string{"file_uploaded"}, Active: true,
	}))
	for i := 0; i < 3; i++ {
		_, err := store.RecordFailure(ctx, "wh-1", 3)
		require.NoError(t, err)
	}

	svc := service.NewWebhookService(store, &stubTester{}, storage.NewSQLiteAuditStore(db))
	w, err := svc.SetActive(ctx, "wh-1", true, "ops")
	require.NoError(t, err)
	assert.True(t, w.Active)
	assert.Zero(t, w.FailureCount)

	w, err = store.RecordFailure(ctx, "wh-1", 3)
	require.NoError(t, err)
	assert.True(t, w.Active)
	assert.Equal(t, 1, w.FailureCount)
}

func TestWebhookService_ListByUser(t *testing.T) {
	store := &mocks.MockWebhookStore{}
	store.On("ListByUser", mock.Anything, "u1").Return([]*storage.Webhook{{ID: "wh-1", UserID: "u1"}}, nil)
	svc := service.NewWebhookService(store, &stubTester{}, &mocks.MockAuditStore{})

	hooks, err := svc.ListByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, hooks, 1)
	assert.Equal(t, "wh-1", hooks[0].ID)

	_, err = svc.ListByUser(context.Background(), "")
	var ve *service.ValidationError
	assert.ErrorAs(t, err, &ve)
	store.AssertNumberOfCalls(t, "ListByUser", 1)
}

func TestWebhookService_SetActiveNotFound(t *testing.T) {
	store := &mocks.MockWebhookStore{}
	store.On("SetActive", mock.Anything, "nope", false).Return(nil, storage.ErrNotFound)

	_, err := service.NewWebhookService(store, &stubTester{}, &mocks.MockAuditStore{}).
		SetActive(context.Background(), "nope", false, "admin")

	var nf *service.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

package notification_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fileops/notifyd/internal/notification"
	"github.com/fileops/notifyd/internal/storage"
	"github.com/fileops/notifyd/internal/storage/mocks"
	"github.com/fileops/notifyd/internal/templates"
)

type stubProvider struct {
	sent []notification.Message
	err  error
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Send(_ context.Context, msg notification.Message) error {
	p.sent = append(p.sent, msg)
	return p.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func uploadedNotification(channels ...notification.Channel) *notification.Notification {
	return &notification.Notification{
		ID:       "n-1",
		UserID:   "user-1",
		Type:     notification.TypeFileUploaded,
		Title:    "Upload complete",
		Message:  "report.pdf is ready",
		Priority: notification.PriorityMedium,
		Channels: channels,
		Data: map[string]any{
			"userName": "Ada",
			"fileName": "report.pdf",
			"fileSize": "2 MB",
		},
	}
}

func TestHandle_InAppAndEmail(t *testing.T) {
	provider := &stubProvider{}
	store := &mocks.MockNotificationStore{}

	var logged []storage.NotificationLogEntry
	store.On("LogNotification", mock.Anything, mock.AnythingOfType("storage.NotificationLogEntry")).
		Run(func(args mock.Arguments) {
			logged = append(logged, args.Get(1).(storage.NotificationLogEntry))
		}).Return(nil)

	h := notification.NewHandler(templates.NewRegistry(), provider, store, discardLogger())
	n := uploadedNotification(notification.ChannelInApp, notification.ChannelEmail, notification.ChannelWebhook)
	n.Data["email"] = "ada@example.com"

	h.Handle(context.Background(), n)

	require.Len(t, provider.sent, 1)
	assert.Equal(t, "File uploaded: report.pdf", provider.sent[0].Subject)
	assert.Equal(t, []string{"ada@example.com"}, provider.sent[0].To)

	require.Len(t, logged, 2)
	assert.Equal(t, "in_app", logged[0].Channel)
	assert.Equal(t, "user-1", logged[0].Recipient)
	assert.Equal(t, storage.LogStatusSent, logged[0].Status)
	assert.Equal(t, "email", logged[1].Channel)
	assert.Equal(t, "ada@example.com", logged[1].Recipient)
	assert.Equal(t, "file_uploaded", logged[1].EventType)
	store.AssertExpectations(t)
}

func TestHandle_EmailFailureIsLogged(t *testing.T) {
	provider := &stubProvider{err: errors.New("connection refused")}
	store := &mocks.MockNotificationStore{}
	store.On("LogNotification", mock.Anything, mock.MatchedBy(func(e storage.NotificationLogEntry) bool {
		return e.Channel == "email" && e.Status == storage.LogStatusFailed && e.ErrorMsg == "connection refused"
	})).Return(nil).Once()

	h := notification.NewHandler(templates.NewRegistry(), provider, store, discardLogger())
	h.Handle(context.Background(), uploadedNotification(notification.ChannelEmail))

	store.AssertExpectations(t)
}

func TestHandle_NoProvider(t *testing.T) {
	store := &mocks.MockNotificationStore{}
	store.On("LogNotification", mock.Anything, mock.MatchedBy(func(e storage.NotificationLogEntry) bool {
		return e.Status == storage.LogStatusFailed && e.ErrorMsg == "email provider not configured"
	})).Return(nil).Once()

	h := notification.NewHandler(templates.NewRegistry(), nil, store, discardLogger())
	h.Handle(context.Background(), uploadedNotification(notification.ChannelEmail))

	store.AssertExpectations(t)
}

func TestHandle_WebhookOnlyIsIgnored(t *testing.T) {
	store := &mocks.MockNotificationStore{}
	h := notification.NewHandler(templates.NewRegistry(), &stubProvider{}, store, discardLogger())

	h.Handle(context.Background(), uploadedNotification(notification.ChannelWebhook))

	store.AssertNotCalled(t, "LogNotification", mock.Anything, mock.Anything)
}

func TestHandle_StoreErrorDoesNotPanic(t *testing.T) {
	store := &mocks.MockNotificationStore{}
	store.On("LogNotification", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	h := notification.NewHandler(templates.NewRegistry(), &stubProvider{}, store, discardLogger())
	assert.NotPanics(t, func() {
		h.Handle(context.Background(), uploadedNotification(notification.ChannelInApp))
	})
}

func TestRender_FallsBackToTitleAndMessage(t *testing.T) {
	h := notification.NewHandler(templates.NewRegistry(), nil, &mocks.MockNotificationStore{}, discardLogger())

	got := h.Render(&notification.Notification{
		ID:      "n-2",
		Type:    "quota_warning",
		Title:   "Quota <90%>",
		Message: "Clean up & retry",
	})

	assert.Equal(t, "Quota &lt;90%&gt;", got.Subject)
	assert.Equal(t, "Clean up &amp; retry", got.Body)
	assert.Empty(t, got.HTMLBody)
}

func TestRender_NotificationFieldsAreVariables(t *testing.T) {
	reg := templates.NewRegistry()
	require.NoError(t, reg.Register(templates.Template{
		ID:      "quota_warning",
		Type:    "quota_warning",
		Subject: "[{{priority}}] {{title}}",
		Body:    "{{message}} for {{userId}}",
	}))
	h := notification.NewHandler(reg, nil, &mocks.MockNotificationStore{}, discardLogger())

	got := h.Render(&notification.Notification{
		ID:       "n-3",
		UserID:   "user-9",
		Type:     "quota_warning",
		Title:    "Almost full",
		Message:  "95% used",
		Priority: notification.PriorityHigh,
		Data:     map[string]any{"title": "Overridden"},
	})

	assert.Equal(t, "[high] Overridden", got.Subject)
	assert.Equal(t, "95% used for user-9", got.Body)
}

package notification

import (
	"context"
	"errors"
	"html"
	"log/slog"
	"time"

	"github.com/fileops/notifyd/internal/storage"
	"github.com/fileops/notifyd/internal/templates"
)

const sendTimeout = 30 * time.Second

// Handler delivers the in-app and email channels of a notification. Each
// channel send is rendered from the notification's template and recorded in
// the notification log. Webhook delivery is handled separately.
type Handler struct {
	templates *templates.Registry
	provider  Provider
	store     storage.NotificationStore
	logger    *slog.Logger
	now       func() time.Time
}

// NewHandler creates a Handler. provider may be nil, in which case email
// sends are recorded as failed.
func NewHandler(reg *templates.Registry, provider Provider, store storage.NotificationStore, logger *slog.Logger) *Handler {
	return &Handler{
		templates: reg,
		provider:  provider,
		store:     store,
		logger:    logger,
		now:       time.Now,
	}
}

// Handle renders and delivers every in-app and email channel of n.
func (h *Handler) Handle(ctx context.Context, n *Notification) {
	if !n.HasChannel(ChannelInApp) && !n.HasChannel(ChannelEmail) {
		return
	}
	content := h.Render(n)

	for _, ch := range n.Channels {
		var err error
		recipient := n.UserID
		switch ch {
		case ChannelInApp:
			// The in-app inbox is the notification record itself; logging the
			// rendered content is what makes it visible to the feed.
		case ChannelEmail:
			recipient, err = h.sendEmail(ctx, n, content)
		default:
			continue
		}
		h.record(ctx, n, ch, recipient, content.Subject, err)
	}
}

// Render produces the channel content for n. Template variables come from
// n.Data plus the notification's own title, message, priority, type and
// userId. Without a template for n.Type the escaped title and message are used.
func (h *Handler) Render(n *Notification) templates.Rendered {
	vars := templates.VariablesFromMap(n.Data)
	defaults := map[string]string{
		"title":    n.Title,
		"message":  n.Message,
		"priority": string(n.Priority),
		"type":     string(n.Type),
		"userId":   n.UserID,
	}
	for k, v := range defaults {
		if _, ok := vars[k]; !ok {
			vars[k] = templates.String(v)
		}
	}

	tmpl, ok := h.templates.ByType(string(n.Type))
	if !ok {
		return templates.Rendered{
			Subject: html.EscapeString(n.Title),
			Body:    html.EscapeString(n.Message),
		}
	}
	if missing := templates.ValidateVariables(tmpl, vars); len(missing) > 0 {
		h.logger.Warn("notification is missing template variables",
			"notification_id", n.ID, "template_id", tmpl.ID, "missing", missing)
	}
	return templates.Render(tmpl, vars)
}

func (h *Handler) sendEmail(ctx context.Context, n *Notification, content templates.Rendered) (string, error) {
	if h.provider == nil {
		return "", errors.New("email provider not configured")
	}

	var to []string
	if addr, ok := n.Data["email"].(string); ok && addr != "" {
		to = []string{addr}
	}

	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	err := h.provider.Send(sendCtx, Message{
		Subject:  content.Subject,
		Body:     content.Body,
		HTMLBody: content.HTMLBody,
		To:       to,
	})
	if len(to) == 0 {
		return "", err
	}
	return to[0], err
}

func (h *Handler) record(ctx context.Context, n *Notification, ch Channel, recipient, subject string, sendErr error) {
	entry := storage.NotificationLogEntry{
		NotificationID: n.ID,
		EventType:      string(n.Type),
		Channel:        string(ch),
		Recipient:      recipient,
		Subject:        subject,
		Status:         storage.LogStatusSent,
		CreatedAt:      h.now(),
	}
	if sendErr != nil {
		entry.Status = storage.LogStatusFailed
		entry.ErrorMsg = sendErr.Error()
		h.logger.Warn("notification channel send failed",
			"notification_id", n.ID, "channel", ch, "error", sendErr)
	}

	if err := h.store.LogNotification(context.WithoutCancel(ctx), entry); err != nil {
		h.logger.Error("failed to log notification send",
			"notification_id", n.ID, "channel", ch, "error", err)
	}
}

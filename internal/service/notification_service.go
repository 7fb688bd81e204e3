package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fileops/notifyd/internal/eventbus"
	"github.com/fileops/notifyd/internal/notification"
	"github.com/fileops/notifyd/internal/storage"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// NotificationService accepts domain notifications for delivery and exposes
// the delivery, channel and audit records they produce.
type NotificationService interface {
	// Publish validates n, fills defaults and queues it for delivery.
	Publish(ctx context.Context, n *notification.Notification) (*notification.Notification, error)
	// ListDeliveries returns the delivery records of a notification.
	ListDeliveries(ctx context.Context, notificationID string) ([]*storage.Delivery, error)
	// ListLog returns the most recent channel log entries.
	ListLog(ctx context.Context, limit int) ([]storage.NotificationLogEntry, error)
	// ListAudit returns the most recent audit entries.
	ListAudit(ctx context.Context, limit int) ([]storage.AuditLogEntry, error)
}

// notificationServiceImpl implements NotificationService.
type notificationServiceImpl struct {
	publisher  EventPublisher
	deliveries storage.DeliveryStore
	log        storage.NotificationStore
	audit      storage.AuditStore
	now        func() time.Time
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(
	publisher EventPublisher,
	deliveries storage.DeliveryStore,
	log storage.NotificationStore,
	audit storage.AuditStore,
) NotificationService {
	return &notificationServiceImpl{
		publisher:  publisher,
		deliveries: deliveries,
		log:        log,
		audit:      audit,
		now:        time.Now,
	}
}

// Publish fills in id, priority, channels and timestamps when missing,
// validates the result and hands it to the publisher.
func (s *notificationServiceImpl) Publish(_ context.Context, n *notification.Notification) (*notification.Notification, error) {
	if n == nil {
		return nil, &ValidationError{Message: "notification is required"}
	}
	if n.Type == notification.TypeTest {
		return nil, &ValidationError{Field: "type", Message: `"test" is reserved for webhook tests`}
	}

	out := *n
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	if out.Priority == "" {
		out.Priority = notification.PriorityMedium
	}
	if len(out.Channels) == 0 {
		out.Channels = []notification.Channel{notification.ChannelInApp}
	}
	now := s.now().UTC()
	if out.CreatedAt.IsZero() {
		out.CreatedAt = now
	}
	out.UpdatedAt = now

	if err := out.Validate(); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}
	for _, ch := range out.Channels {
		switch ch {
		case notification.ChannelInApp, notification.ChannelEmail, notification.ChannelWebhook:
		default:
			return nil, &ValidationError{Field: "channels", Message: fmt.Sprintf("unknown channel %q", ch)}
		}
	}

	if err := s.publisher.Publish(&out); err != nil {
		if errors.Is(err, eventbus.ErrBufferFull) || errors.Is(err, eventbus.ErrClosed) {
			return nil, &UnavailableError{Message: "delivery queue is unavailable, retry later"}
		}
		return nil, fmt.Errorf("publishing notification %q: %w", out.ID, err)
	}
	return &out, nil
}

// ListDeliveries returns the delivery records of a notification.
func (s *notificationServiceImpl) ListDeliveries(ctx context.Context, notificationID string) ([]*storage.Delivery, error) {
	deliveries, err := s.deliveries.ListByNotification(ctx, notificationID)
	if err != nil {
		return nil, fmt.Errorf("listing deliveries for %q: %w", notificationID, err)
	}
	return deliveries, nil
}

// ListLog returns the most recent notification log entries.
func (s *notificationServiceImpl) ListLog(ctx context.Context, limit int) ([]storage.NotificationLogEntry, error) {
	return s.log.ListNotifications(ctx, clampLimit(limit))
}

// ListAudit returns the most recent audit entries.
func (s *notificationServiceImpl) ListAudit(ctx context.Context, limit int) ([]storage.AuditLogEntry, error) {
	return s.audit.List(ctx, clampLimit(limit))
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultListLimit
	case limit > maxListLimit:
		return maxListLimit
	default:
		return limit
	}
}

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/fileops/notifyd/internal/notification"
	"github.com/fileops/notifyd/internal/storage"
)

// MockNotificationService is a mock implementation of service.NotificationService.
type MockNotificationService struct {
	mock.Mock
}

//nolint:revive
func (m *MockNotificationService) Publish(ctx context.Context, n *notification.Notification) (*notification.Notification, error) {
	args := m.Called(ctx, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notification.Notification), args.Error(1)
}

//nolint:revive
func (m *MockNotificationService) ListDeliveries(ctx context.Context, notificationID string) ([]*storage.Delivery, error) {
	args := m.Called(ctx, notificationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*storage.Delivery), args.Error(1)
}

//nolint:revive
func (m *MockNotificationService) ListLog(ctx context.Context, limit int) ([]storage.NotificationLogEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.NotificationLogEntry), args.Error(1)
}

//nolint:revive
func (m *MockNotificationService) ListAudit(ctx context.Context, limit int) ([]storage.AuditLogEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.AuditLogEntry), args.Error(1)
}

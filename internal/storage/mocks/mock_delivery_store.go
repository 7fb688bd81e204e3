package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/fileops/notifyd/internal/storage"
)

// MockDeliveryStore is a mock implementation of storage.DeliveryStore.
type MockDeliveryStore struct {
	mock.Mock
}

//nolint:revive
func (m *MockDeliveryStore) Create(ctx context.Context, d *storage.Delivery) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

//nolint:revive
func (m *MockDeliveryStore) Update(ctx context.Context, id string, u storage.DeliveryUpdate) (*storage.Delivery, error) {
	args := m.Called(ctx, id, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Delivery), args.Error(1)
}

//nolint:revive
func (m *MockDeliveryStore) Get(ctx context.Context, id string) (*storage.Delivery, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Delivery), args.Error(1)
}

//nolint:revive
func (m *MockDeliveryStore) ListByNotification(ctx context.Context, notificationID string) ([]*storage.Delivery, error) {
	args := m.Called(ctx, notificationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*storage.Delivery), args.Error(1)
}

//nolint:revive
func (m *MockDeliveryStore) ListStalePending(ctx context.Context, cutoff time.Time) ([]*storage.Delivery, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*storage.Delivery), args.Error(1)
}

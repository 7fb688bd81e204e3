package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/fileops/notifyd/internal/storage"
)

// MockWebhookStore is a mock implementation of storage.WebhookStore.
type MockWebhookStore struct {
	mock.Mock
}

//nolint:revive
func (m *MockWebhookStore) Create(ctx context.Context, w *storage.Webhook) error {
	args := m.Called(ctx, w)
	return args.Error(0)
}

//nolint:revive
func (m *MockWebhookStore) Get(ctx context.Context, id string) (*storage.Webhook, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Webhook), args.Error(1)
}

//nolint:revive
func (m *MockWebhookStore) ListByUser(ctx context.Context, userID string) ([]*storage.Webhook, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*storage.Webhook), args.Error(1)
}

//nolint:revive
func (m *MockWebhookStore) FindActiveByEvent(ctx context.Context, eventType string) ([]*storage.Webhook, error) {
	args := m.Called(ctx, eventType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*storage.Webhook), args.Error(1)
}

//nolint:revive
func (m *MockWebhookStore) SetActive(ctx context.Context, id string, active bool) (*storage.Webhook, error) {
	args := m.Called(ctx, id, active)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Webhook), args.Error(1)
}

//nolint:revive
func (m *MockWebhookStore) RecordFailure(ctx context.Context, id string, threshold int) (*storage.Webhook, error) {
	args := m.Called(ctx, id, threshold)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Webhook), args.Error(1)
}

//nolint:revive
func (m *MockWebhookStore) ResetFailures(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

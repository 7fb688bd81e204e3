package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/fileops/notifyd/internal/storage"
	"github.com/fileops/notifyd/internal/webhook"
)

// MockWebhookService is a mock implementation of service.WebhookService.
type MockWebhookService struct {
	mock.Mock
}

//nolint:revive
func (m *MockWebhookService) Get(ctx context.Context, id string) (*storage.Webhook, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Webhook), args.Error(1)
}

//nolint:revive
func (m *MockWebhookService) ListByUser(ctx context.Context, userID string) ([]*storage.Webhook, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*storage.Webhook), args.Error(1)
}

//nolint:revive
func (m *MockWebhookService) Test(ctx context.Context, id string) (webhook.Result, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(webhook.Result), args.Error(1)
}

//nolint:revive
func (m *MockWebhookService) SetActive(ctx context.Context, id string, active bool, actor string) (*storage.Webhook, error) {
	args := m.Called(ctx, id, active, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Webhook), args.Error(1)
}

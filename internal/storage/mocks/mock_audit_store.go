package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/fileops/notifyd/internal/storage"
)

// MockAuditStore is a mock implementation of storage.AuditStore.
type MockAuditStore struct {
	mock.Mock
}

//nolint:revive
func (m *MockAuditStore) Log(ctx context.Context, entry storage.AuditLogEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

//nolint:revive
func (m *MockAuditStore) List(ctx context.Context, limit int) ([]storage.AuditLogEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.AuditLogEntry), args.Error(1)
}

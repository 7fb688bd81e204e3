package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fileops/notifyd/internal/storage"
	"github.com/fileops/notifyd/internal/webhook"
)

// WebhookTester sends a connectivity test to a webhook.
type WebhookTester interface {
	Test(ctx context.Context, w *storage.Webhook) webhook.Result
}

// WebhookService exposes the webhook operations owned by the delivery core:
// inspection, test deliveries and activation.
type WebhookService interface {
	// Get returns a webhook by id.
	Get(ctx context.Context, id string) (*storage.Webhook, error)
	// ListByUser returns the webhooks owned by a user.
	ListByUser(ctx context.Context, userID string) ([]*storage.Webhook, error)
	// Test sends a synthetic test notification to the webhook.
	Test(ctx context.Context, id string) (webhook.Result, error)
	// SetActive activates or deactivates the webhook.
	SetActive(ctx context.Context, id string, active bool, actor string) (*storage.Webhook, error)
}

type webhookServiceImpl struct {
	store  storage.WebhookStore
	tester WebhookTester
	audit  storage.AuditStore
}

// NewWebhookService creates a new WebhookService.
func NewWebhookService(store storage.WebhookStore, tester WebhookTester, audit storage.AuditStore) WebhookService {
	return &webhookServiceImpl{store: store, tester: tester, audit: audit}
}

func (s *webhookServiceImpl) Get(ctx context.Context, id string) (*storage.Webhook, error) {
	w, err := s.store.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, &NotFoundError{Resource: "webhook", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("loading webhook %q: %w", id, err)
	}
	return w, nil
}

func (s *webhookServiceImpl) ListByUser(ctx context.Context, userID string) ([]*storage.Webhook, error) {
	if userID == "" {
		return nil, &ValidationError{Message: "userId is required"}
	}
	hooks, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing webhooks for %q: %w", userID, err)
	}
	return hooks, nil
}

func (s *webhookServiceImpl) Test(ctx context.Context, id string) (webhook.Result, error) {
	w, err := s.Get(ctx, id)
	if err != nil {
		return webhook.Result{}, err
	}
	return s.tester.Test(ctx, w), nil
}

// SetActive changes the webhook's active flag and records who did it.
// Activation starts the failure count over.
func (s *webhookServiceImpl) SetActive(ctx context.Context, id string, active bool, actor string) (*storage.Webhook, error) {
	w, err := s.store.SetActive(ctx, id, active)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, &NotFoundError{Resource: "webhook", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("updating webhook %q: %w", id, err)
	}

	action := "webhook.deactivate"
	if active {
		action = "webhook.activate"
	}
	if actor == "" {
		actor = "api"
	}
	if err := s.audit.Log(ctx, storage.AuditLogEntry{
		ID:        uuid.NewString(),
		Actor:     actor,
		Action:    action,
		SubjectID: id,
		Outcome:   storage.AuditOutcomeSuccess,
		Timestamp: time.Now(),
	}); err != nil {
		return nil, fmt.Errorf("auditing %s for %q: %w", action, id, err)
	}
	return w, nil
}

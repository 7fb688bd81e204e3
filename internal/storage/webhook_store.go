package storage

import (
	"context"
	"slices"
	"time"
)

// Webhook is a user-registered endpoint that receives signed event payloads
// for the notification types listed in Events.
type Webhook struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	URL          string    `json:"url"`
	Secret       string    `json:"-"`
	Events       []string  `json:"events"`
	Active       bool      `json:"active"`
	FailureCount int       `json:"failureCount"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// SubscribedTo reports whether the webhook listens for eventType.
func (w *Webhook) SubscribedTo(eventType string) bool {
	return slices.Contains(w.Events, eventType)
}

// WebhookStore persists webhook subscriptions. Failure accounting methods
// apply their change atomically against the stored row so concurrent
// deliveries to the same webhook never lose an update.
type WebhookStore interface {
	// Create inserts a new webhook.
	Create(ctx context.Context, w *Webhook) error
	// Get returns the webhook with the given id or ErrNotFound.
	Get(ctx context.Context, id string) (*Webhook, error)
	// ListByUser returns every webhook owned by userID.
	ListByUser(ctx context.Context, userID string) ([]*Webhook, error)
	// FindActiveByEvent returns active webhooks subscribed to eventType.
	FindActiveByEvent(ctx context.Context, eventType string) ([]*Webhook, error)
	// SetActive activates or deactivates a webhook and returns the updated
	// row. Activating also resets failure_count to zero.
	SetActive(ctx context.Context, id string, active bool) (*Webhook, error)
	// RecordFailure increments failure_count by one and deactivates the
	// webhook once the count reaches threshold (threshold <= 0 disables
	// deactivation). It returns the updated row.
	RecordFailure(ctx context.Context, id string, threshold int) (*Webhook, error)
	// ResetFailures sets failure_count to zero when it is non-zero.
	ResetFailures(ctx context.Context, id string) error
}

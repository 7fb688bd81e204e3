package storage

import (
	"context"
	"time"
)

// DeliveryStatus is the state of a delivery record.
type DeliveryStatus string

// A delivery starts pending and moves once to delivered or failed. A record
// still pending long after creation was interrupted mid-flight.
const (
	DeliveryPending   DeliveryStatus = "pending"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryFailed    DeliveryStatus = "failed"
)

// Delivery tracks the attempts to deliver one notification over one channel
// (for webhooks, to one webhook).
type Delivery struct {
	ID             string         `json:"id"`
	NotificationID string         `json:"notificationId"`
	WebhookID      string         `json:"webhookId,omitempty"`
	Channel        string         `json:"channel"`
	Status         DeliveryStatus `json:"status"`
	Attempts       int            `json:"attempts"`
	StatusCode     int            `json:"statusCode,omitempty"`
	Error          string         `json:"error,omitempty"`
	DeliveredAt    *time.Time     `json:"deliveredAt,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// DeliveryUpdate is a partial update; nil fields are left unchanged.
type DeliveryUpdate struct {
	Status      *DeliveryStatus
	Attempts    *int
	StatusCode  *int
	Error       *string
	DeliveredAt *time.Time
}

// DeliveryStore persists delivery records.
type DeliveryStore interface {
	// Create inserts a delivery record.
	Create(ctx context.Context, d *Delivery) error
	// Update applies a partial update and returns the updated record.
	Update(ctx context.Context, id string, u DeliveryUpdate) (*Delivery, error)
	// Get returns the delivery with the given id or ErrNotFound.
	Get(ctx context.Context, id string) (*Delivery, error)
	// ListByNotification returns every delivery for a notification, oldest first.
	ListByNotification(ctx context.Context, notificationID string) ([]*Delivery, error)
	// ListStalePending returns deliveries still pending that were created before cutoff.
	ListStalePending(ctx context.Context, cutoff time.Time) ([]*Delivery, error)
}

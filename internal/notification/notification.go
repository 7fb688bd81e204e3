package notification

import (
	"errors"
	"slices"
	"time"
)

// Type identifies the kind of domain event a notification describes.
type Type string

// Built-in notification types. TypeTest is reserved for webhook connectivity
// test deliveries and never produced by the domain layer.
const (
	TypeFileUploaded     Type = "file_uploaded"
	TypeFileProcessed    Type = "file_processed"
	TypeProcessingFailed Type = "processing_failed"
	TypeFileShared       Type = "file_shared"
	TypeSystemAlert      Type = "system_alert"
	TypeTest             Type = "test"
)

// Priority is the urgency of a notification.
type Priority string

// Notification priorities.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Channel is a delivery channel.
type Channel string

// Delivery channels.
const (
	ChannelInApp   Channel = "in_app"
	ChannelEmail   Channel = "email"
	ChannelWebhook Channel = "webhook"
)

// Notification is a domain event addressed to one user. It is immutable once
// created except for Read; the delivery core only reads it.
type Notification struct {
	ID        string         `json:"id"`
	UserID    string         `json:"userId"`
	TenantID  string         `json:"tenantId,omitempty"`
	Type      Type           `json:"type"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Priority  Priority       `json:"priority"`
	Channels  []Channel      `json:"channels"`
	Read      bool           `json:"read"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	Data      map[string]any `json:"data,omitempty"`
}

// HasChannel reports whether the notification targets c.
func (n *Notification) HasChannel(c Channel) bool {
	return slices.Contains(n.Channels, c)
}

// Validate checks the fields the delivery core depends on.
func (n *Notification) Validate() error {
	var errs []error
	if n.ID == "" {
		errs = append(errs, errors.New("id is required"))
	}
	if n.UserID == "" {
		errs = append(errs, errors.New("userId is required"))
	}
	if n.Type == "" {
		errs = append(errs, errors.New("type is required"))
	}
	switch n.Priority {
	case "", PriorityLow, PriorityMedium, PriorityHigh:
	default:
		errs = append(errs, errors.New("priority must be low, medium or high"))
	}
	return errors.Join(errs...)
}

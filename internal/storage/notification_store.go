package storage

import (
	"context"
	"time"
)

// Channel log statuses.
const (
	LogStatusSent   = "sent"
	LogStatusFailed = "failed"
)

// NotificationLogEntry records a single in-app or email channel send.
type NotificationLogEntry struct {
	ID             int64     `json:"id"`
	NotificationID string    `json:"notification_id"`
	EventType      string    `json:"event_type"`
	Channel        string    `json:"channel"`
	Recipient      string    `json:"recipient"`
	Subject        string    `json:"subject"`
	Status         string    `json:"status"`
	ErrorMsg       string    `json:"error_msg"`
	CreatedAt      time.Time `json:"created_at"`
}

// NotificationStore defines the interface for persisting channel send logs.
type NotificationStore interface {
	// LogNotification records a channel send.
	LogNotification(ctx context.Context, entry NotificationLogEntry) error
	// ListNotifications returns the most recent log entries, up to limit.
	ListNotifications(ctx context.Context, limit int) ([]NotificationLogEntry, error)
}

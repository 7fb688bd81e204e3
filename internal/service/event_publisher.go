package service

import "github.com/fileops/notifyd/internal/notification"

// EventPublisher is the interface for handing notifications to the delivery
// pipeline. Services use this interface to emit events without depending on
// a concrete event bus implementation.
type EventPublisher interface {
	Publish(n *notification.Notification) error
}

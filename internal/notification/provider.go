// Package notification defines the notification entity and delivers the
// in-app and email channels. Webhook fan-out lives in package webhook.
package notification

import "context"

// Message is the content to be delivered by a Provider.
type Message struct {
	Subject  string
	Body     string
	HTMLBody string
	To       []string
}

// Provider is the interface for notification delivery backends.
type Provider interface {
	// Name returns the provider identifier (e.g. "smtp").
	Name() string
	// Send delivers the message using the provider's transport.
	Send(ctx context.Context, msg Message) error
}

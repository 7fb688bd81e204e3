package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/fileops/notifyd/internal/eventbus"
	"github.com/fileops/notifyd/internal/notification"
	"github.com/fileops/notifyd/internal/webhook"
)

// ChannelHandler delivers the in-app and email channels of a notification.
type ChannelHandler interface {
	Handle(ctx context.Context, n *notification.Notification)
}

// WebhookFanOut delivers a notification to its webhook subscribers.
type WebhookFanOut interface {
	DeliverAll(ctx context.Context, n *notification.Notification) (map[string]webhook.Result, error)
}

// NewDeliveryListener returns an event bus listener that runs channel
// delivery and webhook fan-out for each notification concurrently. Webhooks
// are only contacted for notifications that list the webhook channel. ctx
// is the process lifetime; cancelling it aborts in-flight deliveries.
func NewDeliveryListener(ctx context.Context, channels ChannelHandler, hooks WebhookFanOut, logger *slog.Logger) eventbus.Listener {
	return func(e eventbus.Event) {
		n := e.Notification
		if n == nil {
			return
		}

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer recoverDelivery(logger, n, "channels")
			channels.Handle(ctx, n)
		}()

		if n.HasChannel(notification.ChannelWebhook) {
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer recoverDelivery(logger, n, "webhooks")
				results, err := hooks.DeliverAll(ctx, n)
				if err != nil {
					logger.Error("webhook fan-out failed", "notification_id", n.ID, "error", err)
					return
				}
				failed := 0
				for _, r := range results {
					if !r.Success {
						failed++
					}
				}
				logger.Debug("webhook fan-out results",
					"notification_id", n.ID, "webhooks", len(results), "failed", failed)
			}()
		}

		wg.Wait()
	}
}

func recoverDelivery(logger *slog.Logger, n *notification.Notification, stage string) {
	if r := recover(); r != nil {
		logger.Error("notification delivery panicked",
			"notification_id", n.ID, "stage", stage, "panic", r)
	}
}

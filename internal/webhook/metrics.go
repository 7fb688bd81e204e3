package webhook

import (
	"context"
	"time"
)

// Operation names reported to a MetricsRecorder.
const (
	OperationDeliver = "webhook.deliver"
	OperationTest    = "webhook.test"
)

// MetricsRecorder observes every physical delivery attempt. It must not block
// and is never required for correctness.
type MetricsRecorder interface {
	RecordDelivery(ctx context.Context, operation string, success bool, duration time.Duration)
}

// NopMetrics discards all observations.
type NopMetrics struct{}

// RecordDelivery implements MetricsRecorder.
func (NopMetrics) RecordDelivery(context.Context, string, bool, time.Duration) {}

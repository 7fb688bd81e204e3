// Package telemetry wires OpenTelemetry metrics (exported in Prometheus
// format) and optional OTLP tracing.
package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const meterName = "github.com/fileops/notifyd"

// Metrics records delivery metrics and serves them at /metrics.
type Metrics struct {
	registry *prometheus.Registry
	provider *sdkmetric.MeterProvider

	attempts     metric.Int64Counter
	duration     metric.Float64Histogram
	stalePending atomic.Int64
}

// NewMetrics creates a meter provider backed by a private Prometheus registry
// that also carries the Go runtime and process collectors.
func NewMetrics() (*Metrics, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	exporter, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	meter := provider.Meter(meterName)

	m := &Metrics{registry: reg, provider: provider}

	m.attempts, err = meter.Int64Counter("notifyd.webhook.attempts",
		metric.WithDescription("Webhook HTTP attempts by operation and outcome."))
	if err != nil {
		return nil, fmt.Errorf("creating attempts counter: %w", err)
	}
	m.duration, err = meter.Float64Histogram("notifyd.webhook.attempt.duration",
		metric.WithDescription("Duration of webhook HTTP attempts."),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}
	_, err = meter.Int64ObservableGauge("notifyd.deliveries.stale_pending",
		metric.WithDescription("Deliveries left pending past the staleness window."),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(m.stalePending.Load())
			return nil
		}))
	if err != nil {
		return nil, fmt.Errorf("creating stale pending gauge: %w", err)
	}

	return m, nil
}

// RecordDelivery counts one webhook attempt and its duration.
func (m *Metrics) RecordDelivery(ctx context.Context, operation string, success bool, d time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.Bool("success", success),
	)
	m.attempts.Add(ctx, 1, attrs)
	m.duration.Record(ctx, d.Seconds(), attrs)
}

// SetStalePending publishes the number of stale pending deliveries.
func (m *Metrics) SetStalePending(n int) {
	m.stalePending.Store(int64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Shutdown flushes and stops the meter provider.
func (m *Metrics) Shutdown(ctx context.Context) error {
	return m.provider.Shutdown(ctx)
}

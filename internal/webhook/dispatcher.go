package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/fileops/notifyd/internal/notification"
	"github.com/fileops/notifyd/internal/signature"
	"github.com/fileops/notifyd/internal/storage"
)

// Request headers set on every webhook POST.
const (
	HeaderWebhookID = "X-Webhook-Id"
	HeaderEventType = "X-Event-Type"
)

const (
	maxResponseDrain = 4 << 10
	systemActor      = "system"
)

var errRetryable = errors.New("retryable delivery failure")

// Config tunes delivery. Zero values are replaced by DefaultConfig's.
type Config struct {
	// RequestTimeout bounds a single HTTP attempt.
	RequestTimeout time.Duration
	// FanOutTimeout bounds a whole DeliverAll call.
	FanOutTimeout time.Duration
	// MaxConcurrency caps simultaneous deliveries within one DeliverAll call.
	MaxConcurrency int
	// FailureThreshold is the failure count at which a webhook is
	// deactivated. Negative disables deactivation.
	FailureThreshold int
	// MaxAttempts is the number of HTTP attempts per delivery.
	MaxAttempts int
	// RetryDelay is the initial backoff between attempts.
	RetryDelay time.Duration
}

// DefaultConfig returns the default delivery settings.
func DefaultConfig() Config {
	return Config{
		RequestTimeout:   10 * time.Second,
		FanOutTimeout:    60 * time.Second,
		MaxConcurrency:   8,
		FailureThreshold: 10,
		MaxAttempts:      1,
		RetryDelay:       500 * time.Millisecond,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = def.RequestTimeout
	}
	if c.FanOutTimeout <= 0 {
		c.FanOutTimeout = def.FanOutTimeout
	}
	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = def.MaxConcurrency
	}
	if c.FailureThreshold == 0 {
		c.FailureThreshold = def.FailureThreshold
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = def.MaxAttempts
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = def.RetryDelay
	}
	return c
}

// Result is the outcome of one delivery. StatusCode is zero when no HTTP
// response was received.
type Result struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"statusCode,omitempty"`
	Error      string `json:"error,omitempty"`
}

func (r Result) retryable() bool {
	if r.Success {
		return false
	}
	if r.StatusCode == 0 {
		return true
	}
	return r.StatusCode == http.StatusTooManyRequests || r.StatusCode >= 500
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithHTTPClient sets the client used for webhook requests.
func WithHTTPClient(c *http.Client) Option {
	return func(d *Dispatcher) { d.client = c }
}

// WithMetrics sets the recorder notified of every attempt.
func WithMetrics(m MetricsRecorder) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// WithLogger sets the dispatcher logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// Dispatcher delivers notifications to webhook subscribers and keeps the
// delivery, failure accounting and audit records for each attempt.
type Dispatcher struct {
	cfg        Config
	webhooks   storage.WebhookStore
	deliveries storage.DeliveryStore
	audit      storage.AuditStore

	client  *http.Client
	metrics MetricsRecorder
	logger  *slog.Logger
	now     func() time.Time
	tracer  trace.Tracer

	inflight singleflight.Group
}

// NewDispatcher creates a Dispatcher backed by the given stores.
func NewDispatcher(cfg Config, webhooks storage.WebhookStore, deliveries storage.DeliveryStore, audit storage.AuditStore, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		cfg:        cfg.withDefaults(),
		webhooks:   webhooks,
		deliveries: deliveries,
		audit:      audit,
		client:     &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		metrics:    NopMetrics{},
		logger:     slog.Default(),
		now:        time.Now,
		tracer:     otel.Tracer("github.com/fileops/notifyd/internal/webhook"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Config returns the effective configuration.
func (d *Dispatcher) Config() Config { return d.cfg }

// DeliverAll delivers n to every active webhook subscribed to its type and
// owned by its user. Deliveries run concurrently, at most MaxConcurrency at a
// time, under a shared FanOutTimeout deadline. The returned map has one entry
// per matched webhook. An error is returned only when the subscriptions
// cannot be looked up.
func (d *Dispatcher) DeliverAll(ctx context.Context, n *notification.Notification) (map[string]Result, error) {
	hooks, err := d.webhooks.FindActiveByEvent(ctx, string(n.Type))
	if err != nil {
		return nil, fmt.Errorf("finding webhooks for %q: %w", n.Type, err)
	}

	targets := make([]*storage.Webhook, 0, len(hooks))
	for _, w := range hooks {
		if w != nil && w.UserID == n.UserID && w.SubscribedTo(string(n.Type)) {
			targets = append(targets, w)
		}
	}
	results := make(map[string]Result, len(targets))
	if len(targets) == 0 {
		return results, nil
	}

	ctx, span := d.tracer.Start(ctx, "webhook.DeliverAll", trace.WithAttributes(
		attribute.String("notification.id", n.ID),
		attribute.String("notification.type", string(n.Type)),
		attribute.Int("webhook.count", len(targets)),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, d.cfg.FanOutTimeout)
	defer cancel()

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(d.cfg.MaxConcurrency)
	for _, w := range targets {
		g.Go(func() error {
			res := d.safeDeliver(ctx, w, n)
			mu.Lock()
			results[w.ID] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	d.logger.Info("webhook fan-out completed",
		"notification_id", n.ID, "type", n.Type, "webhooks", len(results))
	return results, nil
}

func (d *Dispatcher) safeDeliver(ctx context.Context, w *storage.Webhook, n *notification.Notification) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("webhook delivery panicked",
				"webhook_id", w.ID, "notification_id", n.ID, "panic", r)
			res = Result{Error: fmt.Sprintf("internal error: %v", r)}
		}
	}()
	return d.Deliver(ctx, w, n)
}

// Deliver sends n to w. A pending Delivery record is written first and then
// moved to delivered or failed; the webhook's failure count is reset on
// success or incremented on failure, and one audit entry is written either
// way. Delivery failures are reported in the Result, never as a panic or
// error. If ctx ends before the subscriber answers, the record stays pending
// and the failure count is left alone.
//
// Concurrent calls for the same webhook and notification share one delivery,
// which runs under the ctx of the call that started it: a later caller with a
// longer deadline still sees the first caller's cancellation.
func (d *Dispatcher) Deliver(ctx context.Context, w *storage.Webhook, n *notification.Notification) Result {
	key := w.ID + "\x00" + n.ID
	v, _, _ := d.inflight.Do(key, func() (any, error) {
		return d.deliver(ctx, w, n), nil
	})
	return v.(Result)
}

func (d *Dispatcher) deliver(ctx context.Context, w *storage.Webhook, n *notification.Notification) Result {
	ctx, span := d.tracer.Start(ctx, "webhook.Deliver", trace.WithAttributes(
		attribute.String("webhook.id", w.ID),
		attribute.String("notification.id", n.ID),
	))
	defer span.End()

	// Bookkeeping must land even when the caller gives up mid-request.
	bctx := context.WithoutCancel(ctx)

	delivery := &storage.Delivery{
		ID:             uuid.NewString(),
		NotificationID: n.ID,
		WebhookID:      w.ID,
		Channel:        string(notification.ChannelWebhook),
		Status:         storage.DeliveryPending,
		CreatedAt:      d.now(),
	}
	recorded := true
	if err := d.deliveries.Create(bctx, delivery); err != nil {
		recorded = false
		d.logger.Error("failed to record pending delivery",
			"webhook_id", w.ID, "notification_id", n.ID, "error", err)
	}

	var (
		res      Result
		attempts int
		settled  = true
	)
	if err := validateWebhook(w); err != nil {
		res = Result{Error: err.Error()}
	} else {
		res, attempts, settled = d.send(ctx, w, n, OperationDeliver, d.cfg.MaxAttempts)
	}

	if res.Success {
		span.SetStatus(codes.Ok, "")
	} else {
		span.SetStatus(codes.Error, res.Error)
	}
	span.SetAttributes(attribute.Int("http.status_code", res.StatusCode), attribute.Int("webhook.attempts", attempts))

	if !settled {
		// Cancelled before the subscriber gave an answer: the record stays
		// pending and the webhook is not charged.
		d.logger.Warn("webhook delivery interrupted",
			"webhook_id", w.ID, "notification_id", n.ID, "attempts", attempts, "error", res.Error)
		if recorded {
			d.interruptDelivery(bctx, delivery.ID, res, attempts)
		}
		d.writeAudit(bctx, w, n, delivery.ID, res, attempts)
		return res
	}

	if recorded {
		d.finishDelivery(bctx, delivery.ID, res, attempts)
	}
	d.account(bctx, w, res)
	d.writeAudit(bctx, w, n, delivery.ID, res, attempts)
	return res
}

// Test sends a synthetic "test" notification to w through the same signing
// and HTTP path as Deliver. It writes no delivery or audit records and leaves
// failure accounting untouched. Only one attempt is made.
func (d *Dispatcher) Test(ctx context.Context, w *storage.Webhook) Result {
	ctx, span := d.tracer.Start(ctx, "webhook.Test", trace.WithAttributes(
		attribute.String("webhook.id", w.ID),
	))
	defer span.End()

	if err := validateWebhook(w); err != nil {
		return Result{Error: err.Error()}
	}

	now := d.now()
	sample := &notification.Notification{
		ID:        "test-" + uuid.NewString(),
		UserID:    w.UserID,
		Type:      notification.TypeTest,
		Title:     "Test notification",
		Message:   "This is a test delivery from FileOps.",
		Priority:  notification.PriorityLow,
		Channels:  []notification.Channel{notification.ChannelWebhook},
		CreatedAt: now,
		UpdatedAt: now,
		Data:      map[string]any{"test": true},
	}

	ctx, cancel := context.WithTimeout(ctx, d.cfg.RequestTimeout)
	defer cancel()

	res, _, _ := d.send(ctx, w, sample, OperationTest, 1)
	d.logger.Info("webhook test completed",
		"webhook_id", w.ID, "success", res.Success, "status_code", res.StatusCode)
	return res
}

// send performs up to maxAttempts HTTP attempts, retrying transport errors,
// 429 and 5xx responses. It returns the outcome, the number of attempts made
// and whether the outcome is settled. An outcome is unsettled when ctx ended
// before any attempt got an answer from the subscriber: no attempt was made,
// or every attempt was cut off by ctx rather than by the request timeout.
// A settled failure after an interrupted retry is still reported.
func (d *Dispatcher) send(ctx context.Context, w *storage.Webhook, n *notification.Notification, op string, maxAttempts int) (Result, int, bool) {
	var (
		last     Result
		final    Result
		answered bool
		attempts int
	)
	if err := ctx.Err(); err != nil {
		return Result{Error: err.Error()}, 0, false
	}

	r := retry.New[Result](retry.Config{
		MaxAttempts:   maxAttempts,
		InitialDelay:  d.cfg.RetryDelay,
		BackoffPolicy: retry.BackoffExponential,
	})
	_, _ = r.Do(ctx, func(actx context.Context) (Result, error) {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		attempts++
		last = d.attempt(actx, w, n, op)
		if last.StatusCode != 0 || last.Success || ctx.Err() == nil {
			final, answered = last, true
		}
		if last.retryable() {
			return last, errRetryable
		}
		return last, nil
	})

	if answered {
		return final, attempts, true
	}
	if attempts == 0 || last.Error == "" {
		msg := "delivery cancelled"
		if err := ctx.Err(); err != nil {
			msg = err.Error()
		}
		last = Result{Error: msg}
	}
	return last, attempts, false
}

func (d *Dispatcher) attempt(ctx context.Context, w *storage.Webhook, n *notification.Notification, op string) (res Result) {
	start := d.now()
	defer func() {
		d.metrics.RecordDelivery(ctx, op, res.Success, d.now().Sub(start))
	}()

	body, err := BuildPayload(uuid.NewString(), n, start).Encode()
	if err != nil {
		return Result{Error: err.Error()}
	}

	reqCtx, cancel := context.WithTimeout(ctx, d.cfg.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return Result{Error: fmt.Sprintf("invalid webhook url: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(signature.Header, signature.Sign(body, w.Secret))
	req.Header.Set(HeaderWebhookID, w.ID)
	req.Header.Set(HeaderEventType, string(n.Type))

	resp, err := d.client.Do(req)
	if err != nil {
		return Result{Error: transportError(err)}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseDrain))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return Result{Success: true, StatusCode: resp.StatusCode}
	}
	return Result{StatusCode: resp.StatusCode, Error: "HTTP " + strconv.Itoa(resp.StatusCode)}
}

func (d *Dispatcher) finishDelivery(ctx context.Context, id string, res Result, attempts int) {
	status := storage.DeliveryFailed
	u := storage.DeliveryUpdate{
		Status:   &status,
		Attempts: &attempts,
	}
	if res.StatusCode != 0 {
		u.StatusCode = &res.StatusCode
	}
	if res.Success {
		status = storage.DeliveryDelivered
		at := d.now()
		u.DeliveredAt = &at
	} else {
		u.Error = &res.Error
	}
	if _, err := d.deliveries.Update(ctx, id, u); err != nil {
		d.logger.Error("failed to update delivery", "delivery_id", id, "error", err)
	}
}

// interruptDelivery records the attempts and the cancellation cause but leaves
// the delivery pending for reconciliation.
func (d *Dispatcher) interruptDelivery(ctx context.Context, id string, res Result, attempts int) {
	u := storage.DeliveryUpdate{
		Attempts: &attempts,
		Error:    &res.Error,
	}
	if _, err := d.deliveries.Update(ctx, id, u); err != nil {
		d.logger.Error("failed to update delivery", "delivery_id", id, "error", err)
	}
}

func (d *Dispatcher) account(ctx context.Context, w *storage.Webhook, res Result) {
	if w.ID == "" {
		return
	}
	if res.Success {
		if err := d.webhooks.ResetFailures(ctx, w.ID); err != nil {
			d.logger.Error("failed to reset webhook failures", "webhook_id", w.ID, "error", err)
		}
		return
	}

	updated, err := d.webhooks.RecordFailure(ctx, w.ID, d.cfg.FailureThreshold)
	if err != nil {
		d.logger.Error("failed to record webhook failure", "webhook_id", w.ID, "error", err)
		return
	}
	if w.Active && !updated.Active {
		d.logger.Warn("webhook deactivated after repeated failures",
			"webhook_id", w.ID, "failure_count", updated.FailureCount)
		d.logAudit(ctx, storage.AuditLogEntry{
			Action:    "webhook.deactivate",
			SubjectID: w.ID,
			Outcome:   storage.AuditOutcomeSuccess,
			Details:   fmt.Sprintf(`{"failureCount":%d}`, updated.FailureCount),
		})
	}
}

func (d *Dispatcher) writeAudit(ctx context.Context, w *storage.Webhook, n *notification.Notification, deliveryID string, res Result, attempts int) {
	details, _ := json.Marshal(map[string]any{
		"deliveryId":     deliveryID,
		"notificationId": n.ID,
		"statusCode":     res.StatusCode,
		"attempts":       attempts,
		"error":          res.Error,
	})
	outcome := storage.AuditOutcomeFailure
	if res.Success {
		outcome = storage.AuditOutcomeSuccess
	}
	d.logAudit(ctx, storage.AuditLogEntry{
		Action:    OperationDeliver,
		SubjectID: w.ID,
		Outcome:   outcome,
		Details:   string(details),
	})
}

func (d *Dispatcher) logAudit(ctx context.Context, entry storage.AuditLogEntry) {
	entry.ID = uuid.NewString()
	entry.Actor = systemActor
	entry.Timestamp = d.now()
	if err := d.audit.Log(ctx, entry); err != nil {
		d.logger.Error("failed to write audit entry",
			"action", entry.Action, "subject_id", entry.SubjectID, "error", err)
	}
}

func validateWebhook(w *storage.Webhook) error {
	switch {
	case w.URL == "":
		return errors.New("webhook url is not configured")
	case w.Secret == "":
		return errors.New("webhook secret is not configured")
	}
	u, err := url.Parse(w.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("webhook url %q is not a valid http(s) url", w.URL)
	}
	return nil
}

// transportError strips the method and URL that net/http adds so the
// recorded message is the underlying cause.
func transportError(err error) string {
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Err != nil {
		return uerr.Err.Error()
	}
	return err.Error()
}

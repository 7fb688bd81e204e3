// Package scheduler runs periodic maintenance jobs. Its only job reports
// deliveries that were left pending past a staleness window, which happens
// when the process stops mid-delivery. Reconciling them is left to operators.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/fileops/notifyd/internal/storage"
)

const (
	defaultInterval   = time.Minute
	defaultStaleAfter = 5 * time.Minute
	checkTimeout      = 30 * time.Second
	sampleSize        = 10
)

// Gauge receives the number of stale pending deliveries after each check.
type Gauge interface {
	SetStalePending(n int)
}

// Config holds the scheduler configuration.
type Config struct {
	Deliveries storage.DeliveryStore
	Logger     *slog.Logger
	// Gauge is optional.
	Gauge Gauge
	// StaleAfter is how long a delivery may stay pending. Defaults to 5m.
	StaleAfter time.Duration
	// Interval between checks. Defaults to 1m.
	Interval time.Duration
}

// Scheduler runs the stale delivery check using gocron.
type Scheduler struct {
	cron   gocron.Scheduler
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

// New creates a new Scheduler.
func New(cfg Config) (*Scheduler, error) {
	cron, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("creating gocron scheduler: %w", err)
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = defaultStaleAfter
	}
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		cron:   cron,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Start schedules the stale delivery check and starts the gocron scheduler.
// The first check runs immediately.
func (s *Scheduler) Start() error {
	_, err := s.cron.NewJob(
		gocron.DurationJob(s.cfg.Interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
			defer cancel()
			if _, err := s.checkStale(ctx); err != nil {
				s.logger.Error("stale delivery check failed", "error", err)
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("scheduling stale delivery check: %w", err)
	}

	s.cron.Start()
	s.logger.Info("delivery monitor started",
		"interval", s.cfg.Interval, "stale_after", s.cfg.StaleAfter)
	return nil
}

// Stop shuts down the gocron scheduler.
func (s *Scheduler) Stop() error {
	return s.cron.Shutdown()
}

// checkStale counts pending deliveries older than StaleAfter, publishes the
// count and logs a sample of them.
func (s *Scheduler) checkStale(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.cfg.StaleAfter)
	stale, err := s.cfg.Deliveries.ListStalePending(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("listing stale deliveries: %w", err)
	}

	if s.cfg.Gauge != nil {
		s.cfg.Gauge.SetStalePending(len(stale))
	}
	if len(stale) == 0 {
		return 0, nil
	}

	ids := make([]string, 0, sampleSize)
	for _, d := range stale {
		if len(ids) == sampleSize {
			break
		}
		ids = append(ids, d.ID)
	}
	s.logger.Warn("deliveries left pending past staleness window",
		"count", len(stale), "cutoff", cutoff, "sample_ids", ids)
	return len(stale), nil
}

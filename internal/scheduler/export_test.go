package scheduler

import (
	"context"
	"time"
)

// ExportedCheckStale exposes the private checkStale method for external tests.
func (s *Scheduler) ExportedCheckStale(ctx context.Context) (int, error) {
	return s.checkStale(ctx)
}

// SetClock overrides the scheduler's time source.
func (s *Scheduler) SetClock(now func() time.Time) {
	s.now = now
}

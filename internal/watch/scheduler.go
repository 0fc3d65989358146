package watch

import (
	"context"
	"time"
)

// IntervalScheduler triggers a periodic checkpoint regardless of file
// changes, so a quiet system still gets a fresh restore point.
type IntervalScheduler struct {
	interval time.Duration
	trigger  Trigger
}

// NewIntervalScheduler creates a scheduler firing every interval.
// A zero interval disables it; Run returns immediately.
func NewIntervalScheduler(interval time.Duration, trigger Trigger) *IntervalScheduler {
	return &IntervalScheduler{interval: interval, trigger: trigger}
}

// Run fires the trigger on each tick. Blocks until ctx is cancelled.
func (s *IntervalScheduler) Run(ctx context.Context) error {
	if s.interval <= 0 {
		return nil
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.trigger(nil)
		}
	}
}

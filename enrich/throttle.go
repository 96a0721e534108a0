package enrich

import (
	"context"
	"sync"
	"time"
)

// Throttle spaces consecutive calls at least interval apart, measured from
// the end of the previous call. The zero interval disables it.
type Throttle struct {
	interval time.Duration

	mu   sync.Mutex
	last time.Time

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// NewThrottle returns a throttle with no call recorded yet.
func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{
		interval: interval,
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// Wait blocks until interval has passed since the last Mark.
func (t *Throttle) Wait(ctx context.Context) error {
	t.mu.Lock()
	last := t.last
	t.mu.Unlock()

	if t.interval <= 0 || last.IsZero() {
		return nil
	}
	remaining := t.interval - t.now().Sub(last)
	if remaining <= 0 {
		return nil
	}
	return t.sleep(ctx, remaining)
}

// Mark records the end of a call.
func (t *Throttle) Mark() {
	t.mu.Lock()
	t.last = t.now()
	t.mu.Unlock()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

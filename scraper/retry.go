package scraper

import (
	"context"
	"time"

	"github.com/aluiziolira/go-enrich-books/config"
	"github.com/aluiziolira/go-enrich-books/metrics"
)

type retryPolicy struct {
	maxRetries int
	base       time.Duration
	max        time.Duration
	metrics    *metrics.Metrics

	// sleep is replaced in tests.
	sleep func(context.Context, time.Duration) error
}

func newRetryPolicy(cfg *config.Config, m *metrics.Metrics) *retryPolicy {
	return &retryPolicy{
		maxRetries: cfg.MaxRetries,
		base:       cfg.RetryBackoff,
		max:        cfg.RetryBackoffMax,
		metrics:    m,
		sleep:      sleepContext,
	}
}

// Allow reports whether retry number attempt may run and counts it.
func (rp *retryPolicy) Allow(attempt int) bool {
	if attempt > rp.maxRetries {
		return false
	}
	rp.metrics.IncRetries()
	return true
}

// backoffCeiling bounds the delay when no maximum is configured.
const backoffCeiling = time.Hour

// backoff doubles the base delay per attempt up to the configured maximum,
// or backoffCeiling when none is set.
func (rp *retryPolicy) backoff(attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}

	base := rp.base
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	limit := rp.max
	if limit <= 0 {
		limit = backoffCeiling
	}

	delay := base
	for i := 1; i < attempt && delay < limit; i++ {
		delay *= 2
	}
	if delay > limit {
		delay = limit
	}
	return delay
}

// Wait blocks for d or until ctx is done.
func (rp *retryPolicy) Wait(ctx context.Context, d time.Duration) error {
	return rp.sleep(ctx, d)
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

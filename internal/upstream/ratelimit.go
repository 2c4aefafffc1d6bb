package upstream

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter spaces consecutive calls to one upstream at least
// one minute / requestsPerMinute apart. Callers block, calls are never dropped.
type RateLimiter struct {
	limiter  *rate.Limiter
	interval time.Duration
}

// NewRateLimiter creates a limiter for requestsPerMinute.
// A non-positive value disables limiting.
func NewRateLimiter(requestsPerMinute int) *RateLimiter {
	if requestsPerMinute <= 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	interval := time.Minute / time.Duration(requestsPerMinute)
	return &RateLimiter{
		// Burst of one: the first call passes, every following call waits a full interval.
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		interval: interval,
	}
}

// Interval returns the minimum spacing between calls (0 when unlimited).
func (r *RateLimiter) Interval() time.Duration {
	return r.interval
}

// Wait blocks until the next call is allowed and returns how long it waited.
func (r *RateLimiter) Wait(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := r.limiter.Wait(ctx); err != nil {
		return time.Since(start), err
	}
	return time.Since(start), nil
}

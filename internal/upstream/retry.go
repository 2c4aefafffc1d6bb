package upstream

import (
	"context"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Default retry configuration values.
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 500 * time.Millisecond
	DefaultMultiplier  = 2.0
	DefaultMaxDelay    = 10 * time.Second
)

// RetryPolicy describes how an upstream call is retried.
// MaxAttempts counts every attempt, including the first one.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
	MaxDelay    time.Duration // 0 means uncapped
}

// DefaultRetryPolicy returns the default policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		Multiplier:  DefaultMultiplier,
		MaxDelay:    DefaultMaxDelay,
	}
}

// Delay returns the wait before retry number attempt (0-based):
// BaseDelay * Multiplier^attempt, capped at MaxDelay.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}
	d := float64(p.BaseDelay) * math.Pow(mult, float64(attempt))
	if p.MaxDelay > 0 && d > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	if d > float64(math.MaxInt64) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(d)
}

// RetryNotify is called before each retry with the failed attempt number (1-based).
type RetryNotify func(err error, attempt int, delay time.Duration)

// Do runs op until it succeeds, returns a permanent error, the context ends
// or MaxAttempts is exhausted. The last error is returned on exhaustion.
func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context) error, notify RetryNotify) error {
	attempt := 0
	b := backoff.WithContext(&policyBackOff{policy: p}, ctx)

	return backoff.RetryNotify(func() error {
		attempt++
		return op(ctx)
	}, b, func(err error, d time.Duration) {
		if notify != nil {
			notify(err, attempt, d)
		}
	})
}

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// policyBackOff adapts RetryPolicy to backoff.BackOff.
type policyBackOff struct {
	policy  RetryPolicy
	attempt int
}

func (b *policyBackOff) NextBackOff() time.Duration {
	if b.attempt >= b.policy.MaxAttempts-1 {
		return backoff.Stop
	}
	d := b.policy.Delay(b.attempt)
	b.attempt++
	return d
}

func (b *policyBackOff) Reset() {
	b.attempt = 0
}

package upstream

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryPolicy_Delay(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 5, BaseDelay: 100 * time.Millisecond, Multiplier: 2, MaxDelay: time.Second}

	assert.Equal(t, 100*time.Millisecond, p.Delay(0))
	assert.Equal(t, 200*time.Millisecond, p.Delay(1))
	assert.Equal(t, 400*time.Millisecond, p.Delay(2))
	assert.Equal(t, 800*time.Millisecond, p.Delay(3))
	assert.Equal(t, time.Second, p.Delay(4), "capped at MaxDelay")
}

func TestRetryPolicy_Do_SucceedsAfterRetries(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, Multiplier: 2}

	calls := 0
	var notified []int
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, func(_ error, attempt int, _ time.Duration) {
		notified = append(notified, attempt)
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, notified)
}

func TestRetryPolicy_Do_ExhaustsAttempts(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, Multiplier: 2}
	boom := errors.New("boom")

	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return boom
	}, nil)

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
}

func TestRetryPolicy_Do_PermanentStopsImmediately(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 5, BaseDelay: time.Millisecond, Multiplier: 2}
	bad := errors.New("bad request")

	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return Permanent(bad)
	}, nil)

	assert.ErrorIs(t, err, bad)
	assert.Equal(t, 1, calls)
}

func TestRetryPolicy_Do_WaitsBackoff(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, BaseDelay: 40 * time.Millisecond, Multiplier: 2}

	var stamps []time.Time
	_ = p.Do(context.Background(), func(context.Context) error {
		stamps = append(stamps, time.Now())
		return errors.New("again")
	}, nil)

	require.Len(t, stamps, 3)
	assert.GreaterOrEqual(t, stamps[1].Sub(stamps[0]), 40*time.Millisecond)
	assert.GreaterOrEqual(t, stamps[2].Sub(stamps[1]), 80*time.Millisecond)
}

func TestRetryPolicy_Do_ContextCancelled(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 10, BaseDelay: time.Hour, Multiplier: 2}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := p.Do(ctx, func(context.Context) error {
		return errors.New("fail")
	}, nil)

	assert.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

package upstream

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_Interval(t *testing.T) {
	assert.Equal(t, 200*time.Millisecond, NewRateLimiter(300).Interval())
	assert.Equal(t, 2*time.Second, NewRateLimiter(30).Interval())
	assert.Equal(t, time.Duration(0), NewRateLimiter(0).Interval())
}

func TestRateLimiter_SpacesConsecutiveCalls(t *testing.T) {
	limiter := NewRateLimiter(300)
	ctx := context.Background()

	var stamps []time.Time
	for i := 0; i < 3; i++ {
		_, err := limiter.Wait(ctx)
		require.NoError(t, err)
		stamps = append(stamps, time.Now())
	}

	for i := 1; i < len(stamps); i++ {
		gap := stamps[i].Sub(stamps[i-1])
		// allow scheduler jitter of a few milliseconds
		assert.GreaterOrEqual(t, gap, 190*time.Millisecond, "gap %d", i)
	}
}

func TestRateLimiter_UnlimitedDoesNotBlock(t *testing.T) {
	limiter := NewRateLimiter(0)
	start := time.Now()
	for i := 0; i < 100; i++ {
		_, err := limiter.Wait(context.Background())
		require.NoError(t, err)
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestRateLimiter_ContextCancelled(t *testing.T) {
	limiter := NewRateLimiter(1) // one call per minute
	ctx, cancel := context.WithCancel(context.Background())

	_, err := limiter.Wait(ctx)
	require.NoError(t, err)

	cancel()
	_, err = limiter.Wait(ctx)
	assert.Error(t, err)
}

package service

import (
	"context"
	"errors"
	"invest_edu_backend/internal/util"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)}
}

func TestMemoryRateLimiter_RejectsAfterMaxThenResets(t *testing.T) {
	clock := newClock()
	limiter := NewMemoryRateLimiter(3, time.Minute).WithClock(clock.Now)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := limiter.Allow(ctx, "course:1")
		require.NoError(t, err)
		assert.True(t, d.Allowed, "call %d", i+1)
		assert.Equal(t, 2-i, d.Remaining)
	}

	clock.Advance(20 * time.Second)
	d, err := limiter.Allow(ctx, "course:1")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 40*time.Second, d.ResetIn)

	// other keys have their own window
	d, _ = limiter.Allow(ctx, "course:2")
	assert.True(t, d.Allowed)

	clock.Advance(40 * time.Second)
	d, err = limiter.Allow(ctx, "course:1")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 2, d.Remaining)
}

func TestMemoryRateLimiter_SetLimitsAndSweep(t *testing.T) {
	clock := newClock()
	limiter := NewMemoryRateLimiter(1, time.Minute).WithClock(clock.Now)
	ctx := context.Background()

	d, _ := limiter.Allow(ctx, "a")
	assert.True(t, d.Allowed)
	d, _ = limiter.Allow(ctx, "a")
	assert.False(t, d.Allowed)

	limiter.SetLimits(5, time.Minute)
	d, _ = limiter.Allow(ctx, "a")
	assert.True(t, d.Allowed)

	_, _ = limiter.Allow(ctx, "b")
	assert.Equal(t, 0, limiter.Sweep())
	clock.Advance(time.Minute)
	assert.Equal(t, 2, limiter.Sweep())
}

func TestEnforceRateLimit_ReturnsRetryAfter(t *testing.T) {
	clock := newClock()
	limiter := NewMemoryRateLimiter(1, 30*time.Second).WithClock(clock.Now)
	ctx := context.Background()

	require.NoError(t, enforceRateLimit(ctx, limiter, "course", 9))

	clock.Advance(10500 * time.Millisecond)
	err := enforceRateLimit(ctx, limiter, "course", 9)
	require.Error(t, err)
	assert.True(t, errors.Is(err, util.ErrRateLimited))

	var rl *util.RateLimitedError
	require.True(t, errors.As(err, &rl))
	assert.Equal(t, 20, rl.RetryAfterSeconds())

	assert.NoError(t, enforceRateLimit(ctx, nil, "course", 9))
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (RateDecision, error) {
	return RateDecision{}, errors.New("redis down")
}

func (failingLimiter) SetLimits(int, time.Duration) {}

func TestEnforceRateLimit_FailsOpenOnBackendError(t *testing.T) {
	assert.NoError(t, enforceRateLimit(context.Background(), failingLimiter{}, "chat", 1))
}

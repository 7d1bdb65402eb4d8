package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studioconnect/relay/internal/config"
	"github.com/studioconnect/relay/internal/infrastructure/kv"
	"github.com/studioconnect/relay/internal/infrastructure/ratelimit"
	"github.com/studioconnect/relay/pkg/constants"
	"github.com/studioconnect/relay/pkg/logger"
)

func testLimitConfig() *config.RateLimitConfig {
	return &config.RateLimitConfig{
		Enabled: true,
		Window:  60,
		Limits: map[string]int{
			"init":     10,
			"callback": 10,
			"poll":     30,
			"exchange": 10,
		},
	}
}

func newTestLimiter(t *testing.T) (*ratelimit.FixedWindowLimiter, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	limiter, err := ratelimit.NewFixedWindowLimiter(kv.NewRedisStore(client), testLimitConfig(), logger.NewNoopLogger())
	require.NoError(t, err)

	return limiter, mr
}

func TestFixedWindowLimiter_AllowsUpToLimit(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		result, err := limiter.Check(ctx, "198.51.100.1", constants.EndpointInit)
		require.NoError(t, err)
		assert.True(t, result.Allowed, "request %d should be allowed", i+1)
		require.NoError(t, limiter.Increment(ctx, "198.51.100.1", constants.EndpointInit))
	}

	result, err := limiter.Check(ctx, "198.51.100.1", constants.EndpointInit)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, 0, result.Remaining)
	assert.Equal(t, 10, result.Limit)
}

func TestFixedWindowLimiter_CheckDoesNotIncrement(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()

	// Any number of probes without increments never consumes budget.
	for i := 0; i < 50; i++ {
		result, err := limiter.Check(ctx, "198.51.100.2", constants.EndpointInit)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
		assert.Equal(t, 9, result.Remaining)
	}
}

func TestFixedWindowLimiter_RemainingCountsDown(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		result, err := limiter.Check(ctx, "198.51.100.3", constants.EndpointInit)
		require.NoError(t, err)
		assert.Equal(t, 9-i, result.Remaining)
		require.NoError(t, limiter.Increment(ctx, "198.51.100.3", constants.EndpointInit))
	}
}

func TestFixedWindowLimiter_WindowExpiryRestartsBudget(t *testing.T) {
	limiter, mr := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		require.NoError(t, limiter.Increment(ctx, "198.51.100.4", constants.EndpointInit))
	}
	result, err := limiter.Check(ctx, "198.51.100.4", constants.EndpointInit)
	require.NoError(t, err)
	require.False(t, result.Allowed)

	mr.FastForward(61 * time.Second)

	result, err = limiter.Check(ctx, "198.51.100.4", constants.EndpointInit)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, 9, result.Remaining)
}

func TestFixedWindowLimiter_CountersAreScopedPerIPAndClass(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		require.NoError(t, limiter.Increment(ctx, "198.51.100.5", constants.EndpointInit))
	}

	// A different IP on the same class still has its full budget.
	result, err := limiter.Check(ctx, "198.51.100.6", constants.EndpointInit)
	require.NoError(t, err)
	assert.True(t, result.Allowed)

	// The same IP on a different class is untouched.
	result, err = limiter.Check(ctx, "198.51.100.5", constants.EndpointPoll)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, 30, result.Limit)
}

func TestFixedWindowLimiter_MissingClassConfig(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	cfg := testLimitConfig()
	delete(cfg.Limits, "exchange")

	_, err = ratelimit.NewFixedWindowLimiter(kv.NewRedisStore(client), cfg, logger.NewNoopLogger())
	assert.Error(t, err)
}

func TestFixedWindowLimiter_SetLimits(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()

	limiter.SetLimits(map[string]int{"init": 2})

	require.NoError(t, limiter.Increment(ctx, "198.51.100.7", constants.EndpointInit))
	require.NoError(t, limiter.Increment(ctx, "198.51.100.7", constants.EndpointInit))

	result, err := limiter.Check(ctx, "198.51.100.7", constants.EndpointInit)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, 2, result.Limit)

	// Classes absent from the update keep their previous limit.
	result, err = limiter.Check(ctx, "198.51.100.7", constants.EndpointPoll)
	require.NoError(t, err)
	assert.Equal(t, 30, result.Limit)
}

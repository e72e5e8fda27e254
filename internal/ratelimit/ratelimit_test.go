package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryLimiterAllowsUpToLimit(t *testing.T) {
	require := require.New(t)
	limiter := NewMemoryLimiter(3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		result, err := limiter.Limit(ctx, "1.2.3.4")
		require.NoError(err)
		require.True(result.Allowed)
		require.Equal(3, result.Limit)
		require.Equal(2-i, result.Remaining)
	}

	result, err := limiter.Limit(ctx, "1.2.3.4")
	require.NoError(err)
	require.False(result.Allowed)
	require.Equal(0, result.Remaining)
}

func TestMemoryLimiterIsolatesIdentifiers(t *testing.T) {
	require := require.New(t)
	limiter := NewMemoryLimiter(1, time.Minute)
	ctx := context.Background()

	result, err := limiter.Limit(ctx, "1.2.3.4")
	require.NoError(err)
	require.True(result.Allowed)

	result, err = limiter.Limit(ctx, "1.2.3.4")
	require.NoError(err)
	require.False(result.Allowed)

	result, err = limiter.Limit(ctx, "5.6.7.8")
	require.NoError(err)
	require.True(result.Allowed)
}

func TestMemoryLimiterWindowReset(t *testing.T) {
	require := require.New(t)
	limiter := NewMemoryLimiter(1, 30*time.Millisecond)
	ctx := context.Background()

	result, err := limiter.Limit(ctx, "1.2.3.4")
	require.NoError(err)
	require.True(result.Allowed)

	result, err = limiter.Limit(ctx, "1.2.3.4")
	require.NoError(err)
	require.False(result.Allowed)

	time.Sleep(40 * time.Millisecond)

	result, err = limiter.Limit(ctx, "1.2.3.4")
	require.NoError(err)
	require.True(result.Allowed)
	require.Equal(0, result.Remaining)
}

func TestMemoryLimiterSweepEvictsExpired(t *testing.T) {
	require := require.New(t)
	limiter := NewMemoryLimiter(5, 10*time.Millisecond)
	ctx := context.Background()

	_, err := limiter.Limit(ctx, "1.2.3.4")
	require.NoError(err)
	_, err = limiter.Limit(ctx, "5.6.7.8")
	require.NoError(err)

	limiter.mu.Lock()
	require.Len(limiter.entries, 2)
	limiter.mu.Unlock()

	time.Sleep(20 * time.Millisecond)
	limiter.sweep(time.Now())

	limiter.mu.Lock()
	require.Empty(limiter.entries)
	limiter.mu.Unlock()
}

package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDoSucceedsFirstAttempt(t *testing.T) {
	require := require.New(t)
	calls := 0
	err := Do(context.Background(), Config{MaxRetries: 3, BaseDelay: time.Millisecond}, func(context.Context) error {
		calls++
		return nil
	})
	require.NoError(err)
	require.Equal(1, calls)
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	require := require.New(t)
	calls := 0
	err := Do(context.Background(), Config{MaxRetries: 3, BaseDelay: time.Millisecond, Jitter: time.Millisecond}, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(err)
	require.Equal(3, calls)
}

func TestDoExhaustsBudget(t *testing.T) {
	require := require.New(t)
	boom := errors.New("boom")
	calls := 0
	err := Do(context.Background(), Config{MaxRetries: 2, BaseDelay: time.Millisecond, Jitter: time.Millisecond}, func(context.Context) error {
		calls++
		return boom
	})
	require.ErrorIs(err, boom)
	require.Equal(3, calls)
}

func TestDoStopsOnPermanentError(t *testing.T) {
	require := require.New(t)
	permanent := errors.New("permanent")
	calls := 0
	cfg := Config{
		MaxRetries:  5,
		BaseDelay:   time.Millisecond,
		Jitter:      time.Millisecond,
		ShouldRetry: func(err error) bool { return !errors.Is(err, permanent) },
	}
	err := Do(context.Background(), cfg, func(context.Context) error {
		calls++
		return permanent
	})
	require.ErrorIs(err, permanent)
	require.Equal(1, calls)
}

func TestDoRespectsContextCancel(t *testing.T) {
	require := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Do(ctx, Config{MaxRetries: 5, BaseDelay: time.Minute}, func(context.Context) error {
		return errors.New("transient")
	})
	require.ErrorIs(err, context.Canceled)
}

func TestDoRejectsInvalidBaseDelay(t *testing.T) {
	require := require.New(t)
	err := Do(context.Background(), Config{MaxRetries: 1}, func(context.Context) error { return nil })
	require.ErrorIs(err, ErrInvalidBaseDelay)
}

func TestDelayGrowsAndCaps(t *testing.T) {
	require := require.New(t)
	cfg := Config{BaseDelay: time.Second, MaxDelay: 10 * time.Second, Jitter: time.Millisecond}

	d0 := Delay(cfg, 0)
	require.GreaterOrEqual(d0, time.Second)
	require.Less(d0, time.Second+cfg.Jitter)

	d3 := Delay(cfg, 3)
	require.GreaterOrEqual(d3, 8*time.Second)

	d10 := Delay(cfg, 10)
	require.Equal(10*time.Second, d10)
}

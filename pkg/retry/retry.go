// Package retry implements exponential backoff with jitter for operations
// against unreliable dependencies.
package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

var ErrInvalidBaseDelay = errors.New("BaseDelay must be greater than 0")

// Config defines parameters for exponential backoff retries.
type Config struct {
	// Number of retries after the initial attempt.
	MaxRetries int
	// Delay before the first retry.
	BaseDelay time.Duration
	// Upper bound on the delay between retries.
	MaxDelay time.Duration
	// Classifies an error as retryable. A nil predicate retries everything.
	ShouldRetry func(error) bool
	// Spread added to each delay to avoid synchronized retries. Defaults
	// to 500ms when zero.
	Jitter time.Duration
}

// Do calls op until it succeeds, the retry budget is exhausted, ShouldRetry
// rejects the error, or the context is canceled. The delay before retry n is
// min(BaseDelay * 2^n + jitter, MaxDelay). The last error is returned.
func Do(ctx context.Context, cfg Config, op func(context.Context) error) error {
	if cfg.BaseDelay <= 0 {
		return ErrInvalidBaseDelay
	}

	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt >= cfg.MaxRetries {
			break
		}
		if cfg.ShouldRetry != nil && !cfg.ShouldRetry(lastErr) {
			break
		}

		select {
		case <-time.After(Delay(cfg, attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}

// Delay computes the backoff before the retry following the given attempt
// (0-based), including jitter and the MaxDelay cap.
func Delay(cfg Config, attempt int) time.Duration {
	jitter := cfg.Jitter
	if jitter <= 0 {
		jitter = 500 * time.Millisecond
	}
	delay := cfg.BaseDelay << uint(attempt)
	if delay <= 0 {
		// shift overflow
		return cfg.MaxDelay
	}
	delay += time.Duration(rand.Int63n(int64(jitter)))
	if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
		delay = cfg.MaxDelay
	}
	return delay
}

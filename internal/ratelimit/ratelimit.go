// Package ratelimit implements sliding-window request admission control for
// the public, unauthenticated endpoints. A process-local limiter serves as
// the fallback; a Redis-backed limiter shares the window counter across
// replicas behind the identical interface.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Result reports one admission decision.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Limiter admits or rejects a request for the given identifier, consuming
// one unit of the identifier's window either way.
type Limiter interface {
	Limit(ctx context.Context, identifier string) (Result, error)
}

type windowEntry struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter is the in-process fallback: a mutex-guarded map from
// identifier to its current window. A periodic sweep evicts expired entries
// to bound memory. Horizontal scaling requires the Redis-backed limiter
// instead; this one is scoped to a single process.
type MemoryLimiter struct {
	maxRequests int
	window      time.Duration

	mu      sync.Mutex
	entries map[string]*windowEntry

	sweepEvery time.Duration
	stopCh     chan struct{}
	stopOnce   sync.Once
}

var _ Limiter = (*MemoryLimiter)(nil)

func NewMemoryLimiter(maxRequests int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		maxRequests: maxRequests,
		window:      window,
		entries:     make(map[string]*windowEntry),
		sweepEvery:  time.Minute,
		stopCh:      make(chan struct{}),
	}
}

// Start launches the eviction sweep. Call Stop to release it.
func (l *MemoryLimiter) Start() {
	go func() {
		ticker := time.NewTicker(l.sweepEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.sweep(time.Now())
			case <-l.stopCh:
				return
			}
		}
	}()
}

func (l *MemoryLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
}

func (l *MemoryLimiter) Limit(_ context.Context, identifier string) (Result, error) {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[identifier]
	if !ok || entry.resetAt.Before(now) {
		entry = &windowEntry{count: 1, resetAt: now.Add(l.window)}
		l.entries[identifier] = entry
		return Result{Allowed: true, Limit: l.maxRequests, Remaining: l.maxRequests - 1, ResetAt: entry.resetAt}, nil
	}

	entry.count++
	remaining := l.maxRequests - entry.count
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   entry.count <= l.maxRequests,
		Limit:     l.maxRequests,
		Remaining: remaining,
		ResetAt:   entry.resetAt,
	}, nil
}

func (l *MemoryLimiter) sweep(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, entry := range l.entries {
		if entry.resetAt.Before(now) {
			delete(l.entries, key)
		}
	}
}

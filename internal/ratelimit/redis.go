package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrScript increments the identifier's window counter and stamps the
// expiry only on the first hit, returning the count and remaining TTL in
// one round trip.
var incrScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
return {count, ttl}
`)

// RedisLimiter shares the sliding-window counter across replicas. Same
// interface and decision semantics as MemoryLimiter.
type RedisLimiter struct {
	client      *redis.Client
	keyPrefix   string
	maxRequests int
	window      time.Duration
}

var _ Limiter = (*RedisLimiter)(nil)

func NewRedisLimiter(client *redis.Client, keyPrefix string, maxRequests int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client:      client,
		keyPrefix:   keyPrefix,
		maxRequests: maxRequests,
		window:      window,
	}
}

func (l *RedisLimiter) Limit(ctx context.Context, identifier string) (Result, error) {
	key := fmt.Sprintf("%s:%s", l.keyPrefix, identifier)
	vals, err := incrScript.Run(ctx, l.client, []string{key}, l.window.Milliseconds()).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("redis rate limit: %w", err)
	}
	if len(vals) != 2 {
		return Result{}, fmt.Errorf("redis rate limit: unexpected script reply")
	}

	count, ttlMs := int(vals[0]), vals[1]
	if ttlMs < 0 {
		ttlMs = l.window.Milliseconds()
	}
	remaining := l.maxRequests - count
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   count <= l.maxRequests,
		Limit:     l.maxRequests,
		Remaining: remaining,
		ResetAt:   time.Now().Add(time.Duration(ttlMs) * time.Millisecond),
	}, nil
}

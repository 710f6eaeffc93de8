package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// checkScript implements an atomic fixed-window check.
// KEYS[1] = counter key
// ARGV[1] = limit
// ARGV[2] = window size in milliseconds
// Returns: [allowed (1/0), count, pttl_ms]
// A request over the limit reads but never mutates the counter.
const checkScript = `
local limit = tonumber(ARGV[1])
local window_ms = tonumber(ARGV[2])

local count = tonumber(redis.call("GET", KEYS[1]) or "0")
if count >= limit then
	local ttl = redis.call("PTTL", KEYS[1])
	return {0, count, ttl}
end

count = redis.call("INCR", KEYS[1])
if count == 1 then
	redis.call("PEXPIRE", KEYS[1], window_ms)
end
local ttl = redis.call("PTTL", KEYS[1])
return {1, count, ttl}
`

// RedisLimiter shares window counters across gateway instances.
type RedisLimiter struct {
	client     *redis.Client
	limit      int
	windowSize time.Duration
}

func NewRedisLimiter(client *redis.Client, limit int, windowSize time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client:     client,
		limit:      limit,
		windowSize: windowSize,
	}
}

func (l *RedisLimiter) Check(ctx context.Context, keyID string) (Result, error) {
	key := "ratelimit:" + keyID

	res, err := l.client.Eval(ctx, checkScript, []string{key}, l.limit, l.windowSize.Milliseconds()).Result()
	if err != nil {
		return Result{}, fmt.Errorf("rate limit check: %w", err)
	}

	vals, ok := res.([]interface{})
	if !ok || len(vals) != 3 {
		return Result{}, fmt.Errorf("rate limit check: unexpected script reply %v", res)
	}

	allowed := vals[0].(int64) == 1
	count := int(vals[1].(int64))
	ttlMs := vals[2].(int64)

	remaining := l.limit - count
	if remaining < 0 {
		remaining = 0
	}

	resetAt := time.Now().Add(l.windowSize)
	if ttlMs > 0 {
		resetAt = time.Now().Add(time.Duration(ttlMs) * time.Millisecond)
	}

	return Result{
		Allowed:   allowed,
		Limit:     l.limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}

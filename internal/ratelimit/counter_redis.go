package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// The script increments, sets the TTL on first use and undoes the increment
// when it passes the ceiling, all inside one server-side call.
const incrementScript = `
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
if count > tonumber(ARGV[1]) then
  redis.call("DECR", KEYS[1])
  return {0, count}
end
return {1, count}
`

// RedisCounter keeps buckets as Redis integers with a TTL.
type RedisCounter struct {
	client redis.UniversalClient
	script *redis.Script
	ttl    time.Duration
}

// NewRedisCounter returns a Redis-backed Counter.
func NewRedisCounter(client redis.UniversalClient) *RedisCounter {
	return &RedisCounter{client: client, script: redis.NewScript(incrementScript), ttl: BucketTTL}
}

// IncrementIfUnderLimit runs the increment script against key.
func (c *RedisCounter) IncrementIfUnderLimit(ctx context.Context, key string, ceiling int) (Result, error) {
	if c == nil || c.client == nil {
		return Result{}, errors.New("redis counter not configured")
	}
	res, err := c.script.Run(ctx, c.client, []string{key}, ceiling, c.ttl.Milliseconds()).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("increment rate counter: %w", err)
	}
	if len(res) != 2 {
		return Result{}, errors.New("invalid rate counter script response")
	}
	if res[0] == 1 {
		count := int(res[1])
		return Result{Accepted: true, Count: count, Remaining: ceiling - count}, nil
	}
	return Result{Accepted: false, Count: ceiling, Remaining: 0}, nil
}

var _ Counter = (*RedisCounter)(nil)

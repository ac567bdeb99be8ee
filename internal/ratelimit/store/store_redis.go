package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"verifyx/internal/ratelimit/models"
	"verifyx/pkg/requestcontext"
)

const keyPrefix = "ratelimit:"

// allowScript increments the window counter and starts its TTL on the first
// hit. Returns the count and the remaining TTL in milliseconds.
var allowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// RedisStore shares fixed windows across instances. Each window is one
// counter key expiring with the window.
type RedisStore struct {
	client redis.UniversalClient
}

func NewRedis(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Allow(ctx context.Context, key string, policy models.Policy) (*models.Result, error) {
	if policy.Requests <= 0 || policy.Window <= 0 {
		return nil, fmt.Errorf("rate limit policy must be positive")
	}
	now := requestcontext.Now(ctx)

	vals, err := allowScript.Run(ctx, s.client, []string{keyPrefix + key}, policy.Window.Milliseconds()).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit increment: %w", err)
	}
	if len(vals) != 2 {
		return nil, fmt.Errorf("rate limit increment: unexpected reply %v", vals)
	}
	resetAt := now.Add(time.Duration(vals[1]) * time.Millisecond)
	return models.NewResult(int(vals[0]), policy, resetAt, now), nil
}

func (s *RedisStore) Reset(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("reset rate limit: %w", err)
	}
	return nil
}

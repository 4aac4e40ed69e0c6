package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"sidesa/internal/ratelimit/models"
)

const keyPrefix = "ratelimit:"

// slidingWindow trims the sorted set to the window, then admits the request
// when there is room. Returns {allowed, count, oldest_ms}.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
local allowed = 0
if count < limit then
  redis.call('ZADD', key, now, member)
  count = count + 1
  allowed = 1
end
redis.call('PEXPIRE', key, window)

local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
local oldestScore = now
if oldest[2] then
  oldestScore = tonumber(oldest[2])
end
return {allowed, count, oldestScore}
`)

// RedisStore shares limits across instances.
type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

func (s *RedisStore) Allow(ctx context.Context, key string, policy models.Policy) (*models.Result, error) {
	now := s.now()
	res, err := slidingWindow.Run(ctx, s.client, []string{keyPrefix + key},
		now.UnixMilli(),
		policy.Window.Milliseconds(),
		policy.Limit,
		uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit script: %w", err)
	}
	if len(res) != 3 {
		return nil, fmt.Errorf("rate limit script: unexpected reply length %d", len(res))
	}

	count := int(res[1])
	resetAt := time.UnixMilli(res[2]).Add(policy.Window)
	result := &models.Result{
		Allowed:   res[0] == 1,
		Limit:     policy.Limit,
		Remaining: max(policy.Limit-count, 0),
		ResetAt:   resetAt,
	}
	if !result.Allowed {
		result.RetryAfter = models.RetryAfterSeconds(resetAt.Sub(now))
	}
	return result, nil
}

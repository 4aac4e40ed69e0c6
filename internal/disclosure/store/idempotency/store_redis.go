package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"sidesa/pkg/domain"
	"sidesa/pkg/platform/sentinel"
)

const keyPrefix = "disclosure:idem:"

// RedisStore shares idempotency keys across instances.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) (domain.DisclosureID, error) {
	raw, err := s.client.Get(ctx, keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return domain.DisclosureID{}, sentinel.ErrNotFound
	}
	if err != nil {
		return domain.DisclosureID{}, fmt.Errorf("get idempotency key: %w", err)
	}
	id, err := domain.ParseDisclosureID(raw)
	if err != nil {
		return domain.DisclosureID{}, fmt.Errorf("idempotency key holds malformed id: %w", err)
	}
	return id, nil
}

// Put stores the key only if it is not already set, so the first successful
// submission wins.
func (s *RedisStore) Put(ctx context.Context, key string, id domain.DisclosureID, ttl time.Duration) error {
	if err := s.client.SetNX(ctx, keyPrefix+key, id.String(), ttl).Err(); err != nil {
		return fmt.Errorf("set idempotency key: %w", err)
	}
	return nil
}

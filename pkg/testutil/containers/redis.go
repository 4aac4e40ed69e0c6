//go:build integration

package containers

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"sidesa/internal/platform/config"
	platformredis "sidesa/internal/platform/redis"
)

// RedisContainer wraps a testcontainers Redis instance reached through the
// same client constructor the server uses.
type RedisContainer struct {
	Container testcontainers.Container
	URL       string
	Client    *goredis.Client
}

func NewRedisContainer(t *testing.T) *RedisContainer {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}

	url, err := container.ConnectionString(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get redis connection string: %v", err)
	}

	client, err := platformredis.New(ctx, config.RedisConfig{
		URL:          url,
		PoolSize:     10,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to connect to redis: %v", err)
	}

	// Shared across suites by the Manager; Ryuk reaps the container.
	return &RedisContainer{
		Container: container,
		URL:       url,
		Client:    client.Client,
	}
}

// FlushAll clears every key so suites start from an empty keyspace.
func (r *RedisContainer) FlushAll(ctx context.Context) error {
	return r.Client.FlushAll(ctx).Err()
}

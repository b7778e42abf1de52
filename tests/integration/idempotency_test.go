package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/safar/go-shop-checkout/internal/idempotency"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestRedis(t *testing.T) (string, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor: wait.ForLog("Ready to accept connections").
			WithStartupTimeout(60 * time.Second),
	}

	redis, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start redis container: %v", err)
	}

	host, err := redis.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := redis.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	cleanup := func() {
		if err := redis.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	}

	return fmt.Sprintf("redis://%s:%s/0", host, port.Port()), cleanup
}

func TestIdempotencyStoreAgainstRedis(t *testing.T) {
	url, cleanup := setupTestRedis(t)
	defer cleanup()
	ctx := context.Background()

	rdb, err := idempotency.NewClient(url)
	require.NoError(t, err)
	defer rdb.Close()
	require.NoError(t, rdb.Ping(ctx).Err())

	ttl := time.Hour
	store := idempotency.NewStore(rdb, ttl)
	key := idempotency.Key("checkout", 7, "k1")

	first, err := store.Claim(ctx, key)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := store.Claim(ctx, key)
	require.NoError(t, err)
	assert.False(t, again, "replayed key is rejected")

	remaining, err := rdb.TTL(ctx, key).Result()
	require.NoError(t, err)
	assert.Greater(t, remaining, time.Duration(0))
	assert.LessOrEqual(t, remaining, ttl)

	other, err := store.Claim(ctx, idempotency.Key("checkout", 8, "k1"))
	require.NoError(t, err)
	assert.True(t, other, "keys are scoped per user")

	require.NoError(t, store.Release(ctx, key))
	retried, err := store.Claim(ctx, key)
	require.NoError(t, err)
	assert.True(t, retried, "released key can be claimed again")

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	assert.Error(t, store.Release(canceled, key))
	assert.Equal(t, int64(1), rdb.Exists(ctx, key).Val(), "a canceled release leaves the key in place")
}

func TestIdempotencyKeyExpires(t *testing.T) {
	url, cleanup := setupTestRedis(t)
	defer cleanup()
	ctx := context.Background()

	rdb, err := idempotency.NewClient(url)
	require.NoError(t, err)
	defer rdb.Close()

	store := idempotency.NewStore(rdb, time.Second)
	key := idempotency.Key("checkout", 1, "short")

	first, err := store.Claim(ctx, key)
	require.NoError(t, err)
	require.True(t, first)

	require.Eventually(t, func() bool {
		ok, err := store.Claim(ctx, key)
		return err == nil && ok
	}, 5*time.Second, 200*time.Millisecond, "key is claimable again after its ttl")
}

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisIdempotency_ReserveCompleteGet(t *testing.T) {
	_, client := newTestRedis(t)
	repo := NewRedisIdempotencyRepository(client)
	ctx := context.Background()

	_, err := repo.Get(ctx, "k1")
	assert.ErrorIs(t, err, ErrNotFound)

	ok, err := repo.Reserve(ctx, "k1", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Reserve(ctx, "k1", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok, "second reservation must fail")

	val, err := repo.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Empty(t, val, "reserved key has no value yet")

	require.NoError(t, repo.Complete(ctx, "k1", `{"orderId":"abc"}`, time.Hour))
	val, err = repo.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, `{"orderId":"abc"}`, val)
}

func TestRedisIdempotency_ReleaseAndExpiry(t *testing.T) {
	mr, client := newTestRedis(t)
	repo := NewRedisIdempotencyRepository(client)
	ctx := context.Background()

	ok, err := repo.Reserve(ctx, "k2", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, repo.Release(ctx, "k2"))
	ok, err = repo.Reserve(ctx, "k2", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "released key can be reserved again")

	require.NoError(t, repo.Complete(ctx, "k2", "done", time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err = repo.Get(ctx, "k2")
	assert.ErrorIs(t, err, ErrNotFound)
}

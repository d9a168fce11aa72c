package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, store Store) {
	ctx := context.Background()
	key := Key("shift-assign", "c-1", "abc")

	existing, err := store.Reserve(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.Empty(t, existing, "first caller holds the key")

	_, err = store.Reserve(ctx, key, time.Minute)
	assert.ErrorIs(t, err, ErrInProgress)

	require.NoError(t, store.Complete(ctx, key, "a-1", time.Minute))
	existing, err = store.Reserve(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "a-1", existing)

	other := Key("shift-assign", "c-1", "def")
	_, err = store.Reserve(ctx, other, time.Minute)
	require.NoError(t, err)
	require.NoError(t, store.Release(ctx, other))
	existing, err = store.Reserve(ctx, other, time.Minute)
	require.NoError(t, err)
	assert.Empty(t, existing, "released keys can be claimed again")
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	exerciseStore(t, NewRedisStore(client))

	t.Run("expired key is free", func(t *testing.T) {
		store := NewRedisStore(client)
		ctx := context.Background()
		key := Key("shift-assign", "c-1", "ttl")

		_, err := store.Reserve(ctx, key, time.Second)
		require.NoError(t, err)
		mr.FastForward(2 * time.Second)

		existing, err := store.Reserve(ctx, key, time.Second)
		require.NoError(t, err)
		assert.Empty(t, existing)
	})
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())

	t.Run("expired key is free", func(t *testing.T) {
		now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		store := &memoryStore{entries: make(map[string]memoryEntry), now: func() time.Time { return now }}
		ctx := context.Background()

		require.NoError(t, store.Complete(ctx, "k", "a-1", time.Minute))
		now = now.Add(time.Minute)

		existing, err := store.Reserve(ctx, "k", time.Minute)
		require.NoError(t, err)
		assert.Empty(t, existing)
	})
}

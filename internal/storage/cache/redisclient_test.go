//go:build integration

package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/illmade-knight/go-test/emulators"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tinywideclouds/go-notification-inbox/internal/storage/cache"
	"github.com/tinywideclouds/go-notification-inbox/pkg/inbox"
)

func setupRedis(t *testing.T) (context.Context, *cache.RedisClient) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancel)

	conn := emulators.SetupRedisContainer(t, context.Background(), emulators.GetDefaultRedisImageContainer())
	client, err := cache.NewRedisClient(conn.EmulatorAddress, "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return ctx, client
}

func TestRedisClient_Integration(t *testing.T) {
	ctx, client := setupRedis(t)

	t.Run("Missing keys", func(t *testing.T) {
		var n int
		err := client.Get(ctx, "notify:count:unread:nobody", &n)
		assert.True(t, errors.Is(err, redis.Nil))

		gen, err := client.Generation(ctx, "notify:count:gen:nobody")
		require.NoError(t, err)
		assert.Equal(t, int64(0), gen)
	})

	t.Run("Set under the current generation", func(t *testing.T) {
		stored, err := client.SetIfGeneration(ctx, "k1", 5, time.Minute, "g1", 0)
		require.NoError(t, err)
		assert.True(t, stored)

		var n int
		require.NoError(t, client.Get(ctx, "k1", &n))
		assert.Equal(t, 5, n)
	})

	t.Run("Bump drops keys and rejects stale fills", func(t *testing.T) {
		_, err := client.SetIfGeneration(ctx, "k2", 9, time.Minute, "g2", 0)
		require.NoError(t, err)

		require.NoError(t, client.Bump(ctx, "g2", "k2"))

		var n int
		assert.True(t, errors.Is(client.Get(ctx, "k2", &n), redis.Nil))

		gen, err := client.Generation(ctx, "g2")
		require.NoError(t, err)
		assert.Equal(t, int64(1), gen)

		stored, err := client.SetIfGeneration(ctx, "k2", 9, time.Minute, "g2", 0)
		require.NoError(t, err)
		assert.False(t, stored)

		stored, err = client.SetIfGeneration(ctx, "k2", 4, time.Minute, "g2", gen)
		require.NoError(t, err)
		assert.True(t, stored)
	})

	t.Run("TTL applies", func(t *testing.T) {
		_, err := client.SetIfGeneration(ctx, "k3", 1, 50*time.Millisecond, "g3", 0)
		require.NoError(t, err)

		require.Eventually(t, func() bool {
			var n int
			return errors.Is(client.Get(ctx, "k3", &n), redis.Nil)
		}, 2*time.Second, 20*time.Millisecond)
	})
}

func TestCachedStore_RedisCountRacingMark(t *testing.T) {
	ctx, client := setupRedis(t)
	unread := inbox.CountFilter{RecipientID: "u1"}

	db := &pausingStore{unread: 3, pause: true, paused: make(chan struct{}), resume: make(chan struct{})}
	store := cache.NewCachedStore(db, client, time.Minute, newTestLogger())

	inFlight := make(chan int, 1)
	go func() {
		n, err := store.Count(ctx, unread)
		assert.NoError(t, err)
		inFlight <- n
	}()

	<-db.paused
	_, err := store.UpdateIsRead(ctx, inbox.RecordFilter{RecipientID: "u1"}, true)
	require.NoError(t, err)
	close(db.resume)
	<-inFlight

	n, err := store.Count(ctx, unread)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

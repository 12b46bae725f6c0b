// internal/cache/redisstore_test.go
package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mentionscope/internal/common/config"
	"mentionscope/internal/common/logger"
)

func testRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := newRedisStoreWithClient(client, config.CacheConfig{
		Key:      "mentionscope:snapshot",
		TTLHours: 24,
	}, logger.NewTest(t))
	return store, mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store, _ := testRedisStore(t)

	require.NoError(t, store.Save(context.Background(), sampleDocument()))

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sampleDocument(), loaded)
}

func TestRedisStoreMissing(t *testing.T) {
	store, _ := testRedisStore(t)
	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreSetsTTL(t *testing.T) {
	store, mr := testRedisStore(t)

	require.NoError(t, store.Save(context.Background(), sampleDocument()))
	assert.Equal(t, 24*time.Hour, mr.TTL("mentionscope:snapshot"))
}

func TestRedisStoreCorrupt(t *testing.T) {
	store, mr := testRedisStore(t)
	mr.Set("mentionscope:snapshot", "{not json")

	_, err := store.Load(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

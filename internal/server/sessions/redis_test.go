package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/recipehub/recipehub/internal/common"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedisStore(client)
}

func TestRedisStore_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	mr, s := newTestRedis(t)

	require.NoError(t, s.Put(ctx, "u1", "r1", 2592000*time.Second))

	raw, err := mr.Get("refresh:u1")
	require.NoError(t, err)
	assert.Equal(t, "r1", raw)
	assert.Equal(t, 2592000*time.Second, mr.TTL("refresh:u1"))

	got, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "r1", got)

	require.NoError(t, s.Delete(ctx, "u1"))
	require.NoError(t, s.Delete(ctx, "u1"))
	assert.False(t, mr.Exists("refresh:u1"))

	_, err = s.Get(ctx, "u1")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestRedisStore_Expiry(t *testing.T) {
	ctx := context.Background()
	mr, s := newTestRedis(t)

	require.NoError(t, s.Put(ctx, "u1", "r1", time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err := s.Get(ctx, "u1")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestRedisStore_Unavailable(t *testing.T) {
	ctx := context.Background()
	mr, s := newTestRedis(t)
	mr.Close()

	require.Error(t, s.Ping(ctx))

	_, err := s.Get(ctx, "u1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrorNotFound)

	assert.ErrorContains(t, s.Put(ctx, "u1", "r1", time.Minute), "redis error")
	assert.ErrorContains(t, s.Delete(ctx, "u1"), "redis error")
}

func TestNewRedisStoreFromURL(t *testing.T) {
	mr := miniredis.RunT(t)

	s, err := NewRedisStoreFromURL(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Ping(context.Background()))

	_, err = NewRedisStoreFromURL(context.Background(), "http://not-redis")
	require.ErrorContains(t, err, "invalid redis url")
}

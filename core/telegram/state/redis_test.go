package state

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	mr, client := newMiniRedis(t)
	store := NewRedisStore[testSession](client, WithPrefix("test:session:"))

	_, ok, err := store.Get(ctx, 42)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put(ctx, 42, testSession{Stage: "await_price", Notes: "۱۲۳"}))
	assert.True(t, mr.Exists("test:session:42"))

	got, ok, err := store.Get(ctx, 42)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, testSession{Stage: "await_price", Notes: "۱۲۳"}, got)

	require.NoError(t, store.Put(ctx, 43, testSession{}))
	n, err := store.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, store.Delete(ctx, 42))
	_, ok, err = store.Get(ctx, 42)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStoreTTL(t *testing.T) {
	ctx := context.Background()
	mr, client := newMiniRedis(t)
	store := NewRedisStore[testSession](client, WithTTL(time.Minute))

	require.NoError(t, store.Put(ctx, 7, testSession{Stage: "x"}))
	assert.Equal(t, time.Minute, mr.TTL(defaultRedisPrefix+"7"))

	mr.FastForward(2 * time.Minute)
	_, ok, err := store.Get(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStoreCorruptValue(t *testing.T) {
	ctx := context.Background()
	mr, client := newMiniRedis(t)
	store := NewRedisStore[testSession](client)
	require.NoError(t, mr.Set(defaultRedisPrefix+"5", "{not json"))

	_, ok, err := store.Get(ctx, 5)
	assert.Error(t, err)
	assert.False(t, ok)
}

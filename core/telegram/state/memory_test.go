package state

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testSession struct {
	Stage string `json:"stage"`
	Notes string `json:"notes,omitempty"`
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore[testSession](0)

	_, ok, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put(ctx, 1, testSession{Stage: "await_amount"}))
	got, ok, err := store.Get(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "await_amount", got.Stage)

	n, err := store.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, store.Delete(ctx, 1))
	require.NoError(t, store.Delete(ctx, 1))
	_, ok, _ = store.Get(ctx, 1)
	assert.False(t, ok)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore[testSession](time.Hour)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Put(ctx, 1, testSession{Stage: "a"}))
	require.NoError(t, store.Put(ctx, 2, testSession{Stage: "b"}))

	now = now.Add(30 * time.Minute)
	require.NoError(t, store.Put(ctx, 2, testSession{Stage: "c"}))

	now = now.Add(45 * time.Minute)
	_, ok, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok, "idle session must expire")

	got, ok, err := store.Get(ctx, 2)
	require.NoError(t, err)
	require.True(t, ok, "refreshed session must survive")
	assert.Equal(t, "c", got.Stage)

	now = now.Add(time.Hour)
	assert.Equal(t, 1, store.Sweep())
	n, _ := store.Len(ctx)
	assert.Zero(t, n)
}

func TestMemoryStoreJanitorStops(t *testing.T) {
	store := NewMemoryStore[testSession](time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, store.Put(ctx, 9, testSession{}))

	removed := make(chan int, 1)
	done := make(chan struct{})
	go func() {
		store.RunJanitor(ctx, 5*time.Millisecond, func(n int) {
			select {
			case removed <- n:
			default:
			}
		})
		close(done)
	}()

	select {
	case n := <-removed:
		assert.Equal(t, 1, n)
	case <-time.After(2 * time.Second):
		t.Fatal("janitor did not sweep")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("janitor did not stop")
	}
}

package sender

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

func TestDispatcherKeepsPerKeyOrder(t *testing.T) {
	d := NewDispatcher(Options{Workers: 3, QueueSize: 32})

	var (
		mu  sync.Mutex
		got = map[int64][]int{}
	)
	for i := range 10 {
		for _, key := range []int64{1, 2, -1001} {
			require.NoError(t, d.Enqueue(context.Background(), key, "send", "sendMessage", func() error {
				mu.Lock()
				got[key] = append(got[key], i)
				mu.Unlock()
				return nil
			}))
		}
	}
	d.Close()

	want := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	for _, key := range []int64{1, 2, -1001} {
		assert.Equal(t, want, got[key], "key %d", key)
	}
	assert.Equal(t, uint64(30), d.SentCount())
	assert.Zero(t, d.ErrorCount())
}

func TestDispatcherRetriesTransientErrors(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 2, RetryBackoff: time.Millisecond})
	var calls int
	require.NoError(t, d.Enqueue(context.Background(), 5, "send", "", func() error {
		calls++
		if calls < 3 {
			return &net.OpError{Op: "dial", Err: errors.New("refused")}
		}
		return nil
	}))
	d.Close()
	assert.Equal(t, 3, calls)
	assert.Zero(t, d.ErrorCount())
}

func TestDispatcherCountsPermanentFailure(t *testing.T) {
	var (
		mu       sync.Mutex
		statuses []string
	)
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 3, OnResult: func(action, status string) {
		mu.Lock()
		statuses = append(statuses, action+":"+status)
		mu.Unlock()
	}})
	var calls int
	require.NoError(t, d.Enqueue(context.Background(), 5, "edit", "", func() error {
		calls++
		return errors.New("telegram: message is not modified (400)")
	}))
	require.NoError(t, d.Enqueue(context.Background(), 5, "panic", "", func() error {
		panic("boom")
	}))
	d.Close()

	assert.Equal(t, 1, calls, "permanent errors are not retried")
	assert.Equal(t, uint64(2), d.ErrorCount())
	assert.Equal(t, []string{"edit:fail", "panic:fail"}, statuses)
}

func TestDispatcherRejectsAfterClose(t *testing.T) {
	d := NewDispatcher(Options{})
	d.Close()
	d.Close()
	err := d.Enqueue(context.Background(), 1, "send", "", func() error { return nil })
	assert.ErrorIs(t, err, ErrQueueClosed)
	assert.Error(t, d.Enqueue(context.Background(), 1, "send", "", nil))
}

func TestDispatcherQueueFull(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 1})
	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, d.Enqueue(context.Background(), 1, "block", "", func() error {
		close(started)
		<-release
		return nil
	}))
	<-started
	require.NoError(t, d.Enqueue(context.Background(), 1, "queued", "", func() error { return nil }))
	err := d.Enqueue(context.Background(), 1, "overflow", "", func() error { return nil })
	assert.ErrorIs(t, err, ErrQueueFull)
	close(release)
	d.Close()
}

func TestDispatcherEnqueueWaitsForRoom(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 1, EnqueueTimeout: time.Second})
	release := make(chan struct{})
	started := make(chan struct{})
	var (
		mu  sync.Mutex
		got []string
	)
	record := func(name string) func() error {
		return func() error {
			mu.Lock()
			got = append(got, name)
			mu.Unlock()
			return nil
		}
	}
	require.NoError(t, d.Enqueue(context.Background(), 1, "block", "", func() error {
		close(started)
		<-release
		return nil
	}))
	<-started
	require.NoError(t, d.Enqueue(context.Background(), 1, "queued", "", record("queued")))

	go func() {
		time.Sleep(20 * time.Millisecond)
		close(release)
	}()
	require.NoError(t, d.Enqueue(context.Background(), 1, "waited", "", record("waited")))
	d.Close()
	assert.Equal(t, []string{"queued", "waited"}, got)
}

func TestDispatcherEnqueueTimesOut(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 1, EnqueueTimeout: 10 * time.Millisecond})
	release := make(chan struct{})
	require.NoError(t, d.Enqueue(context.Background(), 1, "block", "", func() error {
		<-release
		return nil
	}))
	require.Eventually(t, func() bool {
		return d.Enqueue(context.Background(), 1, "queued", "", func() error { return nil }) == nil
	}, time.Second, time.Millisecond)

	err := d.Enqueue(context.Background(), 1, "overflow", "", func() error { return nil })
	assert.ErrorIs(t, err, ErrQueueFull)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, d.Enqueue(ctx, 1, "canceled", "", func() error { return nil }), context.Canceled)
	close(release)
	d.Close()
}

func TestDispatcherDrainedAfterClose(t *testing.T) {
	d := NewDispatcher(Options{})
	select {
	case <-d.Drained():
		t.Fatal("drained before close")
	default:
	}
	d.Close()
	select {
	case <-d.Drained():
	case <-time.After(time.Second):
		t.Fatal("not drained after close")
	}
}

func TestClassifyError(t *testing.T) {
	assert.Equal(t, "", ClassifyError(nil))
	assert.Equal(t, "timeout", ClassifyError(context.DeadlineExceeded))
	assert.Equal(t, "dial", ClassifyError(&net.OpError{Op: "dial", Err: errors.New("refused")}))
	assert.Equal(t, "http_4xx", ClassifyError(&tele.Error{Code: 403, Description: "Forbidden: bot is not a member"}))
	assert.Equal(t, "http_4xx", ClassifyError(errors.New("telegram: chat not found (400)")))
	assert.Equal(t, "unknown", ClassifyError(errors.New("boom")))
}

func TestSanitizeError(t *testing.T) {
	err := errors.New(`Post "https://api.telegram.org/bot123456:AA-bb_CC/sendMessage": dial tcp: timeout`)
	msg := SanitizeError(err)
	assert.NotContains(t, msg, "123456:AA-bb_CC")
	assert.Contains(t, msg, "bot<redacted>")
}

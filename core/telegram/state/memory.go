package state

import (
	"context"
	"sync"
	"time"
)

type memoryEntry[T any] struct {
	value   T
	touched time.Time
}

// MemoryStore keeps sessions in process memory.
// Entries idle longer than the TTL are treated as absent and evicted lazily
// or by Sweep. A zero TTL keeps entries forever.
type MemoryStore[T any] struct {
	mu       sync.RWMutex
	sessions map[int64]memoryEntry[T]
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryStore constructs an in-memory Store.
func NewMemoryStore[T any](ttl time.Duration) *MemoryStore[T] {
	return &MemoryStore[T]{
		sessions: make(map[int64]memoryEntry[T]),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (m *MemoryStore[T]) expired(e memoryEntry[T], now time.Time) bool {
	return m.ttl > 0 && now.Sub(e.touched) >= m.ttl
}

// Get returns the session for a user if it exists and has not expired.
func (m *MemoryStore[T]) Get(_ context.Context, id int64) (T, bool, error) {
	var zero T
	now := m.now()

	m.mu.RLock()
	entry, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return zero, false, nil
	}
	if m.expired(entry, now) {
		m.mu.Lock()
		if cur, still := m.sessions[id]; still && m.expired(cur, now) {
			delete(m.sessions, id)
		}
		m.mu.Unlock()
		return zero, false, nil
	}
	return entry.value, true, nil
}

// Put stores value for the user and resets its idle timer.
func (m *MemoryStore[T]) Put(_ context.Context, id int64, value T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = memoryEntry[T]{value: value, touched: m.now()}
	return nil
}

// Delete removes the session for a user.
func (m *MemoryStore[T]) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Len counts sessions that have not expired yet.
func (m *MemoryStore[T]) Len(_ context.Context) (int, error) {
	now := m.now()
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, e := range m.sessions {
		if !m.expired(e, now) {
			n++
		}
	}
	return n, nil
}

// Sweep evicts expired sessions and returns how many were removed.
func (m *MemoryStore[T]) Sweep() int {
	if m.ttl <= 0 {
		return 0
	}
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, e := range m.sessions {
		if m.expired(e, now) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// RunJanitor calls Sweep every interval until ctx is done.
func (m *MemoryStore[T]) RunJanitor(ctx context.Context, interval time.Duration, onSweep func(removed int)) {
	if m.ttl <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 && onSweep != nil {
				onSweep(n)
			}
		}
	}
}

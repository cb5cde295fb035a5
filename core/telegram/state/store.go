package state

import "context"

// Store persists one session value per user.
type Store[T any] interface {
	// Get returns the session for id. The bool is false when none exists
	// or the session expired.
	Get(ctx context.Context, id int64) (T, bool, error)
	// Put creates or replaces the session for id and refreshes its expiry.
	Put(ctx context.Context, id int64, value T) error
	// Delete discards the session for id. Deleting a missing session is not an error.
	Delete(ctx context.Context, id int64) error
	// Len reports the number of live sessions.
	Len(ctx context.Context) (int, error)
}

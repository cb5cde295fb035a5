package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	backend "github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "session:"

// RedisStore keeps JSON encoded sessions in Redis.
// Expiry is delegated to Redis key TTLs and refreshed on every Put.
type RedisStore[T any] struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// RedisOption configures a RedisStore.
type RedisOption func(*redisOptions)

type redisOptions struct {
	prefix string
	ttl    time.Duration
}

// WithPrefix sets the key prefix for sessions.
func WithPrefix(prefix string) RedisOption {
	return func(o *redisOptions) {
		if prefix != "" {
			o.prefix = prefix
		}
	}
}

// WithTTL sets the idle expiration for sessions. Zero disables expiry.
func WithTTL(ttl time.Duration) RedisOption {
	return func(o *redisOptions) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// NewRedisStore creates a Redis backed Store from an existing client.
func NewRedisStore[T any](client *backend.Client, opts ...RedisOption) *RedisStore[T] {
	o := redisOptions{prefix: defaultRedisPrefix}
	for _, opt := range opts {
		opt(&o)
	}
	return &RedisStore[T]{client: client, prefix: o.prefix, ttl: o.ttl}
}

func (s *RedisStore[T]) key(id int64) string {
	return s.prefix + strconv.FormatInt(id, 10)
}

// Get loads and decodes the session for id.
func (s *RedisStore[T]) Get(ctx context.Context, id int64) (T, bool, error) {
	var value T
	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return value, false, nil
		}
		return value, false, fmt.Errorf("failed to get session from redis: %w", err)
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return value, false, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return value, true, nil
}

// Put encodes and stores the session with the configured TTL.
func (s *RedisStore[T]) Put(ctx context.Context, id int64, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(id), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session to redis: %w", err)
	}
	return nil
}

// Delete removes the session key.
func (s *RedisStore[T]) Delete(ctx context.Context, id int64) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session from redis: %w", err)
	}
	return nil
}

// Len counts session keys under the prefix with SCAN.
func (s *RedisStore[T]) Len(ctx context.Context) (int, error) {
	var (
		cursor uint64
		total  int
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.prefix+"*", 200).Result()
		if err != nil {
			return 0, fmt.Errorf("failed to scan sessions: %w", err)
		}
		total += len(keys)
		if next == 0 {
			return total, nil
		}
		cursor = next
	}
}

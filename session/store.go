package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned by Load when no handle is persisted.
var ErrNotFound = errors.New("session handle not found")

// ErrRedisUnavailable wraps transport failures from Redis.
var ErrRedisUnavailable = errors.New("redis unavailable")

// Store is a single-key persistence surface.
type Store interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	Delete(ctx context.Context) error
}

// RedisStore keeps the handle under one Redis key.
type RedisStore struct {
	redis redis.UniversalClient
	key   string
	ttl   time.Duration
}

// NewRedisStore returns a store writing key on client. A ttl of zero keeps
// the handle until Delete.
func NewRedisStore(client redis.UniversalClient, key string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		redis: client,
		key:   key,
		ttl:   ttl,
	}
}

// Key returns the Redis key in use.
func (s *RedisStore) Key() string {
	return s.key
}

func (s *RedisStore) Load(ctx context.Context) ([]byte, error) {
	data, err := s.redis.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return data, nil
}

func (s *RedisStore) Save(ctx context.Context, data []byte) error {
	if err := s.redis.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Delete removes the handle. Deleting an absent handle is not an error.
func (s *RedisStore) Delete(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Ping checks connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Package kv provides the named-collection key-value store the portal
// persists through. Each collection is one Redis key holding a serialized
// array of flat records; there is no querying, no indices, and no
// cross-collection transactions.
package kv

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is a Redis-backed collection store.
type Store struct {
	client *redis.Client
	prefix string
}

// New connects to Redis and verifies the connection.
func New(redisURL string) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &Store{client: client, prefix: "atrium:"}, nil
}

// NewWithClient wraps an existing Redis client.
func NewWithClient(client *redis.Client) *Store {
	return &Store{client: client, prefix: "atrium:"}
}

func (s *Store) key(collection string) string {
	return s.prefix + collection
}

// GetAll returns the serialized contents of a collection. A collection that
// has never been written returns nil with no error.
func (s *Store) GetAll(ctx context.Context, collection string) ([]byte, error) {
	raw, err := s.client.Get(ctx, s.key(collection)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get collection %s: %w", collection, err)
	}
	return raw, nil
}

// SetAll replaces the serialized contents of a collection.
func (s *Store) SetAll(ctx context.Context, collection string, data []byte) error {
	if err := s.client.Set(ctx, s.key(collection), data, 0).Err(); err != nil {
		return fmt.Errorf("set collection %s: %w", collection, err)
	}
	return nil
}

// Delete removes a collection entirely.
func (s *Store) Delete(ctx context.Context, collection string) error {
	if err := s.client.Del(ctx, s.key(collection)).Err(); err != nil {
		return fmt.Errorf("delete collection %s: %w", collection, err)
	}
	return nil
}

// Ping checks if the backing Redis is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}

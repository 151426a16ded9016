// Package redis keeps storefront state in Redis, one string key per
// session namespace and store key, expiring after a fixed idle TTL.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/EcommerceGo/storefront/internal/storage"
)

const keyPrefix = "storefront:"

// Store shares one client across namespaces.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a Store. A zero ttl keeps values forever.
func New(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Namespace returns the bucket for one session namespace.
func (s *Store) Namespace(ns string) *Bucket {
	return &Bucket{client: s.client, ttl: s.ttl, ns: ns, prefix: keyPrefix + ns + ":"}
}

// Bucket implements storage.Backend for one namespace.
type Bucket struct {
	client *redis.Client
	ttl    time.Duration
	ns     string
	prefix string
}

var _ storage.Backend = (*Bucket)(nil)

// Get implements storage.Backend.
func (b *Bucket) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := b.client.Get(ctx, b.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, storage.ErrKeyNotFound(b.ns, key)
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, nil
}

// Set implements storage.Backend. Every write refreshes the TTL.
func (b *Bucket) Set(ctx context.Context, key string, value []byte) error {
	if err := b.client.Set(ctx, b.prefix+key, value, b.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete implements storage.Backend.
func (b *Bucket) Delete(ctx context.Context, key string) error {
	if err := b.client.Del(ctx, b.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Ping implements storage.Backend.
func (b *Bucket) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

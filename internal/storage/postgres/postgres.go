// Package postgres keeps storefront state in the storefront_state table.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/EcommerceGo/storefront/internal/storage"
	"github.com/utafrali/EcommerceGo/storefront/pkg/database"
)

const (
	getQuery = `SELECT value FROM storefront_state WHERE namespace = $1 AND key = $2`

	setQuery = `INSERT INTO storefront_state (namespace, key, value, updated_at)
		VALUES ($1, $2, $3::jsonb, NOW())
		ON CONFLICT (namespace, key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`

	deleteQuery = `DELETE FROM storefront_state WHERE namespace = $1 AND key = $2`

	purgeQuery = `DELETE FROM storefront_state WHERE updated_at < $1`
)

// Store shares one pool across namespaces.
type Store struct {
	pool   database.Pool
	tracer database.QueryTracer
}

// New creates a Store over pool.
func New(pool database.Pool, tracer database.QueryTracer) *Store {
	return &Store{pool: pool, tracer: tracer}
}

// Namespace returns the bucket for one session namespace.
func (s *Store) Namespace(ns string) *Bucket {
	return &Bucket{store: s, ns: ns}
}

// Purge deletes state not written since before and returns how many rows went.
func (s *Store) Purge(ctx context.Context, before time.Time) (n int64, err error) {
	ctx, end := s.tracer.Start(ctx, "PurgeState", purgeQuery)
	defer func() { end(err) }()

	tag, err := s.pool.Exec(ctx, purgeQuery, before)
	if err != nil {
		return 0, fmt.Errorf("purge storefront state: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Bucket implements storage.Backend for one namespace.
type Bucket struct {
	store *Store
	ns    string
}

var _ storage.Backend = (*Bucket)(nil)

// Get implements storage.Backend.
func (b *Bucket) Get(ctx context.Context, key string) (value []byte, err error) {
	ctx, end := b.store.tracer.Start(ctx, "GetState", getQuery)
	defer func() { end(err) }()

	err = b.store.pool.QueryRow(ctx, getQuery, b.ns, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrKeyNotFound(b.ns, key)
		}
		return nil, fmt.Errorf("select state %s: %w", key, err)
	}
	return value, nil
}

// Set implements storage.Backend.
func (b *Bucket) Set(ctx context.Context, key string, value []byte) (err error) {
	ctx, end := b.store.tracer.Start(ctx, "SetState", setQuery)
	defer func() { end(err) }()

	if _, err = b.store.pool.Exec(ctx, setQuery, b.ns, key, string(value)); err != nil {
		return fmt.Errorf("upsert state %s: %w", key, err)
	}
	return nil
}

// Delete implements storage.Backend.
func (b *Bucket) Delete(ctx context.Context, key string) (err error) {
	ctx, end := b.store.tracer.Start(ctx, "DeleteState", deleteQuery)
	defer func() { end(err) }()

	if _, err = b.store.pool.Exec(ctx, deleteQuery, b.ns, key); err != nil {
		return fmt.Errorf("delete state %s: %w", key, err)
	}
	return nil
}

// Ping implements storage.Backend.
func (b *Bucket) Ping(ctx context.Context) error {
	return b.store.pool.Ping(ctx)
}

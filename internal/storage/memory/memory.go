// Package memory keeps storefront state in process memory.
package memory

import (
	"context"
	"sync"

	"github.com/utafrali/EcommerceGo/storefront/internal/storage"
)

// Store holds the values of every namespace.
type Store struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte
}

// New creates an empty Store.
func New() *Store {
	return &Store{data: make(map[string]map[string][]byte)}
}

// Namespace returns the bucket for one session namespace.
func (s *Store) Namespace(ns string) *Bucket {
	return &Bucket{store: s, ns: ns}
}

// Len returns the number of keys held for ns.
func (s *Store) Len(ns string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data[ns])
}

// DropNamespace forgets every key of ns.
func (s *Store) DropNamespace(ns string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, ns)
}

// Bucket implements storage.Backend for one namespace.
type Bucket struct {
	store *Store
	ns    string
}

var _ storage.Backend = (*Bucket)(nil)

// Get implements storage.Backend.
func (b *Bucket) Get(_ context.Context, key string) ([]byte, error) {
	b.store.mu.RLock()
	defer b.store.mu.RUnlock()

	v, ok := b.store.data[b.ns][key]
	if !ok {
		return nil, storage.ErrKeyNotFound(b.ns, key)
	}
	return append([]byte(nil), v...), nil
}

// Set implements storage.Backend.
func (b *Bucket) Set(_ context.Context, key string, value []byte) error {
	b.store.mu.Lock()
	defer b.store.mu.Unlock()

	ns, ok := b.store.data[b.ns]
	if !ok {
		ns = make(map[string][]byte)
		b.store.data[b.ns] = ns
	}
	ns[key] = append([]byte(nil), value...)
	return nil
}

// Delete implements storage.Backend.
func (b *Bucket) Delete(_ context.Context, key string) error {
	b.store.mu.Lock()
	defer b.store.mu.Unlock()
	delete(b.store.data[b.ns], key)
	return nil
}

// Ping implements storage.Backend.
func (b *Bucket) Ping(context.Context) error {
	return nil
}

// Package storage persists the storefront's client-side state. Each store
// owns one key and reads and writes it as a single JSON document through a
// Keyed binding; backends only move bytes.
package storage

import (
	"context"
	"fmt"

	apperrors "github.com/utafrali/EcommerceGo/storefront/pkg/errors"
)

// Keys owned by the stores. Each key has exactly one writer.
const (
	KeyCart       = "cart"
	KeyComparison = "comparisonItems"
)

// Backend stores raw values for one browsing session.
type Backend interface {
	// Get returns the value stored under key, or an error matching
	// apperrors.ErrNotFound when there is none.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

// Factory opens the backend scoped to one session namespace.
type Factory func(namespace string) Backend

// ErrKeyNotFound builds the not-found error backends return from Get.
func ErrKeyNotFound(namespace, key string) error {
	return apperrors.NotFound("state", fmt.Sprintf("%s/%s", namespace, key))
}

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	apperrors "github.com/utafrali/EcommerceGo/storefront/pkg/errors"
)

// Keyed binds one key of a Backend to one JSON-serializable type.
//
// Failures never reach the caller: a missing or unreadable value loads as
// the zero value, a corrupt value is deleted, and failed writes are logged
// and counted. Nothing is retried.
type Keyed[T any] struct {
	backend Backend
	key     string
	logger  *slog.Logger
}

// NewKeyed binds key of backend to T.
func NewKeyed[T any](backend Backend, key string, logger *slog.Logger) *Keyed[T] {
	return &Keyed[T]{backend: backend, key: key, logger: logger}
}

// Key returns the bound key.
func (k *Keyed[T]) Key() string {
	return k.key
}

// Load returns the stored value and true, or the zero value and false when
// nothing usable is stored.
func (k *Keyed[T]) Load(ctx context.Context) (T, bool) {
	var zero T

	raw, err := k.backend.Get(ctx, k.key)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			k.fail(ctx, "read", err)
		}
		return zero, false
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		k.fail(ctx, "decode", err)
		if delErr := k.backend.Delete(ctx, k.key); delErr != nil {
			k.fail(ctx, "delete", delErr)
		}
		return zero, false
	}
	return v, true
}

// Save replaces the stored value with v and reports whether it was written.
func (k *Keyed[T]) Save(ctx context.Context, v T) bool {
	raw, err := json.Marshal(v)
	if err != nil {
		k.fail(ctx, "encode", err)
		return false
	}
	if err := k.backend.Set(ctx, k.key, raw); err != nil {
		k.fail(ctx, "write", err)
		return false
	}
	return true
}

// Remove deletes the stored value and reports whether that succeeded.
func (k *Keyed[T]) Remove(ctx context.Context) bool {
	if err := k.backend.Delete(ctx, k.key); err != nil {
		k.fail(ctx, "delete", err)
		return false
	}
	return true
}

func (k *Keyed[T]) fail(ctx context.Context, op string, err error) {
	storageFailures.WithLabelValues(k.key, op).Inc()
	k.logger.WarnContext(ctx, "persistent state "+op+" failed",
		slog.String("key", k.key),
		slog.String("error", err.Error()),
	)
}

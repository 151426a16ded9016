// Package comparison keeps the bounded set of products a shopper has picked
// for side-by-side comparison.
package comparison

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/utafrali/EcommerceGo/storefront/internal/domain"
	"github.com/utafrali/EcommerceGo/storefront/internal/storage"
	apperrors "github.com/utafrali/EcommerceGo/storefront/pkg/errors"
)

// MaxItems is the largest number of products that can be compared at once.
const MaxItems = 4

// ErrCodeComparisonFull is the AppError code for adds to a full set.
const ErrCodeComparisonFull = "COMPARISON_FULL"

// Store is one browsing session's comparison set. It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	items    []domain.Product
	state    *storage.Keyed[[]domain.Product]
	recorder domain.Recorder
	logger   *slog.Logger
}

// NewStore creates a comparison set bound to the "comparisonItems" key of
// backend and loads whatever was persisted there.
func NewStore(ctx context.Context, backend storage.Backend, recorder domain.Recorder, logger *slog.Logger) *Store {
	if recorder == nil {
		recorder = domain.NopRecorder{}
	}
	s := &Store{
		state:    storage.NewKeyed[[]domain.Product](backend, storage.KeyComparison, logger),
		recorder: recorder,
		logger:   logger,
	}

	if items, ok := s.state.Load(ctx); ok {
		s.items = dedupe(items)
	}
	return s
}

// dedupe drops repeated ids and anything past MaxItems.
func dedupe(items []domain.Product) []domain.Product {
	seen := make(map[domain.ProductID]bool, len(items))
	out := make([]domain.Product, 0, min(len(items), MaxItems))
	for _, p := range items {
		if seen[p.ID] || len(out) == MaxItems {
			continue
		}
		seen[p.ID] = true
		out = append(out, p)
	}
	return out
}

func (s *Store) indexOf(id domain.ProductID) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) commit(ctx context.Context, next []domain.Product) {
	s.items = next
	s.state.Save(ctx, next)
}

// Add appends a snapshot of p. It fails with ALREADY_EXISTS when p is
// already being compared and with COMPARISON_FULL when MaxItems are held.
func (s *Store) Add(ctx context.Context, p domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(p.ID) >= 0 {
		return apperrors.AlreadyExists("Product is already in comparison")
	}
	if len(s.items) >= MaxItems {
		return apperrors.LimitExceeded(ErrCodeComparisonFull, fmt.Sprintf("You can compare up to %d products", MaxItems))
	}

	next := make([]domain.Product, 0, len(s.items)+1)
	next = append(next, s.items...)
	next = append(next, p)
	s.commit(ctx, next)

	s.recorder.TrackEcommerce(ctx, domain.ActionAddToComparison, map[string]any{"productId": p.ID})
	s.logger.InfoContext(ctx, "product added to comparison",
		slog.String("product_id", p.ID.String()),
		slog.Int("count", len(next)),
	)
	return nil
}

// Remove deletes id from the set and reports whether it was there.
func (s *Store) Remove(ctx context.Context, id domain.ProductID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	next := make([]domain.Product, 0, len(s.items)-1)
	next = append(next, s.items[:i]...)
	next = append(next, s.items[i+1:]...)
	s.commit(ctx, next)
	return true
}

// Clear empties the set.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commit(ctx, []domain.Product{})
}

// Contains reports whether id is being compared.
func (s *Store) Contains(id domain.ProductID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexOf(id) >= 0
}

// Count returns the number of products in the set.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// CanAddMore reports whether another product fits.
func (s *Store) CanAddMore() bool {
	return s.Count() < MaxItems
}

// Items returns a copy of the set in insertion order.
func (s *Store) Items() []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Product, len(s.items))
	copy(out, s.items)
	return out
}

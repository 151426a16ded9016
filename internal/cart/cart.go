// Package cart implements the storefront cart: a persisted list of product
// lines whose quantities never exceed the stock recorded for each line.
package cart

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/utafrali/EcommerceGo/storefront/internal/domain"
	"github.com/utafrali/EcommerceGo/storefront/internal/storage"
	apperrors "github.com/utafrali/EcommerceGo/storefront/pkg/errors"
	"github.com/utafrali/EcommerceGo/storefront/pkg/validator"
)

// ErrCodeStockLimit is the AppError code for quantities beyond available stock.
const ErrCodeStockLimit = "STOCK_LIMIT"

// Store is one browsing session's cart. It is safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	items    []domain.CartEntry
	state    *storage.Keyed[[]domain.CartEntry]
	recorder domain.Recorder
	logger   *slog.Logger
}

// NewStore creates a cart bound to the "cart" key of backend and loads
// whatever was persisted there. A nil recorder discards commerce events.
func NewStore(ctx context.Context, backend storage.Backend, recorder domain.Recorder, logger *slog.Logger) *Store {
	if recorder == nil {
		recorder = domain.NopRecorder{}
	}
	s := &Store{
		state:    storage.NewKeyed[[]domain.CartEntry](backend, storage.KeyCart, logger),
		recorder: recorder,
		logger:   logger,
	}

	if items, ok := s.state.Load(ctx); ok {
		s.items = sanitize(items)
	}
	return s
}

// sanitize restores the cart invariants on persisted data that may have been
// written by an older client: one line per product, 1 <= quantity <= stock.
func sanitize(items []domain.CartEntry) []domain.CartEntry {
	out := make([]domain.CartEntry, 0, len(items))
	index := make(map[domain.ProductID]int, len(items))

	for _, it := range items {
		if it.ID <= 0 || it.Quantity < 1 {
			continue
		}
		if i, ok := index[it.ID]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		index[it.ID] = len(out)
		out = append(out, it)
	}

	kept := out[:0]
	for _, it := range out {
		if it.Quantity > it.StockQuantity {
			it.Quantity = it.StockQuantity
		}
		if it.Quantity >= 1 {
			kept = append(kept, it)
		}
	}
	return kept
}

func stockLimit(available int) error {
	return apperrors.LimitExceeded(ErrCodeStockLimit, fmt.Sprintf("Only %d items available in stock", available))
}

func (s *Store) indexOf(id domain.ProductID) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

// commit swaps in next and persists it. The in-memory cart stays authoritative
// when the write fails.
func (s *Store) commit(ctx context.Context, next []domain.CartEntry) {
	s.items = next
	s.state.Save(ctx, next)
}

func (s *Store) cloneItems() []domain.CartEntry {
	out := make([]domain.CartEntry, len(s.items))
	copy(out, s.items)
	return out
}

// AddItem adds quantity units of p. An existing line grows by quantity and is
// capped by the stock recorded when it was first added; a new line snapshots
// p's name, price and image. A request that would exceed stock is rejected
// whole and leaves the cart unchanged.
func (s *Store) AddItem(ctx context.Context, p domain.Product, quantity int) (domain.CartEntry, error) {
	if quantity < 1 {
		return domain.CartEntry{}, apperrors.InvalidInput("quantity must be at least 1")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cloneItems()
	var entry domain.CartEntry

	if i := s.indexOf(p.ID); i >= 0 {
		cur := next[i]
		if cur.Quantity+quantity > cur.StockQuantity {
			return domain.CartEntry{}, stockLimit(cur.StockQuantity)
		}
		cur.Quantity += quantity
		next[i] = cur
		entry = cur
	} else {
		if err := validator.Validate(p); err != nil {
			return domain.CartEntry{}, err
		}
		if quantity > p.StockQuantity {
			return domain.CartEntry{}, stockLimit(p.StockQuantity)
		}
		entry = domain.NewCartEntry(p, quantity)
		next = append(next, entry)
	}

	s.commit(ctx, next)
	s.recorder.TrackEcommerce(ctx, domain.ActionAddToCart, map[string]any{
		"productId": p.ID,
		"quantity":  quantity,
		"price":     entry.Price.String(),
	})

	s.logger.InfoContext(ctx, "item added to cart",
		slog.String("product_id", p.ID.String()),
		slog.Int("quantity", entry.Quantity),
	)
	return entry, nil
}

// RemoveItem deletes the line for id. It returns a NOT_FOUND error when the
// cart has no such line.
func (s *Store) RemoveItem(ctx context.Context, id domain.ProductID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(ctx, id)
}

func (s *Store) removeLocked(ctx context.Context, id domain.ProductID) error {
	i := s.indexOf(id)
	if i < 0 {
		return apperrors.NotFound("cart item", id.String())
	}

	next := make([]domain.CartEntry, 0, len(s.items)-1)
	next = append(next, s.items[:i]...)
	next = append(next, s.items[i+1:]...)
	s.commit(ctx, next)

	s.recorder.TrackEcommerce(ctx, domain.ActionRemoveFromCart, map[string]any{"productId": id})
	s.logger.InfoContext(ctx, "item removed from cart", slog.String("product_id", id.String()))
	return nil
}

// SetQuantity sets the quantity of the line for id. A quantity of zero or
// less removes the line. A quantity above the recorded stock is rejected and
// the previous quantity kept.
func (s *Store) SetQuantity(ctx context.Context, id domain.ProductID, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity <= 0 {
		return s.removeLocked(ctx, id)
	}

	i := s.indexOf(id)
	if i < 0 {
		return apperrors.NotFound("cart item", id.String())
	}
	if quantity > s.items[i].StockQuantity {
		return stockLimit(s.items[i].StockQuantity)
	}

	next := s.cloneItems()
	next[i].Quantity = quantity
	s.commit(ctx, next)

	s.recorder.TrackEcommerce(ctx, domain.ActionUpdateCartQuantity, map[string]any{
		"productId": id,
		"quantity":  quantity,
	})
	return nil
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.commit(ctx, []domain.CartEntry{})
	s.recorder.TrackEcommerce(ctx, domain.ActionClearCart, nil)
	s.logger.InfoContext(ctx, "cart cleared")
}

// read runs fn under the lock. A panic inside fn is logged and turned into
// the zero value so callers on rendering paths never fail.
func read[T any](s *Store, op string, fn func() T) (out T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			var zero T
			out = zero
			s.logger.Error("cart read failed",
				slog.String("op", op),
				slog.Any("panic", r),
			)
		}
	}()
	return fn()
}

func (s *Store) totalLocked() decimal.Decimal {
	total := decimal.Zero
	for _, it := range s.items {
		total = total.Add(it.Subtotal())
	}
	return total
}

func (s *Store) countLocked() int {
	n := 0
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}

// Total returns the sum of price × quantity over all lines.
func (s *Store) Total() decimal.Decimal {
	return read(s, "total", s.totalLocked)
}

// ItemCount returns the number of units in the cart, not the number of lines.
func (s *Store) ItemCount() int {
	return read(s, "item_count", s.countLocked)
}

// Items returns a copy of the cart lines in insertion order.
func (s *Store) Items() []domain.CartEntry {
	return read(s, "items", s.cloneItems)
}

// Contains reports whether the cart has a line for id.
func (s *Store) Contains(id domain.ProductID) bool {
	return read(s, "contains", func() bool { return s.indexOf(id) >= 0 })
}

// Item returns the line for id.
func (s *Store) Item(id domain.ProductID) (domain.CartEntry, bool) {
	type result struct {
		entry domain.CartEntry
		ok    bool
	}
	r := read(s, "item", func() result {
		if i := s.indexOf(id); i >= 0 {
			return result{s.items[i], true}
		}
		return result{}
	})
	return r.entry, r.ok
}

// Quantity returns the quantity held for id, or 0.
func (s *Store) Quantity(id domain.ProductID) int {
	return read(s, "quantity", func() int {
		if i := s.indexOf(id); i >= 0 {
			return s.items[i].Quantity
		}
		return 0
	})
}

// Summary returns the lines together with their count and total, taken from
// one consistent view of the cart.
func (s *Store) Summary() domain.CartSummary {
	sum := read(s, "summary", func() domain.CartSummary {
		return domain.CartSummary{
			Items:     s.cloneItems(),
			ItemCount: s.countLocked(),
			Total:     s.totalLocked(),
		}
	})
	if sum.Items == nil {
		sum.Items = []domain.CartEntry{}
	}
	return sum
}

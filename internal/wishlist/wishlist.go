// Package wishlist keeps a signed-in user's wishlist as a local cache of the
// backend's copy. Adds are shown before the backend confirms them and rolled
// back if it refuses; removes wait for the backend before leaving the cache.
package wishlist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/EcommerceGo/storefront/internal/domain"
	apperrors "github.com/utafrali/EcommerceGo/storefront/pkg/errors"
)

// Service is the backend's wishlist API.
type Service interface {
	Add(ctx context.Context, id domain.ProductID) error
	Remove(ctx context.Context, id domain.ProductID) error
	List(ctx context.Context) ([]domain.WishlistEntry, error)
	Count(ctx context.Context) (int, error)
	Check(ctx context.Context, id domain.ProductID) (bool, error)
}

// State is the store's authentication state.
type State int

const (
	// Unauthenticated stores are empty and refuse every mutation.
	Unauthenticated State = iota
	// Loading stores are fetching the signed-in user's wishlist.
	Loading
	// Ready stores hold the user's wishlist.
	Ready
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// MarshalText renders the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

const loginRequired = "Please login to add items to wishlist"

// Store is one browsing session's wishlist.
//
// Mutations and loads run one at a time in call order; a mutation issued
// while another is waiting on the backend queues behind it. Reads never wait
// on the backend. Logout and Close take effect immediately: results of calls
// still in flight are then discarded.
type Store struct {
	opMu sync.Mutex

	mu      sync.RWMutex
	state   State
	entries []domain.WishlistEntry
	gen     uint64
	closed  bool

	svc      Service
	recorder domain.Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewStore creates an unauthenticated wishlist backed by svc.
func NewStore(svc Service, recorder domain.Recorder, logger *slog.Logger) *Store {
	if recorder == nil {
		recorder = domain.NopRecorder{}
	}
	return &Store{
		svc:      svc,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}
}

func errSessionChanged() error {
	return apperrors.Conflict("the session changed before the wishlist request completed")
}

// errStale reports a mutation whose result arrived after Logout or Close. A
// backend 401 expires the session itself, so it surfaces as unauthorized.
func errStale(err error) error {
	if errors.Is(err, apperrors.ErrUnauthorized) {
		return apperrors.Unauthorized("session expired")
	}
	return errSessionChanged()
}

// Authenticate fetches the signed-in user's wishlist and moves the store to
// Ready. When the fetch fails the store is still Ready, empty, and the error
// is returned.
func (s *Store) Authenticate(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return apperrors.Gone("wishlist is closed")
	}
	s.gen++
	gen := s.gen
	s.state = Loading
	s.entries = nil
	s.mu.Unlock()

	list, err := s.svc.List(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gen != gen {
		return errSessionChanged()
	}
	s.state = Ready
	if err != nil {
		s.entries = []domain.WishlistEntry{}
		s.logger.WarnContext(ctx, "failed to load wishlist", slog.String("error", err.Error()))
		return fmt.Errorf("load wishlist: %w", err)
	}
	s.entries = dedupe(list)

	s.logger.InfoContext(ctx, "wishlist loaded", slog.Int("count", len(s.entries)))
	return nil
}

// Reload re-fetches the wishlist. The cache is kept when the fetch fails.
func (s *Store) Reload(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	return s.reloadLocked(ctx)
}

func (s *Store) reloadLocked(ctx context.Context) error {
	s.mu.RLock()
	gen, state := s.gen, s.state
	s.mu.RUnlock()
	if state != Ready {
		return apperrors.Unauthorized(loginRequired)
	}

	list, err := s.svc.List(ctx)
	if err != nil {
		return fmt.Errorf("reload wishlist: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return errSessionChanged()
	}
	s.entries = dedupe(list)
	return nil
}

// Reconcile compares the backend's wishlist size with the cache and reloads
// on mismatch. It reports whether a reload happened.
func (s *Store) Reconcile(ctx context.Context) (bool, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.RLock()
	state := s.state
	s.mu.RUnlock()
	if state != Ready {
		return false, apperrors.Unauthorized(loginRequired)
	}

	remote, err := s.svc.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("count wishlist: %w", err)
	}
	if remote == s.Count() {
		return false, nil
	}

	s.logger.InfoContext(ctx, "wishlist out of sync, reloading",
		slog.Int("remote", remote),
		slog.Int("local", s.Count()),
	)
	if err := s.reloadLocked(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Verify asks the backend whether id is on the wishlist and reloads the cache
// when the answer disagrees with it. The backend's answer is returned.
func (s *Store) Verify(ctx context.Context, id domain.ProductID) (bool, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.RLock()
	state := s.state
	local := s.indexOf(id) >= 0
	s.mu.RUnlock()
	if state != Ready {
		return false, apperrors.Unauthorized(loginRequired)
	}

	remote, err := s.svc.Check(ctx, id)
	if err != nil {
		return false, fmt.Errorf("check wishlist: %w", err)
	}
	if remote == local {
		return remote, nil
	}

	s.logger.InfoContext(ctx, "wishlist item out of sync, reloading",
		slog.String("product_id", id.String()),
		slog.Bool("remote", remote),
	)
	if err := s.reloadLocked(ctx); err != nil {
		return remote, err
	}
	return remote, nil
}

// Logout clears the cache and returns the store to Unauthenticated.
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.state = Unauthenticated
	s.entries = nil
}

// Close logs out and makes the store permanently unauthenticated.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.state = Unauthenticated
	s.entries = nil
	s.closed = true
}

// Add shows p on the wishlist immediately and then asks the backend to add
// it. If the backend refuses, p is taken off again and the error returned.
func (s *Store) Add(ctx context.Context, p domain.Product) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	return s.addLocked(ctx, p)
}

func (s *Store) addLocked(ctx context.Context, p domain.Product) error {
	s.mu.Lock()
	if s.state != Ready {
		s.mu.Unlock()
		return apperrors.Unauthorized(loginRequired)
	}
	if s.indexOf(p.ID) >= 0 {
		s.mu.Unlock()
		return apperrors.AlreadyExists("Product is already in wishlist")
	}

	entry := domain.WishlistEntry{
		LocalID:   uuid.NewString(),
		ProductID: p.ID,
		Product:   p,
		AddedAt:   s.now().UTC(),
		State:     domain.PendingAdd,
	}
	s.entries = append([]domain.WishlistEntry{entry}, s.entries...)
	gen := s.gen
	s.mu.Unlock()

	err := s.svc.Add(ctx, p.ID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gen != gen {
		return errStale(err)
	}
	i := s.indexOfLocal(entry.LocalID)
	if err != nil {
		if i >= 0 {
			s.deleteAt(i)
		}
		rollbacks.WithLabelValues("add").Inc()
		s.logger.WarnContext(ctx, "wishlist add rolled back",
			slog.String("product_id", p.ID.String()),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("add to wishlist: %w", err)
	}
	if i >= 0 {
		s.entries[i].State = domain.Confirmed
	}

	s.recorder.TrackEcommerce(ctx, domain.ActionAddToWishlist, map[string]any{
		"productId":   p.ID,
		"productName": p.Name,
	})
	s.logger.InfoContext(ctx, "product added to wishlist", slog.String("product_id", p.ID.String()))
	return nil
}

// Remove asks the backend to remove id and takes it off the cache once the
// backend agrees. On any failure, a 404 included, the entry stays Confirmed
// and Reconcile is left to resync the cache.
func (s *Store) Remove(ctx context.Context, id domain.ProductID) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	return s.removeLocked(ctx, id)
}

func (s *Store) removeLocked(ctx context.Context, id domain.ProductID) error {
	s.mu.Lock()
	if s.state != Ready {
		s.mu.Unlock()
		return apperrors.Unauthorized(loginRequired)
	}
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return apperrors.NotFound("wishlist item", id.String())
	}
	localID := s.entries[i].LocalID
	s.entries[i].State = domain.PendingRemove
	gen := s.gen
	s.mu.Unlock()

	err := s.svc.Remove(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gen != gen {
		return errStale(err)
	}
	i = s.indexOfLocal(localID)
	if err != nil {
		if i >= 0 {
			s.entries[i].State = domain.Confirmed
		}
		rollbacks.WithLabelValues("remove").Inc()
		s.logger.WarnContext(ctx, "wishlist remove failed",
			slog.String("product_id", id.String()),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("remove from wishlist: %w", err)
	}
	if i >= 0 {
		s.deleteAt(i)
	}

	s.recorder.TrackEcommerce(ctx, domain.ActionRemoveFromWishlist, map[string]any{"productId": id})
	s.logger.InfoContext(ctx, "product removed from wishlist", slog.String("product_id", id.String()))
	return nil
}

// Toggle removes p when it is on the wishlist and adds it otherwise, with a
// single backend call. It reports whether p is now on the wishlist.
func (s *Store) Toggle(ctx context.Context, p domain.Product) (bool, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if s.Contains(p.ID) {
		if err := s.removeLocked(ctx, p.ID); err != nil {
			return true, err
		}
		return false, nil
	}
	if err := s.addLocked(ctx, p); err != nil {
		return false, err
	}
	return true, nil
}

// Contains reports whether id is on the wishlist as the user sees it:
// pending adds are included and pending removes are not yet excluded.
func (s *Store) Contains(id domain.ProductID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexOf(id) >= 0
}

// Count returns the number of entries in the cache.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Items returns a copy of the cache, newest first.
func (s *Store) Items() []domain.WishlistEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.WishlistEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// State returns the authentication state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Store) indexOf(id domain.ProductID) int {
	for i := range s.entries {
		if s.entries[i].ProductID == id {
			return i
		}
	}
	return -1
}

func (s *Store) indexOfLocal(localID string) int {
	for i := range s.entries {
		if s.entries[i].LocalID == localID {
			return i
		}
	}
	return -1
}

func (s *Store) deleteAt(i int) {
	next := make([]domain.WishlistEntry, 0, len(s.entries)-1)
	next = append(next, s.entries[:i]...)
	s.entries = append(next, s.entries[i+1:]...)
}

// dedupe keeps the first entry per product and marks every entry Confirmed.
func dedupe(list []domain.WishlistEntry) []domain.WishlistEntry {
	seen := make(map[domain.ProductID]bool, len(list))
	out := make([]domain.WishlistEntry, 0, len(list))
	for _, e := range list {
		if seen[e.ProductID] {
			continue
		}
		seen[e.ProductID] = true
		if e.LocalID == "" {
			e.LocalID = uuid.NewString()
		}
		e.State = domain.Confirmed
		out = append(out, e)
	}
	return out
}

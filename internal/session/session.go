// Package session owns everything one browsing session holds: its cart,
// comparison set and wishlist, the backend clients acting for it, and its
// analytics tracker.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/utafrali/EcommerceGo/storefront/internal/analytics"
	"github.com/utafrali/EcommerceGo/storefront/internal/auth"
	"github.com/utafrali/EcommerceGo/storefront/internal/cart"
	"github.com/utafrali/EcommerceGo/storefront/internal/comparison"
	"github.com/utafrali/EcommerceGo/storefront/internal/domain"
	"github.com/utafrali/EcommerceGo/storefront/internal/remote"
	"github.com/utafrali/EcommerceGo/storefront/internal/storage"
	"github.com/utafrali/EcommerceGo/storefront/internal/wishlist"
	apperrors "github.com/utafrali/EcommerceGo/storefront/pkg/errors"
	"github.com/utafrali/EcommerceGo/storefront/pkg/logger"
)

// Dependencies are shared by every session.
type Dependencies struct {
	// Storage opens the persistent state of one session.
	Storage storage.Factory
	// API executes backend requests; APIBaseURL is the backend's /api root.
	API        remote.HTTPDoer
	APIBaseURL string
	// Sink receives analytics batches.
	Sink      analytics.Sink
	Analytics analytics.Options
	Logger    *slog.Logger
}

// Session is one shopper's storefront state.
type Session struct {
	id string

	cart       *cart.Store
	comparison *comparison.Store
	wishlist   *wishlist.Store
	reviews    *remote.ReviewClient
	recent     *remote.RecentClient
	tracker    *analytics.Tracker

	mu   sync.RWMutex
	cred *auth.Credential

	lastSeen atomic.Int64
	cancel   context.CancelFunc
	done     chan struct{}
	closed   atomic.Bool

	logger *slog.Logger
	now    func() time.Time
}

// New builds the session id and loads its persisted state.
func New(ctx context.Context, id string, deps Dependencies) *Session {
	log := deps.Logger.With(slog.String("session_id", id))

	s := &Session{
		id:     id,
		logger: log,
		now:    time.Now,
	}
	s.touch(s.now())

	s.tracker = analytics.NewTracker(id, deps.Sink, deps.Analytics, log)

	client := remote.NewClient(deps.APIBaseURL, deps.API, s.token, log)
	client.OnUnauthorized(s.Expire)
	s.reviews = remote.NewReviewClient(client)
	s.recent = remote.NewRecentClient(client)

	backend := deps.Storage(id)
	s.cart = cart.NewStore(ctx, backend, s.tracker, log)
	s.comparison = comparison.NewStore(ctx, backend, s.tracker, log)
	s.wishlist = wishlist.NewStore(remote.NewWishlistClient(client), s.tracker, log)
	return s
}

// Start runs the session's analytics flush loop until Close.
func (s *Session) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		s.tracker.Run(ctx)
	}()
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Cart returns the session's cart.
func (s *Session) Cart() *cart.Store { return s.cart }

// Comparison returns the session's comparison set.
func (s *Session) Comparison() *comparison.Store { return s.comparison }

// Wishlist returns the session's wishlist.
func (s *Session) Wishlist() *wishlist.Store { return s.wishlist }

// Reviews returns the review client acting for the session.
func (s *Session) Reviews() *remote.ReviewClient { return s.reviews }

// Tracker returns the session's analytics tracker.
func (s *Session) Tracker() *analytics.Tracker { return s.tracker }

func (s *Session) touch(at time.Time) {
	s.lastSeen.Store(at.UnixNano())
}

// LastSeen returns when the session was last used.
func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

func (s *Session) token(context.Context) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cred == nil {
		return ""
	}
	return s.cred.Token
}

// Credential returns the signed-in user's credential.
func (s *Session) Credential() (auth.Credential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cred == nil {
		return auth.Credential{}, false
	}
	return *s.cred, true
}

// Authenticated reports whether a user is signed in.
func (s *Session) Authenticated() bool {
	_, ok := s.Credential()
	return ok
}

// Login signs the holder of token in and loads their wishlist. A wishlist
// that fails to load leaves the user signed in with an empty wishlist,
// unless the backend rejected the token.
func (s *Session) Login(ctx context.Context, token string) (auth.Credential, error) {
	if s.closed.Load() {
		return auth.Credential{}, apperrors.Gone("session is closed")
	}
	cred, err := auth.ParseCredential(token, s.now())
	if err != nil {
		return auth.Credential{}, err
	}

	if prev, ok := s.Credential(); ok && prev.UserID != cred.UserID {
		s.Logout(ctx)
	}

	s.mu.Lock()
	s.cred = &cred
	s.mu.Unlock()

	ctx = logger.WithUserID(ctx, cred.UserID)
	s.logger.InfoContext(ctx, "user signed in", slog.String("user_id", cred.UserID))

	if err := s.wishlist.Authenticate(ctx); err != nil {
		if !s.Authenticated() || errors.Is(err, apperrors.ErrUnauthorized) {
			return auth.Credential{}, apperrors.Unauthorized("session expired")
		}
		s.logger.WarnContext(ctx, "signed in without wishlist", slog.String("error", err.Error()))
	}
	return cred, nil
}

// Logout signs the user out and clears the wishlist. Cart and comparison
// set are kept.
func (s *Session) Logout(ctx context.Context) {
	s.mu.Lock()
	had := s.cred != nil
	s.cred = nil
	s.mu.Unlock()

	s.wishlist.Logout()
	if had {
		s.logger.InfoContext(ctx, "user signed out")
	}
}

// Expire is called when the backend rejects the session's token.
func (s *Session) Expire(ctx context.Context) {
	if !s.Authenticated() {
		return
	}
	s.logger.WarnContext(ctx, "session expired, signing out")
	s.Logout(ctx)
}

// ViewProduct records that the shopper looked at p. Signed-in views are
// also sent to the backend's recently-viewed list; failures there are only
// logged.
func (s *Session) ViewProduct(ctx context.Context, p domain.Product) {
	s.tracker.TrackEcommerce(ctx, domain.ActionViewProduct, map[string]any{
		"productId":   p.ID,
		"productName": p.Name,
	})
	if !s.Authenticated() {
		return
	}
	if err := s.recent.Add(ctx, p.ID); err != nil {
		s.logger.WarnContext(ctx, "failed to record recently viewed product",
			slog.String("product_id", p.ID.String()),
			slog.String("error", err.Error()),
		)
	}
}

// RecentlyViewed returns up to limit products the signed-in user viewed.
func (s *Session) RecentlyViewed(ctx context.Context, limit int) ([]domain.RecentlyViewed, error) {
	if !s.Authenticated() {
		return nil, apperrors.Unauthorized("Please login to see recently viewed products")
	}
	return s.recent.List(ctx, limit)
}

// ClearRecentlyViewed empties the signed-in user's recently viewed list.
func (s *Session) ClearRecentlyViewed(ctx context.Context) error {
	if !s.Authenticated() {
		return apperrors.Unauthorized("Please login to see recently viewed products")
	}
	return s.recent.Clear(ctx)
}

// Close makes the wishlist inert and delivers outstanding analytics.
func (s *Session) Close(ctx context.Context) {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.wishlist.Close()

	if s.cancel == nil {
		_ = s.tracker.Flush(ctx)
		return
	}
	s.cancel()
	select {
	case <-s.done:
	case <-ctx.Done():
	}
}

package remote

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/utafrali/EcommerceGo/storefront/internal/domain"
)

const wishlistService = "wishlist"

// WishlistClient is the signed-in user's remote wishlist.
type WishlistClient struct {
	c *Client
}

// NewWishlistClient creates a WishlistClient over c.
func NewWishlistClient(c *Client) *WishlistClient {
	return &WishlistClient{c: c}
}

// wishlistRow is one row of GET /wishlist: the wishlist columns followed by
// the product's columns, flattened.
type wishlistRow struct {
	WishlistID int64     `json:"wishlist_id"`
	AddedAt    time.Time `json:"added_at"`
	domain.Product
}

// Add puts id on the remote wishlist.
func (w *WishlistClient) Add(ctx context.Context, id domain.ProductID) error {
	return w.c.call(ctx, wishlistService, http.MethodPost, "/wishlist/add/"+id.String(), nil, nil)
}

// Remove takes id off the remote wishlist.
func (w *WishlistClient) Remove(ctx context.Context, id domain.ProductID) error {
	return w.c.call(ctx, wishlistService, http.MethodDelete, "/wishlist/remove/"+id.String(), nil, nil)
}

// List returns the remote wishlist, newest first. Every entry is Confirmed.
func (w *WishlistClient) List(ctx context.Context) ([]domain.WishlistEntry, error) {
	var rows []wishlistRow
	if err := w.c.call(ctx, wishlistService, http.MethodGet, "/wishlist", nil, &rows); err != nil {
		return nil, err
	}

	entries := make([]domain.WishlistEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, domain.WishlistEntry{
			LocalID:   strconv.FormatInt(r.WishlistID, 10),
			ProductID: r.ID,
			Product:   r.Product,
			AddedAt:   r.AddedAt,
			State:     domain.Confirmed,
		})
	}
	return entries, nil
}

// Count returns the size of the remote wishlist.
func (w *WishlistClient) Count(ctx context.Context) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	if err := w.c.call(ctx, wishlistService, http.MethodGet, "/wishlist/count", nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// Check reports whether id is on the remote wishlist.
func (w *WishlistClient) Check(ctx context.Context, id domain.ProductID) (bool, error) {
	var out struct {
		IsInWishlist bool `json:"isInWishlist"`
	}
	if err := w.c.call(ctx, wishlistService, http.MethodGet, "/wishlist/check/"+id.String(), nil, &out); err != nil {
		return false, err
	}
	return out.IsInWishlist, nil
}

package remote

import (
	"context"
	"net/http"
	"strconv"

	"github.com/utafrali/EcommerceGo/storefront/internal/domain"
)

const recentService = "recently-viewed"

// RecentClient tracks the products the signed-in user has looked at.
type RecentClient struct {
	c *Client
}

// NewRecentClient creates a RecentClient over c.
func NewRecentClient(c *Client) *RecentClient {
	return &RecentClient{c: c}
}

// Add records a view of id.
func (r *RecentClient) Add(ctx context.Context, id domain.ProductID) error {
	return r.c.call(ctx, recentService, http.MethodPost, "/recently-viewed/add/"+id.String(), nil, nil)
}

// List returns up to limit recently viewed products, newest first.
func (r *RecentClient) List(ctx context.Context, limit int) ([]domain.RecentlyViewed, error) {
	var out []domain.RecentlyViewed
	if err := r.c.call(ctx, recentService, http.MethodGet, "/recently-viewed?limit="+strconv.Itoa(limit), nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.RecentlyViewed{}
	}
	return out, nil
}

// Remove forgets the view of id.
func (r *RecentClient) Remove(ctx context.Context, id domain.ProductID) error {
	return r.c.call(ctx, recentService, http.MethodDelete, "/recently-viewed/remove/"+id.String(), nil, nil)
}

// Clear forgets every view.
func (r *RecentClient) Clear(ctx context.Context) error {
	return r.c.call(ctx, recentService, http.MethodDelete, "/recently-viewed/clear", nil, nil)
}

// Count returns the number of recently viewed products.
func (r *RecentClient) Count(ctx context.Context) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	if err := r.c.call(ctx, recentService, http.MethodGet, "/recently-viewed/count", nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

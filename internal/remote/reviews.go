package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/utafrali/EcommerceGo/storefront/internal/domain"
	"github.com/utafrali/EcommerceGo/storefront/pkg/validator"
)

const reviewService = "review"

// ReviewClient reads and writes product reviews.
type ReviewClient struct {
	c *Client
}

// NewReviewClient creates a ReviewClient over c.
func NewReviewClient(c *Client) *ReviewClient {
	return &ReviewClient{c: c}
}

// Create posts the signed-in user's review of productID.
func (r *ReviewClient) Create(ctx context.Context, productID domain.ProductID, in domain.ReviewInput) (domain.Review, error) {
	if err := validator.Validate(in); err != nil {
		return domain.Review{}, err
	}
	var out domain.Review
	err := r.c.call(ctx, reviewService, http.MethodPost, "/reviews/product/"+productID.String(), in, &out)
	return out, err
}

// List returns one page of productID's reviews.
func (r *ReviewClient) List(ctx context.Context, productID domain.ProductID, page, limit int) (domain.ReviewPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	var out domain.ReviewPage
	err := r.c.call(ctx, reviewService, http.MethodGet, "/reviews/product/"+productID.String()+"?"+q.Encode(), nil, &out)
	if out.Reviews == nil {
		out.Reviews = []domain.Review{}
	}
	return out, err
}

// Stats returns productID's rating statistics.
func (r *ReviewClient) Stats(ctx context.Context, productID domain.ProductID) (domain.RatingStats, error) {
	var out domain.RatingStats
	err := r.c.call(ctx, reviewService, http.MethodGet, "/reviews/product/"+productID.String()+"/stats", nil, &out)
	return out, err
}

// HasReviewed reports whether the signed-in user already reviewed productID.
func (r *ReviewClient) HasReviewed(ctx context.Context, productID domain.ProductID) (bool, error) {
	var out struct {
		HasReviewed bool `json:"hasReviewed"`
	}
	err := r.c.call(ctx, reviewService, http.MethodGet, "/reviews/product/"+productID.String()+"/check", nil, &out)
	return out.HasReviewed, err
}

// Mine returns the signed-in user's reviews.
func (r *ReviewClient) Mine(ctx context.Context) ([]domain.Review, error) {
	var out []domain.Review
	err := r.c.call(ctx, reviewService, http.MethodGet, "/reviews/my-reviews", nil, &out)
	return out, err
}

// Update replaces the rating and text of one of the user's reviews.
func (r *ReviewClient) Update(ctx context.Context, reviewID int64, in domain.ReviewInput) (domain.Review, error) {
	if err := validator.Validate(in); err != nil {
		return domain.Review{}, err
	}
	var out domain.Review
	err := r.c.call(ctx, reviewService, http.MethodPut, fmt.Sprintf("/reviews/%d", reviewID), in, &out)
	return out, err
}

// Delete removes one of the user's reviews.
func (r *ReviewClient) Delete(ctx context.Context, reviewID int64) error {
	return r.c.call(ctx, reviewService, http.MethodDelete, fmt.Sprintf("/reviews/%d", reviewID), nil, nil)
}

// Recent returns the newest reviews across all products.
func (r *ReviewClient) Recent(ctx context.Context, limit int) ([]domain.Review, error) {
	var out []domain.Review
	err := r.c.call(ctx, reviewService, http.MethodGet, "/reviews/recent?limit="+strconv.Itoa(limit), nil, &out)
	return out, err
}

package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/EcommerceGo/storefront/internal/domain"
	apperrors "github.com/utafrali/EcommerceGo/storefront/pkg/errors"
	"github.com/utafrali/EcommerceGo/storefront/pkg/httputil"
	"github.com/utafrali/EcommerceGo/storefront/pkg/validator"
)

// ProductSnapshot is a catalog product posted by the client. Rows copied
// from the backend carry columns the storefront does not keep (created_at,
// is_active, wishlist_id); those are ignored even where the surrounding
// request body is decoded strictly.
type ProductSnapshot struct {
	domain.Product
}

// UnmarshalJSON decodes the product without rejecting unknown fields.
func (p *ProductSnapshot) UnmarshalJSON(b []byte) error {
	return json.Unmarshal(b, &p.Product)
}

// ProductHandler handles product views, recently viewed products and reviews.
type ProductHandler struct {
	logger *slog.Logger
}

// NewProductHandler creates a new product HTTP handler.
func NewProductHandler(logger *slog.Logger) *ProductHandler {
	return &ProductHandler{logger: logger}
}

// ViewProduct handles POST /api/v1/products/view
func (h *ProductHandler) ViewProduct(w http.ResponseWriter, r *http.Request) {
	var p ProductSnapshot
	if err := httputil.DecodeJSON(r, &p); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if p.ID <= 0 {
		httputil.WriteError(w, r, apperrors.InvalidInput("product id must be positive"), h.logger)
		return
	}

	sessionFrom(r.Context()).ViewProduct(r.Context(), p.Product)
	w.WriteHeader(http.StatusNoContent)
}

// RecentlyViewed handles GET /api/v1/recently-viewed
func (h *ProductHandler) RecentlyViewed(w http.ResponseWriter, r *http.Request) {
	limit := httputil.QueryInt(r, "limit", 10, 1, 50)

	items, err := sessionFrom(r.Context()).RecentlyViewed(r.Context(), limit)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, items)
}

// ClearRecentlyViewed handles DELETE /api/v1/recently-viewed
func (h *ProductHandler) ClearRecentlyViewed(w http.ResponseWriter, r *http.Request) {
	if err := sessionFrom(r.Context()).ClearRecentlyViewed(r.Context()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListReviews handles GET /api/v1/products/{productId}/reviews
func (h *ProductHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, "productId", chi.URLParam(r, "productId"))
	if !ok {
		return
	}
	page := httputil.QueryInt(r, "page", 1, 1, 10000)
	limit := httputil.QueryInt(r, "limit", 10, 1, 100)

	reviews, err := sessionFrom(r.Context()).Reviews().List(r.Context(), domain.ProductID(id), page, limit)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, reviews)
}

// ReviewStats handles GET /api/v1/products/{productId}/reviews/stats
func (h *ProductHandler) ReviewStats(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, "productId", chi.URLParam(r, "productId"))
	if !ok {
		return
	}

	stats, err := sessionFrom(r.Context()).Reviews().Stats(r.Context(), domain.ProductID(id))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, stats)
}

// CreateReview handles POST /api/v1/products/{productId}/reviews
func (h *ProductHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, "productId", chi.URLParam(r, "productId"))
	if !ok {
		return
	}

	var in domain.ReviewInput
	if err := httputil.DecodeJSON(r, &in); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if err := validator.Validate(in); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	s := sessionFrom(r.Context())
	if !s.Authenticated() {
		httputil.WriteError(w, r, apperrors.Unauthorized("Please login to write a review"), h.logger)
		return
	}

	review, err := s.Reviews().Create(r.Context(), domain.ProductID(id), in)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, review)
}

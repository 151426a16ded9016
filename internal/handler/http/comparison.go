package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/EcommerceGo/storefront/internal/comparison"
	"github.com/utafrali/EcommerceGo/storefront/internal/domain"
	apperrors "github.com/utafrali/EcommerceGo/storefront/pkg/errors"
	"github.com/utafrali/EcommerceGo/storefront/pkg/httputil"
)

// ComparisonHandler handles HTTP requests for the product comparison set.
type ComparisonHandler struct {
	logger *slog.Logger
}

// NewComparisonHandler creates a new comparison HTTP handler.
func NewComparisonHandler(logger *slog.Logger) *ComparisonHandler {
	return &ComparisonHandler{logger: logger}
}

// ComparisonResponse is the comparison set as returned to the client.
type ComparisonResponse struct {
	Items      []domain.Product `json:"items"`
	Count      int              `json:"count"`
	MaxItems   int              `json:"max_items"`
	CanAddMore bool             `json:"can_add_more"`
}

func comparisonResponse(s *comparison.Store) ComparisonResponse {
	items := s.Items()
	return ComparisonResponse{
		Items:      items,
		Count:      len(items),
		MaxItems:   comparison.MaxItems,
		CanAddMore: len(items) < comparison.MaxItems,
	}
}

// GetComparison handles GET /api/v1/comparison
func (h *ComparisonHandler) GetComparison(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, comparisonResponse(sessionFrom(r.Context()).Comparison()))
}

// AddItem handles POST /api/v1/comparison/items
func (h *ComparisonHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var p ProductSnapshot
	if err := httputil.DecodeJSON(r, &p); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	set := sessionFrom(r.Context()).Comparison()
	if err := set.Add(r.Context(), p.Product); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, comparisonResponse(set))
}

// RemoveItem handles DELETE /api/v1/comparison/items/{productId}
func (h *ComparisonHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, "productId", chi.URLParam(r, "productId"))
	if !ok {
		return
	}

	set := sessionFrom(r.Context()).Comparison()
	if !set.Remove(r.Context(), domain.ProductID(id)) {
		httputil.WriteError(w, r, apperrors.NotFound("comparison item", domain.ProductID(id).String()), h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, comparisonResponse(set))
}

// ClearComparison handles DELETE /api/v1/comparison
func (h *ComparisonHandler) ClearComparison(w http.ResponseWriter, r *http.Request) {
	set := sessionFrom(r.Context()).Comparison()
	set.Clear(r.Context())
	httputil.WriteData(w, http.StatusOK, comparisonResponse(set))
}

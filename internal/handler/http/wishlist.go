package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/EcommerceGo/storefront/internal/domain"
	"github.com/utafrali/EcommerceGo/storefront/internal/wishlist"
	"github.com/utafrali/EcommerceGo/storefront/pkg/httputil"
)

// WishlistHandler handles HTTP requests for the signed-in user's wishlist.
type WishlistHandler struct {
	logger *slog.Logger
}

// NewWishlistHandler creates a new wishlist HTTP handler.
func NewWishlistHandler(logger *slog.Logger) *WishlistHandler {
	return &WishlistHandler{logger: logger}
}

// WishlistResponse is the wishlist as returned to the client.
type WishlistResponse struct {
	State wishlist.State         `json:"state"`
	Items []domain.WishlistEntry `json:"items"`
	Count int                    `json:"count"`
}

// ToggleResponse reports where a toggle or check left the product.
type ToggleResponse struct {
	ProductID    domain.ProductID `json:"product_id"`
	InWishlist   bool             `json:"in_wishlist"`
	WishlistSize int              `json:"count"`
}

func wishlistResponse(s *wishlist.Store) WishlistResponse {
	items := s.Items()
	if items == nil {
		items = []domain.WishlistEntry{}
	}
	return WishlistResponse{State: s.State(), Items: items, Count: len(items)}
}

// GetWishlist handles GET /api/v1/wishlist
func (h *WishlistHandler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, wishlistResponse(sessionFrom(r.Context()).Wishlist()))
}

// AddItem handles POST /api/v1/wishlist/items
func (h *WishlistHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var p ProductSnapshot
	if err := httputil.DecodeJSON(r, &p); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	list := sessionFrom(r.Context()).Wishlist()
	if err := list.Add(r.Context(), p.Product); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, wishlistResponse(list))
}

// Toggle handles POST /api/v1/wishlist/toggle
func (h *WishlistHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	var p ProductSnapshot
	if err := httputil.DecodeJSON(r, &p); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	list := sessionFrom(r.Context()).Wishlist()
	on, err := list.Toggle(r.Context(), p.Product)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, ToggleResponse{ProductID: p.ID, InWishlist: on, WishlistSize: list.Count()})
}

// CheckItem handles GET /api/v1/wishlist/items/{productId}
func (h *WishlistHandler) CheckItem(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, "productId", chi.URLParam(r, "productId"))
	if !ok {
		return
	}

	list := sessionFrom(r.Context()).Wishlist()
	on, err := list.Verify(r.Context(), domain.ProductID(id))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, ToggleResponse{ProductID: domain.ProductID(id), InWishlist: on, WishlistSize: list.Count()})
}

// RemoveItem handles DELETE /api/v1/wishlist/items/{productId}
func (h *WishlistHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, "productId", chi.URLParam(r, "productId"))
	if !ok {
		return
	}

	list := sessionFrom(r.Context()).Wishlist()
	if err := list.Remove(r.Context(), domain.ProductID(id)); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, wishlistResponse(list))
}

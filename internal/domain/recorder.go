package domain

import "context"

// Commerce actions recorded by the stores.
const (
	ActionAddToCart          = "add_to_cart"
	ActionRemoveFromCart     = "remove_from_cart"
	ActionUpdateCartQuantity = "update_cart_quantity"
	ActionClearCart          = "clear_cart"
	ActionAddToComparison    = "add_to_comparison"
	ActionAddToWishlist      = "add_to_wishlist"
	ActionRemoveFromWishlist = "remove_from_wishlist"
	ActionViewProduct        = "view_product"
)

// Recorder receives commerce events from the stores. Implementations must
// not block and must not fail the caller.
type Recorder interface {
	TrackEcommerce(ctx context.Context, action string, data map[string]any)
}

// NopRecorder discards every event.
type NopRecorder struct{}

// TrackEcommerce implements Recorder.
func (NopRecorder) TrackEcommerce(context.Context, string, map[string]any) {}

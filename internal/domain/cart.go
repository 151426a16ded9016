package domain

import "github.com/shopspring/decimal"

// CartEntry is one line of the cart. Name, price and image are snapshotted
// when the product is first added and never refreshed afterwards.
type CartEntry struct {
	ID            ProductID       `json:"id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	ImageURL      *string         `json:"image_url"`
	StockQuantity int             `json:"stock_quantity"`
	Quantity      int             `json:"quantity"`
}

// NewCartEntry snapshots p into a cart line holding quantity units.
func NewCartEntry(p Product, quantity int) CartEntry {
	return CartEntry{
		ID:            p.ID,
		Name:          p.Name,
		Price:         p.Price,
		ImageURL:      p.ImageURL,
		StockQuantity: p.StockQuantity,
		Quantity:      quantity,
	}
}

// Subtotal returns price × quantity.
func (e CartEntry) Subtotal() decimal.Decimal {
	return e.Price.Mul(decimal.NewFromInt(int64(e.Quantity)))
}

// CartSummary is the derived view of a cart returned to callers.
type CartSummary struct {
	Items     []CartEntry     `json:"items"`
	ItemCount int             `json:"item_count"`
	Total     decimal.Decimal `json:"total"`
}

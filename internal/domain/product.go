package domain

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// ProductID identifies a catalog product. The backend issues numeric ids.
type ProductID int64

func (id ProductID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseProductID parses a positive decimal product id.
func ParseProductID(s string) (ProductID, bool) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return ProductID(n), true
}

// Product is the catalog view of a product as the storefront receives it.
type Product struct {
	ID            ProductID           `json:"id" validate:"gt=0"`
	Name          string              `json:"name" validate:"required,max=255"`
	Price         decimal.Decimal     `json:"price" validate:"nonneg_decimal"`
	Category      string              `json:"category,omitempty"`
	Description   string              `json:"description,omitempty"`
	StockQuantity int                 `json:"stock_quantity" validate:"gte=0"`
	ImageURL      *string             `json:"image_url"`
	Rating        decimal.NullDecimal `json:"rating"`
}

// InStock reports whether at least one unit can be bought.
func (p Product) InStock() bool {
	return p.StockQuantity > 0
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Review is a user's rating of a product.
type Review struct {
	ID           int64     `json:"id"`
	ProductID    ProductID `json:"product_id"`
	UserID       int64     `json:"user_id"`
	UserName     string    `json:"user_name,omitempty"`
	ProductName  string    `json:"product_name,omitempty"`
	ProductImage *string   `json:"product_image,omitempty"`
	Rating       int       `json:"rating"`
	ReviewText   *string   `json:"review_text"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`
}

// ReviewInput is the body of a create or update review request.
type ReviewInput struct {
	Rating     int     `json:"rating" validate:"min=1,max=5"`
	ReviewText *string `json:"review_text,omitempty" validate:"omitempty,max=5000"`
}

// Pagination describes where a page sits in a list.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// ReviewPage is one page of a product's reviews, newest first.
type ReviewPage struct {
	Reviews    []Review   `json:"reviews"`
	Pagination Pagination `json:"pagination"`
}

// RatingStats aggregates a product's reviews. Distribution is keyed by star
// rating 1..5.
type RatingStats struct {
	TotalReviews  int             `json:"total_reviews"`
	AverageRating decimal.Decimal `json:"average_rating"`
	Distribution  map[int]int     `json:"rating_distribution"`
}

// RecentlyViewed is a product the signed-in user looked at.
type RecentlyViewed struct {
	Product
	ViewedAt time.Time `json:"viewed_at"`
}

package models

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProductStatus is the lifecycle state of a catalog entry.
type ProductStatus string

const (
	ProductActive       ProductStatus = "active"
	ProductInactive     ProductStatus = "inactive"
	ProductOutOfStock   ProductStatus = "out_of_stock"
	ProductDiscontinued ProductStatus = "discontinued"
)

// Categories is the fixed set of product categories accepted by the catalog.
var Categories = []string{"Electronics", "Fashion", "Home & Living", "Books", "Sports", "Beauty"}

// ValidCategory reports whether c is a known category.
func ValidCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ProductImage is one image attached to a product.
type ProductImage struct {
	URL string `bson:"url" json:"url"`
	Alt string `bson:"alt,omitempty" json:"alt,omitempty"`
}

// Rating aggregates customer ratings for a product.
type Rating struct {
	Average float64 `bson:"average" json:"average"`
	Count   int     `bson:"count" json:"count"`
}

// Discount is an optional percentage discount with an expiry.
type Discount struct {
	Percentage float64    `bson:"percentage" json:"percentage"`
	ValidUntil *time.Time `bson:"validUntil,omitempty" json:"validUntil,omitempty"`
}

// Product is a catalog entry.
type Product struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title         string             `bson:"title" json:"title"`
	Description   string             `bson:"description" json:"description"`
	Price         float64            `bson:"price" json:"price"`
	OriginalPrice float64            `bson:"originalPrice,omitempty" json:"originalPrice,omitempty"`
	Category      string             `bson:"category" json:"category"`
	Brand         string             `bson:"brand,omitempty" json:"brand,omitempty"`
	Images        []ProductImage     `bson:"images,omitempty" json:"images,omitempty"`
	Stock         int                `bson:"stock" json:"stock"`
	SKU           string             `bson:"sku,omitempty" json:"sku,omitempty"`
	Rating        Rating             `bson:"rating" json:"rating"`
	Tags          []string           `bson:"tags,omitempty" json:"tags,omitempty"`
	Discount      Discount           `bson:"discount,omitempty" json:"discount"`
	Status        ProductStatus      `bson:"status" json:"status"`
	Featured      bool               `bson:"featured" json:"featured"`
	Trending      bool               `bson:"trending" json:"trending"`
	Views         int64              `bson:"views" json:"views"`
	Sales         int64              `bson:"sales" json:"sales"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// DiscountedPrice returns the effective price after any active discount,
// rounded to cents. A discount with a past ValidUntil is ignored.
func (p *Product) DiscountedPrice(now time.Time) float64 {
	if p.Discount.Percentage <= 0 {
		return p.Price
	}
	if p.Discount.ValidUntil != nil && now.After(*p.Discount.ValidUntil) {
		return p.Price
	}
	discounted := p.Price * (1 - p.Discount.Percentage/100)
	return math.Round(discounted*100) / 100
}

// InStock reports whether the product is active and has at least quantity
// units available.
func (p *Product) InStock(quantity int) bool {
	return p.Status == ProductActive && p.Stock >= quantity
}

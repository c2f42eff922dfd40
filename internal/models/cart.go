package models

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxItemQuantity caps how many units of a single product a cart may hold.
const MaxItemQuantity = 50

// CartItem is a single product entry in a cart. Price is the unit price
// captured when the item was added; reconciliation refreshes it.
type CartItem struct {
	ProductID primitive.ObjectID `bson:"product" json:"productId"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	Price     float64            `bson:"price" json:"price"`
	AddedAt   time.Time          `bson:"addedAt" json:"addedAt"`

	// Product is populated on reads for API responses; not stored.
	Product *Product `bson:"-" json:"product,omitempty"`
}

// Cart is the per-user shopping cart. One cart exists per user.
type Cart struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"user" json:"userId"`
	Items       []CartItem         `bson:"items" json:"items"`
	TotalAmount float64            `bson:"totalAmount" json:"totalAmount"`
	TotalItems  int                `bson:"totalItems" json:"totalItems"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

// Item returns the cart entry for productID, or nil.
func (c *Cart) Item(productID primitive.ObjectID) *CartItem {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i]
		}
	}
	return nil
}

// RemoveItem drops the entry for productID and reports whether it existed.
func (c *Cart) RemoveItem(productID primitive.ObjectID) bool {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
	}
	return false
}

// RecalculateTotals recomputes TotalItems and TotalAmount from the items,
// rounding the amount to cents.
func (c *Cart) RecalculateTotals(now time.Time) {
	items, amount := 0, 0.0
	for _, it := range c.Items {
		items += it.Quantity
		amount += it.Price * float64(it.Quantity)
	}
	c.TotalItems = items
	c.TotalAmount = math.Round(amount*100) / 100
	c.UpdatedAt = now
}

package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"shopapi/internal/models"
)

// ErrInvalidQuantity is returned when a quantity is outside 1..50.
var ErrInvalidQuantity = fmt.Errorf("quantity must be between 1 and %d", models.MaxItemQuantity)

// ErrProductUnavailable is returned when the product does not exist or is
// not purchasable.
var ErrProductUnavailable = errors.New("product is not available")

// ErrInsufficientStock is returned when the requested quantity exceeds
// stock.
var ErrInsufficientStock = errors.New("not enough stock")

// ErrItemNotFound is returned when the cart has no entry for the product.
var ErrItemNotFound = errors.New("item not in cart")

// Products is the slice of the catalog the cart needs: item lookups for
// adds and batch lookups for reconciliation.
type Products interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error)
}

// Issue is one problem found during checkout validation.
type Issue struct {
	ProductID primitive.ObjectID `json:"productId"`
	Reason    string             `json:"reason"`
	Message   string             `json:"message"`
	Available int                `json:"available,omitempty"`
}

// Issue reasons reported by Validate.
const (
	IssueUnavailable  = "unavailable"
	IssueOutOfStock   = "insufficient_stock"
	IssuePriceChanged = "price_changed"
)

// Service implements the per-user cart operations. Every read reconciles
// the stored cart against the live catalog so stale prices and vanished
// products never reach the client.
type Service struct {
	store    Store
	products Products
	log      *slog.Logger
	now      func() time.Time
}

// NewService creates a cart Service.
func NewService(store Store, products Products, log *slog.Logger) *Service {
	return &Service{store: store, products: products, log: log, now: time.Now}
}

// Get returns the user's reconciled cart, creating an empty one on first
// use. Items are returned with their product populated.
func (s *Service) Get(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.reconcile(ctx, cart, true); err != nil {
		return nil, err
	}
	return cart, nil
}

// Add puts quantity units of a product into the cart, merging with any
// existing entry. The captured unit price is the current discounted price.
func (s *Service) Add(ctx context.Context, userID, productID primitive.ObjectID, quantity int) (*models.Cart, error) {
	if quantity < 1 || quantity > models.MaxItemQuantity {
		return nil, ErrInvalidQuantity
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("loading product: %w", err)
	}
	if product == nil || product.Status != models.ProductActive {
		return nil, ErrProductUnavailable
	}

	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	total := quantity
	if item := cart.Item(productID); item != nil {
		total += item.Quantity
	}
	if total > models.MaxItemQuantity {
		return nil, ErrInvalidQuantity
	}
	if product.Stock < total {
		return nil, fmt.Errorf("%w: %d available", ErrInsufficientStock, product.Stock)
	}

	if item := cart.Item(productID); item != nil {
		item.Quantity = total
		item.Price = product.DiscountedPrice(now)
	} else {
		cart.Items = append(cart.Items, models.CartItem{
			ProductID: productID,
			Quantity:  quantity,
			Price:     product.DiscountedPrice(now),
			AddedAt:   now,
		})
	}

	cart.RecalculateTotals(now)
	if err := s.store.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("saving cart: %w", err)
	}
	return cart, nil
}

// UpdateQuantity changes the quantity of an existing entry. Zero removes
// the entry.
func (s *Service) UpdateQuantity(ctx context.Context, userID, productID primitive.ObjectID, quantity int) (*models.Cart, error) {
	if quantity < 0 || quantity > models.MaxItemQuantity {
		return nil, ErrInvalidQuantity
	}

	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	item := cart.Item(productID)
	if item == nil {
		return nil, ErrItemNotFound
	}

	now := s.now()
	if quantity == 0 {
		cart.RemoveItem(productID)
	} else {
		product, err := s.products.FindByID(ctx, productID)
		if err != nil {
			return nil, fmt.Errorf("loading product: %w", err)
		}
		if product == nil || product.Status != models.ProductActive {
			return nil, ErrProductUnavailable
		}
		if product.Stock < quantity {
			return nil, fmt.Errorf("%w: %d available", ErrInsufficientStock, product.Stock)
		}
		item.Quantity = quantity
		item.Price = product.DiscountedPrice(now)
	}

	cart.RecalculateTotals(now)
	if err := s.store.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("saving cart: %w", err)
	}
	return cart, nil
}

// Remove drops an entry from the cart.
func (s *Service) Remove(ctx context.Context, userID, productID primitive.ObjectID) (*models.Cart, error) {
	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !cart.RemoveItem(productID) {
		return nil, ErrItemNotFound
	}
	cart.RecalculateTotals(s.now())
	if err := s.store.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("saving cart: %w", err)
	}
	return cart, nil
}

// Clear empties the cart.
func (s *Service) Clear(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	cart.Items = nil
	cart.RecalculateTotals(s.now())
	if err := s.store.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("saving cart: %w", err)
	}
	return cart, nil
}

// Count returns the total number of units in the cart, for badge display.
func (s *Service) Count(ctx context.Context, userID primitive.ObjectID) (int, error) {
	cart, err := s.store.FindByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("loading cart: %w", err)
	}
	if cart == nil {
		return 0, nil
	}
	return cart.TotalItems, nil
}

// Validate is the checkout pre-flight: it reconciles the cart and reports
// every item whose product vanished, ran low, or changed price since it
// was added. An empty issue list means the cart is ready for checkout.
func (s *Service) Validate(ctx context.Context, userID primitive.ObjectID) (*models.Cart, []Issue, error) {
	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	issues, err := s.reconcile(ctx, cart, false)
	if err != nil {
		return nil, nil, err
	}
	if issues == nil {
		issues = []Issue{}
	}
	return cart, issues, nil
}

func (s *Service) load(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	cart, err := s.store.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading cart: %w", err)
	}
	if cart == nil {
		now := s.now()
		cart = &models.Cart{UserID: userID, Items: []models.CartItem{}, CreatedAt: now, UpdatedAt: now}
	}
	return cart, nil
}

// reconcile aligns the cart with the live catalog: items whose product is
// gone or inactive are dropped, quantities are clamped to stock, and unit
// prices are refreshed. When mutate is false the cart is still corrected
// but differences are reported as issues instead of silently absorbed.
func (s *Service) reconcile(ctx context.Context, cart *models.Cart, mutate bool) ([]Issue, error) {
	if len(cart.Items) == 0 {
		return nil, nil
	}

	ids := make([]primitive.ObjectID, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("loading cart products: %w", err)
	}
	byID := make(map[primitive.ObjectID]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	now := s.now()
	var issues []Issue
	kept := cart.Items[:0]
	changed := false

	for _, item := range cart.Items {
		product, ok := byID[item.ProductID]
		if !ok || product.Status != models.ProductActive {
			issues = append(issues, Issue{
				ProductID: item.ProductID,
				Reason:    IssueUnavailable,
				Message:   "Product is no longer available",
			})
			changed = true
			continue
		}

		if product.Stock < item.Quantity {
			issues = append(issues, Issue{
				ProductID: item.ProductID,
				Reason:    IssueOutOfStock,
				Message:   fmt.Sprintf("Only %d left in stock", product.Stock),
				Available: product.Stock,
			})
			if product.Stock == 0 {
				changed = true
				continue
			}
			item.Quantity = product.Stock
			changed = true
		}

		if price := product.DiscountedPrice(now); price != item.Price {
			issues = append(issues, Issue{
				ProductID: item.ProductID,
				Reason:    IssuePriceChanged,
				Message:   fmt.Sprintf("Price changed from %.2f to %.2f", item.Price, price),
			})
			item.Price = price
			changed = true
		}

		item.Product = product
		kept = append(kept, item)
	}
	cart.Items = kept

	if changed {
		cart.RecalculateTotals(now)
		if err := s.store.Save(ctx, cart); err != nil {
			return nil, fmt.Errorf("saving reconciled cart: %w", err)
		}
		if mutate {
			s.log.Debug("cart reconciled", "user", cart.UserID.Hex(), "issues", len(issues))
		}
	}
	return issues, nil
}

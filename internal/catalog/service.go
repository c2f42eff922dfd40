package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"shopapi/internal/models"
)

// ErrNotFound is returned when an operation targets a product that does
// not exist.
var ErrNotFound = errors.New("product not found")

// ErrValidation wraps all input validation failures.
var ErrValidation = errors.New("invalid product input")

// ErrInsufficientStock is returned when a stock decrease would go below
// zero.
var ErrInsufficientStock = errors.New("insufficient stock")

const (
	defaultPageSize = 12
	maxPageSize     = 100
)

// sortFields whitelists the sortable columns. Anything else falls back to
// the default so clients cannot probe arbitrary fields.
var sortFields = map[string]bool{
	"createdAt":      true,
	"price":          true,
	"rating.average": true,
	"title":          true,
	"sales":          true,
	"views":          true,
}

// StockOp names a stock adjustment mode.
type StockOp string

const (
	StockSet      StockOp = "set"
	StockIncrease StockOp = "increase"
	StockDecrease StockOp = "decrease"
)

// Pagination describes one page of a listing.
type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalItems  int64 `json:"totalItems"`
	HasNext     bool  `json:"hasNext"`
	HasPrev     bool  `json:"hasPrev"`
}

// ListResult is a page of products plus the filter facets.
type ListResult struct {
	Products   []models.Product `json:"products"`
	Pagination Pagination       `json:"pagination"`
	Facets     Facets           `json:"facets"`
}

// CreateInput carries the fields accepted when creating a product.
type CreateInput struct {
	Title         string                `json:"title"`
	Description   string                `json:"description"`
	Price         float64               `json:"price"`
	OriginalPrice float64               `json:"originalPrice"`
	Category      string                `json:"category"`
	Brand         string                `json:"brand"`
	Images        []models.ProductImage `json:"images"`
	Stock         int                   `json:"stock"`
	SKU           string                `json:"sku"`
	Tags          []string              `json:"tags"`
	Discount      models.Discount       `json:"discount"`
	Featured      bool                  `json:"featured"`
	Trending      bool                  `json:"trending"`
}

// UpdateInput carries a partial update; nil fields are left unchanged.
type UpdateInput struct {
	Title         *string                `json:"title"`
	Description   *string                `json:"description"`
	Price         *float64               `json:"price"`
	OriginalPrice *float64               `json:"originalPrice"`
	Category      *string                `json:"category"`
	Brand         *string                `json:"brand"`
	Images        *[]models.ProductImage `json:"images"`
	Stock         *int                   `json:"stock"`
	Tags          *[]string              `json:"tags"`
	Discount      *models.Discount       `json:"discount"`
	Status        *models.ProductStatus  `json:"status"`
	Featured      *bool                  `json:"featured"`
	Trending      *bool                  `json:"trending"`
}

// Service implements the catalog operations on top of a Store.
type Service struct {
	store Store
	log   *slog.Logger
	now   func() time.Time
}

// NewService creates a catalog Service.
func NewService(store Store, log *slog.Logger) *Service {
	return &Service{store: store, log: log, now: time.Now}
}

// List returns one page of products matching the query, with facets. An
// unknown sort field falls back to newest-first; page and limit are
// clamped to sane bounds. Listings without an explicit status only show
// active products.
func (s *Service) List(ctx context.Context, q ListQuery) (*ListResult, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultPageSize
	}
	if q.Limit > maxPageSize {
		q.Limit = maxPageSize
	}
	if !sortFields[q.SortBy] {
		q.SortBy = "createdAt"
		q.SortAsc = false
	}
	if q.Status == "" {
		q.Status = models.ProductActive
	}

	products, total, err := s.store.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	facets, err := s.store.Facets(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading facets: %w", err)
	}

	totalPages := int((total + int64(q.Limit) - 1) / int64(q.Limit))
	if products == nil {
		products = []models.Product{}
	}
	return &ListResult{
		Products: products,
		Pagination: Pagination{
			CurrentPage: q.Page,
			TotalPages:  totalPages,
			TotalItems:  total,
			HasNext:     q.Page < totalPages,
			HasPrev:     q.Page > 1,
		},
		Facets: facets,
	}, nil
}

// Get loads one product and counts the view. The view increment is best
// effort; a failed counter update does not fail the read.
func (s *Service) Get(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	p, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading product: %w", err)
	}
	if p == nil {
		return nil, ErrNotFound
	}
	if err := s.store.IncrementViews(ctx, id); err != nil {
		s.log.Warn("view counter update failed", "product", id.Hex(), "error", err)
	} else {
		p.Views++
	}
	return p, nil
}

// Create validates and stores a new product. A missing SKU gets a
// generated one; products created with zero stock start out_of_stock.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Product, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if in.Price <= 0 {
		return nil, fmt.Errorf("%w: price must be positive", ErrValidation)
	}
	if !models.ValidCategory(in.Category) {
		return nil, fmt.Errorf("%w: unknown category %q", ErrValidation, in.Category)
	}
	if in.Stock < 0 {
		return nil, fmt.Errorf("%w: stock cannot be negative", ErrValidation)
	}
	if in.Discount.Percentage < 0 || in.Discount.Percentage > 100 {
		return nil, fmt.Errorf("%w: discount percentage out of range", ErrValidation)
	}
	if in.SKU == "" {
		in.SKU = "SKU-" + strings.ToUpper(uuid.NewString()[:8])
	}

	status := models.ProductActive
	if in.Stock == 0 {
		status = models.ProductOutOfStock
	}

	now := s.now()
	p := &models.Product{
		Title:         in.Title,
		Description:   in.Description,
		Price:         in.Price,
		OriginalPrice: in.OriginalPrice,
		Category:      in.Category,
		Brand:         in.Brand,
		Images:        in.Images,
		Stock:         in.Stock,
		SKU:           in.SKU,
		Tags:          in.Tags,
		Discount:      in.Discount,
		Status:        status,
		Featured:      in.Featured,
		Trending:      in.Trending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.Insert(ctx, p); err != nil {
		return nil, fmt.Errorf("creating product: %w", err)
	}
	s.log.Info("product created", "id", p.ID.Hex(), "title", p.Title, "sku", p.SKU)
	return p, nil
}

// Update applies a partial update to a product.
func (s *Service) Update(ctx context.Context, id primitive.ObjectID, in UpdateInput) (*models.Product, error) {
	p, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading product: %w", err)
	}
	if p == nil {
		return nil, ErrNotFound
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", ErrValidation)
		}
		p.Title = title
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Price != nil {
		if *in.Price <= 0 {
			return nil, fmt.Errorf("%w: price must be positive", ErrValidation)
		}
		p.Price = *in.Price
	}
	if in.OriginalPrice != nil {
		p.OriginalPrice = *in.OriginalPrice
	}
	if in.Category != nil {
		if !models.ValidCategory(*in.Category) {
			return nil, fmt.Errorf("%w: unknown category %q", ErrValidation, *in.Category)
		}
		p.Category = *in.Category
	}
	if in.Brand != nil {
		p.Brand = *in.Brand
	}
	if in.Images != nil {
		p.Images = *in.Images
	}
	if in.Stock != nil {
		if *in.Stock < 0 {
			return nil, fmt.Errorf("%w: stock cannot be negative", ErrValidation)
		}
		p.Stock = *in.Stock
		s.applyStockStatus(p)
	}
	if in.Tags != nil {
		p.Tags = *in.Tags
	}
	if in.Discount != nil {
		if in.Discount.Percentage < 0 || in.Discount.Percentage > 100 {
			return nil, fmt.Errorf("%w: discount percentage out of range", ErrValidation)
		}
		p.Discount = *in.Discount
	}
	if in.Status != nil {
		p.Status = *in.Status
	}
	if in.Featured != nil {
		p.Featured = *in.Featured
	}
	if in.Trending != nil {
		p.Trending = *in.Trending
	}

	p.UpdatedAt = s.now()
	if err := s.store.Replace(ctx, p); err != nil {
		return nil, fmt.Errorf("updating product: %w", err)
	}
	return p, nil
}

// Delete removes a product from the catalog.
func (s *Service) Delete(ctx context.Context, id primitive.ObjectID) error {
	p, err := s.store.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("loading product: %w", err)
	}
	if p == nil {
		return ErrNotFound
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting product: %w", err)
	}
	s.log.Info("product deleted", "id", id.Hex(), "title", p.Title)
	return nil
}

// Featured returns up to limit featured active products, newest first.
func (s *Service) Featured(ctx context.Context, limit int) ([]models.Product, error) {
	return s.flagged(ctx, limit, func(q *ListQuery) {
		t := true
		q.Featured = &t
	})
}

// Trending returns up to limit trending active products, best sellers
// first.
func (s *Service) Trending(ctx context.Context, limit int) ([]models.Product, error) {
	return s.flagged(ctx, limit, func(q *ListQuery) {
		t := true
		q.Trending = &t
		q.SortBy = "sales"
	})
}

func (s *Service) flagged(ctx context.Context, limit int, apply func(*ListQuery)) ([]models.Product, error) {
	if limit < 1 || limit > maxPageSize {
		limit = defaultPageSize
	}
	q := ListQuery{
		Status: models.ProductActive,
		SortBy: "createdAt",
		Page:   1,
		Limit:  limit,
	}
	apply(&q)
	products, _, err := s.store.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}

// AdjustStock sets, increases, or decreases a product's stock level.
// Hitting zero moves an active product to out_of_stock; leaving zero
// moves it back to active. Discontinued products are never resurrected.
func (s *Service) AdjustStock(ctx context.Context, id primitive.ObjectID, op StockOp, quantity int) (*models.Product, error) {
	if quantity < 0 {
		return nil, fmt.Errorf("%w: quantity cannot be negative", ErrValidation)
	}

	p, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading product: %w", err)
	}
	if p == nil {
		return nil, ErrNotFound
	}

	switch op {
	case StockSet:
		p.Stock = quantity
	case StockIncrease:
		p.Stock += quantity
	case StockDecrease:
		if p.Stock < quantity {
			return nil, fmt.Errorf("%w: have %d, requested %d", ErrInsufficientStock, p.Stock, quantity)
		}
		p.Stock -= quantity
	default:
		return nil, fmt.Errorf("%w: unknown stock operation %q", ErrValidation, op)
	}

	s.applyStockStatus(p)
	p.UpdatedAt = s.now()
	if err := s.store.Replace(ctx, p); err != nil {
		return nil, fmt.Errorf("adjusting stock: %w", err)
	}
	return p, nil
}

func (s *Service) applyStockStatus(p *models.Product) {
	switch {
	case p.Stock == 0 && p.Status == models.ProductActive:
		p.Status = models.ProductOutOfStock
	case p.Stock > 0 && p.Status == models.ProductOutOfStock:
		p.Status = models.ProductActive
	}
}

package catalog

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"shopapi/internal/models"
)

func newTestCatalog(t *testing.T) (*Service, *MemoryStore, *time.Time) {
	t.Helper()
	store := NewMemoryStore()
	svc := NewService(store, slog.New(slog.NewTextHandler(io.Discard, nil)))

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	return svc, store, &now
}

func seedProduct(t *testing.T, svc *Service, now *time.Time, in CreateInput) *models.Product {
	t.Helper()
	p, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	*now = now.Add(time.Minute) // keep createdAt ordering distinct
	return p
}

func TestCreateDefaults(t *testing.T) {
	svc, _, now := newTestCatalog(t)

	p := seedProduct(t, svc, now, CreateInput{
		Title:    "Wireless Mouse",
		Price:    29.99,
		Category: "Electronics",
		Stock:    10,
	})
	assert.Equal(t, models.ProductActive, p.Status)
	assert.NotEmpty(t, p.SKU, "missing SKU gets a generated one")

	empty := seedProduct(t, svc, now, CreateInput{
		Title:    "Sold Out Thing",
		Price:    5,
		Category: "Books",
		Stock:    0,
	})
	assert.Equal(t, models.ProductOutOfStock, empty.Status)
}

func TestCreateValidation(t *testing.T) {
	svc, _, _ := newTestCatalog(t)
	ctx := context.Background()

	cases := []CreateInput{
		{Title: "", Price: 10, Category: "Books"},
		{Title: "No Price", Price: 0, Category: "Books"},
		{Title: "Bad Category", Price: 10, Category: "Gadgets"},
		{Title: "Negative Stock", Price: 10, Category: "Books", Stock: -1},
		{Title: "Silly Discount", Price: 10, Category: "Books", Discount: models.Discount{Percentage: 150}},
	}
	for _, in := range cases {
		_, err := svc.Create(ctx, in)
		assert.ErrorIs(t, err, ErrValidation, "input %+v", in)
	}
}

func TestListFiltersAndPaginates(t *testing.T) {
	svc, _, now := newTestCatalog(t)
	ctx := context.Background()

	seedProduct(t, svc, now, CreateInput{Title: "Phone", Price: 500, Category: "Electronics", Brand: "Acme", Stock: 5})
	seedProduct(t, svc, now, CreateInput{Title: "Laptop", Price: 1200, Category: "Electronics", Brand: "Zenith", Stock: 3})
	seedProduct(t, svc, now, CreateInput{Title: "Novel", Price: 15, Category: "Books", Brand: "", Stock: 8})
	seedProduct(t, svc, now, CreateInput{Title: "Gone", Price: 10, Category: "Books", Stock: 0})

	res, err := svc.List(ctx, ListQuery{})
	require.NoError(t, err)
	assert.Len(t, res.Products, 3, "default listing hides non-active products")
	assert.Equal(t, int64(3), res.Pagination.TotalItems)
	assert.Equal(t, []string{"Books", "Electronics"}, res.Facets.Categories)
	assert.Equal(t, []string{"Acme", "Zenith"}, res.Facets.Brands)

	res, err = svc.List(ctx, ListQuery{Category: "Electronics"})
	require.NoError(t, err)
	assert.Len(t, res.Products, 2)

	min := 100.0
	res, err = svc.List(ctx, ListQuery{MinPrice: &min, SortBy: "price", SortAsc: true})
	require.NoError(t, err)
	require.Len(t, res.Products, 2)
	assert.Equal(t, "Phone", res.Products[0].Title)
	assert.Equal(t, "Laptop", res.Products[1].Title)

	res, err = svc.List(ctx, ListQuery{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, res.Products, 2)
	assert.Equal(t, 2, res.Pagination.TotalPages)
	assert.True(t, res.Pagination.HasNext)
	assert.False(t, res.Pagination.HasPrev)

	res, err = svc.List(ctx, ListQuery{Limit: 2, Page: 2})
	require.NoError(t, err)
	assert.Len(t, res.Products, 1)
	assert.False(t, res.Pagination.HasNext)
	assert.True(t, res.Pagination.HasPrev)
}

func TestListSortWhitelist(t *testing.T) {
	svc, _, now := newTestCatalog(t)
	ctx := context.Background()

	seedProduct(t, svc, now, CreateInput{Title: "Old", Price: 10, Category: "Books", Stock: 1})
	seedProduct(t, svc, now, CreateInput{Title: "New", Price: 10, Category: "Books", Stock: 1})

	// An unknown sort field falls back to newest-first instead of erroring.
	res, err := svc.List(ctx, ListQuery{SortBy: "__proto__", SortAsc: true})
	require.NoError(t, err)
	require.Len(t, res.Products, 2)
	assert.Equal(t, "New", res.Products[0].Title)
}

func TestGetIncrementsViews(t *testing.T) {
	svc, store, now := newTestCatalog(t)
	ctx := context.Background()

	p := seedProduct(t, svc, now, CreateInput{Title: "Phone", Price: 500, Category: "Electronics", Stock: 5})

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Views)

	stored, err := store.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Views)

	_, err = svc.Get(ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdatePartial(t *testing.T) {
	svc, _, now := newTestCatalog(t)
	ctx := context.Background()

	p := seedProduct(t, svc, now, CreateInput{Title: "Phone", Price: 500, Category: "Electronics", Stock: 5})

	newPrice := 450.0
	updated, err := svc.Update(ctx, p.ID, UpdateInput{Price: &newPrice})
	require.NoError(t, err)
	assert.Equal(t, 450.0, updated.Price)
	assert.Equal(t, "Phone", updated.Title, "unset fields stay untouched")

	badCategory := "Gadgets"
	_, err = svc.Update(ctx, p.ID, UpdateInput{Category: &badCategory})
	assert.ErrorIs(t, err, ErrValidation)

	zero := 0
	updated, err = svc.Update(ctx, p.ID, UpdateInput{Stock: &zero})
	require.NoError(t, err)
	assert.Equal(t, models.ProductOutOfStock, updated.Status)
}

func TestDelete(t *testing.T) {
	svc, _, now := newTestCatalog(t)
	ctx := context.Background()

	p := seedProduct(t, svc, now, CreateInput{Title: "Phone", Price: 500, Category: "Electronics", Stock: 5})
	require.NoError(t, svc.Delete(ctx, p.ID))

	_, err := svc.Get(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, p.ID), ErrNotFound)
}

func TestAdjustStock(t *testing.T) {
	svc, _, now := newTestCatalog(t)
	ctx := context.Background()

	p := seedProduct(t, svc, now, CreateInput{Title: "Phone", Price: 500, Category: "Electronics", Stock: 5})

	updated, err := svc.AdjustStock(ctx, p.ID, StockDecrease, 5)
	require.NoError(t, err)
	assert.Zero(t, updated.Stock)
	assert.Equal(t, models.ProductOutOfStock, updated.Status)

	_, err = svc.AdjustStock(ctx, p.ID, StockDecrease, 1)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	updated, err = svc.AdjustStock(ctx, p.ID, StockIncrease, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Stock)
	assert.Equal(t, models.ProductActive, updated.Status, "restock reactivates")

	updated, err = svc.AdjustStock(ctx, p.ID, StockSet, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, updated.Stock)

	_, err = svc.AdjustStock(ctx, p.ID, StockOp("divide"), 2)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAdjustStockKeepsDiscontinued(t *testing.T) {
	svc, _, now := newTestCatalog(t)
	ctx := context.Background()

	p := seedProduct(t, svc, now, CreateInput{Title: "Relic", Price: 9, Category: "Books", Stock: 2})
	status := models.ProductDiscontinued
	_, err := svc.Update(ctx, p.ID, UpdateInput{Status: &status})
	require.NoError(t, err)

	updated, err := svc.AdjustStock(ctx, p.ID, StockIncrease, 10)
	require.NoError(t, err)
	assert.Equal(t, models.ProductDiscontinued, updated.Status)
}

func TestFeaturedAndTrending(t *testing.T) {
	svc, _, now := newTestCatalog(t)
	ctx := context.Background()

	seedProduct(t, svc, now, CreateInput{Title: "Plain", Price: 10, Category: "Books", Stock: 1})
	seedProduct(t, svc, now, CreateInput{Title: "Star", Price: 10, Category: "Books", Stock: 1, Featured: true})
	hot := seedProduct(t, svc, now, CreateInput{Title: "Hot", Price: 10, Category: "Books", Stock: 1, Trending: true})

	featured, err := svc.Featured(ctx, 10)
	require.NoError(t, err)
	require.Len(t, featured, 1)
	assert.Equal(t, "Star", featured[0].Title)

	trending, err := svc.Trending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, trending, 1)
	assert.Equal(t, hot.ID, trending[0].ID)
}

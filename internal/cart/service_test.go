package cart

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"shopapi/internal/catalog"
	"shopapi/internal/models"
)

func newTestCart(t *testing.T) (*Service, *catalog.MemoryStore, *time.Time) {
	t.Helper()
	products := catalog.NewMemoryStore()
	store := NewMemoryStore()
	svc := NewService(store, products, slog.New(slog.NewTextHandler(io.Discard, nil)))

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	return svc, products, &now
}

func seedProduct(t *testing.T, products *catalog.MemoryStore, p models.Product) *models.Product {
	t.Helper()
	if p.Status == "" {
		p.Status = models.ProductActive
	}
	require.NoError(t, products.Insert(context.Background(), &p))
	return &p
}

func TestAddAndGet(t *testing.T) {
	svc, products, _ := newTestCart(t)
	ctx := context.Background()
	userID := primitive.NewObjectID()

	phone := seedProduct(t, products, models.Product{Title: "Phone", Price: 499.99, Stock: 10})

	cart, err := svc.Add(ctx, userID, phone.ID, 2)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Equal(t, 499.99, cart.Items[0].Price)
	assert.Equal(t, 999.98, cart.TotalAmount)
	assert.Equal(t, 2, cart.TotalItems)

	// Adding the same product merges quantities.
	cart, err = svc.Add(ctx, userID, phone.ID, 3)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity)

	got, err := svc.Get(ctx, userID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	require.NotNil(t, got.Items[0].Product)
	assert.Equal(t, "Phone", got.Items[0].Product.Title)
}

func TestAddCapturesDiscountedPrice(t *testing.T) {
	svc, products, _ := newTestCart(t)
	ctx := context.Background()
	userID := primitive.NewObjectID()

	sale := seedProduct(t, products, models.Product{
		Title:    "Sale Item",
		Price:    100,
		Stock:    5,
		Discount: models.Discount{Percentage: 25},
	})

	cart, err := svc.Add(ctx, userID, sale.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 75.0, cart.Items[0].Price)
	assert.Equal(t, 75.0, cart.TotalAmount)
}

func TestAddRejectsBadInput(t *testing.T) {
	svc, products, _ := newTestCart(t)
	ctx := context.Background()
	userID := primitive.NewObjectID()

	phone := seedProduct(t, products, models.Product{Title: "Phone", Price: 10, Stock: 3})
	inactive := seedProduct(t, products, models.Product{Title: "Hidden", Price: 10, Stock: 3, Status: models.ProductInactive})

	_, err := svc.Add(ctx, userID, phone.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.Add(ctx, userID, phone.ID, models.MaxItemQuantity+1)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.Add(ctx, userID, primitive.NewObjectID(), 1)
	assert.ErrorIs(t, err, ErrProductUnavailable)

	_, err = svc.Add(ctx, userID, inactive.ID, 1)
	assert.ErrorIs(t, err, ErrProductUnavailable)

	_, err = svc.Add(ctx, userID, phone.ID, 4)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	// Merging past the per-item cap is rejected too.
	_, err = svc.Add(ctx, userID, phone.ID, 2)
	require.NoError(t, err)
	_, err = svc.Add(ctx, userID, phone.ID, models.MaxItemQuantity-1)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestUpdateQuantity(t *testing.T) {
	svc, products, _ := newTestCart(t)
	ctx := context.Background()
	userID := primitive.NewObjectID()

	phone := seedProduct(t, products, models.Product{Title: "Phone", Price: 10, Stock: 10})
	_, err := svc.Add(ctx, userID, phone.ID, 2)
	require.NoError(t, err)

	cart, err := svc.UpdateQuantity(ctx, userID, phone.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, cart.Items[0].Quantity)
	assert.Equal(t, 50.0, cart.TotalAmount)

	_, err = svc.UpdateQuantity(ctx, userID, phone.ID, 11)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	_, err = svc.UpdateQuantity(ctx, userID, primitive.NewObjectID(), 1)
	assert.ErrorIs(t, err, ErrItemNotFound)

	// Zero removes the entry.
	cart, err = svc.UpdateQuantity(ctx, userID, phone.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Zero(t, cart.TotalItems)
}

func TestRemoveAndClear(t *testing.T) {
	svc, products, _ := newTestCart(t)
	ctx := context.Background()
	userID := primitive.NewObjectID()

	phone := seedProduct(t, products, models.Product{Title: "Phone", Price: 10, Stock: 10})
	book := seedProduct(t, products, models.Product{Title: "Book", Price: 5, Stock: 10})
	_, err := svc.Add(ctx, userID, phone.ID, 1)
	require.NoError(t, err)
	_, err = svc.Add(ctx, userID, book.ID, 2)
	require.NoError(t, err)

	cart, err := svc.Remove(ctx, userID, phone.ID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, book.ID, cart.Items[0].ProductID)

	_, err = svc.Remove(ctx, userID, phone.ID)
	assert.ErrorIs(t, err, ErrItemNotFound)

	cart, err = svc.Clear(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Zero(t, cart.TotalAmount)
}

func TestCount(t *testing.T) {
	svc, products, _ := newTestCart(t)
	ctx := context.Background()
	userID := primitive.NewObjectID()

	n, err := svc.Count(ctx, userID)
	require.NoError(t, err)
	assert.Zero(t, n, "no cart yet counts as zero")

	phone := seedProduct(t, products, models.Product{Title: "Phone", Price: 10, Stock: 10})
	_, err = svc.Add(ctx, userID, phone.ID, 3)
	require.NoError(t, err)

	n, err = svc.Count(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestGetReconcilesCart(t *testing.T) {
	svc, products, _ := newTestCart(t)
	ctx := context.Background()
	userID := primitive.NewObjectID()

	phone := seedProduct(t, products, models.Product{Title: "Phone", Price: 100, Stock: 10})
	book := seedProduct(t, products, models.Product{Title: "Book", Price: 5, Stock: 10})
	_, err := svc.Add(ctx, userID, phone.ID, 4)
	require.NoError(t, err)
	_, err = svc.Add(ctx, userID, book.ID, 1)
	require.NoError(t, err)

	// Catalog shifts under the cart: the phone's stock drops and its price
	// falls, the book is retired entirely.
	phone.Stock = 2
	phone.Price = 80
	require.NoError(t, products.Replace(ctx, phone))
	book.Status = models.ProductInactive
	require.NoError(t, products.Replace(ctx, book))

	cart, err := svc.Get(ctx, userID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, phone.ID, cart.Items[0].ProductID)
	assert.Equal(t, 2, cart.Items[0].Quantity, "quantity clamped to stock")
	assert.Equal(t, 80.0, cart.Items[0].Price, "price refreshed")
	assert.Equal(t, 160.0, cart.TotalAmount)
}

func TestValidateReportsIssues(t *testing.T) {
	svc, products, _ := newTestCart(t)
	ctx := context.Background()
	userID := primitive.NewObjectID()

	phone := seedProduct(t, products, models.Product{Title: "Phone", Price: 100, Stock: 10})
	book := seedProduct(t, products, models.Product{Title: "Book", Price: 5, Stock: 10})
	_, err := svc.Add(ctx, userID, phone.ID, 4)
	require.NoError(t, err)
	_, err = svc.Add(ctx, userID, book.ID, 1)
	require.NoError(t, err)

	_, issues, err := svc.Validate(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, issues, "clean cart validates with no issues")

	phone.Stock = 2
	require.NoError(t, products.Replace(ctx, phone))
	require.NoError(t, products.Delete(ctx, book.ID))

	cart, issues, err := svc.Validate(ctx, userID)
	require.NoError(t, err)
	require.Len(t, issues, 2)

	byReason := map[string]Issue{}
	for _, issue := range issues {
		byReason[issue.Reason] = issue
	}
	assert.Equal(t, book.ID, byReason[IssueUnavailable].ProductID)
	assert.Equal(t, phone.ID, byReason[IssueOutOfStock].ProductID)
	assert.Equal(t, 2, byReason[IssueOutOfStock].Available)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
}

func TestRoundingToCents(t *testing.T) {
	svc, products, _ := newTestCart(t)
	ctx := context.Background()
	userID := primitive.NewObjectID()

	// 3 x 0.1 would be 0.30000000000000004 in raw float math.
	item := seedProduct(t, products, models.Product{Title: "Penny Candy", Price: 0.1, Stock: 10})
	cart, err := svc.Add(ctx, userID, item.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 0.3, cart.TotalAmount)
}

package catalog

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"shopapi/internal/models"
)

// ListQuery describes one catalog listing request after validation.
// Pointer fields are absent filters.
type ListQuery struct {
	Category string
	Brands   []string
	MinPrice *float64
	MaxPrice *float64
	Search   string
	Featured *bool
	Trending *bool
	Status   models.ProductStatus

	SortBy  string
	SortAsc bool
	Page    int
	Limit   int
}

func (q ListQuery) offset() int {
	return (q.Page - 1) * q.Limit
}

// Facets are the distinct filter values across the catalog, returned
// alongside listings so clients can build filter menus.
type Facets struct {
	Categories []string `json:"categories"`
	Brands     []string `json:"brands"`
}

// Store persists catalog entries. Lookups return (nil, nil) when no
// product matches.
type Store interface {
	Insert(ctx context.Context, p *models.Product) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error)
	Replace(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	List(ctx context.Context, q ListQuery) ([]models.Product, int64, error)
	Facets(ctx context.Context) (Facets, error)
	IncrementViews(ctx context.Context, id primitive.ObjectID) error
}

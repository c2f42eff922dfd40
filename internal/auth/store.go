package auth

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"shopapi/internal/models"
)

// UserStore persists user accounts. Lookups return (nil, nil) when no
// account matches.
type UserStore interface {
	Insert(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	Update(ctx context.Context, user *models.User) error

	// List returns a page of accounts ordered newest first, plus the
	// total account count.
	List(ctx context.Context, offset, limit int64) ([]models.User, int64, error)
}

package cart

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"shopapi/internal/models"
)

// Store persists carts, one per user. FindByUser returns (nil, nil) when
// the user has no cart yet.
type Store interface {
	FindByUser(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error)
	Save(ctx context.Context, cart *models.Cart) error
	Delete(ctx context.Context, userID primitive.ObjectID) error
}

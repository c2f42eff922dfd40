package cart

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"shopapi/internal/models"
)

// MongoStore implements Store on a MongoDB collection.
type MongoStore struct {
	col *mongo.Collection
}

// NewMongoStore creates a MongoStore backed by the given collection.
func NewMongoStore(col *mongo.Collection) *MongoStore {
	return &MongoStore{col: col}
}

func (s *MongoStore) FindByUser(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	var cart models.Cart
	err := s.col.FindOne(ctx, bson.M{"user": userID}).Decode(&cart)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// Save upserts on the user key so the one-cart-per-user invariant holds
// even when the cart was created concurrently.
func (s *MongoStore) Save(ctx context.Context, cart *models.Cart) error {
	opts := options.Replace().SetUpsert(true)
	res, err := s.col.ReplaceOne(ctx, bson.M{"user": cart.UserID}, cart, opts)
	if err != nil {
		return err
	}
	if id, ok := res.UpsertedID.(primitive.ObjectID); ok {
		cart.ID = id
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, userID primitive.ObjectID) error {
	_, err := s.col.DeleteOne(ctx, bson.M{"user": userID})
	return err
}

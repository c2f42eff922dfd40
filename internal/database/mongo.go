package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Connect establishes a connection to MongoDB and verifies it with a ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctxPing, nil); err != nil {
		return nil, err
	}
	return client, nil
}

// Users returns the users collection.
func Users(client *mongo.Client, db string) *mongo.Collection {
	return client.Database(db).Collection("users")
}

// Codes returns the one-time code collection.
func Codes(client *mongo.Client, db string) *mongo.Collection {
	return client.Database(db).Collection("otps")
}

// Products returns the product catalog collection.
func Products(client *mongo.Client, db string) *mongo.Collection {
	return client.Database(db).Collection("products")
}

// Carts returns the cart collection.
func Carts(client *mongo.Client, db string) *mongo.Collection {
	return client.Database(db).Collection("carts")
}

// EnsureIndexes creates the indexes the service relies on. The TTL index on
// otps.expiresAt removes expired codes server-side, in addition to the
// hourly sweep run by the service itself.
func EnsureIndexes(ctx context.Context, client *mongo.Client, db string) error {
	unique := options.Index().SetUnique(true)

	_, err := Users(client, db).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: unique,
	})
	if err != nil {
		return err
	}

	_, err = Codes(client, db).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}, {Key: "purpose", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "expiresAt", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
	})
	if err != nil {
		return err
	}

	_, err = Products(client, db).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "price", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "sku", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
		{Keys: bson.D{{Key: "title", Value: "text"}, {Key: "description", Value: "text"}, {Key: "brand", Value: "text"}}},
	})
	if err != nil {
		return err
	}

	_, err = Carts(client, db).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user", Value: 1}},
		Options: unique,
	})
	return err
}

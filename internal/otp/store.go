package otp

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"shopapi/internal/models"
)

// Store persists one-time code records. Lookups that match nothing return
// (nil, nil).
type Store interface {
	// Insert saves a new record.
	Insert(ctx context.Context, code *models.OneTimeCode) error

	// LatestUnused returns the most recently created unused record for the
	// (email, purpose) pair.
	LatestUnused(ctx context.Context, email string, purpose models.Purpose) (*models.OneTimeCode, error)

	// LatestSince returns the most recent record for the pair created at or
	// after the given instant, used or not. It backs the resend cooldown.
	LatestSince(ctx context.Context, email string, purpose models.Purpose, since time.Time) (*models.OneTimeCode, error)

	// IncrementAttempts adds one failed attempt to the record.
	IncrementAttempts(ctx context.Context, id primitive.ObjectID) error

	// MarkUsed flips the record to used. The transition is one-way.
	MarkUsed(ctx context.Context, id primitive.ObjectID) error

	// DeleteByID removes a single record.
	DeleteByID(ctx context.Context, id primitive.ObjectID) error

	// DeleteAll removes every record for the pair and returns the count.
	DeleteAll(ctx context.Context, email string, purpose models.Purpose) (int64, error)

	// DeleteExpired removes every record whose expiry has passed and
	// returns the count.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

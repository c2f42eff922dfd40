package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxLoginAttempts is the number of failed logins after which an account
// is locked.
const MaxLoginAttempts = 5

// LockDuration is how long an account stays locked once the attempt limit
// is reached.
const LockDuration = 2 * time.Hour

// TwoFactor holds the optional TOTP configuration for a user.
type TwoFactor struct {
	Enabled bool   `bson:"enabled" json:"enabled"`
	Secret  string `bson:"secret,omitempty" json:"-"`
}

// User represents a registered account. Accounts are never hard-deleted;
// deactivation sets IsActive to false.
type User struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email           string             `bson:"email" json:"email"`
	Name            string             `bson:"name,omitempty" json:"name,omitempty"`
	IsEmailVerified bool               `bson:"isEmailVerified" json:"isEmailVerified"`
	IsActive        bool               `bson:"isActive" json:"isActive"`
	LoginAttempts   int                `bson:"loginAttempts,omitempty" json:"-"`
	LockUntil       *time.Time         `bson:"lockUntil,omitempty" json:"-"`
	LastLogin       *time.Time         `bson:"lastLogin,omitempty" json:"lastLogin,omitempty"`
	TwoFactor       TwoFactor          `bson:"twoFactor,omitempty" json:"twoFactor"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// IsLocked reports whether the account is inside a lockout window at the
// given instant.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockUntil != nil && now.Before(*u.LockUntil)
}

package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Purpose scopes a one-time code to the flow that requested it.
type Purpose string

const (
	PurposeSignup Purpose = "signup"
	PurposeLogin  Purpose = "login"
)

// Valid reports whether p is one of the known purposes.
func (p Purpose) Valid() bool {
	return p == PurposeSignup || p == PurposeLogin
}

// CodeLength is the number of digits in a one-time code.
const CodeLength = 6

// MaxCodeAttempts is the number of wrong guesses allowed before a code
// becomes permanently unattemptable.
const MaxCodeAttempts = 3

// CodeTTL is the validity window of a freshly issued code.
const CodeTTL = 10 * time.Minute

// ResendCooldown is the minimum gap between two issuances for the same
// (email, purpose) pair.
const ResendCooldown = 2 * time.Minute

// OneTimeCode is a single emailed verification code. At most one usable
// record is authoritative per (email, purpose); issuing a new code deletes
// all earlier records for the pair.
type OneTimeCode struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	Email     string             `bson:"email" json:"email"`
	Code      string             `bson:"code" json:"-"`
	Purpose   Purpose            `bson:"purpose" json:"purpose"`
	Attempts  int                `bson:"attempts" json:"-"`
	Used      bool               `bson:"used" json:"-"`
	ExpiresAt time.Time          `bson:"expiresAt" json:"expiresAt"`
	CreatedAt time.Time          `bson:"createdAt" json:"-"`
}

// IsExpired reports whether the code's validity window has elapsed.
func (c *OneTimeCode) IsExpired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// CanAttempt reports whether a verification attempt against this record is
// still allowed.
func (c *OneTimeCode) CanAttempt(now time.Time) bool {
	return c.Attempts < MaxCodeAttempts && !c.Used && !c.IsExpired(now)
}

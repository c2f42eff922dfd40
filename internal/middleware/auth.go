package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"shopapi/internal/auth"
	"shopapi/internal/handlers/respond"
	"shopapi/internal/models"
)

// Auth verifies bearer tokens and loads the authenticated user onto the
// request context.
type Auth struct {
	svc *auth.Service
}

// NewAuth creates the auth middleware around the account service.
func NewAuth(svc *auth.Service) *Auth {
	return &Auth{svc: svc}
}

// Require rejects requests without a valid access token for an existing,
// active account. Every failure is a plain 401; the reason is not leaked.
func (a *Auth) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := a.authenticate(r)
		if !ok {
			respond.Error(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
	})
}

// Optional loads the user when a valid token is present but lets
// anonymous requests through.
func (a *Auth) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, ok := a.authenticate(r); ok {
			r = r.WithContext(withUser(r.Context(), user))
		}
		next.ServeHTTP(w, r)
	})
}

func (a *Auth) authenticate(r *http.Request) (*models.User, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return nil, false
	}

	userID, err := a.svc.Tokens().VerifyAccess(token)
	if err != nil {
		return nil, false
	}
	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, false
	}

	user, err := a.svc.GetUser(r.Context(), id)
	if err != nil || !user.IsActive {
		return nil, false
	}
	return user, true
}

func withUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the authenticated user set by Require or
// Optional, or nil for anonymous requests.
func UserFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(userKey).(*models.User)
	return user
}

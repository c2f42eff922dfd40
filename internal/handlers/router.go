package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"shopapi/internal/handlers/respond"
	"shopapi/internal/middleware"
)

// Router builds the API route table. The rate limiter may be nil, in
// which case no throttling is applied (tests run without Redis).
func Router(authH *AuthHandler, productH *ProductHandler, cartH *CartHandler, authMW *middleware.Auth, limiter *middleware.RateLimiter, log *slog.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recover(log))
	r.Use(middleware.LimitBody)
	if limiter != nil {
		r.Use(limiter.Limit(middleware.LimitAPI))
	}

	// Unmatched routes and method mismatches get the JSON envelope too.
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respond.Error(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respond.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		respond.OK(w, "ok", nil)
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	// Authentication flows. The heavier limits guard the endpoints that
	// send email or mint tokens.
	authR := api.PathPrefix("/auth").Subrouter()
	authR.Handle("/signup/otp", limited(limiter, middleware.LimitSignup, http.HandlerFunc(authH.SendSignupOTP))).Methods(http.MethodPost)
	authR.Handle("/signup/verify", limited(limiter, middleware.LimitLogin, http.HandlerFunc(authH.VerifySignupOTP))).Methods(http.MethodPost)
	authR.Handle("/login/otp", limited(limiter, middleware.LimitOTP, http.HandlerFunc(authH.SendLoginOTP))).Methods(http.MethodPost)
	authR.Handle("/login/verify", limited(limiter, middleware.LimitLogin, http.HandlerFunc(authH.VerifyLoginOTP))).Methods(http.MethodPost)
	authR.Handle("/resend", limited(limiter, middleware.LimitOTP, http.HandlerFunc(authH.ResendOTP))).Methods(http.MethodPost)
	authR.Handle("/refresh", limited(limiter, middleware.LimitTokens, http.HandlerFunc(authH.Refresh))).Methods(http.MethodPost)

	authR.Handle("/me", authMW.Require(http.HandlerFunc(authH.Me))).Methods(http.MethodGet)
	authR.Handle("/me", limited(limiter, middleware.LimitProfile, authMW.Require(http.HandlerFunc(authH.UpdateMe)))).Methods(http.MethodPut)
	authR.Handle("/me", authMW.Require(http.HandlerFunc(authH.DeactivateMe))).Methods(http.MethodDelete)
	authR.Handle("/logout", authMW.Require(http.HandlerFunc(authH.Logout))).Methods(http.MethodPost)
	authR.Handle("/2fa/setup", authMW.Require(http.HandlerFunc(authH.SetupTwoFactor))).Methods(http.MethodPost)
	authR.Handle("/2fa/confirm", authMW.Require(http.HandlerFunc(authH.ConfirmTwoFactor))).Methods(http.MethodPost)
	authR.Handle("/2fa/disable", authMW.Require(http.HandlerFunc(authH.DisableTwoFactor))).Methods(http.MethodPost)

	// User administration.
	api.Handle("/users", authMW.Require(http.HandlerFunc(authH.ListUsers))).Methods(http.MethodGet)
	api.Handle("/users", authMW.Require(http.HandlerFunc(authH.CreateUser))).Methods(http.MethodPost)

	// Catalog. Reads are public; writes need an authenticated user.
	api.HandleFunc("/products", productH.List).Methods(http.MethodGet)
	api.HandleFunc("/products/featured", productH.Featured).Methods(http.MethodGet)
	api.HandleFunc("/products/trending", productH.Trending).Methods(http.MethodGet)
	api.HandleFunc("/products/{id}", productH.Get).Methods(http.MethodGet)
	api.Handle("/products", authMW.Require(http.HandlerFunc(productH.Create))).Methods(http.MethodPost)
	api.Handle("/products/{id}", authMW.Require(http.HandlerFunc(productH.Update))).Methods(http.MethodPut)
	api.Handle("/products/{id}", authMW.Require(http.HandlerFunc(productH.Delete))).Methods(http.MethodDelete)
	api.Handle("/products/{id}/stock", authMW.Require(http.HandlerFunc(productH.AdjustStock))).Methods(http.MethodPatch)

	// Cart, all behind auth.
	api.Handle("/cart", authMW.Require(http.HandlerFunc(cartH.Get))).Methods(http.MethodGet)
	api.Handle("/cart", authMW.Require(http.HandlerFunc(cartH.Clear))).Methods(http.MethodDelete)
	api.Handle("/cart/count", authMW.Require(http.HandlerFunc(cartH.Count))).Methods(http.MethodGet)
	api.Handle("/cart/validate", authMW.Require(http.HandlerFunc(cartH.Validate))).Methods(http.MethodPost)
	api.Handle("/cart/items", authMW.Require(http.HandlerFunc(cartH.Add))).Methods(http.MethodPost)
	api.Handle("/cart/items/{id}", authMW.Require(http.HandlerFunc(cartH.UpdateItem))).Methods(http.MethodPut)
	api.Handle("/cart/items/{id}", authMW.Require(http.HandlerFunc(cartH.RemoveItem))).Methods(http.MethodDelete)

	return r
}

func limited(limiter *middleware.RateLimiter, cfg middleware.LimitConfig, handler http.Handler) http.Handler {
	if limiter == nil {
		return handler
	}
	return limiter.Limit(cfg)(handler)
}

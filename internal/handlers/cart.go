package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"shopapi/internal/cart"
	"shopapi/internal/handlers/respond"
	"shopapi/internal/middleware"
)

// CartHandler serves the per-user cart endpoints. Every route requires an
// authenticated user.
type CartHandler struct {
	cart *cart.Service
	log  *slog.Logger
}

// NewCartHandler creates a CartHandler.
func NewCartHandler(svc *cart.Service, log *slog.Logger) *CartHandler {
	return &CartHandler{cart: svc, log: log}
}

// Get serves GET /api/cart.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	c, err := h.cart.Get(r.Context(), user.ID)
	if err != nil {
		h.internal(w, r, err)
		return
	}
	respond.OK(w, "", map[string]any{"cart": c})
}

// Add serves POST /api/cart/items.
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	productID, err := primitive.ObjectIDFromHex(req.ProductID)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid productId")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	user := middleware.UserFromContext(r.Context())
	c, err := h.cart.Add(r.Context(), user.ID, productID, req.Quantity)
	if err != nil {
		h.cartError(w, r, err)
		return
	}
	respond.OK(w, "Item added to cart", map[string]any{"cart": c})
}

// UpdateItem serves PUT /api/cart/items/{id}.
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Quantity int `json:"quantity"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	user := middleware.UserFromContext(r.Context())
	c, err := h.cart.UpdateQuantity(r.Context(), user.ID, productID, req.Quantity)
	if err != nil {
		h.cartError(w, r, err)
		return
	}
	respond.OK(w, "Cart updated", map[string]any{"cart": c})
}

// RemoveItem serves DELETE /api/cart/items/{id}.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathID(w, r)
	if !ok {
		return
	}
	user := middleware.UserFromContext(r.Context())
	c, err := h.cart.Remove(r.Context(), user.ID, productID)
	if err != nil {
		h.cartError(w, r, err)
		return
	}
	respond.OK(w, "Item removed from cart", map[string]any{"cart": c})
}

// Clear serves DELETE /api/cart.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	c, err := h.cart.Clear(r.Context(), user.ID)
	if err != nil {
		h.internal(w, r, err)
		return
	}
	respond.OK(w, "Cart cleared", map[string]any{"cart": c})
}

// Count serves GET /api/cart/count.
func (h *CartHandler) Count(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	n, err := h.cart.Count(r.Context(), user.ID)
	if err != nil {
		h.internal(w, r, err)
		return
	}
	respond.OK(w, "", map[string]any{"count": n})
}

// Validate serves POST /api/cart/validate, the checkout pre-flight.
func (h *CartHandler) Validate(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	c, issues, err := h.cart.Validate(r.Context(), user.ID)
	if err != nil {
		h.internal(w, r, err)
		return
	}
	message := "Cart is ready for checkout"
	if len(issues) > 0 {
		message = "Some items in your cart need attention"
	}
	respond.OK(w, message, map[string]any{
		"cart":   c,
		"issues": issues,
		"valid":  len(issues) == 0,
	})
}

func (h *CartHandler) cartError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, cart.ErrProductUnavailable):
		respond.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, cart.ErrItemNotFound):
		respond.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, cart.ErrInvalidQuantity), errors.Is(err, cart.ErrInsufficientStock):
		respond.Error(w, http.StatusBadRequest, err.Error())
	default:
		h.internal(w, r, err)
	}
}

func (h *CartHandler) internal(w http.ResponseWriter, r *http.Request, err error) {
	h.log.Error("request failed", "path", r.URL.Path, "requestId", middleware.RequestIDFromContext(r.Context()), "error", err)
	respond.Error(w, http.StatusInternalServerError, "Something went wrong")
}

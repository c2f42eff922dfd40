package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"shopapi/internal/auth"
	"shopapi/internal/handlers/respond"
	"shopapi/internal/otp"
)

// ListUsers returns a page of accounts, newest first.
func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	users, total, err := h.users.ListUsers(r.Context(), page, limit)
	if err != nil {
		h.internal(w, r, err)
		return
	}
	respond.OK(w, "", map[string]any{
		"users": users,
		"total": total,
	})
}

// CreateUser creates a verified account directly, bypassing the signup
// code flow.
func (h *AuthHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if !validEmail(req.Email) {
		respond.Error(w, http.StatusBadRequest, "A valid email address is required")
		return
	}

	user, err := h.users.CreateUser(r.Context(), otp.NormalizeEmail(req.Email), req.Name)
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			respond.Error(w, http.StatusBadRequest, "An account with this email already exists")
			return
		}
		h.internal(w, r, err)
		return
	}
	respond.Created(w, "User created", map[string]any{"user": user})
}

package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/mail"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"shopapi/internal/auth"
	"shopapi/internal/handlers/respond"
	"shopapi/internal/middleware"
	"shopapi/internal/models"
	"shopapi/internal/otp"
)

// AuthHandler serves the signup, login, session, and profile endpoints.
type AuthHandler struct {
	users *auth.Service
	codes *otp.Service
	log   *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(users *auth.Service, codes *otp.Service, log *slog.Logger) *AuthHandler {
	return &AuthHandler{users: users, codes: codes, log: log}
}

type emailRequest struct {
	Email string `json:"email"`
}

type verifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
	Name  string `json:"name"`
	TOTP  string `json:"totpCode"`
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func validEmail(address string) bool {
	if address == "" {
		return false
	}
	_, err := mail.ParseAddress(address)
	return err == nil
}

// SendSignupOTP issues a signup verification code. An address that already
// belongs to a verified account is rejected so signup cannot be used to
// probe logins.
func (h *AuthHandler) SendSignupOTP(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !validEmail(req.Email) {
		respond.Error(w, http.StatusBadRequest, "A valid email address is required")
		return
	}
	email := otp.NormalizeEmail(req.Email)

	existing, err := h.users.GetUserByEmail(r.Context(), email)
	if err != nil && !errors.Is(err, auth.ErrUserNotFound) {
		h.internal(w, r, err)
		return
	}
	if existing != nil && existing.IsEmailVerified {
		respond.Error(w, http.StatusBadRequest, "An account with this email already exists")
		return
	}

	expiresAt, err := h.codes.Issue(r.Context(), email, models.PurposeSignup)
	if err != nil {
		h.codeIssueError(w, r, err)
		return
	}
	respond.OK(w, "Verification code sent", map[string]any{"expiresAt": expiresAt})
}

// VerifySignupOTP checks the signup code and creates the account.
func (h *AuthHandler) VerifySignupOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !validEmail(req.Email) || req.Code == "" {
		respond.Error(w, http.StatusBadRequest, "Email and code are required")
		return
	}
	email := otp.NormalizeEmail(req.Email)

	result, err := h.codes.Verify(r.Context(), email, req.Code, models.PurposeSignup)
	if err != nil {
		h.internal(w, r, err)
		return
	}
	if !result.Success {
		respond.JSON(w, http.StatusBadRequest, result.Message, map[string]any{
			"reason":       result.Reason,
			"attemptsLeft": result.AttemptsLeft,
		})
		return
	}

	user, created, err := h.users.FindOrCreateUser(r.Context(), email, req.Name)
	if err != nil {
		h.internal(w, r, err)
		return
	}
	if err := h.users.RecordLogin(r.Context(), user); err != nil {
		h.internal(w, r, err)
		return
	}
	tokens, err := h.users.Tokens().IssueTokens(user.ID.Hex())
	if err != nil {
		h.internal(w, r, err)
		return
	}

	status := http.StatusOK
	message := "Signed in successfully"
	if created {
		status = http.StatusCreated
		message = "Account created successfully"
	}
	respond.JSON(w, status, message, map[string]any{"user": user, "tokens": tokens})
}

// SendLoginOTP issues a login code for an existing account.
func (h *AuthHandler) SendLoginOTP(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !validEmail(req.Email) {
		respond.Error(w, http.StatusBadRequest, "A valid email address is required")
		return
	}
	email := otp.NormalizeEmail(req.Email)

	user, err := h.users.GetUserByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			respond.Error(w, http.StatusNotFound, "No account found with this email")
			return
		}
		h.internal(w, r, err)
		return
	}
	if !h.loginAllowed(w, user) {
		return
	}

	expiresAt, err := h.codes.Issue(r.Context(), email, models.PurposeLogin)
	if err != nil {
		h.codeIssueError(w, r, err)
		return
	}
	respond.OK(w, "Login code sent", map[string]any{"expiresAt": expiresAt})
}

// VerifyLoginOTP checks the login code (and the authenticator code when
// two-factor is on) and returns a token pair. A wrong code counts toward
// the account lockout.
func (h *AuthHandler) VerifyLoginOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !validEmail(req.Email) || req.Code == "" {
		respond.Error(w, http.StatusBadRequest, "Email and code are required")
		return
	}
	email := otp.NormalizeEmail(req.Email)

	user, err := h.users.GetUserByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			respond.Error(w, http.StatusNotFound, "No account found with this email")
			return
		}
		h.internal(w, r, err)
		return
	}
	if !h.loginAllowed(w, user) {
		return
	}

	result, err := h.codes.Verify(r.Context(), email, req.Code, models.PurposeLogin)
	if err != nil {
		h.internal(w, r, err)
		return
	}
	if !result.Success {
		h.failLogin(w, r, user, result.Message, map[string]any{
			"reason":       result.Reason,
			"attemptsLeft": result.AttemptsLeft,
		})
		return
	}

	if user.TwoFactor.Enabled {
		if req.TOTP == "" {
			respond.JSON(w, http.StatusBadRequest, "Authenticator code required", map[string]any{"totpRequired": true})
			return
		}
		if err := h.users.VerifyTwoFactor(user, req.TOTP); err != nil {
			if errors.Is(err, auth.ErrInvalidTOTP) {
				h.failLogin(w, r, user, "Invalid authenticator code", nil)
				return
			}
			h.internal(w, r, err)
			return
		}
	}

	if err := h.users.RecordLogin(r.Context(), user); err != nil {
		h.internal(w, r, err)
		return
	}
	tokens, err := h.users.Tokens().IssueTokens(user.ID.Hex())
	if err != nil {
		h.internal(w, r, err)
		return
	}
	respond.OK(w, "Signed in successfully", map[string]any{"user": user, "tokens": tokens})
}

// ResendOTP reissues a code, subject to the cooldown.
func (h *AuthHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email   string `json:"email"`
		Purpose string `json:"purpose"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	purpose := models.Purpose(req.Purpose)
	if !validEmail(req.Email) || !purpose.Valid() {
		respond.Error(w, http.StatusBadRequest, "A valid email and purpose are required")
		return
	}

	expiresAt, err := h.codes.Resend(r.Context(), otp.NormalizeEmail(req.Email), purpose)
	if err != nil {
		if errors.Is(err, otp.ErrCooldown) {
			respond.Error(w, http.StatusTooManyRequests, "Please wait before requesting another code")
			return
		}
		h.codeIssueError(w, r, err)
		return
	}
	respond.OK(w, "Verification code sent", map[string]any{"expiresAt": expiresAt})
}

// Refresh exchanges a refresh token for a new access token. The refresh
// token itself is not rotated.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.userFromRefresh(r, req.RefreshToken)
	if err != nil {
		respond.Error(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	tokens, err := h.users.Tokens().IssueTokens(user.ID.Hex())
	if err != nil {
		h.internal(w, r, err)
		return
	}
	respond.OK(w, "Token refreshed", map[string]any{"accessToken": tokens.AccessToken})
}

func (h *AuthHandler) userFromRefresh(r *http.Request, token string) (*models.User, error) {
	userID, err := h.users.Tokens().VerifyRefresh(token)
	if err != nil {
		return nil, err
	}
	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, err
	}
	user, err := h.users.GetUser(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, auth.ErrAccountInactive
	}
	return user, nil
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	respond.OK(w, "", map[string]any{"user": user})
}

// UpdateMe changes the authenticated user's profile fields.
func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	user := middleware.UserFromContext(r.Context())
	updated, err := h.users.UpdateProfile(r.Context(), user.ID, req.Name)
	if err != nil {
		h.internal(w, r, err)
		return
	}
	respond.OK(w, "Profile updated", map[string]any{"user": updated})
}

// Logout acknowledges a logout. Tokens are stateless, so the client just
// discards them; the endpoint exists for API symmetry.
func (h *AuthHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	respond.OK(w, "Logged out successfully", nil)
}

// DeactivateMe soft-deletes the authenticated account.
func (h *AuthHandler) DeactivateMe(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if err := h.users.Deactivate(r.Context(), user.ID); err != nil {
		h.internal(w, r, err)
		return
	}
	respond.OK(w, "Account deactivated", nil)
}

// SetupTwoFactor provisions an authenticator secret.
func (h *AuthHandler) SetupTwoFactor(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	url, err := h.users.BeginTwoFactor(r.Context(), user.ID)
	if err != nil {
		h.internal(w, r, err)
		return
	}
	respond.OK(w, "Scan the code with your authenticator app", map[string]any{"otpauthUrl": url})
}

// ConfirmTwoFactor enables two-factor after the first valid code.
func (h *AuthHandler) ConfirmTwoFactor(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	user := middleware.UserFromContext(r.Context())
	if err := h.users.ConfirmTwoFactor(r.Context(), user.ID, req.Code); err != nil {
		if errors.Is(err, auth.ErrInvalidTOTP) {
			respond.Error(w, http.StatusBadRequest, "Invalid authenticator code")
			return
		}
		h.internal(w, r, err)
		return
	}
	respond.OK(w, "Two-factor authentication enabled", nil)
}

// DisableTwoFactor turns two-factor off after a final code check.
func (h *AuthHandler) DisableTwoFactor(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	user := middleware.UserFromContext(r.Context())
	if err := h.users.DisableTwoFactor(r.Context(), user.ID, req.Code); err != nil {
		if errors.Is(err, auth.ErrInvalidTOTP) {
			respond.Error(w, http.StatusBadRequest, "Invalid authenticator code")
			return
		}
		h.internal(w, r, err)
		return
	}
	respond.OK(w, "Two-factor authentication disabled", nil)
}

// loginAllowed writes the right rejection for locked or inactive accounts
// and reports whether the login may proceed.
func (h *AuthHandler) loginAllowed(w http.ResponseWriter, user *models.User) bool {
	switch err := h.users.CheckLoginAllowed(user); {
	case errors.Is(err, auth.ErrAccountLocked):
		respond.Error(w, http.StatusLocked, "Account temporarily locked due to failed login attempts")
		return false
	case errors.Is(err, auth.ErrAccountInactive):
		respond.Error(w, http.StatusForbidden, "This account has been deactivated")
		return false
	case err != nil:
		respond.Error(w, http.StatusInternalServerError, "Something went wrong")
		return false
	}
	return true
}

// failLogin records the failed attempt and writes the rejection, flipping
// to 423 when this attempt triggered the lock.
func (h *AuthHandler) failLogin(w http.ResponseWriter, r *http.Request, user *models.User, message string, fields map[string]any) {
	locked, attemptsLeft, err := h.users.HandleFailedLogin(r.Context(), user)
	if err != nil {
		h.internal(w, r, err)
		return
	}
	if locked {
		respond.Error(w, http.StatusLocked, "Account locked due to too many failed login attempts")
		return
	}
	if fields == nil {
		fields = map[string]any{}
	}
	fields["loginAttemptsLeft"] = attemptsLeft
	respond.JSON(w, http.StatusBadRequest, message, fields)
}

func (h *AuthHandler) codeIssueError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, otp.ErrDelivery) {
		h.log.Error("code delivery failed", "requestId", middleware.RequestIDFromContext(r.Context()), "error", err)
		respond.Error(w, http.StatusInternalServerError, "Could not send the verification email, please try again")
		return
	}
	h.internal(w, r, err)
}

func (h *AuthHandler) internal(w http.ResponseWriter, r *http.Request, err error) {
	h.log.Error("request failed", "path", r.URL.Path, "requestId", middleware.RequestIDFromContext(r.Context()), "error", err)
	respond.Error(w, http.StatusInternalServerError, "Something went wrong")
}

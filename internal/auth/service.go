package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"shopapi/internal/models"
)

// ErrUserNotFound is returned when an operation targets an account that
// does not exist.
var ErrUserNotFound = errors.New("user not found")

// ErrAccountLocked is returned while a lockout window is active.
var ErrAccountLocked = errors.New("account temporarily locked")

// ErrAccountInactive is returned for deactivated accounts.
var ErrAccountInactive = errors.New("account is deactivated")

// ErrInvalidTOTP is returned when a submitted authenticator code does not
// match the user's secret.
var ErrInvalidTOTP = errors.New("invalid authenticator code")

// ErrEmailTaken is returned when creating an account with an address that
// already has one.
var ErrEmailTaken = errors.New("email already registered")

var totpOpts = totp.ValidateOpts{
	Period:    30,
	Skew:      1,
	Digits:    otp.DigitsSix,
	Algorithm: otp.AlgorithmSHA1,
}

// Service manages user accounts: creation on first verified signup, the
// failed-login counter and lockout window, profile fields, and optional
// authenticator-app two-factor.
type Service struct {
	users  UserStore
	tokens *TokenManager
	issuer string
	log    *slog.Logger
	now    func() time.Time
}

// NewService creates a Service. issuer names the application inside
// authenticator apps.
func NewService(users UserStore, tokens *TokenManager, issuer string, log *slog.Logger) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
		issuer: issuer,
		log:    log,
		now:    time.Now,
	}
}

// Tokens exposes the token manager for handlers and middleware.
func (s *Service) Tokens() *TokenManager {
	return s.tokens
}

// FindOrCreateUser returns the account for email, creating it when no
// account exists. Newly created accounts are verified and active, since
// creation only happens after a successful signup code verification.
func (s *Service) FindOrCreateUser(ctx context.Context, email, name string) (*models.User, bool, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, false, fmt.Errorf("looking up user: %w", err)
	}
	if user != nil {
		if !user.IsEmailVerified {
			user.IsEmailVerified = true
			user.UpdatedAt = s.now()
			if err := s.users.Update(ctx, user); err != nil {
				return nil, false, fmt.Errorf("marking email verified: %w", err)
			}
		}
		return user, false, nil
	}

	now := s.now()
	user = &models.User{
		Email:           email,
		Name:            name,
		IsEmailVerified: true,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.users.Insert(ctx, user); err != nil {
		return nil, false, fmt.Errorf("creating user: %w", err)
	}
	s.log.Info("user created", "email", email, "id", user.ID.Hex())
	return user, true, nil
}

// CreateUser creates a verified account directly, without the signup code
// flow. It backs the administrative user endpoint.
func (s *Service) CreateUser(ctx context.Context, email, name string) (*models.User, error) {
	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	now := s.now()
	user := &models.User{
		Email:           email,
		Name:            name,
		IsEmailVerified: true,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.users.Insert(ctx, user); err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}
	s.log.Info("user created", "email", email, "id", user.ID.Hex())
	return user, nil
}

// ListUsers returns one page of accounts, newest first, plus the total
// count. Page and limit are clamped to sane values.
func (s *Service) ListUsers(ctx context.Context, page, limit int) ([]models.User, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	users, total, err := s.users.List(ctx, int64((page-1)*limit), int64(limit))
	if err != nil {
		return nil, 0, fmt.Errorf("listing users: %w", err)
	}
	return users, total, nil
}

// GetUser loads an account by ID. Returns ErrUserNotFound if none exists.
func (s *Service) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// GetUserByEmail loads an account by address. Returns ErrUserNotFound if
// none exists.
func (s *Service) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// CheckLoginAllowed rejects logins for locked or deactivated accounts.
func (s *Service) CheckLoginAllowed(user *models.User) error {
	if !user.IsActive {
		return ErrAccountInactive
	}
	if user.IsLocked(s.now()) {
		return ErrAccountLocked
	}
	return nil
}

// HandleFailedLogin records one failed login attempt. Once the attempt
// limit is reached the account is locked for the lock duration. An already
// expired lock is cleared and the counter restarts at one, so old failures
// do not shorten the next window.
func (s *Service) HandleFailedLogin(ctx context.Context, user *models.User) (locked bool, attemptsLeft int, err error) {
	now := s.now()

	if user.LockUntil != nil && !now.Before(*user.LockUntil) {
		user.LoginAttempts = 1
		user.LockUntil = nil
	} else {
		user.LoginAttempts++
	}

	if user.LoginAttempts >= models.MaxLoginAttempts {
		until := now.Add(models.LockDuration)
		user.LockUntil = &until
		locked = true
		s.log.Warn("account locked", "email", user.Email, "until", until)
	}

	user.UpdatedAt = now
	if err := s.users.Update(ctx, user); err != nil {
		return false, 0, fmt.Errorf("recording failed login: %w", err)
	}

	attemptsLeft = models.MaxLoginAttempts - user.LoginAttempts
	if attemptsLeft < 0 {
		attemptsLeft = 0
	}
	return locked, attemptsLeft, nil
}

// RecordLogin clears the failed-login state and stamps the login time.
func (s *Service) RecordLogin(ctx context.Context, user *models.User) error {
	now := s.now()
	user.LoginAttempts = 0
	user.LockUntil = nil
	user.LastLogin = &now
	user.UpdatedAt = now
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("recording login: %w", err)
	}
	return nil
}

// UpdateProfile changes the mutable profile fields.
func (s *Service) UpdateProfile(ctx context.Context, id primitive.ObjectID, name string) (*models.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Name = name
	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("updating profile: %w", err)
	}
	return user, nil
}

// Deactivate marks the account inactive. The record is kept.
func (s *Service) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}
	user.IsActive = false
	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("deactivating user: %w", err)
	}
	s.log.Info("user deactivated", "email", user.Email)
	return nil
}

// BeginTwoFactor provisions a TOTP secret for the user and returns the
// otpauth URL for the authenticator app. Two-factor stays disabled until
// the user confirms a code generated from this secret.
func (s *Service) BeginTwoFactor(ctx context.Context, id primitive.ObjectID) (string, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return "", err
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: user.Email,
	})
	if err != nil {
		return "", fmt.Errorf("generating authenticator secret: %w", err)
	}

	user.TwoFactor = models.TwoFactor{Enabled: false, Secret: key.Secret()}
	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return "", fmt.Errorf("storing authenticator secret: %w", err)
	}
	return key.URL(), nil
}

// ConfirmTwoFactor enables two-factor once the user proves possession of
// the provisioned secret.
func (s *Service) ConfirmTwoFactor(ctx context.Context, id primitive.ObjectID, code string) error {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if user.TwoFactor.Secret == "" {
		return ErrInvalidTOTP
	}
	if err := s.validateTOTP(user, code); err != nil {
		return err
	}

	user.TwoFactor.Enabled = true
	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("enabling two-factor: %w", err)
	}
	s.log.Info("two-factor enabled", "email", user.Email)
	return nil
}

// VerifyTwoFactor checks an authenticator code during login for users with
// two-factor enabled.
func (s *Service) VerifyTwoFactor(user *models.User, code string) error {
	if !user.TwoFactor.Enabled {
		return nil
	}
	return s.validateTOTP(user, code)
}

// DisableTwoFactor turns two-factor off after a final code check.
func (s *Service) DisableTwoFactor(ctx context.Context, id primitive.ObjectID, code string) error {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if !user.TwoFactor.Enabled {
		return nil
	}
	if err := s.validateTOTP(user, code); err != nil {
		return err
	}

	user.TwoFactor = models.TwoFactor{}
	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("disabling two-factor: %w", err)
	}
	s.log.Info("two-factor disabled", "email", user.Email)
	return nil
}

func (s *Service) validateTOTP(user *models.User, code string) error {
	valid, err := totp.ValidateCustom(code, user.TwoFactor.Secret, s.now(), totpOpts)
	if err != nil {
		return fmt.Errorf("validating authenticator code: %w", err)
	}
	if !valid {
		return ErrInvalidTOTP
	}
	return nil
}

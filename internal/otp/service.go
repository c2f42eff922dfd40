package otp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"shopapi/internal/models"
)

// ErrDelivery is returned by Issue and Resend when the notification channel
// fails. The freshly stored code is rolled back first, so a failed delivery
// never blocks reissuance behind the cooldown.
var ErrDelivery = errors.New("failed to deliver one-time code")

// ErrCooldown is returned by Resend when a code for the pair was issued
// within the cooldown window.
var ErrCooldown = errors.New("a code was requested too recently")

// Reason classifies why a verification attempt was rejected.
type Reason string

const (
	ReasonNotFound          Reason = "not_found"
	ReasonExpired           Reason = "expired"
	ReasonAttemptsExhausted Reason = "attempts_exhausted"
	ReasonAlreadyUsed       Reason = "already_used"
	ReasonMismatch          Reason = "mismatch"
)

// VerifyResult is the structured outcome of a verification attempt.
// Rejections are data, not errors; the caller decides the status mapping.
type VerifyResult struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	Reason       Reason `json:"reason,omitempty"`
	AttemptsLeft int    `json:"attemptsLeft,omitempty"`
}

// Sender delivers a one-time code to its recipient. The purpose tag lets
// the implementation pick a template; the service is agnostic to content.
type Sender interface {
	SendCode(ctx context.Context, email string, purpose models.Purpose, code string, expiresAt time.Time) error
}

// Service orchestrates the one-time code lifecycle: issuance, verification,
// resend cooldown, and expiry sweeps.
type Service struct {
	store  Store
	sender Sender
	log    *slog.Logger
	now    func() time.Time
}

// NewService creates a Service on the given store and sender.
func NewService(store Store, sender Sender, log *slog.Logger) *Service {
	return &Service{
		store:  store,
		sender: sender,
		log:    log,
		now:    time.Now,
	}
}

// NormalizeEmail lowercases and trims an address the way records are keyed.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Issue invalidates all prior codes for (email, purpose), stores a fresh
// one, and hands it to the sender. It returns the new code's expiry. When
// delivery fails the stored record is deleted and ErrDelivery is returned.
func (s *Service) Issue(ctx context.Context, email string, purpose models.Purpose) (time.Time, error) {
	email = NormalizeEmail(email)

	if _, err := s.store.DeleteAll(ctx, email, purpose); err != nil {
		return time.Time{}, fmt.Errorf("invalidating previous codes: %w", err)
	}

	code, err := GenerateCode(models.CodeLength)
	if err != nil {
		return time.Time{}, fmt.Errorf("generating code: %w", err)
	}

	now := s.now()
	rec := &models.OneTimeCode{
		Email:     email,
		Code:      code,
		Purpose:   purpose,
		Attempts:  0,
		Used:      false,
		ExpiresAt: now.Add(models.CodeTTL),
		CreatedAt: now,
	}
	if err := s.store.Insert(ctx, rec); err != nil {
		return time.Time{}, fmt.Errorf("storing code: %w", err)
	}

	if err := s.sender.SendCode(ctx, email, purpose, code, rec.ExpiresAt); err != nil {
		// Roll back so the undelivered code cannot block reissuance.
		if delErr := s.store.DeleteByID(ctx, rec.ID); delErr != nil {
			s.log.Error("rollback of undelivered code failed", "email", email, "error", delErr)
		}
		s.log.Warn("code delivery failed", "email", email, "purpose", purpose, "error", err)
		return time.Time{}, fmt.Errorf("%w: %v", ErrDelivery, err)
	}

	s.log.Info("one-time code issued", "email", email, "purpose", purpose, "expiresAt", rec.ExpiresAt)
	return rec.ExpiresAt, nil
}

// Verify checks a submitted code against the most recently issued unused
// record for (email, purpose). A correct code consumes the record and
// removes every record for the pair; a wrong code burns one attempt.
func (s *Service) Verify(ctx context.Context, email, code string, purpose models.Purpose) (VerifyResult, error) {
	email = NormalizeEmail(email)

	rec, err := s.store.LatestUnused(ctx, email, purpose)
	if err != nil {
		return VerifyResult{}, fmt.Errorf("loading code: %w", err)
	}
	if rec == nil {
		return VerifyResult{
			Message: "Code not found or already used",
			Reason:  ReasonNotFound,
		}, nil
	}

	now := s.now()
	if !rec.CanAttempt(now) {
		switch {
		case rec.IsExpired(now):
			return VerifyResult{Message: "Code has expired", Reason: ReasonExpired}, nil
		case rec.Attempts >= models.MaxCodeAttempts:
			return VerifyResult{Message: "Maximum attempts exceeded", Reason: ReasonAttemptsExhausted}, nil
		default:
			return VerifyResult{Message: "Code has already been used", Reason: ReasonAlreadyUsed}, nil
		}
	}

	if rec.Code != code {
		if err := s.store.IncrementAttempts(ctx, rec.ID); err != nil {
			return VerifyResult{}, fmt.Errorf("recording failed attempt: %w", err)
		}
		left := models.MaxCodeAttempts - rec.Attempts - 1
		if left < 0 {
			left = 0
		}
		return VerifyResult{
			Message:      fmt.Sprintf("Invalid code. %d attempts remaining", left),
			Reason:       ReasonMismatch,
			AttemptsLeft: left,
		}, nil
	}

	if err := s.store.MarkUsed(ctx, rec.ID); err != nil {
		return VerifyResult{}, fmt.Errorf("consuming code: %w", err)
	}
	if _, err := s.store.DeleteAll(ctx, email, purpose); err != nil {
		return VerifyResult{}, fmt.Errorf("cleaning up codes: %w", err)
	}

	s.log.Info("one-time code verified", "email", email, "purpose", purpose)
	return VerifyResult{Success: true, Message: "Code verified successfully"}, nil
}

// Resend behaves like Issue unless a code for the pair was created within
// the cooldown window, in which case it returns ErrCooldown.
func (s *Service) Resend(ctx context.Context, email string, purpose models.Purpose) (time.Time, error) {
	email = NormalizeEmail(email)

	recent, err := s.store.LatestSince(ctx, email, purpose, s.now().Add(-models.ResendCooldown))
	if err != nil {
		return time.Time{}, fmt.Errorf("checking cooldown: %w", err)
	}
	if recent != nil {
		return time.Time{}, ErrCooldown
	}

	return s.Issue(ctx, email, purpose)
}

// Sweep deletes every expired record and returns the count. It never
// returns verification-relevant state; callers run it on a timer.
func (s *Service) Sweep(ctx context.Context) (int64, error) {
	removed, err := s.store.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.log.Info("expired one-time codes removed", "count", removed)
	}
	return removed, nil
}

// RunSweeper runs Sweep on the given interval until stop is closed. Errors
// are logged and swallowed; housekeeping must never take the process down.
func (s *Service) RunSweeper(ctx context.Context, interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.log.Error("code sweep failed", "error", err)
			}
		case <-stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

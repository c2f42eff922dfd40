package auth

import (
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for every token rejection: bad signature,
// expiry, wrong type claim, malformed input. Callers get no detail about
// which check failed; the specifics go to the debug log only.
var ErrInvalidToken = errors.New("invalid or expired token")

// Token type claim values. An access token is never accepted where a
// refresh token is expected, and vice versa.
const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

// Claims is the JWT payload for both token kinds.
type Claims struct {
	UserID string `json:"userId"`
	Type   string `json:"type"`
	jwt.RegisteredClaims
}

// TokenPair holds the two tokens handed out on a successful login.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// TokenManager signs and verifies the session tokens. Access and refresh
// tokens use distinct secrets so one leaking does not compromise the other.
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	log           *slog.Logger
	now           func() time.Time
}

// NewTokenManager creates a TokenManager with the given secrets and TTLs.
func NewTokenManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration, log *slog.Logger) *TokenManager {
	return &TokenManager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		log:           log,
		now:           time.Now,
	}
}

// IssueTokens creates a fresh access/refresh pair for the user.
func (m *TokenManager) IssueTokens(userID string) (TokenPair, error) {
	access, err := m.sign(userID, TokenAccess, m.accessSecret, m.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := m.sign(userID, TokenRefresh, m.refreshSecret, m.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// VerifyAccess validates an access token and returns its user ID.
func (m *TokenManager) VerifyAccess(token string) (string, error) {
	return m.verify(token, TokenAccess, m.accessSecret)
}

// VerifyRefresh validates a refresh token and returns its user ID.
func (m *TokenManager) VerifyRefresh(token string) (string, error) {
	return m.verify(token, TokenRefresh, m.refreshSecret)
}

func (m *TokenManager) sign(userID, kind string, secret []byte, ttl time.Duration) (string, error) {
	now := m.now()
	claims := Claims{
		UserID: userID,
		Type:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (m *TokenManager) verify(token, kind string, secret []byte) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return m.now() }),
	)
	if err != nil {
		m.log.Debug("token rejected", "kind", kind, "error", err)
		return "", ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.Type != kind || claims.UserID == "" {
		m.log.Debug("token rejected", "kind", kind, "error", "type or subject mismatch")
		return "", ErrInvalidToken
	}
	return claims.UserID, nil
}

package auth

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*TokenManager, *time.Time) {
	t.Helper()
	m := NewTokenManager(
		"access-secret-for-tests",
		"refresh-secret-for-tests",
		15*time.Minute,
		7*24*time.Hour,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	return m, &now
}

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	m, _ := newTestManager(t)

	pair, err := m.IssueTokens("user-123")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	uid, err := m.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-123", uid)

	uid, err = m.VerifyRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "user-123", uid)
}

func TestTokenTypesAreNotInterchangeable(t *testing.T) {
	m, _ := newTestManager(t)

	pair, err := m.IssueTokens("user-123")
	require.NoError(t, err)

	// A refresh token must never pass as an access token, and vice versa.
	_, err = m.VerifyAccess(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.VerifyRefresh(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAccessTokenExpires(t *testing.T) {
	m, now := newTestManager(t)

	pair, err := m.IssueTokens("user-123")
	require.NoError(t, err)

	*now = now.Add(15*time.Minute + time.Second)
	_, err = m.VerifyAccess(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// The refresh token outlives the access token.
	_, err = m.VerifyRefresh(pair.RefreshToken)
	assert.NoError(t, err)

	*now = now.Add(7 * 24 * time.Hour)
	_, err = m.VerifyRefresh(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	m, _ := newTestManager(t)

	for _, token := range []string{"", "not.a.jwt", "eyJhbGciOiJub25lIn0.e30."} {
		_, err := m.VerifyAccess(token)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", token)
	}
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	m, _ := newTestManager(t)
	other := NewTokenManager(
		"different-access-secret",
		"different-refresh-secret",
		15*time.Minute,
		7*24*time.Hour,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)

	pair, err := other.IssueTokens("user-123")
	require.NoError(t, err)

	_, err = m.VerifyAccess(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

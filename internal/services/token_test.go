package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService() *TokenService {
	return NewTokenService("test-secret", 15*time.Minute, 7*24*time.Hour)
}

func TestIssuePairRoundTrip(t *testing.T) {
	ts := newTestTokenService()

	pair, err := ts.IssuePair("user-123")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	uid, err := ts.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-123", uid)

	uid, err = ts.VerifyRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "user-123", uid)
}

func TestTokenTypeConfusionRejected(t *testing.T) {
	ts := newTestTokenService()
	pair, err := ts.IssuePair("user-123")
	require.NoError(t, err)

	// A refresh token must not pass access verification and vice versa.
	_, err = ts.VerifyAccess(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenMalformed)

	_, err = ts.VerifyRefresh(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestExpiredTokenReported(t *testing.T) {
	ts := NewTokenService("test-secret", -time.Minute, -time.Minute)
	pair, err := ts.IssuePair("user-123")
	require.NoError(t, err)

	_, err = ts.VerifyAccess(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenExpired)

	_, err = ts.VerifyRefresh(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTamperedTokenRejected(t *testing.T) {
	ts := newTestTokenService()
	pair, err := ts.IssuePair("user-123")
	require.NoError(t, err)

	tampered := pair.AccessToken[:len(pair.AccessToken)-2] + "xx"
	_, err = ts.VerifyAccess(tampered)
	assert.ErrorIs(t, err, ErrTokenMalformed)

	_, err = ts.VerifyAccess("not.a.jwt")
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestWrongSecretRejected(t *testing.T) {
	pair, err := newTestTokenService().IssuePair("user-123")
	require.NoError(t, err)

	other := NewTokenService("different-secret", 15*time.Minute, 7*24*time.Hour)
	_, err = other.VerifyAccess(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestRefreshDoesNotRotate(t *testing.T) {
	ts := newTestTokenService()
	pair, err := ts.IssuePair("user-123")
	require.NoError(t, err)

	// Issuing a second pair leaves the first refresh token valid.
	_, err = ts.IssuePair("user-123")
	require.NoError(t, err)

	uid, err := ts.VerifyRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "user-123", uid)
}

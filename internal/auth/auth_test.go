package auth

import (
	"testing"
	"time"

	"github.com/agency-cms-api/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testManager() *TokenManager {
	return NewTokenManager(config.AuthConfig{
		JWTSecret: "test-secret",
		JWTIssuer: "agency-test",
		TokenTTL:  time.Hour,
	})
}

func TestTokenManager_RoundTrip(t *testing.T) {
	m := testManager()

	token, expiresAt, err := m.Issue("user-1", "a@example.com", "admin")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID())
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, "admin", claims.Role)
}

func TestTokenManager_Expired(t *testing.T) {
	m := testManager()
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := m.Issue("user-1", "a@example.com", "member")
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Parse(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestTokenManager_RejectsForeignTokens(t *testing.T) {
	m := testManager()

	other := NewTokenManager(config.AuthConfig{JWTSecret: "other", JWTIssuer: "agency-test", TokenTTL: time.Hour})
	token, _, err := other.Issue("user-1", "a@example.com", "admin")
	require.NoError(t, err)
	_, err = m.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongIssuer := NewTokenManager(config.AuthConfig{JWTSecret: "test-secret", JWTIssuer: "elsewhere", TokenTTL: time.Hour})
	token, _, err = wrongIssuer.Issue("user-1", "a@example.com", "admin")
	require.NoError(t, err)
	_, err = m.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1", Issuer: "agency-test"},
	})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = m.Parse(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHasher(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost, 6)

	_, err := h.Hash("short")
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	hash, err := h.Hash("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)
	assert.True(t, h.Compare(hash, "correct horse"))
	assert.False(t, h.Compare(hash, "wrong horse"))
}

package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	s := NewService(nil, "test-secret")

	token, err := s.issueToken("user_123")
	require.NoError(t, err)

	userID, err := s.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user_123", userID)
}

func TestTokenSignedWithOtherSecretRejected(t *testing.T) {
	token, err := NewService(nil, "secret-a").issueToken("user_123")
	require.NoError(t, err)

	_, err = NewService(nil, "secret-b").ValidateToken(token)
	assert.Error(t, err)
}

func TestExpiredTokenRejected(t *testing.T) {
	claims := jwt.MapClaims{
		"sub": "user_123",
		"iat": time.Now().Add(-2 * time.Hour).Unix(),
		"exp": time.Now().Add(-time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = NewService(nil, "test-secret").ValidateToken(signed)
	assert.Error(t, err)
}

func TestMalformedTokenRejected(t *testing.T) {
	s := NewService(nil, "test-secret")

	_, err := s.ValidateToken("not.a.token")
	assert.Error(t, err)
	_, err = s.ValidateToken("")
	assert.Error(t, err)
}

func TestTokenWithoutSubjectRejected(t *testing.T) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = NewService(nil, "test-secret").ValidateToken(signed)
	assert.Error(t, err)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ada@example.com", normalizeEmail("  Ada@Example.COM "))
	assert.Equal(t, "x@y.z", normalizeEmail("x@y.z"))
}

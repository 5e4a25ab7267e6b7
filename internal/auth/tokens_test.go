package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndValidate(t *testing.T) {
	v := NewVerifier("secret", "")

	token, err := v.Issue("user-42", "reader@example.com", time.Hour)
	require.NoError(t, err)

	claims, err := v.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", claims.UserID())
	assert.Equal(t, "reader@example.com", claims.Email)
}

func TestValidateRejects(t *testing.T) {
	v := NewVerifier("secret", "")

	sign := func(method jwt.SigningMethod, key any, claims jwt.Claims) string {
		t.Helper()
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	future := jwt.NewNumericDate(time.Now().Add(time.Hour))

	tests := map[string]string{
		"garbage":      "not-a-jwt",
		"wrong secret": sign(jwt.SigningMethodHS256, []byte("other"), jwt.RegisteredClaims{Subject: "u", ExpiresAt: future}),
		"wrong method": sign(jwt.SigningMethodHS512, []byte("secret"), jwt.RegisteredClaims{Subject: "u", ExpiresAt: future}),
		"no subject":   sign(jwt.SigningMethodHS256, []byte("secret"), jwt.RegisteredClaims{ExpiresAt: future}),
		"no expiry":    sign(jwt.SigningMethodHS256, []byte("secret"), jwt.RegisteredClaims{Subject: "u"}),
		"expired": sign(jwt.SigningMethodHS256, []byte("secret"), jwt.RegisteredClaims{
			Subject:   "u",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		}),
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := v.Validate(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestValidateIssuer(t *testing.T) {
	v := NewVerifier("secret", "https://id.example.com")

	good, err := v.Issue("u", "", time.Hour)
	require.NoError(t, err)
	_, err = v.Validate(good)
	require.NoError(t, err)

	foreign, err := NewVerifier("secret", "https://elsewhere").Issue("u", "", time.Hour)
	require.NoError(t, err)
	_, err = v.Validate(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewWishlistToken(t *testing.T) {
	seen := map[string]bool{}
	for range 50 {
		token, err := NewWishlistToken()
		require.NoError(t, err)
		assert.Len(t, token, 21)
		assert.Regexp(t, `^[A-Za-z0-9_-]+$`, token)
		assert.False(t, seen[token])
		seen[token] = true
	}
}

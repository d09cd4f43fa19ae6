// Package testutil mints backend-style tokens for tests.
package testutil

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const signingKey = "test-signing-key"

// AccessToken returns an HS256 token for subject expiring at exp.
func AccessToken(t *testing.T, subject string, exp time.Time) string {
	t.Helper()

	claims := jwtlib.MapClaims{
		"sub": subject,
		"iat": exp.Add(-time.Hour).Unix(),
		"exp": exp.Unix(),
		"jti": uuid.New().String(),
	}
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte(signingKey))
	require.NoError(t, err)
	return signed
}

// TokenWithoutExpiry returns a well formed token that carries no exp claim.
func TokenWithoutExpiry(t *testing.T) string {
	t.Helper()

	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{"sub": "1"}).SignedString([]byte(signingKey))
	require.NoError(t, err)
	return signed
}

package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weare-health/fhir-session-gateway/internal/auth"
)

// signedToken builds a JWT with the given claims, signed with an arbitrary
// HMAC secret. Decode never verifies the signature, so any secret works —
// these tests exist to exercise the structural decode path, not signing.
func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte("any-secret-unverified"))
	require.NoError(t, err)
	return signed
}

func TestDecode_MissingAuthorizationHeader(t *testing.T) {
	_, err := auth.Decode("", time.Now())
	assert.ErrorIs(t, err, auth.ErrMissingBearer)
}

func TestDecode_WrongScheme(t *testing.T) {
	_, err := auth.Decode("Basic abc123", time.Now())
	assert.ErrorIs(t, err, auth.ErrMissingBearer)
}

func TestDecode_MalformedToken(t *testing.T) {
	_, err := auth.Decode("Bearer not-a-jwt", time.Now())
	assert.ErrorIs(t, err, auth.ErrMalformedToken)
}

func TestDecode_ExpiredToken(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{
		"sub": "user1",
		"jti": "tok1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	_, err := auth.Decode("Bearer "+token, time.Now())
	assert.ErrorIs(t, err, auth.ErrTokenExpired)
}

func TestDecode_UsesJTIAsSessionKeyWhenPresent(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{
		"sub": "user1",
		"jti": "tok1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	claims, err := auth.Decode("Bearer "+token, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "tok1", claims.TokenID)
	assert.Equal(t, "tok1", claims.SessionKey)
	assert.Equal(t, "user1", claims.Subject)
	require.NotNil(t, claims.Expiry)
}

func TestDecode_FallsBackToHashedTokenWhenJTIAbsent(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{
		"sub": "user1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	claims, err := auth.Decode("Bearer "+token, time.Now())
	require.NoError(t, err)
	assert.NotEmpty(t, claims.TokenID)
	assert.Equal(t, claims.TokenID, claims.SessionKey)
}

func TestDecode_NoExpiryMeansNoExpiry(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{
		"sub": "user1",
		"jti": "tok1",
	})

	claims, err := auth.Decode("Bearer "+token, time.Now())
	require.NoError(t, err)
	assert.Nil(t, claims.Expiry)
}

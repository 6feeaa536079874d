package session

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestFromTokenNameidClaim(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{
		"nameid": float64(42),
		"name":   "Sita Sharma",
		"email":  "sita@example.com",
	})

	s, err := FromToken(token)
	require.NoError(t, err)

	assert.Equal(t, int64(42), s.UserID)
	assert.Equal(t, "Sita Sharma", s.Name)
	assert.Equal(t, "sita@example.com", s.Email)
	assert.Equal(t, token, s.Token)
}

func TestFromTokenNameidString(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{"nameid": "42"})

	s, err := FromToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), s.UserID)
}

func TestFromTokenSubFallback(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{"sub": "7"})

	s, err := FromToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), s.UserID)
}

func TestFromTokenNameidWinsOverSub(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{"nameid": float64(42), "sub": "7"})

	s, err := FromToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), s.UserID)
}

func TestFromTokenNoIdentityClaim(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{"email": "x@example.com"})

	_, err := FromToken(token)
	assert.Error(t, err)
}

func TestFromTokenGarbage(t *testing.T) {
	_, err := FromToken("not-a-jwt")
	assert.Error(t, err)
}

func TestFromTokenNonNumericID(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{"nameid": "not-a-number"})

	_, err := FromToken(token)
	assert.Error(t, err)
}

func TestContextRoundTrip(t *testing.T) {
	s := &Session{ID: "sid-1", UserID: 3}
	ctx := WithContext(context.Background(), s)

	assert.Equal(t, s, FromContext(ctx))
	assert.Nil(t, FromContext(context.Background()))
}

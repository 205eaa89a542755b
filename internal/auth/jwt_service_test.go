package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestNewJWTServiceRequiresSecret(t *testing.T) {
	_, err := NewJWTService(JWTConfig{})
	require.EqualError(t, err, "jwt: secret must be provided")
}

func TestGenerateAndValidateAccessToken(t *testing.T) {
	current := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	svc, err := NewJWTService(JWTConfig{
		Secret:         "super-secret",
		Issuer:         "teamhub",
		AccessTokenTTL: time.Hour,
		Clock:          func() time.Time { return current },
	})
	require.NoError(t, err)

	token, expires, err := svc.GenerateAccessToken("identity-1", "session-2", "a@x.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.Equal(t, current.Add(time.Hour), expires)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	require.Equal(t, "identity-1", claims.IdentityID)
	require.Equal(t, "session-2", claims.SessionID)
	require.Equal(t, "a@x.com", claims.Email)
	require.Equal(t, "teamhub", claims.Issuer)
	require.True(t, claims.IssuedAt.Time.Equal(current))
}

func TestValidateAccessTokenInvalidSignature(t *testing.T) {
	now := func() time.Time { return time.Date(2024, 1, 1, 13, 0, 0, 0, time.UTC) }

	issuer, err := NewJWTService(JWTConfig{Secret: "issuer-secret", Clock: now})
	require.NoError(t, err)
	token, _, err := issuer.GenerateAccessToken("identity-1", "", "")
	require.NoError(t, err)

	verifier, err := NewJWTService(JWTConfig{Secret: "other-secret", Clock: now})
	require.NoError(t, err)

	_, err = verifier.ValidateAccessToken(token)
	require.True(t, errors.Is(err, jwt.ErrTokenSignatureInvalid))
}

func TestValidateAccessTokenExpired(t *testing.T) {
	current := time.Date(2024, 1, 1, 14, 0, 0, 0, time.UTC)
	svc, err := NewJWTService(JWTConfig{
		Secret:         "secret",
		AccessTokenTTL: time.Minute,
		Clock:          func() time.Time { return current },
	})
	require.NoError(t, err)

	token, _, err := svc.GenerateAccessToken("identity-1", "", "")
	require.NoError(t, err)

	current = current.Add(2 * time.Minute)

	_, err = svc.ValidateAccessToken(token)
	require.True(t, errors.Is(err, jwt.ErrTokenExpired))
}

func TestValidateAccessTokenRejectsForeignIssuer(t *testing.T) {
	a, err := NewJWTService(JWTConfig{Secret: "shared", Issuer: "other"})
	require.NoError(t, err)
	token, _, err := a.GenerateAccessToken("identity-1", "", "")
	require.NoError(t, err)

	b, err := NewJWTService(JWTConfig{Secret: "shared", Issuer: "teamhub"})
	require.NoError(t, err)
	_, err = b.ValidateAccessToken(token)
	require.EqualError(t, err, "jwt: invalid issuer")
}

package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-0123456789abcdef"

func newGenerator(t *testing.T, expiry time.Duration) *JWTGenerator {
	t.Helper()
	g, err := NewJWTGenerator(JWTGeneratorConfig{
		SigningMethod: "HS256",
		SecretKey:     testSecret,
		Issuer:        "ontoview",
		ExpiryTime:    expiry,
	})
	require.NoError(t, err)
	return g
}

func newValidator(t *testing.T, secret string) *JWTValidator {
	t.Helper()
	v, err := NewJWTValidator(JWTConfig{
		SigningMethod: "HS256",
		SecretKey:     secret,
		Issuer:        "ontoview",
	})
	require.NoError(t, err)
	return v
}

func TestGenerateAndValidateRoundTrip(t *testing.T) {
	g := newGenerator(t, time.Hour)
	v := newValidator(t, testSecret)

	token, err := g.GenerateToken("user-1", "ada@example.com", []string{"editor"})
	require.NoError(t, err)

	claims, err := v.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, []string{"editor"}, claims.Roles)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	g := newGenerator(t, -time.Minute)
	v := newValidator(t, testSecret)

	token, err := g.GenerateToken("user-1", "", nil)
	require.NoError(t, err)

	_, err = v.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateRejectsWrongSignature(t *testing.T) {
	g := newGenerator(t, time.Hour)
	v := newValidator(t, "a-completely-different-secret-key")

	token, err := g.GenerateToken("user-1", "", nil)
	require.NoError(t, err)

	_, err = v.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestValidateRejectsGarbage(t *testing.T) {
	v := newValidator(t, testSecret)
	_, err := v.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsWrongIssuer(t *testing.T) {
	g, err := NewJWTGenerator(JWTGeneratorConfig{
		SigningMethod: "HS256",
		SecretKey:     testSecret,
		Issuer:        "someone-else",
	})
	require.NoError(t, err)
	v := newValidator(t, testSecret)

	token, err := g.GenerateToken("user-1", "", nil)
	require.NoError(t, err)

	_, err = v.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidatorRequiresSecret(t *testing.T) {
	_, err := NewJWTValidator(JWTConfig{SigningMethod: "HS256"})
	assert.Error(t, err)
}

func TestUserContextRoundTrip(t *testing.T) {
	user := &UserContext{UserID: "user-1", Roles: []string{"editor"}}
	ctx := SetUserInContext(context.Background(), user)

	got, err := GetUserFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.UserID)
	assert.True(t, got.HasRole("editor"))
	assert.False(t, got.HasRole("admin"))
}

func TestGetUserFromEmptyContext(t *testing.T) {
	_, err := GetUserFromContext(context.Background())
	assert.Error(t, err)
}

package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexa/internal/core/id"
)

func TestGenerateAndValidateToken(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("test-secret"))
	ownerID := id.New().String()

	token, expiresAt, err := svc.GenerateAccessToken(ownerID, "owner@example.it", "session-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))

	owner, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, ownerID, owner.OwnerID)
	assert.Equal(t, "owner@example.it", owner.Email)
	assert.Equal(t, "session-1", owner.SessionID)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	issuer := NewJWTService(DefaultJWTConfig("secret-a"))
	verifier := NewJWTService(DefaultJWTConfig("secret-b"))

	token, _, err := issuer.GenerateAccessToken(id.New().String(), "x@y.it", "")
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenExpired(t *testing.T) {
	cfg := DefaultJWTConfig("test-secret")
	cfg.AccessTokenTTL = -time.Minute
	svc := NewJWTService(cfg)

	token, _, err := svc.GenerateAccessToken(id.New().String(), "x@y.it", "")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenGarbage(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("test-secret"))

	_, err := svc.ValidateToken("not-a-token")
	assert.Error(t, err)
}

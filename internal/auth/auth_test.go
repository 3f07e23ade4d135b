package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/artegra/museum-tickets/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_RoundTrip(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)
	userID := uuid.New()

	token, err := svc.Issue(userID, domain.RoleAdmin)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	gotID, gotRole, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, userID, gotID)
	assert.Equal(t, domain.RoleAdmin, gotRole)
}

func TestTokenService_RejectsTamperedToken(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)

	token, err := svc.Issue(uuid.New(), domain.RoleVisitor)
	require.NoError(t, err)

	_, _, err = svc.Verify(token + "x")
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestTokenService_RejectsWrongSecret(t *testing.T) {
	issuer := NewTokenService("secret-a", time.Hour)
	verifier := NewTokenService("secret-b", time.Hour)

	token, err := issuer.Issue(uuid.New(), domain.RoleVisitor)
	require.NoError(t, err)

	_, _, err = verifier.Verify(token)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestTokenService_RejectsExpired(t *testing.T) {
	svc := NewTokenService("test-secret", -time.Minute)

	token, err := svc.Issue(uuid.New(), domain.RoleVisitor)
	require.NoError(t, err)

	_, _, err = svc.Verify(token)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	assert.NoError(t, CheckPassword(hash, "correct horse battery"))
	assert.True(t, errors.Is(CheckPassword(hash, "wrong"), domain.ErrUnauthorized))

	_, err = HashPassword("short")
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

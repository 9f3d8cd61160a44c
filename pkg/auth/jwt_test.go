package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/backend/domain"
)

func TestGenerateVerifyRoundtrip(t *testing.T) {
	m := NewTokenManager("secret", "taskhive", time.Hour)

	token, err := m.Generate("user-42")
	require.NoError(t, err)

	userID, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", userID)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := NewTokenManager("secret-a", "taskhive", time.Hour).Generate("user-42")
	require.NoError(t, err)

	_, err = NewTokenManager("secret-b", "taskhive", time.Hour).Verify(token)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnauthorized))
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	m := NewTokenManager("secret", "taskhive", time.Hour)
	m.ttl = -time.Minute

	token, err := m.Generate("user-42")
	require.NoError(t, err)

	_, err = m.Verify(token)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnauthorized))
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	m := NewTokenManager("secret", "taskhive", time.Hour)

	token, err := m.Generate("user-42")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + ".eyJ1c2VyX2lkIjoidXNlci05OSJ9." + parts[2]

	_, err = m.Verify(tampered)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnauthorized))
}

func TestVerifyRejectsGarbage(t *testing.T) {
	m := NewTokenManager("secret", "taskhive", time.Hour)

	_, err := m.Verify("not even close")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnauthorized))
}

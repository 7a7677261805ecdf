package auth

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"music-store/internal/apperrors"
	"music-store/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUser() *models.User {
	return &models.User{ID: 42, Email: "player@example.com", Role: models.RoleCustomer}
}

func TestNewTokenServiceRequiresSecret(t *testing.T) {
	_, err := NewTokenService("", time.Hour)
	assert.Error(t, err)
}

func TestIssueAndVerify(t *testing.T) {
	svc, err := NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)

	token, err := svc.Issue(testUser())
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "player@example.com", claims.Email)
	assert.Equal(t, models.RoleCustomer, claims.Role)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestVerifyExpiredToken(t *testing.T) {
	svc, err := NewTokenService("test-secret", -time.Minute)
	require.NoError(t, err)

	token, err := svc.Issue(testUser())
	require.NoError(t, err)

	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, apperrors.ErrTokenExpired)
}

func TestVerifyTamperedPayload(t *testing.T) {
	svc, err := NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)

	token, err := svc.Issue(testUser())
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)

	// valid JSON payload, but the signature no longer matches
	forged := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":1,"email":"admin@example.com","role":"admin"}`))
	tampered := strings.Join([]string{parts[0], forged, parts[2]}, ".")

	_, err = svc.Verify(tampered)
	assert.ErrorIs(t, err, apperrors.ErrInvalidSignature)
}

func TestVerifyWrongSecret(t *testing.T) {
	issuer, err := NewTokenService("issuer-secret", time.Hour)
	require.NoError(t, err)
	verifier, err := NewTokenService("other-secret", time.Hour)
	require.NoError(t, err)

	token, err := issuer.Issue(testUser())
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, apperrors.ErrInvalidSignature)
}

func TestVerifyGarbage(t *testing.T) {
	svc, err := NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)

	_, err = svc.Verify("not-a-token")
	assert.ErrorIs(t, err, apperrors.ErrTokenMalformed)

	_, err = svc.Verify("")
	assert.ErrorIs(t, err, apperrors.ErrTokenMalformed)
}

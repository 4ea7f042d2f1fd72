package auth

import (
	"testing"
	"time"

	apperrors "calendar-relay-backend/internal/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAuthConfig() *AuthConfig {
	return &AuthConfig{
		JWTSecret: "test-secret-with-enough-entropy",
		Microsoft: MicrosoftConfig{
			ClientID:     "client-id",
			ClientSecret: "client-secret",
			RedirectURL:  "http://localhost:3000/callback",
		},
	}
}

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()
	svc, err := NewAuthService(testAuthConfig())
	require.NoError(t, err)
	return svc
}

func TestValidateSessionToken_Valid(t *testing.T) {
	svc := newTestAuthService(t)

	token, err := svc.GenerateSessionToken("11111111-1111-1111-1111-111111111111", "jane@example.com", time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateSessionToken(token)
	require.NoError(t, err)
	assert.Equal(t, "11111111-1111-1111-1111-111111111111", claims.Subject)
	assert.Equal(t, "jane@example.com", claims.Email)
}

func TestValidateSessionToken_WrongSecret(t *testing.T) {
	other, err := NewAuthService(&AuthConfig{
		JWTSecret: "a-different-secret-entirely-here",
		Microsoft: testAuthConfig().Microsoft,
	})
	require.NoError(t, err)
	token, err := other.GenerateSessionToken("user-1", "", time.Hour)
	require.NoError(t, err)

	svc := newTestAuthService(t)
	_, err = svc.ValidateSessionToken(token)
	assert.ErrorIs(t, err, apperrors.ErrInvalidSessionToken)
}

func TestValidateSessionToken_Expired(t *testing.T) {
	svc := newTestAuthService(t)
	token, err := svc.GenerateSessionToken("user-1", "", -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateSessionToken(token)
	assert.ErrorIs(t, err, apperrors.ErrInvalidSessionToken)
}

func TestValidateSessionToken_Malformed(t *testing.T) {
	svc := newTestAuthService(t)
	_, err := svc.ValidateSessionToken("not-a-jwt")
	assert.ErrorIs(t, err, apperrors.ErrInvalidSessionToken)
}

func TestValidateSessionToken_MissingSubject(t *testing.T) {
	svc := newTestAuthService(t)

	claims := &AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(svc.Config().JWTSecret))
	require.NoError(t, err)

	_, err = svc.ValidateSessionToken(token)
	assert.ErrorIs(t, err, apperrors.ErrMissingSubjectInToken)
}

func TestValidateSessionToken_RejectsNonHMACAlg(t *testing.T) {
	svc := newTestAuthService(t)

	// alg=none tokens must never validate
	claims := &AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.ValidateSessionToken(token)
	assert.ErrorIs(t, err, apperrors.ErrInvalidSessionToken)
}

func TestNewAuthService_RequiresSecret(t *testing.T) {
	cfg := testAuthConfig()
	cfg.JWTSecret = ""
	_, err := NewAuthService(cfg)
	assert.Error(t, err)
}

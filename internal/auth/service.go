package auth

import (
	"fmt"
	"time"

	apperrors "calendar-relay-backend/internal/errors"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims represents the session-token claims this service understands.
// The subject claim carries the caller's user id.
type AuthClaims struct {
	Email string `json:"email,omitempty" example:"jane.doe@example.com"`
	// Standard JWT fields
	jwt.RegisteredClaims `swaggerignore:"true"`
}

// AuthService validates inbound session tokens. It is the only component
// that touches the signing secret; everything downstream sees a user id.
type AuthService struct {
	config *AuthConfig
}

// NewAuthService creates a new authentication service
func NewAuthService(config *AuthConfig) (*AuthService, error) {
	if err := config.ValidateConfig(); err != nil {
		return nil, fmt.Errorf("invalid auth config: %w", err)
	}
	return &AuthService{config: config}, nil
}

// Config exposes the validated auth configuration for wiring.
func (s *AuthService) Config() *AuthConfig {
	return s.config
}

// ValidateSessionToken verifies the HS256 signature of a bearer credential
// and returns its claims. Audience claims are intentionally not verified.
// Every failure mode (bad signature, malformed token, expired token) is
// reported as the same authentication error; callers must not distinguish.
func (s *AuthService) ValidateSessionToken(tokenString string) (*AuthClaims, error) {
	if s == nil {
		return nil, apperrors.ErrAuthServiceNotInitialized
	}

	token, err := jwt.ParseWithClaims(tokenString, &AuthClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil {
		return nil, apperrors.ErrInvalidSessionToken
	}

	claims, ok := token.Claims.(*AuthClaims)
	if !ok || !token.Valid {
		return nil, apperrors.ErrInvalidSessionToken
	}
	if claims.Subject == "" {
		return nil, apperrors.ErrMissingSubjectInToken
	}

	return claims, nil
}

// GenerateSessionToken signs a session token for the given user id. The
// relay does not issue sessions in production (the identity provider does);
// this exists for local development and tests.
func (s *AuthService) GenerateSessionToken(userID, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &AuthClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    "calendar-relay",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

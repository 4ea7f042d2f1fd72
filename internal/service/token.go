package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"calendar-relay-backend/internal/auth"
	"calendar-relay-backend/internal/client"
	"calendar-relay-backend/internal/database/models"
	apperrors "calendar-relay-backend/internal/errors"
	"calendar-relay-backend/internal/logger"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"
	"gorm.io/gorm"
)

// TokenStore defines the persistence API for Microsoft token records
type TokenStore interface {
	Upsert(userID uuid.UUID, accessToken, refreshToken string, expiresAt *time.Time) error
	Get(userID uuid.UUID) (*models.MicrosoftToken, error)
	Exists(userID uuid.UUID) (bool, error)
	Delete(userID uuid.UUID) error
}

// GraphTokenAPI is the slice of the provider client the token lifecycle uses
type GraphTokenAPI interface {
	ExchangeCode(ctx context.Context, code string) (*client.TokenResponse, error)
	RefreshAccessToken(ctx context.Context, refreshToken string) (*client.TokenResponse, error)
}

// TokenService owns the Microsoft token lifecycle: code exchange, expiry
// detection, lazy refresh and record deletion. Every provider-calling
// operation goes through GetValidAccessToken first.
type TokenService struct {
	store  TokenStore
	graph  GraphTokenAPI
	msCfg  *auth.MicrosoftConfig
	oauth2 *oauth2.Config

	// now is swappable in tests
	now func() time.Time
}

// NewTokenService creates a new token lifecycle service
func NewTokenService(store TokenStore, graph GraphTokenAPI, msCfg *auth.MicrosoftConfig) *TokenService {
	return &TokenService{
		store: store,
		graph: graph,
		msCfg: msCfg,
		oauth2: &oauth2.Config{
			ClientID:     msCfg.ClientID,
			ClientSecret: msCfg.ClientSecret,
			RedirectURL:  msCfg.RedirectURL,
			Scopes:       msCfg.Scopes,
			Endpoint:     microsoft.AzureADEndpoint(msCfg.Tenant),
		},
		now: time.Now,
	}
}

// ConsentURL builds the Microsoft authorization URL the frontend sends the
// user to. State is caller-provided and echoed back on the redirect.
func (s *TokenService) ConsentURL(state string) string {
	return s.oauth2.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// parseUserID rejects anything that is not a well-formed UUID before any
// store access happens.
func parseUserID(userID string) (uuid.UUID, error) {
	if userID == "" {
		return uuid.Nil, apperrors.ErrMissingUserID
	}
	uid, err := uuid.Parse(userID)
	if err != nil {
		return uuid.Nil, apperrors.ErrInvalidUserID
	}
	return uid, nil
}

// ExchangeCode redeems an authorization code and persists the resulting
// token record. The provider response is relayed verbatim to the caller;
// when it carries no access token nothing is persisted and the payload
// itself signals the failure.
func (s *TokenService) ExchangeCode(ctx context.Context, userID, code string) (json.RawMessage, error) {
	uid, err := parseUserID(userID)
	if err != nil {
		return nil, err
	}
	if code == "" {
		return nil, apperrors.ErrMissingCode
	}

	tokens, err := s.graph.ExchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if tokens.AccessToken != "" {
		expiresAt := s.expiryFrom(tokens.ExpiresIn)
		if err := s.store.Upsert(uid, tokens.AccessToken, tokens.RefreshToken, expiresAt); err != nil {
			return nil, err
		}
		logger.WithField("user_id", uid.String()).Debug("stored Microsoft token record after code exchange")
	}

	return tokens.Raw, nil
}

// GetValidAccessToken returns an access token that is valid right now, or a
// ReconnectError telling the user to re-run the consent flow. Refresh is
// lazy: exactly one attempt, immediately before use, never retried. A failed
// refresh deletes the record so subsequent calls fail fast.
func (s *TokenService) GetValidAccessToken(ctx context.Context, userID string) (string, error) {
	uid, err := parseUserID(userID)
	if err != nil {
		return "", err
	}

	record, err := s.store.Get(uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperrors.ErrNotConnected
		}
		return "", err
	}

	// Absent expiry means the provider reported no lifetime: assume valid.
	if !record.Expired(s.now().UTC()) {
		return record.AccessToken, nil
	}

	if record.RefreshToken == "" {
		// Expired and unrefreshable is the same as never connected.
		if err := s.store.Delete(uid); err != nil {
			return "", err
		}
		return "", apperrors.ErrExpiredNoRefresh
	}

	tokens, refreshErr := s.graph.RefreshAccessToken(ctx, record.RefreshToken)
	if refreshErr != nil {
		logger.WithField("user_id", uid.String()).Warnf("token refresh failed, deleting record: %v", refreshErr)
		if err := s.store.Delete(uid); err != nil {
			return "", err
		}
		return "", apperrors.ErrRefreshFailed
	}

	// The provider may omit a new refresh token; retain the previous one.
	refreshToken := tokens.RefreshToken
	if refreshToken == "" {
		refreshToken = record.RefreshToken
	}
	expiresAt := s.expiryFrom(tokens.ExpiresIn)

	if err := s.store.Upsert(uid, tokens.AccessToken, refreshToken, expiresAt); err != nil {
		return "", err
	}
	logger.WithField("user_id", uid.String()).Debug("refreshed Microsoft access token")

	return tokens.AccessToken, nil
}

// Status reports whether a token record exists for the user.
func (s *TokenService) Status(userID string) (bool, error) {
	uid, err := parseUserID(userID)
	if err != nil {
		return false, err
	}
	return s.store.Exists(uid)
}

// Disconnect deletes the user's token record. Idempotent: disconnecting a
// user that never connected succeeds.
func (s *TokenService) Disconnect(userID string) error {
	uid, err := parseUserID(userID)
	if err != nil {
		return err
	}
	return s.store.Delete(uid)
}

// expiryFrom derives the absolute expiry from a reported lifetime. Zero or
// negative lifetimes mean the provider reported none; the expiry stays unset
// and the token is assumed not expired.
func (s *TokenService) expiryFrom(expiresIn int64) *time.Time {
	if expiresIn <= 0 {
		return nil
	}
	t := s.now().UTC().Add(time.Duration(expiresIn) * time.Second)
	return &t
}

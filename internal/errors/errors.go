package errors

import (
	"errors"
	"fmt"
)

// AuthenticationError represents authentication-related errors
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string {
	return e.Message
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// ReconnectReason distinguishes why the Microsoft connection is unusable
type ReconnectReason string

const (
	ReasonNotConnected     ReconnectReason = "not_connected"
	ReasonExpiredNoRefresh ReconnectReason = "expired_no_refresh"
	ReasonRefreshFailed    ReconnectReason = "refresh_failed"
)

// ReconnectError represents a token lifecycle failure that requires the user
// to go through the Microsoft consent flow again. Always surfaced as 401 with
// a message distinct from a plain authentication failure.
type ReconnectError struct {
	Reason  ReconnectReason
	Message string
}

func (e *ReconnectError) Error() string {
	return e.Message
}

// Is enables errors.Is() comparison for ReconnectError by reason
func (e *ReconnectError) Is(target error) bool {
	t, ok := target.(*ReconnectError)
	if !ok {
		return false
	}
	return e.Reason == t.Reason
}

// ProviderError carries a Microsoft Graph failure verbatim: the provider's
// HTTP status code and raw response body are relayed, never translated.
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider returned status %d: %s", e.StatusCode, e.Body)
}

// ConfigurationError represents configuration-related errors
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return e.Message
}

// Authentication Errors
var (
	ErrAuthenticationRequired      = &AuthenticationError{Message: "authentication required"}
	ErrInvalidSessionToken         = &AuthenticationError{Message: "invalid token"}
	ErrAuthenticationInvalidClaims = &AuthenticationError{Message: "invalid authentication claims"}
	ErrMissingSubjectInToken       = &AuthenticationError{Message: "missing subject in token"}
)

// Token Lifecycle Errors - all instruct the user to reconnect
var (
	ErrNotConnected = &ReconnectError{
		Reason:  ReasonNotConnected,
		Message: "Microsoft account not connected. Please connect your Microsoft account.",
	}
	ErrExpiredNoRefresh = &ReconnectError{
		Reason:  ReasonExpiredNoRefresh,
		Message: "Microsoft access token expired and no refresh token is available. Please reconnect your Microsoft account.",
	}
	ErrRefreshFailed = &ReconnectError{
		Reason:  ReasonRefreshFailed,
		Message: "Failed to refresh Microsoft access token. Please reconnect your Microsoft account.",
	}
)

// Validation Errors
var (
	ErrMissingUserID       = &ValidationError{Field: "user_id", Message: "user_id is required"}
	ErrInvalidUserID       = &ValidationError{Field: "user_id", Message: "user_id is not a valid UUID"}
	ErrMissingCode         = &ValidationError{Field: "code", Message: "authorization code is required"}
	ErrMissingCalendarID   = &ValidationError{Field: "calendar_id", Message: "calendar_id is required"}
	ErrMissingEventPayload = &ValidationError{Field: "event", Message: "event payload is required"}
)

// Configuration Errors
var (
	ErrDatabaseConnection        = &ConfigurationError{Message: "database connection failed"}
	ErrTokenStoreNotInitialized  = &ConfigurationError{Message: "token store not initialized"}
	ErrAuthServiceNotInitialized = &ConfigurationError{Message: "auth service is not initialized"}
	ErrJWTSecretMissing          = &ConfigurationError{Message: "JWT_SECRET environment variable not set"}
	ErrMicrosoftAppNotConfigured = &ConfigurationError{Message: "Microsoft app client credentials are not configured"}
)

// Generic Errors
var (
	ErrInternalError = errors.New("internal server error")
	ErrInvalidJSON   = errors.New("invalid JSON")
)

// Helper Functions

// IsAuthentication checks if an error is an AuthenticationError
func IsAuthentication(err error) bool {
	var authErr *AuthenticationError
	return errors.As(err, &authErr)
}

// IsValidation checks if an error is a ValidationError
func IsValidation(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// IsReconnect checks if an error is a ReconnectError
func IsReconnect(err error) bool {
	var reconnectErr *ReconnectError
	return errors.As(err, &reconnectErr)
}

// IsProvider checks if an error is a ProviderError
func IsProvider(err error) bool {
	var providerErr *ProviderError
	return errors.As(err, &providerErr)
}

// IsConfiguration checks if an error is a ConfigurationError
func IsConfiguration(err error) bool {
	var configErr *ConfigurationError
	return errors.As(err, &configErr)
}

// AsProvider returns the ProviderError wrapped in err, if any
func AsProvider(err error) (*ProviderError, bool) {
	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr, true
	}
	return nil, false
}

// NewAuthenticationError creates a new AuthenticationError
func NewAuthenticationError(message string) error {
	return &AuthenticationError{Message: message}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewProviderError creates a ProviderError from a relayed provider response
func NewProviderError(statusCode int, body string) error {
	return &ProviderError{StatusCode: statusCode, Body: body}
}

// NewConfigurationError creates a new ConfigurationError
func NewConfigurationError(message string) error {
	return &ConfigurationError{Message: message}
}

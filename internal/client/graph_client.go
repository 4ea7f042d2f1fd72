package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "calendar-relay-backend/internal/errors"
)

const (
	defaultLoginBaseURL = "https://login.microsoftonline.com"
	defaultGraphBaseURL = "https://graph.microsoft.com"
)

// GraphClient handles communication with the Microsoft identity platform
// (token endpoint) and the Microsoft Graph REST API.
type GraphClient struct {
	LoginBaseURL string
	GraphBaseURL string
	Tenant       string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	HTTPClient   *http.Client
}

// NewGraphClient creates a new Microsoft Graph API client
func NewGraphClient(tenant, clientID, clientSecret, redirectURL string) *GraphClient {
	if tenant == "" {
		tenant = "common"
	}
	return &GraphClient{
		LoginBaseURL: defaultLoginBaseURL,
		GraphBaseURL: defaultGraphBaseURL,
		Tenant:       tenant,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// TokenResponse represents the identity platform's token endpoint response.
// Raw keeps the verbatim provider JSON for passthrough relaying.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope"`
	ExpiresIn    int64  `json:"expires_in"`

	Raw json.RawMessage `json:"-"`
}

// UserProfile is the subset of /me needed to classify calendars
type UserProfile struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	Mail              string `json:"mail"`
	UserPrincipalName string `json:"userPrincipalName"`
}

// Calendar represents a Microsoft Graph calendar resource
type Calendar struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Color             string `json:"color,omitempty"`
	IsDefaultCalendar bool   `json:"isDefaultCalendar,omitempty"`
	CanEdit           bool   `json:"canEdit,omitempty"`
	Owner             *struct {
		Name    string `json:"name"`
		Address string `json:"address"`
	} `json:"owner,omitempty"`
}

// CalendarGroup represents a Microsoft Graph calendar group resource
type CalendarGroup struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// tokenURL is the v2.0 token endpoint for the configured tenant
func (c *GraphClient) tokenURL() string {
	return fmt.Sprintf("%s/%s/oauth2/v2.0/token", strings.TrimSuffix(c.LoginBaseURL, "/"), c.Tenant)
}

// postTokenForm issues a form-encoded request against the token endpoint and
// returns the parsed response together with the verbatim body and status.
func (c *GraphClient) postTokenForm(ctx context.Context, form url.Values) (*TokenResponse, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL(), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to call token endpoint: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read token response: %w", err)
	}

	var tokens TokenResponse
	if err := json.Unmarshal(body, &tokens); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to decode token response: %w", err)
	}
	tokens.Raw = json.RawMessage(body)
	return &tokens, resp.StatusCode, nil
}

// ExchangeCode redeems an authorization code. The provider response is
// returned verbatim even when it carries an error payload instead of tokens;
// callers inspect AccessToken to decide whether the exchange succeeded.
func (c *GraphClient) ExchangeCode(ctx context.Context, code string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("client_id", c.ClientID)
	form.Set("client_secret", c.ClientSecret)
	form.Set("code", code)
	form.Set("redirect_uri", c.RedirectURL)
	form.Set("grant_type", "authorization_code")

	tokens, _, err := c.postTokenForm(ctx, form)
	return tokens, err
}

// RefreshAccessToken redeems a refresh token for a new access token.
// Exactly one attempt is made; any non-success response is an error.
func (c *GraphClient) RefreshAccessToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("client_id", c.ClientID)
	form.Set("client_secret", c.ClientSecret)
	form.Set("refresh_token", refreshToken)
	form.Set("grant_type", "refresh_token")

	tokens, status, err := c.postTokenForm(ctx, form)
	if err != nil {
		return nil, err
	}
	if status >= http.StatusBadRequest {
		return nil, apperrors.NewProviderError(status, string(tokens.Raw))
	}
	if tokens.AccessToken == "" {
		return nil, fmt.Errorf("token refresh response missing access_token")
	}
	return tokens, nil
}

// get issues an authenticated Graph GET and decodes the response into out.
func (c *GraphClient) get(ctx context.Context, accessToken, path string, out interface{}) error {
	reqURL := fmt.Sprintf("%s/v1.0%s", strings.TrimSuffix(c.GraphBaseURL, "/"), path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call Microsoft Graph: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(resp.Body)
		return apperrors.NewProviderError(resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// GetMe fetches the signed-in user's profile
func (c *GraphClient) GetMe(ctx context.Context, accessToken string) (*UserProfile, error) {
	var profile UserProfile
	if err := c.get(ctx, accessToken, "/me", &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// ListCalendars fetches all calendars of the signed-in user
func (c *GraphClient) ListCalendars(ctx context.Context, accessToken string) ([]Calendar, error) {
	var result struct {
		Value []Calendar `json:"value"`
	}
	if err := c.get(ctx, accessToken, "/me/calendars", &result); err != nil {
		return nil, err
	}
	return result.Value, nil
}

// ListCalendarGroups fetches the user's calendar groups
func (c *GraphClient) ListCalendarGroups(ctx context.Context, accessToken string) ([]CalendarGroup, error) {
	var result struct {
		Value []CalendarGroup `json:"value"`
	}
	if err := c.get(ctx, accessToken, "/me/calendarGroups", &result); err != nil {
		return nil, err
	}
	return result.Value, nil
}

// ListGroupCalendars fetches the calendars inside a calendar group
func (c *GraphClient) ListGroupCalendars(ctx context.Context, accessToken, groupID string) ([]Calendar, error) {
	var result struct {
		Value []Calendar `json:"value"`
	}
	path := fmt.Sprintf("/me/calendarGroups/%s/calendars", url.PathEscape(groupID))
	if err := c.get(ctx, accessToken, path, &result); err != nil {
		return nil, err
	}
	return result.Value, nil
}

// ListEvents fetches the events of a calendar. Events are passed through as
// raw objects; the relay does not reshape provider event payloads.
func (c *GraphClient) ListEvents(ctx context.Context, accessToken, calendarID string) ([]map[string]interface{}, error) {
	var result struct {
		Value []map[string]interface{} `json:"value"`
	}
	path := fmt.Sprintf("/me/calendars/%s/events", url.PathEscape(calendarID))
	if err := c.get(ctx, accessToken, path, &result); err != nil {
		return nil, err
	}
	return result.Value, nil
}

// CreateEvent creates an event in the given calendar, or in the user's
// default calendar when calendarID is empty. Provider failures (status >=
// 400) are relayed verbatim as a ProviderError.
func (c *GraphClient) CreateEvent(ctx context.Context, accessToken, calendarID string, event map[string]interface{}) (json.RawMessage, error) {
	path := "/me/events"
	if calendarID != "" {
		path = fmt.Sprintf("/me/calendars/%s/events", url.PathEscape(calendarID))
	}
	reqURL := fmt.Sprintf("%s/v1.0%s", strings.TrimSuffix(c.GraphBaseURL, "/"), path)

	jsonData, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call Microsoft Graph: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, apperrors.NewProviderError(resp.StatusCode, string(body))
	}
	return json.RawMessage(body), nil
}

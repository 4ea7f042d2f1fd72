package auth

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// AuthConfig holds the identity-verification secret and the Microsoft app
// registration used for the OAuth2 authorization-code flow.
type AuthConfig struct {
	JWTSecret string          `yaml:"jwt_secret" json:"jwt_secret"`
	Microsoft MicrosoftConfig `yaml:"microsoft" json:"microsoft"`
}

// MicrosoftConfig holds the Azure app registration for Microsoft Graph.
type MicrosoftConfig struct {
	ClientID     string   `yaml:"client_id" json:"client_id"`
	ClientSecret string   `yaml:"client_secret" json:"client_secret"`
	RedirectURL  string   `yaml:"redirect_url" json:"redirect_url"`
	Tenant       string   `yaml:"tenant" json:"tenant"`
	Scopes       []string `yaml:"scopes" json:"scopes"`
}

// LoadAuthConfig loads and validates authentication configuration.
// Secrets always come from the environment; the YAML file only carries
// non-sensitive defaults.
func LoadAuthConfig(configPath string) (*AuthConfig, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("auth")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	setAuthDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading auth config file: %w", err)
		}
		// Config file not found, use defaults and environment variables
	}

	v.AutomaticEnv()

	var config AuthConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling auth config: %w", err)
	}

	// Override with environment variables for sensitive data
	if jwtSecret := os.Getenv("JWT_SECRET"); jwtSecret != "" {
		config.JWTSecret = jwtSecret
	}
	if clientID := os.Getenv("MS_CLIENT_ID"); clientID != "" {
		config.Microsoft.ClientID = clientID
	}
	if clientSecret := os.Getenv("MS_CLIENT_SECRET"); clientSecret != "" {
		config.Microsoft.ClientSecret = clientSecret
	}
	if redirectURL := os.Getenv("MS_REDIRECT_URL"); redirectURL != "" {
		config.Microsoft.RedirectURL = redirectURL
	}
	if tenant := os.Getenv("MS_TENANT"); tenant != "" {
		config.Microsoft.Tenant = tenant
	}
	if scopes := os.Getenv("MS_SCOPES"); scopes != "" {
		config.Microsoft.Scopes = strings.Fields(scopes)
	}

	if err := config.ValidateConfig(); err != nil {
		return nil, fmt.Errorf("auth config validation failed: %w", err)
	}

	return &config, nil
}

// ValidateConfig validates the authentication configuration.
// A missing signing secret or Microsoft app credential is fatal at startup,
// never a per-request condition.
func (c *AuthConfig) ValidateConfig() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if c.Microsoft.ClientID == "" {
		return fmt.Errorf("client_id is required for the Microsoft provider")
	}
	if c.Microsoft.ClientSecret == "" {
		return fmt.Errorf("client_secret is required for the Microsoft provider")
	}
	if c.Microsoft.RedirectURL == "" {
		return fmt.Errorf("redirect URL is required for the Microsoft provider")
	}
	if c.Microsoft.Tenant == "" {
		c.Microsoft.Tenant = "common"
	}
	if len(c.Microsoft.Scopes) == 0 {
		c.Microsoft.Scopes = defaultScopes()
	}
	return nil
}

func defaultScopes() []string {
	return []string{"offline_access", "Calendars.ReadWrite", "User.Read"}
}

// setAuthDefaults sets default values for auth configuration
func setAuthDefaults(v *viper.Viper) {
	// No default JWT secret - must be provided via environment variable
	v.SetDefault("microsoft", map[string]interface{}{
		"client_id":     "",
		"client_secret": "",
		"redirect_url":  "http://localhost:5173/callback",
		"tenant":        "common",
	})
}

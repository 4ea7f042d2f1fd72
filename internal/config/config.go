package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds the process-wide application configuration. It is built once
// at startup and passed explicitly into the components that need it.
type Config struct {
	ServerPort     string   `mapstructure:"server_port"`
	GinMode        string   `mapstructure:"gin_mode"`
	DatabaseURL    string   `mapstructure:"database_url"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Load reads configuration from config.yaml (if present) and the
// environment. Environment variables take precedence.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, use defaults and environment variables
	}

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Env spellings used in deployments
	if dsn := v.GetString("DATABASE_URL"); dsn != "" {
		cfg.DatabaseURL = dsn
	}
	if port := v.GetString("PORT"); port != "" {
		cfg.ServerPort = port
	}
	if mode := v.GetString("GIN_MODE"); mode != "" {
		cfg.GinMode = mode
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server_port", "8080")
	v.SetDefault("gin_mode", "release")
	v.SetDefault("allowed_origins", []string{"http://localhost:5173"})
}

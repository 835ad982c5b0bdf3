package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the server, read from the environment
// (optionally seeded from a .env file).
type Config struct {
	Port                             string `mapstructure:"PORT"`
	GinMode                          string `mapstructure:"GIN_MODE"`
	AppEnv                           string `mapstructure:"APP_ENV"`
	DBURL                            string `mapstructure:"DB_URL"`
	ClientURL                        string `mapstructure:"CLIENT_URL"`
	GeminiAPIKey                     string `mapstructure:"GEMINI_API_KEY"`
	GeminiBaseURL                    string `mapstructure:"GEMINI_BASE_URL"`
	GeminiModel                      string `mapstructure:"GEMINI_MODEL"`
	FirebaseProjectID                string `mapstructure:"FIREBASE_PROJECT_ID"`
	GoogleApplicationCredentials     string `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS"`
	FirebaseServiceAccountJSONBase64 string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64"`
}

var configKeys = []string{
	"PORT", "GIN_MODE", "APP_ENV", "DB_URL", "CLIENT_URL",
	"GEMINI_API_KEY", "GEMINI_BASE_URL", "GEMINI_MODEL",
	"FIREBASE_PROJECT_ID", "GOOGLE_APPLICATION_CREDENTIALS", "FIREBASE_SERVICE_ACCOUNT_JSON_BASE64",
}

// loadConfig reads .env files (if present) and the environment.
func loadConfig(envFiles ...string) (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load(envFiles...)

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com")
	v.SetDefault("GEMINI_MODEL", "gemini-2.0-flash")

	for _, key := range configKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.DBURL == "" {
		return nil, errors.New("DB_URL is required")
	}
	cfg.GeminiBaseURL = strings.TrimRight(cfg.GeminiBaseURL, "/")
	return &cfg, nil
}

func (c *Config) production() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

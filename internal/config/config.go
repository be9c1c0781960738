package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// Following 12-factor app principles, all config is loaded from environment variables
type Config struct {
	Server     ServerConfig
	Auth       AuthConfig
	Promo      PromoConfig
	Storefront StorefrontConfig
	LogLevel   string
}

type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     int
	WriteTimeout    int
	ShutdownTimeout int
}

// AuthConfig carries the bot token used to verify Telegram init data.
// With an empty BotToken every request carrying init data is rejected.
type AuthConfig struct {
	BotToken       string
	InitDataMaxAge time.Duration
	// AdminIDs are the Telegram user ids allowed to manage orders and promos
	AdminIDs []int64
}

// PromoConfig lists promo definition sources, local paths or http(s) URLs
type PromoConfig struct {
	Sources []string
}

// StorefrontConfig configures the storefront client side.
// An empty InitData runs the storefront without a host.
type StorefrontConfig struct {
	APIBaseURL     string
	InitData       string
	SearchDebounce time.Duration
	GeoTimeout     time.Duration
	// DeliveryLat and DeliveryLng feed the headless geolocation provider;
	// zero means location is unavailable
	DeliveryLat float64
	DeliveryLng float64
}

// Load reads configuration from environment variables
// A .env file in the working directory is applied first when present
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8000"),
			Host:            getEnv("HOST", "0.0.0.0"),
			ReadTimeout:     getEnvAsInt("READ_TIMEOUT", 15),
			WriteTimeout:    getEnvAsInt("WRITE_TIMEOUT", 15),
			ShutdownTimeout: getEnvAsInt("SHUTDOWN_TIMEOUT", 30),
		},
		Auth: AuthConfig{
			BotToken:       getEnv("BOT_TOKEN", ""),
			InitDataMaxAge: getEnvAsDuration("INIT_DATA_MAX_AGE", 24*time.Hour),
			AdminIDs:       getEnvAsInt64Slice("ADMIN_IDS"),
		},
		Promo: PromoConfig{
			Sources: getEnvAsSlice("PROMO_FILE_URLS", nil),
		},
		Storefront: StorefrontConfig{
			APIBaseURL:     strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:8000"), "/"),
			InitData:       getEnv("INIT_DATA", ""),
			SearchDebounce: getEnvAsDuration("SEARCH_DEBOUNCE", 250*time.Millisecond),
			GeoTimeout:     getEnvAsDuration("GEO_TIMEOUT", 10*time.Second),
			DeliveryLat:    getEnvAsFloat("DELIVERY_LAT", 0),
			DeliveryLng:    getEnvAsFloat("DELIVERY_LNG", 0),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Storefront.APIBaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}

	if c.Storefront.SearchDebounce <= 0 {
		return fmt.Errorf("SEARCH_DEBOUNCE must be positive")
	}

	if c.Auth.InitDataMaxAge < 0 {
		return fmt.Errorf("INIT_DATA_MAX_AGE must not be negative")
	}

	if c.Storefront.GeoTimeout <= 0 {
		return fmt.Errorf("GEO_TIMEOUT must be positive")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// Helper functions for reading environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// getEnvAsInt64Slice skips entries that are not integers
func getEnvAsInt64Slice(key string) []int64 {
	var out []int64
	for _, p := range getEnvAsSlice(key, nil) {
		if id, err := strconv.ParseInt(p, 10, 64); err == nil {
			out = append(out, id)
		}
	}
	return out
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "API_BASE_URL", "PROMO_FILE_URLS", "LOG_LEVEL", "SEARCH_DEBOUNCE", "GEO_TIMEOUT", "DELIVERY_LAT", "DELIVERY_LNG", "INIT_DATA_MAX_AGE", "ADMIN_IDS"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "http://localhost:8000", cfg.Storefront.APIBaseURL)
	assert.Equal(t, 250*time.Millisecond, cfg.Storefront.SearchDebounce)
	assert.Equal(t, 10*time.Second, cfg.Storefront.GeoTimeout)
	assert.Empty(t, cfg.Promo.Sources)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 24*time.Hour, cfg.Auth.InitDataMaxAge)
	assert.Empty(t, cfg.Auth.AdminIDs)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("API_BASE_URL", "https://shop.example.com/")
	t.Setenv("PROMO_FILE_URLS", " promos.csv , ,https://cdn.example.com/promos.csv.gz")
	t.Setenv("SEARCH_DEBOUNCE", "100ms")
	t.Setenv("DELIVERY_LAT", "41.3111")
	t.Setenv("DELIVERY_LNG", "69.2797")
	t.Setenv("READ_TIMEOUT", "not-a-number")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("INIT_DATA_MAX_AGE", "1h")
	t.Setenv("ADMIN_IDS", "101, x ,202")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "https://shop.example.com", cfg.Storefront.APIBaseURL)
	assert.Equal(t, []string{"promos.csv", "https://cdn.example.com/promos.csv.gz"}, cfg.Promo.Sources)
	assert.Equal(t, 100*time.Millisecond, cfg.Storefront.SearchDebounce)
	assert.InDelta(t, 41.3111, cfg.Storefront.DeliveryLat, 1e-9)
	assert.InDelta(t, 69.2797, cfg.Storefront.DeliveryLng, 1e-9)
	assert.Equal(t, 15, cfg.Server.ReadTimeout)
	assert.Equal(t, time.Hour, cfg.Auth.InitDataMaxAge)
	assert.Equal(t, []int64{101, 202}, cfg.Auth.AdminIDs)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("BOT_TOKEN=from-dotenv\n"), 0o600))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	// godotenv never overrides a variable that is already set
	t.Setenv("BOT_TOKEN", "")
	require.NoError(t, os.Unsetenv("BOT_TOKEN"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Auth.BotToken)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server: ServerConfig{Port: "8000"},
			Storefront: StorefrontConfig{
				APIBaseURL:     "http://localhost:8000",
				SearchDebounce: time.Millisecond,
				GeoTimeout:     time.Second,
			},
			LogLevel: "INFO",
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing port", mutate: func(c *Config) { c.Server.Port = "" }, wantErr: true},
		{name: "missing api base url", mutate: func(c *Config) { c.Storefront.APIBaseURL = "" }, wantErr: true},
		{name: "zero debounce", mutate: func(c *Config) { c.Storefront.SearchDebounce = 0 }, wantErr: true},
		{name: "zero geo timeout", mutate: func(c *Config) { c.Storefront.GeoTimeout = 0 }, wantErr: true},
		{name: "negative init data max age", mutate: func(c *Config) { c.Auth.InitDataMaxAge = -time.Second }, wantErr: true},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "verbose" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/accumulation-tracker-backend/internal/config"
)

// TestLoad tests environment handling of the configuration loader.
//
// WHY: The server is configured entirely through the environment. Defaults
// must produce a runnable configuration and overrides must land in the right
// fields.
func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := config.Load()
		require.NoError(t, err)

		assert.Equal(t, "localhost:5001", cfg.Server.Addr)
		assert.Equal(t, config.FeedSourceFile, cfg.Feed.Source)
		assert.Equal(t, "USDC", cfg.Valuation.BaseCurrency)
		assert.Equal(t, int32(30), cfg.Valuation.Precision)
		assert.Equal(t, "compat", cfg.Valuation.Mode)
		assert.Equal(t, "@every 15m", cfg.Schedule.RefreshCron)
		assert.Equal(t, 15*time.Second, cfg.Feed.Timeout)
		assert.NoError(t, cfg.Validate())
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("SERVER_PORT", "8080")
		t.Setenv("FEED_SOURCE", "HTTP")
		t.Setenv("FEED_BASE_URL", "https://example.org/data/")
		t.Setenv("DECIMAL_PRECISION", "12")
		t.Setenv("ACCOUNTING_MODE", "side_aware")
		t.Setenv("REFRESH_CRON", "off")
		t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
		t.Setenv("LOG_PRETTY", "true")

		cfg, err := config.Load()
		require.NoError(t, err)

		assert.Equal(t, "localhost:8080", cfg.Server.Addr)
		assert.Equal(t, config.FeedSourceHTTP, cfg.Feed.Source)
		assert.Equal(t, "https://example.org/data", cfg.Feed.BaseURL)
		assert.Equal(t, int32(12), cfg.Valuation.Precision)
		assert.Empty(t, cfg.Schedule.RefreshCron)
		assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
		assert.True(t, cfg.Log.Pretty)
		assert.NoError(t, cfg.Validate())
	})

	t.Run("refresh schedule can be disabled", func(t *testing.T) {
		for _, value := range []string{"", "off", "OFF"} {
			t.Setenv("REFRESH_CRON", value)

			cfg, err := config.Load()
			require.NoError(t, err)
			assert.Empty(t, cfg.Schedule.RefreshCron, "REFRESH_CRON=%q", value)
		}
	})

	t.Run("custom refresh schedule", func(t *testing.T) {
		t.Setenv("REFRESH_CRON", "0 */5 * * * *")

		cfg, err := config.Load()
		require.NoError(t, err)
		assert.Equal(t, "0 */5 * * * *", cfg.Schedule.RefreshCron)
	})

	t.Run("invalid precision", func(t *testing.T) {
		t.Setenv("DECIMAL_PRECISION", "many")
		_, err := config.Load()
		assert.Error(t, err)
	})
}

// TestConfig_Validate tests rejection of unusable configurations.
func TestConfig_Validate(t *testing.T) {
	valid := func() *config.Config {
		return &config.Config{
			Feed:      config.FeedConfig{Source: config.FeedSourceFile, Dir: "./feed"},
			Valuation: config.ValuationConfig{BaseCurrency: "USDC", Precision: 30, Mode: "compat"},
		}
	}

	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"unknown feed source", func(c *config.Config) { c.Feed.Source = "ftp" }},
		{"http without base url", func(c *config.Config) { c.Feed.Source = config.FeedSourceHTTP }},
		{"token without key", func(c *config.Config) {
			c.Feed.Source = config.FeedSourceHTTP
			c.Feed.BaseURL = "https://example.org"
			c.Feed.EncryptedToken = "gAAAA"
		}},
		{"zero precision", func(c *config.Config) { c.Valuation.Precision = 0 }},
		{"unknown mode", func(c *config.Config) { c.Valuation.Mode = "lifo" }},
		{"empty base currency", func(c *config.Config) { c.Valuation.BaseCurrency = "" }},
	}

	require.NoError(t, valid().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ndewijer/accumulation-tracker-backend/internal/valuation"
)

// Feed sources.
const (
	FeedSourceFile = "file"
	FeedSourceHTTP = "http"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	CORS      CORSConfig
	Feed      FeedConfig
	Valuation ValuationConfig
	Schedule  ScheduleConfig
	Log       LogConfig
	Security  SecurityConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// FeedConfig describes where the transaction and price feeds are read from.
type FeedConfig struct {
	Source  string // "file" or "http"
	Dir     string // Directory holding the feed files when Source is "file"
	BaseURL string // Base URL of the feed files when Source is "http"
	// EncryptedToken is a fernet token wrapping the bearer token sent to BaseURL.
	EncryptedToken string
	FernetKey      string
	Timeout        time.Duration
}

// ValuationConfig holds the explicit parameters of the valuation engine.
type ValuationConfig struct {
	BaseCurrency string
	Precision    int32
	Mode         string
}

// ScheduleConfig holds the cron spec of the materialization refresh. Empty disables it.
type ScheduleConfig struct {
	RefreshCron string
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string
	Pretty bool
}

// SecurityConfig holds the key protecting mutating endpoints.
type SecurityConfig struct {
	APIKey string
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	precision, err := strconv.ParseInt(getEnv("DECIMAL_PRECISION", "30"), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid DECIMAL_PRECISION: %w", err)
	}

	timeout, err := time.ParseDuration(getEnv("FEED_TIMEOUT", "15s"))
	if err != nil {
		return nil, fmt.Errorf("invalid FEED_TIMEOUT: %w", err)
	}

	pretty, err := strconv.ParseBool(getEnv("LOG_PRETTY", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_PRETTY: %w", err)
	}

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "5001"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/tracker.db"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost")),
		},
		Feed: FeedConfig{
			Source:         strings.ToLower(getEnv("FEED_SOURCE", FeedSourceFile)),
			Dir:            getEnv("FEED_DIR", "./data/feed"),
			BaseURL:        strings.TrimRight(getEnv("FEED_BASE_URL", ""), "/"),
			EncryptedToken: getEnv("FEED_TOKEN", ""),
			FernetKey:      getEnv("FERNET_KEY", ""),
			Timeout:        timeout,
		},
		Valuation: ValuationConfig{
			BaseCurrency: getEnv("BASE_CURRENCY", "USDC"),
			Precision:    int32(precision),
			Mode:         getEnv("ACCOUNTING_MODE", "compat"),
		},
		Schedule: ScheduleConfig{
			// set but empty, or "off", disables the refresh
			RefreshCron: getEnvAllowEmpty("REFRESH_CRON", "@every 15m"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Pretty: pretty,
		},
		Security: SecurityConfig{
			APIKey: getEnv("INTERNAL_API_KEY", ""),
		},
	}

	if strings.EqualFold(strings.TrimSpace(config.Schedule.RefreshCron), "off") {
		config.Schedule.RefreshCron = ""
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	return config, nil
}

// Validate checks that the configuration can be used to start the server.
func (c *Config) Validate() error {
	switch c.Feed.Source {
	case FeedSourceFile:
		if c.Feed.Dir == "" {
			return fmt.Errorf("FEED_DIR is required for the file feed source")
		}
	case FeedSourceHTTP:
		if c.Feed.BaseURL == "" {
			return fmt.Errorf("FEED_BASE_URL is required for the http feed source")
		}
		if c.Feed.EncryptedToken != "" && c.Feed.FernetKey == "" {
			return fmt.Errorf("FERNET_KEY is required to decrypt FEED_TOKEN")
		}
	default:
		return fmt.Errorf("unknown FEED_SOURCE %q", c.Feed.Source)
	}

	if c.Valuation.Precision <= 0 {
		return fmt.Errorf("DECIMAL_PRECISION must be positive")
	}
	if c.Valuation.BaseCurrency == "" {
		return fmt.Errorf("BASE_CURRENCY is required")
	}
	if _, err := valuation.ParseMode(c.Valuation.Mode); err != nil {
		return fmt.Errorf("ACCOUNTING_MODE: %w", err)
	}
	return nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAllowEmpty is getEnv for variables where an explicit empty value is meaningful.
func getEnvAllowEmpty(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

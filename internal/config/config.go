// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"budgethelper/internal/currency"
)

type Config struct {
	// HTTP Server
	Port          string
	HTTPRateLimit int // requests per minute per client
	LogLevel      string

	// Database
	SQLiteDBPath string

	// AMQP; an empty URL renders exports inline only
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Export worker
	ExportDir string

	// Currency rates
	RatesCacheTTL          time.Duration
	RatesHTTPTimeout       time.Duration
	RatesPrimaryURL        string
	RatesSecondaryURL      string
	RatesSourceMinInterval time.Duration

	// User settings cache
	UserCacheTTL  time.Duration
	UserCacheSize int
}

func Load() *Config {
	cfg := &Config{
		Port:          getEnv("PORT", "8081"),
		HTTPRateLimit: getEnvInt("HTTP_RATE_LIMIT", 60),
		LogLevel:      strings.ToLower(getEnv("LOG_LEVEL", "info")),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/budget.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "budget"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "report_exports"),

		ExportDir: getEnv("EXPORT_DIR", "./reports"),

		RatesCacheTTL:          getEnvDuration("RATES_CACHE_TTL", currency.DefaultTTL),
		RatesHTTPTimeout:       getEnvDuration("RATES_HTTP_TIMEOUT", 5*time.Second),
		RatesPrimaryURL:        getEnv("RATES_PRIMARY_URL", currency.DefaultNBUURL),
		RatesSecondaryURL:      getEnv("RATES_SECONDARY_URL", currency.DefaultExchangeRateAPIURL),
		RatesSourceMinInterval: getEnvDuration("RATES_SOURCE_MIN_INTERVAL", 0),

		UserCacheTTL:  getEnvDuration("USER_CACHE_TTL", 10*time.Minute),
		UserCacheSize: getEnvInt("USER_CACHE_SIZE", 1000),
	}

	return cfg
}

// QueueEnabled reports whether exports go through AMQP.
func (c *Config) QueueEnabled() bool {
	return c.AMQPURL != ""
}

// Validate validates the configuration and returns an error listing every
// problem found.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	if c.HTTPRateLimit < 1 {
		errors = append(errors, fmt.Sprintf("invalid HTTP rate limit %d: must be at least 1 request per minute", c.HTTPRateLimit))
	}

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.ExportDir == "" {
		errors = append(errors, "export directory cannot be empty")
	}

	for name, raw := range map[string]string{
		"RATES_PRIMARY_URL":   c.RatesPrimaryURL,
		"RATES_SECONDARY_URL": c.RatesSecondaryURL,
	} {
		if raw == "" {
			continue
		}
		if u, err := url.Parse(raw); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid %s '%s': must be an absolute http(s) URL", name, raw))
		}
	}
	if c.RatesPrimaryURL == "" && c.RatesSecondaryURL == "" {
		errors = append(errors, "at least one of RATES_PRIMARY_URL or RATES_SECONDARY_URL must be set")
	}

	if c.RatesCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid rates cache TTL %v: must be at least 1 second", c.RatesCacheTTL))
	} else if c.RatesCacheTTL > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid rates cache TTL %v: must be at most 24 hours", c.RatesCacheTTL))
	}
	if c.RatesHTTPTimeout < 100*time.Millisecond || c.RatesHTTPTimeout > time.Minute {
		errors = append(errors, fmt.Sprintf("invalid rates HTTP timeout %v: must be between 100ms and 1 minute", c.RatesHTTPTimeout))
	}
	if c.RatesSourceMinInterval < 0 {
		errors = append(errors, fmt.Sprintf("invalid rates source interval %v: must not be negative", c.RatesSourceMinInterval))
	}

	if c.UserCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid user cache size %d: must be at least 1", c.UserCacheSize))
	}
	if c.UserCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid user cache TTL %v: must be at least 1 second", c.UserCacheTTL))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

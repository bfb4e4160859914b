package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"

	"pdv/internal/ledger"
)

// DefaultStoreName is shown in the page header.
const DefaultStoreName = "PDV Bazaar Poniente"

// DefaultProducts is the stand's catalogue when PRODUCTS is unset.
var DefaultProducts = []string{"Falda", "Blusa", "Pantalón", "Vestido", "Camisa"}

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int

	// Stand
	StoreName string
	Products  []string
	Timezone  string

	// Sessions
	LedgerBackend          string
	SessionTTL             time.Duration
	SessionMax             int
	SessionCleanupInterval time.Duration

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	cfg := &Config{
		Port:               getEnv("PORT", "8081"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),

		StoreName: getEnv("STORE_NAME", DefaultStoreName),
		Products:  getEnvList("PRODUCTS", DefaultProducts),
		Timezone:  getEnv("TIMEZONE", "Local"),

		LedgerBackend:          getEnv("LEDGER_BACKEND", ledger.BackendMemory),
		SessionTTL:             getEnvDuration("SESSION_TTL", 12*time.Hour),
		SessionMax:             getEnvInt("SESSION_MAX", 100),
		SessionCleanupInterval: getEnvDuration("SESSION_CLEANUP_INTERVAL", 10*time.Minute),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	return cfg
}

// Location resolves Timezone. "Local" and "" mean the host's zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errs error

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = multierr.Append(errs, fmt.Errorf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.RateLimitPerMinute < 1 {
		errs = multierr.Append(errs, fmt.Errorf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	if strings.TrimSpace(c.StoreName) == "" {
		errs = multierr.Append(errs, errors.New("store name cannot be empty"))
	}

	if len(c.Products) == 0 {
		errs = multierr.Append(errs, errors.New("product catalogue cannot be empty"))
	}
	for _, p := range c.Products {
		if strings.EqualFold(p, OtherProduct) {
			errs = multierr.Append(errs, fmt.Errorf("product '%s' is reserved for free-text entries", p))
		}
	}

	if _, err := c.Location(); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("invalid timezone '%s': %v", c.Timezone, err))
	}

	// Validate ledger backend
	validBackends := []string{ledger.BackendMemory, ledger.BackendSQLite}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.LedgerBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errs = multierr.Append(errs, fmt.Errorf("invalid ledger backend '%s': must be one of %v", c.LedgerBackend, validBackends))
	}

	// Validate session lifecycle
	if c.SessionTTL < time.Minute {
		errs = multierr.Append(errs, fmt.Errorf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	} else if c.SessionTTL > 7*24*time.Hour {
		errs = multierr.Append(errs, fmt.Errorf("invalid session TTL %v: must be at most 168 hours", c.SessionTTL))
	}

	if c.SessionMax < 1 {
		errs = multierr.Append(errs, fmt.Errorf("invalid session limit %d: must be at least 1", c.SessionMax))
	} else if c.SessionMax > 10000 {
		errs = multierr.Append(errs, fmt.Errorf("invalid session limit %d: must be at most 10000", c.SessionMax))
	}

	if c.SessionCleanupInterval < time.Second {
		errs = multierr.Append(errs, fmt.Errorf("invalid session cleanup interval %v: must be at least 1 second", c.SessionCleanupInterval))
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = multierr.Append(errs, fmt.Errorf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if errs != nil {
		return fmt.Errorf("configuration validation failed: %w", errs)
	}

	return nil
}

// OtherProduct is the catalogue entry that switches to a typed product name.
const OtherProduct = "Otro"

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

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return append([]string(nil), defaultValue...)
	}
	var out []string
	seen := map[string]struct{}{}
	for _, v := range strings.Split(value, ",") {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

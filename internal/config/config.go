// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads server and client settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected in production.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the backend server configuration.
type Config struct {
	DBDriver      string `env:"CATADMIN_DB_DRIVER" envDefault:"sqlite"`
	DBPath        string `env:"CATADMIN_DB_PATH" envDefault:"./data/catadmin.db"`
	DBDSN         string `env:"CATADMIN_DB_DSN"` // MySQL DSN, used when DBDriver is mysql
	SessionSecret string `env:"CATADMIN_SESSION_SECRET,required,notEmpty"`
	ServerHost    string `env:"CATADMIN_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"CATADMIN_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"CATADMIN_ENV" envDefault:"development"`
	LogLevel      string `env:"CATADMIN_LOG_LEVEL" envDefault:"info"`

	// Cache configuration
	RedisURL     string `env:"CATADMIN_REDIS_URL"`                           // Optional Redis URL for distributed caching
	CachePrefix  string `env:"CATADMIN_CACHE_PREFIX" envDefault:"catadmin:"` // Redis key prefix
	CacheTTL     int    `env:"CATADMIN_CACHE_TTL" envDefault:"300"`          // Default cache TTL in seconds
	CacheMaxSize int    `env:"CATADMIN_CACHE_MAX_SIZE" envDefault:"10000"`   // Max memory cache entries

	// API write throttling, per client IP
	APIRateLimit float64 `env:"CATADMIN_API_RATE_LIMIT" envDefault:"10"`
	APIRateBurst int     `env:"CATADMIN_API_RATE_BURST" envDefault:"20"`

	// Scheduled jobs
	AuditSchedule      string `env:"CATADMIN_AUDIT_SCHEDULE" envDefault:"@every 1h"`
	EventRetentionDays int    `env:"CATADMIN_EVENT_RETENTION_DAYS" envDefault:"30"`

	// Change notifications; empty WebhookURLs disables them
	WebhookURLs         []string      `env:"CATADMIN_WEBHOOK_URLS" envSeparator:","`
	WebhookSecret       string        `env:"CATADMIN_WEBHOOK_SECRET"`
	WebhookRetries      uint64        `env:"CATADMIN_WEBHOOK_RETRIES" envDefault:"5"`
	WebhookTimeout      time.Duration `env:"CATADMIN_WEBHOOK_TIMEOUT" envDefault:"10s"`
	WebhookAllowPrivate bool          `env:"CATADMIN_WEBHOOK_ALLOW_PRIVATE" envDefault:"false"` // Permit loopback/private subscribers

	// Seeding configuration
	DoSeed bool `env:"CATADMIN_DO_SEED" envDefault:"false"` // Seed the demo category tree on an empty database
}

// ClientConfig holds the settings of the catctl console client.
type ClientConfig struct {
	BackendURL     string        `env:"CATADMIN_BACKEND_URL" envDefault:"http://localhost:8080"`
	RequestTimeout time.Duration `env:"CATADMIN_REQUEST_TIMEOUT" envDefault:"10s"`
	ReadRetries    uint64        `env:"CATADMIN_READ_RETRIES" envDefault:"3"`
	RetryBase      time.Duration `env:"CATADMIN_RETRY_BASE" envDefault:"200ms"`
	LogLevel       string        `env:"CATADMIN_LOG_LEVEL" envDefault:"warn"`

	// Optional fetch cache; an empty RedisURL keeps it in memory
	RedisURL    string `env:"CATADMIN_REDIS_URL"`
	CachePrefix string `env:"CATADMIN_CACHE_PREFIX" envDefault:"catctl:"`
	CacheTTL    int    `env:"CATADMIN_CLIENT_CACHE_TTL" envDefault:"30"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// UseWebhooks returns true if change notification subscribers are configured.
func (c Config) UseWebhooks() bool {
	return len(c.WebhookURLs) > 0
}

// DataSource returns the DSN for the configured driver.
func (c Config) DataSource() string {
	if c.DBDriver == "mysql" {
		return c.DBDSN
	}
	return c.DBPath
}

// EventRetention returns how long logged events are kept.
func (c Config) EventRetention() time.Duration {
	return time.Duration(c.EventRetentionDays) * 24 * time.Hour
}

// SlogLevel returns the configured log level.
func (c Config) SlogLevel() slog.Level {
	return ParseLevel(c.LogLevel)
}

// SlogLevel returns the configured log level.
func (c ClientConfig) SlogLevel() slog.Level {
	return ParseLevel(c.LogLevel)
}

// ParseLevel maps debug, info, warn and error to slog levels. Anything else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// MinSessionSecretLength is the minimum required length for the session secret.
// AES-256 requires 32 bytes minimum for secure encryption.
const MinSessionSecretLength = 32

// Load parses environment variables and returns the server Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	switch cfg.DBDriver {
	case "sqlite":
	case "mysql":
		if cfg.DBDSN == "" {
			return nil, fmt.Errorf("CATADMIN_DB_DSN is required when CATADMIN_DB_DRIVER is mysql")
		}
	default:
		return nil, fmt.Errorf("CATADMIN_DB_DRIVER must be sqlite or mysql, got %q", cfg.DBDriver)
	}

	if cfg.APIRateLimit <= 0 || cfg.APIRateBurst <= 0 {
		return nil, fmt.Errorf("CATADMIN_API_RATE_LIMIT and CATADMIN_API_RATE_BURST must be positive")
	}

	if cfg.UseWebhooks() && cfg.WebhookSecret == "" && !cfg.IsDevelopment() {
		return nil, fmt.Errorf("CATADMIN_WEBHOOK_SECRET is required when CATADMIN_WEBHOOK_URLS is set in production")
	}

	if err := checkSessionSecret(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadClient parses environment variables and returns the console ClientConfig.
func LoadClient() (*ClientConfig, error) {
	cfg := &ClientConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if !strings.HasPrefix(cfg.BackendURL, "http://") && !strings.HasPrefix(cfg.BackendURL, "https://") {
		return nil, fmt.Errorf("CATADMIN_BACKEND_URL must be an http(s) URL, got %q", cfg.BackendURL)
	}
	return cfg, nil
}

// checkSessionSecret enforces secret strength in production and only warns
// in development.
func checkSessionSecret(cfg *Config) error {
	if len(cfg.SessionSecret) < MinSessionSecretLength {
		if cfg.IsDevelopment() {
			slog.Warn("CATADMIN_SESSION_SECRET is shorter than recommended",
				"min_length", MinSessionSecretLength)
			return nil
		}
		return fmt.Errorf("CATADMIN_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	if !cfg.IsDevelopment() {
		for _, weak := range knownWeakSecrets {
			if cfg.SessionSecret == weak {
				return fmt.Errorf("CATADMIN_SESSION_SECRET is a known default value and must not be used; " +
					"generate a secure secret with: openssl rand -base64 32")
			}
		}
	}

	// Warn about low-entropy secrets
	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("CATADMIN_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}
	return nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads the application configuration from DETA_*
// environment variables.
package config

import (
	"errors"
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

// Storage backends.
const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBDriver      string `env:"DETA_DB_DRIVER" envDefault:"sqlite"`
	DBPath        string `env:"DETA_DB_PATH" envDefault:"./data/detaweb.db"`
	DatabaseURL   string `env:"DETA_DATABASE_URL"` // PostgreSQL DSN when DBDriver is postgres
	SessionSecret string `env:"DETA_SESSION_SECRET,required"`
	ServerHost    string `env:"DETA_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"DETA_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"DETA_ENV" envDefault:"development"`
	LogLevel      string `env:"DETA_LOG_LEVEL" envDefault:"info"`
	PublicURL     string `env:"DETA_PUBLIC_URL" envDefault:"http://localhost:8080"`

	// File storage
	Storage     string `env:"DETA_STORAGE" envDefault:"local"`
	UploadsDir  string `env:"DETA_UPLOADS_DIR" envDefault:"./uploads"`
	S3Bucket    string `env:"DETA_S3_BUCKET"`
	S3Region    string `env:"DETA_S3_REGION" envDefault:"us-east-1"`
	S3Endpoint  string `env:"DETA_S3_ENDPOINT"`   // Custom endpoint for S3-compatible stores
	S3PublicURL string `env:"DETA_S3_PUBLIC_URL"` // CDN or bucket URL objects are served from

	// Cache configuration
	RedisURL     string `env:"DETA_REDIS_URL"`                         // Optional Redis URL for distributed caching
	CachePrefix  string `env:"DETA_CACHE_PREFIX" envDefault:"deta:"`   // Redis key prefix
	CacheTTL     int    `env:"DETA_CACHE_TTL" envDefault:"300"`        // Default cache TTL in seconds
	CacheMaxSize int    `env:"DETA_CACHE_MAX_SIZE" envDefault:"10000"` // Max memory cache entries

	// Order confirmation emails are POSTed to this endpoint.
	NotifyURL     string        `env:"DETA_NOTIFY_URL"`
	NotifySecret  string        `env:"DETA_NOTIFY_SECRET"`
	NotifyWorkers int           `env:"DETA_NOTIFY_WORKERS" envDefault:"2"`
	NotifyTimeout time.Duration `env:"DETA_NOTIFY_TIMEOUT" envDefault:"10s"`

	// Public form rate limits, requests per minute per client IP
	OrderRateLimit int `env:"DETA_ORDER_RATE_LIMIT" envDefault:"10"`
	LoginRateLimit int `env:"DETA_LOGIN_RATE_LIMIT" envDefault:"5"`

	// Analytics
	GeoIPDBPath           string `env:"DETA_GEOIP_DB_PATH"` // Path to GeoLite2-Country.mmdb file
	PageViewRetentionDays int    `env:"DETA_PAGEVIEW_RETENTION_DAYS" envDefault:"90"`
	EventRetentionDays    int    `env:"DETA_EVENT_RETENTION_DAYS" envDefault:"30"`

	// Seeding configuration
	DoSeed        bool   `env:"DETA_DO_SEED" envDefault:"false"`
	AdminEmail    string `env:"DETA_ADMIN_EMAIL"`
	AdminPassword string `env:"DETA_ADMIN_PASSWORD"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UsePostgres returns true if PostgreSQL is the configured database.
func (c Config) UsePostgres() bool {
	return c.DBDriver == "postgres"
}

// DSN returns the connection string for the configured driver.
func (c Config) DSN() string {
	if c.UsePostgres() {
		return c.DatabaseURL
	}
	return c.DBPath
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// UseS3 returns true if uploads go to S3.
func (c Config) UseS3() bool {
	return c.Storage == StorageS3
}

// NotificationsEnabled returns true if an email sender endpoint is configured.
func (c Config) NotificationsEnabled() bool {
	return c.NotifyURL != ""
}

// GeoIPEnabled returns true if GeoIP database is configured.
func (c Config) GeoIPEnabled() bool {
	return c.GeoIPDBPath != ""
}

// CacheTTLDuration returns CacheTTL as a duration.
func (c Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// MinSessionSecretLength is the minimum required length for the session secret.
// AES-256 requires 32 bytes minimum for secure encryption.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("DETA_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.SessionSecret) < MinSessionSecretLength {
		return fmt.Errorf("DETA_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(c.SessionSecret))
	}

	for _, weak := range knownWeakSecrets {
		if c.SessionSecret == weak {
			return errors.New("DETA_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	switch c.DBDriver {
	case "sqlite":
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("DETA_DATABASE_URL is required when DETA_DB_DRIVER is postgres")
		}
	default:
		return fmt.Errorf("DETA_DB_DRIVER must be sqlite or postgres, got %q", c.DBDriver)
	}

	switch c.Storage {
	case StorageLocal:
	case StorageS3:
		if c.S3Bucket == "" {
			return errors.New("DETA_S3_BUCKET is required when DETA_STORAGE is s3")
		}
	default:
		return fmt.Errorf("DETA_STORAGE must be local or s3, got %q", c.Storage)
	}

	if c.NotifyWorkers < 1 {
		c.NotifyWorkers = 1
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

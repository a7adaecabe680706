// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected in production.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	APIBaseURL    string `env:"BLOGCONSOLE_API_BASE_URL,required"`
	SessionSecret string `env:"BLOGCONSOLE_SESSION_SECRET,required"`
	ServerHost    string `env:"BLOGCONSOLE_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"BLOGCONSOLE_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"BLOGCONSOLE_ENV" envDefault:"development"`
	LogLevel      string `env:"BLOGCONSOLE_LOG_LEVEL" envDefault:"info"`

	// Session storage
	RedisURL        string        `env:"BLOGCONSOLE_REDIS_URL"`                                // Optional Redis URL for shared sessions
	SessionPrefix   string        `env:"BLOGCONSOLE_SESSION_PREFIX" envDefault:"blogconsole:"` // Redis key prefix
	SessionLifetime time.Duration `env:"BLOGCONSOLE_SESSION_LIFETIME" envDefault:"24h"`
	SessionIdleTTL  time.Duration `env:"BLOGCONSOLE_SESSION_IDLE_TTL" envDefault:"30m"` // Idle page bindings are dropped after this

	// Timeouts and limits
	RequestTimeout  time.Duration `env:"BLOGCONSOLE_REQUEST_TIMEOUT" envDefault:"60s"`
	UpstreamTimeout time.Duration `env:"BLOGCONSOLE_UPSTREAM_TIMEOUT" envDefault:"30s"`
	UpstreamRate    float64       `env:"BLOGCONSOLE_UPSTREAM_RATE" envDefault:"0"` // Requests per second to the blog API, 0 = unlimited
	SigninRate      float64       `env:"BLOGCONSOLE_SIGNIN_RATE" envDefault:"0.5"` // Sign-in/register attempts per second per client

	// Listing
	PageSize      int `env:"BLOGCONSOLE_PAGE_SIZE" envDefault:"10"`
	ImagePageSize int `env:"BLOGCONSOLE_IMAGE_PAGE_SIZE" envDefault:"6"`

	// GitHub OAuth
	GitHubClientID    string `env:"BLOGCONSOLE_GITHUB_CLIENT_ID"`
	GitHubRedirectURI string `env:"BLOGCONSOLE_GITHUB_REDIRECT_URI"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisSessions returns true if Redis session storage is configured.
func (c Config) UseRedisSessions() bool {
	return c.RedisURL != ""
}

// GitHubEnabled returns true if GitHub sign-in is configured.
func (c Config) GitHubEnabled() bool {
	return c.GitHubClientID != "" && c.GitHubRedirectURI != ""
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

	u, err := url.Parse(cfg.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("BLOGCONSOLE_API_BASE_URL must be an http(s) URL, got %q", cfg.APIBaseURL)
	}

	// Validate session secret length
	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("BLOGCONSOLE_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	// Reject known weak/default secrets
	for _, weak := range knownWeakSecrets {
		if cfg.SessionSecret == weak {
			return nil, fmt.Errorf("BLOGCONSOLE_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	// Warn about low-entropy secrets
	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("BLOGCONSOLE_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	if cfg.PageSize < 1 || cfg.ImagePageSize < 1 {
		return nil, fmt.Errorf("page sizes must be positive, got %d and %d", cfg.PageSize, cfg.ImagePageSize)
	}
	if cfg.UpstreamRate < 0 || cfg.SigninRate < 0 {
		return nil, fmt.Errorf("rates must not be negative")
	}

	return cfg, nil
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

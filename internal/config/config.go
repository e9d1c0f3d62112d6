// Palate - Menu Recommendation Engine for Cavak's Kitchen
// Copyright 2026 Cavak's Kitchen
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cavaks-kitchen/palate

// Package config loads and validates the Palate service configuration.
//
// Configuration is layered: built-in defaults, then an optional YAML
// config file, then environment variables. Environment variables take
// the highest precedence so container deployments can override any
// setting without shipping a file.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config is the root configuration for the Palate service.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Store     StoreConfig     `koanf:"store"`
	Sync      SyncConfig      `koanf:"sync"`
	Cache     CacheConfig     `koanf:"cache"`
	Security  SecurityConfig  `koanf:"security"`
	Recommend RecommendConfig `koanf:"recommend"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	Environment     string        `koanf:"environment"` // development or production
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json or console
	Caller bool   `koanf:"caller"`
}

// StoreConfig holds the embedded Badger catalog store settings.
type StoreConfig struct {
	Path       string        `koanf:"path"`
	InMemory   bool          `koanf:"in_memory"` // ephemeral store, used in tests and demos
	GCInterval time.Duration `koanf:"gc_interval"`
}

// SyncConfig holds upstream storefront sync settings.
type SyncConfig struct {
	Enabled       bool          `koanf:"enabled"`
	UpstreamURL   string        `koanf:"upstream_url"`
	APIKey        string        `koanf:"api_key"`
	Interval      time.Duration `koanf:"interval"`
	Timeout       time.Duration `koanf:"timeout"`
	SyncOnStartup bool          `koanf:"sync_on_startup"`
	RateLimit     float64       `koanf:"rate_limit"` // upstream requests per second
	RateBurst     int           `koanf:"rate_burst"`
}

// CacheConfig holds the in-process recommendation cache settings.
type CacheConfig struct {
	Enabled         bool          `koanf:"enabled"`
	TTL             time.Duration `koanf:"ttl"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
	MaxEntries      int           `koanf:"max_entries"`
}

// SecurityConfig holds admin authentication and rate limit settings.
type SecurityConfig struct {
	AuthMode          string        `koanf:"auth_mode"` // jwt or none
	JWTSecret         string        `koanf:"jwt_secret"`
	SessionTimeout    time.Duration `koanf:"session_timeout"`
	AdminUsername     string        `koanf:"admin_username"`
	AdminPassword     string        `koanf:"admin_password"` // plaintext or bcrypt hash
	RateLimitReqs     int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// RecommendConfig holds recommendation engine tuning knobs.
type RecommendConfig struct {
	DefaultLimit   int      `koanf:"default_limit"`
	MaxLimit       int      `koanf:"max_limit"`
	NewProductDays int      `koanf:"new_product_days"`
	SeasonKeywords []string `koanf:"season_keywords"` // "season:keyword" pairs overriding the defaults
}

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateSync(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	return c.validateRecommend()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("PALATE_HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	switch c.Server.Environment {
	case "development", "production":
	default:
		return fmt.Errorf("PALATE_ENVIRONMENT must be development or production, got %q", c.Server.Environment)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("PALATE_SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "error", "fatal":
	default:
		return fmt.Errorf("PALATE_LOG_LEVEL must be one of trace, debug, info, warn, error, fatal, got %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("PALATE_LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateStore() error {
	if !c.Store.InMemory && c.Store.Path == "" {
		return fmt.Errorf("PALATE_STORE_PATH is required unless PALATE_STORE_IN_MEMORY=true")
	}
	if c.Store.GCInterval <= 0 {
		return fmt.Errorf("PALATE_STORE_GC_INTERVAL must be positive")
	}
	return nil
}

func (c *Config) validateSync() error {
	if !c.Sync.Enabled {
		return nil
	}
	if c.Sync.UpstreamURL == "" {
		return fmt.Errorf("PALATE_UPSTREAM_URL is required when PALATE_SYNC_ENABLED=true")
	}
	if err := validateHTTPURL(c.Sync.UpstreamURL, "PALATE_UPSTREAM_URL"); err != nil {
		return err
	}
	if c.Sync.Interval < time.Minute {
		return fmt.Errorf("PALATE_SYNC_INTERVAL must be at least 1m, got %s", c.Sync.Interval)
	}
	if c.Sync.Timeout <= 0 {
		return fmt.Errorf("PALATE_SYNC_TIMEOUT must be positive")
	}
	if c.Sync.RateLimit <= 0 {
		return fmt.Errorf("PALATE_SYNC_RATE_LIMIT must be positive, got %v", c.Sync.RateLimit)
	}
	if c.Sync.RateBurst < 1 {
		return fmt.Errorf("PALATE_SYNC_RATE_BURST must be at least 1, got %d", c.Sync.RateBurst)
	}
	return nil
}

func (c *Config) validateCache() error {
	if !c.Cache.Enabled {
		return nil
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("PALATE_CACHE_TTL must be positive when caching is enabled")
	}
	if c.Cache.CleanupInterval <= 0 {
		return fmt.Errorf("PALATE_CACHE_CLEANUP_INTERVAL must be positive when caching is enabled")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	switch c.Security.AuthMode {
	case "jwt":
		if c.Security.JWTSecret == "" {
			return fmt.Errorf("PALATE_JWT_SECRET is required when PALATE_AUTH_MODE=jwt")
		}
		if len(c.Security.JWTSecret) < 32 {
			return fmt.Errorf("PALATE_JWT_SECRET must be at least 32 characters, got %d", len(c.Security.JWTSecret))
		}
		if c.Security.AdminUsername == "" || c.Security.AdminPassword == "" {
			return fmt.Errorf("PALATE_ADMIN_USERNAME and PALATE_ADMIN_PASSWORD are required when PALATE_AUTH_MODE=jwt")
		}
		if c.Security.SessionTimeout <= 0 {
			return fmt.Errorf("PALATE_SESSION_TIMEOUT must be positive")
		}
	case "none":
		if c.Server.Environment == "production" {
			return fmt.Errorf("PALATE_AUTH_MODE=none is not allowed when PALATE_ENVIRONMENT=production")
		}
	default:
		return fmt.Errorf("PALATE_AUTH_MODE must be jwt or none, got %q", c.Security.AuthMode)
	}
	return c.validateRateLimits()
}

func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < 1 {
		return fmt.Errorf("PALATE_RATE_LIMIT_REQUESTS must be at least 1, got %d", c.Security.RateLimitReqs)
	}
	if c.Security.RateLimitWindow < time.Second {
		return fmt.Errorf("PALATE_RATE_LIMIT_WINDOW must be at least 1s, got %s", c.Security.RateLimitWindow)
	}
	return nil
}

func (c *Config) validateRecommend() error {
	if c.Recommend.DefaultLimit < 1 {
		return fmt.Errorf("PALATE_RECOMMEND_DEFAULT_LIMIT must be at least 1, got %d", c.Recommend.DefaultLimit)
	}
	if c.Recommend.MaxLimit < c.Recommend.DefaultLimit {
		return fmt.Errorf("PALATE_RECOMMEND_MAX_LIMIT must be >= default limit, got %d", c.Recommend.MaxLimit)
	}
	if c.Recommend.NewProductDays < 1 {
		return fmt.Errorf("PALATE_RECOMMEND_NEW_PRODUCT_DAYS must be at least 1, got %d", c.Recommend.NewProductDays)
	}
	for _, kw := range c.Recommend.SeasonKeywords {
		season, _, ok := strings.Cut(kw, ":")
		if !ok {
			return fmt.Errorf("PALATE_RECOMMEND_SEASON_KEYWORDS entries must be season:keyword pairs, got %q", kw)
		}
		switch season {
		case "spring", "summer", "autumn", "winter":
		default:
			return fmt.Errorf("unknown season %q in PALATE_RECOMMEND_SEASON_KEYWORDS", season)
		}
	}
	return nil
}

// SeasonKeywordOverrides parses the configured "season:keyword" pairs
// into a map keyed by season name. Returns nil when no overrides are set.
func (c *Config) SeasonKeywordOverrides() map[string][]string {
	if len(c.Recommend.SeasonKeywords) == 0 {
		return nil
	}
	out := make(map[string][]string)
	for _, kw := range c.Recommend.SeasonKeywords {
		season, word, ok := strings.Cut(kw, ":")
		if !ok || word == "" {
			continue
		}
		out[season] = append(out[season], word)
	}
	return out
}

// ListenAddr returns the host:port pair the HTTP server binds to.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// validateHTTPURL checks that a URL is absolute and uses http or https.
func validateHTTPURL(raw, name string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https, got %q", name, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%s is missing a host", name)
	}
	return nil
}

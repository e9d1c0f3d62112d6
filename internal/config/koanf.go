// Palate - Menu Recommendation Engine for Cavak's Kitchen
// Copyright 2026 Cavak's Kitchen
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cavaks-kitchen/palate

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/palate/config.yaml",
	"/etc/palate/config.yml",
}

// ConfigPathEnvVar overrides the config file search when set.
const ConfigPathEnvVar = "PALATE_CONFIG"

// defaultConfig returns a Config with all default values. These are
// applied first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8094,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
			Environment:     "development",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Store: StoreConfig{
			Path:       "/data/palate",
			InMemory:   false,
			GCInterval: 10 * time.Minute,
		},
		Sync: SyncConfig{
			Enabled:       false, // standalone mode by default, catalog loaded via admin API
			UpstreamURL:   "",
			APIKey:        "",
			Interval:      15 * time.Minute,
			Timeout:       30 * time.Second,
			SyncOnStartup: true,
			RateLimit:     5,
			RateBurst:     10,
		},
		Cache: CacheConfig{
			Enabled:         true,
			TTL:             5 * time.Minute,
			CleanupInterval: time.Minute,
			MaxEntries:      10000,
		},
		Security: SecurityConfig{
			AuthMode:          "jwt",
			JWTSecret:         "",
			SessionTimeout:    24 * time.Hour,
			AdminUsername:     "",
			AdminPassword:     "",
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Recommend: RecommendConfig{
			DefaultLimit:   20,
			MaxLimit:       100,
			NewProductDays: 30,
			SeasonKeywords: nil,
		},
	}
}

// Load loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in values from defaultConfig
//  2. Config file: optional YAML file (if one exists)
//  3. Environment variables: override any setting
//
// Precedence is ENV > file > defaults.
func Load() (*Config, error) {
	k := koanf.New(".")

	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the first file found, or empty string if none.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths are parsed as
// comma-separated slices when they arrive as env var strings.
var sliceConfigPaths = []string{
	"server.cors_origins",
	"recommend.season_keywords",
}

// processSliceFields converts comma-separated string values to slices
// for known slice fields. Env vars come in as strings but the config
// expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// Already a slice from the YAML file
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		if strVal, ok := val.(string); ok {
			if strVal == "" {
				continue
			}
			parts := strings.Split(strVal, ",")
			trimmed := make([]string, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p != "" {
					trimmed = append(trimmed, p)
				}
			}
			if len(trimmed) > 0 {
				if err := k.Set(path, trimmed); err != nil {
					return fmt.Errorf("failed to set %s: %w", path, err)
				}
			}
		}
	}
	return nil
}

// envTransformFunc maps PALATE_* environment variable names to koanf
// config paths. Unmapped keys return empty string and are skipped so
// unrelated environment variables never pollute the config.
//
// Examples:
//   - PALATE_HTTP_PORT -> server.port
//   - PALATE_UPSTREAM_URL -> sync.upstream_url
//   - PALATE_CACHE_TTL -> cache.ttl
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Server mappings
		"palate_http_host":        "server.host",
		"palate_http_port":        "server.port",
		"palate_read_timeout":     "server.read_timeout",
		"palate_write_timeout":    "server.write_timeout",
		"palate_idle_timeout":     "server.idle_timeout",
		"palate_shutdown_timeout": "server.shutdown_timeout",
		"palate_cors_origins":     "server.cors_origins",
		"palate_environment":      "server.environment",

		// Logging mappings
		"palate_log_level":  "logging.level",
		"palate_log_format": "logging.format",
		"palate_log_caller": "logging.caller",

		// Store mappings
		"palate_store_path":        "store.path",
		"palate_store_in_memory":   "store.in_memory",
		"palate_store_gc_interval": "store.gc_interval",

		// Sync mappings
		"palate_sync_enabled":     "sync.enabled",
		"palate_upstream_url":     "sync.upstream_url",
		"palate_upstream_api_key": "sync.api_key",
		"palate_sync_interval":    "sync.interval",
		"palate_sync_timeout":     "sync.timeout",
		"palate_sync_on_startup":  "sync.sync_on_startup",
		"palate_sync_rate_limit":  "sync.rate_limit",
		"palate_sync_rate_burst":  "sync.rate_burst",

		// Cache mappings
		"palate_cache_enabled":          "cache.enabled",
		"palate_cache_ttl":              "cache.ttl",
		"palate_cache_cleanup_interval": "cache.cleanup_interval",
		"palate_cache_max_entries":      "cache.max_entries",

		// Security mappings
		"palate_auth_mode":           "security.auth_mode",
		"palate_jwt_secret":          "security.jwt_secret",
		"palate_session_timeout":     "security.session_timeout",
		"palate_admin_username":      "security.admin_username",
		"palate_admin_password":      "security.admin_password",
		"palate_rate_limit_requests": "security.rate_limit_requests",
		"palate_rate_limit_window":   "security.rate_limit_window",
		"palate_rate_limit_disabled": "security.rate_limit_disabled",

		// Recommendation engine mappings
		"palate_recommend_default_limit":    "recommend.default_limit",
		"palate_recommend_max_limit":        "recommend.max_limit",
		"palate_recommend_new_product_days": "recommend.new_product_days",
		"palate_recommend_season_keywords":  "recommend.season_keywords",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	return ""
}

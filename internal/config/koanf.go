// Cinetrack - Movie Tracking and Recommendations
// Copyright 2026 Jordi N. (jordinodejs)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jordinodejs/cinetrack

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

// DefaultConfigPaths lists the paths where config files are searched in order
// of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/cinetrack/config.yaml",
	"/etc/cinetrack/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all default values. Defaults
// are applied first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        3900,
			Host:        "0.0.0.0",
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Database: DatabaseConfig{
			Path:                   "/data/cinetrack.duckdb",
			MaxMemory:              "1GB",
			Threads:                0, // 0 = use runtime.NumCPU()
			PreserveInsertionOrder: true,
		},
		TMDB: TMDBConfig{
			BaseURL:         "https://api.themoviedb.org/3",
			AccessToken:     "",
			Timeout:         15 * time.Second,
			RetryAttempts:   3,
			RetryDelay:      500 * time.Millisecond,
			RateLimit:       35, // TMDB allows ~50 req/s; stay under it
			RateBurst:       10,
			ListingCacheTTL: 5 * time.Minute,
			GenreCacheTTL:   24 * time.Hour,
			TrendingWindow:  "week",
			Language:        "en-US",
		},
		Security: SecurityConfig{
			JWTSecret:        "",
			SessionTimeout:   7 * 24 * time.Hour,
			SessionStore:     "badger",
			SessionStorePath: "/data/sessions",
			CookieName:       "cinetrack_token",
			CookieSecure:     true,
			BcryptCost:       12,

			LockoutThreshold: 5,
			LockoutDuration:  15 * time.Minute,

			RateLimitReqs:        100,
			RateLimitWindow:      1 * time.Minute,
			LoginRateLimitReqs:   10,
			LoginRateLimitWindow: 1 * time.Minute,
			RateLimitDisabled:    false,

			CORSOrigins:    []string{"*"},
			TrustedProxies: []string{},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Recommend: RecommendConfig{
			HighRatingThreshold: 8.0,
			AffinitySampleCap:   5,
			GenreBoost:          1.5,
			PagesPerSource:      2,
			OutputSize:          10,
			FallbackThreshold:   5,
			GenerationTimeout:   30 * time.Second,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in sensible defaults
//  2. Config file: optional YAML config file (if it exists)
//  3. Environment variables: override any setting
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults from struct
	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: optional config file
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment variables (highest priority)
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Post-process slice fields from comma-separated strings
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
// Returns the path of the first file found, or empty string if none found.
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

// sliceConfigPaths defines which config paths are parsed as comma-separated slices.
var sliceConfigPaths = []string{
	"security.cors_origins",
	"security.trusted_proxies",
}

// processSliceFields converts comma-separated string values to slices for
// known slice fields. Env vars arrive as strings but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// Already a slice (from YAML file)
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

// envTransformFunc maps environment variable names to koanf config paths.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - DUCKDB_PATH -> database.path
//   - TMDB_ACCESS_TOKEN -> tmdb.access_token
//   - JWT_SECRET -> security.jwt_secret
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Server mappings
		"http_port":    "server.port",
		"http_host":    "server.host",
		"http_timeout": "server.timeout",
		"environment":  "server.environment",

		// Database mappings
		"duckdb_path":       "database.path",
		"duckdb_max_memory": "database.max_memory",
		"duckdb_threads":    "database.threads",

		// TMDB mappings
		"tmdb_base_url":          "tmdb.base_url",
		"tmdb_access_token":      "tmdb.access_token",
		"tmdb_timeout":           "tmdb.timeout",
		"tmdb_retry_attempts":    "tmdb.retry_attempts",
		"tmdb_retry_delay":       "tmdb.retry_delay",
		"tmdb_rate_limit":        "tmdb.rate_limit",
		"tmdb_rate_burst":        "tmdb.rate_burst",
		"tmdb_listing_cache_ttl": "tmdb.listing_cache_ttl",
		"tmdb_genre_cache_ttl":   "tmdb.genre_cache_ttl",
		"tmdb_trending_window":   "tmdb.trending_window",
		"tmdb_language":          "tmdb.language",

		// Security mappings
		"jwt_secret":              "security.jwt_secret",
		"session_timeout":         "security.session_timeout",
		"session_store":           "security.session_store",
		"session_store_path":      "security.session_store_path",
		"cookie_name":             "security.cookie_name",
		"cookie_secure":           "security.cookie_secure",
		"bcrypt_cost":             "security.bcrypt_cost",
		"lockout_threshold":       "security.lockout_threshold",
		"lockout_duration":        "security.lockout_duration",
		"rate_limit_requests":     "security.rate_limit_reqs",
		"rate_limit_window":       "security.rate_limit_window",
		"login_rate_limit":        "security.login_rate_limit_reqs",
		"login_rate_limit_window": "security.login_rate_limit_window",
		"disable_rate_limit":      "security.rate_limit_disabled",
		"cors_origins":            "security.cors_origins",
		"trusted_proxies":         "security.trusted_proxies",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",

		// Recommendation engine mappings
		"recommend_high_rating_threshold": "recommend.high_rating_threshold",
		"recommend_affinity_sample_cap":   "recommend.affinity_sample_cap",
		"recommend_genre_boost":           "recommend.genre_boost",
		"recommend_pages_per_source":      "recommend.pages_per_source",
		"recommend_output_size":           "recommend.output_size",
		"recommend_fallback_threshold":    "recommend.fallback_threshold",
		"recommend_generation_timeout":    "recommend.generation_timeout",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// For unmapped keys, return empty string to skip them.
	// This prevents random environment variables from polluting config.
	return ""
}

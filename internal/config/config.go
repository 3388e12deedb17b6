// Cinetrack - Movie Tracking and Recommendations
// Copyright 2026 Jordi N. (jordinodejs)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jordinodejs/cinetrack

// Package config provides typed application configuration loaded through
// Koanf with layered precedence: environment variables override the config
// file, which overrides built-in defaults.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the Cinetrack server.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	TMDB      TMDBConfig      `koanf:"tmdb"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
	Recommend RecommendConfig `koanf:"recommend"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"` // Read/write timeout for HTTP handlers
	Environment string        `koanf:"environment"`
}

// ListenAddr returns the host:port string the HTTP server binds to.
func (s ServerConfig) ListenAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// IsProduction reports whether the server runs in production mode.
// Production mode enforces stricter secret validation and secure cookies.
func (s ServerConfig) IsProduction() bool {
	return s.Environment == "production"
}

// DatabaseConfig holds DuckDB connection settings.
type DatabaseConfig struct {
	Path                   string `koanf:"path"`
	MaxMemory              string `koanf:"max_memory"`
	Threads                int    `koanf:"threads"` // 0 = use runtime.NumCPU()
	PreserveInsertionOrder bool   `koanf:"preserve_insertion_order"`
}

// TMDBConfig holds settings for The Movie Database API client.
type TMDBConfig struct {
	BaseURL         string        `koanf:"base_url"`
	AccessToken     string        `koanf:"access_token"` // v4 read access token (Bearer)
	Timeout         time.Duration `koanf:"timeout"`
	RetryAttempts   int           `koanf:"retry_attempts"`
	RetryDelay      time.Duration `koanf:"retry_delay"`
	RateLimit       float64       `koanf:"rate_limit"` // Requests per second
	RateBurst       int           `koanf:"rate_burst"`
	ListingCacheTTL time.Duration `koanf:"listing_cache_ttl"` // Trending/popular/top-rated pages
	GenreCacheTTL   time.Duration `koanf:"genre_cache_ttl"`   // Genre taxonomy changes rarely
	TrendingWindow  string        `koanf:"trending_window"`   // "day" or "week"
	Language        string        `koanf:"language"`
}

// SecurityConfig holds authentication and request-protection settings.
type SecurityConfig struct {
	JWTSecret        string        `koanf:"jwt_secret"`
	SessionTimeout   time.Duration `koanf:"session_timeout"`
	SessionStore     string        `koanf:"session_store"` // "memory" or "badger"
	SessionStorePath string        `koanf:"session_store_path"`
	CookieName       string        `koanf:"cookie_name"`
	CookieSecure     bool          `koanf:"cookie_secure"`
	BcryptCost       int           `koanf:"bcrypt_cost"`

	// Account lockout after repeated failed logins
	LockoutThreshold int           `koanf:"lockout_threshold"`
	LockoutDuration  time.Duration `koanf:"lockout_duration"`

	// Rate limiting
	RateLimitReqs        int           `koanf:"rate_limit_reqs"`
	RateLimitWindow      time.Duration `koanf:"rate_limit_window"`
	LoginRateLimitReqs   int           `koanf:"login_rate_limit_reqs"`
	LoginRateLimitWindow time.Duration `koanf:"login_rate_limit_window"`
	RateLimitDisabled    bool          `koanf:"rate_limit_disabled"`

	CORSOrigins    []string `koanf:"cors_origins"`
	TrustedProxies []string `koanf:"trusted_proxies"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // "json" or "console"
	Caller bool   `koanf:"caller"`
}

// RecommendConfig holds the policy knobs of the recommendation engine.
// The defaults encode the documented scoring policy; operators can tune
// them without code changes.
type RecommendConfig struct {
	// HighRatingThreshold is the minimum rating (1-10 scale) for a rated
	// movie to count as a positive taste signal.
	HighRatingThreshold float64 `koanf:"high_rating_threshold"`

	// AffinitySampleCap bounds how many high-rated movies contribute to
	// the genre affinity profile.
	AffinitySampleCap int `koanf:"affinity_sample_cap"`

	// GenreBoost is the multiplier applied to accumulated genre affinity
	// when scoring a candidate.
	GenreBoost float64 `koanf:"genre_boost"`

	// PagesPerSource is how many pages are fetched from each candidate
	// listing (popular and top rated).
	PagesPerSource int `koanf:"pages_per_source"`

	// OutputSize is the number of recommendations persisted per run.
	OutputSize int `koanf:"output_size"`

	// FallbackThreshold triggers the non-personalized fallback when the
	// strict pass yields fewer survivors than this.
	FallbackThreshold int `koanf:"fallback_threshold"`

	// GenerationTimeout bounds a single generation run end to end.
	GenerationTimeout time.Duration `koanf:"generation_timeout"`
}

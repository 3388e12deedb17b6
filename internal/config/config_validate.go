// Cinetrack - Movie Tracking and Recommendations
// Copyright 2026 Jordi N. (jordinodejs)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jordinodejs/cinetrack

package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validateTMDB(); err != nil {
		return err
	}

	if err := c.validateSecurity(); err != nil {
		return err
	}

	if err := c.validateRecommend(); err != nil {
		return err
	}

	return c.validateLogging()
}

// validateServer validates server configuration
func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout < time.Second {
		return fmt.Errorf("HTTP_TIMEOUT must be at least 1s")
	}
	return nil
}

// validateDatabase validates DuckDB configuration
func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH is required")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must be >= 0 (0 = all CPUs)")
	}
	return nil
}

// validateTMDB validates The Movie Database client configuration.
// A missing access token is fatal: every catalog and recommendation
// feature depends on the TMDB API.
func (c *Config) validateTMDB() error {
	if c.TMDB.AccessToken == "" {
		return fmt.Errorf("TMDB_ACCESS_TOKEN is required - create a v4 read access token at https://www.themoviedb.org/settings/api")
	}
	if containsPlaceholder(c.TMDB.AccessToken) {
		return fmt.Errorf("TMDB_ACCESS_TOKEN contains a placeholder value - set your real API read access token")
	}
	if c.TMDB.BaseURL == "" {
		return fmt.Errorf("TMDB_BASE_URL must not be empty")
	}
	if !strings.HasPrefix(c.TMDB.BaseURL, "http://") && !strings.HasPrefix(c.TMDB.BaseURL, "https://") {
		return fmt.Errorf("TMDB_BASE_URL must start with http:// or https://")
	}
	if c.TMDB.TrendingWindow != "day" && c.TMDB.TrendingWindow != "week" {
		return fmt.Errorf("TMDB_TRENDING_WINDOW must be \"day\" or \"week\"")
	}
	if c.TMDB.RetryAttempts < 0 || c.TMDB.RetryAttempts > 10 {
		return fmt.Errorf("TMDB_RETRY_ATTEMPTS must be between 0 and 10")
	}
	if c.TMDB.RateLimit <= 0 {
		return fmt.Errorf("TMDB_RATE_LIMIT must be positive")
	}
	return nil
}

// Rate limit bounds to catch misconfiguration that would either disable
// protection or lock out all clients.
const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
)

// validateSecurity validates security configuration
func (c *Config) validateSecurity() error {
	if err := c.validateJWTSecret(); err != nil {
		return err
	}

	if err := c.validateSessionStore(); err != nil {
		return err
	}

	if err := c.validateCORS(); err != nil {
		return err
	}

	if err := c.validateLockout(); err != nil {
		return err
	}

	return c.validateRateLimits()
}

// validateJWTSecret validates the JWT signing secret
func (c *Config) validateJWTSecret() error {
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required - generate one with: openssl rand -base64 32")
	}
	if len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters for security")
	}
	if containsPlaceholder(c.Security.JWTSecret) {
		return fmt.Errorf("JWT_SECRET contains a placeholder value - generate a secure secret with: openssl rand -base64 32")
	}
	return nil
}

// validSessionStores defines the allowed session store backends
var validSessionStores = map[string]bool{
	"memory": true,
	"badger": true,
}

// validateSessionStore validates the session store configuration
func (c *Config) validateSessionStore() error {
	if !validSessionStores[c.Security.SessionStore] {
		return fmt.Errorf("SESSION_STORE must be one of: memory, badger")
	}
	if c.Security.SessionStore == "badger" && c.Security.SessionStorePath == "" {
		return fmt.Errorf("SESSION_STORE_PATH is required when SESSION_STORE is badger")
	}
	if c.Security.BcryptCost < 10 || c.Security.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 10 and 31")
	}
	return nil
}

// validateCORS rejects wildcard CORS in production. Wildcard origins
// combined with cookie authentication let any website replay stolen
// credentials against protected endpoints.
func (c *Config) validateCORS() error {
	if c.hasWildcardCORS() && c.Server.IsProduction() {
		return fmt.Errorf("CORS_ORIGINS=* (wildcard) is not allowed in production. " +
			"Set specific origins: CORS_ORIGINS=https://yourdomain.com " +
			"or use ENVIRONMENT=development for testing purposes")
	}
	return nil
}

// hasWildcardCORS checks if CORS is configured with wildcard origins
func (c *Config) hasWildcardCORS() bool {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// validateLockout validates account lockout configuration
func (c *Config) validateLockout() error {
	if c.Security.LockoutThreshold < 1 {
		return fmt.Errorf("LOCKOUT_THRESHOLD must be at least 1")
	}
	if c.Security.LockoutDuration < time.Second {
		return fmt.Errorf("LOCKOUT_DURATION must be at least 1s")
	}
	return nil
}

// validateRateLimits validates rate limiting configuration bounds
func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}

	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	if c.Security.LoginRateLimitReqs < minRateLimitRequests || c.Security.LoginRateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("LOGIN_RATE_LIMIT must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.LoginRateLimitWindow < minRateLimitWindow || c.Security.LoginRateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("LOGIN_RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

// validateRecommend validates recommendation engine policy knobs
func (c *Config) validateRecommend() error {
	r := c.Recommend
	if r.HighRatingThreshold < 1 || r.HighRatingThreshold > 10 {
		return fmt.Errorf("RECOMMEND_HIGH_RATING_THRESHOLD must be between 1 and 10")
	}
	if r.AffinitySampleCap < 1 {
		return fmt.Errorf("RECOMMEND_AFFINITY_SAMPLE_CAP must be at least 1")
	}
	if r.GenreBoost < 0 {
		return fmt.Errorf("RECOMMEND_GENRE_BOOST must not be negative")
	}
	if r.PagesPerSource < 1 {
		return fmt.Errorf("RECOMMEND_PAGES_PER_SOURCE must be at least 1")
	}
	if r.OutputSize < 1 {
		return fmt.Errorf("RECOMMEND_OUTPUT_SIZE must be at least 1")
	}
	if r.FallbackThreshold < 0 {
		return fmt.Errorf("RECOMMEND_FALLBACK_THRESHOLD must not be negative")
	}
	if r.FallbackThreshold > r.OutputSize {
		return fmt.Errorf("RECOMMEND_FALLBACK_THRESHOLD must not exceed RECOMMEND_OUTPUT_SIZE")
	}
	if r.GenerationTimeout < time.Second {
		return fmt.Errorf("RECOMMEND_GENERATION_TIMEOUT must be at least 1s")
	}
	return nil
}

// validLogLevels defines the allowed log levels
var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validLogFormats defines the allowed log formats
var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

// validateLogging validates logging configuration
func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// placeholderPatterns defines common placeholder patterns that indicate
// the user forgot to set a real value. This prevents accidental deployment
// with insecure default credentials.
var placeholderPatterns = []string{
	"REPLACE",
	"CHANGEME",
	"CHANGE_ME",
	"YOUR_SECRET",
	"YOUR_TOKEN",
	"PLACEHOLDER",
	"EXAMPLE",
}

// containsPlaceholder checks if a value contains common placeholder patterns
func containsPlaceholder(value string) bool {
	upperValue := strings.ToUpper(value)
	for _, pattern := range placeholderPatterns {
		if strings.Contains(upperValue, pattern) {
			return true
		}
	}
	return false
}

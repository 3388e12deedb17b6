// Cinetrack - Movie Tracking and Recommendations
// Copyright 2026 Jordi N. (jordinodejs)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jordinodejs/cinetrack

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const (
	testJWTSecret   = "0123456789abcdef0123456789abcdef" // 32 chars
	testAccessToken = "eyJhbGciOiJIUzI1NiJ9.test-token"
)

// setRequiredEnv sets the minimum environment for LoadWithKoanf to pass validation.
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", testJWTSecret)
	t.Setenv("TMDB_ACCESS_TOKEN", testAccessToken)
	t.Setenv("DUCKDB_PATH", filepath.Join(t.TempDir(), "test.duckdb"))
}

// TestDefaultConfig verifies that defaultConfig() returns proper defaults
func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Server.Port != 3900 {
		t.Errorf("Server.Port = %d, want 3900", cfg.Server.Port)
	}
	if cfg.Server.Timeout != 30*time.Second {
		t.Errorf("Server.Timeout = %v, want 30s", cfg.Server.Timeout)
	}
	if cfg.Database.Path != "/data/cinetrack.duckdb" {
		t.Errorf("Database.Path = %q, want /data/cinetrack.duckdb", cfg.Database.Path)
	}
	if cfg.TMDB.BaseURL != "https://api.themoviedb.org/3" {
		t.Errorf("TMDB.BaseURL = %q", cfg.TMDB.BaseURL)
	}
	if cfg.TMDB.AccessToken != "" {
		t.Errorf("TMDB.AccessToken should be empty by default (required field)")
	}
	if cfg.TMDB.TrendingWindow != "week" {
		t.Errorf("TMDB.TrendingWindow = %q, want week", cfg.TMDB.TrendingWindow)
	}
	if cfg.Security.SessionStore != "badger" {
		t.Errorf("Security.SessionStore = %q, want badger", cfg.Security.SessionStore)
	}
	if cfg.Security.SessionTimeout != 7*24*time.Hour {
		t.Errorf("Security.SessionTimeout = %v, want 168h", cfg.Security.SessionTimeout)
	}
	if cfg.Security.BcryptCost != 12 {
		t.Errorf("Security.BcryptCost = %d, want 12", cfg.Security.BcryptCost)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("Logging defaults = %q/%q, want info/json", cfg.Logging.Level, cfg.Logging.Format)
	}
}

// TestDefaultRecommendKnobs pins the documented scoring policy defaults.
func TestDefaultRecommendKnobs(t *testing.T) {
	r := defaultConfig().Recommend

	if r.HighRatingThreshold != 8.0 {
		t.Errorf("HighRatingThreshold = %v, want 8", r.HighRatingThreshold)
	}
	if r.AffinitySampleCap != 5 {
		t.Errorf("AffinitySampleCap = %d, want 5", r.AffinitySampleCap)
	}
	if r.GenreBoost != 1.5 {
		t.Errorf("GenreBoost = %v, want 1.5", r.GenreBoost)
	}
	if r.PagesPerSource != 2 {
		t.Errorf("PagesPerSource = %d, want 2", r.PagesPerSource)
	}
	if r.OutputSize != 10 {
		t.Errorf("OutputSize = %d, want 10", r.OutputSize)
	}
	if r.FallbackThreshold != 5 {
		t.Errorf("FallbackThreshold = %d, want 5", r.FallbackThreshold)
	}
	if r.GenerationTimeout != 30*time.Second {
		t.Errorf("GenerationTimeout = %v, want 30s", r.GenerationTimeout)
	}
}

// TestLoadWithKoanfEnvOverrides verifies env vars take precedence over defaults
func TestLoadWithKoanfEnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("HTTP_PORT", "8080")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("RECOMMEND_GENRE_BOOST", "2.0")
	t.Setenv("RECOMMEND_OUTPUT_SIZE", "20")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Recommend.GenreBoost != 2.0 {
		t.Errorf("Recommend.GenreBoost = %v, want 2.0", cfg.Recommend.GenreBoost)
	}
	if cfg.Recommend.OutputSize != 20 {
		t.Errorf("Recommend.OutputSize = %d, want 20", cfg.Recommend.OutputSize)
	}
	want := []string{"https://a.example.com", "https://b.example.com"}
	if len(cfg.Security.CORSOrigins) != len(want) {
		t.Fatalf("CORSOrigins = %v, want %v", cfg.Security.CORSOrigins, want)
	}
	for i := range want {
		if cfg.Security.CORSOrigins[i] != want[i] {
			t.Errorf("CORSOrigins[%d] = %q, want %q", i, cfg.Security.CORSOrigins[i], want[i])
		}
	}
}

// TestLoadWithKoanfConfigFile verifies YAML file values override defaults
func TestLoadWithKoanfConfigFile(t *testing.T) {
	setRequiredEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: 4100
recommend:
  pages_per_source: 3
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error: %v", err)
	}
	if cfg.Server.Port != 4100 {
		t.Errorf("Server.Port = %d, want 4100 from config file", cfg.Server.Port)
	}
	if cfg.Recommend.PagesPerSource != 3 {
		t.Errorf("Recommend.PagesPerSource = %d, want 3 from config file", cfg.Recommend.PagesPerSource)
	}
}

// TestEnvTransformFunc verifies the env var to config path mapping
func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"HTTP_PORT", "server.port"},
		{"DUCKDB_PATH", "database.path"},
		{"TMDB_ACCESS_TOKEN", "tmdb.access_token"},
		{"JWT_SECRET", "security.jwt_secret"},
		{"LOG_LEVEL", "logging.level"},
		{"RECOMMEND_HIGH_RATING_THRESHOLD", "recommend.high_rating_threshold"},
		{"RECOMMEND_GENERATION_TIMEOUT", "recommend.generation_timeout"},
		{"SOME_RANDOM_VAR", ""}, // unmapped keys are skipped
		{"PATH", ""},
	}

	for _, tt := range tests {
		if got := envTransformFunc(tt.env); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
		}
	}
}

// TestValidate exercises the validation rules against a known-good base config
func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := defaultConfig()
		cfg.Security.JWTSecret = testJWTSecret
		cfg.TMDB.AccessToken = testAccessToken
		return cfg
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing jwt secret",
			mutate:  func(c *Config) { c.Security.JWTSecret = "" },
			wantErr: "JWT_SECRET is required",
		},
		{
			name:    "short jwt secret",
			mutate:  func(c *Config) { c.Security.JWTSecret = "short" },
			wantErr: "at least 32 characters",
		},
		{
			name:    "placeholder jwt secret",
			mutate:  func(c *Config) { c.Security.JWTSecret = "changeme-changeme-changeme-changeme" },
			wantErr: "placeholder",
		},
		{
			name:    "missing tmdb token",
			mutate:  func(c *Config) { c.TMDB.AccessToken = "" },
			wantErr: "TMDB_ACCESS_TOKEN is required",
		},
		{
			name:    "bad trending window",
			mutate:  func(c *Config) { c.TMDB.TrendingWindow = "month" },
			wantErr: "TMDB_TRENDING_WINDOW",
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "HTTP_PORT",
		},
		{
			name:    "missing database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: "DUCKDB_PATH",
		},
		{
			name:    "bad session store",
			mutate:  func(c *Config) { c.Security.SessionStore = "redis" },
			wantErr: "SESSION_STORE",
		},
		{
			name: "wildcard cors in production",
			mutate: func(c *Config) {
				c.Server.Environment = "production"
				c.Security.CORSOrigins = []string{"*"}
			},
			wantErr: "wildcard",
		},
		{
			name:    "rating threshold out of range",
			mutate:  func(c *Config) { c.Recommend.HighRatingThreshold = 11 },
			wantErr: "RECOMMEND_HIGH_RATING_THRESHOLD",
		},
		{
			name:    "zero output size",
			mutate:  func(c *Config) { c.Recommend.OutputSize = 0 },
			wantErr: "RECOMMEND_OUTPUT_SIZE",
		},
		{
			name: "fallback threshold above output size",
			mutate: func(c *Config) {
				c.Recommend.OutputSize = 4
				c.Recommend.FallbackThreshold = 5
			},
			wantErr: "RECOMMEND_FALLBACK_THRESHOLD",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "LOG_LEVEL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want substring %q", err.Error(), tt.wantErr)
			}
		})
	}
}

// TestListenAddr verifies host:port formatting
func TestListenAddr(t *testing.T) {
	s := ServerConfig{Host: "127.0.0.1", Port: 3900}
	if got := s.ListenAddr(); got != "127.0.0.1:3900" {
		t.Errorf("ListenAddr() = %q, want 127.0.0.1:3900", got)
	}
}

// Cinetrack - Movie Tracking and Recommendations
// Copyright 2026 Jordi N. (jordinodejs)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jordinodejs/cinetrack

// Package main is the entry point for the Cinetrack server.
//
// Cinetrack is a self-hosted movie tracking service backed by The Movie
// Database (TMDB). Users keep a watchlist, rate movies, attach notes,
// and get personalized recommendations derived from their rating
// history.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: environment variables over config file over
//     built-in defaults (Koanf v2)
//  2. Database: DuckDB storing users, library data, and recommendations
//  3. TMDB client: rate-limited, cached, behind a circuit breaker
//  4. Authentication: bcrypt credentials, JWT sessions, lockout
//  5. Recommendation engine: genre-affinity scoring over TMDB listings
//  6. HTTP server: chi REST API with Prometheus metrics
//
// All long-lived components run under a suture supervision tree so a
// crashed janitor or server restarts with backoff.
//
// # Configuration
//
// Required settings:
//   - TMDB_ACCESS_TOKEN: v4 read access token for the TMDB API
//   - SECURITY_JWT_SECRET: 32+ character secret for session tokens
//
// Every other knob has a sensible default; see internal/config for the
// full set.
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the server stops
// accepting connections, drains in-flight requests, and closes the
// database and session store.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jordinodejs/cinetrack/internal/api"
	"github.com/jordinodejs/cinetrack/internal/auth"
	"github.com/jordinodejs/cinetrack/internal/config"
	"github.com/jordinodejs/cinetrack/internal/database"
	"github.com/jordinodejs/cinetrack/internal/logging"
	"github.com/jordinodejs/cinetrack/internal/recommend"
	"github.com/jordinodejs/cinetrack/internal/supervisor"
	"github.com/jordinodejs/cinetrack/internal/tmdb"
)

const janitorInterval = 5 * time.Minute

func main() {
	// Load configuration first to get logging settings.
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("addr", cfg.Server.ListenAddr()).
		Str("db_path", cfg.Database.Path).
		Str("session_store", cfg.Security.SessionStore).
		Msg("Starting Cinetrack")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized")

	// TMDB client behind a circuit breaker so a flaky upstream fails
	// fast instead of tying up request handlers.
	catalog := tmdb.NewCircuitBreakerClient(&cfg.TMDB)

	sessionFactory, err := auth.NewSessionStoreFactory(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open session store")
	}
	defer func() {
		if err := sessionFactory.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing session store")
		}
	}()
	sessions := sessionFactory.CreateStore()

	authService, err := auth.NewService(&cfg.Security, db, sessions)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize authentication")
	}

	engine, err := recommend.NewEngine(cfg.Recommend, db, catalog)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize recommendation engine")
	}

	handler := api.NewHandler(cfg, db, catalog, engine, authService)
	router := api.NewRouter(cfg, handler, authService)

	server := &http.Server{
		Addr:              cfg.Server.ListenAddr(),
		Handler:           router,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddAPIService(supervisor.NewHTTPService(server, 10*time.Second))
	tree.AddMaintenanceService(supervisor.NewPeriodicService(
		"session-janitor", janitorInterval, auth.CleanupTask(sessions)))
	tree.AddMaintenanceService(supervisor.NewPeriodicService(
		"lockout-janitor", janitorInterval, authService.Lockout().CleanupStale))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Drain until the supervisor closes the channel.
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	if unstopped, err := tree.UnstoppedServiceReport(); err == nil && len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
		}
	}

	logging.Info().Msg("Cinetrack stopped gracefully")
}

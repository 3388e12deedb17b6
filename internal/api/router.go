// Cinetrack - Movie Tracking and Recommendations
// Copyright 2026 Jordi N. (jordinodejs)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jordinodejs/cinetrack

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jordinodejs/cinetrack/internal/auth"
	"github.com/jordinodejs/cinetrack/internal/config"
	"github.com/jordinodejs/cinetrack/internal/middleware"
)

// NewRouter assembles the full HTTP surface: public auth and health
// endpoints, the authenticated API, and the Prometheus scrape endpoint.
func NewRouter(cfg *config.Config, h *Handler, authService *auth.Service) http.Handler {
	m := NewChiMiddleware(&cfg.Security)
	authMW := auth.NewMiddleware(authService, cfg.Security.CookieName)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(m.CORS())
	r.Use(middleware.RequestLogger)

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(middleware.PrometheusMetrics)
		r.With(m.RateLimitLogin()).Post("/register", h.Register)
		r.With(m.RateLimitLogin()).Post("/login", h.Login)
		r.With(m.RateLimit()).Post("/logout", h.Logout)
		r.With(m.RateLimit(), authMW.RequireAuth).Get("/me", h.Me)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(m.RateLimit())
		r.Use(middleware.PrometheusMetrics)
		r.Use(authMW.RequireAuth)

		r.Route("/movies", func(r chi.Router) {
			r.Get("/trending", h.Trending)
			r.Get("/popular", h.Popular)
			r.Get("/top-rated", h.TopRated)
			r.Get("/search", h.Search)
			r.Get("/genres", h.Genres)
			r.Get("/{movieID}", h.MovieDetail)
		})

		r.Route("/watchlist", func(r chi.Router) {
			r.Get("/", h.ListWatchlist)
			r.Post("/", h.AddToWatchlist)
			r.Delete("/{movieID}", h.RemoveFromWatchlist)
		})

		r.Route("/ratings", func(r chi.Router) {
			r.Get("/", h.ListRatings)
			r.Post("/", h.UpsertRating)
			r.Delete("/{movieID}", h.DeleteRating)
		})

		r.Route("/notes", func(r chi.Router) {
			r.Get("/", h.ListNotes)
			r.Post("/", h.UpsertNote)
			r.Delete("/{movieID}", h.DeleteNote)
		})

		r.Get("/profile", h.Profile)

		r.Route("/recommendations", func(r chi.Router) {
			r.Get("/", h.Recommendations)
			r.Post("/generate", h.GenerateRecommendations)
		})
	})

	r.Get("/healthz", h.Liveness)
	r.Get("/readyz", h.Readiness)
	r.Get("/health", h.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

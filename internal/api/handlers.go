// Cinetrack - Movie Tracking and Recommendations
// Copyright 2026 Jordi N. (jordinodejs)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jordinodejs/cinetrack

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jordinodejs/cinetrack/internal/auth"
	"github.com/jordinodejs/cinetrack/internal/config"
	"github.com/jordinodejs/cinetrack/internal/database"
	"github.com/jordinodejs/cinetrack/internal/recommend"
	"github.com/jordinodejs/cinetrack/internal/tmdb"
	"github.com/jordinodejs/cinetrack/internal/validation"
)

// Handler implements every API endpoint. Dependencies are the storage
// layer, the TMDB catalog, the recommendation engine, and the auth
// service.
type Handler struct {
	db     *database.DB
	tmdb   tmdb.API
	engine *recommend.Engine
	auth   *auth.Service
	cfg    *config.Config
}

// NewHandler wires the handler from its collaborators.
func NewHandler(cfg *config.Config, db *database.DB, catalog tmdb.API, engine *recommend.Engine, authService *auth.Service) *Handler {
	return &Handler{
		db:     db,
		tmdb:   catalog,
		engine: engine,
		auth:   authService,
		cfg:    cfg,
	}
}

// currentUserID returns the authenticated user's ID. The auth middleware
// guarantees a session on protected routes; an empty return means the
// route was misregistered.
func currentUserID(r *http.Request) string {
	if session := auth.SessionFromContext(r.Context()); session != nil {
		return session.UserID
	}
	return ""
}

// queryPage reads the ?page= parameter, defaulting to 1.
func queryPage(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// queryLimit reads the ?limit= parameter. 0 means no limit.
func queryLimit(r *http.Request, max int) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 0 {
		return 0
	}
	if max > 0 && limit > max {
		return max
	}
	return limit
}

// queryLocale reads the optional ?locale= parameter. An absent locale
// returns "", which the metadata client resolves to the configured
// default. A malformed one writes a 400 and returns ok=false.
func queryLocale(w http.ResponseWriter, r *http.Request) (locale string, ok bool) {
	locale = r.URL.Query().Get("locale")
	if locale == "" {
		return "", true
	}
	if !validation.IsValidLocale(locale) {
		NewResponseWriter(w, r).BadRequest("locale must be a tag such as en-US")
		return "", false
	}
	return locale, true
}

// pathMovieID parses the {movieID} route parameter.
func pathMovieID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "movieID"))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

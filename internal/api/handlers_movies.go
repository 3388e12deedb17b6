// Cinetrack - Movie Tracking and Recommendations
// Copyright 2026 Jordi N. (jordinodejs)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jordinodejs/cinetrack

package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jordinodejs/cinetrack/internal/database"
	"github.com/jordinodejs/cinetrack/internal/models"
)

// Trending serves the TMDB trending list.
func (h *Handler) Trending(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	locale, ok := queryLocale(w, r)
	if !ok {
		return
	}
	page, err := h.tmdb.Trending(r.Context(), queryPage(r), locale)
	if err != nil {
		rw.ExternalServiceError("tmdb", err)
		return
	}
	rw.Success(page)
}

// Popular serves the TMDB popular list.
func (h *Handler) Popular(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	locale, ok := queryLocale(w, r)
	if !ok {
		return
	}
	page, err := h.tmdb.Popular(r.Context(), queryPage(r), locale)
	if err != nil {
		rw.ExternalServiceError("tmdb", err)
		return
	}
	rw.Success(page)
}

// TopRated serves the TMDB top-rated list.
func (h *Handler) TopRated(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	locale, ok := queryLocale(w, r)
	if !ok {
		return
	}
	page, err := h.tmdb.TopRated(r.Context(), queryPage(r), locale)
	if err != nil {
		rw.ExternalServiceError("tmdb", err)
		return
	}
	rw.Success(page)
}

// Search proxies a title search to TMDB.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		rw.BadRequest("query parameter is required")
		return
	}
	locale, ok := queryLocale(w, r)
	if !ok {
		return
	}

	page, err := h.tmdb.Search(r.Context(), query, queryPage(r), locale)
	if err != nil {
		rw.ExternalServiceError("tmdb", err)
		return
	}
	rw.Success(page)
}

// Genres serves the TMDB genre dictionary.
func (h *Handler) Genres(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	locale, ok := queryLocale(w, r)
	if !ok {
		return
	}
	genres, err := h.tmdb.Genres(r.Context(), locale)
	if err != nil {
		rw.ExternalServiceError("tmdb", err)
		return
	}
	rw.Success(genres)
}

// movieDetailResponse combines catalog metadata with the viewer's own
// watchlist, rating and note state for that movie.
type movieDetailResponse struct {
	Movie    *models.MovieDetails  `json:"movie"`
	UserData *models.MovieUserData `json:"user_data"`
}

// MovieDetail serves a single movie with the viewer's state attached.
func (h *Handler) MovieDetail(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	movieID, ok := pathMovieID(r)
	if !ok {
		rw.BadRequest("invalid movie id")
		return
	}
	locale, ok := queryLocale(w, r)
	if !ok {
		return
	}

	details, err := h.tmdb.MovieDetails(r.Context(), movieID, locale)
	if err != nil {
		rw.ExternalServiceError("tmdb", err)
		return
	}

	userData, err := h.movieUserData(r, movieID)
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	rw.Success(movieDetailResponse{Movie: details, UserData: userData})
}

func (h *Handler) movieUserData(r *http.Request, movieID int) (*models.MovieUserData, error) {
	userID := currentUserID(r)
	ctx := r.Context()

	inWatchlist, err := h.db.InWatchlist(ctx, userID, movieID)
	if err != nil {
		return nil, err
	}

	rating, err := h.db.GetRating(ctx, userID, movieID)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	note, err := h.db.GetNote(ctx, userID, movieID)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	return &models.MovieUserData{
		InWatchlist: inWatchlist,
		Rating:      rating,
		Note:        note,
	}, nil
}

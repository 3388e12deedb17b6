// Cinetrack - Movie Tracking and Recommendations
// Copyright 2026 Jordi N. (jordinodejs)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jordinodejs/cinetrack

package api

import (
	"net/http"
)

const maxListLimit = 200

// ListWatchlist returns the user's watchlist, newest first.
func (h *Handler) ListWatchlist(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	items, err := h.db.ListWatchlist(r.Context(), currentUserID(r))
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.Success(items)
}

// AddToWatchlist saves a movie to the user's watchlist. Re-adding an
// existing movie is a no-op.
func (h *Handler) AddToWatchlist(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req WatchlistRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	item, err := h.db.AddToWatchlist(r.Context(), currentUserID(r), req.MovieID, req.Title, req.PosterPath)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.Created(item)
}

// RemoveFromWatchlist deletes a watchlist entry.
func (h *Handler) RemoveFromWatchlist(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	movieID, ok := pathMovieID(r)
	if !ok {
		rw.BadRequest("invalid movie id")
		return
	}

	if err := h.db.RemoveFromWatchlist(r.Context(), currentUserID(r), movieID); err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.NoContent()
}

// ListRatings returns the user's ratings, newest first.
func (h *Handler) ListRatings(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	ratings, err := h.db.ListRatings(r.Context(), currentUserID(r), queryLimit(r, maxListLimit))
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.Success(ratings)
}

// UpsertRating creates or replaces the user's rating for a movie.
func (h *Handler) UpsertRating(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req RatingRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	rating, err := h.db.UpsertRating(r.Context(), currentUserID(r), req.MovieID, req.Rating, req.Title, req.PosterPath)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.Success(rating)
}

// DeleteRating removes the user's rating for a movie.
func (h *Handler) DeleteRating(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	movieID, ok := pathMovieID(r)
	if !ok {
		rw.BadRequest("invalid movie id")
		return
	}

	if err := h.db.DeleteRating(r.Context(), currentUserID(r), movieID); err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.NoContent()
}

// ListNotes returns the user's notes, newest first.
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	notes, err := h.db.ListNotes(r.Context(), currentUserID(r), queryLimit(r, maxListLimit))
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.Success(notes)
}

// UpsertNote creates or replaces the user's note for a movie.
func (h *Handler) UpsertNote(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req NoteRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	note, err := h.db.UpsertNote(r.Context(), currentUserID(r), req.MovieID, req.Content, req.Title, req.PosterPath)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.Success(note)
}

// DeleteNote removes the user's note for a movie.
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	movieID, ok := pathMovieID(r)
	if !ok {
		rw.BadRequest("invalid movie id")
		return
	}

	if err := h.db.DeleteNote(r.Context(), currentUserID(r), movieID); err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.NoContent()
}

// Cinetrack - Movie Tracking and Recommendations
// Copyright 2026 Jordi N. (jordinodejs)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jordinodejs/cinetrack

package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/jordinodejs/cinetrack/internal/validation"
)

// maxRequestBodySize caps request bodies to keep decode cost bounded.
const maxRequestBodySize = 1 << 20 // 1MB

// RegisterRequest is the payload for account creation.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// LoginRequest is the payload for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// WatchlistRequest adds a movie to the watchlist. Title and poster are
// denormalized client-side so list views render without catalog lookups.
type WatchlistRequest struct {
	MovieID    int    `json:"movie_id" validate:"required,gt=0"`
	Title      string `json:"title" validate:"required,max=500"`
	PosterPath string `json:"poster_path" validate:"max=500"`
}

// RatingRequest creates or updates a rating.
type RatingRequest struct {
	MovieID    int    `json:"movie_id" validate:"required,gt=0"`
	Rating     int    `json:"rating" validate:"required,min=1,max=10"`
	Title      string `json:"title" validate:"required,max=500"`
	PosterPath string `json:"poster_path" validate:"max=500"`
}

// NoteRequest creates or updates a note.
type NoteRequest struct {
	MovieID    int    `json:"movie_id" validate:"required,gt=0"`
	Content    string `json:"content" validate:"required,max=5000"`
	Title      string `json:"title" validate:"required,max=500"`
	PosterPath string `json:"poster_path" validate:"max=500"`
}

// decodeAndValidate decodes a JSON body into dst and validates its tags.
// Writes the error response itself and reports whether decoding succeeded.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	rw := NewResponseWriter(w, r)

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		rw.BadRequest("invalid request body: " + err.Error())
		return false
	}

	if err := validation.ValidateStruct(dst); err != nil {
		rw.ValidationError(err.Error(), err.Fields)
		return false
	}
	return true
}

// Cinetrack - Movie Tracking and Recommendations
// Copyright 2026 Jordi N. (jordinodejs)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jordinodejs/cinetrack

package models

import "time"

// WatchlistItem marks a movie a user intends to watch. Title and poster
// path are denormalized at save time so lists render without extra
// catalog lookups.
type WatchlistItem struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	MovieID    int       `json:"movie_id"`
	Title      string    `json:"title"`
	PosterPath string    `json:"poster_path,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Rating is a user's 1-10 score for a movie. One rating per (user, movie);
// re-rating updates in place.
type Rating struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	MovieID    int       `json:"movie_id"`
	Rating     int       `json:"rating"`
	Title      string    `json:"title"`
	PosterPath string    `json:"poster_path,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Note is a user's free-form text about a movie. One note per
// (user, movie); saving again replaces the content.
type Note struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	MovieID    int       `json:"movie_id"`
	Content    string    `json:"content"`
	Title      string    `json:"title"`
	PosterPath string    `json:"poster_path,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// MovieUserData aggregates a single user's state for one movie, used by
// the movie detail view.
type MovieUserData struct {
	InWatchlist bool    `json:"in_watchlist"`
	Rating      *Rating `json:"rating,omitempty"`
	Note        *Note   `json:"note,omitempty"`
}

// Cinetrack - Movie Tracking and Recommendations
// Copyright 2026 Jordi N. (jordinodejs)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jordinodejs/cinetrack

package models

import "time"

// Recommendation is one scored suggestion persisted for a user. A
// generation run replaces the user's full set atomically, so CreatedAt is
// effectively the run timestamp.
type Recommendation struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	MovieID     int       `json:"movie_id"`
	Title       string    `json:"title"`
	PosterPath  string    `json:"poster_path,omitempty"`
	VoteAverage float64   `json:"vote_average"`
	Score       float64   `json:"score"`
	Reason      string    `json:"reason"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProfileSummary aggregates a user's activity for the profile view.
type ProfileSummary struct {
	RecentRatings      []Rating         `json:"recent_ratings"`
	RecentNotes        []Note           `json:"recent_notes"`
	WatchlistCount     int              `json:"watchlist_count"`
	TopRecommendations []Recommendation `json:"top_recommendations"`
	AverageRating      float64          `json:"average_rating"`
	RatingCount        int              `json:"rating_count"`
}

// Cinetrack - Movie Tracking and Recommendations
// Copyright 2026 Jordi N. (jordinodejs)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jordinodejs/cinetrack

package recommend

import "github.com/jordinodejs/cinetrack/internal/models"

// Reason tags attached to persisted recommendations. The personalized tag
// is chosen from a candidate's first listed genre only, even though
// scoring sums over all genres.
const (
	ReasonFavoriteGenres = "Based on your favorite genres"
	ReasonHighlyRated    = "Highly rated and popular"
	ReasonPopularChoice  = "Popular choice"
)

// GenreAffinity counts how often each genre appeared among a user's
// highly rated movies. Built fresh on every generation run, never
// persisted. An empty map is valid: a new user has no taste profile yet.
type GenreAffinity map[int]int

// Boost returns the affinity contribution for a candidate's genres,
// scaled by the configured multiplier. Genres absent from the profile
// contribute nothing.
func (a GenreAffinity) Boost(genreIDs []int, multiplier float64) float64 {
	var boost float64
	for _, id := range genreIDs {
		boost += float64(a[id]) * multiplier
	}
	return boost
}

// signals is the per-user input gathered before scoring: every movie the
// user rated at or above the high-rating threshold, and the set of movie
// IDs that must not be recommended (already on the watchlist, rated,
// noted, or currently trending).
type signals struct {
	highRated  []models.Rating
	exclusions map[int]struct{}
}

func (s *signals) excluded(movieID int) bool {
	_, ok := s.exclusions[movieID]
	return ok
}

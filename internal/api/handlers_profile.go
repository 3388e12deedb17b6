// Cinetrack - Movie Tracking and Recommendations
// Copyright 2026 Jordi N. (jordinodejs)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jordinodejs/cinetrack

package api

import (
	"net/http"

	"github.com/jordinodejs/cinetrack/internal/logging"
	"github.com/jordinodejs/cinetrack/internal/models"
)

// profileResponse pairs the account with its activity summary.
type profileResponse struct {
	User    *models.User          `json:"user"`
	Profile models.ProfileSummary `json:"profile"`
}

const (
	profileRatingLimit    = 10
	profileNoteLimit      = 5
	profileRecommendLimit = 5
)

// Profile serves a summary of the user's account and library.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	ctx := r.Context()
	userID := currentUserID(r)

	locale, ok := queryLocale(w, r)
	if !ok {
		return
	}

	user, err := h.db.GetUserByID(ctx, userID)
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	watchlistCount, err := h.db.CountWatchlist(ctx, userID)
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	ratingCount, ratingAvg, err := h.db.RatingStats(ctx, userID)
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	ratings, err := h.db.ListRatings(ctx, userID, profileRatingLimit)
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	notes, err := h.db.ListNotes(ctx, userID, profileNoteLimit)
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	recs, err := h.db.ListRecommendations(ctx, userID, profileRecommendLimit)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	h.refreshRecommendationTitles(r, recs, locale)

	rw.Success(profileResponse{
		User: user,
		Profile: models.ProfileSummary{
			RecentRatings:      ratings,
			RecentNotes:        notes,
			WatchlistCount:     watchlistCount,
			TopRecommendations: recs,
			AverageRating:      ratingAvg,
			RatingCount:        ratingCount,
		},
	})
}

// refreshRecommendationTitles replaces stored titles with current
// catalog metadata. Stored rows can outlive a title change upstream; a
// lookup failure keeps the stored title.
func (h *Handler) refreshRecommendationTitles(r *http.Request, recs []models.Recommendation, locale string) {
	for i := range recs {
		details, err := h.tmdb.MovieDetails(r.Context(), recs[i].MovieID, locale)
		if err != nil {
			logging.Debug().Err(err).Int("movie_id", recs[i].MovieID).Msg("title refresh failed, keeping stored title")
			continue
		}
		recs[i].Title = details.Title
		if details.PosterPath != "" {
			recs[i].PosterPath = details.PosterPath
		}
	}
}

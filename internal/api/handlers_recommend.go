// Cinetrack - Movie Tracking and Recommendations
// Copyright 2026 Jordi N. (jordinodejs)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jordinodejs/cinetrack

package api

import (
	"net/http"
)

// Recommendations serves the user's stored recommendations, generating
// them on first access.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	locale, ok := queryLocale(w, r)
	if !ok {
		return
	}
	recs, err := h.engine.Recommendations(r.Context(), currentUserID(r), locale)
	if err != nil {
		rw.ExternalServiceError("recommendations", err)
		return
	}
	rw.Success(recs)
}

// GenerateRecommendations recomputes the user's recommendations from
// their current taste profile, replacing the stored set.
func (h *Handler) GenerateRecommendations(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	locale, ok := queryLocale(w, r)
	if !ok {
		return
	}
	recs, err := h.engine.Generate(r.Context(), currentUserID(r), locale)
	if err != nil {
		rw.ExternalServiceError("recommendations", err)
		return
	}
	rw.Success(recs)
}

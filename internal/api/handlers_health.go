// Cinetrack - Movie Tracking and Recommendations
// Copyright 2026 Jordi N. (jordinodejs)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jordinodejs/cinetrack

package api

import (
	"net/http"
	"time"
)

var startTime = time.Now()

type healthStatus struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	SchemaVersion int    `json:"schema_version,omitempty"`
	Database      string `json:"database"`
}

// Liveness reports that the process is up. It never touches
// dependencies so the orchestrator only restarts on a hung process.
func (h *Handler) Liveness(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]string{"status": "alive"})
}

// Readiness reports whether the service can serve traffic, which
// requires a reachable database.
func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if err := h.db.Ping(r.Context()); err != nil {
		rw.Error(http.StatusServiceUnavailable, ErrCodeDatabaseError, "database unreachable")
		return
	}
	rw.Success(map[string]string{"status": "ready"})
}

// Health serves a diagnostic summary: uptime, database reachability,
// and the applied schema version.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	status := healthStatus{
		Status:        "healthy",
		UptimeSeconds: int64(time.Since(startTime).Seconds()),
		Database:      "up",
	}

	if err := h.db.Ping(r.Context()); err != nil {
		status.Status = "degraded"
		status.Database = "down"
	} else if version, err := h.db.GetCurrentSchemaVersion(r.Context()); err == nil {
		status.SchemaVersion = version
	}

	rw.Success(status)
}

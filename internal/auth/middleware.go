// Cinetrack - Movie Tracking and Recommendations
// Copyright 2026 Jordi N. (jordinodejs)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jordinodejs/cinetrack

package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
)

type contextKey string

const sessionContextKey contextKey = "auth_session"

// SessionFromContext returns the authenticated session, or nil when the
// request was not authenticated.
func SessionFromContext(ctx context.Context) *Session {
	session, _ := ctx.Value(sessionContextKey).(*Session)
	return session
}

// ContextWithSession attaches an authenticated session to the context.
// Exported for handler tests.
func ContextWithSession(ctx context.Context, session *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, session)
}

// Middleware authenticates requests from the session cookie or an
// Authorization bearer header and rejects them with 401 when neither
// yields a live session.
type Middleware struct {
	service    *Service
	cookieName string
}

// NewMiddleware creates the auth middleware.
func NewMiddleware(service *Service, cookieName string) *Middleware {
	return &Middleware{service: service, cookieName: cookieName}
}

// RequireAuth wraps a handler so it only runs for authenticated requests.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := m.extractToken(r)
		if token == "" {
			unauthorized(w, "authentication required")
			return
		}

		session, err := m.service.Authenticate(r.Context(), token)
		if err != nil {
			unauthorized(w, "invalid or expired session")
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), session)))
	})
}

// unauthorized writes a 401 in the same envelope the API handlers use.
// Duplicated here rather than imported, since the api package depends
// on this one.
func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error": map[string]string{
			"code":    "UNAUTHORIZED",
			"message": message,
		},
	})
}

// extractToken prefers the session cookie and falls back to a bearer
// header for non-browser clients.
func (m *Middleware) extractToken(r *http.Request) string {
	if cookie, err := r.Cookie(m.cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

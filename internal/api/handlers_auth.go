// Cinetrack - Movie Tracking and Recommendations
// Copyright 2026 Jordi N. (jordinodejs)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jordinodejs/cinetrack

package api

import (
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/jordinodejs/cinetrack/internal/auth"
	"github.com/jordinodejs/cinetrack/internal/logging"
)

// authResponse is the payload returned by register and login.
type authResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Token  string `json:"token"`
}

// Register creates a new account and starts a session.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req RegisterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, token, err := h.auth.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailTaken):
			rw.Conflict("an account with this email already exists")
		case errors.Is(err, auth.ErrPasswordTooShort):
			rw.BadRequest(err.Error())
		default:
			logging.Error().Err(err).Msg("registration failed")
			rw.InternalError("registration failed")
		}
		return
	}

	h.setSessionCookie(w, token)
	rw.Created(authResponse{UserID: user.ID, Email: user.Email, Token: token})
}

// Login authenticates an existing account.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, token, err := h.auth.Login(r.Context(), req.Email, req.Password, clientIP(r))
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrAccountLocked):
			rw.Error(http.StatusLocked, ErrCodeAccountLocked, "account temporarily locked, try again later")
		case errors.Is(err, auth.ErrInvalidCredentials):
			rw.Unauthorized("invalid email or password")
		default:
			logging.Error().Err(err).Msg("login failed")
			rw.InternalError("login failed")
		}
		return
	}

	h.setSessionCookie(w, token)
	rw.Success(authResponse{UserID: user.ID, Email: user.Email, Token: token})
}

// Logout revokes the current session. Always succeeds so clients can
// clear state even with a stale token.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if token := h.requestToken(r); token != "" {
		if err := h.auth.Logout(r.Context(), token); err != nil {
			logging.Warn().Err(err).Msg("session revocation failed")
		}
	}

	h.clearSessionCookie(w)
	rw.NoContent()
}

// Me returns the authenticated user's profile.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	session := auth.SessionFromContext(r.Context())
	if session == nil {
		rw.Unauthorized("authentication required")
		return
	}

	user, err := h.db.GetUserByID(r.Context(), session.UserID)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.Success(user)
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.Security.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.cfg.Security.SessionTimeout / time.Second),
		HttpOnly: true,
		Secure:   h.cfg.Security.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.Security.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.Security.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// requestToken extracts the session token from the cookie or the
// Authorization header, matching the auth middleware's lookup order.
func (h *Handler) requestToken(r *http.Request) string {
	if c, err := r.Cookie(h.cfg.Security.CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	const prefix = "Bearer "
	if header := r.Header.Get("Authorization"); len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	return ""
}

// clientIP prefers the address resolved by chi's RealIP middleware,
// which rewrites RemoteAddr to a bare IP without a port.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

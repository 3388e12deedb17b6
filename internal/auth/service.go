// Cinetrack - Movie Tracking and Recommendations
// Copyright 2026 Jordi N. (jordinodejs)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jordinodejs/cinetrack

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jordinodejs/cinetrack/internal/config"
	"github.com/jordinodejs/cinetrack/internal/database"
	"github.com/jordinodejs/cinetrack/internal/logging"
	"github.com/jordinodejs/cinetrack/internal/metrics"
	"github.com/jordinodejs/cinetrack/internal/models"
)

// ErrEmailTaken is returned when registering with an email that already
// has an account.
var ErrEmailTaken = errors.New("an account with this email already exists")

// UserStore is the persistence surface the auth service needs. Satisfied
// by *database.DB.
type UserStore interface {
	CreateUser(ctx context.Context, email, passwordHash string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// Service handles registration, login, and logout. Login issues both a
// server-side session and a JWT referencing it, so tokens can be revoked
// before expiry.
type Service struct {
	users    UserStore
	sessions SessionStore
	jwt      *JWTManager
	lockout  *LockoutManager
	cfg      *config.SecurityConfig
	logger   zerolog.Logger
}

// NewService wires the auth service from its collaborators.
func NewService(cfg *config.SecurityConfig, users UserStore, sessions SessionStore) (*Service, error) {
	jwtManager, err := NewJWTManager(cfg)
	if err != nil {
		return nil, err
	}
	return &Service{
		users:    users,
		sessions: sessions,
		jwt:      jwtManager,
		lockout:  NewLockoutManager(cfg),
		cfg:      cfg,
		logger:   logging.With().Str("component", "auth").Logger(),
	}, nil
}

// Lockout exposes the lockout manager so the caller can start its cleanup
// routine.
func (s *Service) Lockout() *LockoutManager {
	return s.lockout
}

// Register creates an account and logs the new user in, returning the
// user and a signed session token.
func (s *Service) Register(ctx context.Context, email, password string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	hash, err := HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		metrics.RecordAuthAttempt("register", "failure")
		return nil, "", err
	}

	user, err := s.users.CreateUser(ctx, email, hash)
	if err != nil {
		metrics.RecordAuthAttempt("register", "failure")
		if errors.Is(err, database.ErrDuplicateEmail) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", fmt.Errorf("failed to create account: %w", err)
	}

	token, err := s.startSession(ctx, user)
	if err != nil {
		metrics.RecordAuthAttempt("register", "failure")
		return nil, "", err
	}

	metrics.RecordAuthAttempt("register", "success")
	s.logger.Info().Str("user_id", user.ID).Msg("Account created")
	return user, token, nil
}

// Login verifies credentials and returns the user and a signed session
// token. Failures count toward lockout for both the email and the source
// IP; a locked subject is refused before the password is checked.
func (s *Service) Login(ctx context.Context, email, password, ip string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if locked, remaining := s.lockout.CheckLocked(email); locked {
		metrics.RecordAuthAttempt("login", "locked")
		s.logger.Warn().Str("email", email).Dur("remaining", remaining).Msg("Login refused, account locked")
		return nil, "", ErrAccountLocked
	}
	if ip != "" {
		if locked, _ := s.lockout.CheckLocked("ip:" + ip); locked {
			metrics.RecordAuthAttempt("login", "locked")
			return nil, "", ErrAccountLocked
		}
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			s.recordLoginFailure(email, ip)
			return nil, "", ErrInvalidCredentials
		}
		metrics.RecordAuthAttempt("login", "failure")
		return nil, "", fmt.Errorf("failed to look up account: %w", err)
	}

	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		s.recordLoginFailure(email, ip)
		return nil, "", ErrInvalidCredentials
	}

	s.lockout.Reset(email)
	if ip != "" {
		s.lockout.Reset("ip:" + ip)
	}

	token, err := s.startSession(ctx, user)
	if err != nil {
		metrics.RecordAuthAttempt("login", "failure")
		return nil, "", err
	}

	metrics.RecordAuthAttempt("login", "success")
	s.logger.Info().Str("user_id", user.ID).Msg("Login succeeded")
	return user, token, nil
}

// Logout revokes the session a token references. An already-invalid token
// is not an error; logout is idempotent.
func (s *Service) Logout(ctx context.Context, token string) error {
	claims, err := s.jwt.ValidateToken(token)
	if err != nil {
		return nil
	}
	if err := s.sessions.Delete(ctx, claims.SessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	metrics.SessionsActive.Dec()
	return nil
}

// Authenticate validates a token and confirms its session is still live.
// Returns the session, which carries the user identity.
func (s *Service) Authenticate(ctx context.Context, token string) (*Session, error) {
	claims, err := s.jwt.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	session, err := s.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (s *Service) startSession(ctx context.Context, user *models.User) (string, error) {
	session := NewSession(user.ID, user.Email, s.cfg.SessionTimeout)
	if err := s.sessions.Create(ctx, session); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}

	token, err := s.jwt.GenerateToken(user.ID, user.Email, session.ID)
	if err != nil {
		// Session without a token is unreachable; remove it.
		_ = s.sessions.Delete(ctx, session.ID)
		return "", err
	}

	metrics.SessionsActive.Inc()
	return token, nil
}

func (s *Service) recordLoginFailure(email, ip string) {
	metrics.RecordAuthAttempt("login", "failure")
	if locked := s.lockout.RecordFailure(email); locked {
		s.logger.Warn().Str("email", email).Msg("Account locked after repeated failures")
	}
	if ip != "" {
		s.lockout.RecordFailure("ip:" + ip)
	}
}

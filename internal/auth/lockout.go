// Cinetrack - Movie Tracking and Recommendations
// Copyright 2026 Jordi N. (jordinodejs)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jordinodejs/cinetrack

package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jordinodejs/cinetrack/internal/config"
)

// ErrAccountLocked is returned when login is refused because of too many
// recent failures.
var ErrAccountLocked = errors.New("account temporarily locked")

// lockoutEntry tracks failed logins for one subject (email or IP).
type lockoutEntry struct {
	failedAttempts int
	lastAttempt    time.Time
	lockedUntil    time.Time
}

func (e *lockoutEntry) isLocked() bool {
	return time.Now().Before(e.lockedUntil)
}

// LockoutManager refuses logins for a subject after repeated failures.
// Tracks both the email and the source IP so a distributed guess against
// one account and a spray from one host are both throttled. State is in
// process memory: a restart clears it, which is acceptable for a
// brute-force brake.
type LockoutManager struct {
	mu        sync.Mutex
	entries   map[string]*lockoutEntry
	threshold int
	duration  time.Duration
}

// NewLockoutManager creates a lockout manager from the security config.
func NewLockoutManager(cfg *config.SecurityConfig) *LockoutManager {
	return &LockoutManager{
		entries:   make(map[string]*lockoutEntry),
		threshold: cfg.LockoutThreshold,
		duration:  cfg.LockoutDuration,
	}
}

// CheckLocked reports whether the subject is locked out and for how much
// longer.
func (m *LockoutManager) CheckLocked(subject string) (bool, time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[subject]
	if !ok || !entry.isLocked() {
		return false, 0
	}
	return true, time.Until(entry.lockedUntil)
}

// RecordFailure counts a failed login and reports whether the subject is
// now locked.
func (m *LockoutManager) RecordFailure(subject string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[subject]
	if !ok {
		entry = &lockoutEntry{}
		m.entries[subject] = entry
	}

	// A stale window restarts the count instead of accumulating forever.
	if time.Since(entry.lastAttempt) > m.duration && !entry.isLocked() {
		entry.failedAttempts = 0
	}

	entry.failedAttempts++
	entry.lastAttempt = time.Now()

	if entry.failedAttempts >= m.threshold {
		entry.lockedUntil = time.Now().Add(m.duration)
		return true
	}
	return false
}

// Reset clears the subject's failure history after a successful login.
func (m *LockoutManager) Reset(subject string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, subject)
}

// CleanupStale drops entries whose window and lock have both expired.
// Intended to run as a supervised periodic job.
func (m *LockoutManager) CleanupStale(_ context.Context) error {
	m.cleanup()
	return nil
}

func (m *LockoutManager) cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for subject, entry := range m.entries {
		if !entry.isLocked() && time.Since(entry.lastAttempt) > m.duration {
			delete(m.entries, subject)
		}
	}
}

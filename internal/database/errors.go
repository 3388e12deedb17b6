// Cinetrack - Movie Tracking and Recommendations
// Copyright 2026 Jordi N. (jordinodejs)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jordinodejs/cinetrack

package database

import (
	"errors"
	"io"

	"github.com/jordinodejs/cinetrack/internal/logging"
)

// ErrNotFound is returned when a requested record does not exist.
// Callers distinguish it from transport or query failures with errors.Is.
var ErrNotFound = errors.New("record not found")

// ErrDuplicateEmail is returned when registering an email that already has
// an account.
var ErrDuplicateEmail = errors.New("email already registered")

// closeWithLog closes a resource and logs any error.
// Use for cleanup operations where errors should be acknowledged but not
// fail the operation.
func closeWithLog(closer io.Closer, resourceType string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.Warn().Str("type", resourceType).Err(err).Msg("Failed to close resource")
	}
}

// closeQuietly closes a resource and explicitly ignores any error.
// Use in error paths where Close() errors are not actionable.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close() // cleanup is best-effort
	}
}

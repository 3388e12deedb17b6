// Cinetrack - Movie Tracking and Recommendations
// Copyright 2026 Jordi N. (jordinodejs)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jordinodejs/cinetrack

package auth

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/jordinodejs/cinetrack/internal/config"
)

// Session store backend names, matched against SecurityConfig.SessionStore.
const (
	SessionStoreMemory = "memory"
	SessionStoreBadger = "badger"
)

// SessionStoreFactory owns the optional BadgerDB behind the session store.
type SessionStoreFactory struct {
	db *badger.DB
}

// NewSessionStoreFactory opens the backing database for the configured
// store type. The memory backend opens nothing.
func NewSessionStoreFactory(cfg *config.SecurityConfig) (*SessionStoreFactory, error) {
	factory := &SessionStoreFactory{}

	if cfg.SessionStore == SessionStoreBadger {
		opts := badger.DefaultOptions(cfg.SessionStorePath)
		opts.Logger = nil // badger's own logging is too chatty for this workload

		db, err := badger.Open(opts)
		if err != nil {
			return nil, fmt.Errorf("open badger db for sessions: %w", err)
		}
		factory.db = db
	}

	return factory, nil
}

// CreateStore returns the session store for the opened backend.
func (f *SessionStoreFactory) CreateStore() SessionStore {
	if f.db != nil {
		return NewBadgerSessionStore(f.db)
	}
	return NewMemorySessionStore()
}

// Close closes the underlying BadgerDB if one was opened.
func (f *SessionStoreFactory) Close() error {
	if f.db != nil {
		return f.db.Close()
	}
	return nil
}

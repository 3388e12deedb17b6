// Cinetrack - Movie Tracking and Recommendations
// Copyright 2026 Jordi N. (jordinodejs)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jordinodejs/cinetrack

package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the core database tables
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range tableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}

	return nil
}

// tableCreationQueries returns the table creation SQL statements.
// All columns live in the initial CREATE TABLE statements; versioned
// migrations in migrations.go handle post-release additions.
func tableCreationQueries() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		// Title and poster_path are denormalized from the catalog at save
		// time so list views never need a TMDB round trip.
		`CREATE TABLE IF NOT EXISTS watchlist_items (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL,
			movie_id INTEGER NOT NULL,
			title TEXT NOT NULL,
			poster_path TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (user_id, movie_id)
		)`,

		`CREATE TABLE IF NOT EXISTS ratings (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL,
			movie_id INTEGER NOT NULL,
			rating INTEGER NOT NULL CHECK (rating >= 1 AND rating <= 10),
			title TEXT NOT NULL,
			poster_path TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (user_id, movie_id)
		)`,

		`CREATE TABLE IF NOT EXISTS notes (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL,
			movie_id INTEGER NOT NULL,
			content TEXT NOT NULL,
			title TEXT NOT NULL,
			poster_path TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (user_id, movie_id)
		)`,

		`CREATE TABLE IF NOT EXISTS recommendations (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL,
			movie_id INTEGER NOT NULL,
			title TEXT NOT NULL,
			poster_path TEXT,
			vote_average DOUBLE NOT NULL DEFAULT 0,
			score DOUBLE NOT NULL,
			reason TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	}
}

// createIndexes creates indexes for frequent query patterns
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_users_email ON users (email)`,
		`CREATE INDEX IF NOT EXISTS idx_watchlist_user ON watchlist_items (user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_ratings_user ON ratings (user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_ratings_user_updated ON ratings (user_id, updated_at)`,
		`CREATE INDEX IF NOT EXISTS idx_notes_user ON notes (user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_recommendations_user ON recommendations (user_id, score)`,
	}

	for _, query := range indexes {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create index: %s: %w", query, err)
		}
	}

	return nil
}

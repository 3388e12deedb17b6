// Cinetrack - Movie Tracking and Recommendations
// Copyright 2026 Jordi N. (jordinodejs)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jordinodejs/cinetrack

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jordinodejs/cinetrack/internal/metrics"
	"github.com/jordinodejs/cinetrack/internal/models"
)

// UpsertNote creates or replaces the user's note for a movie.
func (db *DB) UpsertNote(ctx context.Context, userID string, movieID int, content, title, posterPath string) (*models.Note, error) {
	now := time.Now().UTC()

	start := time.Now()
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO notes (id, user_id, movie_id, content, title, poster_path, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, movie_id) DO UPDATE SET
			content = excluded.content,
			title = excluded.title,
			poster_path = excluded.poster_path,
			updated_at = excluded.updated_at`,
		uuid.NewString(), userID, movieID, content, title, nullable(posterPath), now, now)
	metrics.RecordDBQuery("UPSERT", "notes", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert note: %w", err)
	}

	return db.GetNote(ctx, userID, movieID)
}

// GetNote returns the user's note for a movie, or ErrNotFound.
func (db *DB) GetNote(ctx context.Context, userID string, movieID int) (*models.Note, error) {
	start := time.Now()
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, user_id, movie_id, content, title, COALESCE(poster_path, ''), created_at, updated_at
		 FROM notes WHERE user_id = ? AND movie_id = ?`, userID, movieID)

	var n models.Note
	err := row.Scan(&n.ID, &n.UserID, &n.MovieID, &n.Content, &n.Title, &n.PosterPath, &n.CreatedAt, &n.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.RecordDBQuery("SELECT", "notes", time.Since(start), nil)
		return nil, ErrNotFound
	}
	metrics.RecordDBQuery("SELECT", "notes", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to scan note: %w", err)
	}
	return &n, nil
}

// DeleteNote removes the user's note for a movie. Deleting an absent note
// is a no-op.
func (db *DB) DeleteNote(ctx context.Context, userID string, movieID int) error {
	start := time.Now()
	_, err := db.conn.ExecContext(ctx,
		`DELETE FROM notes WHERE user_id = ? AND movie_id = ?`, userID, movieID)
	metrics.RecordDBQuery("DELETE", "notes", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	return nil
}

// ListNotes returns the user's notes, most recently updated first.
// A limit of 0 returns everything.
func (db *DB) ListNotes(ctx context.Context, userID string, limit int) ([]models.Note, error) {
	query := `SELECT id, user_id, movie_id, content, title, COALESCE(poster_path, ''), created_at, updated_at
		 FROM notes WHERE user_id = ? ORDER BY updated_at DESC`
	args := []interface{}{userID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, args...)
	metrics.RecordDBQuery("SELECT", "notes", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer closeWithLog(rows, "note rows")

	notes := make([]models.Note, 0)
	for rows.Next() {
		var n models.Note
		if err := rows.Scan(&n.ID, &n.UserID, &n.MovieID, &n.Content, &n.Title, &n.PosterPath, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

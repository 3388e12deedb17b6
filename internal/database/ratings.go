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

// UpsertRating creates or updates the user's rating for a movie. The
// original created_at survives re-rating; only rating, denormalized
// metadata, and updated_at change.
func (db *DB) UpsertRating(ctx context.Context, userID string, movieID, rating int, title, posterPath string) (*models.Rating, error) {
	now := time.Now().UTC()

	start := time.Now()
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO ratings (id, user_id, movie_id, rating, title, poster_path, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, movie_id) DO UPDATE SET
			rating = excluded.rating,
			title = excluded.title,
			poster_path = excluded.poster_path,
			updated_at = excluded.updated_at`,
		uuid.NewString(), userID, movieID, rating, title, nullable(posterPath), now, now)
	metrics.RecordDBQuery("UPSERT", "ratings", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert rating: %w", err)
	}

	return db.GetRating(ctx, userID, movieID)
}

// GetRating returns the user's rating for a movie, or ErrNotFound.
func (db *DB) GetRating(ctx context.Context, userID string, movieID int) (*models.Rating, error) {
	stmt, err := db.getStmt(ctx, `SELECT id, user_id, movie_id, rating, title, COALESCE(poster_path, ''), created_at, updated_at
		 FROM ratings WHERE user_id = ? AND movie_id = ?`)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	row := stmt.QueryRowContext(ctx, userID, movieID)

	var r models.Rating
	err = row.Scan(&r.ID, &r.UserID, &r.MovieID, &r.Rating, &r.Title, &r.PosterPath, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.RecordDBQuery("SELECT", "ratings", time.Since(start), nil)
		return nil, ErrNotFound
	}
	metrics.RecordDBQuery("SELECT", "ratings", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to scan rating: %w", err)
	}
	return &r, nil
}

// DeleteRating removes the user's rating for a movie. Deleting an absent
// rating is a no-op.
func (db *DB) DeleteRating(ctx context.Context, userID string, movieID int) error {
	start := time.Now()
	_, err := db.conn.ExecContext(ctx,
		`DELETE FROM ratings WHERE user_id = ? AND movie_id = ?`, userID, movieID)
	metrics.RecordDBQuery("DELETE", "ratings", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to delete rating: %w", err)
	}
	return nil
}

// ListRatings returns all of the user's ratings, most recently updated
// first. A limit of 0 returns everything.
func (db *DB) ListRatings(ctx context.Context, userID string, limit int) ([]models.Rating, error) {
	query := `SELECT id, user_id, movie_id, rating, title, COALESCE(poster_path, ''), created_at, updated_at
		 FROM ratings WHERE user_id = ? ORDER BY updated_at DESC`
	args := []interface{}{userID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, args...)
	metrics.RecordDBQuery("SELECT", "ratings", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}
	defer closeWithLog(rows, "rating rows")

	ratings := make([]models.Rating, 0)
	for rows.Next() {
		var r models.Rating
		if err := rows.Scan(&r.ID, &r.UserID, &r.MovieID, &r.Rating, &r.Title, &r.PosterPath, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		ratings = append(ratings, r)
	}
	return ratings, rows.Err()
}

// RatingStats returns the user's rating count and average (0 when unrated).
func (db *DB) RatingStats(ctx context.Context, userID string) (count int, average float64, err error) {
	start := time.Now()
	err = db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(AVG(rating), 0) FROM ratings WHERE user_id = ?`,
		userID).Scan(&count, &average)
	metrics.RecordDBQuery("SELECT", "ratings", time.Since(start), err)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to compute rating stats: %w", err)
	}
	return count, average, nil
}

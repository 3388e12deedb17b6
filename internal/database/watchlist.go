// Cinetrack - Movie Tracking and Recommendations
// Copyright 2026 Jordi N. (jordinodejs)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jordinodejs/cinetrack

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jordinodejs/cinetrack/internal/metrics"
	"github.com/jordinodejs/cinetrack/internal/models"
)

// AddToWatchlist inserts a watchlist entry. Re-adding an already listed
// movie is a no-op.
func (db *DB) AddToWatchlist(ctx context.Context, userID string, movieID int, title, posterPath string) (*models.WatchlistItem, error) {
	item := &models.WatchlistItem{
		ID:         uuid.NewString(),
		UserID:     userID,
		MovieID:    movieID,
		Title:      title,
		PosterPath: posterPath,
		CreatedAt:  time.Now().UTC(),
	}

	start := time.Now()
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO watchlist_items (id, user_id, movie_id, title, poster_path, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, movie_id) DO NOTHING`,
		item.ID, item.UserID, item.MovieID, item.Title, nullable(item.PosterPath), item.CreatedAt)
	metrics.RecordDBQuery("INSERT", "watchlist_items", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to add watchlist item: %w", err)
	}

	return item, nil
}

// RemoveFromWatchlist deletes a watchlist entry. Removing an absent entry
// is a no-op.
func (db *DB) RemoveFromWatchlist(ctx context.Context, userID string, movieID int) error {
	start := time.Now()
	_, err := db.conn.ExecContext(ctx,
		`DELETE FROM watchlist_items WHERE user_id = ? AND movie_id = ?`, userID, movieID)
	metrics.RecordDBQuery("DELETE", "watchlist_items", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to remove watchlist item: %w", err)
	}
	return nil
}

// InWatchlist reports whether the user has the movie on their watchlist.
func (db *DB) InWatchlist(ctx context.Context, userID string, movieID int) (bool, error) {
	stmt, err := db.getStmt(ctx, `SELECT COUNT(*) FROM watchlist_items WHERE user_id = ? AND movie_id = ?`)
	if err != nil {
		return false, err
	}

	start := time.Now()
	var count int
	err = stmt.QueryRowContext(ctx, userID, movieID).Scan(&count)
	metrics.RecordDBQuery("SELECT", "watchlist_items", time.Since(start), err)
	if err != nil {
		return false, fmt.Errorf("failed to check watchlist: %w", err)
	}
	return count > 0, nil
}

// ListWatchlist returns the user's watchlist, newest first.
func (db *DB) ListWatchlist(ctx context.Context, userID string) ([]models.WatchlistItem, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, movie_id, title, COALESCE(poster_path, ''), created_at
		 FROM watchlist_items WHERE user_id = ? ORDER BY created_at DESC`, userID)
	metrics.RecordDBQuery("SELECT", "watchlist_items", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to list watchlist: %w", err)
	}
	defer closeWithLog(rows, "watchlist rows")

	items := make([]models.WatchlistItem, 0)
	for rows.Next() {
		var item models.WatchlistItem
		if err := rows.Scan(&item.ID, &item.UserID, &item.MovieID, &item.Title, &item.PosterPath, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan watchlist item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// CountWatchlist returns the number of movies on the user's watchlist.
func (db *DB) CountWatchlist(ctx context.Context, userID string) (int, error) {
	start := time.Now()
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM watchlist_items WHERE user_id = ?`, userID).Scan(&count)
	metrics.RecordDBQuery("SELECT", "watchlist_items", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("failed to count watchlist: %w", err)
	}
	return count, nil
}

// nullable maps an empty string to SQL NULL.
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

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

// ReplaceRecommendations atomically swaps the user's recommendation set.
// Delete and insert run in one transaction: readers see either the old
// set or the new set, never a partial state.
func (db *DB) ReplaceRecommendations(ctx context.Context, userID string, recs []models.Recommendation) error {
	start := time.Now()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // no-op after commit
	}()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM recommendations WHERE user_id = ?`, userID); err != nil {
		metrics.RecordDBQuery("DELETE", "recommendations", time.Since(start), err)
		return fmt.Errorf("failed to clear recommendations: %w", err)
	}

	now := time.Now().UTC()
	for _, rec := range recs {
		id := rec.ID
		if id == "" {
			id = uuid.NewString()
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO recommendations (id, user_id, movie_id, title, poster_path, vote_average, score, reason, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, userID, rec.MovieID, rec.Title, nullable(rec.PosterPath), rec.VoteAverage, rec.Score, rec.Reason, now); err != nil {
			metrics.RecordDBQuery("INSERT", "recommendations", time.Since(start), err)
			return fmt.Errorf("failed to insert recommendation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		metrics.RecordDBQuery("REPLACE", "recommendations", time.Since(start), err)
		return fmt.Errorf("failed to commit recommendations: %w", err)
	}

	metrics.RecordDBQuery("REPLACE", "recommendations", time.Since(start), nil)
	return nil
}

// ListRecommendations returns the user's stored recommendations ordered
// by score, best first. A limit of 0 returns everything.
func (db *DB) ListRecommendations(ctx context.Context, userID string, limit int) ([]models.Recommendation, error) {
	query := `SELECT id, user_id, movie_id, title, COALESCE(poster_path, ''), vote_average, score, reason, created_at
		 FROM recommendations WHERE user_id = ? ORDER BY score DESC`
	args := []interface{}{userID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, args...)
	metrics.RecordDBQuery("SELECT", "recommendations", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to list recommendations: %w", err)
	}
	defer closeWithLog(rows, "recommendation rows")

	recs := make([]models.Recommendation, 0)
	for rows.Next() {
		var r models.Recommendation
		if err := rows.Scan(&r.ID, &r.UserID, &r.MovieID, &r.Title, &r.PosterPath, &r.VoteAverage, &r.Score, &r.Reason, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan recommendation: %w", err)
		}
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

// CountRecommendations returns how many recommendations the user has stored.
func (db *DB) CountRecommendations(ctx context.Context, userID string) (int, error) {
	start := time.Now()
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM recommendations WHERE user_id = ?`, userID).Scan(&count)
	metrics.RecordDBQuery("SELECT", "recommendations", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("failed to count recommendations: %w", err)
	}
	return count, nil
}

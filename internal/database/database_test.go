// Cinetrack - Movie Tracking and Recommendations
// Copyright 2026 Jordi N. (jordinodejs)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jordinodejs/cinetrack

package database

import (
	"context"
	"errors"
	"testing"

	"github.com/jordinodejs/cinetrack/internal/config"
	"github.com/jordinodejs/cinetrack/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	cfg := &config.DatabaseConfig{
		Path:                   ":memory:",
		MaxMemory:              "256MB",
		Threads:                1,
		PreserveInsertionOrder: true,
	}

	db, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})
	return db
}

func createTestUser(t *testing.T, db *DB, email string) *models.User {
	t.Helper()
	user, err := db.CreateUser(context.Background(), email, "$2a$12$testhash")
	if err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func TestCreateUser(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	user := createTestUser(t, db, "Alice@Example.com")

	if user.ID == "" {
		t.Error("expected generated user ID")
	}
	if user.Email != "alice@example.com" {
		t.Errorf("email = %q, want lowercased alice@example.com", user.Email)
	}

	got, err := db.GetUserByEmail(ctx, "ALICE@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("GetUserByEmail returned ID %q, want %q", got.ID, user.ID)
	}

	byID, err := db.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if byID.Email != user.Email {
		t.Errorf("GetUserByID email = %q, want %q", byID.Email, user.Email)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	createTestUser(t, db, "alice@example.com")

	_, err := db.CreateUser(ctx, "alice@example.com", "$2a$12$otherhash")
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestGetUserNotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetUserByEmail(context.Background(), "nobody@example.com")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestWatchlistLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "alice@example.com")

	if _, err := db.AddToWatchlist(ctx, user.ID, 603, "The Matrix", "/matrix.jpg"); err != nil {
		t.Fatalf("AddToWatchlist: %v", err)
	}

	in, err := db.InWatchlist(ctx, user.ID, 603)
	if err != nil {
		t.Fatalf("InWatchlist: %v", err)
	}
	if !in {
		t.Error("expected movie to be on watchlist")
	}

	// Re-adding is a no-op, not an error
	if _, err := db.AddToWatchlist(ctx, user.ID, 603, "The Matrix", "/matrix.jpg"); err != nil {
		t.Fatalf("re-AddToWatchlist: %v", err)
	}

	count, err := db.CountWatchlist(ctx, user.ID)
	if err != nil {
		t.Fatalf("CountWatchlist: %v", err)
	}
	if count != 1 {
		t.Errorf("watchlist count = %d after duplicate add, want 1", count)
	}

	if err := db.RemoveFromWatchlist(ctx, user.ID, 603); err != nil {
		t.Fatalf("RemoveFromWatchlist: %v", err)
	}

	in, err = db.InWatchlist(ctx, user.ID, 603)
	if err != nil {
		t.Fatalf("InWatchlist after remove: %v", err)
	}
	if in {
		t.Error("expected movie off watchlist after removal")
	}

	// Removing again is a no-op
	if err := db.RemoveFromWatchlist(ctx, user.ID, 603); err != nil {
		t.Errorf("RemoveFromWatchlist on absent entry: %v", err)
	}
}

func TestUpsertRating(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "alice@example.com")

	first, err := db.UpsertRating(ctx, user.ID, 603, 9, "The Matrix", "/matrix.jpg")
	if err != nil {
		t.Fatalf("UpsertRating: %v", err)
	}
	if first.Rating != 9 {
		t.Errorf("rating = %d, want 9", first.Rating)
	}

	second, err := db.UpsertRating(ctx, user.ID, 603, 6, "The Matrix", "/matrix.jpg")
	if err != nil {
		t.Fatalf("re-UpsertRating: %v", err)
	}
	if second.Rating != 6 {
		t.Errorf("rating = %d after update, want 6", second.Rating)
	}
	if second.ID != first.ID {
		t.Errorf("re-rating created a new row: id %q != %q", second.ID, first.ID)
	}

	ratings, err := db.ListRatings(ctx, user.ID, 0)
	if err != nil {
		t.Fatalf("ListRatings: %v", err)
	}
	if len(ratings) != 1 {
		t.Errorf("rating count = %d, want 1", len(ratings))
	}
}

func TestRatingStats(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "alice@example.com")

	count, avg, err := db.RatingStats(ctx, user.ID)
	if err != nil {
		t.Fatalf("RatingStats on empty: %v", err)
	}
	if count != 0 || avg != 0 {
		t.Errorf("empty stats = (%d, %v), want (0, 0)", count, avg)
	}

	mustRate := func(movieID, rating int) {
		t.Helper()
		if _, err := db.UpsertRating(ctx, user.ID, movieID, rating, "Movie", ""); err != nil {
			t.Fatalf("UpsertRating(%d, %d): %v", movieID, rating, err)
		}
	}
	mustRate(1, 8)
	mustRate(2, 6)

	count, avg, err = db.RatingStats(ctx, user.ID)
	if err != nil {
		t.Fatalf("RatingStats: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
	if avg != 7 {
		t.Errorf("average = %v, want 7", avg)
	}
}

func TestDeleteRating(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "alice@example.com")

	if _, err := db.UpsertRating(ctx, user.ID, 603, 9, "The Matrix", ""); err != nil {
		t.Fatalf("UpsertRating: %v", err)
	}
	if err := db.DeleteRating(ctx, user.ID, 603); err != nil {
		t.Fatalf("DeleteRating: %v", err)
	}
	if _, err := db.GetRating(ctx, user.ID, 603); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestUpsertNote(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "alice@example.com")

	first, err := db.UpsertNote(ctx, user.ID, 603, "mind-bending", "The Matrix", "/matrix.jpg")
	if err != nil {
		t.Fatalf("UpsertNote: %v", err)
	}

	second, err := db.UpsertNote(ctx, user.ID, 603, "rewatched, still great", "The Matrix", "/matrix.jpg")
	if err != nil {
		t.Fatalf("re-UpsertNote: %v", err)
	}
	if second.Content != "rewatched, still great" {
		t.Errorf("content = %q, want updated text", second.Content)
	}
	if second.ID != first.ID {
		t.Errorf("re-noting created a new row")
	}

	if err := db.DeleteNote(ctx, user.ID, 603); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
	if _, err := db.GetNote(ctx, user.ID, 603); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestReplaceRecommendations(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "alice@example.com")

	initial := []models.Recommendation{
		{MovieID: 1, Title: "First", Score: 9.5, Reason: "Because you liked Action movies"},
		{MovieID: 2, Title: "Second", Score: 8.1, Reason: "Popular choice"},
	}
	if err := db.ReplaceRecommendations(ctx, user.ID, initial); err != nil {
		t.Fatalf("ReplaceRecommendations: %v", err)
	}

	replacement := []models.Recommendation{
		{MovieID: 3, Title: "Third", Score: 7.2, Reason: "Popular choice"},
		{MovieID: 4, Title: "Fourth", Score: 9.9, Reason: "Because you liked Drama movies"},
		{MovieID: 5, Title: "Fifth", Score: 8.5, Reason: "Popular choice"},
	}
	if err := db.ReplaceRecommendations(ctx, user.ID, replacement); err != nil {
		t.Fatalf("second ReplaceRecommendations: %v", err)
	}

	recs, err := db.ListRecommendations(ctx, user.ID, 0)
	if err != nil {
		t.Fatalf("ListRecommendations: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("recommendation count = %d, want 3 (old set fully replaced)", len(recs))
	}

	// Ordered by score descending
	wantOrder := []int{4, 5, 3}
	for i, rec := range recs {
		if rec.MovieID != wantOrder[i] {
			t.Errorf("recs[%d].MovieID = %d, want %d", i, rec.MovieID, wantOrder[i])
		}
	}

	count, err := db.CountRecommendations(ctx, user.ID)
	if err != nil {
		t.Fatalf("CountRecommendations: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
}

func TestListRecommendationsLimit(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "alice@example.com")

	recs := []models.Recommendation{
		{MovieID: 1, Title: "A", Score: 5, Reason: "Popular choice"},
		{MovieID: 2, Title: "B", Score: 9, Reason: "Popular choice"},
		{MovieID: 3, Title: "C", Score: 7, Reason: "Popular choice"},
	}
	if err := db.ReplaceRecommendations(ctx, user.ID, recs); err != nil {
		t.Fatalf("ReplaceRecommendations: %v", err)
	}

	top, err := db.ListRecommendations(ctx, user.ID, 2)
	if err != nil {
		t.Fatalf("ListRecommendations: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("len = %d, want 2", len(top))
	}
	if top[0].MovieID != 2 || top[1].MovieID != 3 {
		t.Errorf("top-2 order = %d,%d, want 2,3", top[0].MovieID, top[1].MovieID)
	}
}

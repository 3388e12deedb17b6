// Cinetrack - Movie Tracking and Recommendations
// Copyright 2026 Jordi N. (jordinodejs)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jordinodejs/cinetrack

// Package recommend builds personalized movie recommendations in three
// phases: collect the user's interaction signals, estimate genre affinity
// from a bounded sample of their highly rated movies, then score and rank
// candidates from the popular and top-rated listings. The final set
// replaces the user's stored recommendations atomically.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jordinodejs/cinetrack/internal/config"
	"github.com/jordinodejs/cinetrack/internal/logging"
	"github.com/jordinodejs/cinetrack/internal/metrics"
	"github.com/jordinodejs/cinetrack/internal/models"
)

// Store is the persistence surface the engine needs. Implemented by
// *database.DB; kept narrow here so the engine stays decoupled from the
// database package and tests can substitute a fake.
type Store interface {
	ListRatings(ctx context.Context, userID string, limit int) ([]models.Rating, error)
	ListWatchlist(ctx context.Context, userID string) ([]models.WatchlistItem, error)
	ListNotes(ctx context.Context, userID string, limit int) ([]models.Note, error)
	ReplaceRecommendations(ctx context.Context, userID string, recs []models.Recommendation) error
	ListRecommendations(ctx context.Context, userID string, limit int) ([]models.Recommendation, error)
	CountRecommendations(ctx context.Context, userID string) (int, error)
}

// Catalog is the slice of the movie-metadata API the engine consumes.
// Satisfied by tmdb.API implementations.
type Catalog interface {
	Trending(ctx context.Context, page int, locale string) (*models.MoviePage, error)
	Popular(ctx context.Context, page int, locale string) (*models.MoviePage, error)
	TopRated(ctx context.Context, page int, locale string) (*models.MoviePage, error)
	MovieGenres(ctx context.Context, movieID int, locale string) ([]int, error)
}

// Engine generates and serves recommendations. Safe for concurrent use;
// generation runs for the same user are serialized so two runs can never
// interleave their replace transactions.
type Engine struct {
	cfg     config.RecommendConfig
	store   Store
	catalog Catalog
	logger  zerolog.Logger

	// userLocks maps user ID to *sync.Mutex, created on first use.
	userLocks sync.Map
}

// NewEngine creates a recommendation engine.
func NewEngine(cfg config.RecommendConfig, store Store, catalog Catalog) (*Engine, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if catalog == nil {
		return nil, errors.New("catalog is required")
	}
	return &Engine{
		cfg:     cfg,
		store:   store,
		catalog: catalog,
		logger:  logging.With().Str("component", "recommend").Logger(),
	}, nil
}

// Recommendations returns the user's stored recommendations, best first.
// A user with no stored set gets one generated synchronously, so their
// first read pays full generation latency once. locale selects the
// metadata language for that first generation.
func (e *Engine) Recommendations(ctx context.Context, userID, locale string) ([]models.Recommendation, error) {
	count, err := e.store.CountRecommendations(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check recommendation state: %w", err)
	}
	if count == 0 {
		return e.Generate(ctx, userID, locale)
	}
	return e.store.ListRecommendations(ctx, userID, e.cfg.OutputSize)
}

// Generate runs the full pipeline for one user and persists the result,
// replacing any previous set. Returns the persisted recommendations in
// ranked order.
func (e *Engine) Generate(ctx context.Context, userID, locale string) ([]models.Recommendation, error) {
	lock := e.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	ctx, cancel := context.WithTimeout(ctx, e.cfg.GenerationTimeout)
	defer cancel()

	start := time.Now()
	recs, fellBack, err := e.generate(ctx, userID, locale)
	if err != nil {
		metrics.RecordGeneration("error", time.Since(start))
		e.logger.Error().Err(err).Str("user_id", userID).Msg("Recommendation generation failed")
		return nil, err
	}

	outcome := "success"
	if fellBack {
		outcome = "fallback"
	}
	metrics.RecordGeneration(outcome, time.Since(start))
	e.logger.Info().
		Str("user_id", userID).
		Int("count", len(recs)).
		Bool("fallback", fellBack).
		Dur("duration", time.Since(start)).
		Msg("Recommendations generated")
	return recs, nil
}

func (e *Engine) generate(ctx context.Context, userID, locale string) ([]models.Recommendation, bool, error) {
	sig, err := e.collectSignals(ctx, userID, locale)
	if err != nil {
		return nil, false, fmt.Errorf("signal collection failed: %w", err)
	}

	affinity := e.buildAffinity(ctx, sig.highRated, locale)

	pool, err := e.fetchCandidates(ctx, locale)
	if err != nil {
		return nil, false, fmt.Errorf("candidate fetch failed: %w", err)
	}

	recs, fellBack := e.scoreAndRank(userID, pool, sig, affinity)

	if err := e.store.ReplaceRecommendations(ctx, userID, recs); err != nil {
		return nil, false, fmt.Errorf("failed to persist recommendations: %w", err)
	}
	return recs, fellBack, nil
}

// collectSignals gathers the user's history and the current trending list
// in parallel. Any failure here is fatal to the run: a partial signal set
// would silently degrade both the affinity profile and the exclusions.
func (e *Engine) collectSignals(ctx context.Context, userID, locale string) (*signals, error) {
	var (
		ratings   []models.Rating
		watchlist []models.WatchlistItem
		notes     []models.Note
		trending  *models.MoviePage
	)

	reads := []func() error{
		func() (err error) { ratings, err = e.store.ListRatings(ctx, userID, 0); return },
		func() (err error) { watchlist, err = e.store.ListWatchlist(ctx, userID); return },
		func() (err error) { notes, err = e.store.ListNotes(ctx, userID, 0); return },
		func() (err error) { trending, err = e.catalog.Trending(ctx, 1, locale); return },
	}

	errs := make([]error, len(reads))
	var wg sync.WaitGroup
	for i, read := range reads {
		wg.Add(1)
		go func(idx int, fn func() error) {
			defer wg.Done()
			errs[idx] = fn()
		}(i, read)
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	sig := &signals{
		exclusions: make(map[int]struct{}, len(ratings)+len(watchlist)+len(notes)+len(trending.Results)),
	}
	for _, r := range ratings {
		sig.exclusions[r.MovieID] = struct{}{}
		if float64(r.Rating) >= e.cfg.HighRatingThreshold {
			sig.highRated = append(sig.highRated, r)
		}
	}
	for _, w := range watchlist {
		sig.exclusions[w.MovieID] = struct{}{}
	}
	for _, n := range notes {
		sig.exclusions[n.MovieID] = struct{}{}
	}
	for _, m := range trending.Results {
		sig.exclusions[m.ID] = struct{}{}
	}
	return sig, nil
}

// buildAffinity fetches genre lists for a bounded sample of the user's
// high-rated movies, concurrently, and counts genre occurrences. A failed
// lookup for one movie is logged and skipped; it contributes no affinity.
func (e *Engine) buildAffinity(ctx context.Context, highRated []models.Rating, locale string) GenreAffinity {
	sample := highRated
	if len(sample) > e.cfg.AffinitySampleCap {
		sample = sample[:e.cfg.AffinitySampleCap]
	}

	results := make([][]int, len(sample))
	var wg sync.WaitGroup
	for i, rating := range sample {
		wg.Add(1)
		go func(idx int, movieID int) {
			defer wg.Done()
			genres, err := e.catalog.MovieGenres(ctx, movieID, locale)
			if err != nil {
				e.logger.Warn().Err(err).Int("movie_id", movieID).
					Msg("Genre lookup failed, movie skipped for affinity")
				return
			}
			results[idx] = genres
		}(i, rating.MovieID)
	}
	wg.Wait()

	affinity := make(GenreAffinity)
	for _, genres := range results {
		for _, id := range genres {
			affinity[id]++
		}
	}
	return affinity
}

// fetchCandidates pulls the configured number of pages from the popular
// and top-rated listings concurrently and concatenates them in source
// order. Any page failure aborts the run: scoring against a partial pool
// would bias the ranking, and the fallback pass assumes a full pool.
func (e *Engine) fetchCandidates(ctx context.Context, locale string) ([]models.Movie, error) {
	type fetch struct {
		fn   func(context.Context, int, string) (*models.MoviePage, error)
		page int
	}

	fetches := make([]fetch, 0, 2*e.cfg.PagesPerSource)
	for p := 1; p <= e.cfg.PagesPerSource; p++ {
		fetches = append(fetches, fetch{fn: e.catalog.Popular, page: p})
	}
	for p := 1; p <= e.cfg.PagesPerSource; p++ {
		fetches = append(fetches, fetch{fn: e.catalog.TopRated, page: p})
	}

	pages := make([]*models.MoviePage, len(fetches))
	errs := make([]error, len(fetches))
	var wg sync.WaitGroup
	for i, f := range fetches {
		wg.Add(1)
		go func(idx int, f fetch) {
			defer wg.Done()
			pages[idx], errs[idx] = f.fn(ctx, f.page, locale)
		}(i, f)
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	var pool []models.Movie
	for _, page := range pages {
		pool = append(pool, page.Results...)
	}
	return pool, nil
}

// scoreAndRank runs the strict filtering-and-scoring pass over the pool,
// sorts the survivors, and engages the fallback pass when the strict pass
// left too few. The returned bool reports whether fallback ran.
func (e *Engine) scoreAndRank(userID string, pool []models.Movie, sig *signals, affinity GenreAffinity) ([]models.Recommendation, bool) {
	seen := make(map[int]struct{}, len(pool))
	recs := make([]models.Recommendation, 0, e.cfg.OutputSize)

	for _, m := range pool {
		if sig.excluded(m.ID) {
			continue
		}
		if _, dup := seen[m.ID]; dup {
			continue
		}
		if m.PosterPath == "" {
			continue
		}
		seen[m.ID] = struct{}{}

		reason := ReasonHighlyRated
		if len(m.GenreIDs) > 0 && affinity[m.GenreIDs[0]] > 0 {
			reason = ReasonFavoriteGenres
		}
		recs = append(recs, models.Recommendation{
			UserID:      userID,
			MovieID:     m.ID,
			Title:       m.Title,
			PosterPath:  m.PosterPath,
			VoteAverage: m.VoteAverage,
			Score:       m.VoteAverage + affinity.Boost(m.GenreIDs, e.cfg.GenreBoost),
			Reason:      reason,
		})
	}

	metrics.RecommendCandidatesScored.Observe(float64(len(recs)))

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Score > recs[j].Score
	})

	fellBack := len(recs) < e.cfg.FallbackThreshold
	if len(recs) > e.cfg.OutputSize {
		recs = recs[:e.cfg.OutputSize]
	}

	if fellBack {
		// Relaxed pass: exclusions no longer apply, but the poster gate
		// and dedup against already-chosen movies still do. Appended in
		// pool order with the neutral reason and no affinity boost.
		for _, m := range pool {
			if len(recs) >= e.cfg.OutputSize {
				break
			}
			if _, dup := seen[m.ID]; dup {
				continue
			}
			if m.PosterPath == "" {
				continue
			}
			seen[m.ID] = struct{}{}
			recs = append(recs, models.Recommendation{
				UserID:      userID,
				MovieID:     m.ID,
				Title:       m.Title,
				PosterPath:  m.PosterPath,
				VoteAverage: m.VoteAverage,
				Score:       m.VoteAverage,
				Reason:      ReasonPopularChoice,
			})
		}
	}
	return recs, fellBack
}

// userLock returns the mutex serializing generation runs for one user,
// creating it on first use.
func (e *Engine) userLock(userID string) *sync.Mutex {
	lock, _ := e.userLocks.LoadOrStore(userID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// Cinetrack - Movie Tracking and Recommendations
// Copyright 2026 Jordi N. (jordinodejs)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jordinodejs/cinetrack

package tmdb

import (
	"context"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/jordinodejs/cinetrack/internal/config"
	"github.com/jordinodejs/cinetrack/internal/logging"
	"github.com/jordinodejs/cinetrack/internal/metrics"
	"github.com/jordinodejs/cinetrack/internal/models"
)

// CircuitBreakerClient wraps Client with a circuit breaker so a TMDB
// outage fails fast instead of tying up request goroutines on timeouts.
//
// The breaker uses real time for its interval and timeout calculations.
// Tests should mock the underlying client rather than the breaker.
type CircuitBreakerClient struct {
	client *Client
	cb     *gobreaker.CircuitBreaker[interface{}]
}

var (
	_ API = (*Client)(nil)
	_ API = (*CircuitBreakerClient)(nil)
)

// NewCircuitBreakerClient creates a TMDB client with circuit breaker.
// Configuration:
//   - Max 3 concurrent requests in half-open state
//   - 1 minute measurement window
//   - 2 minute timeout before attempting recovery
//   - Opens after 60% failure rate with minimum 10 requests
func NewCircuitBreakerClient(cfg *config.TMDBConfig) *CircuitBreakerClient {
	client := NewClient(cfg)

	metrics.TMDBCircuitBreakerState.Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        "tmdb-api",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false // need statistical significance
			}

			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6

			if shouldTrip {
				logging.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("Opening TMDB circuit")
			}

			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("from", stateToString(from)).
				Str("to", stateToString(to)).
				Msg("TMDB circuit breaker state transition")

			metrics.TMDBCircuitBreakerState.Set(stateToFloat(to))
		},
	})

	return &CircuitBreakerClient{
		client: client,
		cb:     cb,
	}
}

// execute wraps a TMDB call with circuit breaker protection
func (cbc *CircuitBreakerClient) execute(fn func() (interface{}, error)) (interface{}, error) {
	return cbc.cb.Execute(fn)
}

// castResult safely type-casts the circuit breaker result
func castResult[T any](result interface{}, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	typed, ok := result.(*T)
	if !ok {
		return nil, fmt.Errorf("unexpected result type %T", result)
	}
	return typed, nil
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Trending returns one page of trending movies with breaker protection.
func (cbc *CircuitBreakerClient) Trending(ctx context.Context, page int, locale string) (*models.MoviePage, error) {
	result, err := cbc.execute(func() (interface{}, error) {
		return cbc.client.Trending(ctx, page, locale)
	})
	return castResult[models.MoviePage](result, err)
}

// Popular returns one page of popular movies with breaker protection.
func (cbc *CircuitBreakerClient) Popular(ctx context.Context, page int, locale string) (*models.MoviePage, error) {
	result, err := cbc.execute(func() (interface{}, error) {
		return cbc.client.Popular(ctx, page, locale)
	})
	return castResult[models.MoviePage](result, err)
}

// TopRated returns one page of top rated movies with breaker protection.
func (cbc *CircuitBreakerClient) TopRated(ctx context.Context, page int, locale string) (*models.MoviePage, error) {
	result, err := cbc.execute(func() (interface{}, error) {
		return cbc.client.TopRated(ctx, page, locale)
	})
	return castResult[models.MoviePage](result, err)
}

// Search returns one page of search results with breaker protection.
func (cbc *CircuitBreakerClient) Search(ctx context.Context, query string, page int, locale string) (*models.MoviePage, error) {
	result, err := cbc.execute(func() (interface{}, error) {
		return cbc.client.Search(ctx, query, page, locale)
	})
	return castResult[models.MoviePage](result, err)
}

// MovieDetails returns one movie's full record with breaker protection.
func (cbc *CircuitBreakerClient) MovieDetails(ctx context.Context, movieID int, locale string) (*models.MovieDetails, error) {
	result, err := cbc.execute(func() (interface{}, error) {
		return cbc.client.MovieDetails(ctx, movieID, locale)
	})
	return castResult[models.MovieDetails](result, err)
}

// MovieGenres returns one movie's genre IDs with breaker protection.
func (cbc *CircuitBreakerClient) MovieGenres(ctx context.Context, movieID int, locale string) ([]int, error) {
	result, err := cbc.execute(func() (interface{}, error) {
		return cbc.client.MovieGenres(ctx, movieID, locale)
	})
	if err != nil {
		return nil, err
	}
	ids, ok := result.([]int)
	if !ok {
		return nil, fmt.Errorf("unexpected result type %T", result)
	}
	return ids, nil
}

// Genres returns the genre taxonomy with breaker protection.
func (cbc *CircuitBreakerClient) Genres(ctx context.Context, locale string) ([]models.Genre, error) {
	result, err := cbc.execute(func() (interface{}, error) {
		return cbc.client.Genres(ctx, locale)
	})
	if err != nil {
		return nil, err
	}
	genres, ok := result.([]models.Genre)
	if !ok {
		return nil, fmt.Errorf("unexpected result type %T", result)
	}
	return genres, nil
}

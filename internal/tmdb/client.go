// Cinetrack - Movie Tracking and Recommendations
// Copyright 2026 Jordi N. (jordinodejs)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jordinodejs/cinetrack

// Package tmdb provides a client for The Movie Database API with rate
// limiting, automatic 429 retry, response caching, and circuit breaker
// protection.
package tmdb

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/jordinodejs/cinetrack/internal/cache"
	"github.com/jordinodejs/cinetrack/internal/config"
	"github.com/jordinodejs/cinetrack/internal/metrics"
	"github.com/jordinodejs/cinetrack/internal/models"
)

// maxErrorBodySize limits how much of an error response body is read for
// diagnostics.
const maxErrorBodySize = 64 * 1024 // 64KB

// API defines the TMDB operations used by the rest of the application.
// Implemented by Client for production and by mocks for testing; the
// circuit breaker wrapper in breaker.go implements it too.
//
// locale selects the metadata language ("en-US"); an empty locale falls
// back to the configured default.
type API interface {
	Trending(ctx context.Context, page int, locale string) (*models.MoviePage, error)
	Popular(ctx context.Context, page int, locale string) (*models.MoviePage, error)
	TopRated(ctx context.Context, page int, locale string) (*models.MoviePage, error)
	Search(ctx context.Context, query string, page int, locale string) (*models.MoviePage, error)
	MovieDetails(ctx context.Context, movieID int, locale string) (*models.MovieDetails, error)
	MovieGenres(ctx context.Context, movieID int, locale string) ([]int, error)
	Genres(ctx context.Context, locale string) ([]models.Genre, error)
}

// Client is the direct TMDB API client. It authenticates with a v4 read
// access token, keeps request volume under the API's limit with a token
// bucket, retries on HTTP 429, and caches listing pages and the genre
// taxonomy in memory.
type Client struct {
	baseURL        string
	accessToken    string
	language       string
	trendingWindow string
	client         *http.Client
	limiter        *rate.Limiter
	maxRetries     int
	retryBaseDelay time.Duration

	listingCache *cache.Cache
	genreCache   *cache.Cache
}

// NewClient creates a TMDB client from configuration.
func NewClient(cfg *config.TMDBConfig) *Client {
	return &Client{
		baseURL:        cfg.BaseURL,
		accessToken:    cfg.AccessToken,
		language:       cfg.Language,
		trendingWindow: cfg.TrendingWindow,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter:        rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		maxRetries:     cfg.RetryAttempts,
		retryBaseDelay: cfg.RetryDelay,

		listingCache: cache.New(cfg.ListingCacheTTL),
		genreCache:   cache.New(cfg.GenreCacheTTL),
	}
}

// resolveLocale falls back to the configured default language.
func (c *Client) resolveLocale(locale string) string {
	if locale != "" {
		return locale
	}
	return c.language
}

// Trending returns one page of trending movies for the configured window.
func (c *Client) Trending(ctx context.Context, page int, locale string) (*models.MoviePage, error) {
	path := fmt.Sprintf("/trending/movie/%s", c.trendingWindow)
	return c.listing(ctx, "trending", path, page, locale)
}

// Popular returns one page of currently popular movies.
func (c *Client) Popular(ctx context.Context, page int, locale string) (*models.MoviePage, error) {
	return c.listing(ctx, "popular", "/movie/popular", page, locale)
}

// TopRated returns one page of all-time top rated movies.
func (c *Client) TopRated(ctx context.Context, page int, locale string) (*models.MoviePage, error) {
	return c.listing(ctx, "top_rated", "/movie/top_rated", page, locale)
}

// Search returns one page of title search results. Search results are not
// cached; queries are too diverse for a small TTL cache to help.
func (c *Client) Search(ctx context.Context, query string, page int, locale string) (*models.MoviePage, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("page", strconv.Itoa(page))

	var result models.MoviePage
	if err := c.get(ctx, "search", "/search/movie", params, locale, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// MovieDetails returns the full record for one movie, including genres.
// Cached per locale since titles and overviews are localized.
func (c *Client) MovieDetails(ctx context.Context, movieID int, locale string) (*models.MovieDetails, error) {
	key := cache.GenerateKey("details", []interface{}{movieID, c.resolveLocale(locale)})
	if cached, ok := c.listingCache.Get(key); ok {
		metrics.TMDBCacheHits.Inc()
		if details, ok := cached.(*models.MovieDetails); ok {
			return details, nil
		}
	}
	metrics.TMDBCacheMisses.Inc()

	var result models.MovieDetails
	path := fmt.Sprintf("/movie/%d", movieID)
	if err := c.get(ctx, "details", path, nil, locale, &result); err != nil {
		return nil, err
	}

	c.listingCache.Set(key, &result)
	return &result, nil
}

// MovieGenres returns the genre IDs of one movie.
func (c *Client) MovieGenres(ctx context.Context, movieID int, locale string) ([]int, error) {
	details, err := c.MovieDetails(ctx, movieID, locale)
	if err != nil {
		return nil, err
	}
	return details.GenreIDList(), nil
}

// Genres returns the full movie genre taxonomy. The taxonomy changes
// rarely, so it is cached with its own long TTL, keyed per locale.
func (c *Client) Genres(ctx context.Context, locale string) ([]models.Genre, error) {
	key := cache.GenerateKey("genres", c.resolveLocale(locale))
	if cached, ok := c.genreCache.Get(key); ok {
		metrics.TMDBCacheHits.Inc()
		if genres, ok := cached.([]models.Genre); ok {
			return genres, nil
		}
	}
	metrics.TMDBCacheMisses.Inc()

	var result struct {
		Genres []models.Genre `json:"genres"`
	}
	if err := c.get(ctx, "genres", "/genre/movie/list", nil, locale, &result); err != nil {
		return nil, err
	}

	c.genreCache.Set(key, result.Genres)
	return result.Genres, nil
}

// listing fetches one page of a movie list endpoint through the cache.
func (c *Client) listing(ctx context.Context, endpoint, path string, page int, locale string) (*models.MoviePage, error) {
	key := cache.GenerateKey(endpoint, []interface{}{page, c.resolveLocale(locale)})
	if cached, ok := c.listingCache.Get(key); ok {
		metrics.TMDBCacheHits.Inc()
		if result, ok := cached.(*models.MoviePage); ok {
			return result, nil
		}
	}
	metrics.TMDBCacheMisses.Inc()

	params := url.Values{}
	params.Set("page", strconv.Itoa(page))

	var result models.MoviePage
	if err := c.get(ctx, endpoint, path, params, locale, &result); err != nil {
		return nil, err
	}

	c.listingCache.Set(key, &result)
	return &result, nil
}

// get performs an authenticated GET request and decodes the JSON response.
func (c *Client) get(ctx context.Context, endpoint, path string, params url.Values, locale string, result interface{}) error {
	if params == nil {
		params = url.Values{}
	}
	if lang := c.resolveLocale(locale); lang != "" {
		params.Set("language", lang)
	}

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	start := time.Now()
	resp, err := c.doRequestWithRateLimit(ctx, reqURL)
	if err != nil {
		metrics.RecordTMDBRequest(endpoint, "error", time.Since(start))
		return fmt.Errorf("%s request failed: %w", endpoint, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	metrics.RecordTMDBRequest(endpoint, strconv.Itoa(resp.StatusCode), time.Since(start))

	if resp.StatusCode != http.StatusOK {
		body := readBodyForError(resp.Body)
		return fmt.Errorf("%s request failed with status %d: %s", endpoint, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}

	return nil
}

// doRequestWithRateLimit performs an HTTP request with client-side rate
// limiting and automatic HTTP 429 handling with exponential backoff.
// The context is used for cancellation during limiter and backoff waits.
func (c *Client) doRequestWithRateLimit(ctx context.Context, reqURL string) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("HTTP request failed: %w", err)
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		// Rate limited - close body and retry with backoff
		_ = resp.Body.Close()
		metrics.TMDBRetries.Inc()

		if attempt == c.maxRetries {
			lastErr = fmt.Errorf("rate limit exceeded after %d retries (HTTP 429)", c.maxRetries)
			break
		}

		delay := c.retryBaseDelay * time.Duration(1<<uint(attempt))

		// Honor Retry-After (RFC 6585) when present
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := time.ParseDuration(retryAfter + "s"); err == nil {
				delay = seconds
			}
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, lastErr
}

// readBodyForError reads a bounded amount of the response body for error
// reporting.
func readBodyForError(r io.Reader) []byte {
	limitedReader := io.LimitReader(r, maxErrorBodySize)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}

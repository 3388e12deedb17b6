// Cinetrack - Movie Tracking and Recommendations
// Copyright 2026 Jordi N. (jordinodejs)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jordinodejs/cinetrack

package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/crypto/bcrypt"

	"github.com/jordinodejs/cinetrack/internal/auth"
	"github.com/jordinodejs/cinetrack/internal/config"
	"github.com/jordinodejs/cinetrack/internal/database"
	"github.com/jordinodejs/cinetrack/internal/models"
	"github.com/jordinodejs/cinetrack/internal/recommend"
)

// fakeCatalog serves a small fixed movie catalog so tests never reach
// the real TMDB API. It remembers the locale of the last call so tests
// can assert the query parameter reaches the catalog.
type fakeCatalog struct {
	mu         sync.Mutex
	lastLocale string
}

func (c *fakeCatalog) noteLocale(locale string) {
	c.mu.Lock()
	c.lastLocale = locale
	c.mu.Unlock()
}

func (c *fakeCatalog) LastLocale() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastLocale
}

func (c *fakeCatalog) makePage(page, startID int) *models.MoviePage {
	results := make([]models.Movie, 0, 5)
	for i := 0; i < 5; i++ {
		id := startID + (page-1)*5 + i
		results = append(results, models.Movie{
			ID:          id,
			Title:       fmt.Sprintf("Movie %d", id),
			PosterPath:  fmt.Sprintf("/poster-%d.jpg", id),
			VoteAverage: 6.0 + float64(i)*0.5,
			GenreIDs:    []int{28, 18},
		})
	}
	return &models.MoviePage{Page: page, Results: results, TotalPages: 10, TotalResults: 50}
}

func (c *fakeCatalog) Trending(ctx context.Context, page int, locale string) (*models.MoviePage, error) {
	c.noteLocale(locale)
	return c.makePage(page, 1000), nil
}

func (c *fakeCatalog) Popular(ctx context.Context, page int, locale string) (*models.MoviePage, error) {
	c.noteLocale(locale)
	return c.makePage(page, 2000), nil
}

func (c *fakeCatalog) TopRated(ctx context.Context, page int, locale string) (*models.MoviePage, error) {
	c.noteLocale(locale)
	return c.makePage(page, 3000), nil
}

func (c *fakeCatalog) Search(ctx context.Context, query string, page int, locale string) (*models.MoviePage, error) {
	c.noteLocale(locale)
	return c.makePage(page, 4000), nil
}

func (c *fakeCatalog) MovieDetails(ctx context.Context, movieID int, locale string) (*models.MovieDetails, error) {
	c.noteLocale(locale)
	return &models.MovieDetails{
		ID:          movieID,
		Title:       fmt.Sprintf("Movie %d", movieID),
		PosterPath:  fmt.Sprintf("/poster-%d.jpg", movieID),
		VoteAverage: 7.2,
		Genres:      []models.Genre{{ID: 28, Name: "Action"}},
	}, nil
}

func (c *fakeCatalog) MovieGenres(ctx context.Context, movieID int, locale string) ([]int, error) {
	c.noteLocale(locale)
	return []int{28, 18}, nil
}

func (c *fakeCatalog) Genres(ctx context.Context, locale string) ([]models.Genre, error) {
	c.noteLocale(locale)
	return []models.Genre{{ID: 28, Name: "Action"}, {ID: 18, Name: "Drama"}}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Security: config.SecurityConfig{
			JWTSecret:         "0123456789abcdef0123456789abcdef",
			SessionTimeout:    time.Hour,
			SessionStore:      auth.SessionStoreMemory,
			CookieName:        "cinetrack_token",
			BcryptCost:        bcrypt.MinCost,
			LockoutThreshold:  10,
			LockoutDuration:   time.Minute,
			RateLimitDisabled: true,
		},
		Recommend: config.RecommendConfig{
			HighRatingThreshold: 8.0,
			AffinitySampleCap:   5,
			GenreBoost:          1.5,
			PagesPerSource:      2,
			OutputSize:          10,
			FallbackThreshold:   5,
			GenerationTimeout:   30 * time.Second,
		},
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv, _ := newTestServerWithCatalog(t)
	return srv
}

func newTestServerWithCatalog(t *testing.T) (*httptest.Server, *fakeCatalog) {
	t.Helper()

	cfg := testConfig()

	db, err := database.New(&config.DatabaseConfig{
		Path:                   ":memory:",
		MaxMemory:              "256MB",
		Threads:                1,
		PreserveInsertionOrder: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	catalog := &fakeCatalog{}

	engine, err := recommend.NewEngine(cfg.Recommend, db, catalog)
	if err != nil {
		t.Fatalf("failed to build engine: %v", err)
	}

	authService, err := auth.NewService(&cfg.Security, db, auth.NewMemorySessionStore())
	if err != nil {
		t.Fatalf("failed to build auth service: %v", err)
	}

	handler := NewHandler(cfg, db, catalog, engine, authService)
	srv := httptest.NewServer(NewRouter(cfg, handler, authService))
	t.Cleanup(srv.Close)
	return srv, catalog
}

// doRequest sends a JSON request and decodes the response envelope.
func doRequest(t *testing.T, method, url, token string, body interface{}) (int, *APIResponse) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}

	var envelope APIResponse
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &envelope); err != nil {
			t.Fatalf("failed to decode response %q: %v", raw, err)
		}
	}
	return resp.StatusCode, &envelope
}

// registerUser creates an account and returns its session token.
func registerUser(t *testing.T, baseURL, email string) string {
	t.Helper()

	status, resp := doRequest(t, http.MethodPost, baseURL+"/api/v1/auth/register", "",
		map[string]string{"email": email, "password": "secret-password"})
	if status != http.StatusCreated {
		t.Fatalf("register returned status %d", status)
	}

	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("unexpected register payload: %#v", resp.Data)
	}
	token, _ := data["token"].(string)
	if token == "" {
		t.Fatal("register returned no token")
	}
	return token
}

func TestRegisterLoginFlow(t *testing.T) {
	srv := newTestServer(t)

	token := registerUser(t, srv.URL, "flow@example.com")

	// The token authenticates /me.
	status, resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/auth/me", token, nil)
	if status != http.StatusOK {
		t.Fatalf("me returned status %d", status)
	}
	user, _ := resp.Data.(map[string]interface{})
	if got := user["email"]; got != "flow@example.com" {
		t.Errorf("me email = %v, want flow@example.com", got)
	}

	// Duplicate registration conflicts.
	status, resp = doRequest(t, http.MethodPost, srv.URL+"/api/v1/auth/register", "",
		map[string]string{"email": "flow@example.com", "password": "secret-password"})
	if status != http.StatusConflict {
		t.Errorf("duplicate register status = %d, want 409", status)
	}
	if resp.Error == nil || resp.Error.Code != ErrCodeConflict {
		t.Errorf("duplicate register error = %+v, want %s", resp.Error, ErrCodeConflict)
	}

	// Fresh login works; wrong password does not.
	status, _ = doRequest(t, http.MethodPost, srv.URL+"/api/v1/auth/login", "",
		map[string]string{"email": "flow@example.com", "password": "secret-password"})
	if status != http.StatusOK {
		t.Errorf("login status = %d, want 200", status)
	}
	status, _ = doRequest(t, http.MethodPost, srv.URL+"/api/v1/auth/login", "",
		map[string]string{"email": "flow@example.com", "password": "wrong-password"})
	if status != http.StatusUnauthorized {
		t.Errorf("bad login status = %d, want 401", status)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv.URL, "logout@example.com")

	status, _ := doRequest(t, http.MethodPost, srv.URL+"/api/v1/auth/logout", token, nil)
	if status != http.StatusNoContent {
		t.Fatalf("logout status = %d, want 204", status)
	}

	status, _ = doRequest(t, http.MethodGet, srv.URL+"/api/v1/auth/me", token, nil)
	if status != http.StatusUnauthorized {
		t.Errorf("me after logout status = %d, want 401", status)
	}
}

func TestUnauthenticatedRejected(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{
		"/api/v1/watchlist/",
		"/api/v1/ratings/",
		"/api/v1/notes/",
		"/api/v1/profile",
		"/api/v1/recommendations/",
		"/api/v1/movies/trending",
	} {
		status, _ := doRequest(t, http.MethodGet, srv.URL+path, "", nil)
		if status != http.StatusUnauthorized {
			t.Errorf("%s status = %d, want 401", path, status)
		}
	}
}

func TestWatchlistLifecycle(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv.URL, "watchlist@example.com")

	status, _ := doRequest(t, http.MethodPost, srv.URL+"/api/v1/watchlist/", token,
		map[string]interface{}{"movie_id": 550, "title": "Fight Club", "poster_path": "/fc.jpg"})
	if status != http.StatusCreated {
		t.Fatalf("add status = %d, want 201", status)
	}

	status, resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/watchlist/", token, nil)
	if status != http.StatusOK {
		t.Fatalf("list status = %d, want 200", status)
	}
	items, _ := resp.Data.([]interface{})
	if len(items) != 1 {
		t.Fatalf("watchlist has %d items, want 1", len(items))
	}

	status, _ = doRequest(t, http.MethodDelete, srv.URL+"/api/v1/watchlist/550", token, nil)
	if status != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", status)
	}

	status, resp = doRequest(t, http.MethodGet, srv.URL+"/api/v1/watchlist/", token, nil)
	if status != http.StatusOK {
		t.Fatalf("list status = %d, want 200", status)
	}
	if items, _ := resp.Data.([]interface{}); len(items) != 0 {
		t.Errorf("watchlist has %d items after delete, want 0", len(items))
	}
}

func TestRatingValidation(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv.URL, "rating@example.com")

	status, resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/ratings/", token,
		map[string]interface{}{"movie_id": 550, "rating": 11, "title": "Fight Club"})
	if status != http.StatusBadRequest {
		t.Fatalf("out-of-range rating status = %d, want 400", status)
	}
	if resp.Error == nil || resp.Error.Code != ErrCodeValidationFailed {
		t.Errorf("error = %+v, want %s", resp.Error, ErrCodeValidationFailed)
	}

	status, _ = doRequest(t, http.MethodPost, srv.URL+"/api/v1/ratings/", token,
		map[string]interface{}{"movie_id": 550, "rating": 9, "title": "Fight Club"})
	if status != http.StatusOK {
		t.Errorf("valid rating status = %d, want 200", status)
	}
}

func TestUnknownFieldsRejected(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv.URL, "strict@example.com")

	status, _ := doRequest(t, http.MethodPost, srv.URL+"/api/v1/ratings/", token,
		map[string]interface{}{"movie_id": 550, "rating": 9, "bogus": true})
	if status != http.StatusBadRequest {
		t.Errorf("unknown field status = %d, want 400", status)
	}
}

func TestMovieDetailIncludesUserState(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv.URL, "detail@example.com")

	status, _ := doRequest(t, http.MethodPost, srv.URL+"/api/v1/ratings/", token,
		map[string]interface{}{"movie_id": 550, "rating": 8, "title": "Fight Club"})
	if status != http.StatusOK {
		t.Fatalf("rate status = %d, want 200", status)
	}

	status, resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/movies/550", token, nil)
	if status != http.StatusOK {
		t.Fatalf("detail status = %d, want 200", status)
	}
	data, _ := resp.Data.(map[string]interface{})
	userData, _ := data["user_data"].(map[string]interface{})
	if userData == nil {
		t.Fatalf("detail payload missing user_data: %#v", resp.Data)
	}
	rating, _ := userData["rating"].(map[string]interface{})
	if rating == nil || rating["rating"] != float64(8) {
		t.Errorf("user_data.rating = %#v, want rating 8", userData["rating"])
	}
}

func TestRecommendationsLazyGeneration(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv.URL, "recs@example.com")

	status, resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/recommendations/", token, nil)
	if status != http.StatusOK {
		t.Fatalf("recommendations status = %d, want 200", status)
	}
	recs, _ := resp.Data.([]interface{})
	if len(recs) != 10 {
		t.Fatalf("got %d recommendations, want 10", len(recs))
	}

	status, resp = doRequest(t, http.MethodPost, srv.URL+"/api/v1/recommendations/generate", token, nil)
	if status != http.StatusOK {
		t.Fatalf("generate status = %d, want 200", status)
	}
	if recs, _ := resp.Data.([]interface{}); len(recs) != 10 {
		t.Errorf("regenerate returned %d recommendations, want 10", len(recs))
	}
}

func TestProfileSummary(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv.URL, "profile@example.com")

	status, _ := doRequest(t, http.MethodPost, srv.URL+"/api/v1/ratings/", token,
		map[string]interface{}{"movie_id": 550, "rating": 9, "title": "Fight Club"})
	if status != http.StatusOK {
		t.Fatalf("rate status = %d, want 200", status)
	}
	status, _ = doRequest(t, http.MethodPost, srv.URL+"/api/v1/watchlist/", token,
		map[string]interface{}{"movie_id": 603, "title": "The Matrix"})
	if status != http.StatusCreated {
		t.Fatalf("watchlist status = %d, want 201", status)
	}

	status, resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/profile", token, nil)
	if status != http.StatusOK {
		t.Fatalf("profile status = %d, want 200", status)
	}
	data, _ := resp.Data.(map[string]interface{})
	user, _ := data["user"].(map[string]interface{})
	if user["email"] != "profile@example.com" {
		t.Errorf("profile user email = %v", user["email"])
	}
	profile, _ := data["profile"].(map[string]interface{})
	if profile == nil {
		t.Fatalf("missing profile payload: %#v", resp.Data)
	}
	if profile["rating_count"] != float64(1) {
		t.Errorf("rating_count = %v, want 1", profile["rating_count"])
	}
	if profile["watchlist_count"] != float64(1) {
		t.Errorf("watchlist_count = %v, want 1", profile["watchlist_count"])
	}
	if profile["average_rating"] != float64(9) {
		t.Errorf("average_rating = %v, want 9", profile["average_rating"])
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz", "/health"} {
		status, _ := doRequest(t, http.MethodGet, srv.URL+path, "", nil)
		if status != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, status)
		}
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv.URL, "search@example.com")

	status, _ := doRequest(t, http.MethodGet, srv.URL+"/api/v1/movies/search", token, nil)
	if status != http.StatusBadRequest {
		t.Errorf("empty query status = %d, want 400", status)
	}

	status, resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/movies/search?query=fight", token, nil)
	if status != http.StatusOK {
		t.Fatalf("search status = %d, want 200", status)
	}
	if resp.Data == nil {
		t.Error("search returned no payload")
	}
}

func TestLocaleQueryParam(t *testing.T) {
	srv, catalog := newTestServerWithCatalog(t)
	token := registerUser(t, srv.URL, "locale@example.com")

	status, _ := doRequest(t, http.MethodGet, srv.URL+"/api/v1/movies/trending?locale=fr-FR", token, nil)
	if status != http.StatusOK {
		t.Fatalf("trending with locale status = %d, want 200", status)
	}
	if got := catalog.LastLocale(); got != "fr-FR" {
		t.Errorf("catalog saw locale %q, want fr-FR", got)
	}

	// Absent locale reaches the catalog empty, which resolves to the
	// configured default language.
	status, _ = doRequest(t, http.MethodGet, srv.URL+"/api/v1/movies/popular", token, nil)
	if status != http.StatusOK {
		t.Fatalf("popular status = %d, want 200", status)
	}
	if got := catalog.LastLocale(); got != "" {
		t.Errorf("catalog saw locale %q, want empty", got)
	}

	// Malformed locales are rejected before any catalog call.
	status, resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/movies/trending?locale=english", token, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("malformed locale status = %d, want 400", status)
	}
	if resp.Error == nil || resp.Error.Code != ErrCodeBadRequest {
		t.Errorf("malformed locale error = %+v, want code %s", resp.Error, ErrCodeBadRequest)
	}
	if got := catalog.LastLocale(); got != "" {
		t.Errorf("catalog called with locale %q after rejection", got)
	}
}

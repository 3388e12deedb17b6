// Cinetrack - Movie Tracking and Recommendations
// Copyright 2026 Jordi N. (jordinodejs)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jordinodejs/cinetrack

package supervisor

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jordinodejs/cinetrack/internal/logging"
)

// stubServer implements HTTPServer with controllable behavior.
type stubServer struct {
	serveErr    error
	shutdownErr error
	shutdowns   atomic.Int64
	release     chan struct{}
}

func newStubServer() *stubServer {
	return &stubServer{release: make(chan struct{})}
}

func (s *stubServer) ListenAndServe() error {
	<-s.release
	if s.serveErr != nil {
		return s.serveErr
	}
	return http.ErrServerClosed
}

func (s *stubServer) Shutdown(ctx context.Context) error {
	s.shutdowns.Add(1)
	close(s.release)
	return s.shutdownErr
}

func TestHTTPServiceGracefulShutdown(t *testing.T) {
	server := newStubServer()
	svc := NewHTTPService(server, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	// Give ListenAndServe a moment to start, then trigger shutdown.
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after cancellation")
	}

	if got := server.shutdowns.Load(); got != 1 {
		t.Errorf("Shutdown called %d times, want 1", got)
	}
}

func TestHTTPServiceSurfacesServeError(t *testing.T) {
	server := newStubServer()
	server.serveErr = errors.New("port already in use")
	close(server.release)

	svc := NewHTTPService(server, time.Second)
	err := svc.Serve(context.Background())
	if err == nil || !errors.Is(err, server.serveErr) {
		t.Errorf("Serve returned %v, want wrapped serve error", err)
	}
}

func TestPeriodicServiceRunsAndStops(t *testing.T) {
	var runs atomic.Int64
	svc := NewPeriodicService("test-janitor", 5*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	deadline := time.After(time.Second)
	for runs.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("only %d runs before deadline", runs.Load())
		case <-time.After(time.Millisecond):
		}
	}
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
}

func TestPeriodicServiceKeepsRunningAfterTaskError(t *testing.T) {
	var runs atomic.Int64
	svc := NewPeriodicService("flaky-janitor", 5*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return errors.New("transient failure")
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = svc.Serve(ctx) }()

	deadline := time.After(time.Second)
	for runs.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("only %d runs before deadline, errors should not stop the loop", runs.Load())
		case <-time.After(time.Millisecond):
		}
	}
}

func TestTreeServesAndShutsDown(t *testing.T) {
	tree := NewTree(logging.NewSlogLogger(), DefaultTreeConfig())

	var runs atomic.Int64
	tree.AddMaintenanceService(NewPeriodicService("tick", 5*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	deadline := time.After(2 * time.Second)
	for runs.Load() < 1 {
		select {
		case <-deadline:
			t.Fatal("maintenance service never ran")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("tree returned %v, want nil or context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("tree did not stop after cancellation")
	}
}

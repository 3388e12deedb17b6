// Cinetrack - Movie Tracking and Recommendations
// Copyright 2026 Jordi N. (jordinodejs)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jordinodejs/cinetrack

package supervisor

import (
	"context"
	"time"

	"github.com/jordinodejs/cinetrack/internal/logging"
)

// PeriodicService runs a task at a fixed interval under supervision.
// The session janitor and the lockout janitor are both instances of
// this. A task error is logged, not fatal: the next tick runs anyway.
type PeriodicService struct {
	name     string
	interval time.Duration
	task     func(ctx context.Context) error
}

// NewPeriodicService wraps the task. The first run happens one interval
// after start, not immediately.
func NewPeriodicService(name string, interval time.Duration, task func(ctx context.Context) error) *PeriodicService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &PeriodicService{name: name, interval: interval, task: task}
}

// Serve implements suture.Service.
func (p *PeriodicService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.task(ctx); err != nil {
				logging.Warn().Err(err).Str("service", p.name).Msg("periodic task failed")
			}
		}
	}
}

func (p *PeriodicService) String() string {
	return p.name
}

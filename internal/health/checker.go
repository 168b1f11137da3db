// Package health provides periodic health checks for the squadxp daemon.
// Checks: local store, storage directory, engine hydration and, when
// enabled, the remote profile database.
package health

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/squadplanner/squadxp/internal/infra/metrics"
)

// Pinger is anything that can report connectivity, like *sqlite.DB.
type Pinger interface {
	Ping() error
}

// Hydrator reports whether the engine finished its boot load.
type Hydrator interface {
	Hydrated() bool
}

// Check defines a single health check with optional recovery action.
type Check struct {
	Name      string
	CheckFn   func(ctx context.Context) error
	RecoverFn func(ctx context.Context) error
}

// Status represents the result of a health check.
type Status struct {
	Name      string    `json:"name"`
	Healthy   bool      `json:"healthy"`
	Error     string    `json:"error,omitempty"`
	Recovered bool      `json:"recovered,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Checker runs periodic health checks.
type Checker struct {
	mu       sync.RWMutex
	checks   []Check
	statuses []Status
	interval time.Duration
}

// NewChecker creates a checker with the standard local checks.
func NewChecker(db Pinger, storageDir string, engine Hydrator) *Checker {
	return &Checker{
		interval: 60 * time.Second,
		checks: []Check{
			{
				Name: "sqlite",
				CheckFn: func(ctx context.Context) error {
					return db.Ping()
				},
			},
			{
				Name: "storage_dir",
				CheckFn: func(ctx context.Context) error {
					return checkStorageDir(storageDir)
				},
				RecoverFn: func(ctx context.Context) error {
					return os.MkdirAll(storageDir, 0700)
				},
			},
			{
				Name: "hydrated",
				CheckFn: func(ctx context.Context) error {
					if !engine.Hydrated() {
						return errors.New("engine state not restored")
					}
					return nil
				},
			},
		},
	}
}

// AddCheck registers an extra check, such as the remote database ping.
func (c *Checker) AddCheck(check Check) {
	c.mu.Lock()
	c.checks = append(c.checks, check)
	c.mu.Unlock()
}

// Run starts the health check loop. Call in a goroutine.
func (c *Checker) Run(ctx context.Context) {
	// Run immediately on start
	c.RunNow(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.RunNow(ctx)
		}
	}
}

// RunNow runs every check once and stores the results.
func (c *Checker) RunNow(ctx context.Context) {
	c.mu.RLock()
	checks := make([]Check, len(c.checks))
	copy(checks, c.checks)
	c.mu.RUnlock()

	statuses := make([]Status, len(checks))
	for i, check := range checks {
		s := Status{
			Name:      check.Name,
			CheckedAt: time.Now(),
		}
		err := check.CheckFn(ctx)
		if err != nil && check.RecoverFn != nil && check.RecoverFn(ctx) == nil {
			// Re-check so a repaired resource reports healthy this round.
			if err = check.CheckFn(ctx); err == nil {
				s.Recovered = true
			}
		}
		s.Healthy = err == nil
		if err != nil {
			s.Error = err.Error()
		}
		gauge := 0.0
		if s.Healthy {
			gauge = 1
		}
		metrics.HealthCheckStatus.WithLabelValues(check.Name).Set(gauge)
		statuses[i] = s
	}

	c.mu.Lock()
	c.statuses = statuses
	c.mu.Unlock()
}

// Statuses returns the latest health check results.
func (c *Checker) Statuses() []Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]Status, len(c.statuses))
	copy(result, c.statuses)
	return result
}

// IsHealthy returns true if all checks pass.
func (c *Checker) IsHealthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range c.statuses {
		if !s.Healthy {
			return false
		}
	}
	return true
}

// ─── Check Implementations ──────────────────────────────────────────────────

func checkStorageDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("check storage dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}

package scheduler

import (
	"sync"
	"time"

	"github.com/squadplanner/squadxp/internal/app/gamification"
)

// ─── Snapshot Retry Queue ───────────────────────────────────────────────────
// Failed snapshot writes are retried with exponential backoff. Only the
// newest failed snapshot is kept: an older one is obsolete once a newer
// state exists.

// RetryConfig configures the retry queue behavior.
type RetryConfig struct {
	MaxRetries int           // Maximum consecutive retries before giving up
	BaseDelay  time.Duration // Initial backoff delay (doubles each retry)
	MaxDelay   time.Duration // Cap on backoff delay
}

// DefaultRetryConfig returns production retry defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 5,
		BaseDelay:  1 * time.Second,
		MaxDelay:   60 * time.Second,
	}
}

// RetryEntry tracks the pending failed write.
type RetryEntry struct {
	Revision  gamification.Revision
	Attempt   int       // Consecutive failures so far (1 = first failure)
	NextRetry time.Time // Earliest time this can be retried
	FailedAt  time.Time // When the last failure occurred
	Error     string    // Last failure reason
}

// RetryQueue holds at most one pending snapshot write.
type RetryQueue struct {
	mu      sync.Mutex
	config  RetryConfig
	pending *RetryEntry
	attempt int
	now     func() time.Time

	// Stats
	totalRetries   int64
	totalExhausted int64 // Failure streaks that exceeded MaxRetries
}

// NewRetryQueue creates an empty retry queue.
func NewRetryQueue(cfg RetryConfig) *RetryQueue {
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultRetryConfig().BaseDelay
	}
	if cfg.MaxDelay < cfg.BaseDelay {
		cfg.MaxDelay = cfg.BaseDelay
	}
	return &RetryQueue{config: cfg, now: time.Now}
}

// Backoff returns the delay before retry number attempt (1-based):
// BaseDelay * 2^(attempt-1), capped at MaxDelay.
func (rq *RetryQueue) Backoff(attempt int) time.Duration {
	delay := rq.config.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay > rq.config.MaxDelay {
			return rq.config.MaxDelay
		}
	}
	return delay
}

// ScheduleRetry records a failed write of rev, replacing any older pending
// entry. A revision older than the pending one is ignored. Returns false
// once the failure streak exceeds MaxRetries; the streak is then reset so
// the next failure starts over.
func (rq *RetryQueue) ScheduleRetry(rev gamification.Revision, cause error) bool {
	rq.mu.Lock()
	defer rq.mu.Unlock()

	if rq.pending != nil && rev.Seq < rq.pending.Revision.Seq {
		return true
	}

	rq.attempt++
	if rq.attempt > rq.config.MaxRetries {
		rq.totalExhausted++
		rq.attempt = 0
		rq.pending = nil
		return false
	}

	now := rq.now()
	entry := &RetryEntry{
		Revision:  rev,
		Attempt:   rq.attempt,
		FailedAt:  now,
		NextRetry: now.Add(rq.Backoff(rq.attempt)),
	}
	if cause != nil {
		entry.Error = cause.Error()
	}
	rq.pending = entry
	return true
}

// NextReady pops the pending entry once its backoff has elapsed.
func (rq *RetryQueue) NextReady() (*RetryEntry, bool) {
	rq.mu.Lock()
	defer rq.mu.Unlock()

	if rq.pending == nil || rq.now().Before(rq.pending.NextRetry) {
		return nil, false
	}
	entry := rq.pending
	rq.pending = nil
	rq.totalRetries++
	return entry, true
}

// Succeeded clears the pending entry and the failure streak.
// Call after any successful write.
func (rq *RetryQueue) Succeeded() {
	rq.mu.Lock()
	rq.pending = nil
	rq.attempt = 0
	rq.mu.Unlock()
}

// Len returns 1 when a write is waiting for retry, else 0.
func (rq *RetryQueue) Len() int {
	rq.mu.Lock()
	defer rq.mu.Unlock()
	if rq.pending == nil {
		return 0
	}
	return 1
}

// RetryStats holds retry queue statistics.
type RetryStats struct {
	PendingRetries int    `json:"pending_retries"`
	Attempt        int    `json:"attempt"`
	TotalRetries   int64  `json:"total_retries"`
	TotalExhausted int64  `json:"total_exhausted"`
	LastError      string `json:"last_error,omitempty"`
}

// RetryStats returns current retry queue statistics.
func (rq *RetryQueue) RetryStats() RetryStats {
	rq.mu.Lock()
	defer rq.mu.Unlock()

	st := RetryStats{
		Attempt:        rq.attempt,
		TotalRetries:   rq.totalRetries,
		TotalExhausted: rq.totalExhausted,
	}
	if rq.pending != nil {
		st.PendingRetries = 1
		st.LastError = rq.pending.Error
	}
	return st
}

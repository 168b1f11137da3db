// Package scheduler runs squadxp's periodic jobs on gocron:
//   - remote sync: pull the authoritative profile and ratchet-merge it
//   - persist retry: re-submit the newest failed snapshot write with backoff
package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/squadplanner/squadxp/internal/app/gamification"
	"github.com/squadplanner/squadxp/internal/infra/metrics"
)

// ─── Scheduler ──────────────────────────────────────────────────────────────

// Scheduler owns a gocron scheduler and the context handed to its jobs.
type Scheduler struct {
	cron   gocron.Scheduler
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a stopped scheduler.
func New() (*Scheduler, error) {
	cron, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{cron: cron, ctx: ctx, cancel: cancel}, nil
}

// Every registers fn to run every interval. A run that is still going when
// the next tick fires is rescheduled rather than overlapped.
func (s *Scheduler) Every(name string, interval time.Duration, fn func(ctx context.Context)) error {
	if interval <= 0 {
		return fmt.Errorf("job %s: interval must be positive, got %s", name, interval)
	}
	_, err := s.cron.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { fn(s.ctx) }),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("job %s: %w", name, err)
	}
	return nil
}

// Jobs returns the registered job names.
func (s *Scheduler) Jobs() []string {
	jobs := s.cron.Jobs()
	names := make([]string, 0, len(jobs))
	for _, j := range jobs {
		names = append(names, j.Name())
	}
	return names
}

// Start begins running jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Shutdown cancels running jobs and stops the scheduler.
func (s *Scheduler) Shutdown() error {
	s.cancel()
	return s.cron.Shutdown()
}

// ─── Jobs ───────────────────────────────────────────────────────────────────

// SyncJob pulls the remote profile into e. Fetch failures are logged and
// counted; they never reach the engine.
func SyncJob(e *gamification.Engine, src gamification.ProfileSource, profileID string) func(context.Context) {
	return func(ctx context.Context) {
		start := time.Now()
		adopted, err := e.Pull(ctx, src, profileID)
		metrics.SyncLatency.Observe(time.Since(start).Seconds())
		if err != nil {
			log.Printf("[sync] %v", err)
			metrics.SyncResults.WithLabelValues("error").Inc()
			return
		}
		if adopted {
			metrics.SyncResults.WithLabelValues("adopted").Inc()
			log.Printf("[sync] adopted remote profile (xp=%d)", e.State().XP)
			return
		}
		metrics.SyncResults.WithLabelValues("kept").Inc()
	}
}

// RetryJob re-submits the pending failed snapshot once its backoff elapsed.
func RetryJob(q *RetryQueue, requeue func(gamification.Revision)) func(context.Context) {
	return func(context.Context) {
		entry, ok := q.NextReady()
		if !ok {
			return
		}
		metrics.PersistRetries.Inc()
		log.Printf("[persist] retrying snapshot write (attempt %d, last error: %s)", entry.Attempt, entry.Error)
		requeue(entry.Revision)
	}
}

// AttachRetries routes the persister's write outcomes into q.
func AttachRetries(p *gamification.Persister, q *RetryQueue) {
	p.OnSaveError = func(rev gamification.Revision, err error) {
		metrics.PersistWrites.WithLabelValues("error").Inc()
		if !q.ScheduleRetry(rev, err) {
			log.Printf("[persist] giving up on snapshot xp=%d after repeated failures", rev.Snapshot.XP)
		}
	}
	p.OnSaved = func(gamification.Revision) {
		metrics.PersistWrites.WithLabelValues("ok").Inc()
		q.Succeeded()
	}
}

package daemon

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/squadplanner/squadxp/internal/api"
	"github.com/squadplanner/squadxp/internal/app/gamification"
	"github.com/squadplanner/squadxp/internal/health"
	"github.com/squadplanner/squadxp/internal/infra/metrics"
	"github.com/squadplanner/squadxp/internal/infra/remote"
	"github.com/squadplanner/squadxp/internal/infra/scheduler"
	"github.com/squadplanner/squadxp/internal/infra/sqlite"
	"github.com/squadplanner/squadxp/internal/ws"
)

const profileIDKey = "profile_id"

// Daemon is the squadxp runtime. It wires together all services.
type Daemon struct {
	Config    Config
	ProfileID string
	DB        *sqlite.DB
	Engine    *gamification.Engine
	Persister *gamification.Persister
	Retries   *scheduler.RetryQueue
	Remote    *remote.Store // nil when remote sync is disabled
	Health    *health.Checker
	Feed      *ws.Broadcaster
	Server    *api.Server
	cancel    context.CancelFunc
	written   chan struct{} // closed when the snapshot writer exits
	closeOnce sync.Once
}

// New creates and initializes a Daemon with all services wired.
func New() (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return NewWithConfig(cfg)
}

// NewWithConfig creates a Daemon with the given configuration and runs the
// boot sequence: open the store, build the engine at defaults, restore the
// persisted snapshot, then pull the remote profile when enabled.
func NewWithConfig(cfg Config) (*Daemon, error) {
	// Open SQLite
	db, err := sqlite.Open(cfg.Storage.Dir)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	profileID, err := resolveProfileID(db, cfg.Profile.ID)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("profile id: %w", err)
	}

	d := &Daemon{
		Config:    cfg,
		ProfileID: profileID,
		DB:        db,
		Engine:    gamification.New(),
	}
	d.Engine.Subscribe(metrics.NewObserver())

	// Persistence: restore first, then follow changes
	d.Persister = gamification.NewPersister(db, cfg.Profile.Namespace)
	d.Retries = scheduler.NewRetryQueue(scheduler.RetryConfig{
		MaxRetries: cfg.Persist.MaxRetries,
		BaseDelay:  parseDuration(cfg.Persist.BaseDelay, time.Second),
		MaxDelay:   parseDuration(cfg.Persist.MaxDelay, time.Minute),
	})
	scheduler.AttachRetries(d.Persister, d.Retries)
	if err := d.Persister.Restore(d.Engine); err != nil {
		log.Printf("[daemon] WARNING: %v (running unhydrated)", err)
	}
	d.Persister.Attach(d.Engine)

	// Health checker
	d.Health = health.NewChecker(db, cfg.Storage.Dir, d.Engine)

	// Remote profile (optional)
	if cfg.Remote.Enabled {
		store, err := remote.Open(cfg.Remote.DSN)
		if err != nil {
			log.Printf("[daemon] WARNING: remote profile store unavailable: %v", err)
		} else {
			d.Remote = store
			d.Health.AddCheck(health.Check{
				Name:    "remote",
				CheckFn: store.Ping,
			})
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			scheduler.SyncJob(d.Engine, store, profileID)(ctx)
			cancel()
		}
	}

	// Celebration feed + API server
	d.Feed = ws.NewBroadcaster(d.Engine, cfg.API.CORSOrigins)
	d.Engine.Subscribe(d.Feed.OnChange)

	srv := api.NewServer(d.Engine)
	srv.SetHealth(d.Health)
	srv.SetFeed(d.Feed)
	srv.SetCORSOrigins(cfg.API.CORSOrigins)
	if cfg.Telemetry.Prometheus {
		srv.EnableMetrics()
	}
	d.Server = srv

	if cfg.Logging.Level == "debug" {
		d.Engine.Subscribe(func(c gamification.Change) {
			log.Printf("[engine] %s xp=%d level=%d", c.Kind, c.State.XP, c.State.Level)
		})
	}

	return d, nil
}

// resolveProfileID returns the configured id, or the one stored in meta,
// or generates and stores a new one.
func resolveProfileID(db *sqlite.DB, configured string) (string, error) {
	if configured != "" {
		return configured, db.SetMeta(profileIDKey, configured)
	}
	id, err := db.GetMeta(profileIDKey)
	if err != nil {
		return "", err
	}
	if id != "" {
		return id, nil
	}
	id = uuid.NewString()
	return id, db.SetMeta(profileIDKey, id)
}

// Start launches the background services: snapshot writer, health loop and
// the scheduled jobs. Stopped by Close or when ctx ends.
func (d *Daemon) Start(ctx context.Context) (*scheduler.Scheduler, error) {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	d.written = make(chan struct{})
	go func() {
		defer close(d.written)
		d.Persister.Run(ctx)
	}()
	go d.Health.Run(ctx)

	sched, err := scheduler.New()
	if err != nil {
		return nil, err
	}
	retryEvery := parseDuration(d.Config.Persist.RetryInterval, time.Second)
	if err := sched.Every("persist-retry", retryEvery, scheduler.RetryJob(d.Retries, d.Persister.Requeue)); err != nil {
		return nil, err
	}
	if d.Remote != nil {
		syncEvery := parseDuration(d.Config.Remote.SyncInterval, 5*time.Minute)
		if err := sched.Every("remote-sync", syncEvery, scheduler.SyncJob(d.Engine, d.Remote, d.ProfileID)); err != nil {
			return nil, err
		}
	}
	sched.Start()
	return sched, nil
}

// Serve starts the HTTP server and blocks until shutdown.
func (d *Daemon) Serve(ctx context.Context) error {
	sched, err := d.Start(ctx)
	if err != nil {
		return fmt.Errorf("start services: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port)

	httpServer := &http.Server{
		Addr:        addr,
		Handler:     d.Server.Handler(),
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 2 * time.Minute,
	}

	// Graceful shutdown on signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	failed := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		select {
		case <-sigCh:
		case <-ctx.Done():
		case <-failed:
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		_ = httpServer.Shutdown(shutdownCtx)
		_ = sched.Shutdown()
		d.Close()
	}()

	fmt.Printf("squadxp serving on http://%s (profile %s)\n", addr, d.ProfileID)
	if d.Remote != nil {
		fmt.Printf("  Remote sync: every %s\n", d.Config.Remote.SyncInterval)
	}
	if d.Config.Telemetry.Prometheus {
		fmt.Printf("  Metrics: http://%s/metrics\n", addr)
	}

	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		close(failed)
		<-done
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	<-done
	return nil
}

// Close flushes the latest snapshot and shuts down all daemon resources.
// Safe to call more than once.
func (d *Daemon) Close() {
	d.closeOnce.Do(func() {
		if d.cancel != nil {
			d.cancel()
		}
		if d.written != nil {
			<-d.written
		}
		if d.Persister != nil {
			_ = d.Persister.Flush()
		}
		if d.Remote != nil {
			_ = d.Remote.Close()
		}
		if d.DB != nil {
			_ = d.DB.Close()
		}
	})
}

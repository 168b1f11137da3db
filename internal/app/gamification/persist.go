package gamification

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/squadplanner/squadxp/internal/domain"
)

// SnapshotStore is the durable storage boundary.
// LoadSnapshot returns domain.ErrSnapshotNotFound when nothing is stored.
type SnapshotStore interface {
	SaveSnapshot(namespace string, snap domain.Snapshot) error
	LoadSnapshot(namespace string) (*domain.Snapshot, error)
}

// Revision is a snapshot tagged with the commit sequence it was taken at.
type Revision struct {
	Seq      uint64
	Snapshot domain.Snapshot
}

// Persister restores an Engine at boot and writes its snapshot behind every
// change. Writes are fire-and-forget: a failed write is reported through
// OnSaveError and never touches the in-memory state. Only the newest
// snapshot is ever written; intermediate ones are coalesced, and a revision
// older than one already accepted is never written.
type Persister struct {
	store     SnapshotStore
	namespace string

	// OnSaveError is called after a failed write. Optional.
	OnSaveError func(rev Revision, err error)
	// OnSaved is called after a successful write. Optional.
	OnSaved func(rev Revision)

	mu     sync.Mutex
	latest *Revision
	newest uint64 // highest Seq accepted, queued or written
	wake   chan struct{}
}

// NewPersister creates a persister writing under namespace.
func NewPersister(store SnapshotStore, namespace string) *Persister {
	if namespace == "" {
		namespace = domain.SnapshotNamespace
	}
	return &Persister{
		store:     store,
		namespace: namespace,
		wake:      make(chan struct{}, 1),
	}
}

// Namespace returns the storage key in use.
func (p *Persister) Namespace() string { return p.namespace }

// Restore performs the second boot phase: read the stored snapshot and load
// it, or mark the engine hydrated when nothing is stored. A read error leaves
// the engine at defaults and unhydrated.
func (p *Persister) Restore(e *Engine) error {
	snap, err := p.store.LoadSnapshot(p.namespace)
	if errors.Is(err, domain.ErrSnapshotNotFound) {
		e.MarkHydrated()
		return nil
	}
	if err != nil {
		return fmt.Errorf("restore %s: %w", p.namespace, err)
	}
	e.Load(snap)
	return nil
}

// Attach subscribes the persister to the engine's changes. Writes happen in
// Run; without a running loop, call Flush.
func (p *Persister) Attach(e *Engine) {
	e.Subscribe(func(c Change) {
		if c.Kind == ChangeLoad {
			return
		}
		p.enqueue(Revision{Seq: c.Seq, Snapshot: c.State.Snapshot()})
	})
}

// Run writes queued snapshots until ctx is cancelled, then flushes once.
func (p *Persister) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			_ = p.Flush()
			return
		case <-p.wake:
			_ = p.Flush()
		}
	}
}

// Flush writes the newest queued snapshot, if any.
func (p *Persister) Flush() error {
	p.mu.Lock()
	rev := p.latest
	p.latest = nil
	p.mu.Unlock()

	if rev == nil {
		return nil
	}
	return p.save(*rev)
}

// Requeue schedules a failed revision for another write through Run. It is
// dropped when a newer revision has been queued or written since.
func (p *Persister) Requeue(rev Revision) {
	p.mu.Lock()
	if p.latest != nil || rev.Seq < p.newest {
		p.mu.Unlock()
		return
	}
	p.latest = &rev
	p.mu.Unlock()
	p.signal()
}

func (p *Persister) save(rev Revision) error {
	if err := p.store.SaveSnapshot(p.namespace, rev.Snapshot); err != nil {
		err = fmt.Errorf("save %s: %w", p.namespace, err)
		log.Printf("[persist] %v", err)
		if p.OnSaveError != nil {
			p.OnSaveError(rev, err)
		}
		return err
	}
	if p.OnSaved != nil {
		p.OnSaved(rev)
	}
	return nil
}

func (p *Persister) enqueue(rev Revision) {
	p.mu.Lock()
	if rev.Seq <= p.newest {
		p.mu.Unlock()
		return
	}
	p.newest = rev.Seq
	p.latest = &rev
	p.mu.Unlock()
	p.signal()
}

func (p *Persister) signal() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

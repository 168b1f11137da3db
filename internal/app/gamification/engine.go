// Package gamification implements the squadxp gamification engine:
// XP ledger, level resolution, activity stats, achievements, celebration
// slots and the ratchet merge against the remote profile.
//
// The Engine is explicitly constructed and owned by its caller. Every public
// operation is one critical section over the whole state; listeners observe
// an immutable copy after the lock is released.
package gamification

import (
	"slices"
	"sync"

	"github.com/squadplanner/squadxp/internal/domain"
)

// ChangeKind tells listeners which operation produced a Change.
type ChangeKind string

const (
	ChangeXP      ChangeKind = "xp"
	ChangeStat    ChangeKind = "stat"
	ChangeDismiss ChangeKind = "dismiss"
	ChangeSync    ChangeKind = "sync"
	ChangeLoad    ChangeKind = "load"
)

// Award describes the effect of one AddXP call.
type Award struct {
	Action    domain.Action       `json:"action"`
	Reward    int64               `json:"reward"`
	Bonus     int64               `json:"bonus"`
	XP        int64               `json:"xp"`
	FromLevel int                 `json:"from_level"`
	ToLevel   int                 `json:"to_level"`
	LeveledUp bool                `json:"leveled_up"`
	Unlocked  *domain.Achievement `json:"unlocked,omitempty"`
}

// Change is delivered to listeners after a state mutation.
// Seq is assigned under the engine lock and increases with every commit.
// Listeners run outside the lock, so two changes may arrive out of order;
// compare Seq before acting on State.
type Change struct {
	Seq   uint64
	Kind  ChangeKind
	Award *Award // set for ChangeXP
	State domain.State
}

// Listener reacts to committed changes. It must not call back into the
// Engine synchronously with expectations about ordering.
type Listener func(Change)

// LatestFilter passes only changes newer than any it has already passed.
// The zero value is ready to use.
type LatestFilter struct {
	mu   sync.Mutex
	last uint64
}

// Fresh reports whether c is newer than every change seen so far, and
// records it when it is.
func (f *LatestFilter) Fresh(c Change) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.Seq <= f.last {
		return false
	}
	f.last = c.Seq
	return true
}

// Engine holds one profile's gamification state.
type Engine struct {
	mu        sync.Mutex
	state     domain.State
	seq       uint64
	listeners []Listener
}

// New returns an engine at defaults: 0 XP, level 1, no stats, not hydrated.
func New() *Engine {
	return &Engine{state: defaultState()}
}

func defaultState() domain.State {
	return domain.State{
		XP:                   0,
		Level:                1,
		Stats:                domain.Stats{Level: 1},
		UnlockedAchievements: []string{},
	}
}

// Subscribe registers a listener for committed changes.
func (e *Engine) Subscribe(l Listener) {
	e.mu.Lock()
	e.listeners = append(e.listeners, l)
	e.mu.Unlock()
}

// ─── Boot ───────────────────────────────────────────────────────────────────

// Load overlays a persisted snapshot and marks the engine hydrated.
// The snapshot is normalized so the state invariants hold: negative XP is
// floored at 0, the level is re-derived from XP, duplicate ids are dropped
// and BestStreak is raised to CurrentStreak. Loading the same snapshot twice
// yields the same state. A nil snapshot only marks the engine hydrated.
func (e *Engine) Load(snap *domain.Snapshot) {
	e.mu.Lock()
	if snap != nil {
		xp := max(snap.XP, 0)
		level := ResolveLevel(xp)

		stats := snap.Stats
		stats.Level = level
		if stats.BestStreak < stats.CurrentStreak {
			stats.BestStreak = stats.CurrentStreak
		}

		unlocked := make([]string, 0, len(snap.UnlockedAchievements))
		for _, id := range snap.UnlockedAchievements {
			if id != "" && !slices.Contains(unlocked, id) {
				unlocked = append(unlocked, id)
			}
		}

		e.state.XP = xp
		e.state.Level = level
		e.state.Stats = stats
		e.state.UnlockedAchievements = unlocked
	}
	e.state.Hydrated = true
	e.commit(Change{Kind: ChangeLoad})
}

// MarkHydrated records that storage was read and held nothing to restore.
func (e *Engine) MarkHydrated() {
	e.Load(nil)
}

// Hydrated reports whether the boot load has completed.
func (e *Engine) Hydrated() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Hydrated
}

// ─── XP Ledger ──────────────────────────────────────────────────────────────

// AddXP applies an action's reward. Unknown actions are ignored and report
// false. Only one level crossing is checked per call, against XP before any
// achievement bonus, and at most one achievement unlocks.
func (e *Engine) AddXP(action domain.Action) (Award, bool) {
	reward, ok := RewardFor(action)
	if !ok {
		return Award{}, false
	}

	e.mu.Lock()
	s := &e.state

	newXP := s.XP + reward
	newLevel := ResolveLevel(newXP)
	leveledUp := newLevel > s.Level

	stats := s.Stats
	stats.Level = newLevel

	award := Award{
		Action:    action,
		Reward:    reward,
		FromLevel: s.Level,
		ToLevel:   newLevel,
		LeveledUp: leveledUp,
	}

	if ach := Evaluate(stats, s.UnlockedAchievements); ach != nil {
		s.UnlockedAchievements = append(s.UnlockedAchievements, ach.ID)
		s.PendingAchievement = ach
		award.Unlocked = ach
		award.Bonus = ach.XPBonus
	}

	if leveledUp {
		s.PendingLevelUp = &domain.PendingLevelUp{From: s.Level, To: newLevel}
	}

	s.XP = newXP + award.Bonus
	s.Level = newLevel
	s.Stats = stats
	award.XP = s.XP

	e.commit(Change{Kind: ChangeXP, Award: &award})
	return award, true
}

// ─── Stats Tracker ──────────────────────────────────────────────────────────

// IncrementStat adds amount to a counter. Raising CurrentStreak past
// BestStreak raises BestStreak with it. Never grants XP and never evaluates
// achievements. Unknown names, the mirrored level field and negative
// BestStreak adjustments are ignored and report false.
func (e *Engine) IncrementStat(name domain.StatName, amount int) bool {
	e.mu.Lock()
	stats := e.state.Stats
	counter := stats.Counter(name)
	if counter == nil || (name == domain.StatBestStreak && amount < 0) {
		e.mu.Unlock()
		return false
	}

	*counter += amount
	if name == domain.StatCurrentStreak && stats.CurrentStreak > stats.BestStreak {
		stats.BestStreak = stats.CurrentStreak
	}
	e.state.Stats = stats

	e.commit(Change{Kind: ChangeStat})
	return true
}

// ─── Notification Queue ─────────────────────────────────────────────────────

// DismissLevelUp clears the pending level-up slot.
func (e *Engine) DismissLevelUp() {
	e.mu.Lock()
	if e.state.PendingLevelUp == nil {
		e.mu.Unlock()
		return
	}
	e.state.PendingLevelUp = nil
	e.commit(Change{Kind: ChangeDismiss})
}

// DismissAchievement clears the pending achievement slot.
func (e *Engine) DismissAchievement() {
	e.mu.Lock()
	if e.state.PendingAchievement == nil {
		e.mu.Unlock()
		return
	}
	e.state.PendingAchievement = nil
	e.commit(Change{Kind: ChangeDismiss})
}

// PendingLevelUp returns the undismissed level-up, if any.
func (e *Engine) PendingLevelUp() *domain.PendingLevelUp {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.PendingLevelUp == nil {
		return nil
	}
	p := *e.state.PendingLevelUp
	return &p
}

// PendingAchievement returns the undismissed achievement, if any.
func (e *Engine) PendingAchievement() *domain.Achievement {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.PendingAchievement == nil {
		return nil
	}
	a := *e.state.PendingAchievement
	return &a
}

// ─── DB Reconciliation ──────────────────────────────────────────────────────

// SyncFromDB folds the remote profile into local state without ever moving
// XP backwards. The remote is adopted only when it is ahead, or when local
// XP is still 0 (first load). A positive remote level is trusted; otherwise
// the level is derived from the remote XP. Unlocked achievements, pending
// slots and activity counters are never touched. Reports whether the remote
// was adopted.
func (e *Engine) SyncFromDB(remote domain.RemoteProfile) bool {
	var remoteXP int64
	if remote.XP != nil {
		remoteXP = max(*remote.XP, 0)
	}
	remoteLevel := 0
	if remote.Level != nil {
		remoteLevel = *remote.Level
	}

	e.mu.Lock()
	if !(remoteXP > e.state.XP || e.state.XP == 0) {
		e.mu.Unlock()
		return false
	}

	level := remoteLevel
	if level <= 0 {
		level = ResolveLevel(remoteXP)
	}
	e.state.XP = remoteXP
	e.state.Level = level
	e.state.Stats.Level = level

	e.commit(Change{Kind: ChangeSync})
	return true
}

// ─── Read Views ─────────────────────────────────────────────────────────────

// Progress returns the within-level progress bar.
func (e *Engine) Progress() domain.Progress {
	e.mu.Lock()
	xp, level := e.state.XP, e.state.Level
	e.mu.Unlock()
	return ComputeProgress(xp, level)
}

// LevelTitle returns the title for the current level.
func (e *Engine) LevelTitle() string {
	e.mu.Lock()
	level := e.state.Level
	e.mu.Unlock()
	return Title(level)
}

// State returns a copy of the full state.
func (e *Engine) State() domain.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Snapshot returns the persistable subset of the state.
func (e *Engine) Snapshot() domain.Snapshot {
	return e.State().Snapshot()
}

// Catalogue returns the achievement catalogue with this profile's unlock flags.
func (e *Engine) Catalogue() []domain.AchievementStatus {
	e.mu.Lock()
	unlocked := slices.Clone(e.state.UnlockedAchievements)
	e.mu.Unlock()
	return Catalogue(unlocked)
}

// ─── Internals ──────────────────────────────────────────────────────────────

func (e *Engine) snapshotLocked() domain.State {
	st := e.state
	st.UnlockedAchievements = slices.Clone(e.state.UnlockedAchievements)
	if e.state.PendingLevelUp != nil {
		p := *e.state.PendingLevelUp
		st.PendingLevelUp = &p
	}
	if e.state.PendingAchievement != nil {
		a := *e.state.PendingAchievement
		st.PendingAchievement = &a
	}
	return st
}

// commit copies the state, releases the lock and notifies listeners.
// Must be called with e.mu held.
func (e *Engine) commit(c Change) {
	e.seq++
	c.Seq = e.seq
	c.State = e.snapshotLocked()
	listeners := slices.Clone(e.listeners)
	e.mu.Unlock()

	for _, l := range listeners {
		l(c)
	}
}

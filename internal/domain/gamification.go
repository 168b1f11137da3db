// Package domain holds the gamification types.
// XP, levels, activity stats, achievements and the celebration slots that the
// presentation layer reads. Pure data, no infrastructure dependency.
package domain

// ─── Actions ────────────────────────────────────────────────────────────────

// Action names an XP-granting activity ("session.create", "message.send").
type Action string

// ─── Stats ──────────────────────────────────────────────────────────────────

// StatName identifies one activity counter in Stats.
type StatName string

const (
	StatSessionsCreated     StatName = "sessionsCreated"
	StatSessionsAttended    StatName = "sessionsAttended"
	StatSquadsCreated       StatName = "squadsCreated"
	StatSquadsJoined        StatName = "squadsJoined"
	StatMessagesSent        StatName = "messagesSent"
	StatVoiceMinutes        StatName = "voiceMinutes"
	StatNightSessions       StatName = "nightSessions"
	StatConsecutiveAttended StatName = "consecutiveAttended"
	StatCurrentStreak       StatName = "currentStreak"
	StatBestStreak          StatName = "bestStreak"
	StatReferrals           StatName = "referrals"
	StatInvitesSent         StatName = "invitesSent"
)

// CounterStats lists every incrementable counter in declaration order.
// The mirrored Level field is not a counter.
var CounterStats = []StatName{
	StatSessionsCreated,
	StatSessionsAttended,
	StatSquadsCreated,
	StatSquadsJoined,
	StatMessagesSent,
	StatVoiceMinutes,
	StatNightSessions,
	StatConsecutiveAttended,
	StatCurrentStreak,
	StatBestStreak,
	StatReferrals,
	StatInvitesSent,
}

// Stats is the cumulative activity snapshot fed to achievement predicates.
// Invariant: BestStreak >= CurrentStreak.
type Stats struct {
	SessionsCreated     int `json:"sessions_created"`
	SessionsAttended    int `json:"sessions_attended"`
	SquadsCreated       int `json:"squads_created"`
	SquadsJoined        int `json:"squads_joined"`
	MessagesSent        int `json:"messages_sent"`
	VoiceMinutes        int `json:"voice_minutes"`
	NightSessions       int `json:"night_sessions"`
	ConsecutiveAttended int `json:"consecutive_attended"`
	CurrentStreak       int `json:"current_streak"`
	BestStreak          int `json:"best_streak"`
	Referrals           int `json:"referrals"`
	InvitesSent         int `json:"invites_sent"`
	Level               int `json:"level"` // mirrors the engine level
}

// Counter returns a pointer to the named counter, or nil for unknown names.
func (s *Stats) Counter(name StatName) *int {
	switch name {
	case StatSessionsCreated:
		return &s.SessionsCreated
	case StatSessionsAttended:
		return &s.SessionsAttended
	case StatSquadsCreated:
		return &s.SquadsCreated
	case StatSquadsJoined:
		return &s.SquadsJoined
	case StatMessagesSent:
		return &s.MessagesSent
	case StatVoiceMinutes:
		return &s.VoiceMinutes
	case StatNightSessions:
		return &s.NightSessions
	case StatConsecutiveAttended:
		return &s.ConsecutiveAttended
	case StatCurrentStreak:
		return &s.CurrentStreak
	case StatBestStreak:
		return &s.BestStreak
	case StatReferrals:
		return &s.Referrals
	case StatInvitesSent:
		return &s.InvitesSent
	}
	return nil
}

// ─── Achievements ───────────────────────────────────────────────────────────

// Achievement is a one-time milestone. Condition must be a pure function of
// the stats snapshot.
type Achievement struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Icon        string           `json:"icon"`
	XPBonus     int64            `json:"xp_bonus"`
	Condition   func(Stats) bool `json:"-"`
}

// AchievementStatus pairs a catalogue entry with the profile's unlock state.
type AchievementStatus struct {
	Achievement
	Unlocked bool `json:"unlocked"`
}

// ─── Celebration Slots ──────────────────────────────────────────────────────

// PendingLevelUp records an undismissed level crossing.
type PendingLevelUp struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// ─── Views ──────────────────────────────────────────────────────────────────

// Progress is the within-level progress bar view.
type Progress struct {
	Current int64   `json:"current"`
	Needed  int64   `json:"needed"`
	Percent float64 `json:"percent"`
}

// State is a read-only copy of the full engine state.
type State struct {
	XP                   int64           `json:"xp"`
	Level                int             `json:"level"`
	Stats                Stats           `json:"stats"`
	UnlockedAchievements []string        `json:"unlocked_achievements"`
	PendingLevelUp       *PendingLevelUp `json:"pending_level_up,omitempty"`
	PendingAchievement   *Achievement    `json:"pending_achievement,omitempty"`
	Hydrated             bool            `json:"hydrated"`
}

// Snapshot returns the persistable subset of the state.
func (s State) Snapshot() Snapshot {
	unlocked := make([]string, len(s.UnlockedAchievements))
	copy(unlocked, s.UnlockedAchievements)
	return Snapshot{
		XP:                   s.XP,
		Level:                s.Level,
		Stats:                s.Stats,
		UnlockedAchievements: unlocked,
	}
}

// ─── Persistence / Remote ───────────────────────────────────────────────────

// SnapshotNamespace is the fixed storage key for the persisted snapshot.
const SnapshotNamespace = "squadplanner-gamification"

// Snapshot is the durable shape of the engine state.
type Snapshot struct {
	XP                   int64    `json:"xp"`
	Level                int      `json:"level"`
	Stats                Stats    `json:"stats"`
	UnlockedAchievements []string `json:"unlocked_achievements"`
}

// RemoteProfile is the authoritative profile row. Nil fields are missing.
type RemoteProfile struct {
	XP    *int64 `json:"xp,omitempty"`
	Level *int   `json:"level,omitempty"`
}

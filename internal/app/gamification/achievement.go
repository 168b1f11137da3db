package gamification

import (
	"slices"

	"github.com/squadplanner/squadxp/internal/domain"
)

// registry is the compiled-in achievement catalogue. Order matters: when
// several conditions become true in one update, the earliest entry wins.
var registry = []domain.Achievement{
	{
		ID: "first-session", Name: "Première session",
		Description: "Crée ta première session de jeu", Icon: "🎮", XPBonus: 50,
		Condition: func(s domain.Stats) bool { return s.SessionsCreated >= 1 },
	},
	{
		ID: "squad-leader", Name: "Leader né",
		Description: "Crée 3 squads", Icon: "👑", XPBonus: 100,
		Condition: func(s domain.Stats) bool { return s.SquadsCreated >= 3 },
	},
	{
		ID: "social-butterfly", Name: "Papillon social",
		Description: "Envoie 100 messages", Icon: "🦋", XPBonus: 75,
		Condition: func(s domain.Stats) bool { return s.MessagesSent >= 100 },
	},
	{
		ID: "night-owl", Name: "Oiseau de nuit",
		Description: "Participe à 5 sessions après 22h", Icon: "🦉", XPBonus: 60,
		Condition: func(s domain.Stats) bool { return s.NightSessions >= 5 },
	},
	{
		ID: "reliable", Name: "Fiable à 100%",
		Description: "Participe à 10 sessions consécutives confirmées", Icon: "💎", XPBonus: 150,
		Condition: func(s domain.Stats) bool { return s.ConsecutiveAttended >= 10 },
	},
	{
		ID: "voice-veteran", Name: "Vétéran vocal",
		Description: "Passe 5h en appel vocal", Icon: "🎙️", XPBonus: 100,
		Condition: func(s domain.Stats) bool { return s.VoiceMinutes >= 300 },
	},
	{
		ID: "week-warrior", Name: "Guerrier de la semaine",
		Description: "Joue 7 jours consécutifs", Icon: "⚔️", XPBonus: 75,
		Condition: func(s domain.Stats) bool { return s.CurrentStreak >= 7 },
	},
	{
		ID: "centurion", Name: "Centurion",
		Description: "Atteins le niveau 10", Icon: "🏛️", XPBonus: 200,
		Condition: func(s domain.Stats) bool { return s.Level >= 10 },
	},
	{
		ID: "ambassador", Name: "Ambassadeur",
		Description: "Invite 5 amis qui rejoignent", Icon: "🌟", XPBonus: 250,
		Condition: func(s domain.Stats) bool { return s.Referrals >= 5 },
	},
	{
		ID: "marathon", Name: "Marathonien",
		Description: "Participe à 50 sessions", Icon: "🏃", XPBonus: 200,
		Condition: func(s domain.Stats) bool { return s.SessionsAttended >= 50 },
	},
}

// Achievements returns a copy of the catalogue in declaration order.
func Achievements() []domain.Achievement {
	return slices.Clone(registry)
}

// AchievementByID looks up a catalogue entry.
func AchievementByID(id string) (domain.Achievement, bool) {
	for _, a := range registry {
		if a.ID == id {
			return a, true
		}
	}
	return domain.Achievement{}, false
}

// Evaluate returns the first achievement, in catalogue order, that is not in
// unlocked and whose condition holds for stats. Returns nil when none
// qualifies. At most one achievement surfaces per call; the rest are picked
// up by later calls.
func Evaluate(stats domain.Stats, unlocked []string) *domain.Achievement {
	for i := range registry {
		def := registry[i]
		if slices.Contains(unlocked, def.ID) {
			continue
		}
		if def.Condition != nil && def.Condition(stats) {
			return &def
		}
	}
	return nil
}

// Catalogue returns every achievement with its unlock flag, for badge views.
func Catalogue(unlocked []string) []domain.AchievementStatus {
	out := make([]domain.AchievementStatus, len(registry))
	for i, a := range registry {
		out[i] = domain.AchievementStatus{
			Achievement: a,
			Unlocked:    slices.Contains(unlocked, a.ID),
		}
	}
	return out
}

package gamification

import (
	"sort"

	"github.com/squadplanner/squadxp/internal/domain"
)

const (
	ActionSessionCreate   domain.Action = "session.create"
	ActionSessionRSVP     domain.Action = "session.rsvp"
	ActionSessionAttend   domain.Action = "session.attend"
	ActionSessionComplete domain.Action = "session.complete"
	ActionSquadCreate     domain.Action = "squad.create"
	ActionSquadJoin       domain.Action = "squad.join"
	ActionSquadInvite     domain.Action = "squad.invite"
	ActionMessageSend     domain.Action = "message.send"
	ActionMessageFirstDay domain.Action = "message.first_of_day"
	ActionVoiceJoin       domain.Action = "voice.join"
	ActionVoiceTenMinutes domain.Action = "voice.10min"
	ActionProfileComplete domain.Action = "profile.complete"
	ActionProfileAvatar   domain.Action = "profile.avatar"
	ActionStreakDay       domain.Action = "streak.day"
	ActionStreakWeek      domain.Action = "streak.week"
	ActionReferralSuccess domain.Action = "referral.success"
	ActionDiscoverBrowse  domain.Action = "discover.browse"
	ActionInviteSend      domain.Action = "invite.send"
)

// rewards is the XP economy. Values are tuned together; change with care.
var rewards = map[domain.Action]int64{
	ActionSessionCreate:   25,
	ActionSessionRSVP:     15,
	ActionSessionAttend:   30,
	ActionSessionComplete: 20,
	ActionSquadCreate:     50,
	ActionSquadJoin:       20,
	ActionSquadInvite:     10,
	ActionMessageSend:     2,
	ActionMessageFirstDay: 10,
	ActionVoiceJoin:       15,
	ActionVoiceTenMinutes: 25,
	ActionProfileComplete: 50,
	ActionProfileAvatar:   20,
	ActionStreakDay:       15,
	ActionStreakWeek:      50,
	ActionReferralSuccess: 100,
	ActionDiscoverBrowse:  5,
	ActionInviteSend:      5,
}

// RewardFor returns the XP reward for an action and whether it is known.
func RewardFor(action domain.Action) (int64, bool) {
	r, ok := rewards[action]
	return r, ok
}

// ActionReward is one row of the reward table.
type ActionReward struct {
	Action domain.Action `json:"action"`
	XP     int64         `json:"xp"`
}

// Rewards returns the reward table sorted by action name.
func Rewards() []ActionReward {
	out := make([]ActionReward, 0, len(rewards))
	for a, xp := range rewards {
		out = append(out, ActionReward{Action: a, XP: xp})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Action < out[j].Action })
	return out
}

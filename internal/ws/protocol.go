package ws

import "github.com/squadplanner/squadxp/internal/domain"

// MessageType tags a websocket frame.
type MessageType string

const (
	MsgState       MessageType = "state"
	MsgLevelUp     MessageType = "level_up"
	MsgAchievement MessageType = "achievement"
)

// WSMessage is the envelope for every frame.
type WSMessage struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload"`
}

// StatePayload carries the full state plus the derived views.
type StatePayload struct {
	State    domain.State    `json:"state"`
	Title    string          `json:"title"`
	Progress domain.Progress `json:"progress"`
}

// LevelUpPayload announces a level crossing.
type LevelUpPayload struct {
	From  int    `json:"from"`
	To    int    `json:"to"`
	Title string `json:"title"`
}

// AchievementPayload announces an unlock.
type AchievementPayload struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	XPBonus     int64  `json:"xp_bonus"`
}

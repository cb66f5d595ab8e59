package domain

import "time"

type EventType string

const (
	EventLevelUp            EventType = "level_up"
	EventBadgeGranted       EventType = "badge_granted"
	EventQuestClaimed       EventType = "quest_claimed"
	EventSpin               EventType = "spin"
	EventChallengeCompleted EventType = "challenge_completed"
	EventPremium            EventType = "premium"
)

// Event is a reward notification addressed to one user.
type Event struct {
	Type    EventType   `json:"type"`
	UserID  int64       `json:"userId"`
	Payload interface{} `json:"payload,omitempty"`
	At      time.Time   `json:"at"`
}

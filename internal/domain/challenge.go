package domain

import (
	"strings"
	"time"
)

// Challenge is a challenge template. Type names the exercise unit.
type Challenge struct {
	ID       int64  `db:"id" json:"id"`
	Type     string `db:"type" json:"type"`
	Value    int64  `db:"value" json:"value"`
	Unit     string `db:"unit" json:"unit"`
	Duration int    `db:"duration" json:"duration"`
}

// InviteState is the stored status of a challenge invite.
// Expiry is derived from ExpiresAt and is not a state of its own.
type InviteState string

const (
	InvitePending   InviteState = "pending"
	InviteAccepted  InviteState = "accepted"
	InviteRejected  InviteState = "rejected"
	InviteCompleted InviteState = "completed"
)

// Duration units accepted on invites. Anything else counts as days.
const (
	UnitDays   = "days"
	UnitWeeks  = "weeks"
	UnitMonths = "months"
)

type ChallengeInvite struct {
	ID                  int64       `db:"id" json:"id"`
	ChallengeID         int64       `db:"challenge_id" json:"challenge_id"`
	SenderID            int64       `db:"sender_id" json:"sender_id"`
	ReceiverID          int64       `db:"receiver_id" json:"receiver_id"`
	CustomValue         *int64      `db:"custom_value" json:"custom_value,omitempty"`
	CustomDurationValue *int        `db:"custom_duration_value" json:"custom_duration_value,omitempty"`
	CustomDurationUnit  *string     `db:"custom_duration_unit" json:"custom_duration_unit,omitempty"`
	Status              InviteState `db:"status" json:"status"`
	AcceptedAt          *time.Time  `db:"accepted_at" json:"accepted_at,omitempty"`
	ExpiresAt           *time.Time  `db:"expires_at" json:"expires_at,omitempty"`
	CompletedAt         *time.Time  `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt           time.Time   `db:"created_at" json:"created_at"`

	// Template fields joined in for convenience.
	Challenge Challenge `json:"challenge"`
}

// State folds the stored status and completion timestamp into one variant.
func (i *ChallengeInvite) State() InviteState {
	if i.CompletedAt != nil {
		return InviteCompleted
	}
	return i.Status
}

// ActiveAt reports whether the invite still accepts progress at now.
func (i *ChallengeInvite) ActiveAt(now time.Time) bool {
	if i.State() != InviteAccepted {
		return false
	}
	return i.ExpiresAt == nil || i.ExpiresAt.After(now)
}

// Target is the custom value when set, otherwise the template value.
func (i *ChallengeInvite) Target() int64 {
	if i.CustomValue != nil && *i.CustomValue > 0 {
		return *i.CustomValue
	}
	return i.Challenge.Value
}

// DurationSpec returns the effective duration value and unit.
func (i *ChallengeInvite) DurationSpec() (int, string) {
	value := i.Challenge.Duration
	if i.CustomDurationValue != nil && *i.CustomDurationValue > 0 {
		value = *i.CustomDurationValue
	}
	unit := UnitDays
	if i.CustomDurationUnit != nil && *i.CustomDurationUnit != "" {
		unit = *i.CustomDurationUnit
	}
	return value, unit
}

// ChallengeExpiry computes when a challenge accepted at acceptedAt ends.
func ChallengeExpiry(acceptedAt time.Time, value int, unit string) time.Time {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case UnitMonths:
		return acceptedAt.AddDate(0, value, 0)
	case UnitWeeks:
		return acceptedAt.Add(time.Duration(value) * 7 * 24 * time.Hour)
	default:
		return acceptedAt.Add(time.Duration(value) * 24 * time.Hour)
	}
}

type ChallengeProgress struct {
	InviteID      int64 `db:"challenge_invite_id" json:"invite_id"`
	UserID        int64 `db:"user_id" json:"user_id"`
	ProgressValue int64 `db:"progress_value" json:"progress_value"`
}

// PickWinner returns the participant with the highest progress at or above
// target. Ties keep the first row.
func PickWinner(rows []ChallengeProgress, target int64) (winner ChallengeProgress, loser *ChallengeProgress, ok bool) {
	best := -1
	for i, row := range rows {
		if row.ProgressValue < target {
			continue
		}
		if best < 0 || row.ProgressValue > rows[best].ProgressValue {
			best = i
		}
	}
	if best < 0 {
		return ChallengeProgress{}, nil, false
	}
	winner = rows[best]
	for i := range rows {
		if rows[i].UserID != winner.UserID {
			l := rows[i]
			return winner, &l, true
		}
	}
	return winner, nil, true
}

// ChallengeOutcome reports a completion performed by one call.
type ChallengeOutcome struct {
	InviteID int64  `json:"inviteId"`
	WinnerID int64  `json:"winnerId"`
	LoserID  *int64 `json:"loserId,omitempty"`
}

// ChallengePayout is one participant's reward for a completed challenge.
type ChallengePayout struct {
	UserID int64
	Role   string
	XP     int64
	Tokens int64
}

// ChallengeStanding is one participant row of an accepted challenge.
type ChallengeStanding struct {
	InviteID    int64      `json:"inviteId"`
	Type        string     `json:"type"`
	Target      int64      `json:"target"`
	Unit        string     `json:"unit"`
	UserID      int64      `json:"userId"`
	Username    string     `json:"username"`
	Progress    int64      `json:"progress"`
	AcceptedAt  *time.Time `json:"acceptedAt,omitempty"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	IsCompleted bool       `json:"isCompleted"`
}

// Friend is a minimal view of another user.
type Friend struct {
	ID       int64  `db:"id" json:"id"`
	Username string `db:"username" json:"username"`
	Role     Role   `db:"role" json:"role"`
}

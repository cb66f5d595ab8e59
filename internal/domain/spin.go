package domain

import "time"

type PrizeType string

const (
	PrizeTokens PrizeType = "tokens"
	PrizeTrial  PrizeType = "trial"
)

// Prize is one slot on the lucky wheel. For trial prizes Value is days.
type Prize struct {
	ID       int64     `db:"id" json:"id"`
	Label    string    `db:"label" json:"label"`
	Type     PrizeType `db:"type" json:"type"`
	Value    int64     `db:"value" json:"value"`
	IsActive bool      `db:"is_active" json:"is_active"`
}

type Spin struct {
	ID         int64     `db:"id" json:"id"`
	UserID     int64     `db:"user_id" json:"user_id"`
	PrizeLabel string    `db:"prize_label" json:"prize_label"`
	PrizeType  PrizeType `db:"prize_type" json:"prize_type"`
	PrizeValue int64     `db:"prize_value" json:"prize_value"`
	Paid       bool      `db:"paid" json:"paid"`
	SpinDay    time.Time `db:"spin_day" json:"spin_day"`
	SpunAt     time.Time `db:"spun_at" json:"spun_at"`
}

type SpinResult struct {
	Prize        Prize      `json:"prize"`
	Paid         bool       `json:"paid"`
	Tokens       int64      `json:"tokens"`
	PremiumUntil *time.Time `json:"premiumUntil,omitempty"`
}

// SpinPayout is the user's state after a spin and its prize were booked.
type SpinPayout struct {
	Tokens       int64
	PremiumUntil *time.Time
}

type SpinStatus struct {
	HasSpunToday   bool       `json:"hasSpunToday"`
	NextFreeSpinAt *time.Time `json:"nextFreeSpinAt"`
}

// SpinStatusAt derives the free-spin status from the last spin time.
func SpinStatusAt(lastSpin *time.Time, now time.Time) SpinStatus {
	if lastSpin == nil || !Day(lastSpin.In(now.Location())).Equal(Day(now)) {
		return SpinStatus{}
	}
	next := NextMidnight(now)
	return SpinStatus{HasSpunToday: true, NextFreeSpinAt: &next}
}

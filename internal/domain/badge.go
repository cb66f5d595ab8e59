package domain

import "time"

// Badge ids as seeded in the badges table.
const (
	BadgeFirstWorkout  int64 = 1
	BadgeStreak7       int64 = 2
	BadgeTenWorkouts   int64 = 3
	BadgeCalories1000  int64 = 4
	BadgeFirstSpin     int64 = 5
	BadgeFirstFriend   int64 = 6
	BadgePremium       int64 = 8
	BadgeFiftyWorkouts int64 = 10
	BadgeThirtySpins   int64 = 11
	BadgeStreak30      int64 = 12
)

type Badge struct {
	ID          int64  `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description"`
}

type UserBadge struct {
	Badge
	GrantedAt time.Time `db:"granted_at" json:"granted_at"`
}

// SessionBadges returns badges earned at a total workout session count.
// Thresholds are inclusive so a missed grant is repaired on the next session.
func SessionBadges(sessions int64) []int64 {
	var ids []int64
	if sessions >= 1 {
		ids = append(ids, BadgeFirstWorkout)
	}
	if sessions >= 10 {
		ids = append(ids, BadgeTenWorkouts)
	}
	if sessions >= 50 {
		ids = append(ids, BadgeFiftyWorkouts)
	}
	return ids
}

// CalorieBadges returns badges earned at a cumulative calorie total.
func CalorieBadges(totalCalories float64) []int64 {
	if totalCalories >= 1000 {
		return []int64{BadgeCalories1000}
	}
	return nil
}

// SpinBadges returns badges earned at an exact spin count.
func SpinBadges(spins int64) []int64 {
	switch spins {
	case 1:
		return []int64{BadgeFirstSpin}
	case 30:
		return []int64{BadgeThirtySpins}
	}
	return nil
}

// StreakBadges returns badges earned at an exact login streak.
func StreakBadges(streak int) []int64 {
	switch streak {
	case 7:
		return []int64{BadgeStreak7}
	case 30:
		return []int64{BadgeStreak30}
	}
	return nil
}

package domain

import "time"

// Role is the entitlement tier stored on the user row.
type Role string

const (
	RoleUser    Role = "user"
	RolePremium Role = "premium"
)

type User struct {
	ID           int64      `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	XP           int64      `db:"xp" json:"xp"`
	Tokens       int64      `db:"tokens" json:"tokens"`
	Role         Role       `db:"role" json:"role"`
	PremiumUntil *time.Time `db:"premium_until" json:"premium_until,omitempty"`
	LoginStreak  int        `db:"login_streak" json:"login_streak"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	IsSuspended  bool       `db:"is_suspended" json:"is_suspended"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// PremiumActive reports whether premium access holds at now.
// A premium role with a missing or past expiry does not count.
func (u *User) PremiumActive(now time.Time) bool {
	return u.Role == RolePremium && u.PremiumUntil != nil && u.PremiumUntil.After(now)
}

// PremiumExpired reports whether a premium role should be reverted to user.
func (u *User) PremiumExpired(now time.Time) bool {
	return u.Role == RolePremium && (u.PremiumUntil == nil || u.PremiumUntil.Before(now))
}

// NextLoginStreak returns the streak after a login on today.
// changed is false when the user already logged in today.
func NextLoginStreak(lastLogin *time.Time, streak int, today time.Time) (next int, changed bool) {
	today = Day(today)
	if lastLogin != nil {
		last := Day(lastLogin.In(today.Location()))
		if last.Equal(today) {
			return streak, false
		}
		if last.Equal(today.AddDate(0, 0, -1)) {
			return streak + 1, true
		}
	}
	return 1, true
}

// Day truncates t to midnight of its calendar day in t's location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// NextMidnight returns the start of the calendar day after t.
func NextMidnight(t time.Time) time.Time {
	return Day(t).AddDate(0, 0, 1)
}

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	return Day(a.In(loc)).Equal(Day(b.In(loc)))
}

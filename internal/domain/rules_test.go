package domain

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"
)

func TestNextLoginStreak(t *testing.T) {
	today := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	sameDay := time.Date(2026, 3, 10, 1, 0, 0, 0, time.UTC)
	yesterday := time.Date(2026, 3, 9, 23, 0, 0, 0, time.UTC)
	older := time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		last    *time.Time
		streak  int
		want    int
		changed bool
	}{
		{"first login", nil, 0, 1, true},
		{"same day", &sameDay, 4, 4, false},
		{"consecutive", &yesterday, 6, 7, true},
		{"broken", &older, 12, 1, true},
	}
	for _, tc := range cases {
		got, changed := NextLoginStreak(tc.last, tc.streak, today)
		if got != tc.want || changed != tc.changed {
			t.Fatalf("%s: got (%d,%v) want (%d,%v)", tc.name, got, changed, tc.want, tc.changed)
		}
	}
}

func TestQuestStateOf(t *testing.T) {
	if QuestStateOf(false, false) != QuestPending {
		t.Fatalf("expected pending")
	}
	if QuestStateOf(true, false) != QuestDone {
		t.Fatalf("expected done")
	}
	if QuestStateOf(true, true) != QuestClaimed {
		t.Fatalf("expected claimed")
	}
}

func TestBadgeThresholds(t *testing.T) {
	if got := SessionBadges(0); len(got) != 0 {
		t.Fatalf("expected none got %v", got)
	}
	if got := SessionBadges(10); !reflect.DeepEqual(got, []int64{BadgeFirstWorkout, BadgeTenWorkouts}) {
		t.Fatalf("unexpected %v", got)
	}
	if got := SessionBadges(51); len(got) != 3 {
		t.Fatalf("unexpected %v", got)
	}
	if got := CalorieBadges(999.5); got != nil {
		t.Fatalf("unexpected %v", got)
	}
	if got := CalorieBadges(1000); !reflect.DeepEqual(got, []int64{BadgeCalories1000}) {
		t.Fatalf("unexpected %v", got)
	}
	if got := SpinBadges(2); got != nil {
		t.Fatalf("unexpected %v", got)
	}
	if got := SpinBadges(30); !reflect.DeepEqual(got, []int64{BadgeThirtySpins}) {
		t.Fatalf("unexpected %v", got)
	}
	if got := StreakBadges(7); !reflect.DeepEqual(got, []int64{BadgeStreak7}) {
		t.Fatalf("unexpected %v", got)
	}
	if got := StreakBadges(8); got != nil {
		t.Fatalf("unexpected %v", got)
	}
}

func TestSpinStatusAt(t *testing.T) {
	now := time.Date(2026, 5, 1, 18, 30, 0, 0, time.UTC)

	st := SpinStatusAt(nil, now)
	if st.HasSpunToday || st.NextFreeSpinAt != nil {
		t.Fatalf("unexpected %+v", st)
	}

	earlier := now.Add(-2 * time.Hour)
	st = SpinStatusAt(&earlier, now)
	if !st.HasSpunToday || st.NextFreeSpinAt == nil {
		t.Fatalf("unexpected %+v", st)
	}
	if want := time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC); !st.NextFreeSpinAt.Equal(want) {
		t.Fatalf("next free spin %v want %v", st.NextFreeSpinAt, want)
	}

	// calendar day, not a rolling window
	lastNight := time.Date(2026, 4, 30, 23, 59, 0, 0, time.UTC)
	if SpinStatusAt(&lastNight, now).HasSpunToday {
		t.Fatalf("yesterday's spin must not count")
	}
}

func TestChallengeExpiry(t *testing.T) {
	at := time.Date(2026, 1, 31, 10, 0, 0, 0, time.UTC)
	cases := []struct {
		value int
		unit  string
		want  time.Time
	}{
		{3, "days", at.Add(72 * time.Hour)},
		{2, "weeks", at.Add(14 * 24 * time.Hour)},
		{1, "Months", at.AddDate(0, 1, 0)},
		{5, "", at.Add(5 * 24 * time.Hour)},
		{5, "fortnights", at.Add(5 * 24 * time.Hour)},
	}
	for _, tc := range cases {
		if got := ChallengeExpiry(at, tc.value, tc.unit); !got.Equal(tc.want) {
			t.Fatalf("%d %s: got %v want %v", tc.value, tc.unit, got, tc.want)
		}
	}
}

func TestInviteOverrides(t *testing.T) {
	customValue := int64(80)
	customDuration := 2
	unit := "weeks"
	inv := ChallengeInvite{Challenge: Challenge{Value: 50, Duration: 7}}

	if inv.Target() != 50 {
		t.Fatalf("expected template target")
	}
	if v, u := inv.DurationSpec(); v != 7 || u != UnitDays {
		t.Fatalf("unexpected duration %d %s", v, u)
	}

	inv.CustomValue = &customValue
	inv.CustomDurationValue = &customDuration
	inv.CustomDurationUnit = &unit
	if inv.Target() != 80 {
		t.Fatalf("expected custom target")
	}
	if v, u := inv.DurationSpec(); v != 2 || u != UnitWeeks {
		t.Fatalf("unexpected duration %d %s", v, u)
	}
}

func TestInviteActiveAt(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	inv := ChallengeInvite{Status: InviteAccepted, ExpiresAt: &future}
	if !inv.ActiveAt(now) {
		t.Fatalf("expected active")
	}
	inv.ExpiresAt = &past
	if inv.ActiveAt(now) {
		t.Fatalf("expired invite must be inactive")
	}
	if inv.State() != InviteAccepted {
		t.Fatalf("expiry must not change the stored state")
	}
	inv.ExpiresAt = &future
	inv.CompletedAt = &now
	if inv.ActiveAt(now) || inv.State() != InviteCompleted {
		t.Fatalf("completed invite must be inactive")
	}
	pending := ChallengeInvite{Status: InvitePending}
	if pending.ActiveAt(now) {
		t.Fatalf("pending invite must be inactive")
	}
}

func TestPickWinner(t *testing.T) {
	rows := []ChallengeProgress{{UserID: 1, ProgressValue: 55}, {UserID: 2, ProgressValue: 10}}
	w, l, ok := PickWinner(rows, 50)
	if !ok || w.UserID != 1 || l == nil || l.UserID != 2 {
		t.Fatalf("unexpected winner %+v loser %+v", w, l)
	}

	rows = []ChallengeProgress{{UserID: 1, ProgressValue: 60}, {UserID: 2, ProgressValue: 70}}
	if w, _, _ := PickWinner(rows, 50); w.UserID != 2 {
		t.Fatalf("highest progress should win, got %d", w.UserID)
	}

	if _, _, ok := PickWinner(rows, 100); ok {
		t.Fatalf("nobody reached target")
	}

	w, l, ok = PickWinner([]ChallengeProgress{{UserID: 3, ProgressValue: 5}}, 5)
	if !ok || w.UserID != 3 || l != nil {
		t.Fatalf("single participant: %+v %+v", w, l)
	}
}

func TestStackPremium(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	tenDays := now.AddDate(0, 0, 10)
	past := now.AddDate(0, 0, -3)

	if got := StackPremium(&tenDays, now, 30); !got.Equal(now.AddDate(0, 0, 40)) {
		t.Fatalf("stacking: got %v", got)
	}
	if got := StackPremium(nil, now, 30); !got.Equal(now.AddDate(0, 0, 30)) {
		t.Fatalf("fresh: got %v", got)
	}
	if got := StackPremium(&past, now, 30); !got.Equal(now.AddDate(0, 0, 30)) {
		t.Fatalf("expired: got %v", got)
	}
	if got := StackPremium(&tenDays, now, LifetimeDays); !got.Equal(PremiumSentinel) {
		t.Fatalf("lifetime: got %v", got)
	}
}

func TestPremiumActive(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	u := User{Role: RolePremium, PremiumUntil: &future}
	if !u.PremiumActive(now) || u.PremiumExpired(now) {
		t.Fatalf("expected active premium")
	}
	u.PremiumUntil = &past
	if u.PremiumActive(now) || !u.PremiumExpired(now) {
		t.Fatalf("expected expired premium")
	}
	u.PremiumUntil = nil
	if !u.PremiumExpired(now) {
		t.Fatalf("premium without expiry is expired")
	}
}

func TestNormalizeExercise(t *testing.T) {
	cases := map[string]string{
		"Push-Ups":          "push ups",
		"  JUMPING__jacks ": "jumping jacks",
		"air\t squat":       "air squat",
		"":                  "",
	}
	for in, want := range cases {
		if got := NormalizeExercise(in); got != want {
			t.Fatalf("NormalizeExercise(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRepsDecoding(t *testing.T) {
	var sets []ExerciseSet
	data := `[{"reps":10},{"reps":"12"},{"reps":"7x"},{"reps":null},{"reps":"abc"},{}]`
	if err := json.Unmarshal([]byte(data), &sets); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	log := ExerciseLog{Sets: sets}
	if got := log.TotalReps(); got != 29 {
		t.Fatalf("expected 29 got %d", got)
	}
}

func TestTally(t *testing.T) {
	logs := []*ExerciseLog{
		{ExerciseName: "Push-Ups", Sets: []ExerciseSet{{Reps: 10}, {Reps: 15}}},
		{ExerciseName: "pushup", Sets: []ExerciseSet{{Reps: 5}}},
		{ExerciseName: "Squats", Sets: []ExerciseSet{{Reps: 20}}},
		{ExerciseName: "Jumping_Jacks", Sets: []ExerciseSet{{Reps: 30}}},
		{ExerciseName: "jump jack", Sets: []ExerciseSet{{Reps: 4}}},
		{ExerciseName: "Plank", Sets: []ExerciseSet{{Reps: 1}}},
	}
	tally := Tally(logs)

	if tally.PushUps != 30 || tally.Squats != 20 || tally.JumpingJacks != 34 {
		t.Fatalf("unexpected tally %+v", tally)
	}
	if tally.ByName["push ups"] != 25 {
		t.Fatalf("unexpected by-name total %d", tally.ByName["push ups"])
	}

	if got := tally.ForUnit("Push-Ups"); got != 30 {
		t.Fatalf("push ups unit: %d", got)
	}
	if got := tally.ForUnit("squats"); got != 20 {
		t.Fatalf("squat unit: %d", got)
	}
	if got := tally.ForUnit("jumping jacks"); got != 34 {
		t.Fatalf("jumping jack unit: %d", got)
	}
	if got := tally.ForUnit("burpees"); got != 0 {
		t.Fatalf("unknown unit: %d", got)
	}

	if got := tally.ForPattern("Push"); got != 30 {
		t.Fatalf("push pattern: %d", got)
	}
	if got := tally.ForPattern(""); got != 0 {
		t.Fatalf("empty pattern must match nothing, got %d", got)
	}
}

func TestKindOf(t *testing.T) {
	if KindOf(ErrAlreadySpun) != "AlreadySpun" {
		t.Fatalf("unexpected kind")
	}
	wrapped := &wrapErr{ErrNotEnoughTokens}
	if KindOf(wrapped) != "NotEnoughTokens" {
		t.Fatalf("unexpected wrapped kind %q", KindOf(wrapped))
	}
	if KindOf(errPlain("boom")) != KindServerError {
		t.Fatalf("plain errors are server errors")
	}
}

type wrapErr struct{ err error }

func (w *wrapErr) Error() string { return "wrapped: " + w.err.Error() }
func (w *wrapErr) Unwrap() error { return w.err }

type errPlain string

func (e errPlain) Error() string { return string(e) }

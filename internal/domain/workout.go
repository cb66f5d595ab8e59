package domain

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"
)

type WorkoutSession struct {
	SessionID      int64          `db:"session_id" json:"sessionId"`
	UserID         int64          `db:"user_id" json:"userId"`
	WorkoutID      *int64         `db:"workout_id" json:"workoutId,omitempty"`
	StartTime      time.Time      `db:"start_time" json:"startTime"`
	EndTime        *time.Time     `db:"end_time" json:"endTime,omitempty"`
	Duration       int64          `db:"duration" json:"duration"`
	CaloriesBurned float64        `db:"calories_burned" json:"caloriesBurned"`
	Notes          string         `db:"notes" json:"notes,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"createdAt"`
	Exercises      []*ExerciseLog `json:"exercises,omitempty"`
}

type ExerciseLog struct {
	LogID        int64         `db:"log_id" json:"logId"`
	SessionID    int64         `db:"session_id" json:"sessionId"`
	ExerciseKey  string        `db:"exercise_key" json:"exerciseKey"`
	ExerciseName string        `db:"exercise_name" json:"exerciseName"`
	Sets         []ExerciseSet `db:"sets_data" json:"setsData"`
	CreatedAt    time.Time     `db:"created_at" json:"createdAt"`
}

type ExerciseSet struct {
	Reps     Reps     `json:"reps"`
	Weight   *float64 `json:"weight,omitempty"`
	Duration *float64 `json:"duration,omitempty"`
}

// Reps decodes from a JSON number or a numeric string.
// Unparseable values decode as zero instead of failing the whole log.
type Reps int64

func (r *Reps) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = Reps(leadingInt(s))
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		*r = 0
		return nil
	}
	*r = Reps(int64(f))
	return nil
}

// leadingInt parses the optional sign and digits at the start of s.
func leadingInt(s string) int64 {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// TotalReps sums reps over all sets.
func (l *ExerciseLog) TotalReps() int64 {
	var total int64
	for _, s := range l.Sets {
		total += int64(s.Reps)
	}
	return total
}

var (
	separators = regexp.MustCompile(`[-_]`)
	spaces     = regexp.MustCompile(`\s+`)

	pushUpPattern      = regexp.MustCompile(`push ?ups?`)
	squatPattern       = regexp.MustCompile(`squats?`)
	jumpingJackPattern = regexp.MustCompile(`jump(ing)? ?jacks?`)
)

// NormalizeExercise lowercases s, turns dashes and underscores into spaces
// and collapses whitespace.
func NormalizeExercise(s string) string {
	s = strings.ToLower(s)
	s = separators.ReplaceAllString(s, " ")
	s = spaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// ExerciseTally is the per-session rep summary used for progress fan-out.
type ExerciseTally struct {
	PushUps      int64
	Squats       int64
	JumpingJacks int64
	ByName       map[string]int64
}

// Tally normalizes names and sums reps. Each log counts toward at most one
// named total, checked in push-up, squat, jumping-jack order.
func Tally(logs []*ExerciseLog) ExerciseTally {
	t := ExerciseTally{ByName: make(map[string]int64)}
	for _, l := range logs {
		name := NormalizeExercise(l.ExerciseName)
		reps := l.TotalReps()
		t.ByName[name] += reps

		switch {
		case pushUpPattern.MatchString(name):
			t.PushUps += reps
		case squatPattern.MatchString(name):
			t.Squats += reps
		case jumpingJackPattern.MatchString(name):
			t.JumpingJacks += reps
		}
	}
	return t
}

// ForUnit maps a challenge unit to the matching named total.
func (t ExerciseTally) ForUnit(unit string) int64 {
	u := NormalizeExercise(unit)
	switch {
	case strings.Contains(u, "push up"):
		return t.PushUps
	case strings.Contains(u, "squat"):
		return t.Squats
	case strings.Contains(u, "jumping jack"):
		return t.JumpingJacks
	}
	return 0
}

// ForPattern sums reps of every exercise whose normalized name contains the
// normalized pattern. An empty pattern matches nothing.
func (t ExerciseTally) ForPattern(pattern string) int64 {
	p := NormalizeExercise(pattern)
	if p == "" {
		return 0
	}
	var total int64
	for name, reps := range t.ByName {
		if strings.Contains(name, p) {
			total += reps
		}
	}
	return total
}

// DailyCalories is one day of a calorie history.
type DailyCalories struct {
	Date          string  `json:"date"`
	TotalCalories float64 `json:"totalCalories"`
}

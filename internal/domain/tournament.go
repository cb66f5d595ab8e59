package domain

import "time"

type Tournament struct {
	ID                    int64     `db:"id" json:"id"`
	Title                 string    `db:"title" json:"title"`
	Description           string    `db:"description" json:"description"`
	StartDate             time.Time `db:"start_date" json:"startDate"`
	EndDate               time.Time `db:"end_date" json:"endDate"`
	TargetExercisePattern string    `db:"target_exercise_pattern" json:"targetExercisePattern"`
	RewardXPFirst         int64     `db:"reward_xp_first" json:"rewardXpFirst"`
	RewardXPSecond        int64     `db:"reward_xp_second" json:"rewardXpSecond"`
	RewardXPOther         int64     `db:"reward_xp_other" json:"rewardXpOther"`
	RewardTokensFirst     int64     `db:"reward_tokens_first" json:"rewardTokensFirst"`
	RewardTokensSecond    int64     `db:"reward_tokens_second" json:"rewardTokensSecond"`
	RewardTokensOther     int64     `db:"reward_tokens_other" json:"rewardTokensOther"`
	Participants          int64     `json:"participants"`
}

// OpenAt reports whether now falls inside [StartDate, EndDate).
func (t *Tournament) OpenAt(now time.Time) bool {
	return !now.Before(t.StartDate) && now.Before(t.EndDate)
}

type TournamentParticipant struct {
	TournamentID int64     `db:"tournament_id" json:"tournamentId"`
	UserID       int64     `db:"user_id" json:"userId"`
	Username     string    `db:"username" json:"username"`
	Progress     int64     `db:"progress" json:"progress"`
	JoinedAt     time.Time `db:"joined_at" json:"joinedAt"`
}

// JoinStatus is the outcome of a join call.
type JoinStatus string

const (
	JoinJoined        JoinStatus = "joined"
	JoinAlreadyJoined JoinStatus = "already_joined"
)

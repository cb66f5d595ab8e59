package domain

import "time"

// Quest codes wired to gameplay triggers.
const (
	QuestDailyLogin    = "DAILY_LOGIN"
	QuestMessageFriend = "MESSAGE_FRIEND"
	QuestSpinLucky     = "SPIN_LUCKY"
	QuestAnyWorkout    = "ANY_WORKOUT"
)

// Quest is a daily quest template.
type Quest struct {
	Code     string `db:"code" json:"code"`
	Text     string `db:"text" json:"text"`
	XPReward int64  `db:"xp_reward" json:"xp_reward"`
}

// QuestState is the lifecycle position of one daily quest instance.
type QuestState string

const (
	QuestPending QuestState = "pending"
	QuestDone    QuestState = "done"
	QuestClaimed QuestState = "claimed"
)

// QuestStateOf folds the stored done/claimed columns into a state.
// claimed without done cannot be stored, so claimed wins.
func QuestStateOf(done, claimed bool) QuestState {
	switch {
	case claimed:
		return QuestClaimed
	case done:
		return QuestDone
	default:
		return QuestPending
	}
}

// DailyQuest is a user's quest instance for one calendar day.
type DailyQuest struct {
	UserID      int64      `db:"user_id" json:"user_id"`
	Code        string     `db:"quest_code" json:"code"`
	Date        time.Time  `db:"quest_date" json:"date"`
	State       QuestState `json:"state"`
	Text        string     `db:"text" json:"text"`
	XPReward    int64      `db:"xp_reward" json:"xp_reward"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	ClaimedAt   *time.Time `db:"claimed_at" json:"claimed_at,omitempty"`
}

// CanClaim reports whether the quest is done and not yet claimed.
func (q *DailyQuest) CanClaim() bool {
	return q.State == QuestDone
}

// QuestClaim is the outcome of claiming one quest.
type QuestClaim struct {
	Code     string    `json:"code"`
	XPReward int64     `json:"xpReward"`
	Result   *XPResult `json:"result"`
}

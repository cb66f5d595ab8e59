package repository

import (
	"context"
	"errors"
	"time"

	"fitquest/internal/db"
	"fitquest/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type QuestRepository struct {
	db    *pgxpool.Pool
	users *UserRepository
}

func NewQuestRepository(db *pgxpool.Pool) *QuestRepository {
	return &QuestRepository{db: db, users: NewUserRepository(db)}
}

const dailyQuestSelect = `SELECT uq.user_id, uq.quest_code, uq.quest_date, uq.done, uq.claimed,
		uq.completed_at, uq.claimed_at, q.text, q.xp_reward
	 FROM user_daily_quests uq
	 JOIN quests q ON q.code = uq.quest_code`

// Templates returns every quest definition
func (r *QuestRepository) Templates(ctx context.Context) ([]*domain.Quest, error) {
	rows, err := r.db.Query(ctx, `SELECT code, text, xp_reward FROM quests ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.Quest
	for rows.Next() {
		var q domain.Quest
		if err := rows.Scan(&q.Code, &q.Text, &q.XPReward); err != nil {
			return nil, err
		}
		result = append(result, &q)
	}
	return result, rows.Err()
}

// EnsureDay creates the user's rows for day, one per quest template
func (r *QuestRepository) EnsureDay(ctx context.Context, userID int64, day time.Time) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO user_daily_quests (user_id, quest_code, quest_date)
		 SELECT $1::bigint, code, $2::date FROM quests
		 ON CONFLICT DO NOTHING`,
		userID, day,
	)
	return err
}

// MarkDone flips a pending quest to done. Done or claimed rows stay as they are.
func (r *QuestRepository) MarkDone(ctx context.Context, userID int64, code string, day, at time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE user_daily_quests
		 SET done = true, completed_at = $4
		 WHERE user_id = $1 AND quest_code = $2 AND quest_date = $3 AND NOT done`,
		userID, code, day, at,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *QuestRepository) Get(ctx context.Context, userID int64, code string, day time.Time) (*domain.DailyQuest, error) {
	q, err := scanDailyQuest(r.db.QueryRow(ctx,
		dailyQuestSelect+` WHERE uq.user_id = $1 AND uq.quest_code = $2 AND uq.quest_date = $3`,
		userID, code, day,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrQuestNotFound
	}
	return q, err
}

// Claim marks a done quest as claimed and grants its xp reward in the same
// transaction. ok is false when the row is not claimable any more; a failed
// grant leaves the quest done.
func (r *QuestRepository) Claim(ctx context.Context, userID int64, code string, day, at time.Time, bonus func(oldXP, newXP int64) int64) (int64, domain.XPChange, bool, error) {
	var (
		xp     int64
		change domain.XPChange
		ok     bool
	)
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		xp, change, ok = 0, domain.XPChange{}, false

		err := tx.QueryRow(ctx,
			`UPDATE user_daily_quests uq
			 SET claimed = true, claimed_at = $4
			 FROM quests q
			 WHERE uq.user_id = $1
			   AND uq.quest_code = $2
			   AND uq.quest_date = $3
			   AND uq.quest_code = q.code
			   AND uq.done = true
			   AND uq.claimed = false
			 RETURNING q.xp_reward`,
			userID, code, day, at,
		).Scan(&xp)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		ok = true

		if xp <= 0 {
			return nil
		}
		change, err = r.users.addXPWithTx(ctx, tx, userID, xp, at, bonus)
		return err
	})
	if err != nil {
		return 0, domain.XPChange{}, false, err
	}
	return xp, change, ok, nil
}

func (r *QuestRepository) ListDay(ctx context.Context, userID int64, day time.Time) ([]*domain.DailyQuest, error) {
	rows, err := r.db.Query(ctx,
		dailyQuestSelect+` WHERE uq.user_id = $1 AND uq.quest_date = $2 ORDER BY q.code`,
		userID, day,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.DailyQuest
	for rows.Next() {
		q, err := scanDailyQuest(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, q)
	}
	return result, rows.Err()
}

// PurgeBefore deletes quest rows dated before day (call from the scheduler)
func (r *QuestRepository) PurgeBefore(ctx context.Context, day time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM user_daily_quests WHERE quest_date < $1`, day)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanDailyQuest(row pgx.Row) (*domain.DailyQuest, error) {
	var (
		q             domain.DailyQuest
		done, claimed bool
	)
	if err := row.Scan(&q.UserID, &q.Code, &q.Date, &done, &claimed,
		&q.CompletedAt, &q.ClaimedAt, &q.Text, &q.XPReward); err != nil {
		return nil, err
	}
	q.State = domain.QuestStateOf(done, claimed)
	return &q, nil
}

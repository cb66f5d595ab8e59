package repository

import (
	"context"
	"encoding/json"
	"time"

	"fitquest/internal/db"
	"fitquest/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type WorkoutRepository struct {
	db *pgxpool.Pool
}

func NewWorkoutRepository(db *pgxpool.Pool) *WorkoutRepository {
	return &WorkoutRepository{db: db}
}

// SaveSession stores the session and its exercise logs atomically
func (r *WorkoutRepository) SaveSession(ctx context.Context, s *domain.WorkoutSession, logs []*domain.ExerciseLog) (int64, error) {
	var id int64
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx,
			`INSERT INTO workout_sessions (user_id, workout_id, start_time, end_time, duration, calories_burned, notes)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 RETURNING session_id, created_at`,
			s.UserID, s.WorkoutID, s.StartTime, s.EndTime, s.Duration, s.CaloriesBurned, s.Notes,
		).Scan(&id, &s.CreatedAt); err != nil {
			return err
		}

		batch := &pgx.Batch{}
		for _, l := range logs {
			sets := l.Sets
			if sets == nil {
				sets = []domain.ExerciseSet{}
			}
			setsJSON, err := json.Marshal(sets)
			if err != nil {
				return err
			}
			batch.Queue(
				`INSERT INTO exercise_logs (session_id, exercise_key, exercise_name, sets_data)
				 VALUES ($1, $2, $3, $4)`,
				id, l.ExerciseKey, l.ExerciseName, setsJSON,
			)
		}
		if batch.Len() == 0 {
			return nil
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *WorkoutRepository) CountSessions(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM workout_sessions WHERE user_id = $1`, userID).Scan(&n)
	return n, err
}

func (r *WorkoutRepository) TotalCalories(ctx context.Context, userID int64) (float64, error) {
	var total float64
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(calories_burned), 0) FROM workout_sessions WHERE user_id = $1`,
		userID,
	).Scan(&total)
	return total, err
}

// Sessions returns the latest sessions with their exercise logs
func (r *WorkoutRepository) Sessions(ctx context.Context, userID int64, limit int) ([]*domain.WorkoutSession, error) {
	rows, err := r.db.Query(ctx,
		`SELECT session_id, user_id, workout_id, start_time, end_time, duration, calories_burned, notes, created_at
		 FROM workout_sessions
		 WHERE user_id = $1
		 ORDER BY start_time DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		sessions []*domain.WorkoutSession
		ids      []int64
	)
	byID := make(map[int64]*domain.WorkoutSession)
	for rows.Next() {
		var s domain.WorkoutSession
		if err := rows.Scan(&s.SessionID, &s.UserID, &s.WorkoutID, &s.StartTime, &s.EndTime,
			&s.Duration, &s.CaloriesBurned, &s.Notes, &s.CreatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, &s)
		ids = append(ids, s.SessionID)
		byID[s.SessionID] = &s
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return sessions, nil
	}

	logRows, err := r.db.Query(ctx,
		`SELECT log_id, session_id, exercise_key, exercise_name, sets_data, created_at
		 FROM exercise_logs
		 WHERE session_id = ANY($1)
		 ORDER BY log_id`,
		ids,
	)
	if err != nil {
		return nil, err
	}
	defer logRows.Close()

	for logRows.Next() {
		var (
			l        domain.ExerciseLog
			setsJSON []byte
		)
		if err := logRows.Scan(&l.LogID, &l.SessionID, &l.ExerciseKey, &l.ExerciseName, &setsJSON, &l.CreatedAt); err != nil {
			return nil, err
		}
		if len(setsJSON) > 0 {
			_ = json.Unmarshal(setsJSON, &l.Sets)
		}
		if s, ok := byID[l.SessionID]; ok {
			s.Exercises = append(s.Exercises, &l)
		}
	}
	return sessions, logRows.Err()
}

// DailyCalories sums calories per calendar day of from's location over [from, to).
func (r *WorkoutRepository) DailyCalories(ctx context.Context, userID int64, from, to time.Time) ([]domain.DailyCalories, error) {
	rows, err := r.db.Query(ctx,
		`SELECT (start_time AT TIME ZONE $4)::date AS day, SUM(calories_burned)
		 FROM workout_sessions
		 WHERE user_id = $1 AND start_time >= $2 AND start_time < $3
		 GROUP BY day
		 ORDER BY day`,
		userID, from, to, from.Location().String(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.DailyCalories
	for rows.Next() {
		var d domain.DailyCalories
		if err := rows.Scan(&d.Date, &d.TotalCalories); err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

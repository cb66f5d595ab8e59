package repository

import (
	"context"
	"errors"
	"time"

	"fitquest/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TournamentRepository struct {
	db *pgxpool.Pool
}

func NewTournamentRepository(db *pgxpool.Pool) *TournamentRepository {
	return &TournamentRepository{db: db}
}

const tournamentSelect = `SELECT t.id, t.title, t.description, t.start_date, t.end_date, t.target_exercise_pattern,
		t.reward_xp_first, t.reward_xp_second, t.reward_xp_other,
		t.reward_tokens_first, t.reward_tokens_second, t.reward_tokens_other,
		(SELECT COUNT(*) FROM tournament_participants tp WHERE tp.tournament_id = t.id)
	 FROM tournaments t`

func scanTournament(row pgx.Row) (*domain.Tournament, error) {
	var t domain.Tournament
	if err := row.Scan(&t.ID, &t.Title, &t.Description, &t.StartDate, &t.EndDate, &t.TargetExercisePattern,
		&t.RewardXPFirst, &t.RewardXPSecond, &t.RewardXPOther,
		&t.RewardTokensFirst, &t.RewardTokensSecond, &t.RewardTokensOther,
		&t.Participants); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TournamentRepository) queryTournaments(ctx context.Context, sql string, args ...any) ([]*domain.Tournament, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.Tournament
	for rows.Next() {
		t, err := scanTournament(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

func (r *TournamentRepository) Get(ctx context.Context, tournamentID int64) (*domain.Tournament, error) {
	t, err := scanTournament(r.db.QueryRow(ctx, tournamentSelect+` WHERE t.id = $1`, tournamentID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTournamentNotFound
	}
	return t, err
}

// Active lists running and upcoming tournaments
func (r *TournamentRepository) Active(ctx context.Context, now time.Time) ([]*domain.Tournament, error) {
	return r.queryTournaments(ctx, tournamentSelect+` WHERE t.end_date > $1 ORDER BY t.start_date, t.id`, now)
}

// Join reports false when the user is already a participant.
func (r *TournamentRepository) Join(ctx context.Context, tournamentID, userID int64) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`INSERT INTO tournament_participants (tournament_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		tournamentID, userID,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *TournamentRepository) Joined(ctx context.Context, userID int64, now time.Time) ([]*domain.Tournament, error) {
	return r.queryTournaments(ctx,
		tournamentSelect+` JOIN tournament_participants p ON p.tournament_id = t.id
		 WHERE p.user_id = $1 AND t.end_date > $2
		 ORDER BY t.start_date, t.id`,
		userID, now,
	)
}

// IncrementProgress only counts while start_date <= now < end_date.
func (r *TournamentRepository) IncrementProgress(ctx context.Context, tournamentID, userID, delta int64, now time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE tournament_participants p
		 SET progress = p.progress + $3
		 FROM tournaments t
		 WHERE p.tournament_id = $1
		   AND p.user_id = $2
		   AND t.id = p.tournament_id
		   AND t.start_date <= $4
		   AND t.end_date > $4`,
		tournamentID, userID, delta, now,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *TournamentRepository) Participants(ctx context.Context, tournamentID int64) ([]*domain.TournamentParticipant, error) {
	rows, err := r.db.Query(ctx,
		`SELECT p.tournament_id, p.user_id, u.username, p.progress, p.joined_at
		 FROM tournament_participants p
		 JOIN users u ON u.id = p.user_id
		 WHERE p.tournament_id = $1
		 ORDER BY p.progress DESC, p.joined_at`,
		tournamentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.TournamentParticipant
	for rows.Next() {
		var p domain.TournamentParticipant
		if err := rows.Scan(&p.TournamentID, &p.UserID, &p.Username, &p.Progress, &p.JoinedAt); err != nil {
			return nil, err
		}
		result = append(result, &p)
	}
	return result, rows.Err()
}

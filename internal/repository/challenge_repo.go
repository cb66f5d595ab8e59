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

type ChallengeRepository struct {
	db    *pgxpool.Pool
	users *UserRepository
}

func NewChallengeRepository(db *pgxpool.Pool) *ChallengeRepository {
	return &ChallengeRepository{db: db, users: NewUserRepository(db)}
}

const inviteSelect = `SELECT i.id, i.challenge_id, i.sender_id, i.receiver_id, i.custom_value,
		i.custom_duration_value, i.custom_duration_unit, i.status, i.accepted_at, i.expires_at,
		i.completed_at, i.created_at, c.id, c.type, c.value, c.unit, c.duration
	 FROM challenge_invites i
	 JOIN challenges c ON c.id = i.challenge_id`

// an invite accepts progress while accepted, not completed and not expired at $2
const inviteActive = `i.status = 'accepted' AND i.completed_at IS NULL AND (i.expires_at IS NULL OR i.expires_at > $2)`

func scanInvite(row pgx.Row) (*domain.ChallengeInvite, error) {
	var inv domain.ChallengeInvite
	if err := row.Scan(
		&inv.ID, &inv.ChallengeID, &inv.SenderID, &inv.ReceiverID, &inv.CustomValue,
		&inv.CustomDurationValue, &inv.CustomDurationUnit, &inv.Status, &inv.AcceptedAt, &inv.ExpiresAt,
		&inv.CompletedAt, &inv.CreatedAt,
		&inv.Challenge.ID, &inv.Challenge.Type, &inv.Challenge.Value, &inv.Challenge.Unit, &inv.Challenge.Duration,
	); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *ChallengeRepository) queryInvites(ctx context.Context, sql string, args ...any) ([]*domain.ChallengeInvite, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.ChallengeInvite
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, inv)
	}
	return result, rows.Err()
}

func (r *ChallengeRepository) Templates(ctx context.Context) ([]*domain.Challenge, error) {
	rows, err := r.db.Query(ctx, `SELECT id, type, value, unit, duration FROM challenges ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.Challenge
	for rows.Next() {
		var c domain.Challenge
		if err := rows.Scan(&c.ID, &c.Type, &c.Value, &c.Unit, &c.Duration); err != nil {
			return nil, err
		}
		result = append(result, &c)
	}
	return result, rows.Err()
}

func (r *ChallengeRepository) TemplateByType(ctx context.Context, challengeType string) (*domain.Challenge, error) {
	var c domain.Challenge
	err := r.db.QueryRow(ctx,
		`SELECT id, type, value, unit, duration FROM challenges WHERE type = $1`,
		challengeType,
	).Scan(&c.ID, &c.Type, &c.Value, &c.Unit, &c.Duration)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrChallengeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ChallengeRepository) CreateInvite(ctx context.Context, inv *domain.ChallengeInvite) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO challenge_invites
			(challenge_id, sender_id, receiver_id, custom_value, custom_duration_value, custom_duration_unit)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, status, created_at`,
		inv.ChallengeID, inv.SenderID, inv.ReceiverID, inv.CustomValue, inv.CustomDurationValue, inv.CustomDurationUnit,
	).Scan(&inv.ID, &inv.Status, &inv.CreatedAt)
	if db.CheckViolation(err) {
		return domain.ErrMissingData
	}
	return err
}

// Accept locks the invite row, accepts it and creates both progress rows.
func (r *ChallengeRepository) Accept(ctx context.Context, inviteID, receiverID int64, at time.Time, expiry func(inv *domain.ChallengeInvite) time.Time) (*domain.ChallengeInvite, error) {
	var inv *domain.ChallengeInvite
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		var err error
		inv, err = scanInvite(tx.QueryRow(ctx, inviteSelect+` WHERE i.id = $1 FOR UPDATE OF i`, inviteID))
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrInviteNotFound
		}
		if err != nil {
			return err
		}
		if inv.ReceiverID != receiverID {
			return domain.ErrInviteNotFound
		}
		if inv.Status != domain.InvitePending {
			return domain.ErrInviteNotPending
		}

		expires := expiry(inv)
		if _, err := tx.Exec(ctx,
			`UPDATE challenge_invites SET status = 'accepted', accepted_at = $2, expires_at = $3 WHERE id = $1`,
			inviteID, at, expires,
		); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO challenge_progress (challenge_invite_id, user_id)
			 VALUES ($1, $2), ($1, $3)
			 ON CONFLICT DO NOTHING`,
			inviteID, inv.SenderID, inv.ReceiverID,
		); err != nil {
			return err
		}

		inv.Status = domain.InviteAccepted
		inv.AcceptedAt = &at
		inv.ExpiresAt = &expires
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (r *ChallengeRepository) Reject(ctx context.Context, inviteID, receiverID int64) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE challenge_invites SET status = 'rejected'
		 WHERE id = $1 AND receiver_id = $2 AND status = 'pending'`,
		inviteID, receiverID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var status string
	err = r.db.QueryRow(ctx,
		`SELECT status FROM challenge_invites WHERE id = $1 AND receiver_id = $2`,
		inviteID, receiverID,
	).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrInviteNotFound
	}
	if err != nil {
		return err
	}
	return domain.ErrInviteNotPending
}

// Pending lists invites waiting for userID to answer
func (r *ChallengeRepository) Pending(ctx context.Context, userID int64) ([]*domain.ChallengeInvite, error) {
	return r.queryInvites(ctx,
		inviteSelect+` WHERE i.receiver_id = $1 AND i.status = 'pending' ORDER BY i.created_at DESC`,
		userID,
	)
}

// Accepted lists the user's running and finished challenges. Challenges
// that expired without a winner are left out.
func (r *ChallengeRepository) Accepted(ctx context.Context, userID int64, now time.Time) ([]*domain.ChallengeInvite, error) {
	return r.queryInvites(ctx,
		inviteSelect+` WHERE (i.sender_id = $1 OR i.receiver_id = $1)
		   AND i.status = 'accepted'
		   AND (i.completed_at IS NOT NULL OR i.expires_at IS NULL OR i.expires_at > $2)
		 ORDER BY i.accepted_at DESC`,
		userID, now,
	)
}

func (r *ChallengeRepository) ActiveForUser(ctx context.Context, userID int64, now time.Time) ([]*domain.ChallengeInvite, error) {
	return r.queryInvites(ctx,
		inviteSelect+` WHERE (i.sender_id = $1 OR i.receiver_id = $1) AND `+inviteActive+` ORDER BY i.id`,
		userID, now,
	)
}

// IncrementProgress adds delta to the user's row while the invite is active.
func (r *ChallengeRepository) IncrementProgress(ctx context.Context, inviteID, userID, delta int64, now time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE challenge_progress p
		 SET progress_value = p.progress_value + $3
		 FROM challenge_invites i
		 WHERE p.challenge_invite_id = $1
		   AND p.user_id = $4
		   AND i.id = p.challenge_invite_id
		   AND `+inviteActive,
		inviteID, now, delta, userID,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *ChallengeRepository) Progress(ctx context.Context, inviteID int64) (*domain.ChallengeInvite, []domain.ChallengeProgress, error) {
	inv, err := scanInvite(r.db.QueryRow(ctx, inviteSelect+` WHERE i.id = $1`, inviteID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, domain.ErrInviteNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	rows, err := r.db.Query(ctx,
		`SELECT challenge_invite_id, user_id, progress_value
		 FROM challenge_progress
		 WHERE challenge_invite_id = $1
		 ORDER BY user_id`,
		inviteID,
	)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var progress []domain.ChallengeProgress
	for rows.Next() {
		var p domain.ChallengeProgress
		if err := rows.Scan(&p.InviteID, &p.UserID, &p.ProgressValue); err != nil {
			return nil, nil, err
		}
		progress = append(progress, p)
	}
	return inv, progress, rows.Err()
}

// Complete stamps completed_at once and pays every payout in the same
// transaction. Only the call that stamped it gets true. The returned changes
// line up with payouts.
func (r *ChallengeRepository) Complete(ctx context.Context, inviteID int64, at time.Time, payouts []domain.ChallengePayout, bonus func(oldXP, newXP int64) int64) ([]domain.XPChange, bool, error) {
	var (
		changes []domain.XPChange
		done    bool
	)
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		changes, done = make([]domain.XPChange, len(payouts)), false

		tag, err := tx.Exec(ctx,
			`UPDATE challenge_invites SET completed_at = $2
			 WHERE id = $1 AND status = 'accepted' AND completed_at IS NULL`,
			inviteID, at,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() != 1 {
			return nil
		}
		done = true

		for i, p := range payouts {
			if p.XP > 0 {
				if changes[i], err = r.users.addXPWithTx(ctx, tx, p.UserID, p.XP, at, bonus); err != nil {
					return err
				}
			}
			if p.Tokens > 0 {
				meta := map[string]interface{}{"invite_id": inviteID, "role": p.Role}
				balance, err := r.users.creditWithTx(ctx, tx, p.UserID, p.Tokens, domain.TxChallengeReward, meta)
				if err != nil {
					return err
				}
				changes[i].Tokens = balance
			}
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return changes, done, nil
}

// FriendsToChallenge returns accepted friends with live premium and no open
// invite of challengeType with userID in either direction.
func (r *ChallengeRepository) FriendsToChallenge(ctx context.Context, userID int64, challengeType string, now time.Time) ([]*domain.Friend, error) {
	rows, err := r.db.Query(ctx,
		`SELECT u.id, u.username, u.role
		 FROM friends f
		 JOIN users u ON u.id = CASE WHEN f.user_id = $1 THEN f.friend_id ELSE f.user_id END
		 WHERE (f.user_id = $1 OR f.friend_id = $1)
		   AND f.status = 'accepted'
		   AND u.role = 'premium'
		   AND u.premium_until > $3
		   AND NOT EXISTS (
		       SELECT 1
		       FROM challenge_invites i
		       JOIN challenges c ON c.id = i.challenge_id
		       WHERE c.type = $2
		         AND ((i.sender_id = $1 AND i.receiver_id = u.id) OR (i.sender_id = u.id AND i.receiver_id = $1))
		         AND (i.status = 'pending'
		              OR (i.status = 'accepted' AND i.completed_at IS NULL AND (i.expires_at IS NULL OR i.expires_at > $3)))
		   )
		 ORDER BY u.username`,
		userID, challengeType, now,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanFriends(rows)
}

// Standings lists every participant row of the user's accepted challenges.
func (r *ChallengeRepository) Standings(ctx context.Context, userID int64) ([]*domain.ChallengeStanding, error) {
	rows, err := r.db.Query(ctx,
		`SELECT i.id, c.type, COALESCE(i.custom_value, c.value), c.unit, p.user_id, u.username,
		        p.progress_value, i.accepted_at, i.expires_at, i.completed_at IS NOT NULL
		 FROM challenge_invites i
		 JOIN challenges c ON c.id = i.challenge_id
		 JOIN challenge_progress p ON p.challenge_invite_id = i.id
		 JOIN users u ON u.id = p.user_id
		 WHERE i.status = 'accepted' AND (i.sender_id = $1 OR i.receiver_id = $1)
		 ORDER BY i.id DESC, p.progress_value DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.ChallengeStanding
	for rows.Next() {
		var s domain.ChallengeStanding
		if err := rows.Scan(&s.InviteID, &s.Type, &s.Target, &s.Unit, &s.UserID, &s.Username,
			&s.Progress, &s.AcceptedAt, &s.ExpiresAt, &s.IsCompleted); err != nil {
			return nil, err
		}
		result = append(result, &s)
	}
	return result, rows.Err()
}

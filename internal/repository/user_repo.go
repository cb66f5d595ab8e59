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

const userColumns = `id, username, xp, tokens, role, premium_until, login_streak, last_login, is_suspended, created_at`

// UserRepository owns the users table: XP, token balance, premium and streak.
type UserRepository struct {
	db  *pgxpool.Pool
	txs *TransactionRepository
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db, txs: NewTransactionRepository(db)}
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(
		&u.ID,
		&u.Username,
		&u.XP,
		&u.Tokens,
		&u.Role,
		&u.PremiumUntil,
		&u.LoginStreak,
		&u.LastLogin,
		&u.IsSuspended,
		&u.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID))
}

func (r *UserRepository) CreateUser(ctx context.Context, username string) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx,
		`INSERT INTO users (username) VALUES ($1) RETURNING `+userColumns,
		username,
	))
	if db.UniqueViolation(err) {
		return nil, domain.ErrUsernameExists
	}
	return u, err
}

// AddXP increments xp, books the daily XP row and credits the level-up
// reward in one transaction.
func (r *UserRepository) AddXP(ctx context.Context, userID, delta int64, day time.Time, bonus func(oldXP, newXP int64) int64) (domain.XPChange, error) {
	var change domain.XPChange
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		var err error
		change, err = r.addXPWithTx(ctx, tx, userID, delta, day, bonus)
		return err
	})
	return change, err
}

// addXPWithTx is AddXP inside the caller's transaction, so a state change
// and the XP it pays commit or roll back together.
func (r *UserRepository) addXPWithTx(ctx context.Context, tx pgx.Tx, userID, delta int64, day time.Time, bonus func(oldXP, newXP int64) int64) (domain.XPChange, error) {
	var change domain.XPChange

	var newXP, tokens int64
	err := tx.QueryRow(ctx,
		`UPDATE users SET xp = xp + $2 WHERE id = $1 RETURNING xp, tokens`,
		userID, delta,
	).Scan(&newXP, &tokens)
	if errors.Is(err, pgx.ErrNoRows) {
		return change, domain.ErrUserNotFound
	}
	if err != nil {
		return change, err
	}
	change.OldXP, change.NewXP, change.Tokens = newXP-delta, newXP, tokens

	if _, err := tx.Exec(ctx,
		`INSERT INTO user_xp_daily (user_id, xp_date, xp) VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, xp_date) DO UPDATE SET xp = user_xp_daily.xp + EXCLUDED.xp`,
		userID, domain.Day(day), delta,
	); err != nil {
		return change, err
	}

	reward := bonus(change.OldXP, change.NewXP)
	if reward <= 0 {
		return change, nil
	}
	balance, err := r.creditWithTx(ctx, tx, userID, reward, domain.TxLevelUp, map[string]interface{}{
		"old_xp": change.OldXP,
		"new_xp": change.NewXP,
	})
	if err != nil {
		return change, err
	}
	change.RewardedTokens, change.Tokens = reward, balance
	return change, nil
}

func (r *UserRepository) CreditTokens(ctx context.Context, userID, amount int64, txType string, meta map[string]interface{}) (int64, error) {
	if amount <= 0 {
		return 0, domain.ErrInvalidAmount
	}
	var balance int64
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		var err error
		balance, err = r.creditWithTx(ctx, tx, userID, amount, txType, meta)
		return err
	})
	return balance, err
}

func (r *UserRepository) DebitTokens(ctx context.Context, userID, amount int64, txType string, meta map[string]interface{}) (int64, error) {
	if amount <= 0 {
		return 0, domain.ErrInvalidAmount
	}
	var balance int64
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		var err error
		balance, err = r.debitWithTx(ctx, tx, userID, amount, txType, meta)
		return err
	})
	return balance, err
}

func (r *UserRepository) creditWithTx(ctx context.Context, tx pgx.Tx, userID, amount int64, txType string, meta map[string]interface{}) (int64, error) {
	var balance int64
	err := tx.QueryRow(ctx,
		`UPDATE users SET tokens = tokens + $2 WHERE id = $1 RETURNING tokens`,
		userID, amount,
	).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrUserNotFound
	}
	if err != nil {
		return 0, err
	}
	return balance, r.txs.CreateWithTx(ctx, tx, &domain.Transaction{UserID: userID, Type: txType, Amount: amount, Meta: meta})
}

// debitWithTx takes amount only if the balance covers it.
func (r *UserRepository) debitWithTx(ctx context.Context, tx pgx.Tx, userID, amount int64, txType string, meta map[string]interface{}) (int64, error) {
	var balance int64
	err := tx.QueryRow(ctx,
		`UPDATE users SET tokens = tokens - $2 WHERE id = $1 AND tokens >= $2 RETURNING tokens`,
		userID, amount,
	).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		// not found or insufficient funds, check which
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); err != nil {
			return 0, err
		}
		if !exists {
			return 0, domain.ErrUserNotFound
		}
		return 0, domain.ErrNotEnoughTokens
	}
	if err != nil {
		return 0, err
	}
	return balance, r.txs.CreateWithTx(ctx, tx, &domain.Transaction{UserID: userID, Type: txType, Amount: -amount, Meta: meta})
}

// lockPremium reads premium_until under a row lock.
func lockPremium(ctx context.Context, tx pgx.Tx, userID int64) (*time.Time, error) {
	var current *time.Time
	err := tx.QueryRow(ctx, `SELECT premium_until FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	return current, err
}

func (r *UserRepository) ExtendPremium(ctx context.Context, userID int64, extend func(current *time.Time) time.Time) (time.Time, error) {
	var until time.Time
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		current, err := lockPremium(ctx, tx, userID)
		if err != nil {
			return err
		}
		until = extend(current)
		_, err = tx.Exec(ctx,
			`UPDATE users SET role = 'premium', premium_until = $2 WHERE id = $1`,
			userID, until,
		)
		return err
	})
	return until, err
}

func (r *UserRepository) DowngradeIfExpired(ctx context.Context, userID int64, now time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET role = 'user'
		 WHERE id = $1 AND role = 'premium' AND (premium_until IS NULL OR premium_until < $2)`,
		userID, now,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *UserRepository) DowngradeAllExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET role = 'user'
		 WHERE role = 'premium' AND (premium_until IS NULL OR premium_until < $1)`,
		now,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *UserRepository) UpdateLoginStreak(ctx context.Context, userID int64, prevLastLogin *time.Time, streak int, at time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET login_streak = $2, last_login = $3
		 WHERE id = $1 AND last_login IS NOT DISTINCT FROM $4`,
		userID, streak, at, prevLastLogin,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *UserRepository) UpdateUsername(ctx context.Context, userID int64, username string) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET username = $2 WHERE id = $1`, userID, username)
	if db.UniqueViolation(err) {
		return domain.ErrUsernameExists
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// TopByXP returns users ordered by xp desc
func (r *UserRepository) TopByXP(ctx context.Context, limit int) ([]*domain.User, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE NOT is_suspended ORDER BY xp DESC, id LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, u)
	}
	return res, rows.Err()
}

func (r *UserRepository) DailyXP(ctx context.Context, userID int64, day time.Time) (int64, error) {
	var xp int64
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(xp), 0) FROM user_xp_daily WHERE user_id = $1 AND xp_date = $2`,
		userID, domain.Day(day),
	).Scan(&xp)
	return xp, err
}

func (r *UserRepository) Transactions(ctx context.Context, userID int64, limit int) ([]*domain.Transaction, error) {
	return r.txs.GetByUserID(ctx, userID, limit)
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fitquest/internal/db"
	"fitquest/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SpinRepository struct {
	db    *pgxpool.Pool
	users *UserRepository
}

func NewSpinRepository(db *pgxpool.Pool) *SpinRepository {
	return &SpinRepository{db: db, users: NewUserRepository(db)}
}

func (r *SpinRepository) ActivePrizes(ctx context.Context) ([]*domain.Prize, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, label, type, value, is_active FROM prizes WHERE is_active ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.Prize
	for rows.Next() {
		var p domain.Prize
		if err := rows.Scan(&p.ID, &p.Label, &p.Type, &p.Value, &p.IsActive); err != nil {
			return nil, err
		}
		result = append(result, &p)
	}
	return result, rows.Err()
}

const insertSpin = `INSERT INTO spin_history (user_id, prize_label, prize_type, prize_value, paid, spin_day, spun_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

// LogFreeSpin logs today's free spin and books its prize in one
// transaction. It relies on the partial unique index over unpaid spins per
// day: ok is false, and nothing is booked, when the free spin is used.
func (r *SpinRepository) LogFreeSpin(ctx context.Context, spin *domain.Spin) (domain.SpinPayout, bool, error) {
	var (
		payout domain.SpinPayout
		ok     bool
	)
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		payout, ok = domain.SpinPayout{}, false
		err := tx.QueryRow(ctx,
			insertSpin+` ON CONFLICT DO NOTHING RETURNING id`,
			spin.UserID, spin.PrizeLabel, spin.PrizeType, spin.PrizeValue, false, spin.SpinDay, spin.SpunAt,
		).Scan(&spin.ID)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		ok = true
		return r.bookPrize(ctx, tx, spin, &payout)
	})
	if err != nil {
		return domain.SpinPayout{}, false, err
	}
	return payout, ok, nil
}

// LogPaidSpin debits cost, logs the spin and books its prize in one
// transaction.
func (r *SpinRepository) LogPaidSpin(ctx context.Context, spin *domain.Spin, cost int64) (domain.SpinPayout, error) {
	var payout domain.SpinPayout
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		payout = domain.SpinPayout{}
		balance, err := r.users.debitWithTx(ctx, tx, spin.UserID, cost, domain.TxRespin, map[string]interface{}{
			"prize": spin.PrizeLabel,
		})
		if err != nil {
			return err
		}
		payout.Tokens = balance
		if err := tx.QueryRow(ctx,
			insertSpin+` RETURNING id`,
			spin.UserID, spin.PrizeLabel, spin.PrizeType, spin.PrizeValue, true, spin.SpinDay, spin.SpunAt,
		).Scan(&spin.ID); err != nil {
			return err
		}
		return r.bookPrize(ctx, tx, spin, &payout)
	})
	if err != nil {
		return domain.SpinPayout{}, err
	}
	return payout, nil
}

func (r *SpinRepository) bookPrize(ctx context.Context, tx pgx.Tx, spin *domain.Spin, payout *domain.SpinPayout) error {
	switch spin.PrizeType {
	case domain.PrizeTokens:
		balance, err := r.users.creditWithTx(ctx, tx, spin.UserID, spin.PrizeValue, domain.TxSpinPrize, map[string]interface{}{
			"prize": spin.PrizeLabel,
		})
		if err != nil {
			return err
		}
		payout.Tokens = balance
	case domain.PrizeTrial:
		current, err := lockPremium(ctx, tx, spin.UserID)
		if err != nil {
			return err
		}
		until := domain.StackPremium(current, spin.SpunAt, int(spin.PrizeValue))
		if err := tx.QueryRow(ctx,
			`UPDATE users SET role = 'premium', premium_until = $2 WHERE id = $1 RETURNING tokens`,
			spin.UserID, until,
		).Scan(&payout.Tokens); err != nil {
			return err
		}
		payout.PremiumUntil = &until
	default:
		return fmt.Errorf("unknown prize type %q", spin.PrizeType)
	}
	return nil
}

func (r *SpinRepository) LastSpin(ctx context.Context, userID int64) (*time.Time, error) {
	var last *time.Time
	err := r.db.QueryRow(ctx, `SELECT MAX(spun_at) FROM spin_history WHERE user_id = $1`, userID).Scan(&last)
	return last, err
}

func (r *SpinRepository) CountSpins(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM spin_history WHERE user_id = $1`, userID).Scan(&n)
	return n, err
}

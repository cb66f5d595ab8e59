package repository

import (
	"context"
	"time"

	"fitquest/internal/db"
	"fitquest/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SubscriptionRepository struct {
	db    *pgxpool.Pool
	users *UserRepository
}

func NewSubscriptionRepository(db *pgxpool.Pool) *SubscriptionRepository {
	return &SubscriptionRepository{db: db, users: NewUserRepository(db)}
}

// Purchase charges the buyer, stacks the plan on the current entitlement
// and records the purchase in one transaction. The history row spans
// [now, now+duration] whatever entitlement was left.
func (r *SubscriptionRepository) Purchase(ctx context.Context, userID int64, plan domain.PremiumPlan, method domain.PaymentMethod, now time.Time) (*domain.PremiumPurchase, error) {
	var out *domain.PremiumPurchase
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		current, err := lockPremium(ctx, tx, userID)
		if err != nil {
			return err
		}

		rec := domain.SubscriptionRecord{UserID: userID, Plan: plan.Name, Method: method}
		switch method {
		case domain.PayTokens:
			if _, err := r.users.debitWithTx(ctx, tx, userID, plan.TokenCost, domain.TxPremiumPurchase, map[string]interface{}{
				"plan": plan.Name,
			}); err != nil {
				return err
			}
			cost := plan.TokenCost
			rec.TokensUsed = &cost
		default:
			price := plan.Price
			rec.Amount = &price
		}

		// the record covers this purchase alone, premium_until the stacked total
		rec.StartDate = now
		rec.EndDate = domain.PlanExpiry(now, plan.DurationDays)
		until := domain.StackPremium(current, now, plan.DurationDays)

		var tokens int64
		if err := tx.QueryRow(ctx,
			`UPDATE users SET role = 'premium', premium_until = $2 WHERE id = $1 RETURNING tokens`,
			userID, until,
		).Scan(&tokens); err != nil {
			return err
		}

		if err := tx.QueryRow(ctx,
			`INSERT INTO subscription_history (user_id, plan, method, amount, tokens_used, start_date, end_date)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 RETURNING id, created_at`,
			rec.UserID, rec.Plan, rec.Method, rec.Amount, rec.TokensUsed, rec.StartDate, rec.EndDate,
		).Scan(&rec.ID, &rec.CreatedAt); err != nil {
			return err
		}

		out = &domain.PremiumPurchase{PremiumUntil: until, Tokens: tokens, Record: rec}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *SubscriptionRepository) History(ctx context.Context, userID int64) ([]*domain.SubscriptionRecord, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, plan, method, amount::float8, tokens_used, start_date, end_date, created_at
		 FROM subscription_history
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.SubscriptionRecord
	for rows.Next() {
		var s domain.SubscriptionRecord
		if err := rows.Scan(&s.ID, &s.UserID, &s.Plan, &s.Method, &s.Amount, &s.TokensUsed,
			&s.StartDate, &s.EndDate, &s.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &s)
	}
	return result, rows.Err()
}

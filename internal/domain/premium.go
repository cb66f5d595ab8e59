package domain

import "time"

// LifetimeDays is the duration at which a plan stops using date arithmetic.
const LifetimeDays = 36500

// PremiumSentinel is the fixed expiry used for lifetime plans.
var PremiumSentinel = time.Date(2099, time.December, 31, 23, 59, 59, 0, time.UTC)

type PaymentMethod string

const (
	PayMoney  PaymentMethod = "money"
	PayTokens PaymentMethod = "tokens"
)

func (m PaymentMethod) Valid() bool {
	return m == PayMoney || m == PayTokens
}

// PremiumPlan is a purchasable tier. TokenCost 0 means money only.
type PremiumPlan struct {
	Name         string  `toml:"name" json:"name"`
	DurationDays int     `toml:"duration_days" json:"durationDays"`
	Price        float64 `toml:"price" json:"price"`
	TokenCost    int64   `toml:"token_cost" json:"tokenCost"`
}

// PlanExpiry returns start plus days, or the sentinel for lifetime plans.
func PlanExpiry(start time.Time, days int) time.Time {
	if days >= LifetimeDays {
		return PremiumSentinel
	}
	return start.AddDate(0, 0, days)
}

// StackPremium extends an unexpired entitlement, or starts a fresh one at now.
func StackPremium(current *time.Time, now time.Time, days int) time.Time {
	base := now
	if current != nil && current.After(now) {
		base = *current
	}
	return PlanExpiry(base, days)
}

type SubscriptionRecord struct {
	ID         int64         `db:"id" json:"id"`
	UserID     int64         `db:"user_id" json:"userId"`
	Plan       string        `db:"plan" json:"plan"`
	Method     PaymentMethod `db:"method" json:"method"`
	Amount     *float64      `db:"amount" json:"amount,omitempty"`
	TokensUsed *int64        `db:"tokens_used" json:"tokensUsed,omitempty"`
	StartDate  time.Time     `db:"start_date" json:"startDate"`
	EndDate    time.Time     `db:"end_date" json:"endDate"`
	CreatedAt  time.Time     `db:"created_at" json:"createdAt"`
}

// PremiumPurchase is what a buyer gets back.
type PremiumPurchase struct {
	PremiumUntil time.Time          `json:"premiumUntil"`
	Tokens       int64              `json:"tokens"`
	Record       SubscriptionRecord `json:"record"`
}

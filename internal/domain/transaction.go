package domain

import "time"

// Token ledger entry types.
const (
	TxLevelUp         = "level_up"
	TxSpinPrize       = "spin_prize"
	TxRespin          = "respin"
	TxChallengeReward = "challenge_reward"
	TxPremiumPurchase = "premium_purchase"
	TxAdjustment      = "adjustment"
)

// Transaction is one token movement. Amount is signed: debits are negative.
type Transaction struct {
	ID        int64                  `db:"id" json:"id"`
	UserID    int64                  `db:"user_id" json:"user_id"`
	Type      string                 `db:"type" json:"type"`
	Amount    int64                  `db:"amount" json:"amount"`
	Meta      map[string]interface{} `db:"meta" json:"meta,omitempty"`
	CreatedAt time.Time              `db:"created_at" json:"created_at"`
}

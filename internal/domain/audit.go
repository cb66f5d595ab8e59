package domain

import "time"

// AuditLog records an operator or economy action for later review.
type AuditLog struct {
	ID        int64                  `db:"id" json:"id"`
	UserID    int64                  `db:"user_id" json:"user_id"`
	Action    string                 `db:"action" json:"action"`
	Category  string                 `db:"category" json:"category"`
	Details   map[string]interface{} `db:"details" json:"details"`
	IP        string                 `db:"ip" json:"ip,omitempty"`
	UserAgent string                 `db:"user_agent" json:"user_agent,omitempty"`
	CreatedAt time.Time              `db:"created_at" json:"created_at"`
}

// Audit action categories
const (
	AuditCategoryAdmin   = "admin"
	AuditCategoryPremium = "premium"
	AuditCategoryAccount = "account"
)

// Audit actions
const (
	AuditActionAdjustBalance  = "admin_adjust_balance"
	AuditActionPremiumSweep   = "admin_premium_sweep"
	AuditActionPremiumBuy     = "premium_purchase"
	AuditActionUsernameChange = "username_change"
)

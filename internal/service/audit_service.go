package service

import (
	"context"

	"fitquest/internal/domain"
	"fitquest/internal/logger"
)

// AuditService records operator and economy actions. Write failures are
// logged and never fail the action being audited.
type AuditService struct {
	store AuditStore
}

func NewAuditService(store AuditStore) *AuditService {
	return &AuditService{store: store}
}

// Log creates a new audit log entry
func (s *AuditService) Log(ctx context.Context, userID int64, action, category string, details map[string]interface{}) {
	s.LogWithRequest(ctx, userID, action, category, "", "", details)
}

// LogWithRequest creates an audit log with request info (IP, User-Agent)
func (s *AuditService) LogWithRequest(ctx context.Context, userID int64, action, category, ip, userAgent string, details map[string]interface{}) {
	if s == nil || s.store == nil {
		return
	}
	entry := &domain.AuditLog{
		UserID:    userID,
		Action:    action,
		Category:  category,
		Details:   details,
		IP:        ip,
		UserAgent: userAgent,
	}
	if err := s.store.Create(ctx, entry); err != nil {
		logger.WithContext(ctx).Error("failed to create audit log", "error", err, "action", action, "user_id", userID)
	}
}

// LogAdjustment records an operator balance change
func (s *AuditService) LogAdjustment(ctx context.Context, userID, amount, balance int64, reason, ip, userAgent string) {
	s.LogWithRequest(ctx, userID, domain.AuditActionAdjustBalance, domain.AuditCategoryAdmin, ip, userAgent, map[string]interface{}{
		"amount":  amount,
		"balance": balance,
		"reason":  reason,
	})
}

// LogPurchase records a premium purchase
func (s *AuditService) LogPurchase(ctx context.Context, userID int64, p *domain.PremiumPurchase, ip, userAgent string) {
	details := map[string]interface{}{
		"plan":          p.Record.Plan,
		"method":        string(p.Record.Method),
		"premium_until": p.PremiumUntil,
	}
	if p.Record.TokensUsed != nil {
		details["tokens_used"] = *p.Record.TokensUsed
	}
	if p.Record.Amount != nil {
		details["amount"] = *p.Record.Amount
	}
	s.LogWithRequest(ctx, userID, domain.AuditActionPremiumBuy, domain.AuditCategoryPremium, ip, userAgent, details)
}

func (s *AuditService) ForUser(ctx context.Context, userID int64, limit int) ([]*domain.AuditLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.store.GetByUserID(ctx, userID, limit)
}

func (s *AuditService) Recent(ctx context.Context, category string, limit int) ([]*domain.AuditLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.store.GetRecent(ctx, category, limit)
}

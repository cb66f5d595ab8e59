package service

import (
	"context"
	"fmt"

	"fitquest/internal/domain"
	"fitquest/internal/logger"
)

// BalanceService exposes the token balance and its ledger.
type BalanceService struct {
	ledger LedgerStore
}

func NewBalanceService(ledger LedgerStore) *BalanceService {
	return &BalanceService{ledger: ledger}
}

// GetBalance returns user's current token balance
func (s *BalanceService) GetBalance(ctx context.Context, userID int64) (int64, error) {
	u, err := s.ledger.GetUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	return u.Tokens, nil
}

// Adjust credits (amount > 0) or debits (amount < 0) tokens outside the
// reward rules. A debit never takes the balance below zero.
func (s *BalanceService) Adjust(ctx context.Context, userID, amount int64, reason string) (int64, error) {
	if amount == 0 {
		return 0, domain.ErrInvalidAmount
	}
	meta := map[string]interface{}{"reason": reason}

	var (
		balance int64
		err     error
	)
	if amount > 0 {
		balance, err = s.ledger.CreditTokens(ctx, userID, amount, domain.TxAdjustment, meta)
		if err == nil {
			TokensMoved.WithLabelValues("credit", domain.TxAdjustment).Add(float64(amount))
		}
	} else {
		balance, err = s.ledger.DebitTokens(ctx, userID, -amount, domain.TxAdjustment, meta)
		if err == nil {
			TokensMoved.WithLabelValues("debit", domain.TxAdjustment).Add(float64(-amount))
		}
	}
	if err != nil {
		return 0, fmt.Errorf("adjust balance: %w", err)
	}

	logger.Info("balance adjusted", "user_id", userID, "amount", amount, "reason", reason, "balance", balance)
	return balance, nil
}

// GetTransactionHistory returns user's token ledger, newest first
func (s *BalanceService) GetTransactionHistory(ctx context.Context, userID int64, limit int) ([]*domain.Transaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.ledger.Transactions(ctx, userID, limit)
}

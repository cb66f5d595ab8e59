package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"fitquest/internal/domain"
	"fitquest/internal/logger"
)

// PremiumService sells premium tiers and enforces their expiry lazily.
type PremiumService struct {
	store  SubscriptionStore
	ledger LedgerStore
	badges *BadgeService
	events Publisher
	now    Clock
	plans  map[string]domain.PremiumPlan
}

func NewPremiumService(store SubscriptionStore, ledger LedgerStore, badges *BadgeService, events Publisher, now Clock, plans map[string]domain.PremiumPlan) *PremiumService {
	if events == nil {
		events = nopPublisher{}
	}
	if now == nil {
		now = SystemClock(time.UTC)
	}
	return &PremiumService{store: store, ledger: ledger, badges: badges, events: events, now: now, plans: plans}
}

// Plans lists the purchasable plans by duration.
func (s *PremiumService) Plans() []domain.PremiumPlan {
	out := make([]domain.PremiumPlan, 0, len(s.plans))
	for _, p := range s.plans {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DurationDays < out[j].DurationDays })
	return out
}

// BuyPremium buys plan with method. New time stacks on top of any
// unexpired premium.
func (s *PremiumService) BuyPremium(ctx context.Context, userID int64, planName string, method domain.PaymentMethod) (*domain.PremiumPurchase, error) {
	plan, ok := s.plans[planName]
	if !ok || planName == "" {
		return nil, domain.ErrInvalidPlan
	}
	if !method.Valid() {
		return nil, domain.ErrInvalidMethod
	}
	if method == domain.PayTokens && plan.TokenCost <= 0 {
		return nil, domain.ErrPlanNotBuyableWithTokens
	}

	purchase, err := s.store.Purchase(ctx, userID, plan, method, s.now())
	if err != nil {
		return nil, err
	}
	if method == domain.PayTokens {
		TokensMoved.WithLabelValues("debit", domain.TxPremiumPurchase).Add(float64(plan.TokenCost))
	}

	logger.Info("premium purchased", "user_id", userID, "plan", planName, "method", method, "premium_until", purchase.PremiumUntil)

	if _, err := s.badges.Grant(ctx, userID, domain.BadgePremium); err != nil {
		logger.Warn("premium badge grant failed", "user_id", userID, "error", err)
	}
	s.events.Publish(domain.Event{Type: domain.EventPremium, UserID: userID, Payload: purchase, At: s.now()})
	return purchase, nil
}

// DowngradeIfExpired reverts an expired premium role to user.
func (s *PremiumService) DowngradeIfExpired(ctx context.Context, userID int64) (bool, error) {
	changed, err := s.ledger.DowngradeIfExpired(ctx, userID, s.now())
	if err != nil {
		return false, fmt.Errorf("downgrade premium: %w", err)
	}
	if changed {
		PremiumDowngrades.Inc()
		logger.Info("premium expired", "user_id", userID)
	}
	return changed, nil
}

// IsPremium reports current premium access, downgrading first if expired.
func (s *PremiumService) IsPremium(ctx context.Context, userID int64) (bool, error) {
	if _, err := s.DowngradeIfExpired(ctx, userID); err != nil {
		return false, err
	}
	u, err := s.ledger.GetUser(ctx, userID)
	if err != nil {
		return false, err
	}
	return u.PremiumActive(s.now()), nil
}

// SweepExpired downgrades every expired premium user.
func (s *PremiumService) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.ledger.DowngradeAllExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("sweep premium: %w", err)
	}
	if n > 0 {
		PremiumDowngrades.Add(float64(n))
	}
	return n, nil
}

func (s *PremiumService) History(ctx context.Context, userID int64) ([]*domain.SubscriptionRecord, error) {
	return s.store.History(ctx, userID)
}

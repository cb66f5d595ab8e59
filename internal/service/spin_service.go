package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"fitquest/internal/domain"
	"fitquest/internal/logger"
)

// SpinService runs the daily lucky wheel.
type SpinService struct {
	store      SpinStore
	quests     *QuestService
	badges     *BadgeService
	events     Publisher
	now        Clock
	respinCost int64
	pick       func(n int) (int, error)
}

func NewSpinService(store SpinStore, quests *QuestService, badges *BadgeService, events Publisher, now Clock, respinCost int64) *SpinService {
	if events == nil {
		events = nopPublisher{}
	}
	if now == nil {
		now = SystemClock(time.UTC)
	}
	return &SpinService{
		store:      store,
		quests:     quests,
		badges:     badges,
		events:     events,
		now:        now,
		respinCost: respinCost,
		pick:       randomIndex,
	}
}

// randomIndex returns a uniform index in [0, n).
func randomIndex(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}

// Spin draws a prize. The first spin of a calendar day is free; with force a
// further spin costs the re-spin price.
func (s *SpinService) Spin(ctx context.Context, userID int64, force bool) (*domain.SpinResult, error) {
	prizes, err := s.store.ActivePrizes(ctx)
	if err != nil {
		return nil, fmt.Errorf("load prizes: %w", err)
	}
	if len(prizes) == 0 {
		return nil, domain.ErrNoPrizesConfigured
	}

	idx, err := s.pick(len(prizes))
	if err != nil {
		return nil, fmt.Errorf("draw prize: %w", err)
	}
	prize := *prizes[idx]

	now := s.now()
	spin := &domain.Spin{
		UserID:     userID,
		PrizeLabel: prize.Label,
		PrizeType:  prize.Type,
		PrizeValue: prize.Value,
		SpinDay:    domain.Day(now),
		SpunAt:     now,
	}

	payout, free, err := s.store.LogFreeSpin(ctx, spin)
	if err != nil {
		return nil, fmt.Errorf("log spin: %w", err)
	}
	if !free {
		if !force {
			return nil, domain.ErrAlreadySpun
		}
		spin.Paid = true
		if payout, err = s.store.LogPaidSpin(ctx, spin, s.respinCost); err != nil {
			return nil, err
		}
		TokensMoved.WithLabelValues("debit", domain.TxRespin).Add(float64(s.respinCost))
	}
	if prize.Type == domain.PrizeTokens {
		TokensMoved.WithLabelValues("credit", domain.TxSpinPrize).Add(float64(prize.Value))
	}

	result := &domain.SpinResult{Prize: prize, Paid: spin.Paid, Tokens: payout.Tokens, PremiumUntil: payout.PremiumUntil}

	if err := s.quests.MarkDone(ctx, userID, domain.QuestSpinLucky); err != nil {
		logger.Warn("spin quest update failed", "user_id", userID, "error", err)
	}

	count, err := s.store.CountSpins(ctx, userID)
	if err != nil {
		logger.Warn("spin count failed", "user_id", userID, "error", err)
	} else if err := s.badges.GrantAll(ctx, userID, domain.SpinBadges(count)); err != nil {
		logger.Warn("spin badge grant failed", "user_id", userID, "error", err)
	}

	s.events.Publish(domain.Event{Type: domain.EventSpin, UserID: userID, Payload: result, At: now})
	return result, nil
}

// Status reports whether today's free spin is used.
func (s *SpinService) Status(ctx context.Context, userID int64) (*domain.SpinStatus, error) {
	last, err := s.store.LastSpin(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load last spin: %w", err)
	}
	st := domain.SpinStatusAt(last, s.now())
	return &st, nil
}

func (s *SpinService) Prizes(ctx context.Context) ([]*domain.Prize, error) {
	return s.store.ActivePrizes(ctx)
}

func (s *SpinService) RespinCost() int64 {
	return s.respinCost
}

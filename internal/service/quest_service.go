package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fitquest/internal/domain"
	"fitquest/internal/logger"
)

// QuestService runs the daily quest lifecycle: pending, done, claimed.
type QuestService struct {
	store   QuestStore
	rewards *RewardService
	events  Publisher
	now     Clock
}

func NewQuestService(store QuestStore, rewards *RewardService, events Publisher, now Clock) *QuestService {
	if events == nil {
		events = nopPublisher{}
	}
	if now == nil {
		now = SystemClock(time.UTC)
	}
	return &QuestService{store: store, rewards: rewards, events: events, now: now}
}

func (s *QuestService) today() time.Time {
	return domain.Day(s.now())
}

// EnsureToday creates today's quest rows for the user if missing.
func (s *QuestService) EnsureToday(ctx context.Context, userID int64) error {
	if err := s.store.EnsureDay(ctx, userID, s.today()); err != nil {
		return fmt.Errorf("ensure daily quests: %w", err)
	}
	return nil
}

// MarkDone completes a quest for today. Calling it again is a no-op.
func (s *QuestService) MarkDone(ctx context.Context, userID int64, code string) error {
	return s.MarkDoneOn(ctx, userID, code, s.today())
}

// MarkDoneOn completes a quest for the given day. The row is created first
// so a trigger before the day's first login still counts.
func (s *QuestService) MarkDoneOn(ctx context.Context, userID int64, code string, day time.Time) error {
	day = domain.Day(day)
	if err := s.store.EnsureDay(ctx, userID, day); err != nil {
		return fmt.Errorf("ensure daily quests: %w", err)
	}
	changed, err := s.store.MarkDone(ctx, userID, code, day, s.now())
	if err != nil {
		return fmt.Errorf("mark quest %s done: %w", code, err)
	}
	if changed {
		logger.Debug("quest done", "user_id", userID, "code", code)
	}
	return nil
}

// Claim pays out a done quest exactly once.
func (s *QuestService) Claim(ctx context.Context, userID int64, code string) (*domain.QuestClaim, error) {
	day := s.today()

	q, err := s.store.Get(ctx, userID, code, day)
	if err != nil {
		return nil, err
	}
	switch q.State {
	case domain.QuestPending:
		return nil, domain.ErrQuestNotDone
	case domain.QuestClaimed:
		return nil, domain.ErrQuestAlreadyClaimed
	}

	xp, change, ok, err := s.store.Claim(ctx, userID, code, day, s.now(), s.rewards.bonus)
	if err != nil {
		return nil, fmt.Errorf("claim quest %s: %w", code, err)
	}
	if !ok {
		// lost the race to a concurrent claim
		return nil, domain.ErrQuestAlreadyClaimed
	}
	res := s.rewards.settle(userID, xp, change)

	claim := &domain.QuestClaim{Code: code, XPReward: xp, Result: res}
	s.events.Publish(domain.Event{Type: domain.EventQuestClaimed, UserID: userID, Payload: claim, At: s.now()})
	return claim, nil
}

// ClaimAll claims every done quest of today and returns the XP granted.
// Quests claimed concurrently by another call are skipped.
func (s *QuestService) ClaimAll(ctx context.Context, userID int64) (int64, *domain.XPResult, error) {
	quests, err := s.store.ListDay(ctx, userID, s.today())
	if err != nil {
		return 0, nil, fmt.Errorf("list daily quests: %w", err)
	}

	var total int64
	var last *domain.XPResult
	for _, q := range quests {
		if !q.CanClaim() {
			continue
		}
		claim, err := s.Claim(ctx, userID, q.Code)
		if errors.Is(err, domain.ErrQuestAlreadyClaimed) {
			continue
		}
		if err != nil {
			return total, last, err
		}
		total += claim.XPReward
		last = claim.Result
	}
	return total, last, nil
}

// Today lists the user's quests for today, creating them if needed.
func (s *QuestService) Today(ctx context.Context, userID int64) ([]*domain.DailyQuest, error) {
	day := s.today()
	if err := s.store.EnsureDay(ctx, userID, day); err != nil {
		return nil, fmt.Errorf("ensure daily quests: %w", err)
	}
	return s.store.ListDay(ctx, userID, day)
}

// Purge removes quest rows older than retentionDays.
func (s *QuestService) Purge(ctx context.Context, retentionDays int) (int64, error) {
	cutoff := s.today().AddDate(0, 0, -retentionDays)
	return s.store.PurgeBefore(ctx, cutoff)
}

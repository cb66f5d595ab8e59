package service

import (
	"context"
	"fmt"
	"time"

	"fitquest/internal/domain"
	"fitquest/internal/logger"
)

// RewardService turns XP grants into levels and level-up tokens.
type RewardService struct {
	ledger LedgerStore
	levels *domain.LevelTable
	events Publisher
	now    Clock
}

func NewRewardService(ledger LedgerStore, levels *domain.LevelTable, events Publisher, now Clock) *RewardService {
	if events == nil {
		events = nopPublisher{}
	}
	if now == nil {
		now = SystemClock(time.UTC)
	}
	return &RewardService{ledger: ledger, levels: levels, events: events, now: now}
}

// LoadLevelTable reads and validates the level table.
func LoadLevelTable(ctx context.Context, store LevelStore) (*domain.LevelTable, error) {
	rows, err := store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load levels: %w", err)
	}
	return domain.NewLevelTable(rows)
}

func (s *RewardService) Levels() *domain.LevelTable {
	return s.levels
}

// ApplyXP adds delta XP to the user and credits the reward of every level
// crossed. It is not idempotent: callers guard against double grants.
func (s *RewardService) ApplyXP(ctx context.Context, userID, delta int64) (*domain.XPResult, error) {
	if delta <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	change, err := s.ledger.AddXP(ctx, userID, delta, s.now(), s.bonus)
	if err != nil {
		return nil, fmt.Errorf("add xp: %w", err)
	}
	return s.settle(userID, delta, change), nil
}

// bonus is the level-up token reward handed to stores that book XP
// inside their own transaction.
func (s *RewardService) bonus(oldXP, newXP int64) int64 {
	return s.levels.LevelUpTokens(oldXP, newXP)
}

// settle reports an XP grant the store already committed.
func (s *RewardService) settle(userID, delta int64, change domain.XPChange) *domain.XPResult {
	XPGranted.Add(float64(delta))
	if change.RewardedTokens > 0 {
		TokensMoved.WithLabelValues("credit", domain.TxLevelUp).Add(float64(change.RewardedTokens))
	}

	res := s.levels.Resolve(change)
	if res.LeveledUp {
		logger.Info("level up", "user_id", userID, "level", res.Level, "rewarded_tokens", res.RewardedTokens)
		s.events.Publish(domain.Event{Type: domain.EventLevelUp, UserID: userID, Payload: res, At: s.now()})
	}
	return &res
}

// Progress reports the user's current level standing without changing it.
func (s *RewardService) Progress(ctx context.Context, userID int64) (*domain.XPResult, error) {
	u, err := s.ledger.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	level, progress, span := s.levels.Progress(u.XP)
	return &domain.XPResult{
		TotalXP:         u.XP,
		Level:           level.Level,
		ProgressInLevel: progress,
		XPForThisLevel:  span,
		Tokens:          u.Tokens,
	}, nil
}

// Leaderboard returns the top users by XP with their levels.
func (s *RewardService) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	users, err := s.ledger.TopByXP(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]LeaderboardEntry, 0, len(users))
	for i, u := range users {
		out = append(out, LeaderboardEntry{
			Rank:     i + 1,
			UserID:   u.ID,
			Username: u.Username,
			XP:       u.XP,
			Level:    s.levels.ForXP(u.XP).Level,
		})
	}
	return out, nil
}

// DailyXP returns the XP earned by the user on the calendar day of day.
func (s *RewardService) DailyXP(ctx context.Context, userID int64, day time.Time) (int64, error) {
	return s.ledger.DailyXP(ctx, userID, domain.Day(day))
}

type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	XP       int64  `json:"xp"`
	Level    int    `json:"level"`
}

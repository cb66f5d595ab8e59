package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fitquest/internal/domain"
	"fitquest/internal/logger"
)

// ActivityService handles the login and social triggers of the engine.
type ActivityService struct {
	ledger  LedgerStore
	friends FriendStore
	quests  *QuestService
	badges  *BadgeService
	premium *PremiumService
	now     Clock
}

func NewActivityService(ledger LedgerStore, friends FriendStore, quests *QuestService, badges *BadgeService, premium *PremiumService, now Clock) *ActivityService {
	if now == nil {
		now = SystemClock(time.UTC)
	}
	return &ActivityService{ledger: ledger, friends: friends, quests: quests, badges: badges, premium: premium, now: now}
}

// LoginResult is returned to the client after a session starts.
type LoginResult struct {
	User      *domain.User         `json:"user"`
	Streak    int                  `json:"streak"`
	IsPremium bool                 `json:"isPremium"`
	Quests    []*domain.DailyQuest `json:"quests"`
}

// RecordLogin prepares today's quests, completes DAILY_LOGIN, advances the
// login streak and applies lazy premium expiry.
func (s *ActivityService) RecordLogin(ctx context.Context, userID int64) (*LoginResult, error) {
	if err := s.quests.EnsureToday(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.quests.MarkDone(ctx, userID, domain.QuestDailyLogin); err != nil {
		return nil, err
	}

	streak, err := s.updateStreak(ctx, userID)
	if err != nil {
		return nil, err
	}

	isPremium, err := s.premium.IsPremium(ctx, userID)
	if err != nil {
		return nil, err
	}

	u, err := s.ledger.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	quests, err := s.quests.Today(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: u, Streak: streak, IsPremium: isPremium, Quests: quests}, nil
}

// updateStreak applies the streak rule with a compare-and-set on last_login,
// so two concurrent logins advance the streak once.
func (s *ActivityService) updateStreak(ctx context.Context, userID int64) (int, error) {
	u, err := s.ledger.GetUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	now := s.now()
	next, changed := domain.NextLoginStreak(u.LastLogin, u.LoginStreak, now)
	if !changed {
		return u.LoginStreak, nil
	}

	ok, err := s.ledger.UpdateLoginStreak(ctx, userID, u.LastLogin, next, now)
	if err != nil {
		return 0, fmt.Errorf("update login streak: %w", err)
	}
	if !ok {
		// another login got there first
		fresh, err := s.ledger.GetUser(ctx, userID)
		if err != nil {
			return 0, err
		}
		return fresh.LoginStreak, nil
	}

	if err := s.badges.GrantAll(ctx, userID, domain.StreakBadges(next)); err != nil {
		logger.Warn("streak badge grant failed", "user_id", userID, "error", err)
	}
	return next, nil
}

// RecordMessage completes MESSAGE_FRIEND for the sender.
func (s *ActivityService) RecordMessage(ctx context.Context, senderID, receiverID int64) error {
	if receiverID == 0 || receiverID == senderID {
		return domain.ErrMissingData
	}
	return s.quests.MarkDone(ctx, senderID, domain.QuestMessageFriend)
}

func (s *ActivityService) RequestFriend(ctx context.Context, userID, friendID int64) error {
	if friendID == 0 || friendID == userID {
		return domain.ErrMissingData
	}
	return s.friends.Request(ctx, userID, friendID)
}

// AcceptFriend accepts a pending request from friendID. Each side gets the
// first-friend badge when this is their first friendship.
func (s *ActivityService) AcceptFriend(ctx context.Context, userID, friendID int64) error {
	ok, err := s.friends.Accept(ctx, userID, friendID)
	if err != nil {
		return fmt.Errorf("accept friend: %w", err)
	}
	if !ok {
		return domain.ErrUserNotFound
	}

	for _, uid := range []int64{userID, friendID} {
		n, err := s.friends.Count(ctx, uid)
		if err != nil {
			logger.Warn("friend count failed", "user_id", uid, "error", err)
			continue
		}
		if n == 1 {
			if _, err := s.badges.Grant(ctx, uid, domain.BadgeFirstFriend); err != nil {
				logger.Warn("first friend badge failed", "user_id", uid, "error", err)
			}
		}
	}
	return nil
}

func (s *ActivityService) RejectFriend(ctx context.Context, userID, friendID int64) error {
	return s.friends.Reject(ctx, userID, friendID)
}

func (s *ActivityService) Friends(ctx context.Context, userID int64) ([]*domain.Friend, error) {
	return s.friends.List(ctx, userID)
}

func (s *ActivityService) FriendRequests(ctx context.Context, userID int64) ([]*domain.Friend, error) {
	return s.friends.Pending(ctx, userID)
}

// Register creates a user with a unique username.
func (s *ActivityService) Register(ctx context.Context, username string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, domain.ErrMissingData
	}
	return s.ledger.CreateUser(ctx, username)
}

// Rename changes the username. Taken names fail with ErrUsernameExists.
func (s *ActivityService) Rename(ctx context.Context, userID int64, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return domain.ErrMissingData
	}
	return s.ledger.UpdateUsername(ctx, userID, username)
}

package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"fitquest/internal/domain"
	"fitquest/internal/logger"
)

// BadgeService grants achievement badges. Grants are idempotent.
type BadgeService struct {
	store  BadgeStore
	events Publisher
	now    Clock
}

func NewBadgeService(store BadgeStore, events Publisher, now Clock) *BadgeService {
	if events == nil {
		events = nopPublisher{}
	}
	if now == nil {
		now = SystemClock(time.UTC)
	}
	return &BadgeService{store: store, events: events, now: now}
}

// Grant gives badgeID to the user. Holding it already is not an error.
func (s *BadgeService) Grant(ctx context.Context, userID, badgeID int64) (bool, error) {
	granted, err := s.store.Grant(ctx, userID, badgeID)
	if err != nil {
		return false, fmt.Errorf("grant badge %d: %w", badgeID, err)
	}
	if granted {
		BadgesGranted.WithLabelValues(strconv.FormatInt(badgeID, 10)).Inc()
		logger.Info("badge granted", "user_id", userID, "badge_id", badgeID)
		s.events.Publish(domain.Event{
			Type:    domain.EventBadgeGranted,
			UserID:  userID,
			Payload: map[string]int64{"badgeId": badgeID},
			At:      s.now(),
		})
	}
	return granted, nil
}

// GrantAll grants every id and stops at the first failure.
func (s *BadgeService) GrantAll(ctx context.Context, userID int64, ids []int64) error {
	for _, id := range ids {
		if _, err := s.Grant(ctx, userID, id); err != nil {
			return err
		}
	}
	return nil
}

func (s *BadgeService) All(ctx context.Context) ([]*domain.Badge, error) {
	return s.store.All(ctx)
}

func (s *BadgeService) ForUser(ctx context.Context, userID int64) ([]*domain.UserBadge, error) {
	return s.store.ForUser(ctx, userID)
}

package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fitquest/internal/config"
	"fitquest/internal/domain"
	"fitquest/internal/logger"
)

// ChallengeService runs pairwise challenges between friends.
type ChallengeService struct {
	store   ChallengeStore
	rewards *RewardService
	events  Publisher
	now     Clock
	payout  config.ChallengeRewards
}

func NewChallengeService(store ChallengeStore, rewards *RewardService, events Publisher, now Clock, payout config.ChallengeRewards) *ChallengeService {
	if events == nil {
		events = nopPublisher{}
	}
	if now == nil {
		now = SystemClock(time.UTC)
	}
	return &ChallengeService{
		store:   store,
		rewards: rewards,
		events:  events,
		now:     now,
		payout:  payout,
	}
}

// SendRequest describes a new challenge invite.
type SendRequest struct {
	SenderID            int64   `json:"-"`
	ReceiverID          int64   `json:"receiverId"`
	Type                string  `json:"type"`
	CustomValue         *int64  `json:"customValue,omitempty"`
	CustomDurationValue *int    `json:"customDurationValue,omitempty"`
	CustomDurationUnit  *string `json:"customDurationUnit,omitempty"`
}

// Send creates a pending invite.
func (s *ChallengeService) Send(ctx context.Context, req SendRequest) (*domain.ChallengeInvite, error) {
	if req.ReceiverID == 0 || req.ReceiverID == req.SenderID || strings.TrimSpace(req.Type) == "" {
		return nil, domain.ErrMissingData
	}
	if req.CustomValue != nil && *req.CustomValue <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	if req.CustomDurationValue != nil && *req.CustomDurationValue <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	tpl, err := s.store.TemplateByType(ctx, req.Type)
	if err != nil {
		return nil, err
	}

	inv := &domain.ChallengeInvite{
		ChallengeID:         tpl.ID,
		SenderID:            req.SenderID,
		ReceiverID:          req.ReceiverID,
		CustomValue:         req.CustomValue,
		CustomDurationValue: req.CustomDurationValue,
		CustomDurationUnit:  req.CustomDurationUnit,
		Status:              domain.InvitePending,
		Challenge:           *tpl,
	}
	if err := s.store.CreateInvite(ctx, inv); err != nil {
		return nil, fmt.Errorf("create invite: %w", err)
	}
	return inv, nil
}

// Accept starts the challenge. Only the receiver of a pending invite can
// accept it, and only once.
func (s *ChallengeService) Accept(ctx context.Context, userID, inviteID int64) (*domain.ChallengeInvite, error) {
	now := s.now()
	inv, err := s.store.Accept(ctx, inviteID, userID, now, func(inv *domain.ChallengeInvite) time.Time {
		value, unit := inv.DurationSpec()
		return domain.ChallengeExpiry(now, value, unit)
	})
	if err != nil {
		return nil, err
	}
	logger.Info("challenge accepted", "invite_id", inviteID, "expires_at", inv.ExpiresAt)
	return inv, nil
}

// Reject closes a pending invite addressed to userID.
func (s *ChallengeService) Reject(ctx context.Context, userID, inviteID int64) error {
	return s.store.Reject(ctx, inviteID, userID)
}

// IncrementProgress adds delta to the user's counter on an active invite.
// It reports false when the invite is no longer active.
func (s *ChallengeService) IncrementProgress(ctx context.Context, inviteID, userID, delta int64) (bool, error) {
	if delta < 0 {
		return false, domain.ErrInvalidAmount
	}
	if delta == 0 {
		return false, nil
	}
	return s.store.IncrementProgress(ctx, inviteID, userID, delta, s.now())
}

// CompleteFor runs CheckAndComplete on behalf of userID, who must be the
// sender or receiver. Anyone else gets domain.ErrInviteNotFound.
func (s *ChallengeService) CompleteFor(ctx context.Context, userID, inviteID int64) (*domain.ChallengeOutcome, error) {
	inv, _, err := s.store.Progress(ctx, inviteID)
	if err != nil {
		return nil, err
	}
	if inv.SenderID != userID && inv.ReceiverID != userID {
		return nil, domain.ErrInviteNotFound
	}
	return s.CheckAndComplete(ctx, inviteID)
}

// CheckAndComplete completes the invite when a participant reached the
// target. Rewards are paid only by the call that performed the completion.
func (s *ChallengeService) CheckAndComplete(ctx context.Context, inviteID int64) (*domain.ChallengeOutcome, error) {
	inv, rows, err := s.store.Progress(ctx, inviteID)
	if err != nil {
		return nil, err
	}
	if inv.CompletedAt != nil || len(rows) == 0 {
		return nil, nil
	}

	winner, loser, ok := domain.PickWinner(rows, inv.Target())
	if !ok {
		return nil, nil
	}

	outcome := &domain.ChallengeOutcome{InviteID: inviteID, WinnerID: winner.UserID}
	payouts := []domain.ChallengePayout{
		{UserID: winner.UserID, Role: "winner", XP: s.payout.WinnerXP, Tokens: s.payout.WinnerTokens},
	}
	if loser != nil {
		outcome.LoserID = &loser.UserID
		payouts = append(payouts, domain.ChallengePayout{
			UserID: loser.UserID, Role: "loser", XP: s.payout.LoserXP, Tokens: s.payout.LoserTokens,
		})
	}

	changes, done, err := s.store.Complete(ctx, inviteID, s.now(), payouts, s.rewards.bonus)
	if err != nil {
		return nil, fmt.Errorf("complete challenge: %w", err)
	}
	if !done {
		return nil, nil
	}

	for i, p := range payouts {
		if p.XP > 0 {
			s.rewards.settle(p.UserID, p.XP, changes[i])
		}
		if p.Tokens > 0 {
			TokensMoved.WithLabelValues("credit", domain.TxChallengeReward).Add(float64(p.Tokens))
		}
	}

	logger.Info("challenge completed", "invite_id", inviteID, "winner_id", winner.UserID)
	for _, uid := range []int64{inv.SenderID, inv.ReceiverID} {
		s.events.Publish(domain.Event{Type: domain.EventChallengeCompleted, UserID: uid, Payload: outcome, At: s.now()})
	}
	return outcome, nil
}

// FriendsToChallenge lists premium friends with no open challenge of the
// given type with userID.
func (s *ChallengeService) FriendsToChallenge(ctx context.Context, userID int64, challengeType string) ([]*domain.Friend, error) {
	if strings.TrimSpace(challengeType) == "" {
		return nil, domain.ErrMissingData
	}
	return s.store.FriendsToChallenge(ctx, userID, challengeType, s.now())
}

func (s *ChallengeService) Pending(ctx context.Context, userID int64) ([]*domain.ChallengeInvite, error) {
	return s.store.Pending(ctx, userID)
}

func (s *ChallengeService) Accepted(ctx context.Context, userID int64) ([]*domain.ChallengeInvite, error) {
	return s.store.Accepted(ctx, userID, s.now())
}

// Active lists invites that still accept progress for userID.
func (s *ChallengeService) Active(ctx context.Context, userID int64) ([]*domain.ChallengeInvite, error) {
	return s.store.ActiveForUser(ctx, userID, s.now())
}

func (s *ChallengeService) Templates(ctx context.Context) ([]*domain.Challenge, error) {
	return s.store.Templates(ctx)
}

func (s *ChallengeService) Standings(ctx context.Context, userID int64) ([]*domain.ChallengeStanding, error) {
	return s.store.Standings(ctx, userID)
}

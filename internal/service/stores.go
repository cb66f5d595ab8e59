package service

import (
	"context"
	"time"

	"fitquest/internal/domain"
)

// LedgerStore owns the per-user counters. Every method is a single atomic
// step on the store side.
type LedgerStore interface {
	GetUser(ctx context.Context, userID int64) (*domain.User, error)
	// CreateUser fails with domain.ErrUsernameExists.
	CreateUser(ctx context.Context, username string) (*domain.User, error)
	// AddXP increments xp by delta and, in the same transaction, credits the
	// tokens returned by bonus(oldXP, newXP).
	AddXP(ctx context.Context, userID, delta int64, day time.Time, bonus func(oldXP, newXP int64) int64) (domain.XPChange, error)
	CreditTokens(ctx context.Context, userID, amount int64, txType string, meta map[string]interface{}) (int64, error)
	// DebitTokens fails with domain.ErrNotEnoughTokens when the balance is short.
	DebitTokens(ctx context.Context, userID, amount int64, txType string, meta map[string]interface{}) (int64, error)
	// ExtendPremium locks the user row and stores extend(current) as the new
	// premium expiry with role premium.
	ExtendPremium(ctx context.Context, userID int64, extend func(current *time.Time) time.Time) (time.Time, error)
	DowngradeIfExpired(ctx context.Context, userID int64, now time.Time) (bool, error)
	DowngradeAllExpired(ctx context.Context, now time.Time) (int64, error)
	// UpdateLoginStreak stores the new streak only if last_login still equals
	// prevLastLogin.
	UpdateLoginStreak(ctx context.Context, userID int64, prevLastLogin *time.Time, streak int, at time.Time) (bool, error)
	UpdateUsername(ctx context.Context, userID int64, username string) error
	TopByXP(ctx context.Context, limit int) ([]*domain.User, error)
	DailyXP(ctx context.Context, userID int64, day time.Time) (int64, error)
	Transactions(ctx context.Context, userID int64, limit int) ([]*domain.Transaction, error)
}

type LevelStore interface {
	All(ctx context.Context) ([]domain.Level, error)
}

type QuestStore interface {
	// EnsureDay creates a pending row for every quest template, skipping
	// rows that already exist.
	EnsureDay(ctx context.Context, userID int64, day time.Time) error
	// MarkDone flips pending to done and reports whether this call did it.
	MarkDone(ctx context.Context, userID int64, code string, day, at time.Time) (bool, error)
	// Get fails with domain.ErrQuestNotFound when no row exists.
	Get(ctx context.Context, userID int64, code string, day time.Time) (*domain.DailyQuest, error)
	// Claim flips done to claimed and grants the quest's xp (with the
	// level-up tokens from bonus) in one transaction. ok is false when no
	// row changed. On error nothing is claimed.
	Claim(ctx context.Context, userID int64, code string, day, at time.Time, bonus func(oldXP, newXP int64) int64) (xpReward int64, change domain.XPChange, ok bool, err error)
	ListDay(ctx context.Context, userID int64, day time.Time) ([]*domain.DailyQuest, error)
	PurgeBefore(ctx context.Context, day time.Time) (int64, error)
}

type BadgeStore interface {
	// Grant reports whether this call created the grant.
	Grant(ctx context.Context, userID, badgeID int64) (bool, error)
	All(ctx context.Context) ([]*domain.Badge, error)
	ForUser(ctx context.Context, userID int64) ([]*domain.UserBadge, error)
}

type SpinStore interface {
	ActivePrizes(ctx context.Context) ([]*domain.Prize, error)
	// LogFreeSpin logs the spin and books its prize in one transaction. ok
	// is false when today's free spin is already used.
	LogFreeSpin(ctx context.Context, spin *domain.Spin) (payout domain.SpinPayout, ok bool, err error)
	// LogPaidSpin debits cost, logs the spin and books its prize in one
	// transaction. It fails with domain.ErrNotEnoughTokens and leaves the
	// balance untouched when the user cannot pay.
	LogPaidSpin(ctx context.Context, spin *domain.Spin, cost int64) (domain.SpinPayout, error)
	LastSpin(ctx context.Context, userID int64) (*time.Time, error)
	CountSpins(ctx context.Context, userID int64) (int64, error)
}

type ChallengeStore interface {
	Templates(ctx context.Context) ([]*domain.Challenge, error)
	// TemplateByType fails with domain.ErrChallengeNotFound.
	TemplateByType(ctx context.Context, challengeType string) (*domain.Challenge, error)
	CreateInvite(ctx context.Context, inv *domain.ChallengeInvite) error
	// Accept locks the invite, checks it is pending and addressed to
	// receiverID, stores accepted_at and expiry(invite) and creates both
	// progress rows, all in one transaction.
	Accept(ctx context.Context, inviteID, receiverID int64, at time.Time, expiry func(inv *domain.ChallengeInvite) time.Time) (*domain.ChallengeInvite, error)
	Reject(ctx context.Context, inviteID, receiverID int64) error
	Pending(ctx context.Context, userID int64) ([]*domain.ChallengeInvite, error)
	Accepted(ctx context.Context, userID int64, now time.Time) ([]*domain.ChallengeInvite, error)
	ActiveForUser(ctx context.Context, userID int64, now time.Time) ([]*domain.ChallengeInvite, error)
	// IncrementProgress adds delta only while the invite is active at now.
	IncrementProgress(ctx context.Context, inviteID, userID, delta int64, now time.Time) (bool, error)
	Progress(ctx context.Context, inviteID int64) (*domain.ChallengeInvite, []domain.ChallengeProgress, error)
	// Complete sets completed_at once and books payouts in the same
	// transaction. done reports whether this call completed the invite;
	// changes line up with payouts.
	Complete(ctx context.Context, inviteID int64, at time.Time, payouts []domain.ChallengePayout, bonus func(oldXP, newXP int64) int64) (changes []domain.XPChange, done bool, err error)
	FriendsToChallenge(ctx context.Context, userID int64, challengeType string, now time.Time) ([]*domain.Friend, error)
	Standings(ctx context.Context, userID int64) ([]*domain.ChallengeStanding, error)
}

type TournamentStore interface {
	// Get fails with domain.ErrTournamentNotFound.
	Get(ctx context.Context, tournamentID int64) (*domain.Tournament, error)
	Active(ctx context.Context, now time.Time) ([]*domain.Tournament, error)
	// Join reports false when the user already participates.
	Join(ctx context.Context, tournamentID, userID int64) (bool, error)
	Joined(ctx context.Context, userID int64, now time.Time) ([]*domain.Tournament, error)
	// IncrementProgress adds delta only while the tournament window holds now.
	IncrementProgress(ctx context.Context, tournamentID, userID, delta int64, now time.Time) (bool, error)
	Participants(ctx context.Context, tournamentID int64) ([]*domain.TournamentParticipant, error)
}

type WorkoutStore interface {
	// SaveSession stores the session and its logs in one transaction.
	SaveSession(ctx context.Context, s *domain.WorkoutSession, logs []*domain.ExerciseLog) (int64, error)
	CountSessions(ctx context.Context, userID int64) (int64, error)
	TotalCalories(ctx context.Context, userID int64) (float64, error)
	Sessions(ctx context.Context, userID int64, limit int) ([]*domain.WorkoutSession, error)
	DailyCalories(ctx context.Context, userID int64, from, to time.Time) ([]domain.DailyCalories, error)
}

type SubscriptionStore interface {
	// Purchase debits (for token purchases), extends premium and logs the
	// purchase in one transaction.
	Purchase(ctx context.Context, userID int64, plan domain.PremiumPlan, method domain.PaymentMethod, now time.Time) (*domain.PremiumPurchase, error)
	History(ctx context.Context, userID int64) ([]*domain.SubscriptionRecord, error)
}

type FriendStore interface {
	Request(ctx context.Context, userID, friendID int64) error
	// Accept reports whether a pending request from friendID was accepted.
	Accept(ctx context.Context, userID, friendID int64) (bool, error)
	Reject(ctx context.Context, userID, friendID int64) error
	Count(ctx context.Context, userID int64) (int64, error)
	List(ctx context.Context, userID int64) ([]*domain.Friend, error)
	Pending(ctx context.Context, userID int64) ([]*domain.Friend, error)
}

type AuditStore interface {
	Create(ctx context.Context, log *domain.AuditLog) error
	GetByUserID(ctx context.Context, userID int64, limit int) ([]*domain.AuditLog, error)
	GetRecent(ctx context.Context, category string, limit int) ([]*domain.AuditLog, error)
}

// Publisher receives reward events. Implementations must not block.
type Publisher interface {
	Publish(ev domain.Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(domain.Event) {}

// Clock returns the engine's notion of now. The location of the returned
// time decides calendar days.
type Clock func() time.Time

// SystemClock returns a Clock in loc.
func SystemClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return func() time.Time { return time.Now().In(loc) }
}

package service

import (
	"fitquest/internal/config"
	"fitquest/internal/domain"
)

// Stores groups the storage dependencies of the engine.
type Stores struct {
	Ledger        LedgerStore
	Quests        QuestStore
	Badges        BadgeStore
	Spins         SpinStore
	Challenges    ChallengeStore
	Tournaments   TournamentStore
	Workouts      WorkoutStore
	Subscriptions SubscriptionStore
	Friends       FriendStore
	Audit         AuditStore
}

// Engine is the wired set of services.
type Engine struct {
	Rewards     *RewardService
	Badges      *BadgeService
	Quests      *QuestService
	Spins       *SpinService
	Challenges  *ChallengeService
	Tournaments *TournamentService
	Workouts    *WorkoutService
	Premium     *PremiumService
	Activity    *ActivityService
	Balance     *BalanceService
	Audit       *AuditService
}

// NewEngine wires every service over st. events may be nil.
func NewEngine(st Stores, levels *domain.LevelTable, eco config.Economy, events Publisher, now Clock) *Engine {
	if events == nil {
		events = nopPublisher{}
	}
	e := &Engine{}
	e.Rewards = NewRewardService(st.Ledger, levels, events, now)
	e.Badges = NewBadgeService(st.Badges, events, now)
	e.Quests = NewQuestService(st.Quests, e.Rewards, events, now)
	e.Spins = NewSpinService(st.Spins, e.Quests, e.Badges, events, now, eco.RespinCost)
	e.Challenges = NewChallengeService(st.Challenges, e.Rewards, events, now, eco.Challenge)
	e.Tournaments = NewTournamentService(st.Tournaments, now)
	e.Workouts = NewWorkoutService(st.Workouts, e.Quests, e.Badges, e.Challenges, e.Tournaments, now)
	e.Premium = NewPremiumService(st.Subscriptions, st.Ledger, e.Badges, events, now, eco.Plans)
	e.Activity = NewActivityService(st.Ledger, st.Friends, e.Quests, e.Badges, e.Premium, now)
	e.Balance = NewBalanceService(st.Ledger)
	e.Audit = NewAuditService(st.Audit)
	return e
}

package scheduler

import (
	"context"
	"errors"
	"time"

	"fitquest/internal/logger"

	"github.com/go-co-op/gocron/v2"
)

type PremiumSweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

type QuestPurger interface {
	Purge(ctx context.Context, retentionDays int) (int64, error)
}

// Sweeper runs housekeeping jobs in the background. Premium expiry is also
// applied lazily on read, so the sweeps only keep stored roles tidy.
type Sweeper struct {
	sched         gocron.Scheduler
	premium       PremiumSweeper
	quests        QuestPurger
	retentionDays int
	timeout       time.Duration
}

func NewSweeper(premium PremiumSweeper, quests QuestPurger, interval time.Duration, retentionDays int) (*Sweeper, error) {
	if interval <= 0 {
		return nil, errors.New("sweep interval must be positive")
	}
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	s := &Sweeper{
		sched:         sched,
		premium:       premium,
		quests:        quests,
		retentionDays: retentionDays,
		timeout:       time.Minute,
	}

	if _, err := sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { s.sweepPremium(context.Background()) }),
		gocron.WithName("premium-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	); err != nil {
		return nil, err
	}

	if _, err := sched.NewJob(
		gocron.DurationJob(24*time.Hour),
		gocron.NewTask(func() { s.purgeQuests(context.Background()) }),
		gocron.WithName("quest-purge"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Sweeper) Start() {
	s.sched.Start()
	logger.Info("sweeper started", "jobs", len(s.sched.Jobs()))
}

func (s *Sweeper) Shutdown() error {
	return s.sched.Shutdown()
}

// RunOnce runs every job synchronously.
func (s *Sweeper) RunOnce(ctx context.Context) {
	s.sweepPremium(ctx)
	s.purgeQuests(ctx)
}

func (s *Sweeper) sweepPremium(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.premium.SweepExpired(ctx)
	if err != nil {
		logger.Error("premium sweep failed", "error", err)
		return
	}
	if n > 0 {
		logger.Info("premium sweep", "downgraded", n)
	}
}

func (s *Sweeper) purgeQuests(ctx context.Context) {
	if s.retentionDays <= 0 {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.quests.Purge(ctx, s.retentionDays)
	if err != nil {
		logger.Error("quest purge failed", "error", err)
		return
	}
	logger.Info("quest purge", "deleted", n, "retention_days", s.retentionDays)
}

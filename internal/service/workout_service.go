package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fitquest/internal/domain"
	"fitquest/internal/logger"

	"golang.org/x/sync/errgroup"
)

// Fan-out step names, also used as metric labels.
const (
	StepQuest       = "quest"
	StepBadges      = "badges"
	StepChallenges  = "challenges"
	StepTournaments = "tournaments"
)

// WorkoutService ingests finished sessions and distributes their progress.
type WorkoutService struct {
	store       WorkoutStore
	quests      *QuestService
	badges      *BadgeService
	challenges  *ChallengeService
	tournaments *TournamentService
	now         Clock
}

func NewWorkoutService(store WorkoutStore, quests *QuestService, badges *BadgeService, challenges *ChallengeService, tournaments *TournamentService, now Clock) *WorkoutService {
	if now == nil {
		now = SystemClock(time.UTC)
	}
	return &WorkoutService{
		store:       store,
		quests:      quests,
		badges:      badges,
		challenges:  challenges,
		tournaments: tournaments,
		now:         now,
	}
}

// IngestResult reports the saved session and any fan-out steps that failed.
type IngestResult struct {
	SessionID   int64    `json:"sessionId"`
	FailedSteps []string `json:"failedSteps,omitempty"`
}

type fanoutStep struct {
	name string
	run  func(ctx context.Context) error
}

// SaveWorkoutSession stores the session and its logs, then runs each fan-out
// step independently. Only a failure to store the session fails the call.
func (s *WorkoutService) SaveWorkoutSession(ctx context.Context, session *domain.WorkoutSession, logs []*domain.ExerciseLog) (*IngestResult, error) {
	if session == nil || session.UserID == 0 {
		return nil, domain.ErrMissingData
	}
	if session.CaloriesBurned < 0 || session.Duration < 0 {
		return nil, domain.ErrInvalidAmount
	}
	for _, l := range logs {
		if l == nil || strings.TrimSpace(l.ExerciseName) == "" {
			return nil, domain.ErrMissingData
		}
	}
	if session.StartTime.IsZero() {
		session.StartTime = s.now()
	}

	id, err := s.store.SaveSession(ctx, session, logs)
	if err != nil {
		return nil, fmt.Errorf("save workout session: %w", err)
	}
	session.SessionID = id

	userID := session.UserID
	tally := domain.Tally(logs)

	steps := []fanoutStep{
		{StepQuest, func(ctx context.Context) error {
			return s.quests.MarkDone(ctx, userID, domain.QuestAnyWorkout)
		}},
		{StepBadges, func(ctx context.Context) error {
			return s.evaluateBadges(ctx, userID)
		}},
		{StepChallenges, func(ctx context.Context) error {
			return s.applyChallenges(ctx, userID, tally)
		}},
		{StepTournaments, func(ctx context.Context) error {
			return s.applyTournaments(ctx, userID, tally)
		}},
	}

	res := &IngestResult{SessionID: id}
	log := logger.WithContext(ctx).With("session_id", id, "user_id", userID)
	for _, step := range steps {
		if err := step.run(ctx); err != nil {
			FanoutFailures.WithLabelValues(step.name).Inc()
			log.Error("workout fan-out step failed", "step", step.name, "error", err)
			res.FailedSteps = append(res.FailedSteps, step.name)
		}
	}
	return res, nil
}

func (s *WorkoutService) evaluateBadges(ctx context.Context, userID int64) error {
	var sessions int64
	var calories float64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.store.CountSessions(gctx, userID)
		sessions = n
		return err
	})
	g.Go(func() error {
		c, err := s.store.TotalCalories(gctx, userID)
		calories = c
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	ids := append(domain.SessionBadges(sessions), domain.CalorieBadges(calories)...)
	return s.badges.GrantAll(ctx, userID, ids)
}

// applyChallenges feeds every active invite. A failing invite does not stop
// the others; all failures are returned joined.
func (s *WorkoutService) applyChallenges(ctx context.Context, userID int64, tally domain.ExerciseTally) error {
	invites, err := s.challenges.Active(ctx, userID)
	if err != nil {
		return err
	}

	var errs []error
	for _, inv := range invites {
		delta := tally.ForUnit(inv.Challenge.Unit)
		if delta <= 0 {
			continue
		}
		if _, err := s.challenges.IncrementProgress(ctx, inv.ID, userID, delta); err != nil {
			errs = append(errs, fmt.Errorf("invite %d: %w", inv.ID, err))
			continue
		}
		if _, err := s.challenges.CheckAndComplete(ctx, inv.ID); err != nil {
			errs = append(errs, fmt.Errorf("complete invite %d: %w", inv.ID, err))
		}
	}
	return errors.Join(errs...)
}

func (s *WorkoutService) applyTournaments(ctx context.Context, userID int64, tally domain.ExerciseTally) error {
	joined, err := s.tournaments.Joined(ctx, userID)
	if err != nil {
		return err
	}

	var errs []error
	for _, t := range joined {
		delta := tally.ForPattern(t.TargetExercisePattern)
		if delta <= 0 {
			continue
		}
		if _, err := s.tournaments.IncrementProgress(ctx, t.ID, userID, delta); err != nil {
			errs = append(errs, fmt.Errorf("tournament %d: %w", t.ID, err))
		}
	}
	return errors.Join(errs...)
}

// Sessions lists the user's sessions with their exercise logs, newest first.
func (s *WorkoutService) Sessions(ctx context.Context, userID int64, limit int) ([]*domain.WorkoutSession, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.store.Sessions(ctx, userID, limit)
}

// DailyCalories returns per-day calorie totals for the last days days.
func (s *WorkoutService) DailyCalories(ctx context.Context, userID int64, days int) ([]domain.DailyCalories, error) {
	if days <= 0 || days > 366 {
		days = 7
	}
	to := domain.NextMidnight(s.now())
	from := to.AddDate(0, 0, -days)
	return s.store.DailyCalories(ctx, userID, from, to)
}

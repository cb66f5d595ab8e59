package service

import (
	"context"
	"fmt"
	"time"

	"fitquest/internal/domain"
)

// TournamentService tracks progress in time-boxed tournaments. Placement
// rewards are paid out by operators, not here.
type TournamentService struct {
	store TournamentStore
	now   Clock
}

func NewTournamentService(store TournamentStore, now Clock) *TournamentService {
	if now == nil {
		now = SystemClock(time.UTC)
	}
	return &TournamentService{store: store, now: now}
}

// Join adds the user to a tournament that has not ended yet.
func (s *TournamentService) Join(ctx context.Context, tournamentID, userID int64) (domain.JoinStatus, error) {
	t, err := s.store.Get(ctx, tournamentID)
	if err != nil {
		return "", err
	}
	if !s.now().Before(t.EndDate) {
		return "", domain.ErrTournamentClosed
	}

	joined, err := s.store.Join(ctx, tournamentID, userID)
	if err != nil {
		return "", fmt.Errorf("join tournament: %w", err)
	}
	if !joined {
		return domain.JoinAlreadyJoined, nil
	}
	return domain.JoinJoined, nil
}

// IncrementProgress adds delta while the tournament window is open.
// Contributions outside [start, end) are dropped and reported as false.
func (s *TournamentService) IncrementProgress(ctx context.Context, tournamentID, userID, delta int64) (bool, error) {
	if delta < 0 {
		return false, domain.ErrInvalidAmount
	}
	if delta == 0 {
		return false, nil
	}
	return s.store.IncrementProgress(ctx, tournamentID, userID, delta, s.now())
}

// Joined lists the user's tournaments that have not ended.
func (s *TournamentService) Joined(ctx context.Context, userID int64) ([]*domain.Tournament, error) {
	return s.store.Joined(ctx, userID, s.now())
}

// Active lists tournaments that have not ended, with participant counts.
func (s *TournamentService) Active(ctx context.Context) ([]*domain.Tournament, error) {
	return s.store.Active(ctx, s.now())
}

// Participants returns the leaderboard ordered by progress.
func (s *TournamentService) Participants(ctx context.Context, tournamentID int64) ([]*domain.TournamentParticipant, error) {
	if _, err := s.store.Get(ctx, tournamentID); err != nil {
		return nil, err
	}
	return s.store.Participants(ctx, tournamentID)
}

package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type countingPremium struct {
	calls atomic.Int64
	err   error
}

func (p *countingPremium) SweepExpired(context.Context) (int64, error) {
	p.calls.Add(1)
	return 2, p.err
}

type countingQuests struct {
	calls    atomic.Int64
	lastDays atomic.Int64
}

func (q *countingQuests) Purge(_ context.Context, days int) (int64, error) {
	q.calls.Add(1)
	q.lastDays.Store(int64(days))
	return 0, nil
}

func TestRunOnce(t *testing.T) {
	p, q := &countingPremium{}, &countingQuests{}
	s, err := NewSweeper(p, q, time.Minute, 30)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Shutdown()

	s.RunOnce(context.Background())
	if p.calls.Load() != 1 || q.calls.Load() != 1 || q.lastDays.Load() != 30 {
		t.Fatalf("premium=%d quests=%d days=%d", p.calls.Load(), q.calls.Load(), q.lastDays.Load())
	}
}

func TestRunOnceSkipsPurgeWithoutRetention(t *testing.T) {
	p, q := &countingPremium{err: errors.New("db down")}, &countingQuests{}
	s, err := NewSweeper(p, q, time.Minute, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Shutdown()

	s.RunOnce(context.Background())
	if p.calls.Load() != 1 {
		t.Fatalf("premium calls = %d", p.calls.Load())
	}
	if q.calls.Load() != 0 {
		t.Fatalf("purge ran with zero retention")
	}
}

func TestStartSweepsImmediately(t *testing.T) {
	p, q := &countingPremium{}, &countingQuests{}
	s, err := NewSweeper(p, q, time.Hour, 30)
	if err != nil {
		t.Fatal(err)
	}
	s.Start()
	defer s.Shutdown()

	deadline := time.Now().Add(2 * time.Second)
	for p.calls.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("premium sweep never ran")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestNewSweeperRejectsZeroInterval(t *testing.T) {
	if _, err := NewSweeper(&countingPremium{}, &countingQuests{}, 0, 30); err == nil {
		t.Fatal("expected error")
	}
}

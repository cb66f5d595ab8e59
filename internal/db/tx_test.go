package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type fakeTx struct {
	pgx.Tx
	commits   *int
	rollbacks *int
}

func (t fakeTx) Commit(ctx context.Context) error {
	*t.commits++
	return nil
}

func (t fakeTx) Rollback(ctx context.Context) error {
	*t.rollbacks++
	return nil
}

type fakeBeginner struct {
	begins    int
	commits   int
	rollbacks int
}

func (b *fakeBeginner) BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	b.begins++
	return fakeTx{commits: &b.commits, rollbacks: &b.rollbacks}, nil
}

func TestWithTxRetriesSerializationFailure(t *testing.T) {
	b := &fakeBeginner{}
	calls := 0
	err := WithTx(context.Background(), b, func(tx pgx.Tx) error {
		calls++
		if calls < 3 {
			return &pgconn.PgError{Code: codeSerializationFailure}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithTx: %v", err)
	}
	if calls != 3 || b.begins != 3 {
		t.Fatalf("expected 3 attempts, got calls=%d begins=%d", calls, b.begins)
	}
	if b.commits != 1 {
		t.Fatalf("expected one commit got %d", b.commits)
	}
}

func TestWithTxDoesNotRetryOtherErrors(t *testing.T) {
	b := &fakeBeginner{}
	boom := errors.New("boom")
	calls := 0
	err := WithTx(context.Background(), b, func(tx pgx.Tx) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom got %v", err)
	}
	if calls != 1 || b.commits != 0 || b.rollbacks != 1 {
		t.Fatalf("unexpected calls=%d commits=%d rollbacks=%d", calls, b.commits, b.rollbacks)
	}
}

func TestErrorClassifiers(t *testing.T) {
	if !Retryable(&pgconn.PgError{Code: codeDeadlockDetected}) {
		t.Fatalf("deadlock should be retryable")
	}
	if Retryable(errors.New("x")) {
		t.Fatalf("plain error is not retryable")
	}
	if !UniqueViolation(&pgconn.PgError{Code: "23505"}) {
		t.Fatalf("expected unique violation")
	}
	if !CheckViolation(&pgconn.PgError{Code: "23514"}) {
		t.Fatalf("expected check violation")
	}
}

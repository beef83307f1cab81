package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
)

type fakeTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
}

func (f *fakeTx) Commit(ctx context.Context) error   { f.committed = true; return nil }
func (f *fakeTx) Rollback(ctx context.Context) error { f.rolledBack = true; return nil }

type fakeBeginner struct {
	tx     *fakeTx
	begins int
}

func (f *fakeBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	f.begins++
	f.tx = &fakeTx{}
	return f.tx, nil
}

func TestWithTx_Commits(t *testing.T) {
	b := &fakeBeginner{}
	err := WithTx(context.Background(), b, func(ctx context.Context) error {
		if TxFromContext(ctx) == nil {
			t.Error("expected transaction in context")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !b.tx.committed || b.tx.rolledBack {
		t.Errorf("expected commit only, got %+v", b.tx)
	}
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	b := &fakeBeginner{}
	boom := errors.New("boom")
	err := WithTx(context.Background(), b, func(ctx context.Context) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if b.tx.committed || !b.tx.rolledBack {
		t.Errorf("expected rollback only, got %+v", b.tx)
	}
}

func TestWithTx_RollsBackOnPanic(t *testing.T) {
	b := &fakeBeginner{}
	defer func() {
		if recover() == nil {
			t.Error("expected panic to propagate")
		}
		if !b.tx.rolledBack {
			t.Error("expected rollback after panic")
		}
	}()
	WithTx(context.Background(), b, func(ctx context.Context) error { panic("oops") })
}

func TestWithTx_NestedJoinsOuter(t *testing.T) {
	b := &fakeBeginner{}
	err := WithTx(context.Background(), b, func(ctx context.Context) error {
		outer := TxFromContext(ctx)
		return WithTx(ctx, b, func(ctx context.Context) error {
			if TxFromContext(ctx) != outer {
				t.Error("expected nested call to reuse the outer transaction")
			}
			return nil
		})
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.begins != 1 {
		t.Errorf("expected one Begin, got %d", b.begins)
	}
}

func TestConn_FallsBackOutsideTx(t *testing.T) {
	if Conn(context.Background(), nil) != nil {
		t.Error("expected fallback querier outside a transaction")
	}
	tx := &fakeTx{}
	ctx := context.WithValue(context.Background(), TxKey, pgx.Tx(tx))
	if Conn(ctx, nil) != tx {
		t.Error("expected transaction querier")
	}
}

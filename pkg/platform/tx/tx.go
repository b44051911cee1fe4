// Package tx carries a *sql.Tx through context so stores join the caller's
// transaction without widening their method signatures.
package tx

import (
	"context"
	"database/sql"
	"sync"
)

type ctxKey struct{}

var txKey = ctxKey{}

// Runner executes fn inside a transaction. fn receives a context that carries
// the transaction; stores pick it up through Querier.
type Runner interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

// Querier is the subset of *sql.DB and *sql.Tx that stores use.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx stores a SQL transaction in context for downstream store usage.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From extracts a SQL transaction from context if present.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey).(*sql.Tx)
	return tx, ok
}

// Q returns the transaction in ctx, or db when the call runs outside one.
func Q(ctx context.Context, db *sql.DB) Querier {
	if tx, ok := From(ctx); ok {
		return tx
	}
	return db
}

// LocalRunner serializes transactions for in-memory stores. A failing fn is
// rolled back by running the undo steps stores registered through OnRollback,
// newest first.
type LocalRunner struct {
	mu sync.Mutex
}

func (r *LocalRunner) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	log := &undoLog{}
	if err := fn(context.WithValue(ctx, undoKey, log)); err != nil {
		log.rollback()
		return err
	}
	return nil
}

type undoCtxKey struct{}

var undoKey = undoCtxKey{}

type undoLog struct {
	steps []func()
}

func (l *undoLog) rollback() {
	for i := len(l.steps) - 1; i >= 0; i-- {
		l.steps[i]()
	}
	l.steps = nil
}

// OnRollback registers undo to run if the LocalRunner transaction in ctx
// fails. Outside a LocalRunner it does nothing; SQL transactions roll back on
// their own.
func OnRollback(ctx context.Context, undo func()) {
	if log, ok := ctx.Value(undoKey).(*undoLog); ok {
		log.steps = append(log.steps, undo)
	}
}

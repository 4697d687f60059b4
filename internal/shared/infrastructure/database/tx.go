package database

import (
	"context"
	"errors"
)

// ErrNoTransaction is returned by Commit and Rollback outside Begin.
var ErrNoTransaction = errors.New("no transaction in context")

type txKey struct{}

type txState struct {
	tx Transaction
	// owner is false for a unit nested in an outer one; only the outer
	// unit ends the transaction.
	owner bool
}

func stateFrom(ctx context.Context) (txState, bool) {
	state, ok := ctx.Value(txKey{}).(txState)
	return state, ok && state.tx != nil
}

// TxFromContext returns the transaction started by a UnitOfWork, or nil.
func TxFromContext(ctx context.Context) Transaction {
	state, _ := stateFrom(ctx)
	return state.tx
}

// ExecutorFromContext returns the transaction in ctx, falling back to conn.
// Repositories run every statement through it so they join a unit of work
// transparently.
func ExecutorFromContext(ctx context.Context, conn Connection) Executor {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}
	return conn
}

// InTx runs fn inside the transaction of ctx, or inside a new one that is
// committed when fn succeeds.
func InTx(ctx context.Context, conn Connection, fn func(exec Executor) error) error {
	if tx := TxFromContext(ctx); tx != nil {
		return fn(tx)
	}

	tx, err := conn.BeginTx(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// UnitOfWork carries one transaction through the context. Nested units
// share the outer transaction.
type UnitOfWork struct {
	conn Connection
}

// NewUnitOfWork creates a UnitOfWork on conn.
func NewUnitOfWork(conn Connection) *UnitOfWork {
	return &UnitOfWork{conn: conn}
}

// Begin returns a context holding a transaction.
func (u *UnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	if state, ok := stateFrom(ctx); ok {
		return context.WithValue(ctx, txKey{}, txState{tx: state.tx}), nil
	}

	tx, err := u.conn.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	return context.WithValue(ctx, txKey{}, txState{tx: tx, owner: true}), nil
}

// Commit commits the transaction when this unit started it.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	state, ok := stateFrom(ctx)
	if !ok {
		return ErrNoTransaction
	}
	if !state.owner {
		return nil
	}
	return state.tx.Commit(ctx)
}

// Rollback rolls back the transaction when this unit started it.
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	state, ok := stateFrom(ctx)
	if !ok {
		return ErrNoTransaction
	}
	if !state.owner {
		return nil
	}
	return state.tx.Rollback(ctx)
}

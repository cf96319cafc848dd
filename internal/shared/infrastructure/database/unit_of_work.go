package database

import (
	"context"
	"errors"
)

// ErrNoTransaction is returned by Commit and Rollback on a context that
// Begin did not produce.
var ErrNoTransaction = errors.New("no transaction in context")

type txKey struct{}

// txScope is the transaction carried by a context. Only the outermost
// Begin owns it; nested scopes join and leave the decision to the owner.
type txScope struct {
	tx    Transaction
	owner bool
}

func scopeFrom(ctx context.Context) (txScope, bool) {
	scope, ok := ctx.Value(txKey{}).(txScope)
	return scope, ok && scope.tx != nil
}

// ExecutorFromContext returns the context's transaction, or conn when none is open.
func ExecutorFromContext(ctx context.Context, conn Connection) Executor {
	if scope, ok := scopeFrom(ctx); ok {
		return scope.tx
	}
	return conn
}

// InTransaction reports whether ctx carries an open transaction.
func InTransaction(ctx context.Context) bool {
	_, ok := scopeFrom(ctx)
	return ok
}

// UnitOfWork opens transactions on a Connection. It satisfies
// application.UnitOfWork.
type UnitOfWork struct {
	conn Connection
}

func NewUnitOfWork(conn Connection) *UnitOfWork {
	return &UnitOfWork{conn: conn}
}

// Begin opens a transaction, or joins the one already in ctx.
func (u *UnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	if scope, ok := scopeFrom(ctx); ok {
		return context.WithValue(ctx, txKey{}, txScope{tx: scope.tx}), nil
	}
	tx, err := u.conn.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	return context.WithValue(ctx, txKey{}, txScope{tx: tx, owner: true}), nil
}

func (u *UnitOfWork) Commit(ctx context.Context) error {
	scope, ok := scopeFrom(ctx)
	if !ok {
		return ErrNoTransaction
	}
	if !scope.owner {
		return nil
	}
	return scope.tx.Commit(ctx)
}

func (u *UnitOfWork) Rollback(ctx context.Context) error {
	scope, ok := scopeFrom(ctx)
	if !ok {
		return ErrNoTransaction
	}
	if !scope.owner {
		return nil
	}
	return scope.tx.Rollback(ctx)
}

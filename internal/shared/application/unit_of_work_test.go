package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scopeKey struct{}

// recordingUnitOfWork logs the calls a handler's transaction receives.
type recordingUnitOfWork struct {
	calls       []string
	beginErr    error
	commitErr   error
	rollbackErr error
}

func (u *recordingUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	u.calls = append(u.calls, "begin")
	if u.beginErr != nil {
		return nil, u.beginErr
	}
	return context.WithValue(ctx, scopeKey{}, "tx"), nil
}

func (u *recordingUnitOfWork) Commit(ctx context.Context) error {
	u.calls = append(u.calls, "commit:"+scope(ctx))
	return u.commitErr
}

func (u *recordingUnitOfWork) Rollback(ctx context.Context) error {
	u.calls = append(u.calls, "rollback:"+scope(ctx))
	return u.rollbackErr
}

func scope(ctx context.Context) string {
	s, _ := ctx.Value(scopeKey{}).(string)
	return s
}

func TestWithUnitOfWork_CommitsWithTransactionContext(t *testing.T) {
	uow := &recordingUnitOfWork{}

	err := WithUnitOfWork(context.Background(), uow, func(ctx context.Context) error {
		assert.Equal(t, "tx", scope(ctx), "handler writes through the transaction")
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"begin", "commit:tx"}, uow.calls)
}

func TestWithUnitOfWork_RollsBackOnHandlerError(t *testing.T) {
	uow := &recordingUnitOfWork{}
	missingStart := errors.New("calendar action has no start date")

	err := WithUnitOfWork(context.Background(), uow, func(ctx context.Context) error {
		return missingStart
	})

	assert.Same(t, missingStart, err)
	assert.Equal(t, []string{"begin", "rollback:tx"}, uow.calls)
}

func TestWithUnitOfWork_JoinsRollbackFailure(t *testing.T) {
	connLost := errors.New("connection reset")
	uow := &recordingUnitOfWork{rollbackErr: connLost}
	handlerErr := errors.New("task board unavailable")

	err := WithUnitOfWork(context.Background(), uow, func(ctx context.Context) error {
		return handlerErr
	})

	assert.ErrorIs(t, err, handlerErr)
	assert.ErrorIs(t, err, connLost)
}

func TestWithUnitOfWork_BeginFailureSkipsHandler(t *testing.T) {
	locked := errors.New("database is locked")
	uow := &recordingUnitOfWork{beginErr: locked}

	ran := false
	err := WithUnitOfWork(context.Background(), uow, func(ctx context.Context) error {
		ran = true
		return nil
	})

	assert.ErrorIs(t, err, locked)
	assert.False(t, ran)
	assert.Equal(t, []string{"begin"}, uow.calls)
}

func TestWithUnitOfWork_CommitFailureIsReturned(t *testing.T) {
	conflict := errors.New("serialization failure")
	uow := &recordingUnitOfWork{commitErr: conflict}

	err := WithUnitOfWork(context.Background(), uow, func(ctx context.Context) error { return nil })

	assert.ErrorIs(t, err, conflict)
}

func TestWithUnitOfWork_RollsBackOnPanic(t *testing.T) {
	uow := &recordingUnitOfWork{}

	assert.PanicsWithValue(t, "nil member", func() {
		_ = WithUnitOfWork(context.Background(), uow, func(ctx context.Context) error {
			panic("nil member")
		})
	})
	assert.Equal(t, []string{"begin", "rollback:tx"}, uow.calls)
}

package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type ctxKey struct{}

type mockUnitOfWork struct {
	mock.Mock
}

func (m *mockUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	args := m.Called(ctx)
	return args.Get(0).(context.Context), args.Error(1)
}

func (m *mockUnitOfWork) Commit(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockUnitOfWork) Rollback(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func TestAtomically(t *testing.T) {
	ctx := context.Background()
	txCtx := context.WithValue(ctx, ctxKey{}, "tx")
	errWork := errors.New("work failed")

	tests := []struct {
		name      string
		beginErr  error
		commitErr error
		work      error
		want      error
		commits   bool
		rollbacks bool
	}{
		{name: "commits on success", commits: true},
		{name: "rolls back on error", work: errWork, want: errWork, rollbacks: true},
		{name: "begin failure skips the work", beginErr: errors.New("no connection"), want: errors.New("no connection")},
		{name: "commit failure is returned", commitErr: errors.New("disk full"), want: errors.New("disk full"), commits: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uow := new(mockUnitOfWork)
			uow.On("Begin", ctx).Return(txCtx, tt.beginErr)
			if tt.commits {
				uow.On("Commit", txCtx).Return(tt.commitErr)
			}
			if tt.rollbacks {
				uow.On("Rollback", txCtx).Return(nil)
			}

			ran := false
			err := Atomically(ctx, uow, func(got context.Context) error {
				ran = true
				assert.Equal(t, txCtx, got)
				return tt.work
			})

			assert.Equal(t, tt.want, err)
			assert.Equal(t, tt.beginErr == nil, ran)
			uow.AssertExpectations(t)
			if !tt.rollbacks {
				uow.AssertNotCalled(t, "Rollback", mock.Anything)
			}
		})
	}

	t.Run("rolls back and re-panics", func(t *testing.T) {
		uow := new(mockUnitOfWork)
		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Rollback", txCtx).Return(nil)

		assert.PanicsWithValue(t, "boom", func() {
			_ = Atomically(ctx, uow, func(context.Context) error { panic("boom") })
		})
		uow.AssertExpectations(t)
		uow.AssertNotCalled(t, "Commit", mock.Anything)
	})
}

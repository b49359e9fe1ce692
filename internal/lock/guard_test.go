package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ruralpay/accountledger/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) Acquire(ctx context.Context, key string, wait, hold time.Duration) (*Lock, error) {
	args := m.Called(ctx, key, wait, hold)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Lock), args.Error(1)
}

func (m *MockLocker) Release(ctx context.Context, l *Lock) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}

func TestGuard_KeyFor(t *testing.T) {
	g := NewGuard(&MockLocker{}, "ACLK", time.Second, 5*time.Second, nil)

	assert.Equal(t, "ACLK1234567890", g.KeyFor("1234567890"))
	assert.Equal(t, g.KeyFor("1234567890"), g.KeyFor("1234567890"))
	assert.Equal(t, "ACLKU12", g.KeyFor(UserScope(12)))
	assert.Equal(t, "ACLKN", g.KeyFor(AllocationScope))
}

func TestGuard_Do(t *testing.T) {
	ctx := context.Background()
	held := &Lock{Key: "ACLK1234567890", token: "t"}

	t.Run("lock and unlock", func(t *testing.T) {
		locker := &MockLocker{}
		locker.On("Acquire", mock.Anything, "ACLK1234567890", time.Second, 5*time.Second).Return(held, nil).Once()
		locker.On("Release", mock.Anything, held).Return(nil).Once()
		g := NewGuard(locker, "ACLK", time.Second, 5*time.Second, nil)

		called := false
		err := g.Do(ctx, "1234567890", func(ctx context.Context) error {
			called = true
			return nil
		})

		assert.NoError(t, err)
		assert.True(t, called)
		locker.AssertExpectations(t)
	})

	t.Run("lock and unlock even if the operation fails", func(t *testing.T) {
		locker := &MockLocker{}
		locker.On("Acquire", mock.Anything, "ACLK1234567890", time.Second, 5*time.Second).Return(held, nil).Once()
		locker.On("Release", mock.Anything, held).Return(nil).Once()
		g := NewGuard(locker, "ACLK", time.Second, 5*time.Second, nil)

		opErr := models.NewAccountError(models.AccountNotFound)
		err := g.Do(ctx, "1234567890", func(ctx context.Context) error {
			return opErr
		})

		assert.Same(t, opErr, err)
		locker.AssertExpectations(t)
	})

	t.Run("unlock on panic", func(t *testing.T) {
		locker := &MockLocker{}
		locker.On("Acquire", mock.Anything, "ACLK1234567890", time.Second, 5*time.Second).Return(held, nil).Once()
		locker.On("Release", mock.Anything, held).Return(nil).Once()
		g := NewGuard(locker, "ACLK", time.Second, 5*time.Second, nil)

		assert.Panics(t, func() {
			_ = g.Do(ctx, "1234567890", func(ctx context.Context) error {
				panic("boom")
			})
		})
		locker.AssertExpectations(t)
	})

	t.Run("release error does not override result", func(t *testing.T) {
		locker := &MockLocker{}
		locker.On("Acquire", mock.Anything, "ACLK1234567890", time.Second, 5*time.Second).Return(held, nil).Once()
		locker.On("Release", mock.Anything, held).Return(errors.New("i/o timeout")).Once()
		g := NewGuard(locker, "ACLK", time.Second, 5*time.Second, nil)

		err := g.Do(ctx, "1234567890", func(ctx context.Context) error { return nil })

		assert.NoError(t, err)
		locker.AssertExpectations(t)
	})

	for name, acquireErr := range map[string]error{
		"lock not obtained": ErrNotObtained,
		"transport failure": errors.New("dial tcp: connection refused"),
	} {
		t.Run(name, func(t *testing.T) {
			locker := &MockLocker{}
			locker.On("Acquire", mock.Anything, "ACLK1234567890", time.Second, 5*time.Second).Return(nil, acquireErr).Once()
			g := NewGuard(locker, "ACLK", time.Second, 5*time.Second, nil)

			called := false
			err := g.Do(ctx, "1234567890", func(ctx context.Context) error {
				called = true
				return nil
			})

			assert.ErrorIs(t, err, models.ErrLockUnavailable)
			assert.False(t, called)
			locker.AssertNotCalled(t, "Release", mock.Anything, mock.Anything)
		})
	}
}

func TestRun_ReturnsResult(t *testing.T) {
	locker := NewLocalLocker(time.Millisecond)
	g := NewGuard(locker, "ACLK", time.Second, 5*time.Second, nil)

	n, err := Run(context.Background(), g, "1234567890", func(ctx context.Context) (int64, error) {
		return 8500, nil
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(8500), n)

	lk, err := locker.Acquire(context.Background(), "ACLK1234567890", 0, time.Second)
	assert.NoError(t, err, "lock must be released after Run")
	assert.NotNil(t, lk)
}

package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLocker(t *testing.T) {
	ctx := context.Background()

	t.Run("second acquire times out within wait", func(t *testing.T) {
		locker := NewLocalLocker(5 * time.Millisecond)
		held, err := locker.Acquire(ctx, "ACLK1000000012", time.Second, 5*time.Second)
		require.NoError(t, err)
		defer locker.Release(ctx, held)

		start := time.Now()
		lk, err := locker.Acquire(ctx, "ACLK1000000012", 100*time.Millisecond, 5*time.Second)
		elapsed := time.Since(start)

		assert.ErrorIs(t, err, ErrNotObtained)
		assert.Nil(t, lk)
		assert.GreaterOrEqual(t, elapsed, 100*time.Millisecond)
		assert.Less(t, elapsed, time.Second)
	})

	t.Run("different keys do not block", func(t *testing.T) {
		locker := NewLocalLocker(5 * time.Millisecond)
		a, err := locker.Acquire(ctx, "ACLK1000000012", 0, time.Second)
		require.NoError(t, err)
		b, err := locker.Acquire(ctx, "ACLK1000000013", 0, time.Second)
		require.NoError(t, err)

		assert.NoError(t, locker.Release(ctx, a))
		assert.NoError(t, locker.Release(ctx, b))
	})

	t.Run("release makes the key available", func(t *testing.T) {
		locker := NewLocalLocker(5 * time.Millisecond)
		lk, err := locker.Acquire(ctx, "ACLK1000000012", 0, time.Second)
		require.NoError(t, err)
		require.NoError(t, locker.Release(ctx, lk))

		again, err := locker.Acquire(ctx, "ACLK1000000012", 0, time.Second)
		assert.NoError(t, err)
		assert.NotNil(t, again)
	})

	t.Run("expired lock can be taken and stale release is a no-op", func(t *testing.T) {
		locker := NewLocalLocker(5 * time.Millisecond)
		now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		locker.now = func() time.Time { return now }

		stale, err := locker.Acquire(ctx, "ACLK1000000012", 0, 5*time.Second)
		require.NoError(t, err)

		now = now.Add(6 * time.Second)
		fresh, err := locker.Acquire(ctx, "ACLK1000000012", 0, 5*time.Second)
		require.NoError(t, err)

		assert.NoError(t, locker.Release(ctx, stale))
		_, err = locker.Acquire(ctx, "ACLK1000000012", 0, 5*time.Second)
		assert.ErrorIs(t, err, ErrNotObtained, "stale release must not free a lock owned by someone else")

		assert.NoError(t, locker.Release(ctx, fresh))
		assert.NoError(t, locker.Release(ctx, fresh))
	})

	t.Run("cancelled context stops waiting", func(t *testing.T) {
		locker := NewLocalLocker(5 * time.Millisecond)
		held, err := locker.Acquire(ctx, "ACLK1000000012", 0, 5*time.Second)
		require.NoError(t, err)
		defer locker.Release(ctx, held)

		cctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()

		_, err = locker.Acquire(cctx, "ACLK1000000012", 5*time.Second, 5*time.Second)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("at most one holder at a time", func(t *testing.T) {
		locker := NewLocalLocker(time.Millisecond)
		var inside, maxInside int32
		var wg sync.WaitGroup

		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				lk, err := locker.Acquire(ctx, "ACLK1000000012", 5*time.Second, 5*time.Second)
				if !assert.NoError(t, err) {
					return
				}
				n := atomic.AddInt32(&inside, 1)
				for {
					m := atomic.LoadInt32(&maxInside)
					if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&inside, -1)
				locker.Release(ctx, lk)
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), maxInside)
	})
}

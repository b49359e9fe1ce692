package lock

import (
	"context"
	"log"
	"time"

	"github.com/ruralpay/accountledger/internal/audit"
	"github.com/ruralpay/accountledger/internal/models"
)

// Guard runs an operation while holding the lock of one account number.
// No two guarded operations for the same account number overlap, on any instance
// sharing the same Locker backend.
type Guard struct {
	locker Locker
	prefix string
	wait   time.Duration
	hold   time.Duration
	audit  *audit.Logger
}

func NewGuard(locker Locker, prefix string, wait, hold time.Duration, auditLogger *audit.Logger) *Guard {
	return &Guard{
		locker: locker,
		prefix: prefix,
		wait:   wait,
		hold:   hold,
		audit:  auditLogger,
	}
}

// KeyFor returns the lock key for accountNumber
func (g *Guard) KeyFor(accountNumber string) string {
	return g.prefix + accountNumber
}

// Do is Run for operations without a result
func (g *Guard) Do(ctx context.Context, accountNumber string, fn func(ctx context.Context) error) error {
	_, err := Run(ctx, g, accountNumber, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Run acquires the account lock, invokes fn and always releases the lock afterwards.
// If the lock cannot be obtained fn is not called and LOCK_UNAVAILABLE is returned.
// Errors from fn are returned unchanged.
func Run[T any](ctx context.Context, g *Guard, accountNumber string, fn func(ctx context.Context) (T, error)) (T, error) {
	key := g.KeyFor(accountNumber)

	log.Printf("[LOCK] Trying lock for accountNumber: %s", accountNumber)
	lk, err := g.locker.Acquire(ctx, key, g.wait, g.hold)
	if err != nil {
		log.Printf("[LOCK] Lock acquisition failed for %s: %v", key, err)
		if g.audit != nil {
			g.audit.LogLockFailure(key, err)
		}
		var zero T
		return zero, models.NewAccountError(models.LockUnavailable)
	}

	defer func() {
		if relErr := g.locker.Release(context.WithoutCancel(ctx), lk); relErr != nil {
			log.Printf("[LOCK] Release failed for %s: %v", key, relErr)
		}
	}()

	return fn(ctx)
}

// Package lock provides named, time-bounded mutual exclusion keyed by account.
//
// A Locker hands out a *Lock that must be given back to Release. Every lock
// expires on its own after the hold timeout, so a crashed holder cannot block an
// account forever. Release only removes a lock still owned by the caller;
// releasing an expired or foreign lock is a no-op.
package lock

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// ErrNotObtained is returned when the wait timeout elapses while another holder owns the key
var ErrNotObtained = errors.New("lock: not obtained")

// Lock is the handle of one successful acquisition
type Lock struct {
	Key   string
	token string
}

type Locker interface {
	// Acquire blocks up to wait trying to own key. The lock expires after hold.
	// Any error, including transport failures, means the lock is NOT held.
	Acquire(ctx context.Context, key string, wait, hold time.Duration) (*Lock, error)
	Release(ctx context.Context, l *Lock) error
}

// UserScope names the lock used to serialise operations on a user's set of accounts
func UserScope(userID int64) string {
	return "U" + strconv.FormatInt(userID, 10)
}

// AllocationScope names the lock serialising account number allocation across all users
const AllocationScope = "N"

func newToken() string {
	return uuid.NewString()
}

// poll calls try until it reports success, fails, or wait has elapsed
func poll(ctx context.Context, wait, interval time.Duration, try func() (bool, error)) error {
	deadline := time.Now().Add(wait)
	for {
		ok, err := try()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return ErrNotObtained
		}
		sleep := interval
		if sleep <= 0 || sleep > remaining {
			sleep = remaining
		}

		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

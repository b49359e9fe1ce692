package lock

import (
	"context"
	"sync"
	"time"
)

type localEntry struct {
	token     string
	expiresAt time.Time
}

// LocalLocker keeps locks in process memory. It only excludes callers inside
// one process and is meant for single-instance deployments and tests.
type LocalLocker struct {
	mu            sync.Mutex
	held          map[string]localEntry
	retryInterval time.Duration
	now           func() time.Time
}

func NewLocalLocker(retryInterval time.Duration) *LocalLocker {
	return &LocalLocker{
		held:          make(map[string]localEntry),
		retryInterval: retryInterval,
		now:           time.Now,
	}
}

func (l *LocalLocker) Acquire(ctx context.Context, key string, wait, hold time.Duration) (*Lock, error) {
	token := newToken()

	err := poll(ctx, wait, l.retryInterval, func() (bool, error) {
		l.mu.Lock()
		defer l.mu.Unlock()

		now := l.now()
		if e, ok := l.held[key]; ok && now.Before(e.expiresAt) {
			return false, nil
		}
		l.held[key] = localEntry{token: token, expiresAt: now.Add(hold)}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	return &Lock{Key: key, token: token}, nil
}

func (l *LocalLocker) Release(_ context.Context, lk *Lock) error {
	if lk == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if e, ok := l.held[lk.Key]; ok && e.token == lk.token {
		delete(l.held, lk.Key)
	}
	return nil
}

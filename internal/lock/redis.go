package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// releaseScript deletes the key only while it still carries our token
const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end`

// RedisLocker is the Lock Authority client shared by every service instance
type RedisLocker struct {
	client        redis.Cmdable
	retryInterval time.Duration
	newToken      func() string
}

func NewRedisLocker(client redis.Cmdable, retryInterval time.Duration) *RedisLocker {
	return &RedisLocker{
		client:        client,
		retryInterval: retryInterval,
		newToken:      newToken,
	}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, wait, hold time.Duration) (*Lock, error) {
	token := l.newToken()

	err := poll(ctx, wait, l.retryInterval, func() (bool, error) {
		ok, err := l.client.SetNX(ctx, key, token, hold).Result()
		if err != nil {
			return false, fmt.Errorf("lock: acquire %s: %w", key, err)
		}
		return ok, nil
	})
	if err != nil {
		return nil, err
	}

	return &Lock{Key: key, token: token}, nil
}

func (l *RedisLocker) Release(ctx context.Context, lk *Lock) error {
	if lk == nil {
		return nil
	}

	err := l.client.Eval(ctx, releaseScript, []string{lk.Key}, lk.token).Err()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("lock: release %s: %w", lk.Key, err)
	}
	return nil
}

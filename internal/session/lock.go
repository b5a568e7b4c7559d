package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrLockTimeout = errors.New("session: user lock not acquired in time")

const (
	lockPrefix    = "lock:user:"
	retryInterval = 25 * time.Millisecond
)

// Видаляє ключ лише тоді, коли він досі належить нашому токену.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker serializes work per user across instances with a redis key.
type Locker struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
}

func NewLocker(client *redis.Client, ttl, wait time.Duration) *Locker {
	return &Locker{client: client, ttl: ttl, wait: wait}
}

// Lock blocks until the user's lock is held or the wait budget runs out. The returned
// release func is safe to call once; it never deletes a lock taken over after expiry.
func (l *Locker) Lock(ctx context.Context, userID string) (func(), error) {
	key := lockPrefix + userID
	token := uuid.NewString()

	deadline := time.NewTimer(l.wait)
	defer deadline.Stop()
	ticker := time.NewTicker(retryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire user lock: %w", err)
		}
		if ok {
			return func() {
				// контекст події може бути вже скасований
				unlockCtx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				unlockScript.Run(unlockCtx, l.client, []string{key}, token)
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, ErrLockTimeout
		case <-ticker.C:
		}
	}
}

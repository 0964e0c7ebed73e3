package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLockNotAcquired = errors.New("card lock not acquired")
)

// Locker serializes critical sections per NFC card so that concurrent link
// and grant operations on the same card are linearized across instances.
type Locker interface {
	WithCardLock(ctx context.Context, cardID string, fn func(ctx context.Context) error) error
}

type redisCardLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCardLocker creates a locker that uses a per-card Redis key.
func NewRedisCardLocker(client *redis.Client, ttl time.Duration) Locker {
	return &redisCardLocker{
		client: client,
		ttl:    ttl,
	}
}

func (l *redisCardLocker) WithCardLock(ctx context.Context, cardID string, fn func(ctx context.Context) error) error {
	key := fmt.Sprintf("lock:card:%s", cardID)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire card lock: %w", err)
	}
	if !ok {
		return ErrLockNotAcquired
	}

	defer func() {
		_ = l.release(ctx, key, token)
	}()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(ctxWithTimeout)
}

var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *redisCardLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release card lock: %w", err)
	}
	return nil
}

// NoopLocker runs the critical section without distributed locking. Used in
// single-instance deployments without Redis, and in tests.
type NoopLocker struct{}

func (NoopLocker) WithCardLock(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

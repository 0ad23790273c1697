// Package lock provides short lived mutual exclusion shared between service instances.
package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// ErrNotAcquired is returned when another holder owns the key.
var ErrNotAcquired = errors.New("lock not acquired")

// Unlock releases a held lock. Releasing an expired or foreign lock is a no-op.
type Unlock func(ctx context.Context) error

// Locker acquires named locks with a time to live.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (Unlock, error)
}

const keyPrefix = "storefront:lock:"

// releaseScript deletes the key only while it still holds our owner token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker implements Locker with SET NX PX and a compare-and-delete release.
type RedisLocker struct {
	client redis.UniversalClient
	logger *slog.Logger
}

// NewRedisLocker constructs RedisLocker.
func NewRedisLocker(client redis.UniversalClient, logger *slog.Logger) *RedisLocker {
	return &RedisLocker{client: client, logger: logger}
}

// Acquire takes the lock or returns ErrNotAcquired.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (Unlock, error) {
	owner := uuid.NewString()
	name := keyPrefix + key

	ok, err := l.client.SetNX(ctx, name, owner, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, ErrNotAcquired
	}

	return func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{name}, owner).Err(); err != nil && !errors.Is(err, redis.Nil) {
			l.logger.Warn("release lock failed", slog.String("key", key), slog.String("error", err.Error()))
			return err
		}
		return nil
	}, nil
}

// LocalLocker keeps locks in process memory. It is used when no Redis address is configured.
type LocalLocker struct {
	mu    sync.Mutex
	held  map[string]localLease
	clock func() time.Time
}

type localLease struct {
	owner   string
	expires time.Time
}

// NewLocalLocker constructs LocalLocker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]localLease), clock: time.Now}
}

// Acquire takes the lock or returns ErrNotAcquired.
func (l *LocalLocker) Acquire(_ context.Context, key string, ttl time.Duration) (Unlock, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	if lease, ok := l.held[key]; ok && now.Before(lease.expires) {
		return nil, ErrNotAcquired
	}
	owner := uuid.NewString()
	l.held[key] = localLease{owner: owner, expires: now.Add(ttl)}

	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if lease, ok := l.held[key]; ok && lease.owner == owner {
			delete(l.held, key)
		}
		return nil
	}, nil
}

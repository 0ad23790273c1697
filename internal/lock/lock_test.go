package lock

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func newTestRedis(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return NewRedisLocker(client, slog.New(slog.NewJSONHandler(io.Discard, nil))), mr
}

func TestRedisLockerAcquireRelease(t *testing.T) {
	locker, mr := newTestRedis(t)
	ctx := context.Background()

	unlock, err := locker.Acquire(ctx, "sweep", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !mr.Exists(keyPrefix + "sweep") {
		t.Fatal("expected lock key to exist")
	}

	if _, err := locker.Acquire(ctx, "sweep", time.Minute); !errors.Is(err, ErrNotAcquired) {
		t.Fatalf("expected not acquired, got %v", err)
	}

	if err := unlock(ctx); err != nil {
		t.Fatalf("unexpected unlock error: %v", err)
	}
	if mr.Exists(keyPrefix + "sweep") {
		t.Fatal("expected lock key to be removed")
	}

	if _, err := locker.Acquire(ctx, "sweep", time.Minute); err != nil {
		t.Fatalf("expected reacquire, got %v", err)
	}
}

func TestRedisLockerReleaseKeepsForeignLock(t *testing.T) {
	locker, mr := newTestRedis(t)
	ctx := context.Background()

	unlock, err := locker.Acquire(ctx, "order", time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mr.FastForward(2 * time.Second)
	if _, err := locker.Acquire(ctx, "order", time.Minute); err != nil {
		t.Fatalf("expected acquire after expiry, got %v", err)
	}

	if err := unlock(ctx); err != nil {
		t.Fatalf("unexpected unlock error: %v", err)
	}
	if !mr.Exists(keyPrefix + "order") {
		t.Fatal("stale unlock removed the new holder's lock")
	}
}

func TestRedisLockerConcurrentAcquire(t *testing.T) {
	locker, _ := newTestRedis(t)
	ctx := context.Background()

	var (
		wg       sync.WaitGroup
		acquired int32
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := locker.Acquire(ctx, "race", time.Minute); err == nil {
				atomic.AddInt32(&acquired, 1)
			}
		}()
	}
	wg.Wait()

	if acquired != 1 {
		t.Fatalf("expected exactly one holder, got %d", acquired)
	}
}

func TestRedisLockerUnavailable(t *testing.T) {
	locker, mr := newTestRedis(t)
	mr.Close()

	if _, err := locker.Acquire(context.Background(), "down", time.Minute); err == nil || errors.Is(err, ErrNotAcquired) {
		t.Fatalf("expected connection error, got %v", err)
	}
}

func TestLocalLocker(t *testing.T) {
	locker := NewLocalLocker()
	now := time.Now()
	locker.clock = func() time.Time { return now }
	ctx := context.Background()

	unlock, err := locker.Acquire(ctx, "k", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := locker.Acquire(ctx, "k", time.Minute); !errors.Is(err, ErrNotAcquired) {
		t.Fatalf("expected not acquired, got %v", err)
	}

	now = now.Add(2 * time.Minute)
	second, err := locker.Acquire(ctx, "k", time.Minute)
	if err != nil {
		t.Fatalf("expected acquire after expiry, got %v", err)
	}

	_ = unlock(ctx)
	if _, err := locker.Acquire(ctx, "k", time.Minute); !errors.Is(err, ErrNotAcquired) {
		t.Fatal("stale unlock released the current holder")
	}

	_ = second(ctx)
	if _, err := locker.Acquire(ctx, "k", time.Minute); err != nil {
		t.Fatalf("expected acquire after release, got %v", err)
	}
}

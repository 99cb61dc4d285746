package redis

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/mealcoach-backend/internal/domain/mealplan"
	"github.com/yungbote/mealcoach-backend/internal/pkg/logger"
)

func TestLockKey(t *testing.T) {
	id := uuid.MustParse("00000000-0000-0000-0000-000000000042")
	if got := LockKey(id); got != "mealcoach:user-lock:00000000-0000-0000-0000-000000000042" {
		t.Fatalf("LockKey: got=%s", got)
	}
}

func testClient(t *testing.T) goredis.UniversalClient {
	t.Helper()
	addr := strings.TrimSpace(os.Getenv("TEST_REDIS_ADDR"))
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis locker tests")
	}
	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("redis ping: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestUserLockerExcludesConcurrentHolders(t *testing.T) {
	rdb := testClient(t)
	l := NewUserLockerWithClient(logger.Nop(), rdb, LockerConfig{
		TTL:  5 * time.Second,
		Wait: 150 * time.Millisecond,
		Poll: 20 * time.Millisecond,
	})
	ctx := context.Background()
	uid := uuid.New()

	release, err := l.Acquire(ctx, uid)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if _, err := l.Acquire(ctx, uid); !errors.Is(err, mealplan.ErrUserBusy) {
		t.Fatalf("second Acquire: want ErrUserBusy got %v", err)
	}

	release()
	release()

	release2, err := l.Acquire(ctx, uid)
	if err != nil {
		t.Fatalf("Acquire after release: %v", err)
	}
	release2()
}

func TestUserLockerReleaseKeepsForeignLock(t *testing.T) {
	rdb := testClient(t)
	l := NewUserLockerWithClient(logger.Nop(), rdb, LockerConfig{TTL: 5 * time.Second})
	ctx := context.Background()
	uid := uuid.New()

	release, err := l.Acquire(ctx, uid)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	// Simulate expiry and takeover by another holder.
	if err := rdb.Set(ctx, LockKey(uid), "someone-else", 5*time.Second).Err(); err != nil {
		t.Fatalf("Set: %v", err)
	}
	release()
	got, err := rdb.Get(ctx, LockKey(uid)).Result()
	if err != nil || got != "someone-else" {
		t.Fatalf("foreign lock: want=someone-else got=%q err=%v", got, err)
	}
	_ = rdb.Del(ctx, LockKey(uid)).Err()
}

func TestUserLockerRenewsWhileHeld(t *testing.T) {
	rdb := testClient(t)
	l := NewUserLockerWithClient(logger.Nop(), rdb, LockerConfig{
		TTL:  300 * time.Millisecond,
		Wait: 50 * time.Millisecond,
		Poll: 10 * time.Millisecond,
	})
	ctx := context.Background()
	uid := uuid.New()

	release, err := l.Acquire(ctx, uid)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	time.Sleep(time.Second)

	if _, err := l.Acquire(ctx, uid); !errors.Is(err, mealplan.ErrUserBusy) {
		t.Fatalf("lock expired while held: %v", err)
	}
	release()
	if n, err := rdb.Exists(ctx, LockKey(uid)).Result(); err != nil || n != 0 {
		t.Fatalf("lock not released: n=%d err=%v", n, err)
	}
}

func TestUserLockerStopsRenewingForeignLock(t *testing.T) {
	rdb := testClient(t)
	l := NewUserLockerWithClient(logger.Nop(), rdb, LockerConfig{TTL: 300 * time.Millisecond})
	ctx := context.Background()
	uid := uuid.New()

	release, err := l.Acquire(ctx, uid)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer release()
	if err := rdb.Set(ctx, LockKey(uid), "someone-else", 5*time.Second).Err(); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(250 * time.Millisecond)
	ttl, err := rdb.PTTL(ctx, LockKey(uid)).Result()
	if err != nil || ttl < 4*time.Second {
		t.Fatalf("foreign lock ttl changed: ttl=%v err=%v", ttl, err)
	}
	_ = rdb.Del(ctx, LockKey(uid)).Err()
}

package redis

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/mealcoach-backend/internal/domain/mealplan"
	"github.com/yungbote/mealcoach-backend/internal/pkg/envutil"
	"github.com/yungbote/mealcoach-backend/internal/pkg/logger"
)

const lockKeyPrefix = "mealcoach:user-lock:"

// releaseScript deletes the lock only if this holder still owns it.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// renewScript extends the lock's expiry only if this holder still owns it.
var renewScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

type LockerConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
	Wait     time.Duration
	Poll     time.Duration
}

func LockerConfigFromEnv() LockerConfig {
	return LockerConfig{
		Addr:     envutil.String("REDIS_ADDR", ""),
		Password: envutil.String("REDIS_PASSWORD", ""),
		DB:       envutil.Int("REDIS_DB", 0),
		TTL:      envutil.Seconds("USER_LOCK_TTL_SECONDS", 300*time.Second),
		Wait:     envutil.Seconds("USER_LOCK_WAIT_SECONDS", 10*time.Second),
		Poll:     100 * time.Millisecond,
	}
}

// UserLocker serializes plan and log writes of one user across processes. A held
// lock is renewed every TTL/3 until released, so runs longer than the TTL keep it.
type UserLocker struct {
	log  *logger.Logger
	rdb  goredis.UniversalClient
	ttl  time.Duration
	wait time.Duration
	poll time.Duration
}

func NewUserLocker(log *logger.Logger, cfg LockerConfig) (*UserLocker, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.Addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewUserLockerWithClient(log, rdb, cfg), nil
}

func NewUserLockerWithClient(log *logger.Logger, rdb goredis.UniversalClient, cfg LockerConfig) *UserLocker {
	if cfg.TTL <= 0 {
		cfg.TTL = 300 * time.Second
	}
	if cfg.Wait < 0 {
		cfg.Wait = 0
	}
	if cfg.Poll <= 0 {
		cfg.Poll = 100 * time.Millisecond
	}
	return &UserLocker{
		log:  log.With("service", "RedisUserLocker"),
		rdb:  rdb,
		ttl:  cfg.TTL,
		wait: cfg.Wait,
		poll: cfg.Poll,
	}
}

// Acquire blocks until the user's lock is held, the wait budget runs out
// (mealplan.ErrUserBusy) or ctx ends. The returned release stops renewal and is idempotent.
func (l *UserLocker) Acquire(ctx context.Context, userID uuid.UUID) (func(), error) {
	key := LockKey(userID)
	token, err := newToken()
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(l.wait)
	for {
		ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire user lock: %w", err)
		}
		if ok {
			break
		}
		if !time.Now().Before(deadline) {
			return nil, mealplan.ErrUserBusy
		}
		timer := time.NewTimer(l.poll)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go l.keepAlive(userID, key, token, stop, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done
			l.release(userID, key, token)
		})
	}, nil
}

func (l *UserLocker) keepAlive(userID uuid.UUID, key, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(l.renewEvery())
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			held, err := l.renew(key, token)
			if err != nil {
				l.log.Warn("user lock renew failed", "user_id", userID, "error", err)
				continue
			}
			if !held {
				l.log.Warn("user lock lost before release", "user_id", userID)
				return
			}
		}
	}
}

func (l *UserLocker) renew(key, token string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), l.renewEvery())
	defer cancel()
	n, err := renewScript.Run(ctx, l.rdb, []string{key}, token, l.ttl.Milliseconds()).Int64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (l *UserLocker) renewEvery() time.Duration {
	if d := l.ttl / 3; d > 0 {
		return d
	}
	return time.Millisecond
}

func (l *UserLocker) release(userID uuid.UUID, key, token string) {
	relCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := releaseScript.Run(relCtx, l.rdb, []string{key}, token).Err(); err != nil && !errors.Is(err, goredis.Nil) {
		l.log.Warn("user lock release failed", "user_id", userID, "error", err)
	}
}

func (l *UserLocker) Close() error {
	if l == nil || l.rdb == nil {
		return nil
	}
	return l.rdb.Close()
}

func LockKey(userID uuid.UUID) string {
	return lockKeyPrefix + userID.String()
}

func newToken() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("lock token: %w", err)
	}
	return hex.EncodeToString(b[:]), nil
}

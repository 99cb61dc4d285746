package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/mealcoach-backend/internal/domain/mealplan"
)

// UserLocker serializes plan and log writes of one user. Implementations return
// mealplan.ErrUserBusy when the lock stays held past their wait budget.
type UserLocker interface {
	Acquire(ctx context.Context, userID uuid.UUID) (release func(), err error)
}

type localUserLocker struct {
	mu   sync.Mutex
	sems map[uuid.UUID]*userSem
	wait time.Duration
}

type userSem struct {
	ch   chan struct{}
	refs int
}

// NewLocalUserLocker is the in-process UserLocker for single-replica deployments and tests.
func NewLocalUserLocker(wait time.Duration) UserLocker {
	if wait <= 0 {
		wait = 10 * time.Second
	}
	return &localUserLocker{sems: map[uuid.UUID]*userSem{}, wait: wait}
}

func (l *localUserLocker) Acquire(ctx context.Context, userID uuid.UUID) (func(), error) {
	l.mu.Lock()
	sem := l.sems[userID]
	if sem == nil {
		sem = &userSem{ch: make(chan struct{}, 1)}
		l.sems[userID] = sem
	}
	sem.refs++
	l.mu.Unlock()

	timer := time.NewTimer(l.wait)
	defer timer.Stop()
	select {
	case sem.ch <- struct{}{}:
	case <-ctx.Done():
		l.unref(userID, sem)
		return nil, ctx.Err()
	case <-timer.C:
		l.unref(userID, sem)
		return nil, mealplan.ErrUserBusy
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-sem.ch
			l.unref(userID, sem)
		})
	}, nil
}

func (l *localUserLocker) unref(userID uuid.UUID, sem *userSem) {
	l.mu.Lock()
	defer l.mu.Unlock()
	sem.refs--
	if sem.refs == 0 && l.sems[userID] == sem {
		delete(l.sems, userID)
	}
}

package services

import (
	"fmt"
	"sync"
	"time"

	"live-auction/internal/domain"
)

const lockPollInterval = time.Millisecond

// ItemLocker hands out one exclusion token per item. A caller that finds the
// token held either fails at once or, with a positive wait, polls until the
// wait runs out. Nobody ever queues without bound.
type ItemLocker struct {
	locks sync.Map // itemID -> *sync.Mutex
	wait  time.Duration
}

func NewItemLocker(wait time.Duration) *ItemLocker {
	return &ItemLocker{wait: wait}
}

func (l *ItemLocker) token(itemID string) *sync.Mutex {
	lock, _ := l.locks.LoadOrStore(itemID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

func (l *ItemLocker) acquire(itemID string, wait time.Duration) (*sync.Mutex, bool) {
	lock := l.token(itemID)
	if lock.TryLock() {
		return lock, true
	}
	if wait <= 0 {
		return nil, false
	}

	deadline := time.Now().Add(wait)
	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()

	for range ticker.C {
		if lock.TryLock() {
			return lock, true
		}
		if !time.Now().Before(deadline) {
			return nil, false
		}
	}
	return nil, false
}

// WithItemLock runs op while holding itemID's token, using the locker's
// default wait. The token is released on every exit path, panics included.
func WithItemLock[T any](l *ItemLocker, itemID string, op func() (T, error)) (T, error) {
	return WithItemLockWait(l, itemID, l.wait, op)
}

func WithItemLockWait[T any](l *ItemLocker, itemID string, wait time.Duration, op func() (T, error)) (T, error) {
	lock, ok := l.acquire(itemID, wait)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: item %s", domain.ErrContended, itemID)
	}
	defer lock.Unlock()

	return op()
}

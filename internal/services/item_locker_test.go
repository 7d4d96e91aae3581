package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"live-auction/internal/domain"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

// holdLock keeps itemID's token until the returned func is called.
func holdLock(t *testing.T, l *ItemLocker, itemID string) (release func()) {
	t.Helper()
	held := make(chan struct{})
	done := make(chan struct{})
	finished := make(chan struct{})

	go func() {
		defer close(finished)
		_, _ = WithItemLock(l, itemID, func() (struct{}, error) {
			close(held)
			<-done
			return struct{}{}, nil
		})
	}()
	<-held

	return func() {
		close(done)
		<-finished
	}
}

func TestWithItemLock_ReturnsResult(t *testing.T) {
	locker := NewItemLocker(0)

	got, err := WithItemLock(locker, "1", func() (int, error) { return 42, nil })
	assert.NoError(t, err)
	check.Equal(t, 42, got)

	boom := errors.New("boom")
	_, err = WithItemLock(locker, "1", func() (int, error) { return 0, boom })
	check.True(t, errors.Is(err, boom))

	// The token was released after the failure.
	_, err = WithItemLock(locker, "1", func() (int, error) { return 1, nil })
	check.NoError(t, err)
}

func TestWithItemLock_FailsFastWhenHeld(t *testing.T) {
	locker := NewItemLocker(0)
	release := holdLock(t, locker, "1")

	ran := false
	_, err := WithItemLock(locker, "1", func() (struct{}, error) {
		ran = true
		return struct{}{}, nil
	})
	check.True(t, errors.Is(err, domain.ErrContended))
	check.False(t, ran)

	// Other items are unaffected.
	_, err = WithItemLock(locker, "2", func() (struct{}, error) { return struct{}{}, nil })
	check.NoError(t, err)

	release()
	_, err = WithItemLock(locker, "1", func() (struct{}, error) { return struct{}{}, nil })
	check.NoError(t, err)
}

func TestWithItemLock_ReleasesOnPanic(t *testing.T) {
	locker := NewItemLocker(0)

	func() {
		defer func() { _ = recover() }()
		_, _ = WithItemLock(locker, "1", func() (struct{}, error) { panic("fault") })
	}()

	_, err := WithItemLock(locker, "1", func() (struct{}, error) { return struct{}{}, nil })
	check.NoError(t, err)
}

func TestWithItemLockWait_AcquiresOnceReleased(t *testing.T) {
	locker := NewItemLocker(0)
	release := holdLock(t, locker, "1")

	go func() {
		time.Sleep(20 * time.Millisecond)
		release()
	}()

	got, err := WithItemLockWait(locker, "1", time.Second, func() (string, error) { return "ok", nil })
	assert.NoError(t, err)
	check.Equal(t, "ok", got)
}

func TestWithItemLockWait_GivesUpAfterWait(t *testing.T) {
	locker := NewItemLocker(0)
	release := holdLock(t, locker, "1")
	defer release()

	start := time.Now()
	_, err := WithItemLockWait(locker, "1", 30*time.Millisecond, func() (struct{}, error) { return struct{}{}, nil })
	check.True(t, errors.Is(err, domain.ErrContended))
	check.True(t, time.Since(start) >= 30*time.Millisecond)
}

func TestWithItemLock_SerializesMutations(t *testing.T) {
	locker := NewItemLocker(time.Second)
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := WithItemLock(locker, "hot", func() (struct{}, error) {
				current := counter
				time.Sleep(100 * time.Microsecond)
				counter = current + 1
				return struct{}{}, nil
			})
			check.NoError(t, err)
		}()
	}
	wg.Wait()

	check.Equal(t, 50, counter)
}

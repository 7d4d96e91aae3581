package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"live-auction/internal/domain"
	"live-auction/internal/infrastructure/memory"
	"live-auction/pkg/logger"

	"github.com/peterldowns/testy/assert"
	"github.com/shopspring/decimal"
)

type testClock struct {
	mutex sync.Mutex
	now   time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.now = c.now.Add(d)
}

type recordingPublisher struct {
	mutex  sync.Mutex
	events []domain.AuctionEvent
}

func (p *recordingPublisher) PublishAuctionEvent(_ context.Context, event *domain.AuctionEvent) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.events = append(p.events, *event)
	return nil
}

func (p *recordingPublisher) Events() []domain.AuctionEvent {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	events := make([]domain.AuctionEvent, len(p.events))
	copy(events, p.events)
	return events
}

func (p *recordingPublisher) OfType(eventType domain.AuctionEventType) []domain.AuctionEvent {
	var out []domain.AuctionEvent
	for _, event := range p.Events() {
		if event.Type == eventType {
			out = append(out, event)
		}
	}
	return out
}

type harness struct {
	clock     *testClock
	store     *memory.AuctionStore
	locker    *ItemLocker
	published *recordingPublisher
	engine    *BidEngine
	sweeper   *ExpirySweeper
	service   *AuctionService
}

// newHarness seeds item "1" (50000, ends in 2h) and item "2" (15000, ends in 1h).
func newHarness(t *testing.T, lockWait time.Duration) *harness {
	t.Helper()
	clock := newTestClock()
	log := logger.NewNop()

	store := memory.NewAuctionStore(clock.Now)
	err := store.Seed([]domain.AuctionItem{
		{ID: "1", Title: "iPhone 15 Pro Max", StartingPrice: decimal.NewFromInt(50000), EndsAt: clock.Now().Add(2 * time.Hour)},
		{ID: "2", Title: "Sony WH-1000XM5", StartingPrice: decimal.NewFromInt(15000), EndsAt: clock.Now().Add(time.Hour)},
	})
	assert.NoError(t, err)

	published := &recordingPublisher{}
	sequenced := NewEventSequencer(published, log)
	locker := NewItemLocker(lockWait)
	engine := NewBidEngine(store, locker, sequenced, clock.Now, log)
	sweeper := NewExpirySweeper(store, locker, sequenced, 10*time.Second, 100*time.Millisecond, clock.Now, log)

	return &harness{
		clock:     clock,
		store:     store,
		locker:    locker,
		published: published,
		engine:    engine,
		sweeper:   sweeper,
		service:   NewAuctionService(store, engine, sweeper, clock.Now),
	}
}

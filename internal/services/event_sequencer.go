package services

import (
	"context"
	"sync"

	"live-auction/internal/domain"
	"live-auction/pkg/logger"
)

// EventSequencer forwards auction events to next in per-item Seq order.
//
// Seq values are item versions assigned under the item lock, so they are
// gapless per item. Publishing happens after the lock is released, which lets
// two publishers race; an event that arrives early is parked until its
// predecessors have been delivered.
type EventSequencer struct {
	next    domain.EventPublisher
	log     logger.Logger
	mutex   sync.Mutex
	streams map[string]*itemStream
}

type itemStream struct {
	mutex   sync.Mutex
	nextSeq uint64
	pending map[uint64]*domain.AuctionEvent
}

func NewEventSequencer(next domain.EventPublisher, log logger.Logger) *EventSequencer {
	return &EventSequencer{
		next:    next,
		log:     log,
		streams: make(map[string]*itemStream),
	}
}

func (s *EventSequencer) stream(itemID string) *itemStream {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	st, exists := s.streams[itemID]
	if !exists {
		st = &itemStream{nextSeq: 1, pending: make(map[uint64]*domain.AuctionEvent)}
		s.streams[itemID] = st
	}
	return st
}

func (s *EventSequencer) PublishAuctionEvent(ctx context.Context, event *domain.AuctionEvent) error {
	st := s.stream(event.ItemID)

	st.mutex.Lock()
	defer st.mutex.Unlock()

	if event.Seq < st.nextSeq {
		s.log.Warn("Dropping stale auction event", "item_id", event.ItemID,
			"seq", event.Seq, "next_seq", st.nextSeq)
		return nil
	}
	st.pending[event.Seq] = event

	var firstErr error
	for {
		ready, ok := st.pending[st.nextSeq]
		if !ok {
			break
		}
		delete(st.pending, st.nextSeq)
		st.nextSeq++

		if err := s.next.PublishAuctionEvent(ctx, ready); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if len(st.pending) > 0 {
		s.log.Debug("Auction events waiting for predecessor", "item_id", event.ItemID,
			"next_seq", st.nextSeq, "pending", len(st.pending))
	}
	return firstErr
}

// Reset forgets all per-item progress. Call it together with a store reset.
func (s *EventSequencer) Reset() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.streams = make(map[string]*itemStream)
}

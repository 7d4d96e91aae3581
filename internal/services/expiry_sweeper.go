package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"live-auction/internal/domain"
	"live-auction/pkg/logger"

	"github.com/robfig/cron/v3"
)

var _ domain.ExpiryScheduler = (*ExpirySweeper)(nil)

type ExpirySweeper struct {
	cron      *cron.Cron
	store     domain.ItemStore
	locker    *ItemLocker
	publisher domain.EventPublisher
	interval  time.Duration
	lockWait  time.Duration
	now       func() time.Time
	log       logger.Logger
}

func NewExpirySweeper(
	store domain.ItemStore,
	locker *ItemLocker,
	publisher domain.EventPublisher,
	interval time.Duration,
	lockWait time.Duration,
	now func() time.Time,
	log logger.Logger,
) *ExpirySweeper {
	if now == nil {
		now = time.Now
	}
	return &ExpirySweeper{
		cron:      cron.New(cron.WithSeconds()),
		store:     store,
		locker:    locker,
		publisher: publisher,
		interval:  interval,
		lockWait:  lockWait,
		now:       now,
		log:       log,
	}
}

func (s *ExpirySweeper) Start(ctx context.Context) error {
	s.log.Info("Starting expiry sweeper", "interval", s.interval.String())

	_, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.interval), func() {
		s.Sweep(ctx)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

func (s *ExpirySweeper) Stop() error {
	s.log.Info("Stopping expiry sweeper")
	<-s.cron.Stop().Done()
	return nil
}

// Sweep ends every active item whose deadline has passed and publishes one
// AuctionEnded event per item it ended. Items already ended are skipped, so
// repeated sweeps never emit twice.
func (s *ExpirySweeper) Sweep(ctx context.Context) []domain.AuctionItem {
	var expired []domain.AuctionItem
	for _, candidate := range s.store.List() {
		if ended := s.expire(candidate); ended != nil {
			expired = append(expired, *ended)
		}
	}

	s.publishEnded(ctx, expired)
	return expired
}

// SweepItem is Sweep restricted to one item. It returns the ended item, or
// nil when nothing changed.
func (s *ExpirySweeper) SweepItem(ctx context.Context, itemID string) (*domain.AuctionItem, error) {
	candidate, err := s.store.Get(itemID)
	if err != nil {
		return nil, err
	}

	ended := s.expire(candidate)
	if ended != nil {
		s.publishEnded(ctx, []domain.AuctionItem{*ended})
	}
	return ended, nil
}

// expire ends candidate under its token if the deadline has passed.
func (s *ExpirySweeper) expire(candidate domain.AuctionItem) *domain.AuctionItem {
	if candidate.IsOpenAt(s.now()) || candidate.Status == domain.ItemEnded {
		return nil
	}

	ended, err := WithItemLockWait(s.locker, candidate.ID, s.lockWait, func() (*domain.AuctionItem, error) {
		return s.endIfExpired(candidate.ID)
	})
	switch {
	case errors.Is(err, domain.ErrContended):
		s.log.Debug("Item busy, retrying expiry on next sweep", "item_id", candidate.ID)
		return nil
	case err != nil:
		s.log.Error("Failed to end auction", "item_id", candidate.ID, "error", err)
		return nil
	}
	return ended
}

// publishEnded runs after every token has been released.
func (s *ExpirySweeper) publishEnded(ctx context.Context, expired []domain.AuctionItem) {
	for _, item := range expired {
		s.log.Info("Auction ended", "item_id", item.ID, "title", item.Title,
			"final_bid", item.CurrentBid.String(), "winner_id", item.HighestBidderID)

		if err := s.publisher.PublishAuctionEvent(ctx, domain.NewAuctionEnded(item, s.now())); err != nil {
			s.log.Warn("Failed to publish auction ended event", "item_id", item.ID, "error", err)
		}
	}
}

// endIfExpired re-checks under the item's token, since a bid may have been
// accepted between listing and locking.
func (s *ExpirySweeper) endIfExpired(itemID string) (*domain.AuctionItem, error) {
	item, err := s.store.Get(itemID)
	if err != nil {
		return nil, err
	}
	if item.Status != domain.ItemActive || item.IsOpenAt(s.now()) {
		return nil, nil
	}

	ended := domain.ItemEnded
	updated, err := s.store.ApplyUpdate(itemID, domain.ItemUpdate{Status: &ended})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

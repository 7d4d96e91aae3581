package services

import (
	"context"
	"time"

	"live-auction/internal/domain"

	"github.com/shopspring/decimal"
)

// AuctionService is what transports talk to. Reads sweep first so nobody is
// served an "active" item whose deadline has already passed.
type AuctionService struct {
	store   domain.ItemStore
	engine  *BidEngine
	sweeper *ExpirySweeper
	now     func() time.Time
}

func NewAuctionService(store domain.ItemStore, engine *BidEngine, sweeper *ExpirySweeper, now func() time.Time) *AuctionService {
	if now == nil {
		now = time.Now
	}
	return &AuctionService{
		store:   store,
		engine:  engine,
		sweeper: sweeper,
		now:     now,
	}
}

func (s *AuctionService) PlaceBid(ctx context.Context, itemID, bidderID string, increment decimal.Decimal) (domain.AuctionItem, error) {
	return s.engine.PlaceBid(ctx, itemID, bidderID, increment)
}

// ListItems returns every item together with the server's clock reading, so
// clients can compute remaining time against a shared reference.
func (s *AuctionService) ListItems(ctx context.Context) ([]domain.AuctionItem, time.Time) {
	s.sweeper.Sweep(ctx)
	return s.store.List(), s.now()
}

// GetItem only settles itemID's own expiry before reading it.
func (s *AuctionService) GetItem(ctx context.Context, itemID string) (domain.AuctionItem, time.Time, error) {
	if _, err := s.sweeper.SweepItem(ctx, itemID); err != nil {
		return domain.AuctionItem{}, s.now(), err
	}
	item, err := s.store.Get(itemID)
	return item, s.now(), err
}

func (s *AuctionService) BidHistory(itemID string) ([]domain.BidRecord, error) {
	if _, err := s.store.Get(itemID); err != nil {
		return nil, err
	}
	return s.store.Bids(itemID), nil
}

func (s *AuctionService) CheckAuctions(ctx context.Context) []domain.AuctionItem {
	return s.sweeper.Sweep(ctx)
}

func (s *AuctionService) Now() time.Time {
	return s.now()
}

package memory

import (
	"fmt"
	"sync"
	"time"

	"live-auction/internal/domain"
	"live-auction/pkg/utils"

	"github.com/shopspring/decimal"
)

// AuctionStore owns every item and the bid ledger. Its mutex only guards the
// store's own bookkeeping; business-rule exclusion is layered on top per item.
type AuctionStore struct {
	mutex  sync.RWMutex
	items  map[string]*domain.AuctionItem
	order  []string
	ledger []domain.BidRecord
	now    func() time.Time
}

func NewAuctionStore(now func() time.Time) *AuctionStore {
	if now == nil {
		now = time.Now
	}
	return &AuctionStore{
		items: make(map[string]*domain.AuctionItem),
		now:   now,
	}
}

// Seed adds catalog items. Items are normalized to their initial auction state.
func (s *AuctionStore) Seed(items []domain.AuctionItem) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, item := range items {
		if item.ID == "" {
			return fmt.Errorf("seed item %q: empty id", item.Title)
		}
		if _, exists := s.items[item.ID]; exists {
			return fmt.Errorf("seed item %s: duplicate id", item.ID)
		}

		stored := item.Clone()
		stored.CurrentBid = stored.StartingPrice
		stored.HighestBidderID = nil
		stored.Status = domain.ItemActive
		stored.Version = 0
		if stored.CreatedAt.IsZero() {
			stored.CreatedAt = s.now()
		}

		s.items[stored.ID] = &stored
		s.order = append(s.order, stored.ID)
	}
	return nil
}

// Reset drops all items and the ledger, then seeds again.
func (s *AuctionStore) Reset(items []domain.AuctionItem) error {
	s.mutex.Lock()
	s.items = make(map[string]*domain.AuctionItem)
	s.order = nil
	s.ledger = nil
	s.mutex.Unlock()

	return s.Seed(items)
}

func (s *AuctionStore) List() []domain.AuctionItem {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	items := make([]domain.AuctionItem, 0, len(s.order))
	for _, id := range s.order {
		items = append(items, s.items[id].Clone())
	}
	return items
}

func (s *AuctionStore) Get(itemID string) (domain.AuctionItem, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	item, exists := s.items[itemID]
	if !exists {
		return domain.AuctionItem{}, fmt.Errorf("%w: %s", domain.ErrNotFound, itemID)
	}
	return item.Clone(), nil
}

func (s *AuctionStore) ApplyUpdate(itemID string, update domain.ItemUpdate) (domain.AuctionItem, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	item, exists := s.items[itemID]
	if !exists {
		return domain.AuctionItem{}, fmt.Errorf("%w: %s", domain.ErrNotFound, itemID)
	}
	if err := checkUpdate(item, update); err != nil {
		return domain.AuctionItem{}, err
	}

	updated := item.Clone()
	if update.CurrentBid != nil {
		updated.CurrentBid = *update.CurrentBid
	}
	if update.HighestBidderID != nil {
		bidder := *update.HighestBidderID
		updated.HighestBidderID = &bidder
	}
	if update.Status != nil {
		updated.Status = *update.Status
	}
	updated.Version++

	s.items[itemID] = &updated
	return updated.Clone(), nil
}

func checkUpdate(item *domain.AuctionItem, update domain.ItemUpdate) error {
	touchesBid := update.CurrentBid != nil || update.HighestBidderID != nil
	if item.Status == domain.ItemEnded {
		if touchesBid {
			return fmt.Errorf("%w: bid update on ended item %s", domain.ErrInvariantViolation, item.ID)
		}
		if update.Status != nil && *update.Status != domain.ItemEnded {
			return fmt.Errorf("%w: item %s cannot leave ended status", domain.ErrInvariantViolation, item.ID)
		}
	}
	if update.CurrentBid != nil && update.CurrentBid.LessThan(item.CurrentBid) {
		return fmt.Errorf("%w: bid on item %s would drop from %s to %s",
			domain.ErrInvariantViolation, item.ID, item.CurrentBid, update.CurrentBid)
	}
	return nil
}

func (s *AuctionStore) AppendBid(itemID, bidderID string, amount decimal.Decimal, status domain.BidStatus) domain.BidRecord {
	record := domain.BidRecord{
		ID:       utils.GenerateID("bid"),
		ItemID:   itemID,
		BidderID: bidderID,
		Amount:   amount,
		BidTime:  s.now(),
		Status:   status,
	}

	s.mutex.Lock()
	s.ledger = append(s.ledger, record)
	s.mutex.Unlock()

	return record
}

func (s *AuctionStore) Bids(itemID string) []domain.BidRecord {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var bids []domain.BidRecord
	for _, record := range s.ledger {
		if record.ItemID == itemID {
			bids = append(bids, record)
		}
	}
	return bids
}

// Ledger returns every recorded bid in append order.
func (s *AuctionStore) Ledger() []domain.BidRecord {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	ledger := make([]domain.BidRecord, len(s.ledger))
	copy(ledger, s.ledger)
	return ledger
}

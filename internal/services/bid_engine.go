package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"live-auction/internal/domain"
	"live-auction/pkg/logger"

	"github.com/shopspring/decimal"
)

// maxIncrementExponent bounds the decimal exponent before any arithmetic
// touches an increment; Add, Cmp and Truncate all rescale the coefficient.
const maxIncrementExponent = 18

// BidLimits bounds what a single increment may look like.
type BidLimits struct {
	// Scale is the number of fractional digits the currency allows.
	Scale        int32
	MaxIncrement decimal.Decimal
}

func DefaultBidLimits() BidLimits {
	return BidLimits{Scale: 2, MaxIncrement: decimal.NewFromInt(1_000_000_000)}
}

// normalize rejects increments that are not positive, finer than Scale or
// above MaxIncrement, and returns the increment rescaled to Scale.
func (l BidLimits) normalize(increment decimal.Decimal) (decimal.Decimal, error) {
	if !increment.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: increment is not positive", domain.ErrInvalidBid)
	}
	if exp := increment.Exponent(); exp < -maxIncrementExponent || exp > maxIncrementExponent {
		return decimal.Zero, fmt.Errorf("%w: increment exponent %d out of range", domain.ErrInvalidBid, exp)
	}
	truncated := increment.Truncate(l.Scale)
	if !truncated.Equal(increment) {
		return decimal.Zero, fmt.Errorf("%w: increment %s has more than %d decimal places",
			domain.ErrInvalidBid, increment, l.Scale)
	}
	if truncated.GreaterThan(l.MaxIncrement) {
		return decimal.Zero, fmt.Errorf("%w: increment %s exceeds %s", domain.ErrInvalidBid, increment, l.MaxIncrement)
	}
	return truncated, nil
}

type BidEngine struct {
	store     domain.ItemStore
	locker    *ItemLocker
	publisher domain.EventPublisher
	limits    BidLimits
	now       func() time.Time
	log       logger.Logger
}

func NewBidEngine(
	store domain.ItemStore,
	locker *ItemLocker,
	publisher domain.EventPublisher,
	now func() time.Time,
	log logger.Logger,
) *BidEngine {
	if now == nil {
		now = time.Now
	}
	return &BidEngine{
		store:     store,
		locker:    locker,
		publisher: publisher,
		limits:    DefaultBidLimits(),
		now:       now,
		log:       log,
	}
}

func (e *BidEngine) SetLimits(limits BidLimits) {
	e.limits = limits
}

// PlaceBid raises itemID's current bid by increment on behalf of bidderID.
// The read-validate-write sequence runs under the item's exclusion token; the
// BidAccepted event is published after the token is released.
func (e *BidEngine) PlaceBid(ctx context.Context, itemID, bidderID string, increment decimal.Decimal) (domain.AuctionItem, error) {
	increment, err := e.limits.normalize(increment)
	if err != nil {
		return domain.AuctionItem{}, err
	}
	if strings.TrimSpace(bidderID) == "" {
		return domain.AuctionItem{}, fmt.Errorf("%w: missing bidder", domain.ErrInvalidBid)
	}
	// Items are never deleted, so existence can be settled before taking a token.
	if _, err := e.store.Get(itemID); err != nil {
		return domain.AuctionItem{}, err
	}

	updated, err := WithItemLock(e.locker, itemID, func() (domain.AuctionItem, error) {
		return e.applyBid(itemID, bidderID, increment)
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvariantViolation) {
			e.log.Error("Auction store invariant violated while placing bid",
				"item_id", itemID, "bidder_id", bidderID, "increment", increment.String(), "error", err)
		} else {
			e.log.Debug("Bid rejected", "item_id", itemID, "bidder_id", bidderID,
				"increment", increment.String(), "reason", domain.ReasonFor(err))
		}
		return domain.AuctionItem{}, err
	}

	e.log.Info("Bid placed", "item_id", updated.ID, "title", updated.Title,
		"current_bid", updated.CurrentBid.String(), "bidder_id", bidderID)

	if err := e.publisher.PublishAuctionEvent(ctx, domain.NewBidAccepted(updated, e.now())); err != nil {
		e.log.Warn("Failed to publish bid accepted event", "item_id", updated.ID, "error", err)
	}
	return updated, nil
}

// applyBid must only run while holding itemID's token.
func (e *BidEngine) applyBid(itemID, bidderID string, increment decimal.Decimal) (domain.AuctionItem, error) {
	item, err := e.store.Get(itemID)
	if err != nil {
		return domain.AuctionItem{}, err
	}

	if !item.IsOpenAt(e.now()) {
		return domain.AuctionItem{}, fmt.Errorf("%w: item %s", domain.ErrAuctionEnded, itemID)
	}

	newBid := item.CurrentBid.Add(increment)
	if !newBid.GreaterThan(item.CurrentBid) {
		return domain.AuctionItem{}, fmt.Errorf("%w: %s does not exceed %s", domain.ErrBidTooLow, newBid, item.CurrentBid)
	}

	updated, err := e.store.ApplyUpdate(itemID, domain.ItemUpdate{
		CurrentBid:      &newBid,
		HighestBidderID: &bidderID,
	})
	if err != nil {
		return domain.AuctionItem{}, err
	}

	e.store.AppendBid(itemID, bidderID, newBid, domain.BidStatusAccepted)
	return updated, nil
}

package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type AuctionItem struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	StartingPrice   decimal.Decimal `json:"startingPrice"`
	CurrentBid      decimal.Decimal `json:"currentBid"`
	HighestBidderID *string         `json:"highestBidderId"`
	Status          ItemStatus      `json:"status"`
	EndsAt          time.Time       `json:"endsAt"`
	CreatedAt       time.Time       `json:"createdAt"`
	Version         uint64          `json:"version"`
}

// Clone returns a deep copy so callers never alias store-owned state.
func (i AuctionItem) Clone() AuctionItem {
	if i.HighestBidderID != nil {
		bidder := *i.HighestBidderID
		i.HighestBidderID = &bidder
	}
	return i
}

// IsOpenAt reports whether the item still accepts bids at the given instant.
func (i AuctionItem) IsOpenAt(now time.Time) bool {
	return i.Status == ItemActive && now.Before(i.EndsAt)
}

type ItemStatus int

const (
	ItemActive ItemStatus = iota
	ItemEnded
)

func (s ItemStatus) String() string {
	switch s {
	case ItemActive:
		return "active"
	case ItemEnded:
		return "ended"
	default:
		return "unknown"
	}
}

func (s ItemStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *ItemStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw {
	case "active":
		*s = ItemActive
	case "ended":
		*s = ItemEnded
	default:
		return fmt.Errorf("unknown item status %q", raw)
	}
	return nil
}

// ItemUpdate carries the mutable fields of an AuctionItem. Nil fields are left untouched.
type ItemUpdate struct {
	CurrentBid      *decimal.Decimal
	HighestBidderID *string
	Status          *ItemStatus
}

type BidRecord struct {
	ID       string          `json:"id"`
	ItemID   string          `json:"itemId"`
	BidderID string          `json:"bidderId"`
	Amount   decimal.Decimal `json:"bidAmount"`
	BidTime  time.Time       `json:"bidTime"`
	Status   BidStatus       `json:"status"`
}

type BidStatus string

const (
	BidStatusAccepted BidStatus = "accepted"
	BidStatusRejected BidStatus = "rejected"
)

package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Amounts go over the wire as JSON numbers, the way clients already read them.
	decimal.MarshalJSONWithoutQuotes = true
}

type AuctionEventType string

const (
	EventBidAccepted  AuctionEventType = "UPDATE_BID"
	EventAuctionEnded AuctionEventType = "AUCTION_ENDED"
	EventBidRejected  AuctionEventType = "BID_ERROR"
)

// AuctionEvent is a broadcast notification about one item. Seq is the item version
// produced by the update that caused the event and orders events per item.
type AuctionEvent struct {
	Type       AuctionEventType
	ItemID     string
	Amount     decimal.Decimal
	BidderID   *string
	Seq        uint64
	ServerTime time.Time
}

func NewBidAccepted(item AuctionItem, now time.Time) *AuctionEvent {
	item = item.Clone()
	return &AuctionEvent{
		Type:       EventBidAccepted,
		ItemID:     item.ID,
		Amount:     item.CurrentBid,
		BidderID:   item.HighestBidderID,
		Seq:        item.Version,
		ServerTime: now,
	}
}

func NewAuctionEnded(item AuctionItem, now time.Time) *AuctionEvent {
	item = item.Clone()
	return &AuctionEvent{
		Type:       EventAuctionEnded,
		ItemID:     item.ID,
		Amount:     item.CurrentBid,
		BidderID:   item.HighestBidderID,
		Seq:        item.Version,
		ServerTime: now,
	}
}

type bidAcceptedPayload struct {
	Type            AuctionEventType `json:"type"`
	ItemID          string           `json:"itemId"`
	CurrentBid      decimal.Decimal  `json:"currentBid"`
	HighestBidderID *string          `json:"highestBidderId"`
	Seq             uint64           `json:"seq"`
	ServerTime      int64            `json:"serverTime"`
}

type auctionEndedPayload struct {
	Type       AuctionEventType `json:"type"`
	ItemID     string           `json:"itemId"`
	FinalBid   decimal.Decimal  `json:"finalBid"`
	WinnerID   *string          `json:"winnerId"`
	Seq        uint64           `json:"seq"`
	ServerTime int64            `json:"serverTime"`
}

func (e AuctionEvent) MarshalJSON() ([]byte, error) {
	if e.Type == EventAuctionEnded {
		return json.Marshal(auctionEndedPayload{
			Type:       e.Type,
			ItemID:     e.ItemID,
			FinalBid:   e.Amount,
			WinnerID:   e.BidderID,
			Seq:        e.Seq,
			ServerTime: e.ServerTime.UnixMilli(),
		})
	}
	return json.Marshal(bidAcceptedPayload{
		Type:            e.Type,
		ItemID:          e.ItemID,
		CurrentBid:      e.Amount,
		HighestBidderID: e.BidderID,
		Seq:             e.Seq,
		ServerTime:      e.ServerTime.UnixMilli(),
	})
}

// BidRejection is delivered only to the caller whose bid was refused.
type BidRejection struct {
	Type       AuctionEventType `json:"type"`
	ItemID     string           `json:"itemId,omitempty"`
	Reason     RejectReason     `json:"reason"`
	Message    string           `json:"message"`
	ServerTime int64            `json:"serverTime"`
}

func NewBidRejection(itemID string, err error, now time.Time) *BidRejection {
	reason := ReasonFor(err)
	return &BidRejection{
		Type:       EventBidRejected,
		ItemID:     itemID,
		Reason:     reason,
		Message:    reason.Message(),
		ServerTime: now.UnixMilli(),
	}
}

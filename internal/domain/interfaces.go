package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// Store interface
type ItemStore interface {
	List() []AuctionItem
	Get(itemID string) (AuctionItem, error)
	ApplyUpdate(itemID string, update ItemUpdate) (AuctionItem, error)
	AppendBid(itemID, bidderID string, amount decimal.Decimal, status BidStatus) BidRecord
	Bids(itemID string) []BidRecord
}

// Event interfaces
type EventPublisher interface {
	PublishAuctionEvent(ctx context.Context, event *AuctionEvent) error
}

type EventPublisherFunc func(ctx context.Context, event *AuctionEvent) error

func (f EventPublisherFunc) PublishAuctionEvent(ctx context.Context, event *AuctionEvent) error {
	return f(ctx, event)
}

// Scheduler interface
type ExpiryScheduler interface {
	Start(ctx context.Context) error
	Stop() error
}

// WebSocket interfaces
type WebSocketConnection interface {
	Send(message interface{}) error
	Close() error
	ID() string
	UserID() string
	// ItemID is the item the connection watches; empty means every item.
	ItemID() string
}

type ConnectionManager interface {
	RegisterConnection(conn WebSocketConnection) error
	UnregisterConnection(connID string) error
	Connections() []WebSocketConnection
	Broadcast(message interface{}) error
	BroadcastToItem(itemID string, message interface{}) error
	NotifyConnection(connID string, message interface{}) error
	CloseAll() error
}

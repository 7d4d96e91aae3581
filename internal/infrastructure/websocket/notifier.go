package websocket

import (
	"context"

	"live-auction/internal/domain"
)

// WebSocketNotifier broadcasts auction events to the connections watching the item.
type WebSocketNotifier struct {
	connManager domain.ConnectionManager
}

func NewWebSocketNotifier(connManager domain.ConnectionManager) *WebSocketNotifier {
	return &WebSocketNotifier{connManager: connManager}
}

func (n *WebSocketNotifier) PublishAuctionEvent(ctx context.Context, event *domain.AuctionEvent) error {
	return n.connManager.BroadcastToItem(event.ItemID, event)
}

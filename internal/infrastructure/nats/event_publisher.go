package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"live-auction/internal/domain"
	"live-auction/pkg/logger"

	"github.com/nats-io/nats.go"
)

// Conn is the slice of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subject string, data []byte) error
}

// EventPublisher publishes each auction event on <prefix>.<itemId>.
type EventPublisher struct {
	conn   Conn
	prefix string
}

func NewEventPublisher(conn Conn, prefix string) *EventPublisher {
	return &EventPublisher{conn: conn, prefix: prefix}
}

func (p *EventPublisher) Subject(itemID string) string {
	return p.prefix + "." + itemID
}

func (p *EventPublisher) PublishAuctionEvent(ctx context.Context, event *domain.AuctionEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event.Type, err)
	}
	return p.conn.Publish(p.Subject(event.ItemID), data)
}

// Connect dials url and logs connection state changes.
func Connect(url string, log logger.Logger) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("live-auction"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
	)
}

package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"live-auction/internal/domain"

	"github.com/go-redis/redis/v8"
)

// Publisher is the slice of *redis.Client the event publisher needs.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// EventPublisherImpl relays auction events as JSON on a pub/sub channel.
type EventPublisherImpl struct {
	client  Publisher
	channel string
}

func NewEventPublisher(client Publisher, channel string) *EventPublisherImpl {
	return &EventPublisherImpl{client: client, channel: channel}
}

func (r *EventPublisherImpl) PublishAuctionEvent(ctx context.Context, event *domain.AuctionEvent) error {
	eventData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event.Type, err)
	}
	return r.client.Publish(ctx, r.channel, eventData).Err()
}

// NewClient connects and pings so a bad address fails at startup.
func NewClient(ctx context.Context, address, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}
	return rdb, nil
}

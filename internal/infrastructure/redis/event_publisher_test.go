package redis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"live-auction/internal/domain"

	"github.com/go-redis/redis/v8"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"
)

type fakeClient struct {
	channel string
	payload []byte
	err     error
}

func (f *fakeClient) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	f.channel = channel
	f.payload, _ = message.([]byte)
	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
	} else {
		cmd.SetVal(1)
	}
	return cmd
}

func testEvent() *domain.AuctionEvent {
	bidder := "alice"
	return domain.NewBidAccepted(domain.AuctionItem{
		ID:              "1",
		CurrentBid:      decimal.RequireFromString("50010.5"),
		HighestBidderID: &bidder,
		Version:         3,
	}, time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
}

func TestPublishAuctionEvent(t *testing.T) {
	client := &fakeClient{}
	publisher := NewEventPublisher(client, "auction_events")

	assert.NoError(t, publisher.PublishAuctionEvent(context.Background(), testEvent()))
	check.Equal(t, "auction_events", client.channel)

	var payload map[string]interface{}
	assert.NoError(t, json.Unmarshal(client.payload, &payload))
	check.Equal(t, "UPDATE_BID", payload["type"])
	check.Equal(t, "1", payload["itemId"])
	check.Equal(t, 50010.5, payload["currentBid"])
	check.Equal(t, interface{}(float64(3)), payload["seq"])
}

func TestPublishAuctionEvent_Error(t *testing.T) {
	client := &fakeClient{err: errors.New("connection refused")}
	publisher := NewEventPublisher(client, "auction_events")

	err := publisher.PublishAuctionEvent(context.Background(), testEvent())
	check.Error(t, err)
}

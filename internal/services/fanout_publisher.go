package services

import (
	"context"
	"errors"

	"live-auction/internal/domain"
	"live-auction/pkg/logger"
)

type namedPublisher struct {
	name      string
	publisher domain.EventPublisher
}

// FanoutPublisher delivers every event to each registered sink in
// registration order. A failing sink does not stop the others.
type FanoutPublisher struct {
	sinks []namedPublisher
	log   logger.Logger
}

func NewFanoutPublisher(log logger.Logger) *FanoutPublisher {
	return &FanoutPublisher{log: log}
}

func (f *FanoutPublisher) Register(name string, publisher domain.EventPublisher) {
	f.sinks = append(f.sinks, namedPublisher{name: name, publisher: publisher})
	f.log.Info("Registered event sink", "sink", name)
}

func (f *FanoutPublisher) PublishAuctionEvent(ctx context.Context, event *domain.AuctionEvent) error {
	var errs []error
	for _, sink := range f.sinks {
		if err := sink.publisher.PublishAuctionEvent(ctx, event); err != nil {
			f.log.Error("Failed to publish auction event", "sink", sink.name,
				"type", event.Type, "item_id", event.ItemID, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

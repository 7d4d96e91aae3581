// Package catalog builds the fixed set of items the engine auctions.
package catalog

import (
	"fmt"
	"time"

	"live-auction/internal/config"
	"live-auction/internal/domain"

	"github.com/shopspring/decimal"
)

// DefaultItems is the demo catalog used when no items are configured.
func DefaultItems() []config.CatalogItemConfig {
	return []config.CatalogItemConfig{
		{ID: "1", Title: "iPhone 15 Pro Max", Description: "Brand new iPhone 15 Pro Max 256GB in Titanium Blue", StartingPrice: "50000", Duration: 2 * time.Hour},
		{ID: "2", Title: "MacBook Pro M3", Description: "Latest MacBook Pro with M3 chip, 16GB RAM, 512GB SSD", StartingPrice: "120000", Duration: 3 * time.Hour},
		{ID: "3", Title: "Sony WH-1000XM5", Description: "Premium noise cancelling wireless headphones", StartingPrice: "15000", Duration: time.Hour},
		{ID: "4", Title: "iPad Air", Description: "iPad Air 5th generation with M1 chip, 64GB WiFi", StartingPrice: "35000", Duration: 4 * time.Hour},
		{ID: "5", Title: "AirPods Pro 2", Description: "Latest AirPods Pro with USB-C charging case", StartingPrice: "18000", Duration: 90 * time.Minute},
		{ID: "6", Title: "Samsung Galaxy Watch 6", Description: "Samsung Galaxy Watch 6 Classic 47mm", StartingPrice: "25000", Duration: 5 * time.Hour},
	}
}

// Build turns configured entries into auction items whose deadlines are
// measured from now. An empty configuration yields DefaultItems.
func Build(entries []config.CatalogItemConfig, now time.Time) ([]domain.AuctionItem, error) {
	if len(entries) == 0 {
		entries = DefaultItems()
	}

	items := make([]domain.AuctionItem, 0, len(entries))
	for _, entry := range entries {
		price, err := decimal.NewFromString(entry.StartingPrice)
		if err != nil {
			return nil, fmt.Errorf("catalog item %s: starting price %q: %w", entry.ID, entry.StartingPrice, err)
		}
		if price.IsNegative() {
			return nil, fmt.Errorf("catalog item %s: negative starting price %s", entry.ID, price)
		}
		if entry.Duration <= 0 {
			return nil, fmt.Errorf("catalog item %s: duration must be positive", entry.ID)
		}

		items = append(items, domain.AuctionItem{
			ID:            entry.ID,
			Title:         entry.Title,
			Description:   entry.Description,
			StartingPrice: price,
			CurrentBid:    price,
			Status:        domain.ItemActive,
			EndsAt:        now.Add(entry.Duration),
			CreatedAt:     now,
		})
	}
	return items, nil
}

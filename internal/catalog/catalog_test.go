package catalog

import (
	"testing"
	"time"

	"live-auction/internal/config"
	"live-auction/internal/domain"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

func TestBuild_DefaultCatalog(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	items, err := Build(nil, now)
	assert.NoError(t, err)
	assert.Equal(t, 6, len(items))

	check.Equal(t, "iPhone 15 Pro Max", items[0].Title)
	check.Equal(t, "50000", items[0].StartingPrice.String())
	check.Equal(t, "50000", items[0].CurrentBid.String())
	check.Equal(t, now.Add(2*time.Hour), items[0].EndsAt)
	check.Equal(t, domain.ItemActive, items[0].Status)
	check.Nil(t, items[0].HighestBidderID)
	check.Equal(t, now.Add(90*time.Minute), items[4].EndsAt)
}

func TestBuild_RejectsBadEntries(t *testing.T) {
	now := time.Now()

	_, err := Build([]config.CatalogItemConfig{{ID: "x", StartingPrice: "abc", Duration: time.Hour}}, now)
	check.Error(t, err)

	_, err = Build([]config.CatalogItemConfig{{ID: "x", StartingPrice: "-1", Duration: time.Hour}}, now)
	check.Error(t, err)

	_, err = Build([]config.CatalogItemConfig{{ID: "x", StartingPrice: "10"}}, now)
	check.Error(t, err)
}

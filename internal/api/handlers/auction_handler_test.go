package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"live-auction/internal/domain"
	"live-auction/internal/infrastructure/memory"
	"live-auction/internal/services"
	"live-auction/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newTestServer(t *testing.T) (*echo.Echo, *clock) {
	t.Helper()
	clk := &clock{now: fixedNow}
	log := logger.NewNop()

	store := memory.NewAuctionStore(clk.Now)
	err := store.Seed([]domain.AuctionItem{
		{ID: "1", Title: "iPhone 15 Pro Max", StartingPrice: decimal.NewFromInt(50000), EndsAt: fixedNow.Add(2 * time.Hour)},
		{ID: "2", Title: "Sony WH-1000XM5", StartingPrice: decimal.NewFromInt(15000), EndsAt: fixedNow.Add(time.Hour)},
	})
	assert.NoError(t, err)

	publisher := domain.EventPublisherFunc(func(context.Context, *domain.AuctionEvent) error { return nil })
	locker := services.NewItemLocker(0)
	engine := services.NewBidEngine(store, locker, publisher, clk.Now, log)
	sweeper := services.NewExpirySweeper(store, locker, publisher, 10*time.Second, 0, clk.Now, log)
	service := services.NewAuctionService(store, engine, sweeper, clk.Now)

	e := echo.New()
	NewAuctionHandler(service, log).Register(e)
	return e, clk
}

func do(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestListItems(t *testing.T) {
	e, _ := newTestServer(t)

	rec := do(e, http.MethodGet, "/api/items", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp ItemsResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	check.Equal(t, fixedNow.UnixMilli(), resp.ServerTime)
	assert.Equal(t, 2, len(resp.Items))
	check.Equal(t, "1", resp.Items[0].ID)
	check.Equal(t, "50000", resp.Items[0].CurrentBid.String())
	check.Equal(t, domain.ItemActive, resp.Items[0].Status)
}

func TestGetItem_NotFound(t *testing.T) {
	e, _ := newTestServer(t)

	rec := do(e, http.MethodGet, "/api/items/missing", "")
	check.Equal(t, http.StatusNotFound, rec.Code)

	var rejection domain.BidRejection
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rejection))
	check.Equal(t, domain.ReasonNotFound, rejection.Reason)
}

func TestPlaceBid_Accepted(t *testing.T) {
	e, _ := newTestServer(t)

	rec := do(e, http.MethodPost, "/api/items/1/bids", `{"bidderId":"alice","bidIncrement":10.5}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp ItemResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	check.Equal(t, "50010.5", resp.Item.CurrentBid.String())
	assert.NotNil(t, resp.Item.HighestBidderID)
	check.Equal(t, "alice", *resp.Item.HighestBidderID)

	rec = do(e, http.MethodGet, "/api/items/1/bids", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	var bids BidsResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bids))
	assert.Equal(t, 1, len(bids.Bids))
	check.Equal(t, "50010.5", bids.Bids[0].Amount.String())
}

func TestPlaceBid_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		body   string
		status int
		reason domain.RejectReason
	}{
		{"zero increment", "/api/items/1/bids", `{"bidderId":"alice","bidIncrement":0}`, http.StatusBadRequest, domain.ReasonInvalidBid},
		{"negative increment", "/api/items/1/bids", `{"bidderId":"alice","bidIncrement":-5}`, http.StatusBadRequest, domain.ReasonInvalidBid},
		{"malformed body", "/api/items/1/bids", `{"bidderId":"alice","bidIncrement":"ten"}`, http.StatusBadRequest, domain.ReasonInvalidBid},
		{"missing bidder", "/api/items/1/bids", `{"bidIncrement":10}`, http.StatusBadRequest, domain.ReasonInvalidBid},
		{"sub-cent increment", "/api/items/1/bids", `{"bidderId":"alice","bidIncrement":0.001}`, http.StatusBadRequest, domain.ReasonInvalidBid},
		{"unbounded precision", "/api/items/1/bids", `{"bidderId":"alice","bidIncrement":1e-2000000000}`, http.StatusBadRequest, domain.ReasonInvalidBid},
		{"unbounded magnitude", "/api/items/1/bids", `{"bidderId":"alice","bidIncrement":1e2000000000}`, http.StatusBadRequest, domain.ReasonInvalidBid},
		{"unknown item", "/api/items/9/bids", `{"bidderId":"alice","bidIncrement":10}`, http.StatusNotFound, domain.ReasonNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestServer(t)

			rec := do(e, http.MethodPost, tt.path, tt.body)
			check.Equal(t, tt.status, rec.Code)

			var rejection domain.BidRejection
			assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rejection))
			check.Equal(t, domain.EventBidRejected, rejection.Type)
			check.Equal(t, tt.reason, rejection.Reason)
			check.Equal(t, tt.reason.Message(), rejection.Message)
		})
	}
}

func TestPlaceBid_AfterDeadline(t *testing.T) {
	e, clk := newTestServer(t)
	clk.now = fixedNow.Add(time.Hour)

	rec := do(e, http.MethodPost, "/api/items/2/bids", `{"bidderId":"alice","bidIncrement":10}`)
	check.Equal(t, http.StatusGone, rec.Code)

	rec = do(e, http.MethodGet, "/api/items/2", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	var resp ItemResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	check.Equal(t, domain.ItemEnded, resp.Item.Status)
	check.Equal(t, "15000", resp.Item.CurrentBid.String())
}

func TestHealth(t *testing.T) {
	e, _ := newTestServer(t)

	rec := do(e, http.MethodGet, "/health", "")
	check.Equal(t, http.StatusOK, rec.Code)
	check.True(t, strings.Contains(rec.Body.String(), `"status":"ok"`))
}

func TestStatusFor(t *testing.T) {
	check.Equal(t, http.StatusConflict, StatusFor(domain.ReasonContended))
	check.Equal(t, http.StatusUnprocessableEntity, StatusFor(domain.ReasonBidTooLow))
	check.Equal(t, http.StatusInternalServerError, StatusFor(domain.ReasonInternal))
}

package handlers

import (
	"net/http"

	"live-auction/internal/domain"
	"live-auction/internal/services"
	"live-auction/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type AuctionHandler struct {
	service *services.AuctionService
	log     logger.Logger
}

type PlaceBidRequest struct {
	BidderID     string          `json:"bidderId"`
	BidIncrement decimal.Decimal `json:"bidIncrement"`
}

type ItemsResponse struct {
	ServerTime int64                `json:"serverTime"`
	Items      []domain.AuctionItem `json:"items"`
}

type ItemResponse struct {
	ServerTime int64              `json:"serverTime"`
	Item       domain.AuctionItem `json:"item"`
}

type BidsResponse struct {
	ItemID string             `json:"itemId"`
	Bids   []domain.BidRecord `json:"bids"`
}

func NewAuctionHandler(service *services.AuctionService, log logger.Logger) *AuctionHandler {
	return &AuctionHandler{
		service: service,
		log:     log,
	}
}

// Register mounts the REST routes on e.
func (h *AuctionHandler) Register(e *echo.Echo) {
	api := e.Group("/api")
	api.GET("/items", h.ListItems)
	api.GET("/items/:id", h.GetItem)
	api.POST("/items/:id/bids", h.PlaceBid)
	api.GET("/items/:id/bids", h.BidHistory)

	e.GET("/health", h.Health)
}

func (h *AuctionHandler) ListItems(c echo.Context) error {
	items, serverTime := h.service.ListItems(c.Request().Context())
	return c.JSON(http.StatusOK, ItemsResponse{
		ServerTime: serverTime.UnixMilli(),
		Items:      items,
	})
}

func (h *AuctionHandler) GetItem(c echo.Context) error {
	itemID := c.Param("id")
	item, serverTime, err := h.service.GetItem(c.Request().Context(), itemID)
	if err != nil {
		return h.rejection(c, itemID, err)
	}
	return c.JSON(http.StatusOK, ItemResponse{
		ServerTime: serverTime.UnixMilli(),
		Item:       item,
	})
}

func (h *AuctionHandler) PlaceBid(c echo.Context) error {
	itemID := c.Param("id")

	var req PlaceBidRequest
	if err := c.Bind(&req); err != nil {
		h.log.Debug("Failed to bind bid request", "item_id", itemID, "error", err)
		return h.rejection(c, itemID, domain.ErrInvalidBid)
	}

	item, err := h.service.PlaceBid(c.Request().Context(), itemID, req.BidderID, req.BidIncrement)
	if err != nil {
		return h.rejection(c, itemID, err)
	}

	h.log.Info("Bid accepted", "item_id", itemID, "bidder_id", req.BidderID,
		"current_bid", item.CurrentBid.String())
	return c.JSON(http.StatusOK, ItemResponse{
		ServerTime: h.service.Now().UnixMilli(),
		Item:       item,
	})
}

func (h *AuctionHandler) BidHistory(c echo.Context) error {
	itemID := c.Param("id")
	bids, err := h.service.BidHistory(itemID)
	if err != nil {
		return h.rejection(c, itemID, err)
	}
	if bids == nil {
		bids = []domain.BidRecord{}
	}
	return c.JSON(http.StatusOK, BidsResponse{ItemID: itemID, Bids: bids})
}

func (h *AuctionHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":     "ok",
		"service":    "live-auction",
		"serverTime": h.service.Now().UnixMilli(),
	})
}

func (h *AuctionHandler) rejection(c echo.Context, itemID string, err error) error {
	rejection := domain.NewBidRejection(itemID, err, h.service.Now())
	if rejection.Reason == domain.ReasonInternal {
		h.log.Error("Request failed", "path", c.Path(), "item_id", itemID, "error", err)
	}
	return c.JSON(StatusFor(rejection.Reason), rejection)
}

// StatusFor maps a rejection reason to its HTTP status.
func StatusFor(reason domain.RejectReason) int {
	switch reason {
	case domain.ReasonInvalidBid:
		return http.StatusBadRequest
	case domain.ReasonNotFound:
		return http.StatusNotFound
	case domain.ReasonContended:
		return http.StatusConflict
	case domain.ReasonAuctionEnded:
		return http.StatusGone
	case domain.ReasonBidTooLow:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

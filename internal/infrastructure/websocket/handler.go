package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"live-auction/internal/domain"
	"live-auction/internal/services"
	"live-auction/pkg/logger"
	"live-auction/pkg/utils"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second

	maxMessageSize = 4096
)

// Client message types.
const (
	MessageBidPlaced     = "BID_PLACED"
	MessageCheckAuctions = "CHECK_AUCTIONS"
	MessagePing          = "ping"
)

type clientMessage struct {
	Type         string          `json:"type"`
	ItemID       string          `json:"itemId"`
	BidIncrement json.RawMessage `json:"bidIncrement"`
}

type connectedMessage struct {
	Type       string `json:"type"`
	SocketID   string `json:"socketId"`
	UserID     string `json:"userId"`
	ServerTime int64  `json:"serverTime"`
}

type WebSocketHandler struct {
	service     *services.AuctionService
	connManager domain.ConnectionManager
	upgrader    websocket.Upgrader
	log         logger.Logger
}

// NewWebSocketHandler accepts upgrades from allowOrigins; "*" or an empty list allows any origin.
func NewWebSocketHandler(service *services.AuctionService, connManager domain.ConnectionManager,
	allowOrigins []string, log logger.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		service:     service,
		connManager: connManager,
		upgrader: websocket.Upgrader{
			CheckOrigin: originChecker(allowOrigins),
		},
		log: log,
	}
}

func originChecker(allowOrigins []string) func(r *http.Request) bool {
	allowed := make(map[string]bool, len(allowOrigins))
	for _, origin := range allowOrigins {
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		allowed[origin] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || len(allowed) == 0 || allowed[origin]
	}
}

// HandleConnection upgrades the request. The optional {itemID} route variable
// narrows broadcasts to a single item.
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	itemID := mux.Vars(r)["itemID"]
	if itemID != "" {
		if _, _, err := h.service.GetItem(r.Context(), itemID); err != nil {
			http.Error(w, "auction item not found", http.StatusNotFound)
			return
		}
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("Failed to upgrade connection", "error", err)
		return
	}

	connID := utils.GenerateID("conn")
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		userID = connID
	}

	wsConn := NewWebSocketConnection(conn, connID, userID, itemID, h.log)
	if err := h.connManager.RegisterConnection(wsConn); err != nil {
		h.log.Error("Failed to register connection", "error", err)
		wsConn.Close()
		return
	}

	if err := wsConn.Send(connectedMessage{
		Type:       "connected",
		SocketID:   connID,
		UserID:     userID,
		ServerTime: h.service.Now().UnixMilli(),
	}); err != nil {
		h.log.Error("Failed to greet connection", "conn_id", connID, "error", err)
	}

	go wsConn.keepAlive()
	go h.handleMessages(wsConn)
}

func (h *WebSocketHandler) handleMessages(conn *WebSocketConnection) {
	defer func() {
		h.connManager.UnregisterConnection(conn.ID())
		conn.Close()
	}()

	conn.conn.SetReadLimit(maxMessageSize)
	conn.conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.conn.SetPongHandler(func(string) error {
		return conn.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg clientMessage
		if err := conn.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Error("Failed to read message", "conn_id", conn.ID(), "error", err)
			}
			return
		}

		switch msg.Type {
		case MessageBidPlaced:
			h.handleBidMessage(conn, msg)
		case MessageCheckAuctions:
			h.service.CheckAuctions(context.Background())
		case MessagePing:
			conn.Send(map[string]interface{}{"type": "pong", "serverTime": h.service.Now().UnixMilli()})
		default:
			h.log.Debug("Ignoring unknown message", "conn_id", conn.ID(), "type", msg.Type)
		}
	}
}

func (h *WebSocketHandler) handleBidMessage(conn *WebSocketConnection, msg clientMessage) {
	increment, err := parseIncrement(msg)
	if err == nil {
		_, err = h.service.PlaceBid(context.Background(), msg.ItemID, conn.UserID(), increment)
	}
	if err == nil {
		return
	}

	rejection := domain.NewBidRejection(msg.ItemID, err, h.service.Now())
	if rejection.Reason == domain.ReasonInternal {
		h.log.Error("Failed to place bid", "conn_id", conn.ID(), "item_id", msg.ItemID, "error", err)
	}
	if err := conn.Send(rejection); err != nil {
		h.log.Error("Failed to send bid rejection", "conn_id", conn.ID(), "error", err)
	}
}

func parseIncrement(msg clientMessage) (decimal.Decimal, error) {
	if msg.ItemID == "" || len(msg.BidIncrement) == 0 {
		return decimal.Zero, fmt.Errorf("%w: missing item or increment", domain.ErrInvalidBid)
	}
	var increment decimal.Decimal
	if err := increment.UnmarshalJSON(msg.BidIncrement); err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", domain.ErrInvalidBid, err)
	}
	return increment, nil
}

type WebSocketConnection struct {
	conn      *websocket.Conn
	writeMu   sync.Mutex
	closeOnce sync.Once
	done      chan struct{}
	id        string
	userID    string
	itemID    string
	log       logger.Logger
}

func NewWebSocketConnection(conn *websocket.Conn, id, userID, itemID string, log logger.Logger) *WebSocketConnection {
	return &WebSocketConnection{
		conn:   conn,
		done:   make(chan struct{}),
		id:     id,
		userID: userID,
		itemID: itemID,
		log:    log,
	}
}

// Send is safe for concurrent use; gorilla connections allow one writer at a time.
func (wsc *WebSocketConnection) Send(message interface{}) error {
	wsc.writeMu.Lock()
	defer wsc.writeMu.Unlock()

	wsc.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return wsc.conn.WriteJSON(message)
}

func (wsc *WebSocketConnection) keepAlive() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			wsc.writeMu.Lock()
			err := wsc.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			wsc.writeMu.Unlock()
			if err != nil {
				return
			}
		case <-wsc.done:
			return
		}
	}
}

func (wsc *WebSocketConnection) Close() error {
	var err error
	wsc.closeOnce.Do(func() {
		close(wsc.done)
		err = wsc.conn.Close()
	})
	return err
}

func (wsc *WebSocketConnection) ID() string {
	return wsc.id
}

func (wsc *WebSocketConnection) UserID() string {
	return wsc.userID
}

func (wsc *WebSocketConnection) ItemID() string {
	return wsc.itemID
}

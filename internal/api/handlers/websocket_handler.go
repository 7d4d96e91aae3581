package handlers

import (
	"net/http"

	"live-auction/internal/domain"
	"live-auction/internal/infrastructure/websocket"
	"live-auction/internal/services"
	"live-auction/pkg/logger"

	"github.com/gorilla/mux"
)

type WebSocketHandlers struct {
	wsHandler *websocket.WebSocketHandler
	log       logger.Logger
}

func NewWebSocketHandlers(service *services.AuctionService, connManager domain.ConnectionManager,
	allowOrigins []string, log logger.Logger) *WebSocketHandlers {
	wsHandler := websocket.NewWebSocketHandler(service, connManager, allowOrigins, log)
	return &WebSocketHandlers{
		wsHandler: wsHandler,
		log:       log,
	}
}

func (h *WebSocketHandlers) HandleConnection(w http.ResponseWriter, r *http.Request) {
	h.wsHandler.HandleConnection(w, r)
}

// Router serves every item on /ws and a single item on /ws/items/{itemID}.
func (h *WebSocketHandlers) Router() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/ws", h.HandleConnection).Methods(http.MethodGet)
	router.HandleFunc("/ws/items/{itemID}", h.HandleConnection).Methods(http.MethodGet)
	return router
}

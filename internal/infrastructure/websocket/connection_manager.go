package websocket

import (
	"encoding/json"
	"fmt"
	"sync"

	"live-auction/internal/domain"
	"live-auction/pkg/logger"
)

type ConnectionManager struct {
	connections map[string]domain.WebSocketConnection // connID -> connection
	mutex       sync.RWMutex
	log         logger.Logger
}

func NewConnectionManager(log logger.Logger) *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]domain.WebSocketConnection),
		log:         log,
	}
}

func (cm *ConnectionManager) RegisterConnection(conn domain.WebSocketConnection) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if _, exists := cm.connections[conn.ID()]; exists {
		return fmt.Errorf("connection %s already registered", conn.ID())
	}
	cm.connections[conn.ID()] = conn

	cm.log.Info("Client connected", "conn_id", conn.ID(), "user_id", conn.UserID())
	return nil
}

func (cm *ConnectionManager) UnregisterConnection(connID string) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if _, exists := cm.connections[connID]; !exists {
		return nil
	}
	delete(cm.connections, connID)

	cm.log.Info("Client disconnected", "conn_id", connID)
	return nil
}

func (cm *ConnectionManager) Connections() []domain.WebSocketConnection {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	connections := make([]domain.WebSocketConnection, 0, len(cm.connections))
	for _, conn := range cm.connections {
		connections = append(connections, conn)
	}
	return connections
}

// Broadcast sends message to every connection.
func (cm *ConnectionManager) Broadcast(message interface{}) error {
	return cm.send(cm.Connections(), message)
}

// BroadcastToItem sends message to connections watching itemID or every item.
func (cm *ConnectionManager) BroadcastToItem(itemID string, message interface{}) error {
	var watchers []domain.WebSocketConnection
	for _, conn := range cm.Connections() {
		if conn.ItemID() == "" || conn.ItemID() == itemID {
			watchers = append(watchers, conn)
		}
	}
	return cm.send(watchers, message)
}

// send marshals once. A failing connection is logged and skipped; its read
// loop takes care of unregistering it.
func (cm *ConnectionManager) send(connections []domain.WebSocketConnection, message interface{}) error {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		return err
	}

	for _, conn := range connections {
		if err := conn.Send(json.RawMessage(messageBytes)); err != nil {
			cm.log.Error("Failed to send message", "conn_id", conn.ID(),
				"user_id", conn.UserID(), "error", err)
		}
	}

	cm.log.Debug("Broadcast sent", "connections", len(connections))
	return nil
}

func (cm *ConnectionManager) NotifyConnection(connID string, message interface{}) error {
	cm.mutex.RLock()
	conn, exists := cm.connections[connID]
	cm.mutex.RUnlock()

	if !exists {
		return fmt.Errorf("connection %s not registered", connID)
	}
	return conn.Send(message)
}

func (cm *ConnectionManager) CloseAll() error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	for connID, conn := range cm.connections {
		if err := conn.Close(); err != nil {
			cm.log.Error("Failed to close connection", "conn_id", connID, "error", err)
		}
		delete(cm.connections, connID)
	}

	cm.log.Info("All connections closed")
	return nil
}

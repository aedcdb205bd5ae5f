package sse

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Event types pushed to the shop-floor screens.
const (
	EventStockUpdate = "stock_update"
	EventOrderUpdate = "order_update"
)

// Event is one Server-Sent Event.
type Event struct {
	EventType string `json:"event"`
	Data      string `json:"data"`
}

// Client is one connected stream.
type Client struct {
	ID     string
	UserID string
	Events chan Event
}

// Hub fans events out to connected clients. Slow clients drop events
// instead of blocking publishers.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	log     *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		clients: make(map[string]*Client),
		log:     log,
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	h.log.Debug("SSE client registered",
		zap.String("client_id", client.ID),
		zap.String("user_id", client.UserID),
		zap.Int("total", len(h.clients)),
	)
}

func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		close(client.Events)
		delete(h.clients, clientID)
		h.log.Debug("SSE client unregistered",
			zap.String("client_id", clientID),
			zap.Int("total", len(h.clients)),
		)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends event to every client without blocking.
func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		select {
		case client.Events <- event:
		default:
			h.log.Warn("SSE client buffer full, skipping event",
				zap.String("client_id", client.ID),
				zap.String("event", event.EventType),
			)
		}
	}
}

func (h *Hub) publish(eventType string, payload map[string]string) {
	if h == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		h.log.Error("SSE payload marshal failed", zap.Error(err))
		return
	}
	h.Broadcast(Event{EventType: eventType, Data: string(data)})
}

// PublishStockUpdate tells clients that the stock of a tool type changed.
// A nil hub publishes nothing.
func (h *Hub) PublishStockUpdate(toolTypeID, action string) {
	h.publish(EventStockUpdate, map[string]string{
		"tool_type_id": toolTypeID,
		"action":       action,
	})
}

// PublishOrderUpdate tells clients that an order changed status.
func (h *Hub) PublishOrderUpdate(orderID, status, action string) {
	h.publish(EventOrderUpdate, map[string]string{
		"order_id": orderID,
		"status":   status,
		"action":   action,
	})
}

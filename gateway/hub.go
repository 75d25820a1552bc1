package gateway

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"venuepulse/metrics"
	"venuepulse/models"
	"venuepulse/utils"
)

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func newClient(conn *websocket.Conn) *client {
	c := &client{
		conn: conn,
		send: make(chan []byte, 64),
	}
	go c.writePump()
	return c
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (c *client) close() {
	close(c.send)
}

// Hub fans notification frames out to every connected dashboard. Frames to
// slow clients are dropped rather than blocking the broadcast.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]bool
	metrics *metrics.Metrics
	logger  *utils.Logger
}

func NewHub(m *metrics.Metrics, logger *utils.Logger) *Hub {
	return &Hub{
		clients: make(map[*client]bool),
		metrics: m,
		logger:  logger,
	}
}

// AddClient registers a connection and starts its write pump.
func (h *Hub) AddClient(conn *websocket.Conn) *client {
	c := newClient(conn)

	h.mu.Lock()
	h.clients[c] = true
	count := len(h.clients)
	h.mu.Unlock()

	h.metrics.GatewayClients.Set(float64(count))
	h.logger.Info("dashboard connected", "clients", count)
	return c
}

// RemoveClient unregisters a connection and stops its write pump.
func (h *Hub) RemoveClient(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.close()
	}
	count := len(h.clients)
	h.mu.Unlock()

	h.metrics.GatewayClients.Set(float64(count))
	h.logger.Info("dashboard disconnected", "clients", count)
}

// ClientCount returns the number of connected dashboards.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast marshals the payload once and sends the frame to every client.
func (h *Hub) Broadcast(msgType models.NotificationType, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	data, err := json.Marshal(models.NotificationMessage{
		Type:    msgType,
		Payload: raw,
	})
	if err != nil {
		return err
	}

	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			// Client too slow, drop the frame
		}
	}
	h.mu.RUnlock()

	h.metrics.Broadcasts.WithLabelValues(string(msgType)).Inc()
	return nil
}

// CloseAll tears down every connection; used on shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	for c := range h.clients {
		delete(h.clients, c)
		c.close()
	}
	h.mu.Unlock()
	h.metrics.GatewayClients.Set(0)
}

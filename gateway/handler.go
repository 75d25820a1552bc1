package gateway

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"venuepulse/models"
	"venuepulse/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin checks are enforced by the deployment's reverse proxy; the
	// gateway itself trusts the JWT on the upgrade request.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler exposes the websocket endpoint and the internal publish endpoints.
type Handler struct {
	hub    *Hub
	logger *utils.Logger
}

func NewHandler(hub *Hub, logger *utils.Logger) *Handler {
	return &Handler{
		hub:    hub,
		logger: logger,
	}
}

// ServeWS handles GET /ws: upgrades the connection and parks it in the hub.
// No handshake payload is expected from the client.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	c := h.hub.AddClient(conn)

	// Reader goroutine: the protocol needs no inbound frames, but reading
	// is how we notice the peer going away.
	go func() {
		defer h.hub.RemoveClient(c)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// PublishEventActivated handles POST /notify/event-activated.
func (h *Handler) PublishEventActivated(w http.ResponseWriter, r *http.Request) {
	var payload models.EventActivatedPayload
	if !decodePublish(w, r, &payload) {
		return
	}

	if err := h.hub.Broadcast(models.NotifyEventActivated, payload); err != nil {
		h.logger.Error("broadcast failed", "type", models.NotifyEventActivated, "error", err)
		http.Error(w, "Broadcast failed", http.StatusInternalServerError)
		return
	}
	writePublished(w, h.hub.ClientCount())
}

// PublishDepartmentNote handles POST /notify/department-note.
func (h *Handler) PublishDepartmentNote(w http.ResponseWriter, r *http.Request) {
	var payload models.DepartmentNotePayload
	if !decodePublish(w, r, &payload) {
		return
	}

	if err := h.hub.Broadcast(models.NotifyDepartmentNoteAdded, payload); err != nil {
		h.logger.Error("broadcast failed", "type", models.NotifyDepartmentNoteAdded, "error", err)
		http.Error(w, "Broadcast failed", http.StatusInternalServerError)
		return
	}
	writePublished(w, h.hub.ClientCount())
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "healthy",
		"service":   "notification-gateway",
		"clients":   h.hub.ClientCount(),
		"timestamp": time.Now(),
	})
}

func decodePublish(w http.ResponseWriter, r *http.Request, out interface{}) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
		return false
	}
	return true
}

func writePublished(w http.ResponseWriter, clients int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "published",
		"clients": clients,
	})
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"venuepulse/metrics"
	"venuepulse/models"
	"venuepulse/services"
	"venuepulse/utils"
)

type SessionHandler struct {
	store   services.SessionStore
	metrics *metrics.Metrics
	logger  *utils.Logger
}

func NewSessionHandler(store services.SessionStore, m *metrics.Metrics, logger *utils.Logger) *SessionHandler {
	return &SessionHandler{
		store:   store,
		metrics: m,
		logger:  logger,
	}
}

// CreateSession handles POST /api/v1/sessions
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req models.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if req.Status != "" && !req.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid status",
		})
		return
	}

	session, err := h.store.Create(c.Request.Context(), req)
	if err != nil {
		h.logger.Error("Failed to create session", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create session",
		})
		return
	}

	h.metrics.SessionsCreated.WithLabelValues(boolLabel(session.Sandbox)).Inc()

	c.JSON(http.StatusCreated, models.CreateSessionResponse{
		SessionID: session.ID,
	})
}

// Heartbeat handles POST /api/v1/sessions/:id/heartbeat
func (h *SessionHandler) Heartbeat(c *gin.Context) {
	id := c.Param("id")

	var update models.HeartbeatUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if update.Status != nil && !update.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid status",
		})
		return
	}

	session, err := h.store.Heartbeat(c.Request.Context(), id, update)
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			h.metrics.Heartbeats.WithLabelValues("not_found").Inc()
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Session not found",
			})
			return
		}
		h.metrics.Heartbeats.WithLabelValues("error").Inc()
		h.logger.Error("Failed to process heartbeat", "session_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to process heartbeat",
		})
		return
	}

	h.metrics.Heartbeats.WithLabelValues("ok").Inc()
	c.JSON(http.StatusOK, session)
}

// EndSession handles POST /api/v1/sessions/:id/end. Ending an unknown or
// already-expired session still succeeds: the caller only cares that the
// session is gone, and the beacon may race the TTL.
func (h *SessionHandler) EndSession(c *gin.Context) {
	id := c.Param("id")

	if err := h.store.End(c.Request.Context(), id); err != nil {
		h.logger.Error("Failed to end session", "session_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to end session",
		})
		return
	}

	h.metrics.SessionsEnded.Inc()
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
	})
}

// GetActiveSessions handles GET /api/v1/sessions/active
func (h *SessionHandler) GetActiveSessions(c *gin.Context) {
	sessions, err := h.store.ListActive(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list active sessions", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list active sessions",
		})
		return
	}

	c.JSON(http.StatusOK, models.ActiveSessionsResponse{
		Count:    len(sessions),
		Sessions: sessions,
	})
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"venuepulse/metrics"
	"venuepulse/models"
	"venuepulse/services"
	"venuepulse/utils"
)

type ActivityHandler struct {
	store   services.ActivityStore
	metrics *metrics.Metrics
	logger  *utils.Logger
}

func NewActivityHandler(store services.ActivityStore, m *metrics.Metrics, logger *utils.Logger) *ActivityHandler {
	return &ActivityHandler{
		store:   store,
		metrics: m,
		logger:  logger,
	}
}

// LogActivity handles POST /api/v1/activity
func (h *ActivityHandler) LogActivity(c *gin.Context) {
	var req models.LogActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if !req.Kind.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Unknown activity kind",
		})
		return
	}

	event := &models.ActivityEvent{
		SessionID:    req.SessionID,
		OperatorID:   req.OperatorID,
		OperatorName: req.OperatorName,
		Kind:         req.Kind,
		Description:  req.Description,
		StandID:      req.StandID,
		StandName:    req.StandName,
		Metadata:     req.Metadata,
	}

	if err := h.store.Append(c.Request.Context(), event); err != nil {
		h.logger.Error("Failed to append activity", "kind", req.Kind, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to append activity",
		})
		return
	}

	h.metrics.Activities.WithLabelValues(string(req.Kind)).Inc()
	c.JSON(http.StatusCreated, event)
}

// ListActivity handles GET /api/v1/activity
func (h *ActivityHandler) ListActivity(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	filter := services.ActivityFilter{
		SessionID:  c.Query("session_id"),
		OperatorID: c.Query("operator_id"),
		Kind:       models.ActivityKind(c.Query("kind")),
		Page:       page,
		PageSize:   pageSize,
	}

	events, total, err := h.store.List(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list activity", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list activity",
		})
		return
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))

	c.JSON(http.StatusOK, models.ListResponse[models.ActivityEvent]{
		Data:       events,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	})
}

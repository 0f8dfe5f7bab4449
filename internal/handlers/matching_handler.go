package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/checknet/backend/internal/middleware"
	"github.com/checknet/backend/internal/services/matching"
)

// MatchingHandler handles network match checks and alert management
type MatchingHandler struct {
	matcher *matching.Service
}

// NewMatchingHandler creates a new matching handler
func NewMatchingHandler(matcher *matching.Service) *MatchingHandler {
	return &MatchingHandler{matcher: matcher}
}

// CheckItem runs a check item against the network's shared fraud indicators
func (h *MatchingHandler) CheckItem(c *gin.Context) {
	var item matching.CheckItem
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.matcher.CheckNetworkMatches(c.Request.Context(), middleware.ScopeFrom(c), item)
	if err != nil {
		if errors.Is(err, matching.ErrMatchingUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "matching temporarily unavailable"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check network matches"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListAlerts lists the tenant's open network match alerts
func (h *MatchingHandler) ListAlerts(c *gin.Context) {
	alerts, err := h.matcher.ListOpenAlerts(middleware.ScopeFrom(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list alerts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

// DismissAlert closes an open alert
func (h *MatchingHandler) DismissAlert(c *gin.Context) {
	alertID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid alert ID"})
		return
	}

	var body struct {
		Reason string `json:"reason"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	err = h.matcher.DismissAlert(middleware.ScopeFrom(c), alertID, middleware.UserIDFrom(c), body.Reason)
	if err != nil {
		switch {
		case errors.Is(err, matching.ErrAlertNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
		case errors.Is(err, matching.ErrAlertAlreadyDismissed):
			c.JSON(http.StatusConflict, gin.H{"error": "alert already dismissed"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to dismiss alert"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "alert dismissed"})
}

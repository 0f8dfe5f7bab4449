package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/checknet/backend/internal/middleware"
	"github.com/checknet/backend/internal/models"
	"github.com/checknet/backend/internal/services/trends"
)

// TrendsHandler handles network trend queries
type TrendsHandler struct {
	trends *trends.Service
}

// NewTrendsHandler creates a new trends handler
func NewTrendsHandler(svc *trends.Service) *TrendsHandler {
	return &TrendsHandler{trends: svc}
}

// GetNetworkTrends returns privacy-thresholded aggregates over the network pool
func (h *TrendsHandler) GetNetworkTrends(c *gin.Context) {
	months, err := strconv.Atoi(c.DefaultQuery("months", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid months parameter"})
		return
	}
	dimension := models.TrendDimension(c.DefaultQuery("dimension", string(models.TrendDimensionFraudType)))

	report, err := h.trends.GetNetworkTrends(c.Request.Context(), middleware.ScopeFrom(c), months, dimension)
	if err != nil {
		if errors.Is(err, trends.ErrTrendsNotPermitted) {
			c.JSON(http.StatusForbidden, gin.H{"error": "aggregate sharing must be enabled to view network trends"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, report)
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/checknet/backend/internal/middleware"
	"github.com/checknet/backend/internal/services/tenantcfg"
)

// TenantConfigHandler handles tenant fraud sharing policy requests
type TenantConfigHandler struct {
	configs *tenantcfg.Service
}

// NewTenantConfigHandler creates a new tenant config handler
func NewTenantConfigHandler(configs *tenantcfg.Service) *TenantConfigHandler {
	return &TenantConfigHandler{configs: configs}
}

// GetConfig returns the tenant's fraud sharing policy
func (h *TenantConfigHandler) GetConfig(c *gin.Context) {
	cfg, err := h.configs.GetOrCreate(c.Request.Context(), middleware.ScopeFrom(c).TenantID())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get fraud sharing config"})
		return
	}

	c.JSON(http.StatusOK, cfg)
}

// UpdateConfig applies policy changes
func (h *TenantConfigHandler) UpdateConfig(c *gin.Context) {
	var input tenantcfg.UpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cfg, err := h.configs.Update(c.Request.Context(), middleware.ScopeFrom(c).TenantID(), input)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, cfg)
}

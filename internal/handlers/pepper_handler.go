package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/checknet/backend/internal/services/hashing"
)

// PepperHandler handles pepper keyring administration. Rotation persists the
// new version first and only then swaps the in-memory keyring, so a failed
// write never leaves hashing ahead of the database.
type PepperHandler struct {
	store  *hashing.KeyringStore
	hasher *hashing.Service
}

// NewPepperHandler creates a new pepper admin handler
func NewPepperHandler(store *hashing.KeyringStore, hasher *hashing.Service) *PepperHandler {
	return &PepperHandler{store: store, hasher: hasher}
}

// GetStatus reports the active pepper versions. Secrets are never returned.
func (h *PepperHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"current_version": h.hasher.CurrentVersion(),
		"active_versions": h.hasher.ActiveVersions(),
	})
}

// RotatePepper installs a new pepper secret as the current version
func (h *PepperHandler) RotatePepper(c *gin.Context) {
	var req struct {
		NewSecret string `json:"new_secret" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ring, err := h.store.Rotate(req.NewSecret, time.Now().UTC())
	if err != nil {
		if errors.Is(err, hashing.ErrNoPepper) {
			c.JSON(http.StatusConflict, gin.H{"error": "no current pepper to rotate from"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to rotate pepper"})
		return
	}

	if err := h.hasher.Swap(ring); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to activate rotated keyring"})
		return
	}

	logrus.WithField("version", ring.Current.Version).Info("pepper rotated")
	c.JSON(http.StatusOK, gin.H{
		"current_version": ring.Current.Version,
		"active_versions": h.hasher.ActiveVersions(),
	})
}

package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/checknet/backend/internal/middleware"
	"github.com/checknet/backend/internal/models"
	"github.com/checknet/backend/internal/services/fraudevent"
)

// FraudEventHandler handles fraud event lifecycle requests
type FraudEventHandler struct {
	events *fraudevent.Service
}

// NewFraudEventHandler creates a new fraud event handler
func NewFraudEventHandler(events *fraudevent.Service) *FraudEventHandler {
	return &FraudEventHandler{events: events}
}

// CreateEvent records a new draft fraud event
func (h *FraudEventHandler) CreateEvent(c *gin.Context) {
	var input fraudevent.CreateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := h.events.Create(middleware.ScopeFrom(c), middleware.UserIDFrom(c), input)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, event)
}

// GetEvent gets one of the tenant's fraud events
func (h *FraudEventHandler) GetEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event ID"})
		return
	}

	event, err := h.events.Get(middleware.ScopeFrom(c), eventID)
	if err != nil {
		if errors.Is(err, fraudevent.ErrEventNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "fraud event not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get fraud event"})
		return
	}

	c.JSON(http.StatusOK, event)
}

// ListEvents lists the tenant's fraud events, newest first
func (h *FraudEventHandler) ListEvents(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	var status *models.EventStatus
	if s := c.Query("status"); s != "" {
		candidate := models.EventStatus(s)
		if !candidate.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status filter"})
			return
		}
		status = &candidate
	}

	events, total, err := h.events.List(middleware.ScopeFrom(c), status, page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list fraud events"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"total":  total,
		"page":   page,
	})
}

// UpdateEvent modifies a draft event
func (h *FraudEventHandler) UpdateEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event ID"})
		return
	}

	var input fraudevent.UpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := h.events.Update(middleware.ScopeFrom(c), eventID, input)
	if err != nil {
		switch {
		case errors.Is(err, fraudevent.ErrEventNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "fraud event not found"})
		case errors.Is(err, fraudevent.ErrEventNotDraft):
			c.JSON(http.StatusConflict, gin.H{"error": "only draft events can be updated"})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, event)
}

// SubmitEvent transitions a draft to submitted, running the PII guard
func (h *FraudEventHandler) SubmitEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event ID"})
		return
	}

	var opts fraudevent.SubmitOptions
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&opts); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	event, err := h.events.Submit(c.Request.Context(), middleware.ScopeFrom(c), eventID, middleware.UserIDFrom(c), opts)
	if err != nil {
		var piiErr *fraudevent.PIIDetectedError
		switch {
		case errors.As(err, &piiErr):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":      "shareable narrative appears to contain PII",
				"categories": piiErr.Categories,
				"warnings":   piiErr.Warnings,
			})
		case errors.Is(err, fraudevent.ErrEventNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "fraud event not found"})
		case errors.Is(err, fraudevent.ErrEventNotDraft):
			c.JSON(http.StatusConflict, gin.H{"error": "only draft events can be submitted"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to submit fraud event"})
		}
		return
	}

	c.JSON(http.StatusOK, event)
}

// WithdrawEvent transitions a submitted event to withdrawn
func (h *FraudEventHandler) WithdrawEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event ID"})
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

	event, err := h.events.Withdraw(middleware.ScopeFrom(c), eventID, middleware.UserIDFrom(c), body.Reason)
	if err != nil {
		switch {
		case errors.Is(err, fraudevent.ErrEventNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "fraud event not found"})
		case errors.Is(err, fraudevent.ErrEventNotSubmitted):
			c.JSON(http.StatusConflict, gin.H{"error": "only submitted events can be withdrawn"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to withdraw fraud event"})
		}
		return
	}

	c.JSON(http.StatusOK, event)
}

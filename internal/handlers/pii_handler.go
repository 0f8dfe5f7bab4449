package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/checknet/backend/internal/services/pii"
)

// PIIHandler exposes narrative scanning so reviewers can pre-check text
// before submitting an event.
type PIIHandler struct {
	pii *pii.Service
}

// NewPIIHandler creates a new PII handler
func NewPIIHandler(svc *pii.Service) *PIIHandler {
	return &PIIHandler{pii: svc}
}

type analyzeRequest struct {
	Text   string `json:"text" binding:"required"`
	Strict bool   `json:"strict"`
}

// AnalyzeText scans text for potential PII
func (h *PIIHandler) AnalyzeText(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, h.pii.Analyze(req.Text, req.Strict))
}

// RedactText replaces detected PII spans with typed placeholders
func (h *PIIHandler) RedactText(c *gin.Context) {
	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"redacted": h.pii.Redact(req.Text)})
}

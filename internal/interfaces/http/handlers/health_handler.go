package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/studioconnect/relay/internal/infrastructure/kv"
	"github.com/studioconnect/relay/internal/interfaces/http/templates"
	"github.com/studioconnect/relay/pkg/logger"
)

// HealthHandler provides liveness and readiness endpoints.
type HealthHandler struct {
	store kv.Store
	log   logger.Logger
}

// NewHealthHandler creates the handler.
func NewHealthHandler(store kv.Store, log logger.Logger) *HealthHandler {
	return &HealthHandler{store: store, log: log}
}

// Live handles GET /health: process is up.
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready handles GET /health/ready: the KV backend answers.
func (h *HealthHandler) Ready(c *gin.Context) {
	if _, err := h.store.Exists(c.Request.Context(), "health:probe"); err != nil {
		h.log.Error(c.Request.Context(), "readiness probe failed", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"checks": gin.H{"kv": "failed"},
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"checks": gin.H{"kv": "ok"},
	})
}

// LegalHandler serves the static legal pages.
type LegalHandler struct{}

// NewLegalHandler creates the handler.
func NewLegalHandler() *LegalHandler {
	return &LegalHandler{}
}

// Privacy handles GET /legal/privacy.
func (h *LegalHandler) Privacy(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", templates.Privacy())
}

// Terms handles GET /legal/terms.
func (h *LegalHandler) Terms(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", templates.Terms())
}

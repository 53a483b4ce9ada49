package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	started time.Time
	locales []string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(locales []string) *HealthHandler {
	return &HealthHandler{started: time.Now(), locales: locales}
}

// Health returns the health status of the service
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"locales":        h.locales,
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
	})
}

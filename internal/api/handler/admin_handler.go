package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/timmy/promptgallery/internal/logger"
)

// AdminHandler handles admin operations.
type AdminHandler struct {
	catalog Catalog
	locales []string
}

// NewAdminHandler creates a new admin handler.
// Parameters:
//   - catalog: catalog whose snapshots are reloaded.
//   - locales: locales warmed after a reload.
//
// Returns:
//   - *AdminHandler: initialized handler.
func NewAdminHandler(catalog Catalog, locales []string) *AdminHandler {
	return &AdminHandler{catalog: catalog, locales: locales}
}

// ReloadResponse reports the snapshots published by a reload.
type ReloadResponse struct {
	Message  string            `json:"message"`
	Versions map[string]string `json:"versions"`
	Counts   map[string]int    `json:"counts"`
}

// Reload handles POST /api/v1/admin/reload.
// It drops every cached snapshot and loads each configured locale again.
func (h *AdminHandler) Reload(c *gin.Context) {
	ctx := c.Request.Context()
	start := time.Now()

	if err := h.catalog.Invalidate(ctx); err != nil {
		respondError(c, err)
		return
	}

	resp := ReloadResponse{
		Message:  "reloaded",
		Versions: make(map[string]string, len(h.locales)),
		Counts:   make(map[string]int, len(h.locales)),
	}
	for _, locale := range h.locales {
		snap, err := h.catalog.Snapshot(ctx, locale)
		if err != nil {
			respondError(c, err)
			return
		}
		resp.Versions[locale] = snap.Version
		resp.Counts[locale] = snap.Len()
	}

	logger.With(logger.Fields{"locales": h.locales}).
		WithDuration(time.Since(start).Milliseconds()).
		Info(ctx, "Catalog reloaded")
	c.JSON(http.StatusOK, resp)
}

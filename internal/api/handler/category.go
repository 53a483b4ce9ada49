package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CategoryHandler serves category listings.
type CategoryHandler struct {
	catalog Catalog
}

// NewCategoryHandler creates a new category handler.
func NewCategoryHandler(catalog Catalog) *CategoryHandler {
	return &CategoryHandler{catalog: catalog}
}

// List handles GET /api/v1/:locale/categories.
func (h *CategoryHandler) List(c *gin.Context) {
	categories, err := h.catalog.Categories(c.Request.Context(), c.Param("locale"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// Popular handles GET /api/v1/:locale/categories/:category/popular.
// Query: count, exclude (repeatable or comma-separated prompt ids).
func (h *CategoryHandler) Popular(c *gin.Context) {
	count, ok := queryInt(c, "count", 0)
	if !ok {
		return
	}
	category := c.Param("category")
	prompts, err := h.catalog.Popular(c.Request.Context(), c.Param("locale"), category, count, splitList(c.QueryArray("exclude")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": category, "prompts": prompts})
}

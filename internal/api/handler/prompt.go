package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/timmy/promptgallery/internal/domain"
	"github.com/timmy/promptgallery/internal/service"
)

// PromptHandler serves gallery listings, prompt details and recommendations.
type PromptHandler struct {
	catalog Catalog
}

// NewPromptHandler creates a new prompt handler.
// Parameters:
//   - catalog: catalog service instance.
//
// Returns:
//   - *PromptHandler: initialized handler.
func NewPromptHandler(catalog Catalog) *PromptHandler {
	return &PromptHandler{catalog: catalog}
}

// List handles GET /api/v1/:locale/prompts.
// Query: q, category (repeatable or comma-separated), sort, page, page_size.
func (h *PromptHandler) List(c *gin.Context) {
	sortBy, ok := domain.ParseSortKey(c.Query("sort"))
	if !ok {
		badRequest(c, "invalid sort: use id, title or model")
		return
	}
	page, ok := queryInt(c, "page", 1)
	if !ok {
		return
	}
	pageSize, ok := queryInt(c, "page_size", 0)
	if !ok {
		return
	}

	result, err := h.catalog.Browse(c.Request.Context(), c.Param("locale"), service.BrowseQuery{
		Term:       c.Query("q"),
		Categories: splitList(c.QueryArray("category")),
		SortBy:     sortBy,
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	if notModified(c, result.Version, c.Param("locale")+"?"+c.Request.URL.RawQuery) {
		return
	}
	c.JSON(http.StatusOK, result)
}

// Get handles GET /api/v1/:locale/prompts/:identifier.
// The identifier is a slug or a raw id.
func (h *PromptHandler) Get(c *gin.Context) {
	strategy, ok := queryStrategy(c)
	if !ok {
		return
	}
	result, err := h.catalog.Detail(c.Request.Context(), c.Param("locale"), c.Param("identifier"), strategy)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Recommendations handles GET /api/v1/:locale/prompts/:identifier/recommendations.
func (h *PromptHandler) Recommendations(c *gin.Context) {
	strategy, ok := queryStrategy(c)
	if !ok {
		return
	}
	count, ok := queryInt(c, "count", 0)
	if !ok {
		return
	}
	if count < 0 {
		badRequest(c, "invalid count: must not be negative")
		return
	}

	prompts, err := h.catalog.Recommendations(c.Request.Context(), c.Param("locale"), c.Param("identifier"), count, strategy)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"prompts": prompts, "count": len(prompts)})
}

// splitList flattens repeated and comma-separated values, dropping blanks.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

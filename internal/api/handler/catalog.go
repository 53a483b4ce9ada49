package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/gin-gonic/gin"
	"github.com/timmy/promptgallery/internal/domain"
	"github.com/timmy/promptgallery/internal/logger"
	"github.com/timmy/promptgallery/internal/service"
)

// Catalog is the read side used by the HTTP handlers.
type Catalog interface {
	Snapshot(ctx context.Context, locale string) (*domain.Snapshot, error)
	Browse(ctx context.Context, locale string, q service.BrowseQuery) (*service.BrowseResult, error)
	Detail(ctx context.Context, locale, identifier string, strategy domain.RecommendStrategy) (*service.DetailResult, error)
	Recommendations(ctx context.Context, locale, identifier string, count int, strategy domain.RecommendStrategy) ([]domain.Prompt, error)
	Categories(ctx context.Context, locale string) ([]service.CategoryInfo, error)
	Popular(ctx context.Context, locale, category string, count int, exclude []string) ([]domain.Prompt, error)
	Invalidate(ctx context.Context) error
}

// respondError maps service errors onto HTTP responses.
// A total data source failure gets one generic body; details stay in the log.
func respondError(c *gin.Context, err error) {
	ctx := c.Request.Context()
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "prompt not found"})
	case errors.Is(err, domain.ErrSourceUnavailable):
		logger.CtxError(ctx, "Data source unavailable: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "gallery temporarily unavailable"})
	default:
		logger.CtxError(ctx, "Request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// queryInt parses an optional integer query parameter; absent yields def.
func queryInt(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(c, "invalid "+name+": must be an integer")
		return 0, false
	}
	return n, true
}

func queryStrategy(c *gin.Context) (domain.RecommendStrategy, bool) {
	strategy, ok := domain.ParseRecommendStrategy(c.Query("strategy"), "")
	if !ok {
		badRequest(c, "invalid strategy: use category, diversified or similar")
	}
	return strategy, ok
}

// etag formats a snapshot version, qualified by the request variant, as a weak entity tag.
func etag(version, variant string) string {
	return `W/"` + version + "-" + strconv.FormatUint(xxhash.Sum64String(variant), 16) + `"`
}

// notModified sets the ETag header and reports whether the client copy is current.
func notModified(c *gin.Context, version, variant string) bool {
	if version == "" {
		return false
	}
	tag := etag(version, variant)
	c.Header("ETag", tag)
	if c.GetHeader("If-None-Match") == tag {
		c.Status(http.StatusNotModified)
		return true
	}
	return false
}

package api

import (
	"github.com/gin-gonic/gin"
	"github.com/timmy/promptgallery/internal/api/handler"
	"github.com/timmy/promptgallery/internal/api/middleware"
	"github.com/timmy/promptgallery/internal/config"
)

// SetupRouter configures the Gin router with all routes
// Parameters:
//   - catalog: catalog service backing every read route.
//   - cfg: application configuration (server mode, CORS, locales, base URL).
//
// Returns:
//   - *gin.Engine: configured router.
func SetupRouter(catalog handler.Catalog, cfg *config.Config) *gin.Engine {
	switch cfg.Server.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	r.Use(middleware.RequestLogger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:  cfg.Server.CORS.AllowedOrigins,
		AllowAllOrigins: cfg.Server.CORS.AllowAllOrigins,
	}))

	healthHandler := handler.NewHealthHandler(cfg.Data.Locales)
	promptHandler := handler.NewPromptHandler(catalog)
	categoryHandler := handler.NewCategoryHandler(catalog)
	adminHandler := handler.NewAdminHandler(catalog, cfg.Data.Locales)
	sitemapHandler := handler.NewSitemapHandler(catalog, cfg.Server.BaseURL, cfg.Data.Locales)

	r.GET("/health", healthHandler.Health)
	r.GET("/sitemap.xml", sitemapHandler.Sitemap)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/admin/reload", adminHandler.Reload)

		locale := v1.Group("/:locale")
		{
			// Prompts
			locale.GET("/prompts", promptHandler.List)
			locale.GET("/prompts/:identifier", promptHandler.Get)
			locale.GET("/prompts/:identifier/recommendations", promptHandler.Recommendations)

			// Categories
			locale.GET("/categories", categoryHandler.List)
			locale.GET("/categories/:category/popular", categoryHandler.Popular)
		}
	}

	return r
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/timmy/promptgallery/internal/api"
	"github.com/timmy/promptgallery/internal/cache"
	"github.com/timmy/promptgallery/internal/config"
	"github.com/timmy/promptgallery/internal/domain"
	"github.com/timmy/promptgallery/internal/logger"
	"github.com/timmy/promptgallery/internal/service"
	"github.com/timmy/promptgallery/internal/source"
	"github.com/timmy/promptgallery/internal/storage"
	"golang.org/x/sync/errgroup"
)

func main() {
	appLogger := logger.NewFromEnv(logger.LoadFromEnv())
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	// CONFIG_PATH overrides the default ./configs/config.yaml lookup.
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	extractor, err := newExtractor(cfg)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load category keywords")
	}

	store, err := storage.NewFromConfig(cfg)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize data backend")
	}

	snapshots, err := cache.New(cfg.Cache)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize snapshot cache")
	}
	defer snapshots.Close()

	loader := source.NewLoader(store, extractor, source.LoaderConfig{
		Locales:    cfg.Data.Locales,
		RepairJSON: cfg.Data.RepairJSON,
	})

	strategy, ok := domain.ParseRecommendStrategy(cfg.Recommend.Strategy, domain.StrategyCategory)
	if !ok {
		appLogger.WithField("strategy", cfg.Recommend.Strategy).Fatal("Unknown recommendation strategy")
	}

	catalog := service.NewCatalogService(loader, snapshots, extractor, nil, service.CatalogConfig{
		MaxResults:     cfg.Search.MaxResults,
		RecommendCount: cfg.Recommend.Count,
		Strategy:       strategy,
		PageSize:       cfg.Pagination.PageSize,
		MaxPageSize:    cfg.Pagination.MaxPageSize,
		Locales:        cfg.Data.Locales,
	})

	appLogger.WithFields(logger.Fields{
		"backend":          cfg.Data.Backend,
		"cache":            cfg.Cache.Type,
		"locales":          cfg.Data.Locales,
		"keywords_version": extractor.Version(),
	}).Info("Catalog configured")

	warmUp(catalog, cfg.Data.Locales)

	router := api.SetupRouter(catalog, cfg)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.WithFields(logger.Fields{
			"port": cfg.Server.Port,
			"mode": cfg.Server.Mode,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("Server forced to shutdown")
	}

	appLogger.Info("Server exited")
}

func newExtractor(cfg *config.Config) (*service.CategoryExtractor, error) {
	if cfg.Data.KeywordsPath == "" {
		return service.DefaultCategoryExtractor(), nil
	}
	return service.LoadCategoryExtractor(cfg.Data.KeywordsPath)
}

// warmUp loads every configured locale so the first requests hit a published index.
// Failures are logged; requests retry the load on their own.
func warmUp(catalog *service.CatalogService, locales []string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	ctx = logger.SetComponent(ctx, "warmup")

	g, ctx := errgroup.WithContext(ctx)
	for _, locale := range locales {
		g.Go(func() error {
			if _, err := catalog.Snapshot(ctx, locale); err != nil {
				logger.With(logger.Fields{logger.FieldLocale: locale}).Warn(ctx, "Warm-up failed: %v", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

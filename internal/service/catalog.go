package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/timmy/promptgallery/internal/cache"
	"github.com/timmy/promptgallery/internal/domain"
	"github.com/timmy/promptgallery/internal/logger"
	"golang.org/x/sync/singleflight"
)

const (
	defaultPageSize    = 20
	defaultMaxPageSize = 100
)

// CorpusLoader produces a fresh snapshot of one locale's corpus.
type CorpusLoader interface {
	Load(ctx context.Context, locale string) (*domain.Snapshot, error)
}

// RandSource returns the generator used for one recommendation request.
type RandSource func() *rand.Rand

// CatalogConfig tunes CatalogService.
type CatalogConfig struct {
	MaxResults     int
	RecommendCount int
	Strategy       domain.RecommendStrategy
	PageSize       int
	MaxPageSize    int
	// Locales lists the locales with their own snapshot. Any other locale
	// shares the domain.AllLocales snapshot. Empty keeps every locale apart.
	Locales []string
}

// BrowseQuery is one gallery listing request.
type BrowseQuery struct {
	Term       string
	Categories []string
	SortBy     domain.SortKey
	Page       int
	PageSize   int
}

// BrowseResult is one page of a gallery listing.
type BrowseResult struct {
	Prompts    []domain.Prompt `json:"prompts"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalPages int             `json:"total_pages"`
	Version    string          `json:"version"`
}

// DetailResult is a resolved prompt with its related prompts.
type DetailResult struct {
	Prompt          domain.Prompt            `json:"prompt"`
	Recommendations []domain.Prompt          `json:"recommendations"`
	Strategy        domain.RecommendStrategy `json:"strategy"`
	Version         string                   `json:"version"`
}

// CategoryInfo describes one category of a locale's corpus.
type CategoryInfo struct {
	Category string `json:"category"`
	Label    string `json:"label"`
	Count    int    `json:"count"`
}

// published pairs a snapshot with the index built over it.
type published struct {
	snap  *domain.Snapshot
	index *SearchIndex
}

// CatalogService composes loading, search, filtering and recommendation per request.
// Snapshots and their indexes are read-only once published; Invalidate
// discards them wholesale.
type CatalogService struct {
	loader    CorpusLoader
	cache     cache.Cache
	extractor *CategoryExtractor
	rand      RandSource
	cfg       CatalogConfig

	locales map[string]struct{}

	mu      sync.RWMutex
	indexes map[string]*published
	group   singleflight.Group
}

// NewCatalogService creates a new CatalogService.
// Parameters:
//   - loader: corpus loader consulted on cache misses.
//   - snapshots: snapshot cache; nil disables caching.
//   - extractor: category extractor supplying display labels.
//   - randSource: generator factory for random backfill; nil uses the global source.
//   - cfg: limits and defaults.
//
// Returns:
//   - *CatalogService: ready-to-use service.
func NewCatalogService(
	loader CorpusLoader,
	snapshots cache.Cache,
	extractor *CategoryExtractor,
	randSource RandSource,
	cfg CatalogConfig,
) *CatalogService {
	if snapshots == nil {
		snapshots = cache.Nop{}
	}
	if extractor == nil {
		extractor = DefaultCategoryExtractor()
	}
	if randSource == nil {
		randSource = func() *rand.Rand { return nil }
	}
	if cfg.RecommendCount <= 0 {
		cfg.RecommendCount = DefaultRecommendCount
	}
	if cfg.Strategy == "" {
		cfg.Strategy = domain.StrategyCategory
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = defaultMaxPageSize
	}
	if cfg.MaxPageSize < cfg.PageSize {
		cfg.MaxPageSize = cfg.PageSize
	}
	locales := make(map[string]struct{}, len(cfg.Locales))
	for _, l := range cfg.Locales {
		locales[l] = struct{}{}
	}
	return &CatalogService{
		loader:    loader,
		cache:     snapshots,
		extractor: extractor,
		rand:      randSource,
		cfg:       cfg,
		locales:   locales,
		indexes:   make(map[string]*published),
	}
}

// Snapshot returns the current snapshot of locale, loading it on a cache miss.
func (s *CatalogService) Snapshot(ctx context.Context, locale string) (*domain.Snapshot, error) {
	p, err := s.publishedFor(ctx, locale)
	if err != nil {
		return nil, err
	}
	return p.snap, nil
}

// Browse searches, filters, sorts and paginates a locale's corpus.
// Parameters:
//   - ctx: request context.
//   - locale: corpus locale.
//   - q: term, categories, sort key and page window.
//
// Returns:
//   - *BrowseResult: requested page and totals; an out-of-range page is empty.
//   - error: wraps domain.ErrSourceUnavailable if the corpus cannot be loaded.
func (s *CatalogService) Browse(ctx context.Context, locale string, q BrowseQuery) (*BrowseResult, error) {
	p, err := s.publishedFor(ctx, locale)
	if err != nil {
		return nil, err
	}

	matches := p.index.Query(q.Term)
	filtered := ApplyFilters(matches, FilterOptions{
		Categories: q.Categories,
		SortBy:     q.SortBy,
		Locale:     locale,
	})

	page, size := s.window(q.Page, q.PageSize)
	total := len(filtered)
	totalPages := (total + size - 1) / size

	start := total
	if page-1 < totalPages {
		start = (page - 1) * size
	}
	end := min(start+size, total)
	items := make([]domain.Prompt, end-start)
	copy(items, filtered[start:end])

	return &BrowseResult{
		Prompts:    items,
		Total:      total,
		Page:       page,
		PageSize:   size,
		TotalPages: totalPages,
		Version:    p.snap.Version,
	}, nil
}

// Detail resolves identifier (slug or id) and attaches recommendations.
// Returns an error wrapping domain.ErrNotFound when nothing matches.
func (s *CatalogService) Detail(ctx context.Context, locale, identifier string, strategy domain.RecommendStrategy) (*DetailResult, error) {
	p, err := s.publishedFor(ctx, locale)
	if err != nil {
		return nil, err
	}
	focal, ok := Resolve(p.snap.Prompts, identifier)
	if !ok {
		return nil, fmt.Errorf("%q: %w", identifier, domain.ErrNotFound)
	}
	if strategy == "" {
		strategy = s.cfg.Strategy
	}
	return &DetailResult{
		Prompt:          focal,
		Recommendations: s.recommend(focal, p.snap.Prompts, s.cfg.RecommendCount, strategy),
		Strategy:        strategy,
		Version:         p.snap.Version,
	}, nil
}

// Recommendations returns up to count prompts related to identifier.
// count <= 0 uses the configured default.
func (s *CatalogService) Recommendations(ctx context.Context, locale, identifier string, count int, strategy domain.RecommendStrategy) ([]domain.Prompt, error) {
	p, err := s.publishedFor(ctx, locale)
	if err != nil {
		return nil, err
	}
	focal, ok := Resolve(p.snap.Prompts, identifier)
	if !ok {
		return nil, fmt.Errorf("%q: %w", identifier, domain.ErrNotFound)
	}
	if count <= 0 {
		count = s.cfg.RecommendCount
	}
	if strategy == "" {
		strategy = s.cfg.Strategy
	}
	return s.recommend(focal, p.snap.Prompts, count, strategy), nil
}

// Categories lists the categories used in locale with localized labels and counts.
func (s *CatalogService) Categories(ctx context.Context, locale string) ([]CategoryInfo, error) {
	p, err := s.publishedFor(ctx, locale)
	if err != nil {
		return nil, err
	}
	counts := CategoryCounts(p.snap.Prompts)
	all := AllCategories(p.snap.Prompts)
	out := make([]CategoryInfo, 0, len(all))
	for _, c := range all {
		out = append(out, CategoryInfo{
			Category: c,
			Label:    s.extractor.Label(locale, c),
			Count:    counts[c],
		})
	}
	return out, nil
}

// Popular returns the newest prompts of category, skipping exclude.
// count <= 0 uses DefaultPopularCount.
func (s *CatalogService) Popular(ctx context.Context, locale, category string, count int, exclude []string) ([]domain.Prompt, error) {
	p, err := s.publishedFor(ctx, locale)
	if err != nil {
		return nil, err
	}
	if count <= 0 {
		count = DefaultPopularCount
	}
	return PopularByCategory(category, p.snap.Prompts, count, exclude), nil
}

// Invalidate drops every cached snapshot and index; the next request reloads.
func (s *CatalogService) Invalidate(ctx context.Context) error {
	s.mu.Lock()
	s.indexes = make(map[string]*published)
	s.mu.Unlock()

	if err := s.cache.Invalidate(ctx); err != nil {
		return fmt.Errorf("failed to invalidate snapshot cache: %w", err)
	}
	logger.With(logger.Fields{logger.FieldComponent: "catalog"}).Info(ctx, "Catalog invalidated")
	return nil
}

func (s *CatalogService) recommend(focal domain.Prompt, corpus []domain.Prompt, count int, strategy domain.RecommendStrategy) []domain.Prompt {
	r := NewRecommender(s.rand())
	switch strategy {
	case domain.StrategyDiversified:
		return r.Diversified(focal, corpus, count)
	case domain.StrategySimilar:
		return Similar(focal, corpus, count)
	default:
		return r.Recommend(focal, corpus, count)
	}
}

// window clamps a requested page and page size.
func (s *CatalogService) window(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = s.cfg.PageSize
	}
	if size > s.cfg.MaxPageSize {
		size = s.cfg.MaxPageSize
	}
	return page, size
}

// snapshotKey maps locale to the key its snapshot is cached and indexed under.
func (s *CatalogService) snapshotKey(locale string) string {
	if len(s.locales) == 0 {
		return locale
	}
	if _, ok := s.locales[locale]; ok {
		return locale
	}
	return domain.AllLocales
}

// publishedFor returns the snapshot of locale with its index, reusing the
// index while the snapshot version is unchanged.
func (s *CatalogService) publishedFor(ctx context.Context, locale string) (*published, error) {
	locale = s.snapshotKey(locale)
	snap, err := s.cache.Get(ctx, locale)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			logger.With(logger.Fields{logger.FieldLocale: locale}).Warn(ctx, "Snapshot cache read failed: %v", err)
		}
		return s.load(ctx, locale)
	}

	s.mu.RLock()
	p, ok := s.indexes[locale]
	s.mu.RUnlock()
	if ok && p.snap.Version == snap.Version {
		return p, nil
	}
	return s.publish(ctx, snap), nil
}

// load reads a locale once even when many requests miss together.
func (s *CatalogService) load(ctx context.Context, locale string) (*published, error) {
	v, err, _ := s.group.Do(locale, func() (interface{}, error) {
		snap, err := s.loader.Load(ctx, locale)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(ctx, snap); err != nil {
			logger.With(logger.Fields{logger.FieldLocale: locale}).Warn(ctx, "Snapshot cache write failed: %v", err)
		}
		return s.publish(ctx, snap), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*published), nil
}

func (s *CatalogService) publish(ctx context.Context, snap *domain.Snapshot) *published {
	start := time.Now()
	p := &published{
		snap:  snap,
		index: BuildSearchIndex(snap.Prompts, WithMaxResults(s.cfg.MaxResults)),
	}

	s.mu.Lock()
	s.indexes[snap.Locale] = p
	s.mu.Unlock()

	logger.With(logger.Fields{
		logger.FieldLocale: snap.Locale,
		"version":          snap.Version,
	}).WithCount(snap.Len()).WithDuration(time.Since(start).Milliseconds()).Info(ctx, "Search index published")
	return p
}

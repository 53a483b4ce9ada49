package source

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/timmy/promptgallery/internal/domain"
	"github.com/timmy/promptgallery/internal/logger"
	"github.com/timmy/promptgallery/internal/service"
	"github.com/timmy/promptgallery/internal/storage"
)

const dataFileExt = ".json"

// LoaderConfig configures a Loader.
type LoaderConfig struct {
	// Locales lists the locales that own a key prefix ("en" owns "en/...").
	Locales []string
	// RepairJSON enables a repair attempt for malformed data files.
	RepairJSON bool
}

// Loader reads locale-scoped data files and produces a corpus snapshot.
// It holds no state between calls; every Load reads the backend again.
type Loader struct {
	store     storage.ObjectStorage
	extractor *service.CategoryExtractor
	locales   map[string]struct{}
	repair    bool
}

// NewLoader creates a new Loader.
// Parameters:
//   - store: backend holding the data files.
//   - extractor: category extractor applied to every record.
//   - cfg: known locales and decoding options.
//
// Returns:
//   - *Loader: loader bound to store.
func NewLoader(store storage.ObjectStorage, extractor *service.CategoryExtractor, cfg LoaderConfig) *Loader {
	if extractor == nil {
		extractor = service.DefaultCategoryExtractor()
	}
	locales := make(map[string]struct{}, len(cfg.Locales))
	for _, l := range cfg.Locales {
		locales[l] = struct{}{}
	}
	return &Loader{
		store:     store,
		extractor: extractor,
		locales:   locales,
		repair:    cfg.RepairJSON,
	}
}

// Load reads every data file of locale and returns the categorized,
// slug-backfilled corpus sorted by caseNumber ascending.
// An unknown locale loads every data file in the backend.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - locale: locale whose files are loaded.
//
// Returns:
//   - *domain.Snapshot: loaded corpus; possibly empty, never nil on success.
//   - error: wraps domain.ErrSourceUnavailable when the backend cannot be listed.
func (l *Loader) Load(ctx context.Context, locale string) (*domain.Snapshot, error) {
	start := time.Now()
	ctx = logger.SetLocale(logger.SetComponent(ctx, "loader"), locale)

	keys, err := l.keysFor(ctx, locale)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}

	hash := xxhash.New()
	seen := make(map[string]string)
	var prompts []domain.Prompt
	var sources []string

	for _, key := range keys {
		raw, err := l.read(ctx, key)
		if err != nil {
			logger.With(logger.Fields{logger.FieldSource: key}).Warn(ctx, "Skipping unreadable data file: %v", err)
			continue
		}
		records, err := decodeRecords(raw, l.repair)
		if err != nil {
			logger.With(logger.Fields{logger.FieldSource: key}).Warn(ctx, "Skipping unparsable data file: %v", err)
			continue
		}

		_, _ = hash.WriteString(key)
		_, _ = hash.Write(raw)
		sources = append(sources, key)

		for i, rec := range records {
			if strings.TrimSpace(rec.ID) == "" {
				logger.With(logger.Fields{logger.FieldSource: key, "index": i}).Warn(ctx, "Skipping record without id")
				continue
			}
			if prev, dup := seen[rec.ID]; dup {
				logger.With(logger.Fields{logger.FieldSource: key, logger.FieldIdentifier: rec.ID}).
					Warn(ctx, "Skipping duplicate record id, first seen in %s", prev)
				continue
			}
			seen[rec.ID] = key
			prompts = append(prompts, l.prepare(rec))
		}
	}

	// Stable keeps file order for equal case numbers.
	sort.SliceStable(prompts, func(i, j int) bool {
		return prompts[i].CaseNumber < prompts[j].CaseNumber
	})
	if prompts == nil {
		prompts = []domain.Prompt{}
	}

	snap := &domain.Snapshot{
		Locale:   locale,
		Version:  strconv.FormatUint(hash.Sum64(), 16),
		LoadedAt: time.Now(),
		Sources:  sources,
		Prompts:  prompts,
	}

	logger.With(logger.Fields{
		"files":   len(sources),
		"version": snap.Version,
	}).WithCount(len(prompts)).WithDuration(time.Since(start).Milliseconds()).Info(ctx, "Corpus loaded")

	return snap, nil
}

// keysFor lists the data file keys belonging to locale, in key order.
func (l *Loader) keysFor(ctx context.Context, locale string) ([]string, error) {
	prefix := ""
	if _, known := l.locales[locale]; known {
		prefix = locale + "/"
	} else if locale != domain.AllLocales {
		logger.CtxWarn(ctx, "Unknown locale %q, loading every data file", locale)
	}

	all, err := l.store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(all))
	for _, key := range all {
		if strings.HasSuffix(key, dataFileExt) && !isManifest(key) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (l *Loader) read(ctx context.Context, key string) ([]byte, error) {
	rc, err := l.store.Download(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// prepare attaches derived fields to a raw record.
func (l *Loader) prepare(p domain.Prompt) domain.Prompt {
	p.Categories = l.extractor.ExtractFromPrompt(p.Prompt, p.Title)
	p = service.EnsureSlug(p)
	p.InputImages = l.resolveImages(p.InputImages)
	p.OutputImages = l.resolveImages(p.OutputImages)
	return p
}

func (l *Loader) resolveImages(images []domain.Image) []domain.Image {
	if len(images) == 0 {
		return images
	}
	out := make([]domain.Image, len(images))
	for i, img := range images {
		if isRelative(img.Src) {
			img.Src = l.store.GetURL(img.Src)
		}
		out[i] = img
	}
	return out
}

// isRelative reports whether src is a path relative to the asset store.
func isRelative(src string) bool {
	if src == "" || strings.HasPrefix(src, "/") {
		return false
	}
	u, err := url.Parse(src)
	return err == nil && u.Scheme == "" && u.Host == ""
}

func isManifest(key string) bool {
	return key == "manifest.json" || strings.HasSuffix(key, "/manifest.json")
}

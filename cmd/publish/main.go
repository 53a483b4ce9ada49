package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/timmy/promptgallery/internal/config"
	"github.com/timmy/promptgallery/internal/domain"
	"github.com/timmy/promptgallery/internal/logger"
	"github.com/timmy/promptgallery/internal/source"
	"github.com/timmy/promptgallery/internal/storage"
	"golang.org/x/sync/errgroup"
)

const uploadWorkers = 4

// stats counts publish outcomes across workers.
type stats struct {
	processed atomic.Int64
	skipped   atomic.Int64
	failed    atomic.Int64
}

func main() {
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "json",
		ServiceName: "promptgallery-publish",
	})
	logger.SetDefaultLogger(appLogger)

	configPath := flag.String("config", "", "Path to config file")
	dir := flag.String("dir", "./data", "Local data root holding <locale>/*.json")
	localeFilter := flag.String("locale", "", "Publish only this locale")
	dryRun := flag.Bool("dry-run", false, "Validate files without uploading")
	prune := flag.Bool("prune", false, "Delete stored files missing locally (sql backend)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx = logger.SetComponent(ctx, "publish")

	locales := cfg.Data.Locales
	if *localeFilter != "" {
		locales = []string{*localeFilter}
	}

	files, err := collectFiles(*dir, locales)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to scan data directory")
	}

	appLogger.WithFields(logger.Fields{
		"dir":     *dir,
		"locales": locales,
		"files":   len(files),
		"backend": cfg.Data.Backend,
		"dry_run": *dryRun,
	}).Info("Starting publish")

	var target storage.ObjectStorage
	if !*dryRun {
		target, err = storage.NewFromConfig(cfg)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize data backend")
		}
		if s3Store, ok := target.(*storage.S3Storage); ok {
			if err := s3Store.EnsureBucket(ctx); err != nil {
				appLogger.WithError(err).Fatal("Failed to ensure bucket")
			}
		}
	}

	var st stats
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uploadWorkers)
	for _, f := range files {
		g.Go(func() error {
			publishFile(gctx, target, f, &st)
			return gctx.Err()
		})
	}
	waitErr := g.Wait()

	fields := logger.Fields{
		"processed": st.processed.Load(),
		"skipped":   st.skipped.Load(),
		"failed":    st.failed.Load(),
	}
	if sqlStore, ok := target.(*storage.SQLStorage); ok {
		if *prune && waitErr == nil && st.failed.Load() == 0 {
			fields["pruned"] = pruneStale(ctx, sqlStore, locales, files)
		}
		if counts, err := sqlStore.Counts(ctx); err != nil {
			appLogger.WithError(err).Warn("Failed to count stored documents")
		} else {
			fields["stored"] = counts
		}
	}
	appLogger.WithFields(fields).Info("Publish finished")

	if waitErr != nil && !errors.Is(waitErr, context.Canceled) {
		appLogger.WithError(waitErr).Error("Publish aborted")
	}
	if st.failed.Load() > 0 || waitErr != nil {
		os.Exit(1)
	}
}

// dataFile is one local file and the key it is published under.
type dataFile struct {
	path string
	key  string
}

// collectFiles lists <dir>/<locale>/*.json for every locale, in key order.
func collectFiles(dir string, locales []string) ([]dataFile, error) {
	var files []dataFile
	for _, locale := range locales {
		matches, err := filepath.Glob(filepath.Join(dir, locale, "*.json"))
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			files = append(files, dataFile{path: m, key: locale + "/" + filepath.Base(m)})
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].key < files[j].key })
	return files, nil
}

// pruneStale deletes stored files of locales that have no local counterpart.
// Returns the number of deleted files.
func pruneStale(ctx context.Context, store *storage.SQLStorage, locales []string, files []dataFile) int {
	keep := make(map[string]struct{}, len(files))
	for _, f := range files {
		keep[f.key] = struct{}{}
	}
	pruned := 0
	for _, locale := range locales {
		deleted, err := store.Prune(ctx, locale+"/", keep)
		pruned += len(deleted)
		for _, key := range deleted {
			logger.With(logger.Fields{logger.FieldSource: key}).Info(ctx, "Pruned stale data file")
		}
		if err != nil {
			logger.With(logger.Fields{logger.FieldLocale: locale}).Error(ctx, "Prune failed: %v", err)
		}
	}
	return pruned
}

// publishFile validates one file and uploads it unless target is nil (dry run).
func publishFile(ctx context.Context, target storage.ObjectStorage, f dataFile, st *stats) {
	entry := logger.With(logger.Fields{logger.FieldSource: f.key})

	raw, err := os.ReadFile(f.path)
	if err != nil {
		st.failed.Add(1)
		entry.Error(ctx, "Failed to read file: %v", err)
		return
	}

	count, err := source.Validate(raw)
	if err != nil {
		st.skipped.Add(1)
		entry.Warn(ctx, "Skipping invalid data file: %v", err)
		return
	}

	if target != nil {
		err := target.Upload(ctx, f.key, bytes.NewReader(raw), int64(len(raw)), "application/json")
		if errors.Is(err, domain.ErrReadOnly) {
			st.failed.Add(1)
			entry.Error(ctx, "Data backend is read-only")
			return
		}
		if err != nil {
			st.failed.Add(1)
			entry.Error(ctx, "Upload failed: %v", err)
			return
		}
	}

	st.processed.Add(1)
	entry.WithCount(count).Info(ctx, "Published %s", strings.TrimSuffix(f.key, ".json"))
}

package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync/atomic"
	"testing"
	"time"

	"github.com/timmy/promptgallery/internal/cache"
	"github.com/timmy/promptgallery/internal/domain"
)

type stubLoader struct {
	calls   atomic.Int32
	prompts map[string][]domain.Prompt
	err     error
}

func (l *stubLoader) Load(_ context.Context, locale string) (*domain.Snapshot, error) {
	l.calls.Add(1)
	if l.err != nil {
		return nil, l.err
	}
	return &domain.Snapshot{
		Locale:   locale,
		Version:  fmt.Sprintf("v%d", l.calls.Load()),
		LoadedAt: time.Now(),
		Prompts:  l.prompts[locale],
	}, nil
}

func galleryPrompts(n int) []domain.Prompt {
	out := make([]domain.Prompt, n)
	for i := range out {
		cat := "风景"
		if i%2 == 0 {
			cat = "人像"
		}
		p := domain.Prompt{
			ID:         fmt.Sprintf("model%d-%d", i+1, i+1),
			CaseNumber: i + 1,
			Title:      fmt.Sprintf("Prompt %02d", i+1),
			Prompt:     "a scene",
			Categories: []string{cat},
		}
		out[i] = EnsureSlug(p)
	}
	return out
}

func newCatalog(loader CorpusLoader) *CatalogService {
	return NewCatalogService(loader, cache.NewMemory(time.Minute), DefaultCategoryExtractor(),
		func() *rand.Rand { return rand.New(rand.NewPCG(1, 2)) },
		CatalogConfig{PageSize: 10, MaxPageSize: 20})
}

func TestCatalog_BrowsePagination(t *testing.T) {
	loader := &stubLoader{prompts: map[string][]domain.Prompt{"en": galleryPrompts(25)}}
	svc := newCatalog(loader)
	ctx := context.Background()

	res, err := svc.Browse(ctx, "en", BrowseQuery{Page: 3})
	if err != nil {
		t.Fatalf("Browse failed: %v", err)
	}
	if res.Total != 25 || res.TotalPages != 3 || res.PageSize != 10 || len(res.Prompts) != 5 {
		t.Errorf("unexpected page: total=%d pages=%d size=%d len=%d", res.Total, res.TotalPages, res.PageSize, len(res.Prompts))
	}
	// Default sort is caseNumber descending, so the last page holds the oldest cases.
	if res.Prompts[0].CaseNumber != 5 || res.Prompts[4].CaseNumber != 1 {
		t.Errorf("last page = %v", caseNums(res.Prompts))
	}

	res, err = svc.Browse(ctx, "en", BrowseQuery{Page: 9})
	if err != nil {
		t.Fatalf("Browse failed: %v", err)
	}
	if len(res.Prompts) != 0 || res.Total != 25 {
		t.Errorf("out of range page: len=%d total=%d", len(res.Prompts), res.Total)
	}

	res, err = svc.Browse(ctx, "en", BrowseQuery{Page: math.MaxInt, PageSize: 20})
	if err != nil {
		t.Fatalf("Browse failed: %v", err)
	}
	if len(res.Prompts) != 0 || res.Page != math.MaxInt {
		t.Errorf("huge page: len=%d page=%d", len(res.Prompts), res.Page)
	}

	res, err = svc.Browse(ctx, "en", BrowseQuery{Page: -1, PageSize: 500})
	if err != nil {
		t.Fatalf("Browse failed: %v", err)
	}
	if res.Page != 1 || res.PageSize != 20 {
		t.Errorf("window not clamped: page=%d size=%d", res.Page, res.PageSize)
	}

	if got := loader.calls.Load(); got != 1 {
		t.Errorf("loader called %d times, want 1", got)
	}
}

func TestCatalog_BrowseSearchAndFilter(t *testing.T) {
	loader := &stubLoader{prompts: map[string][]domain.Prompt{"en": galleryPrompts(6)}}
	svc := newCatalog(loader)

	res, err := svc.Browse(context.Background(), "en", BrowseQuery{
		Term:       "prompt",
		Categories: []string{"人像"},
		SortBy:     domain.SortByTitle,
	})
	if err != nil {
		t.Fatalf("Browse failed: %v", err)
	}
	if fmt.Sprint(caseNums(res.Prompts)) != "[1 3 5]" {
		t.Errorf("got %v, want [1 3 5]", caseNums(res.Prompts))
	}

	res, err = svc.Browse(context.Background(), "en", BrowseQuery{Term: "nothing-matches-this"})
	if err != nil {
		t.Fatalf("Browse failed: %v", err)
	}
	if res.Total != 0 || res.TotalPages != 0 {
		t.Errorf("expected empty result, got total=%d", res.Total)
	}
}

func TestCatalog_Detail(t *testing.T) {
	loader := &stubLoader{prompts: map[string][]domain.Prompt{"en": galleryPrompts(8)}}
	svc := newCatalog(loader)
	ctx := context.Background()

	bySlug, err := svc.Detail(ctx, "en", "model-3-case-3", "")
	if err != nil {
		t.Fatalf("Detail by slug failed: %v", err)
	}
	byID, err := svc.Detail(ctx, "en", "model3-3", domain.StrategyDiversified)
	if err != nil {
		t.Fatalf("Detail by id failed: %v", err)
	}
	if bySlug.Prompt.ID != "model3-3" || byID.Prompt.ID != "model3-3" {
		t.Errorf("resolved %s / %s", bySlug.Prompt.ID, byID.Prompt.ID)
	}
	if bySlug.Strategy != domain.StrategyCategory || byID.Strategy != domain.StrategyDiversified {
		t.Errorf("strategies = %s / %s", bySlug.Strategy, byID.Strategy)
	}
	if len(bySlug.Recommendations) != DefaultRecommendCount {
		t.Errorf("len(recommendations) = %d", len(bySlug.Recommendations))
	}
	for _, p := range bySlug.Recommendations {
		if p.ID == "model3-3" {
			t.Error("focal prompt recommended")
		}
	}

	_, err = svc.Detail(ctx, "en", "missing", "")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCatalog_RecommendationsDeterministic(t *testing.T) {
	loader := &stubLoader{prompts: map[string][]domain.Prompt{"en": galleryPrompts(12)}}
	svc := newCatalog(loader)
	ctx := context.Background()

	a, err := svc.Recommendations(ctx, "en", "model1-1", 4, domain.StrategyDiversified)
	if err != nil {
		t.Fatal(err)
	}
	b, err := svc.Recommendations(ctx, "en", "model1-1", 4, domain.StrategyDiversified)
	if err != nil {
		t.Fatal(err)
	}
	if fmt.Sprint(ids(a)) != fmt.Sprint(ids(b)) {
		t.Errorf("seeded source produced %v and %v", ids(a), ids(b))
	}
	if len(a) != 4 {
		t.Errorf("len = %d, want 4", len(a))
	}
}

func TestCatalog_RecommendationsSimilar(t *testing.T) {
	corpus := recommendCorpus()
	loader := &stubLoader{prompts: map[string][]domain.Prompt{"en": corpus}}
	svc := newCatalog(loader)

	got, err := svc.Recommendations(context.Background(), "en", "1", 2, domain.StrategySimilar)
	if err != nil {
		t.Fatal(err)
	}
	want := Similar(corpus[0], corpus, 2)
	if fmt.Sprint(ids(got)) != fmt.Sprint(ids(want)) || got[0].ID != "5" {
		t.Errorf("similar strategy = %v, want %v", ids(got), ids(want))
	}
}

func TestCatalog_UnknownLocalesShareOneSnapshot(t *testing.T) {
	loader := &stubLoader{prompts: map[string][]domain.Prompt{
		"en":              galleryPrompts(3),
		domain.AllLocales: galleryPrompts(5),
	}}
	svc := NewCatalogService(loader, cache.NewMemory(time.Minute), nil, nil,
		CatalogConfig{Locales: []string{"en", "zh"}})
	ctx := context.Background()

	for i := 0; i < 200; i++ {
		snap, err := svc.Snapshot(ctx, fmt.Sprintf("xx%d", i))
		if err != nil {
			t.Fatal(err)
		}
		if snap.Len() != 5 {
			t.Fatalf("unknown locale snapshot has %d prompts, want 5", snap.Len())
		}
	}
	en, err := svc.Snapshot(ctx, "en")
	if err != nil {
		t.Fatal(err)
	}
	if en.Len() != 3 {
		t.Errorf("en snapshot has %d prompts, want 3", en.Len())
	}

	svc.mu.RLock()
	published := len(svc.indexes)
	svc.mu.RUnlock()
	if published != 2 || loader.calls.Load() != 2 {
		t.Errorf("published %d indexes with %d loads, want 2 and 2", published, loader.calls.Load())
	}
}

func TestCatalog_CategoriesAndPopular(t *testing.T) {
	loader := &stubLoader{prompts: map[string][]domain.Prompt{"en": galleryPrompts(5)}}
	svc := newCatalog(loader)
	ctx := context.Background()

	cats, err := svc.Categories(ctx, "en")
	if err != nil {
		t.Fatal(err)
	}
	want := []CategoryInfo{
		{Category: "人像", Label: "Portrait", Count: 3},
		{Category: "风景", Label: "Landscape", Count: 2},
	}
	if fmt.Sprint(cats) != fmt.Sprint(want) {
		t.Errorf("categories = %v, want %v", cats, want)
	}

	popular, err := svc.Popular(ctx, "en", "人像", 0, []string{"model5-5"})
	if err != nil {
		t.Fatal(err)
	}
	if fmt.Sprint(caseNums(popular)) != "[3 1]" {
		t.Errorf("popular = %v, want [3 1]", caseNums(popular))
	}
}

func TestCatalog_InvalidateReloads(t *testing.T) {
	loader := &stubLoader{prompts: map[string][]domain.Prompt{"en": galleryPrompts(3)}}
	svc := newCatalog(loader)
	ctx := context.Background()

	first, err := svc.Snapshot(ctx, "en")
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Invalidate(ctx); err != nil {
		t.Fatal(err)
	}
	second, err := svc.Snapshot(ctx, "en")
	if err != nil {
		t.Fatal(err)
	}
	if first.Version == second.Version || loader.calls.Load() != 2 {
		t.Errorf("expected a reload: versions %s/%s, calls %d", first.Version, second.Version, loader.calls.Load())
	}
}

func TestCatalog_SourceUnavailable(t *testing.T) {
	loader := &stubLoader{err: fmt.Errorf("%w: bucket unreachable", domain.ErrSourceUnavailable)}
	svc := newCatalog(loader)

	_, err := svc.Browse(context.Background(), "en", BrowseQuery{})
	if !errors.Is(err, domain.ErrSourceUnavailable) {
		t.Errorf("err = %v, want ErrSourceUnavailable", err)
	}
}

func caseNums(prompts []domain.Prompt) []int {
	out := make([]int, len(prompts))
	for i, p := range prompts {
		out[i] = p.CaseNumber
	}
	return out
}

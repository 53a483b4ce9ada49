package service

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/timmy/promptgallery/internal/domain"
)

func seeded(seed uint64) *Recommender {
	return NewRecommender(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

func recommendCorpus() []domain.Prompt {
	return []domain.Prompt{
		{ID: "1", CaseNumber: 1, Title: "人像摄影测试", Prompt: "portrait photography, professional lighting", Categories: []string{"人像", "摄影"}},
		{ID: "2", CaseNumber: 2, Title: "风景摄影测试", Prompt: "landscape photography, natural scenery", Categories: []string{"风景", "摄影"}},
		{ID: "3", CaseNumber: 3, Title: "艺术人像", Prompt: "artistic portrait, creative lighting", Categories: []string{"人像", "艺术"}},
		{ID: "4", CaseNumber: 4, Title: "城市夜景", Prompt: "neon city skyline", Categories: []string{"夜景"}},
		{ID: "5", CaseNumber: 5, Title: "复古人像摄影", Prompt: "vintage portrait photography", Categories: []string{"人像", "摄影", "复古"}},
		{ID: "6", CaseNumber: 6, Title: "猫", Prompt: "a cat sleeping", Categories: []string{"动物"}},
	}
}

func TestRecommend_CategoryOverlapFirst(t *testing.T) {
	corpus := recommendCorpus()
	got := seeded(1).Recommend(corpus[0], corpus, 3)

	// 5 shares two categories, 2 and 3 share one each (corpus order on ties).
	if fmt.Sprint(ids(got)) != "[5 2 3]" {
		t.Errorf("got %v, want [5 2 3]", ids(got))
	}
}

func TestRecommend_Invariants(t *testing.T) {
	corpus := recommendCorpus()
	for seed := uint64(0); seed < 20; seed++ {
		for _, count := range []int{1, 3, 6, 10} {
			for _, focal := range corpus {
				r := seeded(seed)
				for name, got := range map[string][]domain.Prompt{
					"category":    r.Recommend(focal, corpus, count),
					"diversified": r.Diversified(focal, corpus, count),
				} {
					if len(got) > count {
						t.Fatalf("%s: len %d exceeds count %d", name, len(got), count)
					}
					want := min(count, len(corpus)-1)
					if len(got) != want {
						t.Fatalf("%s: len %d, want %d", name, len(got), want)
					}
					seen := map[string]bool{}
					for _, p := range got {
						if p.ID == focal.ID {
							t.Fatalf("%s: focal %s recommended to itself", name, focal.ID)
						}
						if seen[p.ID] {
							t.Fatalf("%s: duplicate %s in %v", name, p.ID, ids(got))
						}
						seen[p.ID] = true
					}
				}
			}
		}
	}
}

func TestRecommend_DegenerateInputs(t *testing.T) {
	corpus := recommendCorpus()
	r := seeded(7)

	if got := r.Recommend(corpus[0], nil, 6); len(got) != 0 {
		t.Errorf("empty corpus: %v", ids(got))
	}
	if got := r.Recommend(corpus[0], corpus[:1], 6); len(got) != 0 {
		t.Errorf("corpus of only focal: %v", ids(got))
	}
	if got := r.Diversified(corpus[0], corpus[:1], 6); len(got) != 0 {
		t.Errorf("diversified, corpus of only focal: %v", ids(got))
	}
	for _, n := range []int{0, -1} {
		if got := r.Recommend(corpus[0], corpus, n); got == nil || len(got) != 0 {
			t.Errorf("count %d: %v", n, got)
		}
		if got := r.Diversified(corpus[0], corpus, n); got == nil || len(got) != 0 {
			t.Errorf("diversified count %d: %v", n, got)
		}
	}
}

func TestRecommend_RandomBackfillOnlyAfterCategoryStage(t *testing.T) {
	corpus := []domain.Prompt{
		{ID: "r1", Title: "one", Categories: []string{"portrait"}},
		{ID: "r2", Title: "two", Categories: []string{"portrait"}},
		{ID: "r3", Title: "three", Categories: []string{}},
	}
	for seed := uint64(0); seed < 10; seed++ {
		got := seeded(seed).Recommend(corpus[0], corpus, 6)
		if fmt.Sprint(ids(got)) != "[r2 r3]" {
			t.Fatalf("seed %d: got %v, want [r2 r3]", seed, ids(got))
		}
	}
}

func TestRecommend_NoCategoriesIsRandom(t *testing.T) {
	corpus := recommendCorpus()
	focal := domain.Prompt{ID: "x", Categories: []string{}}
	a := seeded(42).Recommend(focal, corpus, 4)
	b := seeded(42).Recommend(focal, corpus, 4)
	if fmt.Sprint(ids(a)) != fmt.Sprint(ids(b)) {
		t.Errorf("same seed produced different output: %v vs %v", ids(a), ids(b))
	}
	if len(a) != 4 {
		t.Errorf("len = %d, want 4", len(a))
	}
}

func TestDiversified_Composition(t *testing.T) {
	corpus := recommendCorpus()
	got := seeded(3).Diversified(corpus[0], corpus, 6)

	if len(got) != 5 {
		t.Fatalf("len = %d, want 5", len(got))
	}
	// Two category picks: 5 (two shared) then 2.
	if got[0].ID != "5" || got[1].ID != "2" {
		t.Errorf("category picks = %v, want [5 2 ...]", ids(got[:2]))
	}
	// Next is the most similar remaining prompt: 3 shares "portrait" and "lighting".
	if got[2].ID != "3" {
		t.Errorf("similar pick = %s, want 3", got[2].ID)
	}
}

func TestDiversified_SmallCount(t *testing.T) {
	corpus := recommendCorpus()
	got := seeded(3).Diversified(corpus[0], corpus, 1)
	if fmt.Sprint(ids(got)) != "[5]" {
		t.Errorf("got %v, want [5]", ids(got))
	}
}

func TestSimilar(t *testing.T) {
	corpus := recommendCorpus()
	got := Similar(corpus[0], corpus, 2)
	if len(got) != 2 {
		t.Fatalf("len = %d", len(got))
	}
	for _, p := range got {
		if p.ID == corpus[0].ID {
			t.Error("Similar returned the focal prompt")
		}
	}
	if got[0].ID != "5" {
		t.Errorf("most similar = %s, want 5", got[0].ID)
	}
}

func TestSimilar_TiesOrderedByCategoryRelevance(t *testing.T) {
	focal := domain.Prompt{ID: "f", Title: "alpha", Categories: []string{"人像", "摄影"}}
	corpus := []domain.Prompt{
		focal,
		{ID: "a", Title: "bravo", Categories: []string{"动物"}},
		{ID: "b", Title: "charlie", Categories: []string{"人像"}},
		{ID: "c", Title: "delta", Categories: []string{"人像", "摄影"}},
	}
	got := Similar(focal, corpus, 3)
	if fmt.Sprint(ids(got)) != "[c b a]" {
		t.Errorf("got %v, want [c b a]", ids(got))
	}
}

func TestPopularByCategory(t *testing.T) {
	corpus := recommendCorpus()
	got := PopularByCategory("人像", corpus, DefaultPopularCount, []string{"3"})
	if fmt.Sprint(ids(got)) != "[5 1]" {
		t.Errorf("got %v, want [5 1]", ids(got))
	}
	if got := PopularByCategory("人像", corpus, 0, nil); len(got) != 0 {
		t.Errorf("count 0: %v", ids(got))
	}
}

package service

import (
	"math/rand/v2"
	"sort"

	"github.com/timmy/promptgallery/internal/domain"
)

const (
	// DefaultRecommendCount is the size of the related prompts list.
	DefaultRecommendCount = 6
	// DefaultSimilarCount is the default size of a Similar list.
	DefaultSimilarCount = 3
	// DefaultPopularCount is the default size of a PopularByCategory list.
	DefaultPopularCount = 5

	// diversified picks per signal before random backfill
	diversifiedCategoryPicks = 2
	diversifiedSimilarPicks  = 2
)

// Recommender builds related-prompt lists for a focal prompt.
// The random backfill draws from rng; a Recommender is not safe for
// concurrent use when rng is set, so create one per request.
type Recommender struct {
	rng *rand.Rand
}

// NewRecommender creates a Recommender drawing from rng.
// A nil rng uses the runtime's global source.
func NewRecommender(rng *rand.Rand) *Recommender {
	return &Recommender{rng: rng}
}

// Recommend returns up to count prompts related to focal: prompts sharing the
// most categories first, then a random sample of the rest.
// Parameters:
//   - focal: the prompt being viewed; never part of the result.
//   - corpus: all prompts of the locale.
//   - count: maximum result size; <= 0 yields an empty list.
//
// Returns:
//   - []domain.Prompt: related prompts, len <= count.
func (r *Recommender) Recommend(focal domain.Prompt, corpus []domain.Prompt, count int) []domain.Prompt {
	if count <= 0 || len(corpus) == 0 {
		return []domain.Prompt{}
	}

	candidates := excludeIDs(corpus, map[string]struct{}{focal.ID: {}})
	out := categoryMatches(focal, candidates, count)
	if len(out) < count {
		out = append(out, r.randomSample(excludeIDs(candidates, idSet(out)), count-len(out))...)
	}
	return truncate(out, count)
}

// Diversified returns up to count prompts mixing signals: at most two category
// matches, at most two lexically similar prompts, then random picks.
func (r *Recommender) Diversified(focal domain.Prompt, corpus []domain.Prompt, count int) []domain.Prompt {
	if count <= 0 || len(corpus) == 0 {
		return []domain.Prompt{}
	}

	used := map[string]struct{}{focal.ID: {}}
	candidates := excludeIDs(corpus, used)

	out := categoryMatches(focal, candidates, min(count, diversifiedCategoryPicks))
	markUsed(used, out)

	if len(out) < count {
		similar := similarMatches(focal, excludeIDs(candidates, used), min(count-len(out), diversifiedSimilarPicks))
		out = append(out, similar...)
		markUsed(used, similar)
	}

	if len(out) < count {
		out = append(out, r.randomSample(excludeIDs(candidates, used), count-len(out))...)
	}
	return truncate(out, count)
}

// Similar returns up to count prompts ranked by descending text similarity to focal.
// Equal text scores are ordered by CategoryRelevance. Prompts sharing no
// keyword with focal are included only to fill the list.
func Similar(focal domain.Prompt, corpus []domain.Prompt, count int) []domain.Prompt {
	if count <= 0 {
		return []domain.Prompt{}
	}
	candidates := excludeIDs(corpus, map[string]struct{}{focal.ID: {}})
	scored := scoreSimilarity(focal, candidates)
	for i := range scored {
		scored[i].related = CategoryRelevance(focal, scored[i].prompt)
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].related > scored[j].related
	})
	out := make([]domain.Prompt, 0, min(count, len(scored)))
	for _, s := range scored {
		if len(out) == count {
			break
		}
		out = append(out, s.prompt)
	}
	return out
}

// PopularByCategory returns up to count prompts of category, newest case first.
func PopularByCategory(category string, corpus []domain.Prompt, count int, exclude []string) []domain.Prompt {
	if count <= 0 {
		return []domain.Prompt{}
	}
	skip := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}

	var matches []domain.Prompt
	for _, p := range corpus {
		if _, ok := skip[p.ID]; ok {
			continue
		}
		if p.HasCategory(category) {
			matches = append(matches, p)
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].CaseNumber > matches[j].CaseNumber
	})
	return truncate(matches, count)
}

// categoryMatches ranks candidates sharing at least one category with focal
// by the number of shared categories, keeping corpus order on ties.
func categoryMatches(focal domain.Prompt, candidates []domain.Prompt, limit int) []domain.Prompt {
	if len(focal.Categories) == 0 || limit <= 0 {
		return []domain.Prompt{}
	}
	focalSet := toSet(focal.Categories)

	type match struct {
		prompt domain.Prompt
		shared int
	}
	var matches []match
	for _, c := range candidates {
		shared := 0
		for _, cat := range c.Categories {
			if _, ok := focalSet[cat]; ok {
				shared++
			}
		}
		if shared > 0 {
			matches = append(matches, match{prompt: c, shared: shared})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].shared > matches[j].shared
	})

	out := make([]domain.Prompt, 0, min(limit, len(matches)))
	for _, m := range matches[:min(limit, len(matches))] {
		out = append(out, m.prompt)
	}
	return out
}

type scoredPrompt struct {
	prompt  domain.Prompt
	score   float64
	related float64
}

func scoreSimilarity(focal domain.Prompt, candidates []domain.Prompt) []scoredPrompt {
	focalWords := Keywords(focal)
	scored := make([]scoredPrompt, len(candidates))
	for i, c := range candidates {
		scored[i] = scoredPrompt{prompt: c, score: Jaccard(focalWords, Keywords(c))}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})
	return scored
}

// similarMatches keeps only candidates with a positive similarity so the
// diversified list never labels an unrelated prompt as similar.
func similarMatches(focal domain.Prompt, candidates []domain.Prompt, limit int) []domain.Prompt {
	out := []domain.Prompt{}
	if limit <= 0 {
		return out
	}
	for _, s := range scoreSimilarity(focal, candidates) {
		if s.score <= 0 || len(out) == limit {
			break
		}
		out = append(out, s.prompt)
	}
	return out
}

// randomSample draws n prompts without replacement using a Fisher–Yates shuffle.
func (r *Recommender) randomSample(pool []domain.Prompt, n int) []domain.Prompt {
	if n <= 0 || len(pool) == 0 {
		return []domain.Prompt{}
	}
	shuffled := make([]domain.Prompt, len(pool))
	copy(shuffled, pool)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := r.intN(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled[:min(n, len(shuffled))]
}

func (r *Recommender) intN(n int) int {
	if r.rng == nil {
		return rand.IntN(n)
	}
	return r.rng.IntN(n)
}

func excludeIDs(prompts []domain.Prompt, ids map[string]struct{}) []domain.Prompt {
	out := make([]domain.Prompt, 0, len(prompts))
	for _, p := range prompts {
		if _, ok := ids[p.ID]; !ok {
			out = append(out, p)
		}
	}
	return out
}

func idSet(prompts []domain.Prompt) map[string]struct{} {
	set := make(map[string]struct{}, len(prompts))
	markUsed(set, prompts)
	return set
}

func markUsed(set map[string]struct{}, prompts []domain.Prompt) {
	for _, p := range prompts {
		set[p.ID] = struct{}{}
	}
}

func truncate(prompts []domain.Prompt, n int) []domain.Prompt {
	if prompts == nil {
		return []domain.Prompt{}
	}
	if len(prompts) > n {
		return prompts[:n]
	}
	return prompts
}

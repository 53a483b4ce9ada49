package service

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/timmy/promptgallery/internal/domain"
)

var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {}, "on": {}, "at": {},
	"to": {}, "for": {}, "of": {}, "with": {}, "by": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"be": {}, "been": {}, "have": {}, "has": {}, "had": {}, "do": {}, "does": {}, "did": {},
	"will": {}, "would": {}, "could": {}, "should": {},
}

// Keywords returns the keyword set of a prompt's title, description and body:
// lower-cased, punctuation stripped, tokens of at most two runes and stop words dropped.
func Keywords(p domain.Prompt) map[string]struct{} {
	text := strings.ToLower(p.Title + " " + p.Description + " " + p.Prompt)
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
	})

	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		if utf8.RuneCountInString(w) <= 2 {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		set[w] = struct{}{}
	}
	return set
}

// Jaccard returns |a ∩ b| / |a ∪ b|, or 0 when either set is empty.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	inter := 0
	for k := range small {
		if _, ok := large[k]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// TextSimilarity is the Jaccard index of two prompts' keyword sets.
func TextSimilarity(a, b domain.Prompt) float64 {
	return Jaccard(Keywords(a), Keywords(b))
}

// CategoryRelevance is the Jaccard index of two prompts' category sets.
func CategoryRelevance(a, b domain.Prompt) float64 {
	return Jaccard(toSet(a.Categories), toSet(b.Categories))
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

package service

import (
	"sort"

	"github.com/timmy/promptgallery/internal/domain"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// FilterOptions narrows and orders a candidate list.
type FilterOptions struct {
	// Categories keeps prompts sharing at least one label; empty disables filtering.
	Categories []string
	// SortBy defaults to SortByID (caseNumber descending).
	SortBy domain.SortKey
	// Locale picks the collation used for title and model ordering.
	Locale string
}

// ApplyFilters returns a new slice with the category filter and sort applied.
// The input slice is never modified. Sorting is stable so equal keys keep
// their incoming order and page windows are reproducible.
func ApplyFilters(prompts []domain.Prompt, opts FilterOptions) []domain.Prompt {
	out := make([]domain.Prompt, 0, len(prompts))
	if len(opts.Categories) == 0 {
		out = append(out, prompts...)
	} else {
		wanted := make(map[string]struct{}, len(opts.Categories))
		for _, c := range opts.Categories {
			wanted[c] = struct{}{}
		}
		for _, p := range prompts {
			for _, c := range p.Categories {
				if _, ok := wanted[c]; ok {
					out = append(out, p)
					break
				}
			}
		}
	}

	switch opts.SortBy {
	case domain.SortByTitle:
		col := newCollator(opts.Locale)
		sort.SliceStable(out, func(i, j int) bool {
			return col.CompareString(out[i].Title, out[j].Title) < 0
		})
	case domain.SortByModel:
		col := newCollator(opts.Locale)
		sort.SliceStable(out, func(i, j int) bool {
			return col.CompareString(out[i].Model, out[j].Model) < 0
		})
	default:
		// Newest first, unlike the ascending load order.
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CaseNumber > out[j].CaseNumber
		})
	}

	return out
}

// newCollator builds a collator for locale; unparsable locales use the root collation.
// Collators are not safe for concurrent use, so each sort gets its own.
func newCollator(locale string) *collate.Collator {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Und
	}
	return collate.New(tag)
}

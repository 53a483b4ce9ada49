package service

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/timmy/promptgallery/internal/domain"
	"gopkg.in/yaml.v2"
)

//go:embed keywords.yaml
var defaultKeywordTable []byte

// CategoryRule maps one category label to the keywords that select it.
type CategoryRule struct {
	Label    string            `yaml:"label"`
	Labels   map[string]string `yaml:"labels"`
	Keywords []string          `yaml:"keywords"`
}

// KeywordTable is the versioned configuration behind category extraction.
type KeywordTable struct {
	Version    int            `yaml:"version"`
	Categories []CategoryRule `yaml:"categories"`
}

// CategoryExtractor derives category labels from free text.
// It is safe for concurrent use; the table is never modified after construction.
type CategoryExtractor struct {
	table KeywordTable
}

// NewCategoryExtractor creates an extractor over the given table.
// Keywords are lower-cased once here so Extract only folds the input.
func NewCategoryExtractor(table KeywordTable) *CategoryExtractor {
	rules := make([]CategoryRule, 0, len(table.Categories))
	for _, rule := range table.Categories {
		kws := make([]string, 0, len(rule.Keywords))
		for _, kw := range rule.Keywords {
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
				kws = append(kws, kw)
			}
		}
		rules = append(rules, CategoryRule{Label: rule.Label, Labels: rule.Labels, Keywords: kws})
	}
	return &CategoryExtractor{table: KeywordTable{Version: table.Version, Categories: rules}}
}

// DefaultCategoryExtractor returns an extractor over the embedded keyword table.
func DefaultCategoryExtractor() *CategoryExtractor {
	table, err := ParseKeywordTable(defaultKeywordTable)
	if err != nil {
		panic(fmt.Sprintf("embedded keyword table is invalid: %v", err))
	}
	return NewCategoryExtractor(table)
}

// LoadCategoryExtractor reads a keyword table from path, or uses the embedded
// table when path is empty.
// Parameters:
//   - path: YAML file path; empty selects the embedded table.
//
// Returns:
//   - *CategoryExtractor: extractor for the table.
//   - error: non-nil if the file cannot be read or parsed.
func LoadCategoryExtractor(path string) (*CategoryExtractor, error) {
	if path == "" {
		return DefaultCategoryExtractor(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keyword table: %w", err)
	}
	table, err := ParseKeywordTable(raw)
	if err != nil {
		return nil, err
	}
	return NewCategoryExtractor(table), nil
}

// ParseKeywordTable decodes a YAML keyword table.
func ParseKeywordTable(raw []byte) (KeywordTable, error) {
	var table KeywordTable
	if err := yaml.Unmarshal(raw, &table); err != nil {
		return KeywordTable{}, fmt.Errorf("failed to parse keyword table: %w", err)
	}
	seen := make(map[string]bool, len(table.Categories))
	for _, rule := range table.Categories {
		if rule.Label == "" {
			return KeywordTable{}, fmt.Errorf("keyword table v%d: category without label", table.Version)
		}
		if seen[rule.Label] {
			return KeywordTable{}, fmt.Errorf("keyword table v%d: duplicate category %q", table.Version, rule.Label)
		}
		seen[rule.Label] = true
	}
	return table, nil
}

// Version returns the keyword table version.
func (e *CategoryExtractor) Version() int {
	return e.table.Version
}

// Extract returns the categories whose keywords occur in text, in table order.
// The result is never nil; text without any keyword yields an empty slice.
func (e *CategoryExtractor) Extract(text string) []string {
	folded := strings.ToLower(text)
	categories := []string{}
	for _, rule := range e.table.Categories {
		for _, kw := range rule.Keywords {
			if strings.Contains(folded, kw) {
				categories = append(categories, rule.Label)
				break
			}
		}
	}
	return categories
}

// ExtractFromPrompt categorizes a record by its prompt body and title.
func (e *CategoryExtractor) ExtractFromPrompt(prompt, title string) []string {
	return e.Extract(prompt + " " + title)
}

// Label returns the display label of category for locale, or the raw
// category when the table has no localized form.
func (e *CategoryExtractor) Label(locale, category string) string {
	for _, rule := range e.table.Categories {
		if rule.Label != category {
			continue
		}
		if label := rule.Labels[locale]; label != "" {
			return label
		}
		break
	}
	return category
}

// AllCategories returns the sorted distinct categories used across prompts.
func AllCategories(prompts []domain.Prompt) []string {
	set := make(map[string]struct{})
	for _, p := range prompts {
		for _, c := range p.Categories {
			set[c] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// CategoryCounts returns how many prompts carry each category.
func CategoryCounts(prompts []domain.Prompt) map[string]int {
	counts := make(map[string]int)
	for _, p := range prompts {
		for _, c := range p.Categories {
			counts[c]++
		}
	}
	return counts
}

package service

import (
	"reflect"
	"testing"

	"github.com/timmy/promptgallery/internal/domain"
)

func TestCategoryExtractor_Extract(t *testing.T) {
	ex := DefaultCategoryExtractor()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty text", "", []string{}},
		{"no keywords", "a plain sentence with nothing", []string{}},
		{"english portrait", "A studio Portrait of a woman", []string{"人像"}},
		{"chinese landscape", "雪山下的湖泊", []string{"风景"}},
		{"multiple categories in table order", "night city building at dark", []string{"建筑", "夜景"}},
		{"mixed language", "retro 猫 poster", []string{"动物", "复古"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ex.Extract(tt.text)
			if got == nil {
				t.Fatal("Extract returned nil")
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Extract(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestCategoryExtractor_RepeatedKeywordIsStable(t *testing.T) {
	ex := DefaultCategoryExtractor()
	once := ex.ExtractFromPrompt("portrait photo", "title")
	twice := ex.ExtractFromPrompt("portrait portrait photo", "portrait title")
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("repeating a matched keyword changed the result: %v vs %v", once, twice)
	}
}

func TestCategoryExtractor_Label(t *testing.T) {
	ex := DefaultCategoryExtractor()
	if got := ex.Label("en", "人像"); got != "Portrait" {
		t.Errorf("Label(en, 人像) = %q", got)
	}
	if got := ex.Label("fr", "人像"); got != "人像" {
		t.Errorf("missing locale should fall back to raw label, got %q", got)
	}
	if got := ex.Label("en", "unknown"); got != "unknown" {
		t.Errorf("unknown category should fall back to raw label, got %q", got)
	}
}

func TestParseKeywordTable(t *testing.T) {
	table, err := ParseKeywordTable([]byte("version: 7\ncategories:\n  - label: sea\n    keywords: [OCEAN]\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ex := NewCategoryExtractor(table)
	if ex.Version() != 7 {
		t.Errorf("Version = %d", ex.Version())
	}
	if got := ex.Extract("deep ocean"); !reflect.DeepEqual(got, []string{"sea"}) {
		t.Errorf("keywords should be case-folded, got %v", got)
	}

	if _, err := ParseKeywordTable([]byte("categories:\n  - label: a\n  - label: a\n")); err == nil {
		t.Error("expected duplicate label error")
	}
	if _, err := ParseKeywordTable([]byte("categories: [")); err == nil {
		t.Error("expected YAML error")
	}
}

func TestAllCategories(t *testing.T) {
	prompts := []domain.Prompt{
		{Categories: []string{"b", "a"}},
		{Categories: []string{}},
		{Categories: []string{"c", "a"}},
	}
	if got := AllCategories(prompts); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("AllCategories = %v", got)
	}
	if got := CategoryCounts(prompts); got["a"] != 2 || got["c"] != 1 {
		t.Errorf("CategoryCounts = %v", got)
	}
}

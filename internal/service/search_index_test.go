package service

import (
	"fmt"
	"testing"

	"github.com/timmy/promptgallery/internal/domain"
)

func searchCorpus() []domain.Prompt {
	return []domain.Prompt{
		{ID: "a", Title: "Studio portrait", Prompt: "soft light on a face", Model: "gpt-4o", Categories: []string{"人像"}},
		{ID: "b", Title: "Mountain lake", Prompt: "misty mountains at dawn", Model: "flux", Categories: []string{"风景"}},
		{ID: "c", Title: "复古海报", Prompt: "一只猫坐在窗边的复古海报", Model: "gpt-4o", Categories: []string{"动物", "复古"}},
		{ID: "d", Title: "Night market", Prompt: "neon portrait of a street vendor", Description: "portraits after dark", Model: "midjourney", Categories: []string{"人像", "夜景"}},
	}
}

func ids(prompts []domain.Prompt) []string {
	out := make([]string, len(prompts))
	for i, p := range prompts {
		out[i] = p.ID
	}
	return out
}

func TestSearchIndex_BlankTermReturnsEverything(t *testing.T) {
	corpus := searchCorpus()
	idx := BuildSearchIndex(corpus)

	for _, term := range []string{"", "   ", "\t\n"} {
		got := idx.Query(term)
		if fmt.Sprint(ids(got)) != fmt.Sprint(ids(corpus)) {
			t.Errorf("Query(%q) = %v, want full corpus", term, ids(got))
		}
	}
}

func TestSearchIndex_Query(t *testing.T) {
	idx := BuildSearchIndex(searchCorpus())

	tests := []struct {
		name string
		term string
		want []string
	}{
		{"prefix match ranks earlier position first", "portr", []string{"a", "d"}},
		{"case insensitive", "MOUNTAIN", []string{"b"}},
		{"model field", "midjourney", []string{"d"}},
		{"all terms must match", "portrait neon", []string{"d"}},
		{"chinese substring", "猫", []string{"c"}},
		{"chinese multi-rune substring", "海报", []string{"c"}},
		{"category label", "夜景", []string{"d"}},
		{"no match", "spaceship", []string{}},
		{"mid-word is not a prefix", "ountain", []string{}},
		{"punctuation only", "!!!", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(idx.Query(tt.term))
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("Query(%q) = %v, want %v", tt.term, got, tt.want)
			}
		})
	}
}

func TestSearchIndex_MaxResults(t *testing.T) {
	var corpus []domain.Prompt
	for i := 0; i < 150; i++ {
		corpus = append(corpus, domain.Prompt{ID: fmt.Sprintf("p%d", i), Title: "portrait"})
	}

	if got := BuildSearchIndex(corpus).Query("portrait"); len(got) != DefaultMaxResults {
		t.Errorf("default limit: got %d results", len(got))
	}
	got := BuildSearchIndex(corpus, WithMaxResults(10)).Query("portrait")
	if len(got) != 10 {
		t.Fatalf("custom limit: got %d results", len(got))
	}
	// equal scores keep corpus order
	if got[0].ID != "p0" || got[9].ID != "p9" {
		t.Errorf("ties should keep corpus order, got %v", ids(got))
	}
}

func TestSearchIndex_QueryDoesNotAliasCorpus(t *testing.T) {
	corpus := searchCorpus()
	idx := BuildSearchIndex(corpus)
	all := idx.Query("")
	all[0].Title = "changed"
	if corpus[0].Title == "changed" {
		t.Error("Query result shares backing array with the corpus")
	}
}

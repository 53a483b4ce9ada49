package service

import (
	"sort"
	"strings"
	"unicode"

	"github.com/timmy/promptgallery/internal/domain"
)

const (
	// DefaultMaxResults bounds a single query's result count.
	DefaultMaxResults = 100

	// maxPrefixRunes caps the forward prefixes indexed per word.
	maxPrefixRunes = 32
	// maxGramRunes caps the substrings indexed inside CJK runs, which carry no word breaks.
	maxGramRunes = 8
)

// SearchIndex is a forward-tokenized text index over one corpus snapshot.
// It is immutable after BuildSearchIndex and safe for concurrent queries.
// A changed corpus needs a new index; there is no in-place update.
type SearchIndex struct {
	prompts    []domain.Prompt
	postings   map[string][]posting
	maxResults int
}

// posting records the earliest token position of a key inside one document.
type posting struct {
	doc int
	pos int
}

// SearchIndexOption customizes BuildSearchIndex.
type SearchIndexOption func(*SearchIndex)

// WithMaxResults overrides DefaultMaxResults; n <= 0 keeps the default.
func WithMaxResults(n int) SearchIndexOption {
	return func(idx *SearchIndex) {
		if n > 0 {
			idx.maxResults = n
		}
	}
}

// BuildSearchIndex indexes title, prompt body, description, model and categories
// of every prompt, keyed by its position in prompts.
func BuildSearchIndex(prompts []domain.Prompt, opts ...SearchIndexOption) *SearchIndex {
	idx := &SearchIndex{
		prompts:    prompts,
		postings:   make(map[string][]posting),
		maxResults: DefaultMaxResults,
	}
	for _, opt := range opts {
		opt(idx)
	}

	for doc, p := range prompts {
		best := make(map[string]int)
		for _, tok := range tokenize(searchText(p)) {
			for _, key := range indexKeys(tok) {
				if pos, ok := best[key]; !ok || tok.pos < pos {
					best[key] = tok.pos
				}
			}
		}
		for key, pos := range best {
			idx.postings[key] = append(idx.postings[key], posting{doc: doc, pos: pos})
		}
	}

	return idx
}

// Len returns the number of indexed prompts.
func (idx *SearchIndex) Len() int {
	return len(idx.prompts)
}

// Query returns the prompts matching every term of the query, best match first.
// A blank term means no filtering and returns the whole corpus in its original order.
// Parameters:
//   - term: free-text query.
//
// Returns:
//   - []domain.Prompt: matches, at most the index's max results.
func (idx *SearchIndex) Query(term string) []domain.Prompt {
	if strings.TrimSpace(term) == "" {
		out := make([]domain.Prompt, len(idx.prompts))
		copy(out, idx.prompts)
		return out
	}

	keys := queryKeys(term)
	if len(keys) == 0 {
		return []domain.Prompt{}
	}

	// score accumulates token positions; documents missing any key drop out.
	score := make(map[int]int)
	for i, key := range keys {
		postings := idx.postings[key]
		if len(postings) == 0 {
			return []domain.Prompt{}
		}
		if i == 0 {
			for _, p := range postings {
				score[p.doc] = p.pos
			}
			continue
		}
		next := make(map[int]int, len(score))
		for _, p := range postings {
			if s, ok := score[p.doc]; ok {
				next[p.doc] = s + p.pos
			}
		}
		score = next
		if len(score) == 0 {
			return []domain.Prompt{}
		}
	}

	docs := make([]int, 0, len(score))
	for doc := range score {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		if score[docs[i]] != score[docs[j]] {
			return score[docs[i]] < score[docs[j]]
		}
		return docs[i] < docs[j]
	})
	if len(docs) > idx.maxResults {
		docs = docs[:idx.maxResults]
	}

	out := make([]domain.Prompt, len(docs))
	for i, doc := range docs {
		out[i] = idx.prompts[doc]
	}
	return out
}

func searchText(p domain.Prompt) string {
	return strings.Join([]string{
		p.Title,
		p.Prompt,
		p.Description,
		p.Model,
		strings.Join(p.Categories, " "),
	}, " ")
}

type token struct {
	text []rune
	cjk  bool
	pos  int
}

// tokenize lower-cases text and splits it into word runs and CJK runs.
func tokenize(text string) []token {
	var (
		tokens []token
		cur    []rune
		curCJK bool
	)
	flush := func() {
		if len(cur) > 0 {
			tokens = append(tokens, token{text: cur, cjk: curCJK, pos: len(tokens)})
			cur = nil
		}
	}

	for _, r := range strings.ToLower(text) {
		switch {
		case isCJK(r):
			if !curCJK {
				flush()
			}
			curCJK = true
			cur = append(cur, r)
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if curCJK {
				flush()
			}
			curCJK = false
			cur = append(cur, r)
		default:
			flush()
		}
	}
	flush()

	return tokens
}

// indexKeys expands a token into the keys a query can hit: every prefix of a
// word, and every substring (up to maxGramRunes) of a CJK run.
func indexKeys(tok token) []string {
	if !tok.cjk {
		n := min(len(tok.text), maxPrefixRunes)
		keys := make([]string, 0, n)
		for i := 1; i <= n; i++ {
			keys = append(keys, string(tok.text[:i]))
		}
		return keys
	}

	var keys []string
	for start := range tok.text {
		end := min(len(tok.text), start+maxGramRunes)
		for stop := start + 1; stop <= end; stop++ {
			keys = append(keys, string(tok.text[start:stop]))
		}
	}
	return keys
}

// queryKeys turns a query into the distinct keys that must all match.
func queryKeys(term string) []string {
	seen := make(map[string]bool)
	var keys []string
	add := func(k string) {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}

	for _, tok := range tokenize(term) {
		if !tok.cjk {
			add(string(tok.text[:min(len(tok.text), maxPrefixRunes)]))
			continue
		}
		for start := 0; start < len(tok.text); start += maxGramRunes {
			add(string(tok.text[start:min(len(tok.text), start+maxGramRunes)]))
		}
	}
	return keys
}

func isCJK(r rune) bool {
	return unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Hangul)
}

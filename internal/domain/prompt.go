package domain

// Image is an input or output example image attached to a prompt.
type Image struct {
	Src string `json:"src"`
	Alt string `json:"alt"`
}

// Prompt is a single image-generation prompt entry of a locale's corpus.
// Categories is derived at load time and is never nil once a record has been loaded.
type Prompt struct {
	ID               string   `json:"id"`
	Slug             string   `json:"slug"`
	CaseNumber       int      `json:"caseNumber"`
	Model            string   `json:"model"`
	Title            string   `json:"title"`
	Prompt           string   `json:"prompt"`
	Description      string   `json:"description,omitempty"`
	Guidance         string   `json:"guidance,omitempty"`
	InputRequirement string   `json:"inputRequirement,omitempty"`
	ReferenceNote    string   `json:"referenceNote,omitempty"`
	OriginalPrompt   string   `json:"originalPrompt,omitempty"`
	EnglishPrompt    string   `json:"englishPrompt,omitempty"`
	Notes            []string `json:"notes,omitempty"`
	Author           string   `json:"author,omitempty"`
	AuthorURL        string   `json:"authorUrl,omitempty"`
	SourceLinks      []string `json:"sourceLinks,omitempty"`
	InputImages      []Image  `json:"inputImages,omitempty"`
	OutputImages     []Image  `json:"outputImages,omitempty"`
	IsSelected       bool     `json:"isSelected,omitempty"`
	Categories       []string `json:"categories"`
}

// HasCategory reports whether the prompt carries the given category label.
func (p Prompt) HasCategory(category string) bool {
	for _, c := range p.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// SortKey selects the ordering applied by the filter/sort engine.
// Values include SortByID, SortByTitle and SortByModel.
type SortKey string

const (
	SortByID    SortKey = "id"
	SortByTitle SortKey = "title"
	SortByModel SortKey = "model"
)

// ParseSortKey maps a raw query value to a SortKey.
// Parameters:
//   - raw: value supplied by the caller; empty selects SortByID.
//
// Returns:
//   - SortKey: parsed key.
//   - bool: false if raw is not a known key.
func ParseSortKey(raw string) (SortKey, bool) {
	switch SortKey(raw) {
	case "", SortByID:
		return SortByID, true
	case SortByTitle:
		return SortByTitle, true
	case SortByModel:
		return SortByModel, true
	default:
		return "", false
	}
}

// RecommendStrategy selects how related prompts are composed.
type RecommendStrategy string

const (
	// StrategyCategory ranks by shared categories and backfills randomly.
	StrategyCategory RecommendStrategy = "category"
	// StrategyDiversified mixes category matches, lexically similar prompts and random picks.
	StrategyDiversified RecommendStrategy = "diversified"
	// StrategySimilar ranks by text similarity, then by category overlap.
	StrategySimilar RecommendStrategy = "similar"
)

// ParseRecommendStrategy maps a raw query value to a RecommendStrategy, falling back to def.
func ParseRecommendStrategy(raw string, def RecommendStrategy) (RecommendStrategy, bool) {
	switch RecommendStrategy(raw) {
	case "":
		return def, true
	case StrategyCategory:
		return StrategyCategory, true
	case StrategyDiversified:
		return StrategyDiversified, true
	case StrategySimilar:
		return StrategySimilar, true
	default:
		return "", false
	}
}

package domain

import "time"

// AllLocales is the snapshot key shared by every locale outside the configured set.
// Its snapshot holds every data file in the backend.
const AllLocales = "*"

// Snapshot is one published load of a locale's corpus.
// It is read-only once published; a reload always produces a new Snapshot.
type Snapshot struct {
	Locale   string    `json:"locale"`
	Version  string    `json:"version"`
	LoadedAt time.Time `json:"loaded_at"`
	Sources  []string  `json:"sources"`
	Prompts  []Prompt  `json:"prompts"`
}

// Len returns the number of prompts in the snapshot.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Prompts)
}

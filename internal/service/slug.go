package service

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/timmy/promptgallery/internal/domain"
)

// caseSuffix matches the trailing "-<digits>" case counter of an id.
var caseSuffix = regexp.MustCompile(`-\d+$`)

// DeriveSlug builds the canonical slug "{model}-case-{caseNumber}" for an id.
// The trailing case counter is stripped from id, a hyphen is inserted at every
// letter/digit transition and the result is lower-cased. A single trailing
// letter stays attached to its version number:
//
//	DeriveSlug("gpt4o-1", 1) == "gpt-4o-case-1"
//	DeriveSlug("sd3turbo-2", 2) == "sd-3-turbo-case-2"
func DeriveSlug(id string, caseNumber int) string {
	model := caseSuffix.ReplaceAllString(id, "")

	var b strings.Builder
	b.Grow(len(model) + 16)
	var prev byte
	for i := 0; i < len(model); i++ {
		c := model[i]
		if i > 0 && isASCIILetter(prev) && isASCIIDigit(c) {
			b.WriteByte('-')
		}
		if isASCIIDigit(prev) && isASCIILetter(c) && i != len(model)-1 {
			b.WriteByte('-')
		}
		b.WriteByte(c)
		prev = c
	}

	return strings.ToLower(b.String()) + "-case-" + strconv.Itoa(caseNumber)
}

// EnsureSlug returns p with a derived slug when its authored slug is blank.
// An authored slug is never touched.
func EnsureSlug(p domain.Prompt) domain.Prompt {
	if strings.TrimSpace(p.Slug) != "" {
		return p
	}
	p.Slug = DeriveSlug(p.ID, p.CaseNumber)
	return p
}

// Resolve finds a prompt by slug, falling back to id.
// Parameters:
//   - prompts: corpus to search.
//   - identifier: slug or raw id from the request path.
//
// Returns:
//   - domain.Prompt: the matching record.
//   - bool: false when neither slug nor id matches.
func Resolve(prompts []domain.Prompt, identifier string) (domain.Prompt, bool) {
	for _, p := range prompts {
		if p.Slug == identifier {
			return p, true
		}
	}
	for _, p := range prompts {
		if p.ID == identifier {
			return p, true
		}
	}
	return domain.Prompt{}, false
}

func isASCIILetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isASCIIDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

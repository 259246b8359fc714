package terms

import "strings"

// Matcher answers term-membership questions against one piece of text.
// It is immutable and safe for concurrent use.
type Matcher struct {
	padded string
}

// NewMatcher tokenizes text once so repeated lookups are cheap.
func NewMatcher(text string) *Matcher {
	return &Matcher{padded: " " + strings.Join(Tokenize(text), " ") + " "}
}

// Contains reports whether term occurs in the text on token boundaries.
func (m *Matcher) Contains(term string) bool {
	tokens := Tokenize(term)
	if len(tokens) == 0 {
		return false
	}
	return strings.Contains(m.padded, " "+strings.Join(tokens, " ")+" ")
}

// Hits returns the distinct terms found in the text, sorted.
func (m *Matcher) Hits(candidates []string) []string {
	seen := make(map[string]bool)
	for _, term := range candidates {
		if m.Contains(term) {
			seen[strings.Join(Tokenize(term), " ")] = true
		}
	}
	return sortedKeys(seen)
}

// Count returns the number of distinct candidate terms found in the text.
func (m *Matcher) Count(candidates []string) int {
	return len(m.Hits(candidates))
}

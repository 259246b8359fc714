package terms

import (
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Stop words dropped when deriving significant query terms.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true, "or": true, "into": true, "our": true, "your": true,
	"their": true, "all": true, "any": true, "some": true, "about": true, "who": true,
	"what": true, "which": true, "will": true, "can": true, "need": true, "needs": true,
	"prepare": true, "provide": true, "analyze": true, "identify": true, "summarize": true,
	"focusing": true, "review": true, "based": true, "using": true, "given": true,
	"acting": true, "plan": true, "create": true, "make": true, "find": true,
}

const minTermLength = 3

var lower = cases.Lower(language.Und)

// Normalize applies NFKC normalization and lowercases text.
func Normalize(text string) string {
	return lower.String(norm.NFKC.String(text))
}

func isSeparator(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return false
	}
	// Joiners kept inside tokens: gluten-free, r&d, chef's
	return r != '-' && r != '&' && r != '\''
}

// Tokenize splits normalized text into word tokens. Joiner characters at the
// edges of a token are trimmed.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(Normalize(text), isSeparator)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, "-&'")
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// IsStopWord reports whether a single normalized token is a stop word.
func IsStopWord(token string) bool {
	return stopWords[token]
}

// Significant returns the distinct, sorted, non-stopword tokens of text that
// are at least three characters long.
func Significant(text string) []string {
	seen := make(map[string]bool)
	for _, token := range Tokenize(text) {
		if len([]rune(token)) < minTermLength || stopWords[token] {
			continue
		}
		seen[token] = true
	}
	return sortedKeys(seen)
}

// Union merges term lists into one distinct, sorted list. Each term is
// re-tokenized so callers may pass raw configuration values.
func Union(lists ...[]string) []string {
	seen := make(map[string]bool)
	for _, list := range lists {
		for _, term := range list {
			canonical := strings.Join(Tokenize(term), " ")
			if canonical != "" {
				seen[canonical] = true
			}
		}
	}
	return sortedKeys(seen)
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

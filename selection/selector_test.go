package selection

import (
	"testing"

	"github.com/poiesic/docsift/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ranked(doc string, index int, heading string, score float64, passages ...string) core.ScoredSection {
	s := &core.Section{DocumentID: doc, Index: index, Heading: heading}
	for _, p := range passages {
		s.Content = append(s.Content, core.Passage{Text: p, Page: index + 1})
	}
	return core.ScoredSection{Section: s, FinalScore: score}
}

func headings(selected []Selected) []string {
	out := make([]string, len(selected))
	for i, s := range selected {
		out[i] = s.Section.Section.Heading
	}
	return out
}

var q = &core.Query{Terms: []string{"lentil", "vegetarian"}}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		input    string
		expected Policy
		wantErr  bool
	}{
		{"", PolicyGlobal, false},
		{"global", PolicyGlobal, false},
		{"GLOBAL", PolicyGlobal, false},
		{"per-document", PolicyPerDocument, false},
		{"per_document", PolicyPerDocument, false},
		{"random", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			p, err := ParsePolicy(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownPolicy)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, p)
		})
	}
}

func TestNewSelector_Validation(t *testing.T) {
	_, err := NewSelector(WithConfig(Config{TopK: 0, Policy: PolicyGlobal}))
	assert.ErrorIs(t, err, ErrInvalidTopK)

	_, err = NewSelector(WithConfig(Config{TopK: 3, Policy: "bogus"}))
	assert.ErrorIs(t, err, ErrUnknownPolicy)

	s, err := NewSelector(WithConfig(Config{TopK: 3}))
	require.NoError(t, err)
	assert.Equal(t, PolicyGlobal, s.Config().Policy)
}

func TestSelector_GlobalTopK(t *testing.T) {
	s, err := NewSelector(WithConfig(Config{TopK: 2, Policy: PolicyGlobal}))
	require.NoError(t, err)

	in := []core.ScoredSection{
		ranked("a", 0, "A0", 0.9, "x"),
		ranked("b", 0, "B0", 0.8, "x"),
		ranked("a", 1, "A1", 0.7, "x"),
	}
	assert.Equal(t, []string{"A0", "B0"}, headings(s.Select(q, in)))
}

func TestSelector_PerDocumentTopK(t *testing.T) {
	s, err := NewSelector(WithConfig(Config{TopK: 1, Policy: PolicyPerDocument}))
	require.NoError(t, err)

	in := []core.ScoredSection{
		ranked("a", 0, "A0", 0.9, "x"),
		ranked("a", 1, "A1", 0.8, "x"),
		ranked("b", 0, "B0", 0.7, "x"),
	}
	assert.Equal(t, []string{"A0", "B0"}, headings(s.Select(q, in)))
}

func TestSelector_SkipsExcludedAndUnranked(t *testing.T) {
	s, err := NewSelector()
	require.NoError(t, err)

	excluded := ranked("a", 0, "Beef", 0, "x")
	excluded.Excluded = true
	unranked := ranked("a", 1, "Broken", 0, "x")
	unranked.Unranked = true

	out := s.Select(q, []core.ScoredSection{ranked("a", 2, "Stew", 0.5, "x"), excluded, unranked})
	assert.Equal(t, []string{"Stew"}, headings(out))
}

func TestSelector_DedupeHeadings(t *testing.T) {
	in := []core.ScoredSection{
		ranked("a", 0, "Instructions", 0.9, "x"),
		ranked("b", 0, "instructions", 0.8, "x"),
		ranked("b", 1, "Ingredients", 0.7, "x"),
	}

	s, err := NewSelector()
	require.NoError(t, err)
	assert.Equal(t, []string{"Instructions", "Ingredients"}, headings(s.Select(q, in)))

	s, err = NewSelector(WithConfig(Config{TopK: 5, Policy: PolicyGlobal, DedupeHeadings: false}))
	require.NoError(t, err)
	assert.Len(t, s.Select(q, in), 3)

	s, err = NewSelector(WithConfig(Config{TopK: 5, Policy: PolicyPerDocument, DedupeHeadings: true}))
	require.NoError(t, err)
	assert.Len(t, s.Select(q, in), 3, "per-document dedupe is scoped to each document")
}

func TestParagraphs_InclusionSoundness(t *testing.T) {
	section := &core.Section{Id: 9, Heading: "Stew", Content: []core.Passage{
		{Text: "Rinse the lentils.\n\nChop an onion.", Page: 2},
		{Text: "A vegetarian classic.", Page: 3},
	}}

	paragraphs := Paragraphs(q, section)
	require.Len(t, paragraphs, 3)

	for _, p := range paragraphs {
		assert.Equal(t, len(p.MatchTerms) > 0, p.Included, p.Text)
	}
	assert.Empty(t, paragraphs[0].MatchTerms, "lentils is not the term lentil")
	assert.Equal(t, []string{"vegetarian"}, paragraphs[2].MatchTerms)
	assert.Equal(t, 3, paragraphs[2].Page)
}

func TestParagraphs_SoleParagraphFallback(t *testing.T) {
	section := &core.Section{Heading: "Notes", Content: []core.Passage{{Text: "Nothing relevant here.", Page: 1}}}

	paragraphs := Paragraphs(q, section)
	require.Len(t, paragraphs, 1)
	assert.True(t, paragraphs[0].Included)
	assert.Empty(t, paragraphs[0].MatchTerms)
}

func TestSelected_IncludedMayBeEmpty(t *testing.T) {
	s, err := NewSelector()
	require.NoError(t, err)

	out := s.Select(q, []core.ScoredSection{ranked("a", 0, "Misc", 0.5, "nothing", "at all")})
	require.Len(t, out, 1)
	assert.Empty(t, out[0].Included(), "section still reported with no paragraphs")
	assert.Len(t, out[0].Paragraphs, 2)
}

func TestSelector_EmptySectionHasNoParagraphs(t *testing.T) {
	s, err := NewSelector()
	require.NoError(t, err)

	out := s.Select(q, []core.ScoredSection{ranked("a", 0, "Heading Only", 0.5)})
	require.Len(t, out, 1)
	assert.Empty(t, out[0].Paragraphs)
}

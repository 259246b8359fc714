package rules

import (
	"cmp"
	"log/slog"
	"math"
	"slices"

	"github.com/poiesic/docsift/core"
	"github.com/poiesic/docsift/terms"
)

// Filter re-scores ranked sections with the rules of the query's domain.
// It is safe for concurrent use.
type Filter struct {
	table  *Table
	logger *slog.Logger
}

// Option configures a Filter.
type Option func(*Filter) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(f *Filter) error {
		if logger == nil {
			logger = slog.Default()
		}
		f.logger = logger.With("component", "rules")
		return nil
	}
}

// NewFilter creates a filter over table.
func NewFilter(table *Table, opts ...Option) (*Filter, error) {
	if table == nil {
		return nil, ErrTableRequired
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	f := &Filter{
		table:  table,
		logger: slog.Default().With("component", "rules"),
	}
	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Table returns the rule table the filter applies.
func (f *Filter) Table() *Table {
	return f.table
}

// ActiveRules is the resolved rule set for one query.
type ActiveRules struct {
	Domain         string
	BoostTerms     []string
	PenaltyTerms   []string
	HardExclusions []string
	BoostWeight    float64
	MaxBoost       float64
	PenaltyWeight  float64
}

// Resolve merges the domain's static terms with the conditions the query triggers.
// The general domain resolves to an empty rule set.
func (f *Filter) Resolve(query *core.Query) ActiveRules {
	d, ok := f.table.Domain(query.Domain)
	if !ok {
		return ActiveRules{Domain: query.Domain}
	}

	penalties := [][]string{d.PenaltyTerms}
	exclusions := [][]string{d.HardExclusions}
	m := terms.NewMatcher(query.Text)
	for _, c := range d.Conditions {
		if m.Count(c.Triggers) == 0 {
			continue
		}
		penalties = append(penalties, c.PenaltyTerms)
		exclusions = append(exclusions, c.HardExclusions)
	}

	return ActiveRules{
		Domain:         d.Name,
		BoostTerms:     terms.Union(d.BoostTerms),
		PenaltyTerms:   terms.Union(penalties...),
		HardExclusions: terms.Union(exclusions...),
		BoostWeight:    d.BoostWeight,
		MaxBoost:       d.MaxBoost,
		PenaltyWeight:  d.PenaltyWeight,
	}
}

// Apply returns re-scored copies of sections sorted by final score.
//
// Boost hits add BoostWeight each up to MaxBoost; penalty hits subtract
// PenaltyWeight each without a cap. The sum is clamped below at the table's
// score floor. A hard exclusion hit sets the score to -Inf and marks the
// section excluded. Unranked sections sort after every ranked one. Ties keep
// document order, then section order. Rank is 1-based over the whole list.
func (f *Filter) Apply(query *core.Query, sections []core.ScoredSection) []core.ScoredSection {
	rules := f.Resolve(query)
	out := make([]core.ScoredSection, len(sections))

	excluded := 0
	for i, s := range sections {
		out[i] = f.score(rules, s)
		if out[i].Excluded {
			excluded++
		}
	}

	slices.SortStableFunc(out, compareScored)
	for i := range out {
		out[i].Rank = i + 1
	}

	f.logger.Debug("applied rules", "domain", rules.Domain, "sections", len(out), "excluded", excluded)
	return out
}

func (f *Filter) score(rules ActiveRules, s core.ScoredSection) core.ScoredSection {
	m := terms.NewMatcher(s.Section.Text())
	s.BoostHits = m.Hits(rules.BoostTerms)
	s.PenaltyHits = m.Hits(rules.PenaltyTerms)
	s.Excluded = false
	s.RuleAdjustment = 0

	if s.Unranked {
		s.FinalScore = math.Inf(-1)
		return s
	}

	if hits := m.Hits(rules.HardExclusions); len(hits) > 0 {
		s.Excluded = true
		s.PenaltyHits = terms.Union(s.PenaltyHits, hits)
		s.FinalScore = math.Inf(-1)
		return s
	}

	boost := math.Min(float64(len(s.BoostHits))*rules.BoostWeight, rules.MaxBoost)
	penalty := float64(len(s.PenaltyHits)) * rules.PenaltyWeight
	s.RuleAdjustment = boost - penalty
	s.FinalScore = math.Max(s.SemanticScore+s.RuleAdjustment, f.table.ScoreFloor)
	return s
}

// group orders ranked, then excluded, then unranked sections.
func group(s core.ScoredSection) int {
	switch {
	case s.Unranked:
		return 2
	case s.Excluded:
		return 1
	default:
		return 0
	}
}

func compareScored(a, b core.ScoredSection) int {
	if c := cmp.Compare(group(a), group(b)); c != 0 {
		return c
	}
	if group(a) == 0 {
		if c := cmp.Compare(b.FinalScore, a.FinalScore); c != 0 {
			return c
		}
	}
	if c := cmp.Compare(a.DocumentOrder, b.DocumentOrder); c != 0 {
		return c
	}
	return cmp.Compare(a.Section.Index, b.Section.Index)
}

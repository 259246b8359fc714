// Package selection picks the top sections and the paragraphs worth showing.
package selection

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/docsift/core"
	"github.com/poiesic/docsift/outline"
	"github.com/poiesic/docsift/terms"
)

// Policy decides whether the top-K cutoff is global or per document.
type Policy string

const (
	// PolicyGlobal keeps the K best sections across all documents.
	PolicyGlobal Policy = "global"
	// PolicyPerDocument keeps the K best sections of each document.
	PolicyPerDocument Policy = "per-document"
)

var (
	// ErrUnknownPolicy is returned for an unrecognised policy name.
	ErrUnknownPolicy = errors.New("unknown selection policy")
	// ErrInvalidTopK is returned when K is not positive.
	ErrInvalidTopK = errors.New("top-k must be positive")
)

// ParsePolicy accepts "global", "per-document" and "per_document".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(PolicyGlobal):
		return PolicyGlobal, nil
	case string(PolicyPerDocument), "per_document":
		return PolicyPerDocument, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// Config holds the selection settings.
type Config struct {
	TopK           int    `yaml:"top_k"`
	Policy         Policy `yaml:"policy"`
	DedupeHeadings bool   `yaml:"dedupe_headings"`
}

// DefaultConfig returns the default selection settings.
func DefaultConfig() Config {
	return Config{TopK: 5, Policy: PolicyGlobal, DedupeHeadings: true}
}

// Validate checks the settings.
func (c Config) Validate() error {
	if c.TopK <= 0 {
		return ErrInvalidTopK
	}
	if _, err := ParsePolicy(string(c.Policy)); err != nil {
		return err
	}
	return nil
}

// Selected is one chosen section with every paragraph annotated.
type Selected struct {
	Section    core.ScoredSection
	Paragraphs []core.Paragraph
}

// Included returns the paragraphs marked for output, in order.
func (s Selected) Included() []core.Paragraph {
	var out []core.Paragraph
	for _, p := range s.Paragraphs {
		if p.Included {
			out = append(out, p)
		}
	}
	return out
}

// Selector applies the top-K cutoff and paragraph filtering.
// It is stateless and safe for concurrent use.
type Selector struct {
	config Config
	logger *slog.Logger
}

// Option configures a Selector.
type Option func(*Selector) error

// WithConfig replaces the default settings.
func WithConfig(config Config) Option {
	return func(s *Selector) error {
		policy, err := ParsePolicy(string(config.Policy))
		if err != nil {
			return err
		}
		config.Policy = policy
		if err := config.Validate(); err != nil {
			return err
		}
		s.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Selector) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "selection")
		return nil
	}
}

// NewSelector creates a selector with default settings.
func NewSelector(opts ...Option) (*Selector, error) {
	s := &Selector{
		config: DefaultConfig(),
		logger: slog.Default().With("component", "selection"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Config returns the active settings.
func (s *Selector) Config() Config {
	return s.config
}

// Select walks ranked, which must already be in final rank order, and keeps
// up to TopK selectable sections under the configured policy. Excluded and
// unranked sections are never chosen. With de-duplication on, a heading that
// was already chosen in the same scope is skipped. Output keeps rank order.
func (s *Selector) Select(query *core.Query, ranked []core.ScoredSection) []Selected {
	counts := make(map[string]int)
	seen := make(map[string]bool)
	var out []Selected

	for _, sc := range ranked {
		if !sc.Selectable() {
			continue
		}
		scope := ""
		if s.config.Policy == PolicyPerDocument {
			scope = sc.Section.DocumentID
		}
		if counts[scope] >= s.config.TopK {
			continue
		}
		if s.config.DedupeHeadings {
			key := scope + "\x00" + strings.Join(terms.Tokenize(sc.Section.Heading), " ")
			if seen[key] {
				s.logger.Debug("skipping duplicate heading", "heading", sc.Section.Heading)
				continue
			}
			seen[key] = true
		}
		counts[scope]++
		out = append(out, Selected{
			Section:    sc,
			Paragraphs: Paragraphs(query, sc.Section),
		})
	}

	s.logger.Debug("selected sections", "policy", s.config.Policy, "selected", len(out), "candidates", len(ranked))
	return out
}

// Paragraphs splits a section into paragraphs and marks each one included
// when it mentions at least one query term. A section's only paragraph is
// always included, so a short section is never reported empty.
func Paragraphs(query *core.Query, section *core.Section) []core.Paragraph {
	paragraphs := outline.SplitParagraphs(section)
	for i := range paragraphs {
		hits := terms.NewMatcher(paragraphs[i].Text).Hits(query.Terms)
		paragraphs[i].MatchTerms = hits
		paragraphs[i].Included = len(hits) > 0
	}
	if len(paragraphs) == 1 {
		paragraphs[0].Included = true
	}
	return paragraphs
}

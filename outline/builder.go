package outline

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/poiesic/docsift/core"
)

// Config holds the passage grouping threshold.
type Config struct {
	// ParagraphGapRatio is the largest vertical gap, as a multiple of the
	// baseline font size, that still joins two runs into one passage.
	ParagraphGapRatio float64 `yaml:"paragraph_gap_ratio"`
}

// DefaultConfig returns the default grouping threshold.
func DefaultConfig() Config {
	return Config{ParagraphGapRatio: 1.5}
}

// Validate checks the threshold.
func (c Config) Validate() error {
	if c.ParagraphGapRatio <= 0 {
		return ErrInvalidGapRatio
	}
	return nil
}

// Builder turns classified runs into sections.
// It is stateless and safe for concurrent use.
type Builder struct {
	config Config
	logger *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder) error

// WithConfig replaces the default threshold.
func WithConfig(config Config) Option {
	return func(b *Builder) error {
		if err := config.Validate(); err != nil {
			return err
		}
		b.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) error {
		if logger == nil {
			logger = slog.Default()
		}
		b.logger = logger.With("component", "outline")
		return nil
	}
}

// NewBuilder creates a builder with the default threshold.
func NewBuilder(opts ...Option) (*Builder, error) {
	b := &Builder{
		config: DefaultConfig(),
		logger: slog.Default().With("component", "outline"),
	}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// sectionBuilder accumulates one section while scanning.
type sectionBuilder struct {
	section *core.Section
	parts   []string
	last    *core.ClassifiedRun
}

func (s *sectionBuilder) flushPassage() {
	if len(s.parts) == 0 {
		return
	}
	s.section.Content = append(s.section.Content, core.Passage{
		Text: strings.Join(s.parts, " "),
		Page: s.last.Page,
	})
	s.parts = nil
}

// Build groups runs into sections for one document. title names the
// implicit section used for body text before the first heading. baseline
// scales the passage gap threshold; a non-positive baseline joins every
// run on a page. Every document with at least one non-blank run yields at
// least one section.
func (b *Builder) Build(documentID, title string, runs []core.ClassifiedRun, baseline float64) []*core.Section {
	var sections []*core.Section
	var cur *sectionBuilder
	maxGap := b.config.ParagraphGapRatio * baseline

	open := func(heading string, page int, implicit bool) {
		if cur != nil {
			cur.flushPassage()
		}
		s := &core.Section{
			DocumentID: documentID,
			Index:      len(sections),
			Heading:    heading,
			Page:       page,
			Implicit:   implicit,
			Content:    []core.Passage{},
		}
		s.Id = core.IDFromContent(fmt.Sprintf("%s\x00%d\x00%s", documentID, s.Index, heading))
		sections = append(sections, s)
		cur = &sectionBuilder{section: s}
	}

	for i := range runs {
		r := &runs[i]
		text := strings.TrimSpace(r.Text)
		if text == "" {
			continue
		}

		if r.Kind == core.RunKindHeading {
			open(text, r.Page, false)
			continue
		}

		if cur == nil {
			open(implicitHeading(title, documentID), r.Page, true)
		}
		if cur.last != nil && startsPassage(cur.last, r, maxGap) {
			cur.flushPassage()
		}
		cur.parts = append(cur.parts, text)
		cur.last = r
	}
	if cur != nil {
		cur.flushPassage()
	}

	b.logger.Debug("built sections", "document", documentID, "sections", len(sections))
	return sections
}

func implicitHeading(title, documentID string) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	return documentID
}

// startsPassage reports whether next begins a new passage after prev.
func startsPassage(prev, next *core.ClassifiedRun, maxGap float64) bool {
	if prev.Page != next.Page {
		return true
	}
	gap := next.Y - prev.Y
	if gap < 0 {
		return true
	}
	return maxGap > 0 && gap > maxGap
}

var blankLine = regexp.MustCompile(`\n\s*\n`)

// SplitParagraphs breaks a section's passages into paragraphs on blank
// lines. Paragraphs keep the page of their passage and the section's ID.
// Empty fragments are dropped.
func SplitParagraphs(section *core.Section) []core.Paragraph {
	var out []core.Paragraph
	for _, p := range section.Content {
		for _, chunk := range blankLine.Split(p.Text, -1) {
			chunk = strings.TrimSpace(chunk)
			if chunk == "" {
				continue
			}
			out = append(out, core.Paragraph{
				Text:      chunk,
				Page:      p.Page,
				SectionID: section.Id,
			})
		}
	}
	return out
}

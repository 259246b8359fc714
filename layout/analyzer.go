package layout

import (
	"log/slog"
	"math"
	"strings"
	"unicode"

	"github.com/poiesic/docsift/core"
)

// alwaysHeadingRatio marks runs large enough to be headings regardless of shape.
const alwaysHeadingRatio = 2.0

const epsilon = 1e-9

// Analyzer labels text runs as headings or body.
// It holds no per-document state and is safe for concurrent use.
type Analyzer struct {
	config Config
	logger *slog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer) error

// WithConfig replaces the default thresholds.
func WithConfig(config Config) Option {
	return func(a *Analyzer) error {
		if err := config.Validate(); err != nil {
			return err
		}
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) error {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger.With("component", "layout")
		return nil
	}
}

// NewAnalyzer creates an analyzer with default thresholds.
func NewAnalyzer(opts ...Option) (*Analyzer, error) {
	a := &Analyzer{
		config: DefaultConfig(),
		logger: slog.Default().With("component", "layout"),
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Config returns the active thresholds.
func (a *Analyzer) Config() Config {
	return a.config
}

// Baseline returns the body font size: the most frequent size among runs
// with visible text, rounded to 0.1pt. Ties go to the smaller size.
// Returns 0 when no run has a positive size.
func Baseline(runs []core.TextRun) float64 {
	counts := make(map[int]int)
	for _, r := range runs {
		if r.FontSize <= 0 || strings.TrimSpace(r.Text) == "" {
			continue
		}
		counts[int(math.Round(r.FontSize*10))]++
	}

	best, bestCount := 0, 0
	for size, count := range counts {
		if count > bestCount || (count == bestCount && size < best) {
			best, bestCount = size, count
		}
	}
	return float64(best) / 10
}

// Classify labels every run. The returned slice has one entry per input
// run, in input order, along with the baseline used.
func (a *Analyzer) Classify(runs []core.TextRun) ([]core.ClassifiedRun, float64) {
	if len(runs) == 0 {
		return []core.ClassifiedRun{}, 0
	}

	baseline := Baseline(runs)
	out := make([]core.ClassifiedRun, len(runs))
	headings := 0
	for i, r := range runs {
		kind := core.RunKindBody
		if a.isHeading(r, baseline) {
			kind = core.RunKindHeading
			headings++
		}
		out[i] = core.ClassifiedRun{TextRun: r, Kind: kind}
	}

	a.logger.Debug("classified runs", "runs", len(runs), "headings", headings, "baseline", baseline)
	return out, baseline
}

func (a *Analyzer) isHeading(r core.TextRun, baseline float64) bool {
	text := strings.TrimSpace(r.Text)
	if text == "" || baseline <= 0 {
		return false
	}

	size := math.Round(r.FontSize*10) / 10
	if size >= baseline*alwaysHeadingRatio-epsilon {
		return true
	}

	candidate := size >= baseline*a.config.HeadingSizeRatio-epsilon ||
		(a.config.BoldHeadings && r.Bold && size >= baseline-epsilon)
	if !candidate {
		return false
	}
	if !a.config.ShapeGuards {
		return true
	}
	return len(strings.Fields(text)) <= a.config.MaxHeadingWords && letterCount(text) >= 2
}

func letterCount(text string) int {
	n := 0
	for _, r := range text {
		if unicode.IsLetter(r) {
			n++
		}
	}
	return n
}

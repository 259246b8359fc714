package layout

// Config holds the heading detection thresholds.
type Config struct {
	// HeadingSizeRatio is how much larger than the baseline a run must be
	// to count as a heading. Must be greater than 1.
	HeadingSizeRatio float64 `yaml:"heading_size_ratio"`

	// BoldHeadings treats bold runs at baseline size or larger as headings.
	BoldHeadings bool `yaml:"bold_headings"`

	// ShapeGuards enables the word and letter count checks on candidates.
	ShapeGuards bool `yaml:"shape_guards"`

	// MaxHeadingWords is the longest heading, in words, the guards accept.
	MaxHeadingWords int `yaml:"max_heading_words"`
}

// DefaultConfig returns the default heading thresholds.
func DefaultConfig() Config {
	return Config{
		HeadingSizeRatio: 1.15,
		BoldHeadings:     true,
		ShapeGuards:      true,
		MaxHeadingWords:  12,
	}
}

// Validate checks the thresholds.
func (c Config) Validate() error {
	if c.HeadingSizeRatio <= 1 {
		return ErrInvalidHeadingRatio
	}
	if c.ShapeGuards && c.MaxHeadingWords <= 0 {
		return ErrInvalidMaxHeadingWords
	}
	return nil
}

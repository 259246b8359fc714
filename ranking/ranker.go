// Package ranking scores sections by semantic similarity to the query.
package ranking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/poiesic/docsift/ai"
	"github.com/poiesic/docsift/core"
	"golang.org/x/sync/errgroup"
)

// ErrEmbedderRequired is returned when a ranker is built without an embedder.
var ErrEmbedderRequired = errors.New("embedder is required")

// Config holds the ranker's call settings.
type Config struct {
	// Timeout bounds each embedding call.
	Timeout time.Duration `yaml:"timeout"`
	// BatchSize is the number of sections sent per embedding call. A failed
	// batch is retried one section at a time so a single bad section does
	// not take its neighbours down. 1 disables batching.
	BatchSize int `yaml:"batch_size"`
	// Concurrency is the number of embedding calls one Rank call keeps in flight.
	Concurrency int `yaml:"concurrency"`
}

// DefaultConfig returns the default ranker settings.
func DefaultConfig() Config {
	return Config{
		Timeout:     30 * time.Second,
		BatchSize:   16,
		Concurrency: 4,
	}
}

// Ranker computes semantic scores. It is safe for concurrent use.
type Ranker struct {
	embedder ai.Embedder
	config   Config
	logger   *slog.Logger
}

// Option configures a Ranker.
type Option func(*Ranker) error

// WithConfig replaces the default settings. Non-positive fields keep their defaults.
func WithConfig(config Config) Option {
	return func(r *Ranker) error {
		if config.Timeout > 0 {
			r.config.Timeout = config.Timeout
		}
		if config.BatchSize > 0 {
			r.config.BatchSize = config.BatchSize
		}
		if config.Concurrency > 0 {
			r.config.Concurrency = config.Concurrency
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Ranker) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger.With("component", "ranking")
		return nil
	}
}

// NewRanker creates a ranker backed by embedder.
func NewRanker(embedder ai.Embedder, opts ...Option) (*Ranker, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	r := &Ranker{
		embedder: embedder,
		config:   DefaultConfig(),
		logger:   slog.Default().With("component", "ranking"),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Rank scores each section against the query vector. The output has one
// entry per section in input order. Sections whose embedding fails or
// times out are marked Unranked with a zero score, as are sections whose
// vector length differs from the query's; the rest of the batch carries
// on. The returned error is non-nil only when ctx is cancelled.
func (r *Ranker) Rank(ctx context.Context, query *core.Query, sections []*core.Section, documentOrder int) ([]core.ScoredSection, error) {
	out := make([]core.ScoredSection, len(sections))
	for i, s := range sections {
		out[i] = core.ScoredSection{Section: s, DocumentOrder: documentOrder}
	}
	if len(sections) == 0 {
		return out, nil
	}

	g := new(errgroup.Group)
	g.SetLimit(r.config.Concurrency)
	for start := 0; start < len(sections); start += r.config.BatchSize {
		end := min(start+r.config.BatchSize, len(sections))
		g.Go(func() error {
			r.rankBatch(ctx, query.Vector, out[start:end])
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	unranked := 0
	for _, s := range out {
		if s.Unranked {
			unranked++
		}
	}
	if unranked > 0 {
		r.logger.Warn("sections left unranked", "unranked", unranked, "total", len(out))
	}
	return out, nil
}

// rankBatch fills in scores for a contiguous slice of out.
func (r *Ranker) rankBatch(ctx context.Context, queryVector []float32, batch []core.ScoredSection) {
	if len(batch) > 1 {
		texts := make([]string, len(batch))
		for i, s := range batch {
			texts[i] = s.Section.Text()
		}
		callCtx, cancel := context.WithTimeout(ctx, r.config.Timeout)
		vectors, err := r.embedder.EmbedTexts(callCtx, texts)
		cancel()
		if err == nil && len(vectors) == len(batch) {
			for i := range batch {
				r.score(&batch[i], vectors[i], queryVector)
			}
			return
		}
		r.logger.Debug("batch embedding failed, falling back to single calls", "size", len(batch), "err", err)
	}

	for i := range batch {
		callCtx, cancel := context.WithTimeout(ctx, r.config.Timeout)
		vector, err := r.embedder.EmbedText(callCtx, batch[i].Section.Text())
		cancel()
		if err != nil {
			r.logger.Debug("section embedding failed", "document", batch[i].Section.DocumentID,
				"heading", batch[i].Section.Heading, "err", err)
			batch[i].Unranked = true
			batch[i].SemanticScore = 0
			continue
		}
		r.score(&batch[i], vector, queryVector)
	}
}

// score sets the semantic score, or marks the section unranked when the
// section and query vectors come from models of different dimensions.
func (r *Ranker) score(s *core.ScoredSection, vector, queryVector []float32) {
	if len(vector) != len(queryVector) {
		r.logger.Warn("embedding dimension mismatch", "document", s.Section.DocumentID,
			"heading", s.Section.Heading, "section_dim", len(vector), "query_dim", len(queryVector))
		s.Unranked = true
		s.SemanticScore = 0
		return
	}
	s.SemanticScore = Cosine(vector, queryVector)
}

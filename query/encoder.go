// Package query turns a persona and a job into a scored query.
package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/docsift/ai"
	"github.com/poiesic/docsift/core"
	"github.com/poiesic/docsift/rules"
	"github.com/poiesic/docsift/terms"
)

var (
	// ErrEmbedderRequired is returned when an encoder is built without an embedder.
	ErrEmbedderRequired = errors.New("embedder is required")
	// ErrTableRequired is returned when an encoder is built without a rule table.
	ErrTableRequired = errors.New("rule table is required")
)

// Encoder builds core.Query values. It is safe for concurrent use.
type Encoder struct {
	embedder ai.Embedder
	table    *rules.Table
	logger   *slog.Logger
}

// Option configures an Encoder.
type Option func(*Encoder) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Encoder) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger.With("component", "query")
		return nil
	}
}

// NewEncoder creates an encoder that detects domains with table.
func NewEncoder(embedder ai.Embedder, table *rules.Table, opts ...Option) (*Encoder, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if table == nil {
		return nil, ErrTableRequired
	}
	e := &Encoder{
		embedder: embedder,
		table:    table,
		logger:   slog.Default().With("component", "query"),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Text returns the query text for a persona and job.
func Text(persona, job string) string {
	return strings.TrimSpace(persona) + ": " + strings.TrimSpace(job)
}

// Describe resolves everything about the query except its vector.
// Missing persona or job is a configuration error.
func (e *Encoder) Describe(persona, job string) (*core.Query, error) {
	persona = strings.TrimSpace(persona)
	job = strings.TrimSpace(job)
	if persona == "" {
		return nil, fmt.Errorf("%w: %w", core.ErrConfiguration, core.ErrMissingPersona)
	}
	if job == "" {
		return nil, fmt.Errorf("%w: %w", core.ErrConfiguration, core.ErrMissingJob)
	}

	text := Text(persona, job)
	domain := e.table.Detect(text)
	var boost []string
	if d, ok := e.table.Domain(domain); ok {
		boost = d.BoostTerms
	}

	return &core.Query{
		Persona: persona,
		Job:     job,
		Text:    text,
		Domain:  domain,
		Terms:   terms.Union(terms.Significant(text), boost),
	}, nil
}

// Encode resolves the query and embeds its text.
func (e *Encoder) Encode(ctx context.Context, persona, job string) (*core.Query, error) {
	q, err := e.Describe(persona, job)
	if err != nil {
		return nil, err
	}

	vector, err := e.embedder.EmbedText(ctx, q.Text)
	if err != nil {
		e.logger.Error("failed to embed query", "err", err)
		return nil, fmt.Errorf("%w: query: %w", core.ErrEmbeddingUnavailable, err)
	}
	q.Vector = vector

	e.logger.Info("encoded query", "domain", q.Domain, "terms", len(q.Terms))
	return q, nil
}

// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package docsift

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/docsift/ai"
	"github.com/poiesic/docsift/ai/ollama"
	"github.com/poiesic/docsift/ai/openai"
	"github.com/poiesic/docsift/config"
	"github.com/poiesic/docsift/core"
	"github.com/poiesic/docsift/layout"
	"github.com/poiesic/docsift/outline"
	"github.com/poiesic/docsift/pipeline"
	"github.com/poiesic/docsift/ranking"
	"github.com/poiesic/docsift/rules"
	"github.com/poiesic/docsift/selection"
	"github.com/poiesic/docsift/source"
	"github.com/poiesic/docsift/storage"
	"github.com/poiesic/docsift/storage/badger"
)

// Engine owns the long-lived pieces of a docsift process: the guarded
// embedder, the rule table, and the optional cache and run history.
type Engine struct {
	settings *config.Settings
	table    *rules.Table
	embedder ai.Embedder
	backend  *badger.Backend
	vectors  storage.VectorRepository
	runs     storage.RunRepository
	logger   *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	embedder ai.Embedder
	table    *rules.Table
	logger   *slog.Logger
}

// WithEmbedder uses embedder instead of building a client from the AI settings.
// The embedder is still wrapped by the guard and the cache.
func WithEmbedder(embedder ai.Embedder) EngineOption {
	return func(o *engineOptions) {
		o.embedder = embedder
	}
}

// WithRuleTable uses table instead of the settings' rules file or the built-in table.
func WithRuleTable(table *rules.Table) EngineOption {
	return func(o *engineOptions) {
		o.table = table
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// NewEngine builds an engine from settings. Nil settings means the defaults.
func NewEngine(settings *config.Settings, opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{}
	for _, opt := range opts {
		opt(options)
	}
	if settings == nil {
		settings = config.DefaultSettings()
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	logger := options.logger
	if logger == nil {
		logger = slog.Default()
	}

	table := options.table
	if table == nil {
		var err error
		if table, err = loadTable(settings.RulesFile); err != nil {
			return nil, err
		}
	}

	inner := options.embedder
	if inner == nil {
		var err error
		if inner, err = newProviderEmbedder(settings.AI); err != nil {
			return nil, err
		}
	}
	guarded, err := ai.NewGuardedEmbedder(inner, settings.AI)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		settings: settings,
		table:    table,
		embedder: guarded,
		logger:   logger,
	}

	if settings.CacheDir != "" {
		if err := e.openCache(settings.CacheDir); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func loadTable(path string) (*rules.Table, error) {
	if path == "" {
		return rules.DefaultTable(), nil
	}
	return rules.LoadTable(path)
}

func newProviderEmbedder(cfg *ai.Config) (ai.Embedder, error) {
	switch cfg.Provider {
	case ai.ProviderOllama:
		return ollama.NewEmbedder(cfg)
	case ai.ProviderOpenAI:
		return openai.NewEmbedder(cfg)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

func (e *Engine) openCache(dir string) error {
	backend, err := badger.OpenBackend(dir, false)
	if err != nil {
		return err
	}

	vectors, err := badger.NewVectorRepository(backend)
	if err != nil {
		backend.Close()
		return err
	}

	runs, err := badger.NewRunRepository(backend)
	if err != nil {
		vectors.Close()
		backend.Close()
		return err
	}

	cached, err := ai.NewCachingEmbedder(e.embedder, vectors, e.settings.AI.Model)
	if err != nil {
		runs.Close()
		vectors.Close()
		backend.Close()
		return err
	}

	e.backend = backend
	e.vectors = vectors
	e.runs = runs
	e.embedder = cached
	return nil
}

func (e *Engine) Close() error {
	if e.backend == nil {
		return nil
	}
	if err := e.runs.Close(); err != nil {
		e.logger.Error("error closing run repository", "err", err)
		return err
	}
	if err := e.vectors.Close(); err != nil {
		e.logger.Error("error closing vector repository", "err", err)
		return err
	}
	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (e *Engine) Settings() *config.Settings {
	return e.settings
}

func (e *Engine) Table() *rules.Table {
	return e.table
}

func (e *Engine) Embedder() ai.Embedder {
	return e.embedder
}

// Runs returns the run history, or nil when no cache directory is set.
func (e *Engine) Runs() storage.RunRepository {
	return e.runs
}

// Vectors returns the embedding cache, or nil when no cache directory is set.
func (e *Engine) Vectors() storage.VectorRepository {
	return e.vectors
}

// NewPipeline builds a pipeline over src with every stage configured from
// the engine's settings. Extra options are applied last.
func (e *Engine) NewPipeline(src source.Source, opts ...pipeline.Option) (*pipeline.Pipeline, error) {
	analyzer, err := e.newAnalyzer()
	if err != nil {
		return nil, err
	}
	builder, err := e.newBuilder()
	if err != nil {
		return nil, err
	}
	ranker, err := ranking.NewRanker(e.embedder, ranking.WithConfig(e.settings.Ranking), ranking.WithLogger(e.logger))
	if err != nil {
		return nil, err
	}
	selector, err := selection.NewSelector(selection.WithConfig(e.settings.Selection), selection.WithLogger(e.logger))
	if err != nil {
		return nil, err
	}

	base := []pipeline.Option{
		pipeline.WithPoolSize(e.settings.PoolSize),
		pipeline.WithLogger(e.logger),
		pipeline.WithAnalyzer(analyzer),
		pipeline.WithBuilder(builder),
		pipeline.WithRanker(ranker),
		pipeline.WithSelector(selector),
	}
	if e.runs != nil {
		base = append(base, pipeline.WithRunRepository(e.runs))
	}
	return pipeline.NewPipeline(src, e.embedder, e.table, append(base, opts...)...)
}

// Outline loads one document and returns its recovered sections without
// ranking them.
func (e *Engine) Outline(ctx context.Context, src source.Source, id string) ([]*core.Section, error) {
	doc, err := src.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	analyzer, err := e.newAnalyzer()
	if err != nil {
		return nil, err
	}
	builder, err := e.newBuilder()
	if err != nil {
		return nil, err
	}
	classified, baseline := analyzer.Classify(doc.Runs)
	return builder.Build(id, doc.Title, classified, baseline), nil
}

func (e *Engine) newAnalyzer() (*layout.Analyzer, error) {
	return layout.NewAnalyzer(layout.WithConfig(e.settings.Layout), layout.WithLogger(e.logger))
}

func (e *Engine) newBuilder() (*outline.Builder, error) {
	return outline.NewBuilder(outline.WithConfig(e.settings.Outline), outline.WithLogger(e.logger))
}

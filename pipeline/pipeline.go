package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/docsift/ai"
	"github.com/poiesic/docsift/core"
	"github.com/poiesic/docsift/layout"
	"github.com/poiesic/docsift/outline"
	"github.com/poiesic/docsift/query"
	"github.com/poiesic/docsift/ranking"
	"github.com/poiesic/docsift/rules"
	"github.com/poiesic/docsift/selection"
	"github.com/poiesic/docsift/source"
	"github.com/poiesic/docsift/storage"
)

// Request is one persona and job to answer from a set of documents.
// An empty Documents list means every document the source offers.
type Request struct {
	Persona   string
	Job       string
	Documents []string
}

// Run is the outcome of one Execute call.
type Run struct {
	ID        string
	Query     *core.Query
	Ranked    []core.ScoredSection // Every section in final rank order
	Selected  []selection.Selected
	Result    *core.Result
	StartedAt time.Time
	Elapsed   time.Duration
}

// Record summarizes the run for the run history.
func (r *Run) Record() *core.RunRecord {
	rec := &core.RunRecord{
		ID:        r.ID,
		Persona:   r.Query.Persona,
		Job:       r.Query.Job,
		Domain:    r.Query.Domain,
		Policy:    r.Result.Policy,
		StartedAt: r.StartedAt,
		Elapsed:   r.Elapsed,
		Documents: len(r.Result.Documents),
		Selected:  len(r.Selected),
	}
	for _, d := range r.Result.Documents {
		if d.Status == core.StatusFailed {
			rec.Failed++
		}
	}
	return rec
}

// Pipeline wires the relevance stages together.
// A Pipeline may run any number of requests, one after another or concurrently.
type Pipeline struct {
	source   source.Source
	analyzer *layout.Analyzer
	builder  *outline.Builder
	encoder  *query.Encoder
	ranker   *ranking.Ranker
	filter   *rules.Filter
	selector *selection.Selector
	runs     storage.RunRepository
	pool     *ants.Pool
	monitor  Monitor
	logger   *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets how many documents are processed at once.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if p.pool != nil {
			p.pool.Release()
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithMonitor installs hooks that observe each run.
func WithMonitor(monitor Monitor) Option {
	return func(p *Pipeline) error {
		if monitor == nil {
			monitor = &noopMonitor{}
		}
		p.monitor = monitor
		return nil
	}
}

// WithRunRepository records a summary of every completed run.
func WithRunRepository(runs storage.RunRepository) Option {
	return func(p *Pipeline) error {
		p.runs = runs
		return nil
	}
}

// WithAnalyzer replaces the default layout analyzer.
func WithAnalyzer(analyzer *layout.Analyzer) Option {
	return func(p *Pipeline) error {
		if analyzer != nil {
			p.analyzer = analyzer
		}
		return nil
	}
}

// WithBuilder replaces the default section builder.
func WithBuilder(builder *outline.Builder) Option {
	return func(p *Pipeline) error {
		if builder != nil {
			p.builder = builder
		}
		return nil
	}
}

// WithRanker replaces the default semantic ranker.
func WithRanker(ranker *ranking.Ranker) Option {
	return func(p *Pipeline) error {
		if ranker != nil {
			p.ranker = ranker
		}
		return nil
	}
}

// WithSelector replaces the default paragraph selector.
func WithSelector(selector *selection.Selector) Option {
	return func(p *Pipeline) error {
		if selector != nil {
			p.selector = selector
		}
		return nil
	}
}

// NewPipeline creates a pipeline reading from src, embedding with embedder
// and adjusting scores with table.
func NewPipeline(src source.Source, embedder ai.Embedder, table *rules.Table, opts ...Option) (*Pipeline, error) {
	if src == nil {
		return nil, ErrSourceRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if table == nil {
		return nil, ErrTableRequired
	}

	p := &Pipeline{
		source:  src,
		monitor: &noopMonitor{},
		logger:  slog.Default(),
	}

	var err error
	if p.analyzer, err = layout.NewAnalyzer(); err != nil {
		return nil, err
	}
	if p.builder, err = outline.NewBuilder(); err != nil {
		return nil, err
	}
	if p.ranker, err = ranking.NewRanker(embedder); err != nil {
		return nil, err
	}
	if p.selector, err = selection.NewSelector(); err != nil {
		return nil, err
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	if p.pool, err = ants.NewPool(poolSize); err != nil {
		return nil, err
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	// Built after options so they share the final logger.
	if p.encoder, err = query.NewEncoder(embedder, table, query.WithLogger(p.logger)); err != nil {
		p.Release()
		return nil, err
	}
	if p.filter, err = rules.NewFilter(table, rules.WithLogger(p.logger)); err != nil {
		p.Release()
		return nil, err
	}

	return p, nil
}

// Release stops the worker pool.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

// Encoder exposes the query encoder, mainly so callers can describe a
// query without running it.
func (p *Pipeline) Encoder() *query.Encoder {
	return p.encoder
}

// Execute answers req. It fails only when the query cannot be formed, the
// document list cannot be read, or ctx is cancelled; per-document problems,
// including an unavailable query embedding, are reported in the result.
func (p *Pipeline) Execute(ctx context.Context, req Request) (*Run, error) {
	started := time.Now().UTC()
	runID := uuid.NewString()
	logger := p.logger.With("component", "pipeline", "run", runID)

	q, queryErr := p.encoder.Encode(ctx, req.Persona, req.Job)
	if queryErr != nil {
		if !errors.Is(queryErr, core.ErrEmbeddingUnavailable) || ctx.Err() != nil {
			return nil, queryErr
		}
		// Documents with content are reported failed with queryErr.
		logger.Error("query embedding unavailable", "err", queryErr)
		var err error
		if q, err = p.encoder.Describe(req.Persona, req.Job); err != nil {
			return nil, err
		}
	}

	ids := req.Documents
	if len(ids) == 0 {
		var err error
		if ids, err = p.source.Documents(ctx); err != nil {
			return nil, err
		}
	}
	ids = dedupe(ids)

	logger.Info("run started", "domain", q.Domain, "documents", len(ids))
	p.monitor.Start(runID, q, ids)

	outcomes := make([]documentOutcome, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					err := fmt.Errorf("%w: %v", ErrDocumentPanic, r)
					logger.Error("document processing panicked", "document", id, "panic", r)
					outcomes[i] = documentOutcome{id: id, err: err}
					p.monitor.DocumentFailed(id, err)
				}
			}()
			outcomes[i] = p.processDocument(ctx, logger, q, queryErr, id, i)
		}
		if submitErr := p.pool.Submit(task); submitErr != nil {
			wg.Done()
			logger.Error("failed to submit document", "document", id, "err", submitErr)
			outcomes[i] = documentOutcome{id: id, err: submitErr}
			p.monitor.DocumentFailed(id, submitErr)
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var all []core.ScoredSection
	for _, o := range outcomes {
		all = append(all, o.scored...)
	}
	ranked := p.filter.Apply(q, all)
	p.monitor.AfterFilter(ranked)

	selected := p.selector.Select(q, ranked)
	policy := p.selector.Config().Policy

	run := &Run{
		ID:        runID,
		Query:     q,
		Ranked:    ranked,
		Selected:  selected,
		Result:    assemble(q, policy, outcomes, ranked, selected),
		StartedAt: started,
		Elapsed:   time.Since(started),
	}
	p.monitor.Finish(run.Result)

	if p.runs != nil {
		if err := p.runs.AddRun(ctx, run.Record()); err != nil {
			logger.Warn("failed to record run", "err", err)
		}
	}

	logger.Info("run finished", "selected", len(selected), "elapsed", run.Elapsed)
	return run, nil
}

type documentOutcome struct {
	id       string
	scored   []core.ScoredSection
	empty    bool
	unranked int
	err      error
}

func (p *Pipeline) processDocument(ctx context.Context, logger *slog.Logger, q *core.Query, queryErr error, id string, order int) documentOutcome {
	out := documentOutcome{id: id}
	fail := func(err error) documentOutcome {
		logger.Warn("document failed", "document", id, "err", err)
		out.err = err
		p.monitor.DocumentFailed(id, err)
		return out
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	doc, err := p.source.Load(ctx, id)
	if err != nil {
		return fail(err)
	}
	p.monitor.DocumentLoaded(id, len(doc.Runs))

	classified, baseline := p.analyzer.Classify(doc.Runs)
	sections := p.builder.Build(id, doc.Title, classified, baseline)
	for _, s := range sections {
		if err := core.ValidateSection(s); err != nil {
			return fail(err)
		}
	}
	if len(sections) == 0 {
		logger.Info("document has no content", "document", id)
		out.empty = true
		p.monitor.DocumentRanked(id, nil)
		return out
	}

	if queryErr != nil {
		return fail(queryErr)
	}

	scored, err := p.ranker.Rank(ctx, q, sections, order)
	if err != nil {
		return fail(err)
	}
	for _, s := range scored {
		if s.Unranked {
			out.unranked++
		}
	}
	out.scored = scored
	logger.Debug("document ranked", "document", id, "sections", len(sections), "unranked", out.unranked)
	p.monitor.DocumentRanked(id, scored)
	return out
}

// assemble builds the per-document result. Under the per-document policy
// ranks restart at 1 within each document.
func assemble(q *core.Query, policy selection.Policy, outcomes []documentOutcome, ranked []core.ScoredSection, selected []selection.Selected) *core.Result {
	rankOf := make(map[*core.Section]int, len(ranked))
	perDoc := make(map[string]int)
	for _, s := range ranked {
		if policy == selection.PolicyPerDocument {
			perDoc[s.Section.DocumentID]++
			rankOf[s.Section] = perDoc[s.Section.DocumentID]
		} else {
			rankOf[s.Section] = s.Rank
		}
	}

	byDoc := make(map[string][]core.ResultSection)
	for _, sel := range selected {
		sec := sel.Section.Section
		included := sel.Included()
		paragraphs := make([]core.ResultParagraph, 0, len(included))
		for _, para := range included {
			paragraphs = append(paragraphs, core.ResultParagraph{Text: para.Text, PageNumber: para.Page})
		}
		byDoc[sec.DocumentID] = append(byDoc[sec.DocumentID], core.ResultSection{
			DocumentID: sec.DocumentID,
			Rank:       rankOf[sec],
			Heading:    sec.Heading,
			PageNumber: sec.Page,
			Score:      sel.Section.FinalScore,
			Paragraphs: paragraphs,
		})
	}

	result := &core.Result{
		Persona:   q.Persona,
		Job:       q.Job,
		Domain:    q.Domain,
		Policy:    string(policy),
		Documents: make([]core.DocumentResult, 0, len(outcomes)),
	}
	for _, o := range outcomes {
		dr := core.DocumentResult{
			DocumentID: o.id,
			Status:     core.StatusOK,
			Sections:   byDoc[o.id],
		}
		switch {
		case o.err != nil:
			dr.Status = core.StatusFailed
			dr.Error = o.err.Error()
		case o.empty:
			dr.Status = core.StatusEmpty
			dr.Warnings = append(dr.Warnings, core.ErrEmptyContent.Error())
		}
		if o.unranked > 0 {
			dr.Warnings = append(dr.Warnings, fmt.Sprintf("%d section(s) unranked", o.unranked))
		}
		if dr.Sections == nil {
			dr.Sections = []core.ResultSection{}
		}
		result.Documents = append(result.Documents, dr)
	}
	return result
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

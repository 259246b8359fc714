package pipeline

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/poiesic/docsift/core"
)

// ProgressMonitor prints document progress to a writer, typically os.Stderr.
type ProgressMonitor struct {
	writer    io.Writer
	total     int
	done      int
	failed    int
	startTime time.Time
	started   bool
	mu        sync.Mutex
}

var _ Monitor = (*ProgressMonitor)(nil)

// NewProgressMonitor creates a monitor writing to writer.
func NewProgressMonitor(writer io.Writer) *ProgressMonitor {
	return &ProgressMonitor{writer: writer}
}

func (p *ProgressMonitor) Start(_ string, _ *core.Query, documents []string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.startTime = time.Now()
	p.started = true
	p.total = len(documents)
	p.done = 0
	p.failed = 0
}

func (p *ProgressMonitor) DocumentLoaded(_ string, _ int) {}

func (p *ProgressMonitor) DocumentRanked(_ string, _ []core.ScoredSection) {
	p.advance(false)
}

func (p *ProgressMonitor) DocumentFailed(_ string, _ error) {
	p.advance(true)
}

func (p *ProgressMonitor) AfterFilter(_ []core.ScoredSection) {}

// Finish prints the final line followed by a newline.
func (p *ProgressMonitor) Finish(_ *core.Result) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}
	p.report()
	fmt.Fprintln(p.writer)
	p.started = false
}

// Elapsed returns the time since Start, or zero before it.
func (p *ProgressMonitor) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return 0
	}
	return time.Since(p.startTime)
}

func (p *ProgressMonitor) advance(failed bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}
	if p.done < p.total {
		p.done++
	}
	if failed {
		p.failed++
	}
	p.report()
}

// report prints the current progress. Must be called with lock held.
func (p *ProgressMonitor) report() {
	percentage := 0.0
	if p.total > 0 {
		percentage = float64(p.done) / float64(p.total) * 100.0
	}
	fmt.Fprintf(p.writer, "\rDocuments: %d/%d (%.1f%%), %d failed, %s",
		p.done, p.total, percentage, p.failed, time.Since(p.startTime).Round(time.Millisecond))
}

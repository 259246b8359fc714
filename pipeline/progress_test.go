package pipeline

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressMonitor(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressMonitor(&buf)

	p.Start("run", nil, []string{"a.md", "b.md", "c.md", "d.md"})
	p.DocumentRanked("a.md", nil)
	assert.Contains(t, buf.String(), "Documents: 1/4 (25.0%), 0 failed")

	p.DocumentFailed("b.md", errors.New("bad"))
	assert.Contains(t, buf.String(), "Documents: 2/4 (50.0%), 1 failed")

	p.Finish(nil)
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
	assert.Zero(t, p.Elapsed())
}

func TestProgressMonitor_NotStarted(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressMonitor(&buf)

	p.DocumentRanked("a.md", nil)
	p.Finish(nil)
	assert.Empty(t, buf.String())
	assert.Zero(t, p.Elapsed())
}

func TestProgressMonitor_CapsAtTotal(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressMonitor(&buf)

	p.Start("run", nil, []string{"a.md"})
	p.DocumentRanked("a.md", nil)
	p.DocumentRanked("a.md", nil)
	assert.NotContains(t, buf.String(), "2/1")
	assert.Greater(t, p.Elapsed().Nanoseconds(), int64(-1))
}

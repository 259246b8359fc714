package source

import (
	"context"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/poiesic/docsift/core"
)

const (
	markdownBodySize   = 10.0
	markdownLineHeight = 12.0
)

// Heading sizes by level. Levels five and six stay above the default
// heading ratio so they still classify as headings.
var markdownHeadingSizes = [...]float64{0, 24, 20, 16, 14, 12, 12}

// MarkdownReader lays out markdown blocks as runs. Headings get larger
// synthetic font sizes, each block is separated by a blank line, and a
// thematic break starts a new page.
type MarkdownReader struct{}

func (MarkdownReader) Read(ctx context.Context, id string, data []byte) (*Document, error) {
	root := goldmark.New().Parser().Parse(text.NewReader(data))

	l := &mdLayout{src: data, page: 1}
	doc := &Document{ID: id}
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok && h.Level == 1 && doc.Title == "" && len(l.runs) == 0 {
			doc.Title = inlineText(h, data)
		}
		l.block(n)
	}
	doc.Runs = l.runs
	return doc, nil
}

type mdLayout struct {
	src  []byte
	page int
	y    float64
	runs []core.TextRun
}

func (l *mdLayout) emit(s string, size float64, bold bool) {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return
	}
	l.y += markdownLineHeight
	l.runs = append(l.runs, core.TextRun{Text: s, FontSize: size, Bold: bold, Page: l.page, Y: l.y})
}

// gap leaves a blank line so the next block starts a new passage.
func (l *mdLayout) gap() {
	l.y += 2 * markdownLineHeight
}

func (l *mdLayout) block(n ast.Node) {
	switch v := n.(type) {
	case *ast.Heading:
		level := min(max(v.Level, 1), 6)
		l.gap()
		l.emit(inlineText(v, l.src), markdownHeadingSizes[level], true)
	case *ast.Paragraph, *ast.TextBlock:
		l.emit(inlineText(v, l.src), markdownBodySize, strongOnly(v))
		l.gap()
	case *ast.List:
		for item := v.FirstChild(); item != nil; item = item.NextSibling() {
			for c := item.FirstChild(); c != nil; c = c.NextSibling() {
				if _, nested := c.(*ast.List); nested {
					l.block(c)
					continue
				}
				l.emit(inlineText(c, l.src), markdownBodySize, false)
			}
		}
		l.gap()
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		lines := v.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			l.emit(string(seg.Value(l.src)), markdownBodySize, false)
		}
		l.gap()
	case *ast.ThematicBreak:
		l.page++
		l.y = 0
	default:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			l.block(c)
		}
	}
}

// strongOnly reports whether a paragraph is a single **strong** span, the
// usual way plain markdown fakes a bold heading.
func strongOnly(n ast.Node) bool {
	if n.ChildCount() != 1 {
		return false
	}
	e, ok := n.FirstChild().(*ast.Emphasis)
	return ok && e.Level == 2
}

func inlineText(n ast.Node, src []byte) string {
	var b strings.Builder
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch v := c.(type) {
			case *ast.Text:
				b.Write(v.Segment.Value(src))
				if v.SoftLineBreak() || v.HardLineBreak() {
					b.WriteByte(' ')
				}
			case *ast.String:
				b.Write(v.Value)
			default:
				walk(c)
			}
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}

package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/poiesic/docsift/core"
)

// defaultPageHeight is US Letter in points, used when a page has no MediaBox.
const defaultPageHeight = 792.0

// ErrMalformedPDF is returned when the PDF parser gives up on broken object syntax.
var ErrMalformedPDF = errors.New("malformed pdf")

// PDFReader extracts one run per font change within each text row.
type PDFReader struct{}

// Read parses data as a PDF. The parser panics on malformed objects; the
// panic is returned as ErrMalformedPDF wrapped with core.ErrSourceRead.
func (PDFReader) Read(ctx context.Context, id string, data []byte) (doc *Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("%w: %w: %v", core.ErrSourceRead, ErrMalformedPDF, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	doc = &Document{ID: id, Title: pdfTitle(r)}
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return nil, err
		}
		doc.Runs = append(doc.Runs, rowRuns(rows, i, pageHeight(page))...)
	}
	return doc, nil
}

func pdfTitle(r *pdf.Reader) string {
	defer func() {
		// Malformed Info dictionaries panic inside the library.
		_ = recover()
	}()
	return strings.TrimSpace(r.Trailer().Key("Info").Key("Title").Text())
}

func pageHeight(p pdf.Page) float64 {
	box := p.V.Key("MediaBox")
	if box.Kind() != pdf.Array || box.Len() < 4 {
		return defaultPageHeight
	}
	h := box.Index(3).Float64() - box.Index(1).Float64()
	if h <= 0 {
		return defaultPageHeight
	}
	return h
}

// rowRuns turns rows of glyphs into runs, top of page first. Adjacent glyphs
// sharing a font and size are merged, with a space inserted across gaps
// wider than a fifth of the font size.
func rowRuns(rows pdf.Rows, pageNum int, height float64) []core.TextRun {
	sorted := slices.Clone(rows)
	slices.SortStableFunc(sorted, func(a, b *pdf.Row) int {
		switch {
		case a.Position > b.Position:
			return -1
		case a.Position < b.Position:
			return 1
		}
		return 0
	})

	var runs []core.TextRun
	for _, row := range sorted {
		var (
			b       strings.Builder
			font    string
			size    float64
			y       float64
			lastEnd float64
			open    bool
		)
		flush := func() {
			if !open {
				return
			}
			text := strings.Join(strings.Fields(b.String()), " ")
			if text != "" {
				runs = append(runs, core.TextRun{
					Text:     text,
					FontSize: math.Round(size*10) / 10,
					Bold:     isBoldFont(font),
					Page:     pageNum,
					Y:        height - y,
				})
			}
			b.Reset()
			open = false
		}

		for _, t := range row.Content {
			if open && (t.Font != font || t.FontSize != size) {
				flush()
			}
			if !open {
				font, size, y = t.Font, t.FontSize, t.Y
				open = true
			} else if t.X-lastEnd > size/5 {
				b.WriteByte(' ')
			}
			b.WriteString(t.S)
			lastEnd = t.X + t.W
		}
		flush()
	}
	return runs
}

func isBoldFont(name string) bool {
	n := strings.ToLower(name)
	for _, marker := range []string{"bold", "black", "heavy", "semibold", "demi"} {
		if strings.Contains(n, marker) {
			return true
		}
	}
	return false
}

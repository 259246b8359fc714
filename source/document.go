package source

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/poiesic/docsift/core"
)

// ErrUnsupportedFormat is returned for a document ID with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// Document is one loaded document.
type Document struct {
	ID    string
	Title string
	Runs  []core.TextRun
}

// Reader decodes one document format.
type Reader interface {
	Read(ctx context.Context, id string, data []byte) (*Document, error)
}

var readers = map[string]Reader{
	".pdf":      PDFReader{},
	".md":       MarkdownReader{},
	".markdown": MarkdownReader{},
	".json":     RunsReader{},
}

// Supported reports whether id has an extension a Reader exists for.
func Supported(id string) bool {
	_, ok := readers[strings.ToLower(filepath.Ext(id))]
	return ok
}

// Decode picks a Reader by the extension of id and decodes data.
// Failures wrap core.ErrSourceRead.
func Decode(ctx context.Context, id string, data []byte) (*Document, error) {
	r, ok := readers[strings.ToLower(filepath.Ext(id))]
	if !ok {
		return nil, fmt.Errorf("%w: %w: %s", core.ErrSourceRead, ErrUnsupportedFormat, id)
	}
	doc, err := r.Read(ctx, id, data)
	if errors.Is(err, core.ErrSourceRead) {
		return nil, fmt.Errorf("%s: %w", id, err)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", core.ErrSourceRead, id, err)
	}
	if strings.TrimSpace(doc.Title) == "" {
		doc.Title = titleFromID(id)
	}
	return doc, nil
}

// titleFromID strips directories and the extension from id.
func titleFromID(id string) string {
	base := filepath.Base(id)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

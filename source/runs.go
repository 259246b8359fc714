package source

import (
	"context"
	"encoding/json"

	"github.com/poiesic/docsift/core"
)

// RunsReader decodes pre-extracted runs:
//
//	{"title": "...", "runs": [{"text": "...", "font_size": 12, "bold": true, "page": 1, "y": 72}]}
type RunsReader struct{}

type runsFile struct {
	Title string    `json:"title"`
	Runs  []runJSON `json:"runs"`
}

type runJSON struct {
	Text     string  `json:"text"`
	FontSize float64 `json:"font_size"`
	Bold     bool    `json:"bold"`
	Page     int     `json:"page"`
	Y        float64 `json:"y"`
}

func (RunsReader) Read(ctx context.Context, id string, data []byte) (*Document, error) {
	var f runsFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	runs := make([]core.TextRun, len(f.Runs))
	for i, r := range f.Runs {
		page := r.Page
		if page < 1 {
			page = 1
		}
		runs[i] = core.TextRun{Text: r.Text, FontSize: r.FontSize, Bold: r.Bold, Page: page, Y: r.Y}
	}
	return &Document{ID: id, Title: f.Title, Runs: runs}, nil
}

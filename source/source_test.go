package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/docsift/core"
)

const fixtureJSON = `{
  "title": "Menu",
  "runs": [
    {"text": "Dinner Mains", "font_size": 16, "bold": true, "page": 1, "y": 40},
    {"text": "Lentil stew with herbs.", "font_size": 10, "page": 1, "y": 60},
    {"text": "Orphan", "font_size": 10}
  ]
}`

func TestRunsReader(t *testing.T) {
	doc, err := Decode(context.Background(), "menu.json", []byte(fixtureJSON))
	require.NoError(t, err)
	assert.Equal(t, "Menu", doc.Title)
	require.Len(t, doc.Runs, 3)
	assert.Equal(t, core.TextRun{Text: "Dinner Mains", FontSize: 16, Bold: true, Page: 1, Y: 40}, doc.Runs[0])
	assert.Equal(t, 1, doc.Runs[2].Page, "missing page defaults to 1")
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		data    string
		wantErr error
	}{
		{"unsupported extension", "notes.docx", "x", ErrUnsupportedFormat},
		{"bad json", "runs.json", "{", core.ErrSourceRead},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(context.Background(), tt.id, []byte(tt.data))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, core.ErrSourceRead)
		})
	}
}

func TestDecode_TitleFallback(t *testing.T) {
	doc, err := Decode(context.Background(), "dir/Weekend Plan.json", []byte(`{"runs": []}`))
	require.NoError(t, err)
	assert.Equal(t, "Weekend Plan", doc.Title)
}

func TestDirSource(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"b.md":     "# B\n\nbody\n",
		"a.json":   fixtureJSON,
		"skip.txt": "ignored",
		"C.MD":     "upper case extension",
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.md"), 0o755))

	src, err := NewDirSource(dir)
	require.NoError(t, err)

	ids, err := src.Documents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"C.MD", "a.json", "b.md"}, ids)

	doc, err := src.Load(context.Background(), "b.md")
	require.NoError(t, err)
	assert.Equal(t, "B", doc.Title)

	_, err = src.Load(context.Background(), "missing.md")
	assert.ErrorIs(t, err, core.ErrSourceRead)
}

func TestNewDirSource_Invalid(t *testing.T) {
	_, err := NewDirSource(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, core.ErrConfiguration)

	f := filepath.Join(t.TempDir(), "file.md")
	require.NoError(t, os.WriteFile(f, nil, 0o644))
	_, err = NewDirSource(f)
	assert.ErrorIs(t, err, core.ErrConfiguration)
}

func TestMemorySource(t *testing.T) {
	src := NewMemorySource()
	src.Add("z.md", []byte("z"))
	src.Add("a.md", []byte("a"))
	src.Add("ignored.bin", []byte("?"))

	ids, err := src.Documents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a.md", "z.md"}, ids)

	doc, err := src.Load(context.Background(), "a.md")
	require.NoError(t, err)
	require.Len(t, doc.Runs, 1)

	_, err = src.Load(context.Background(), "missing.md")
	assert.ErrorIs(t, err, core.ErrSourceRead)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

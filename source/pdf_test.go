package source

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/poiesic/docsift/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPDF writes a one-page PDF with a bold heading and a body line.
func buildPDF(t *testing.T, title string) []byte {
	t.Helper()
	content := "BT /F1 18 Tf 72 720 Td (Getting Started) Tj ET\n" +
		"BT /F2 10 Tf 72 690 Td (Install the package first.) Tj ET\n"

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] " +
			"/Resources << /Font << /F1 5 0 R /F2 6 0 R >> >> /Contents 4 0 R >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", len(content), content),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica-Bold >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
		fmt.Sprintf("<< /Title (%s) >>", title),
	}
	return assemblePDF(objects)
}

// brokenPDF has a page tree whose Kids array is never closed.
func brokenPDF() []byte {
	return assemblePDF([]string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R>>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>",
		"<< /Length 0 >>\nstream\nendstream",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
		"<< /Title (Broken) >>",
	})
}

// assemblePDF lays out objects 1..n with an exact xref table. Object 7 is the Info dictionary.
func assemblePDF(objects []string) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R /Info 7 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(objects)+1, xref)
	return buf.Bytes()
}

func TestPDFReader_Read(t *testing.T) {
	doc, err := PDFReader{}.Read(context.Background(), "guide.pdf", buildPDF(t, "Setup Guide"))
	require.NoError(t, err)

	assert.Equal(t, "Setup Guide", doc.Title)
	require.Len(t, doc.Runs, 2)

	heading, body := doc.Runs[0], doc.Runs[1]
	assert.Equal(t, "Getting Started", heading.Text)
	assert.True(t, heading.Bold)
	assert.Equal(t, 18.0, heading.FontSize)
	assert.Equal(t, 1, heading.Page)
	assert.InDelta(t, 72.0, heading.Y, 0.01)

	assert.Equal(t, "Install the package first.", body.Text)
	assert.False(t, body.Bold)
	assert.Equal(t, 10.0, body.FontSize)
	assert.Greater(t, body.Y, heading.Y)
}

func TestPDFReader_Corrupt(t *testing.T) {
	_, err := Decode(context.Background(), "broken.pdf", []byte("not a pdf"))
	require.Error(t, err)
}

func TestIsBoldFont(t *testing.T) {
	tests := []struct {
		font string
		want bool
	}{
		{"Helvetica", false},
		{"Helvetica-Bold", true},
		{"ABCDEF+OpenSans-SemiBold", true},
		{"Arial-BlackItalic", true},
		{"TimesNewRoman", false},
	}
	for _, tt := range tests {
		t.Run(tt.font, func(t *testing.T) {
			assert.Equal(t, tt.want, isBoldFont(tt.font))
		})
	}
}

func TestPDFReader_MalformedObjects(t *testing.T) {
	var (
		doc *Document
		err error
	)
	require.NotPanics(t, func() {
		doc, err = PDFReader{}.Read(context.Background(), "broken.pdf", brokenPDF())
	})
	require.Error(t, err)
	assert.Nil(t, doc)
}

func TestDecode_MalformedPDF(t *testing.T) {
	_, err := Decode(context.Background(), "broken.pdf", brokenPDF())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrSourceRead)
}

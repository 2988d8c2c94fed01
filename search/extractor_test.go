package search

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writePDF assembles a minimal classic-xref PDF with one Helvetica page per
// entry in pageTexts. An empty entry produces a page whose content stream
// draws nothing, which is how a scanned page looks to the text layer. Texts
// must stay ASCII without parentheses or backslashes.
func writePDF(t *testing.T, pageTexts ...string) string {
	t.Helper()
	return writePDFTo(t, filepath.Join(t.TempDir(), "fixture.pdf"), pageTexts...)
}

func writePDFTo(t *testing.T, path string, pageTexts ...string) string {
	t.Helper()

	n := len(pageTexts)
	kids := make([]string, 0, n)
	for k := range pageTexts {
		kids = append(kids, fmt.Sprintf("%d 0 R", 4+2*k))
	}

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), n),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	}
	for k, text := range pageTexts {
		objects = append(objects, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>",
			5+2*k,
		))
		var stream string
		if text != "" {
			stream = fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		}
		objects = append(objects, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, body := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestPDFExtractReadsNativeText(t *testing.T) {
	t.Parallel()

	path := writePDF(t, "Hello invoice total due", "", "closing notes")

	var units []Unit
	extractor := &PDFExtractor{}
	hasText, err := extractor.Extract(context.Background(), path, func(u Unit) bool {
		units = append(units, u)
		return true
	})
	require.NoError(t, err)
	assert.True(t, hasText)

	require.Len(t, units, 3)
	for i, u := range units {
		assert.Equal(t, Locator{Kind: UnitPage, Index: i}, u.Loc)
	}
	assert.Contains(t, Normalize(units[0].Text), "hello invoice total due")
	assert.Empty(t, strings.TrimSpace(units[1].Text))
	assert.Contains(t, Normalize(units[2].Text), "closing notes")
}

func TestPDFExtractScannedLookalike(t *testing.T) {
	t.Parallel()

	path := writePDF(t, "", "")

	visited := 0
	extractor := &PDFExtractor{}
	hasText, err := extractor.Extract(context.Background(), path, func(u Unit) bool {
		visited++
		assert.Empty(t, strings.TrimSpace(u.Text))
		return true
	})
	require.NoError(t, err)
	assert.False(t, hasText, "pages without a text layer must not count as native text")
	assert.Equal(t, 2, visited)
}

func TestPDFExtractShortCircuit(t *testing.T) {
	t.Parallel()

	path := writePDF(t, "first page", "second page", "third page")

	visited := 0
	extractor := &PDFExtractor{}
	_, err := extractor.Extract(context.Background(), path, func(Unit) bool {
		visited++
		return false
	})
	require.NoError(t, err)
	assert.Equal(t, 1, visited)
}

func TestPDFExtractGarbage(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "garbage.pdf")
	require.NoError(t, os.WriteFile(path, []byte("this is not a pdf at all"), 0o644))

	extractor := &PDFExtractor{}
	hasText, err := extractor.Extract(context.Background(), path, func(Unit) bool { return true })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open pdf")
	assert.False(t, hasText)
}

func TestPDFExtractCancelled(t *testing.T) {
	t.Parallel()

	path := writePDF(t, "some text")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	extractor := &PDFExtractor{}
	_, err := extractor.Extract(ctx, path, func(Unit) bool {
		t.Fatal("visited a page after cancellation")
		return true
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtractorRegistry(t *testing.T) {
	t.Parallel()

	reg := NewExtractorRegistry()

	pdfExt, ok := reg.Get(FormatPDF)
	require.True(t, ok)
	assert.IsType(t, &PDFExtractor{}, pdfExt)

	docxExt, ok := reg.Get(FormatDOCX)
	require.True(t, ok)
	assert.IsType(t, &DOCXExtractor{}, docxExt)

	_, ok = reg.Get(FormatKind(99))
	assert.False(t, ok)

	stub := &stubExtractor{}
	reg.Register(FormatPDF, stub)
	got, ok := reg.Get(FormatPDF)
	require.True(t, ok)
	assert.Same(t, stub, got)
}

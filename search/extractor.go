package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Extractor streams the text units of one document format.
type Extractor interface {
	// Extract visits each unit in document order until visit returns false.
	// hasText reports whether any visited unit carried non-whitespace text
	// from the document's native layer. A document that cannot be opened or
	// parsed returns an error; a well-formed PDF with no text layer returns
	// (false, nil).
	Extract(ctx context.Context, path string, visit func(Unit) bool) (hasText bool, err error)
}

// ExtractorRegistry holds the extractor for each document format.
type ExtractorRegistry struct {
	extractors map[FormatKind]Extractor
}

// NewExtractorRegistry creates a registry with the built-in extractors.
func NewExtractorRegistry() *ExtractorRegistry {
	return &ExtractorRegistry{
		extractors: map[FormatKind]Extractor{
			FormatPDF:  &PDFExtractor{},
			FormatDOCX: &DOCXExtractor{},
		},
	}
}

// Register replaces the extractor for a format.
func (r *ExtractorRegistry) Register(kind FormatKind, e Extractor) {
	r.extractors[kind] = e
}

// Get returns the extractor for a format.
func (r *ExtractorRegistry) Get(kind FormatKind) (Extractor, bool) {
	e, ok := r.extractors[kind]
	return e, ok
}

// PDFExtractor reads the native text layer of .pdf files, one unit per page.
type PDFExtractor struct{}

// Extract implements Extractor. Malformed pages contribute empty text and
// the page loop continues; only an unopenable document is an error.
func (e *PDFExtractor) Extract(ctx context.Context, path string, visit func(Unit) bool) (bool, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		if f != nil {
			f.Close() // Open hands back the file even when the reader fails
		}
		return false, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	// The library panics on some malformed cross-reference tables.
	pages := 0
	perr := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("malformed pdf: %v", r)
			}
		}()
		pages = reader.NumPage()
		return nil
	}()
	if perr != nil {
		return false, perr
	}

	hasText := false
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return hasText, err
		}
		text := pageText(reader, i)
		if !hasText && strings.TrimSpace(text) != "" {
			hasText = true
		}
		if !visit(Unit{Loc: Locator{Kind: UnitPage, Index: i - 1}, Text: text}) {
			return hasText, nil
		}
	}
	return hasText, nil
}

// pageText pulls the text of a single page, recovering from page-level
// parser panics with empty text. GetPlainText keeps the original word
// boundaries; Content().Text items are per-glyph fragments and lose them.
func pageText(reader *pdf.Reader, n int) (text string) {
	defer func() { _ = recover() }()
	page := reader.Page(n)
	if page.V.IsNull() {
		return ""
	}
	content, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return content
}

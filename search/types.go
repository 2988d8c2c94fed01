package search

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

// FormatKind identifies a supported document format.
type FormatKind int

const (
	FormatPDF FormatKind = iota
	FormatDOCX
)

func (k FormatKind) String() string {
	switch k {
	case FormatPDF:
		return "pdf"
	case FormatDOCX:
		return "docx"
	}
	return "unknown"
}

// DetectFormat maps a path to its FormatKind by extension, case-insensitively.
func DetectFormat(path string) (FormatKind, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return FormatPDF, true
	case ".docx":
		return FormatDOCX, true
	}
	return 0, false
}

// Candidate is one document queued for searching.
type Candidate struct {
	Path   string
	Format FormatKind
}

// UnitKind identifies the granularity of an extracted text unit.
type UnitKind int

const (
	UnitPage UnitKind = iota
	UnitParagraph
	UnitTableCell
)

// Locator pinpoints a text unit inside a document. Index is zero-based
// internally; String renders it one-based for display.
type Locator struct {
	Kind  UnitKind
	Index int
}

func (l Locator) String() string {
	switch l.Kind {
	case UnitPage:
		return fmt.Sprintf("page %d", l.Index+1)
	case UnitParagraph:
		return fmt.Sprintf("paragraph %d", l.Index+1)
	case UnitTableCell:
		return fmt.Sprintf("table cell %d", l.Index+1)
	}
	return fmt.Sprintf("unit %d", l.Index+1)
}

// Unit is one extracted text unit: a PDF page, a DOCX paragraph, or a DOCX
// table cell.
type Unit struct {
	Loc  Locator
	Text string
}

// Request describes one search run. Target may be a directory (every
// supported document underneath is searched, first match per document wins)
// or a single file (every matching unit is located).
type Request struct {
	Target   string
	Keyword  string
	TextOnly bool // skip optical recognition of scanned PDFs
	Workers  int  // concurrent document tasks; 0 uses the engine default
}

// FileResult is the outcome of searching one document. Exactly one is
// recorded per dispatched candidate.
type FileResult struct {
	Path     string
	Matched  bool
	Skipped  bool
	Locators []Locator // populated by exhaustive (single-file) runs
	Err      error     // cause when Skipped
}

// Summary is the terminal result of a run.
type Summary struct {
	Keyword   string
	Cancelled bool
	Total     int // candidates enumerated up front
	Completed int // tasks that recorded a result
	Skipped   int
	Matched   []string  // matched paths in arrival order
	Locators  []Locator // every matching unit, single-file runs only
}

// Unmatched is the count of completed documents with no match.
func (s *Summary) Unmatched() int {
	return s.Completed - len(s.Matched) - s.Skipped
}

// Progress reports completion as a fraction in [0, 1].
func (s *Summary) Progress() float64 {
	if s.Total == 0 {
		return 1
	}
	return float64(s.Completed) / float64(s.Total)
}

var (
	// ErrEmptyKeyword rejects requests whose keyword is empty after trimming.
	ErrEmptyKeyword = errors.New("keyword is empty")

	// ErrOpticalUnavailable is returned when a run permits optical fallback
	// but no recognition engine can serve it.
	ErrOpticalUnavailable = errors.New("optical recognition unavailable")
)

// DefaultWorkers is the document task pool size when none is configured.
func DefaultWorkers() int {
	n := runtime.NumCPU() + 4
	if n > 32 {
		n = 32
	}
	return n
}

// DefaultHeavySlots bounds concurrent optical passes when none is configured.
func DefaultHeavySlots() int {
	n := runtime.NumCPU() / 2
	if n < 1 {
		n = 1
	}
	return n
}

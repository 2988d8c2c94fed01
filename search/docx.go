package search

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
)

// DOCXExtractor reads .docx files: one unit per body paragraph, then one per
// table cell, each cell joining its paragraphs with newlines. A readable
// document always counts as having a native text layer, so scanned-image
// DOCX content is out of scope for optical fallback.
type DOCXExtractor struct{}

// Extract implements Extractor.
func (e *DOCXExtractor) Extract(ctx context.Context, path string, visit func(Unit) bool) (bool, error) {
	body, err := readDocumentBody(path)
	if err != nil {
		return false, err
	}

	// Body paragraphs first, then table cells, the order a reader of the
	// document model sees them. Table-internal paragraphs belong to their
	// cell, not to the body sequence.
	paragraphs := 0
	for _, child := range body.ChildElements() {
		if child.Tag != "p" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return true, err
		}
		unit := Unit{Loc: Locator{Kind: UnitParagraph, Index: paragraphs}, Text: paragraphText(child)}
		paragraphs++
		if !visit(unit) {
			return true, nil
		}
	}

	cells := 0
	for _, child := range body.ChildElements() {
		if child.Tag != "tbl" {
			continue
		}
		for _, row := range child.ChildElements() {
			if row.Tag != "tr" {
				continue
			}
			for _, cell := range row.ChildElements() {
				if cell.Tag != "tc" {
					continue
				}
				if err := ctx.Err(); err != nil {
					return true, err
				}
				unit := Unit{Loc: Locator{Kind: UnitTableCell, Index: cells}, Text: cellText(cell)}
				cells++
				if !visit(unit) {
					return true, nil
				}
			}
		}
	}
	return true, nil
}

// readDocumentBody opens the word/document.xml part and returns its body
// element. Tags are matched by local name, so the namespace prefix the
// producing application chose does not matter.
func readDocumentBody(path string) (*etree.Element, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open docx: %w", err)
	}
	defer zr.Close()

	var part *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			part = f
			break
		}
	}
	if part == nil {
		return nil, errors.New("docx has no word/document.xml part")
	}

	rc, err := part.Open()
	if err != nil {
		return nil, fmt.Errorf("open document part: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read document part: %w", err)
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("parse document xml: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, errors.New("document xml is empty")
	}
	for _, child := range root.ChildElements() {
		if child.Tag == "body" {
			return child, nil
		}
	}
	return nil, errors.New("document xml has no body")
}

// paragraphText concatenates the runs of one paragraph. Tabs and breaks
// become whitespace so adjacent runs do not fuse into one word.
func paragraphText(p *etree.Element) string {
	var b strings.Builder
	collectRuns(p, &b)
	return b.String()
}

func collectRuns(el *etree.Element, b *strings.Builder) {
	switch el.Tag {
	case "t":
		b.WriteString(el.Text())
		return
	case "tab":
		b.WriteString("\t")
		return
	case "br", "cr":
		b.WriteString("\n")
		return
	}
	for _, child := range el.ChildElements() {
		collectRuns(child, b)
	}
}

// cellText joins a cell's paragraphs with newlines, nested tables included.
func cellText(tc *etree.Element) string {
	var parts []string
	var walk func(el *etree.Element)
	walk = func(el *etree.Element) {
		for _, child := range el.ChildElements() {
			if child.Tag == "p" {
				parts = append(parts, paragraphText(child))
				continue
			}
			walk(child)
		}
	}
	walk(tc)
	return strings.Join(parts, "\n")
}

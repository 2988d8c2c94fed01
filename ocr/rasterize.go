package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"go.uber.org/zap"
)

// pageImage is one rendered page awaiting recognition.
type pageImage struct {
	index int // zero-based page
	file  string
}

// rasterize turns the PDF at path into page images under dir, returned in
// ascending page order.
func (e *Engine) rasterize(ctx context.Context, path, dir string) ([]pageImage, error) {
	if e.pdftoppm != "" {
		return e.renderPages(ctx, path, dir)
	}
	return e.harvestImages(ctx, path, dir)
}

// renderPages shells out to pdftoppm, which writes page-NN.png per page
// under the given prefix.
func (e *Engine) renderPages(ctx context.Context, path, dir string) ([]pageImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prefix := filepath.Join(dir, "page")
	cmd := exec.CommandContext(ctx, e.pdftoppm,
		"-r", strconv.Itoa(e.opts.DPI),
		"-png",
		path,
		prefix,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("pdftoppm: %v: %s", err, strings.TrimSpace(stderr.String()))
	}
	return collectPageImages(dir)
}

// harvestImages extracts the PDF's embedded images with pdfcpu instead of
// rendering. Scanned documents typically carry one full-page image per
// page, which is exactly the case this degraded path exists for.
func (e *Engine) harvestImages(ctx context.Context, path, dir string) ([]pageImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.log.Debug("harvesting embedded images", zap.String("path", path))
	if err := api.ExtractImagesFile(path, dir, nil, nil); err != nil {
		return nil, fmt.Errorf("extract embedded images: %w", err)
	}
	return collectPageImages(dir)
}

// collectPageImages lists dir's images sorted by their embedded page number.
// When no name carries a recognizable number the files are used in lexical
// order instead, so recognition still gets a deterministic page sequence.
func collectPageImages(dir string) ([]pageImage, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scratch dir: %w", err)
	}

	var pages []pageImage
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if n, ok := pageNumber(entry.Name()); ok {
			pages = append(pages, pageImage{index: n - 1, file: filepath.Join(dir, entry.Name())})
		}
	}
	if len(pages) == 0 {
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			pages = append(pages, pageImage{index: len(pages), file: filepath.Join(dir, entry.Name())})
		}
		return pages, nil
	}

	sort.Slice(pages, func(i, j int) bool {
		if pages[i].index != pages[j].index {
			return pages[i].index < pages[j].index
		}
		return pages[i].file < pages[j].file
	})
	return pages, nil
}

// pageNumber pulls the one-based page number out of a rendered image name.
// pdftoppm writes "page-07.png"; pdfcpu writes "<doc>_7_Im0.png". Scanning
// the dash- and underscore-delimited fields from the right skips resource
// names like Im0 and avoids digits that belong to the document's own name.
func pageNumber(name string) (int, bool) {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	fields := strings.FieldsFunc(base, func(r rune) bool { return r == '-' || r == '_' })
	for i := len(fields) - 1; i >= 0; i-- {
		n, err := strconv.Atoi(fields[i])
		if err != nil || n < 1 {
			continue
		}
		return n, true
	}
	return 0, false
}

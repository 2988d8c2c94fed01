// Package ocr recognizes text in scanned PDF documents by shelling out to
// local tooling: pdftoppm renders page images, tesseract reads them. When
// pdftoppm is missing the package degrades to harvesting the PDF's embedded
// page images with pdfcpu; when tesseract is missing the engine reports
// itself unavailable, which is a different outcome than recognizing nothing.
package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// ErrUnavailable marks a recognition engine that cannot run, typically a
// missing tesseract binary.
var ErrUnavailable = errors.New("recognition engine unavailable")

// Defaults for Options zero values.
const (
	DefaultLanguage    = "eng"
	DefaultDPI         = 150
	DefaultPageSegMode = 1
	DefaultEngineMode  = 3
)

// Options configures an Engine.
type Options struct {
	Tesseract   string // explicit binary path; empty looks up PATH
	Pdftoppm    string // explicit binary path; empty looks up PATH
	Language    string // tesseract language model
	DPI         int    // render resolution
	PageSegMode int    // tesseract --psm
	EngineMode  int    // tesseract --oem
}

func (o Options) withDefaults() Options {
	if o.Language == "" {
		o.Language = DefaultLanguage
	}
	if o.DPI <= 0 {
		o.DPI = DefaultDPI
	}
	if o.PageSegMode <= 0 {
		o.PageSegMode = DefaultPageSegMode
	}
	if o.EngineMode <= 0 {
		o.EngineMode = DefaultEngineMode
	}
	return o
}

// Engine recognizes scanned PDFs. Binary discovery runs once and is
// remembered for the life of the Engine; an Engine is safe for concurrent
// use.
type Engine struct {
	opts Options
	log  *zap.Logger

	probeOnce sync.Once
	probeErr  error
	tesseract string
	pdftoppm  string // empty after probing means use the embedded-image path
}

// New creates an Engine. logger may be nil.
func New(opts Options, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{opts: opts.withDefaults(), log: logger}
}

// Available probes for the external binaries. Missing tesseract makes the
// engine unavailable; missing pdftoppm alone only degrades rasterization.
func (e *Engine) Available() error {
	e.probeOnce.Do(e.probe)
	return e.probeErr
}

func (e *Engine) probe() {
	var err error
	e.tesseract, err = findBinary(e.opts.Tesseract, "tesseract")
	if err != nil {
		e.probeErr = fmt.Errorf("%w: %v", ErrUnavailable, err)
		return
	}
	e.pdftoppm, err = findBinary(e.opts.Pdftoppm, "pdftoppm")
	if err != nil {
		e.log.Warn("pdftoppm not found, degrading to embedded image extraction", zap.Error(err))
		e.pdftoppm = ""
	}
}

// findBinary resolves an external tool. An explicitly configured path that
// does not exist is an error, not a reason to fall back to PATH.
func findBinary(explicit, name string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("%s: %w", name, err)
		}
		return explicit, nil
	}
	return exec.LookPath(name)
}

// Recognize renders path's pages into a scratch directory and feeds each
// page's recognized text to visit in ascending page order, stopping early
// when visit returns false. Page indexes are zero-based. A page that fails
// recognition yields empty text and the pass continues; rasterization
// failure fails the whole document.
func (e *Engine) Recognize(ctx context.Context, path string, visit func(page int, text string) bool) error {
	if err := e.Available(); err != nil {
		return err
	}

	scratch, err := os.MkdirTemp("", "docseek-ocr-*")
	if err != nil {
		return fmt.Errorf("scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	pages, err := e.rasterize(ctx, path, scratch)
	if err != nil {
		return err
	}

	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		text, rerr := e.recognizePage(ctx, page.file)
		if rerr != nil {
			if err := ctx.Err(); err != nil {
				return err
			}
			e.log.Warn("page recognition failed",
				zap.String("path", path),
				zap.Int("page", page.index+1),
				zap.Error(rerr),
			)
			text = ""
		}
		// Images can be large at search DPI, drop each as soon as it is read.
		os.Remove(page.file)
		if !visit(page.index, text) {
			return nil
		}
	}
	return nil
}

// recognizePage runs tesseract over a single page image.
func (e *Engine) recognizePage(ctx context.Context, image string) (string, error) {
	args := []string{
		image,
		"stdout",
		"-l", e.opts.Language,
		"--psm", strconv.Itoa(e.opts.PageSegMode),
		"--oem", strconv.Itoa(e.opts.EngineMode),
	}
	cmd := exec.CommandContext(ctx, e.tesseract, args...)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract: %v: %s", err, strings.TrimSpace(stderr.String()))
	}
	return out.String(), nil
}

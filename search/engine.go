package search

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Recognizer recovers page text from documents without a native text layer.
// Implementations shell out to local tooling, so availability is a runtime
// question, probed once per run before any task is dispatched.
type Recognizer interface {
	// Available reports whether the engine can run at all.
	Available() error
	// Recognize visits recognized page text in ascending page order until
	// visit returns false. Page indexes are zero-based. A page that cannot
	// be recognized yields empty text; only document-level failures return
	// an error.
	Recognize(ctx context.Context, path string, visit func(page int, text string) bool) error
}

// Engine runs keyword searches over PDF and DOCX documents.
type Engine struct {
	Registry    *ExtractorRegistry
	Optical     Recognizer    // nil leaves scanned PDFs unsearchable
	Logger      *zap.Logger   // nil logs nothing
	Workers     int           // document task pool size; 0 = DefaultWorkers
	HeavySlots  int           // concurrent optical passes; 0 = DefaultHeavySlots
	TaskTimeout time.Duration // per-document cap; 0 = unbounded

	// Optional event callbacks (nil if unused). Both fire from worker
	// goroutines under the aggregation lock and must not block.
	OnMatch    func(path string)
	OnProgress func(completed, total int)
}

// NewEngine creates an engine with the built-in extractors.
func NewEngine(optical Recognizer, logger *zap.Logger) *Engine {
	return &Engine{
		Registry: NewExtractorRegistry(),
		Optical:  optical,
		Logger:   logger,
	}
}

// Run searches every candidate under req.Target for req.Keyword. It blocks
// until all dispatched tasks finish and returns the terminal summary; a
// cancelled ctx produces Summary.Cancelled=true, not an error. The only
// synchronous errors are an invalid request (empty keyword, missing target)
// and an unavailable optical engine while fallback is permitted.
func (e *Engine) Run(ctx context.Context, req Request) (*Summary, error) {
	log := e.Logger
	if log == nil {
		log = zap.NewNop()
	}

	keyword := strings.TrimSpace(req.Keyword)
	if keyword == "" {
		return nil, ErrEmptyKeyword
	}

	info, err := os.Stat(req.Target)
	if err != nil {
		return nil, fmt.Errorf("target: %w", err)
	}
	// A file target reports every matching unit; a directory stops each
	// document at its first hit.
	exhaustive := !info.IsDir()

	if !req.TextOnly {
		if e.Optical == nil {
			return nil, ErrOpticalUnavailable
		}
		if cause := e.Optical.Available(); cause != nil {
			return nil, fmt.Errorf("%w: %v", ErrOpticalUnavailable, cause)
		}
	}

	candidates, err := Enumerate(req.Target)
	if err != nil {
		return nil, err
	}

	normalized := Normalize(keyword)
	agg := newTally(len(candidates), e.OnMatch, e.OnProgress)

	workers := req.Workers
	if workers <= 0 {
		workers = e.Workers
	}
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	slots := e.HeavySlots
	if slots <= 0 {
		slots = DefaultHeavySlots()
	}
	heavy := semaphore.NewWeighted(int64(slots))

	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("worker pool: %w", err)
	}
	defer pool.Release()

	log.Info("search started",
		zap.String("target", req.Target),
		zap.String("keyword", keyword),
		zap.Int("candidates", len(candidates)),
		zap.Int("workers", workers),
		zap.Bool("text_only", req.TextOnly),
	)

	var wg sync.WaitGroup
	for _, cand := range candidates {
		if ctx.Err() != nil {
			break // stop dispatching, drain what already started
		}
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			res, aborted := e.searchOne(ctx, log, cand, normalized, req.TextOnly, exhaustive, heavy)
			if aborted {
				return
			}
			agg.record(res)
		})
		if submitErr != nil {
			wg.Done()
			log.Warn("dispatch failed", zap.String("path", cand.Path), zap.Error(submitErr))
			agg.record(FileResult{Path: cand.Path, Skipped: true, Err: submitErr})
		}
	}
	wg.Wait()

	sum := agg.summarize(keyword, ctx.Err() != nil)
	log.Info("search finished",
		zap.Int("total", sum.Total),
		zap.Int("completed", sum.Completed),
		zap.Int("matched", len(sum.Matched)),
		zap.Int("skipped", sum.Skipped),
		zap.Bool("cancelled", sum.Cancelled),
	)
	return sum, nil
}

// searchOne processes a single candidate. Every fault, panics included, is
// confined to this task. aborted is true only when the run was cancelled
// before a result was established; nothing is recorded for aborted tasks.
func (e *Engine) searchOne(ctx context.Context, log *zap.Logger, cand Candidate, keyword string, textOnly, exhaustive bool, heavy *semaphore.Weighted) (res FileResult, aborted bool) {
	res.Path = cand.Path
	defer func() {
		if r := recover(); r != nil {
			log.Warn("task panic", zap.String("path", cand.Path), zap.Any("cause", r))
			res = FileResult{Path: cand.Path, Skipped: true, Err: fmt.Errorf("panic: %v", r)}
			aborted = false
		}
	}()

	if ctx.Err() != nil {
		return res, true
	}

	tctx := ctx
	if e.TaskTimeout > 0 {
		var cancel context.CancelFunc
		tctx, cancel = context.WithTimeout(ctx, e.TaskTimeout)
		defer cancel()
	}

	extractor, ok := e.Registry.Get(cand.Format)
	if !ok {
		res.Skipped = true
		res.Err = fmt.Errorf("no extractor for %s", cand.Format)
		return res, false
	}

	scan := &unitScan{keyword: keyword, exhaustive: exhaustive}
	hasText, err := extractor.Extract(tctx, cand.Path, scan.visit)
	if err != nil {
		if ctx.Err() != nil {
			return res, true
		}
		msg := "document unreadable"
		if errors.Is(err, context.DeadlineExceeded) {
			msg = "task timed out"
		}
		log.Warn(msg, zap.String("path", cand.Path), zap.Error(err))
		res.Skipped = true
		res.Err = err
		return res, false
	}

	if !scan.matched && !hasText && cand.Format == FormatPDF && !textOnly && e.Optical != nil {
		if err := heavy.Acquire(tctx, 1); err != nil {
			if ctx.Err() != nil {
				return res, true
			}
			res.Skipped = true
			res.Err = err
			return res, false
		}
		err = func() error {
			defer heavy.Release(1) // release even when the recognizer panics
			return e.Optical.Recognize(tctx, cand.Path, func(page int, text string) bool {
				return scan.visit(Unit{Loc: Locator{Kind: UnitPage, Index: page}, Text: text})
			})
		}()
		if err != nil {
			if ctx.Err() != nil {
				return res, true
			}
			log.Warn("optical pass failed", zap.String("path", cand.Path), zap.Error(err))
			res.Skipped = true
			res.Err = err
			return res, false
		}
	}

	res.Matched = scan.matched
	res.Locators = scan.locators
	return res, false
}

// unitScan matches units against the normalized keyword, short-circuiting
// after the first hit unless the scan is exhaustive.
type unitScan struct {
	keyword    string
	exhaustive bool
	matched    bool
	locators   []Locator
}

func (s *unitScan) visit(u Unit) bool {
	if u.Text == "" {
		return true
	}
	if strings.Contains(Normalize(u.Text), s.keyword) {
		s.matched = true
		if !s.exhaustive {
			return false
		}
		s.locators = append(s.locators, u.Loc)
	}
	return true
}

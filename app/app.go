// Package app wires the command line, configuration, and engines together.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"docseek/config"
	"docseek/ocr"
	"docseek/search"
)

var version = "0.3.0"

// CLI declares the command line surface.
type CLI struct {
	Target  string   `arg:"" help:"File or directory to search." type:"path"`
	Keyword []string `arg:"" help:"Keyword or phrase to look for."`

	TextOnly   bool             `short:"t" help:"Skip optical recognition of scanned PDFs."`
	Workers    int              `short:"w" help:"Concurrent document tasks (0 = auto)."`
	Plain      bool             `short:"p" help:"Line-oriented output instead of the interactive view."`
	ConfigFile string           `name:"config" help:"Path to a config file." type:"path"`
	Version    kong.VersionFlag `short:"v" help:"Print version and exit."`
}

// Run parses the command line and executes the search. Returns the process
// exit code.
func Run() int {
	var cli CLI
	kong.Parse(&cli,
		kong.Name("docseek"),
		kong.Description("Search PDF and DOCX documents for a keyword, reading scanned pages with OCR."),
		kong.Vars{"version": "docseek v" + version},
	)

	cfg, err := config.Load(cli.ConfigFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		return 1
	}

	logger := buildLogger(cfg.LogLevel, cli.Plain)
	defer func() { _ = logger.Sync() }()

	optical := ocr.New(ocr.Options{
		Tesseract:   cfg.Optical.Tesseract,
		Pdftoppm:    cfg.Optical.Pdftoppm,
		Language:    cfg.Optical.Language,
		DPI:         cfg.Optical.DPI,
		PageSegMode: cfg.Optical.PageSegMode,
		EngineMode:  cfg.Optical.EngineMode,
	}, logger)

	engine := search.NewEngine(optical, logger)
	engine.Workers = cfg.Workers
	engine.HeavySlots = cfg.HeavySlots
	engine.TaskTimeout = cfg.TaskTimeout()

	req := search.Request{
		Target:   cli.Target,
		Keyword:  strings.Join(cli.Keyword, " "),
		TextOnly: cli.TextOnly,
		Workers:  cli.Workers,
	}

	// Probe the optical tooling up front so a missing binary degrades the
	// run with a clear warning instead of refusing to search at all.
	var degraded string
	if !req.TextOnly {
		if err := optical.Available(); err != nil {
			degraded = err.Error()
			req.TextOnly = true
			fmt.Fprintln(os.Stderr, warningStyle.Render(
				"Warning: "+degraded+". Scanned PDFs will be skipped (install tesseract or pass --text-only)."))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cli.Plain {
		return runPlain(ctx, engine, req)
	}
	return runTUI(ctx, engine, req, degraded)
}

// buildLogger follows the interactive view's silent-engine convention:
// plain runs log to stderr at the configured level, the TUI keeps the
// terminal for itself.
func buildLogger(level string, plain bool) *zap.Logger {
	if !plain {
		return zap.NewNop()
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.WarnLevel
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = true
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// Package config loads the optional YAML configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config tunes the pipeline. Zero values defer to ApplyDefaults, so an
// absent or partial file always yields a runnable configuration.
type Config struct {
	Workers        int     `yaml:"workers"`          // document task pool size; 0 = auto
	HeavySlots     int     `yaml:"heavy_slots"`      // concurrent optical passes; 0 = auto
	TaskTimeoutSec int     `yaml:"task_timeout_sec"` // per-document cap; 0 = unbounded
	LogLevel       string  `yaml:"log_level"`
	Optical        Optical `yaml:"optical"`
}

// Optical configures the external recognition tooling.
type Optical struct {
	Tesseract   string `yaml:"tesseract_path"` // empty = look up PATH
	Pdftoppm    string `yaml:"pdftoppm_path"`  // empty = look up PATH
	Language    string `yaml:"language"`
	DPI         int    `yaml:"dpi"`
	PageSegMode int    `yaml:"page_seg_mode"`
	EngineMode  int    `yaml:"engine_mode"`
}

// DefaultPath is where Load looks when no path is given.
func DefaultPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return "docseek.yaml"
	}
	return filepath.Join(base, "docseek", "config.yaml")
}

// Load reads the file at path, or at DefaultPath when path is empty. A
// missing default file is fine and yields the defaults; an explicitly named
// file that cannot be read is an error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case explicit:
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyDefaults fills unset fields with working values. Worker and slot
// counts stay zero here; the engine derives those from the host at run time.
func (c *Config) ApplyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "warn"
	}
	if c.Optical.Language == "" {
		c.Optical.Language = "eng"
	}
	if c.Optical.DPI == 0 {
		c.Optical.DPI = 150
	}
	if c.Optical.PageSegMode == 0 {
		c.Optical.PageSegMode = 1
	}
	if c.Optical.EngineMode == 0 {
		c.Optical.EngineMode = 3
	}
}

// Validate rejects values the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	if c.HeavySlots < 0 {
		return fmt.Errorf("heavy_slots must be >= 0, got %d", c.HeavySlots)
	}
	if c.TaskTimeoutSec < 0 {
		return fmt.Errorf("task_timeout_sec must be >= 0, got %d", c.TaskTimeoutSec)
	}
	if c.Optical.DPI < 72 || c.Optical.DPI > 1200 {
		return fmt.Errorf("optical dpi %d out of range 72-1200", c.Optical.DPI)
	}
	if c.Optical.PageSegMode < 0 || c.Optical.PageSegMode > 13 {
		return fmt.Errorf("optical page_seg_mode %d out of range 0-13", c.Optical.PageSegMode)
	}
	if c.Optical.EngineMode < 0 || c.Optical.EngineMode > 3 {
		return fmt.Errorf("optical engine_mode %d out of range 0-3", c.Optical.EngineMode)
	}
	return nil
}

// TaskTimeout returns the per-document cap as a duration, zero when unset.
func (c *Config) TaskTimeout() time.Duration {
	return time.Duration(c.TaskTimeoutSec) * time.Second
}

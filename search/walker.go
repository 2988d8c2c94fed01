package search

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Enumerate collects the searchable documents under target before any
// dispatch happens, so totals are known up front. A directory is walked
// recursively in lexical order, making candidate order stable per run; a
// file target yields at most one candidate (none when its extension is
// unsupported). Unreadable entries are skipped rather than failing the walk.
func Enumerate(target string) ([]Candidate, error) {
	info, err := os.Stat(target)
	if err != nil {
		return nil, fmt.Errorf("target: %w", err)
	}

	if !info.IsDir() {
		if kind, ok := DetectFormat(target); ok {
			return []Candidate{{Path: target, Format: kind}}, nil
		}
		return nil, nil
	}

	var candidates []Candidate
	walkErr := filepath.WalkDir(target, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if kind, ok := DetectFormat(path); ok {
			candidates = append(candidates, Candidate{Path: path, Format: kind})
		}
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walk %s: %w", target, walkErr)
	}
	return candidates, nil
}

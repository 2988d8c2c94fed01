package app

import (
	"fmt"
	"os/exec"
	"runtime"
)

// openInViewer hands path to the platform's default document handler.
func openInViewer(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	// The viewer owns its own lifecycle; just reap the handle.
	go func() { _ = cmd.Wait() }()
	return nil
}

// Package scratch owns the process-private staging directory where
// sampled frames live between encoding and offload.
package scratch

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Area is the staging directory for frames awaiting offload.
//
// Created once at startup, removed in full at shutdown. Files inside are
// written by the stager and deleted by the offload workers; Sweep removes
// whatever is left.
type Area struct {
	dir string
}

// New creates the staging directory under the system temp dir.
//
// The name carries a random hex suffix so concurrent archiver processes
// never share a directory.
func New() (*Area, error) {
	dir := filepath.Join(os.TempDir(), fmt.Sprintf("frame_archiver_%x", uuid.New()))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("scratch: failed to create staging directory: %w", err)
	}

	slog.Info("scratch: staging directory created", "dir", dir)
	return &Area{dir: dir}, nil
}

// Dir returns the absolute path of the staging directory
func (a *Area) Dir() string {
	return a.dir
}

// Path returns the absolute path for a file inside the staging directory
func (a *Area) Path(filename string) string {
	return filepath.Join(a.dir, filename)
}

// Sweep removes every remaining staged file and then the directory itself.
//
// Failures are logged and skipped, never escalated. Safe to call after the
// stager and offload workers have stopped, and safe to call again once the
// directory is gone.
func (a *Area) Sweep() {
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("scratch: failed to read staging directory during sweep",
				"dir", a.dir,
				"error", err,
			)
		}
		return
	}

	removed := 0
	for _, entry := range entries {
		path := filepath.Join(a.dir, entry.Name())
		if err := os.Remove(path); err != nil {
			slog.Warn("scratch: failed to remove staged file",
				"path", path,
				"error", err,
			)
			continue
		}
		removed++
		slog.Debug("scratch: removed staged file", "path", path)
	}

	if err := os.Remove(a.dir); err != nil {
		slog.Warn("scratch: failed to remove staging directory",
			"dir", a.dir,
			"error", err,
		)
		return
	}

	slog.Info("scratch: staging directory removed",
		"dir", a.dir,
		"files_swept", removed,
	)
}

// Package watch uploads image files dropped into a local directory.
// It combines an initial scan of whatever is already there with
// filesystem notifications for files that arrive later.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/e7canasta/frame-archiver/internal/dedup"
	"github.com/e7canasta/frame-archiver/internal/offload"
	"github.com/e7canasta/frame-archiver/internal/stage"
)

// settleDelay is how long a newly noticed file gets to finish being
// written before it is read. Uploading a half-written image archives
// garbage.
const settleDelay = 500 * time.Millisecond

// Config holds the watcher settings
type Config struct {
	// Dir is the directory to watch (must exist)
	Dir string
	// Prefix is the object key prefix
	Prefix string
	// Subpath is the key segment between the prefix and the filename
	Subpath string
}

// Watcher uploads image files from one directory. Uploads run inline on
// the event loop, one file at a time, in arrival order.
type Watcher struct {
	dir      string
	prefix   string
	subpath  string
	uploader *offload.Uploader
	seen     *dedup.Set

	handled atomic.Uint64
	skipped atomic.Uint64
}

// New validates the configuration and fails fast if the directory is
// missing. The caller owns the dedup set; the watcher only consults it.
func New(cfg Config, uploader *offload.Uploader, seen *dedup.Set) (*Watcher, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("watch directory is required")
	}
	info, err := os.Stat(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("watch directory does not exist: %s", cfg.Dir)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch path is not a directory: %s", cfg.Dir)
	}
	if uploader == nil {
		return nil, fmt.Errorf("uploader is required")
	}
	if seen == nil {
		return nil, fmt.Errorf("dedup set is required")
	}

	return &Watcher{
		dir:      cfg.Dir,
		prefix:   cfg.Prefix,
		subpath:  cfg.Subpath,
		uploader: uploader,
		seen:     seen,
	}, nil
}

// Run watches the directory until the context is cancelled. It returns
// nil on cancellation; only a failure to set up the watch is an error.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: failed to create watcher: %w", err)
	}
	defer fsw.Close()

	// Register before the initial scan so files that arrive while the
	// scan runs still raise events
	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch: failed to watch %s: %w", w.dir, err)
	}

	slog.Info("watch: watching directory", "dir", w.dir)

	w.scanExisting(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("watch: stopping",
				"handled", w.handled.Load(),
				"skipped", w.skipped.Load(),
			)
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				w.handleFile(ctx, event.Name)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch: watcher error", "error", err)
		}
	}
}

// scanExisting uploads the files already present when the watch starts
func (w *Watcher) scanExisting(ctx context.Context) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		slog.Warn("watch: failed to scan existing files", "error", err)
		return
	}
	for _, entry := range entries {
		if ctx.Err() != nil {
			return
		}
		if entry.IsDir() {
			continue
		}
		w.handleFile(ctx, filepath.Join(w.dir, entry.Name()))
	}
}

// handleFile uploads one file if it is an image not handled before.
// Paths are deduplicated by name: a file recreated at the same path
// after a successful upload is not uploaded again.
func (w *Watcher) handleFile(ctx context.Context, path string) {
	if !isImage(path) {
		return
	}
	if w.seen.Seen(path) {
		w.skipped.Add(1)
		slog.Debug("watch: already handled, skipping", "path", path)
		return
	}

	// Give the writer time to finish before reading
	select {
	case <-time.After(settleDelay):
	case <-ctx.Done():
		return
	}

	// One attempt per path, successful or not
	defer w.seen.Add(path)

	if _, err := os.Stat(path); err != nil {
		slog.Debug("watch: file vanished before upload", "path", path)
		return
	}

	artifact := stage.FromExisting(path, w.prefix, w.subpath, time.Now())
	w.uploader.Offload(ctx, artifact)
	w.handled.Add(1)

	slog.Debug("watch: file handled", "path", path, "key", artifact.Key)
}

// Stats returns the number of handled and skipped files
func (w *Watcher) Stats() (handled, skipped uint64) {
	return w.handled.Load(), w.skipped.Load()
}

func isImage(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

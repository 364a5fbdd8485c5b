package offload

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/e7canasta/frame-archiver/internal/stage"
)

// Uploader offloads single artifacts: upload, then remove the local file
// on success.
//
// Thread-safe: the dispatcher workers share one instance.
type Uploader struct {
	store     Store
	bucket    string
	keepFiles bool

	uploaded atomic.Uint64
	failed   atomic.Uint64
}

// NewUploader creates an uploader writing to bucket through store.
//
// With keepFiles set, local files survive successful uploads.
func NewUploader(store Store, bucket string, keepFiles bool) *Uploader {
	return &Uploader{
		store:     store,
		bucket:    bucket,
		keepFiles: keepFiles,
	}
}

// Offload uploads one staged artifact.
//
// Fire-and-forget: any failure is terminal for the artifact, logged and
// counted, with the local file left in place. Nothing propagates to the
// caller. On success the local file is removed unless keep-files is set;
// removing an already-gone file is quietly ignored.
func (u *Uploader) Offload(ctx context.Context, artifact *stage.Artifact) {
	file, err := os.Open(artifact.LocalPath)
	if err != nil {
		u.failed.Add(1)
		slog.Error("offload: failed to open staged file",
			"path", artifact.LocalPath,
			"error", err,
		)
		return
	}

	err = u.store.Put(ctx, u.bucket, artifact.Key, artifact.ContentType, file)
	file.Close()
	if err != nil {
		u.failed.Add(1)
		slog.Error("offload: upload failed, keeping local file",
			"path", artifact.LocalPath,
			"key", artifact.Key,
			"bucket", u.bucket,
			"error", err,
		)
		return
	}

	u.uploaded.Add(1)
	slog.Debug("offload: uploaded",
		"key", artifact.Key,
		"bucket", u.bucket,
	)

	if u.keepFiles {
		return
	}

	if err := os.Remove(artifact.LocalPath); err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("offload: failed to remove staged file after upload",
				"path", artifact.LocalPath,
				"error", err,
			)
		}
		return
	}
	slog.Debug("offload: staged file removed", "path", artifact.LocalPath)
}

// Stats returns uploads completed and failed so far
func (u *Uploader) Stats() (uploaded, failed uint64) {
	return u.uploaded.Load(), u.failed.Load()
}

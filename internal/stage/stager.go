// Package stage encodes sampled frames into image files in the staging
// area and builds their destination keys.
package stage

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/e7canasta/frame-archiver/internal/types"
)

// Artifact is a staged frame ready for offload.
//
// Ownership transfers to the dispatcher at hand-off: the local file is
// removed after a successful upload and left behind on failure.
type Artifact struct {
	// LocalPath is the staged file on disk
	LocalPath string
	// Format is the image format (jpg or png)
	Format string
	// CapturedAt is the capture time the filename derives from
	CapturedAt time.Time
	// Key is the destination object key
	Key string
	// ContentType is the MIME type sent with the object
	ContentType string
}

// Stager converts raw RGB frames to JPEG or PNG files in the staging
// directory.
//
// Thread-safe: can be called from multiple goroutines, though the usual
// caller is a single control loop.
type Stager struct {
	dir        string
	format     string
	quality    int
	prefix     string
	identifier string

	staged atomic.Uint64
	failed atomic.Uint64
}

// NewStager creates a stager writing into dir.
//
// Format: "jpg" or "png". Quality applies to JPEG only; the encoder
// clamps out-of-range values. Prefix and identifier feed the
// destination-key builder.
func NewStager(dir, format string, quality int, prefix, identifier string) (*Stager, error) {
	if format != "jpg" && format != "png" {
		return nil, fmt.Errorf("stage: unsupported format %q (must be jpg or png)", format)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("stage: failed to create staging directory: %w", err)
	}

	return &Stager{
		dir:        dir,
		format:     format,
		quality:    quality,
		prefix:     prefix,
		identifier: identifier,
	}, nil
}

// Stage encodes one frame into the staging area.
//
// The filename is the capture timestamp at microsecond resolution, the
// sole collision-avoidance mechanism: a same-microsecond collision
// overwrites silently. Returns the artifact ready for offload.
func (s *Stager) Stage(frame *types.Frame) (*Artifact, error) {
	img, err := rgbToRGBA(frame)
	if err != nil {
		s.failed.Add(1)
		return nil, fmt.Errorf("stage: RGB conversion failed: %w", err)
	}

	filename := FormatTimestamp(frame.Timestamp) + "." + s.format
	path := filepath.Join(s.dir, filename)

	file, err := os.Create(path)
	if err != nil {
		s.failed.Add(1)
		return nil, fmt.Errorf("stage: failed to create file: %w", err)
	}
	defer file.Close()

	switch s.format {
	case "png":
		if err := png.Encode(file, img); err != nil {
			s.failed.Add(1)
			return nil, fmt.Errorf("stage: PNG encode failed: %w", err)
		}
	case "jpg":
		if err := jpeg.Encode(file, img, &jpeg.Options{Quality: s.quality}); err != nil {
			s.failed.Add(1)
			return nil, fmt.Errorf("stage: JPEG encode failed: %w", err)
		}
	}

	s.staged.Add(1)

	return &Artifact{
		LocalPath:   path,
		Format:      s.format,
		CapturedAt:  frame.Timestamp,
		Key:         FrameKey(s.prefix, s.identifier, frame.Timestamp, s.format),
		ContentType: ContentType(s.format),
	}, nil
}

// Stats returns the number of frames staged and failed so far
func (s *Stager) Stats() (staged, failed uint64) {
	return s.staged.Load(), s.failed.Load()
}

// FromExisting wraps an already-encoded file into an artifact with the
// watch-style destination key.
//
// The content type derives from the file's own extension; ts is the time
// the file was observed.
func FromExisting(path, prefix, subpath string, ts time.Time) *Artifact {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	return &Artifact{
		LocalPath:   path,
		Format:      ext,
		CapturedAt:  ts,
		Key:         FileKey(prefix, subpath, ts, filepath.Base(path)),
		ContentType: ContentType(ext),
	}
}

// rgbToRGBA converts RGB raw bytes (3 bytes/pixel) to image.RGBA
// (4 bytes/pixel) with a fully opaque alpha channel
func rgbToRGBA(frame *types.Frame) (*image.RGBA, error) {
	expectedSize := frame.Width * frame.Height * 3
	if len(frame.Data) != expectedSize {
		return nil, fmt.Errorf("invalid RGB data size: got %d, expected %d",
			len(frame.Data), expectedSize)
	}

	img := image.NewRGBA(image.Rect(0, 0, frame.Width, frame.Height))

	for i := 0; i < frame.Width*frame.Height; i++ {
		img.Pix[i*4+0] = frame.Data[i*3+0] // R
		img.Pix[i*4+1] = frame.Data[i*3+1] // G
		img.Pix[i*4+2] = frame.Data[i*3+2] // B
		img.Pix[i*4+3] = 255               // A (opaque)
	}

	return img, nil
}

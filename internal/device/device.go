// Package device captures frames from a local V4L2 camera through
// OpenCV. It is the capture path for machines that have a USB camera
// attached instead of a Kinesis Video stream to read from.
package device

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"gocv.io/x/gocv"

	"github.com/e7canasta/frame-archiver/internal/types"
)

// warmupDelay gives the sensor time to settle between opening the
// device and the first read. Early reads on cheap USB cameras come back
// dark or empty.
const warmupDelay = 1 * time.Second

// Config holds the camera settings
type Config struct {
	// Index is the V4L2 device number (/dev/video<Index>)
	Index int
	// Width is the requested capture width in pixels
	Width int
	// Height is the requested capture height in pixels
	Height int
}

// Camera wraps one open V4L2 capture device. Not safe for concurrent
// use; the capture loop is its only caller.
type Camera struct {
	index   int
	width   int
	height  int
	source  string
	capture *gocv.VideoCapture

	frameCount atomic.Uint64
	misses     atomic.Uint64
}

// Open validates the configuration, opens the device and waits for the
// sensor to settle
func Open(cfg Config) (*Camera, error) {
	if cfg.Index < 0 {
		return nil, fmt.Errorf("invalid camera index: %d (must be >= 0)", cfg.Index)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("invalid capture size: %dx%d (must be positive)", cfg.Width, cfg.Height)
	}

	capture, err := gocv.OpenVideoCapture(cfg.Index)
	if err != nil {
		return nil, fmt.Errorf("device: failed to open camera %d: %w", cfg.Index, err)
	}

	// Requested size is advisory, the driver may negotiate another one
	capture.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))

	time.Sleep(warmupDelay)

	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("device: camera %d did not open", cfg.Index)
	}

	slog.Info("device: camera opened",
		"index", cfg.Index,
		"width", cfg.Width,
		"height", cfg.Height,
	)

	return &Camera{
		index:   cfg.Index,
		width:   cfg.Width,
		height:  cfg.Height,
		source:  fmt.Sprintf("cam%d", cfg.Index),
		capture: capture,
	}, nil
}

// Source returns the identifier stamped on captured frames
func (c *Camera) Source() string {
	return c.source
}

// Capture reads one frame and converts it to RGB. A failed read is a
// recoverable miss: the caller logs it and tries again next cycle.
func (c *Camera) Capture() (*types.Frame, error) {
	img := gocv.NewMat()
	defer img.Close()

	if ok := c.capture.Read(&img); !ok || img.Empty() {
		c.misses.Add(1)
		return nil, fmt.Errorf("device: camera %d returned no frame", c.index)
	}

	// OpenCV reads BGR
	rgb := gocv.NewMat()
	defer rgb.Close()
	gocv.CvtColor(img, &rgb, gocv.ColorBGRToRGB)

	data, err := rgb.ToBytes()
	if err != nil {
		c.misses.Add(1)
		return nil, fmt.Errorf("device: failed to read frame bytes: %w", err)
	}

	seq := c.frameCount.Add(1)

	slog.Debug("device: frame captured",
		"seq", seq,
		"width", rgb.Cols(),
		"height", rgb.Rows(),
		"bytes", len(data),
	)

	return &types.Frame{
		Seq:       seq,
		Timestamp: time.Now(),
		Width:     rgb.Cols(),
		Height:    rgb.Rows(),
		Data:      data,
		Source:    c.source,
		TraceID:   uuid.New().String(),
	}, nil
}

// Stats returns the number of captured frames and failed reads
func (c *Camera) Stats() (captured, misses uint64) {
	return c.frameCount.Load(), c.misses.Load()
}

// Close releases the device. Safe to call multiple times.
func (c *Camera) Close() error {
	if c.capture == nil {
		return nil
	}
	err := c.capture.Close()
	c.capture = nil

	captured, misses := c.Stats()
	slog.Info("device: camera closed",
		"index", c.index,
		"frames_captured", captured,
		"read_misses", misses,
	)

	if err != nil {
		return fmt.Errorf("device: failed to close camera %d: %w", c.index, err)
	}
	return nil
}

// Package forward publishes a local V4L2 camera to an Amazon Kinesis
// Video stream. It is the producer-side counterpart of the stream
// extractor: point it at a camera and the footage becomes available to
// every KVS consumer, this archiver included.
package forward

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tinyzimmer/go-gst/gst"

	"github.com/e7canasta/frame-archiver/internal/pipeline"
)

// Config holds the forwarder settings
type Config struct {
	// StreamName is the Kinesis Video stream to publish to (required)
	StreamName string
	// Region is the AWS region hosting the stream (required)
	Region string
	// DeviceIndex is the V4L2 device number (/dev/video<DeviceIndex>)
	DeviceIndex int
	// Width is the capture width in pixels
	Width int
	// Height is the capture height in pixels
	Height int
	// FPS is the publish rate in frames per second
	FPS int
}

// Forwarder drives one camera-to-KVS pipeline. It does not support
// restart after Stop.
type Forwarder struct {
	cfg Config

	mu   sync.Mutex
	pipe *gst.Pipeline

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	done   chan error

	running   atomic.Bool
	startTime time.Time
}

// NewForwarder validates the configuration and probes GStreamer
func NewForwarder(cfg Config) (*Forwarder, error) {
	if cfg.StreamName == "" {
		return nil, fmt.Errorf("stream name is required")
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("AWS region is required")
	}
	if cfg.DeviceIndex < 0 {
		return nil, fmt.Errorf("invalid camera index: %d (must be >= 0)", cfg.DeviceIndex)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("invalid capture size: %dx%d (must be positive)", cfg.Width, cfg.Height)
	}
	if cfg.FPS < 1 || cfg.FPS > 120 {
		return nil, fmt.Errorf("invalid fps: %d (must be 1-120)", cfg.FPS)
	}
	if err := pipeline.CheckAvailable(); err != nil {
		return nil, err
	}

	return &Forwarder{
		cfg:  cfg,
		done: make(chan error, 1),
	}, nil
}

// Start builds the pipeline and begins publishing
func (f *Forwarder) Start(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.running.Load() {
		return fmt.Errorf("forwarder already started")
	}

	pipe, err := buildPipeline(f.cfg)
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}
	f.pipe = pipe

	f.ctx, f.cancel = context.WithCancel(ctx)

	if err := pipe.SetState(gst.StatePlaying); err != nil {
		pipeline.Destroy(pipe)
		f.pipe = nil
		f.cancel()
		return fmt.Errorf("failed to start pipeline: %w", err)
	}

	f.startTime = time.Now()
	f.running.Store(true)

	f.wg.Add(1)
	go f.monitor(pipe)

	slog.Info("forward: publishing started",
		"device", f.cfg.DeviceIndex,
		"stream", f.cfg.StreamName,
		"region", f.cfg.Region,
		"fps", f.cfg.FPS,
	)
	return nil
}

// monitor watches the bus until the pipeline ends and publishes the
// terminal result on the done channel
func (f *Forwarder) monitor(p *gst.Pipeline) {
	defer f.wg.Done()
	f.done <- pipeline.Monitor(f.ctx, p, f.cfg.StreamName)
}

// Done reports the terminal pipeline result: nil after cancellation, an
// error after a fatal bus error. It fires at most once.
func (f *Forwarder) Done() <-chan error {
	return f.done
}

// Stop halts publishing and tears the pipeline down. Safe to call
// multiple times and before Start.
func (f *Forwarder) Stop() error {
	if !f.running.CompareAndSwap(true, false) {
		return nil
	}

	slog.Info("forward: stopping", "stream", f.cfg.StreamName)

	f.cancel()

	waitDone := make(chan struct{})
	go func() {
		f.wg.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
	case <-time.After(3 * time.Second):
		slog.Warn("forward: timeout waiting for monitor to finish")
	}

	f.mu.Lock()
	if f.pipe != nil {
		if err := pipeline.Destroy(f.pipe); err != nil {
			slog.Warn("forward: failed to destroy pipeline", "error", err)
		}
		f.pipe = nil
	}
	f.mu.Unlock()

	var uptime time.Duration
	if !f.startTime.IsZero() {
		uptime = time.Since(f.startTime)
	}
	slog.Info("forward: stopped",
		"stream", f.cfg.StreamName,
		"uptime_s", uptime.Seconds(),
	)
	return nil
}

// Uptime returns the time since publishing started, zero when stopped
func (f *Forwarder) Uptime() time.Duration {
	if !f.running.Load() || f.startTime.IsZero() {
		return 0
	}
	return time.Since(f.startTime)
}

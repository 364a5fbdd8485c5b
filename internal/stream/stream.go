package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"

	"github.com/e7canasta/frame-archiver/internal/pipeline"
)

// Config holds the extractor settings
type Config struct {
	// StreamName is the Kinesis Video stream to read from (required)
	StreamName string
	// Region is the AWS region hosting the stream (required)
	Region string
	// IntervalS is the spacing between extracted frames in seconds
	IntervalS float64
}

// Stats is a snapshot of the extractor counters
type Stats struct {
	// FramesExtracted is the number of frames delivered to the handler
	FramesExtracted uint64
	// FramesDropped is the number of frames discarded before delivery
	FramesDropped uint64
	// BytesRead is the total decoded bytes pulled from the appsink
	BytesRead uint64
	// TargetRate is the configured extraction rate in frames per second
	TargetRate float64
	// ActualRate is the measured extraction rate in frames per second
	ActualRate float64
	// Uptime is the time since extraction started
	Uptime time.Duration
	// ErrorsConnection counts fatal connectivity errors
	ErrorsConnection uint64
	// ErrorsDecode counts fatal codec and negotiation errors
	ErrorsDecode uint64
	// ErrorsAuth counts fatal credential errors
	ErrorsAuth uint64
	// ErrorsUnknown counts fatal errors with no recognized category
	ErrorsUnknown uint64
}

// Extractor pulls decoded frames from a Kinesis Video stream at a fixed
// cadence and hands them to a FrameHandler. One Extractor drives one
// stream; it does not support restart after Stop.
type Extractor struct {
	streamName string
	region     string
	intervalS  float64
	handler    FrameHandler

	mu    sync.Mutex
	parts *pipelineParts

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	done   chan error

	running   atomic.Bool
	startTime time.Time

	frameCount    atomic.Uint64
	framesDropped atomic.Uint64
	bytesRead     atomic.Uint64

	errorsConnection atomic.Uint64
	errorsDecode     atomic.Uint64
	errorsAuth       atomic.Uint64
	errorsUnknown    atomic.Uint64
}

// NewExtractor validates the configuration and probes GStreamer.
// It fails fast so a misconfigured extractor never reaches Start.
func NewExtractor(cfg Config, handler FrameHandler) (*Extractor, error) {
	if cfg.StreamName == "" {
		return nil, fmt.Errorf("stream name is required")
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("AWS region is required")
	}
	if cfg.IntervalS <= 0 {
		return nil, fmt.Errorf("invalid interval: %.2f (must be > 0)", cfg.IntervalS)
	}
	if handler == nil {
		return nil, fmt.Errorf("frame handler is required")
	}
	if err := pipeline.CheckAvailable(); err != nil {
		return nil, err
	}

	return &Extractor{
		streamName: cfg.StreamName,
		region:     cfg.Region,
		intervalS:  cfg.IntervalS,
		handler:    handler,
		done:       make(chan error, 1),
	}, nil
}

// Start builds the pipeline, registers the callbacks and begins
// extraction. The frame handler runs on the GStreamer streaming thread
// from this point on.
func (e *Extractor) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running.Load() {
		return fmt.Errorf("extractor already started")
	}

	parts, err := buildPipeline(e.streamName, e.region, e.intervalS)
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}
	e.parts = parts

	cbCtx := &sampleContext{
		handler:       e.handler,
		source:        e.streamName,
		frameCount:    &e.frameCount,
		framesDropped: &e.framesDropped,
		bytesRead:     &e.bytesRead,
	}
	parts.appSink.SetCallbacks(&app.SinkCallbacks{
		NewSampleFunc: func(sink *app.Sink) gst.FlowReturn {
			return onNewSample(sink, cbCtx)
		},
	})

	parser := parts.h264Parse
	parts.kvsSrc.Connect("pad-added", func(self *gst.Element, srcPad *gst.Pad) {
		onPadAdded(srcPad, parser)
	})

	e.ctx, e.cancel = context.WithCancel(ctx)

	if err := parts.pipeline.SetState(gst.StatePlaying); err != nil {
		pipeline.Destroy(parts.pipeline)
		e.parts = nil
		e.cancel()
		return fmt.Errorf("failed to start pipeline: %w", err)
	}

	e.startTime = time.Now()
	e.running.Store(true)

	e.wg.Add(1)
	go e.monitor(parts.pipeline)

	slog.Info("stream: extraction started",
		"stream", e.streamName,
		"region", e.region,
		"interval_s", e.intervalS,
	)
	return nil
}

// monitor watches the bus until the pipeline ends and publishes the
// terminal result on the done channel
func (e *Extractor) monitor(p *gst.Pipeline) {
	defer e.wg.Done()

	err := pipeline.Monitor(e.ctx, p, e.streamName)
	if err != nil {
		e.countError(err)
	}
	e.done <- err
}

func (e *Extractor) countError(err error) {
	var busErr *pipeline.BusError
	if !errors.As(err, &busErr) {
		e.errorsUnknown.Add(1)
		return
	}
	switch busErr.Category {
	case pipeline.ErrCategoryConnection:
		e.errorsConnection.Add(1)
	case pipeline.ErrCategoryDecode:
		e.errorsDecode.Add(1)
	case pipeline.ErrCategoryAuth:
		e.errorsAuth.Add(1)
	default:
		e.errorsUnknown.Add(1)
	}
}

// Done reports the terminal pipeline result: nil after end of stream or
// cancellation, an error after a fatal bus error. It fires at most once.
func (e *Extractor) Done() <-chan error {
	return e.done
}

// Stop halts extraction and tears the pipeline down. Safe to call
// multiple times and before Start.
func (e *Extractor) Stop() error {
	if !e.running.CompareAndSwap(true, false) {
		return nil
	}

	slog.Info("stream: stopping extraction", "stream", e.streamName)

	e.cancel()

	waitDone := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
	case <-time.After(3 * time.Second):
		slog.Warn("stream: timeout waiting for monitor to finish")
	}

	e.mu.Lock()
	if e.parts != nil {
		if err := pipeline.Destroy(e.parts.pipeline); err != nil {
			slog.Warn("stream: failed to destroy pipeline", "error", err)
		}
		e.parts = nil
	}
	e.mu.Unlock()

	stats := e.Stats()
	slog.Info("stream: extraction stopped",
		"stream", e.streamName,
		"frames_extracted", stats.FramesExtracted,
		"frames_dropped", stats.FramesDropped,
		"bytes_read", stats.BytesRead,
	)
	return nil
}

// Stats returns a snapshot of the extraction counters
func (e *Extractor) Stats() Stats {
	var uptime time.Duration
	if e.running.Load() && !e.startTime.IsZero() {
		uptime = time.Since(e.startTime)
	}

	frames := e.frameCount.Load()
	var actualRate float64
	if uptime > 0 {
		actualRate = float64(frames) / uptime.Seconds()
	}

	return Stats{
		FramesExtracted:  frames,
		FramesDropped:    e.framesDropped.Load(),
		BytesRead:        e.bytesRead.Load(),
		TargetRate:       1.0 / e.intervalS,
		ActualRate:       actualRate,
		Uptime:           uptime,
		ErrorsConnection: e.errorsConnection.Load(),
		ErrorsDecode:     e.errorsDecode.Load(),
		ErrorsAuth:       e.errorsAuth.Load(),
		ErrorsUnknown:    e.errorsUnknown.Load(),
	}
}

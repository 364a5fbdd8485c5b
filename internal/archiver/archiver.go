// Package archiver wires the capture, staging and offload components
// into one runnable unit and walks them through a fixed lifecycle:
// scratch area up, capture running, drain, terminate. Teardown runs the
// same way no matter how the run ended, so a fatal pipeline error still
// flushes queued uploads and sweeps the staging area.
package archiver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tinyzimmer/go-gst/gst"

	"github.com/e7canasta/frame-archiver/internal/cadence"
	"github.com/e7canasta/frame-archiver/internal/config"
	"github.com/e7canasta/frame-archiver/internal/dedup"
	"github.com/e7canasta/frame-archiver/internal/device"
	"github.com/e7canasta/frame-archiver/internal/forward"
	"github.com/e7canasta/frame-archiver/internal/offload"
	"github.com/e7canasta/frame-archiver/internal/scratch"
	"github.com/e7canasta/frame-archiver/internal/stage"
	"github.com/e7canasta/frame-archiver/internal/stream"
	"github.com/e7canasta/frame-archiver/internal/types"
	"github.com/e7canasta/frame-archiver/internal/watch"
)

// statsInterval is how often the long-running modes log progress
const statsInterval = 30 * time.Second

// Archiver runs one capture mode to completion
type Archiver struct {
	cfg  *config.Config
	life *lifecycle

	area       *scratch.Area
	uploader   *offload.Uploader
	dispatcher *offload.Dispatcher
}

// New checks that the configuration names a known mode. The
// configuration must already be validated.
func New(cfg *config.Config) (*Archiver, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	switch cfg.Mode {
	case config.ModeStream, config.ModeDevice, config.ModeWatch, config.ModeForward:
	default:
		return nil, fmt.Errorf("unknown mode: %q", cfg.Mode)
	}
	return &Archiver{cfg: cfg, life: &lifecycle{}}, nil
}

// State returns the current lifecycle state
func (a *Archiver) State() State {
	return a.life.current()
}

// Run executes the configured mode until the context is cancelled, the
// source ends, or a fatal error occurs. It returns nil on a clean end
// and the fatal error otherwise; teardown has completed either way.
func (a *Archiver) Run(ctx context.Context) error {
	slog.Info("archiver: starting", "mode", a.cfg.Mode)

	// Forward mode stages nothing, but a uniform lifecycle keeps
	// teardown identical across modes
	area, err := scratch.New()
	if err != nil {
		return err
	}
	a.area = area
	if err := a.life.advance(StateScratchReady); err != nil {
		return err
	}

	runErr := a.runMode(ctx)

	a.mustAdvance(StateDraining)
	if a.dispatcher != nil {
		a.dispatcher.Stop()
	}
	if a.uploader != nil {
		uploaded, failed := a.uploader.Stats()
		slog.Info("archiver: upload totals", "uploaded", uploaded, "failed", failed)
	}
	a.area.Sweep()
	a.mustAdvance(StateTerminated)

	if runErr != nil {
		slog.Error("archiver: run failed", "mode", a.cfg.Mode, "error", runErr)
		return runErr
	}
	slog.Info("archiver: terminated cleanly", "mode", a.cfg.Mode)
	return nil
}

func (a *Archiver) runMode(ctx context.Context) error {
	switch a.cfg.Mode {
	case config.ModeStream:
		return a.runStream(ctx)
	case config.ModeDevice:
		return a.runDevice(ctx)
	case config.ModeWatch:
		return a.runWatch(ctx)
	case config.ModeForward:
		return a.runForward(ctx)
	}
	return fmt.Errorf("unknown mode: %q", a.cfg.Mode)
}

// setupOffload builds the S3 store, uploader and worker pool shared by
// the frame-producing modes
func (a *Archiver) setupOffload() error {
	store, err := offload.NewS3Store(a.cfg.Region)
	if err != nil {
		return err
	}
	a.uploader = offload.NewUploader(store, a.cfg.Storage.Bucket, a.cfg.Storage.KeepFiles)
	a.dispatcher = offload.NewDispatcher(a.uploader, a.cfg.Storage.Workers, a.cfg.Storage.QueueDepth)
	return nil
}

// runStream extracts frames from a Kinesis Video stream, stages them as
// images and hands them to the upload pool
func (a *Archiver) runStream(ctx context.Context) error {
	if err := a.setupOffload(); err != nil {
		return err
	}

	stager, err := stage.NewStager(
		a.area.Dir(),
		a.cfg.Sample.Format,
		a.cfg.Sample.Quality,
		a.cfg.Storage.Prefix,
		a.cfg.Stream.Name,
	)
	if err != nil {
		return err
	}

	dispatcher := a.dispatcher
	handler := func(frame *types.Frame) gst.FlowReturn {
		artifact, err := stager.Stage(frame)
		if err != nil {
			slog.Warn("archiver: failed to stage frame",
				"seq", frame.Seq,
				"error", err,
			)
			return gst.FlowOK
		}
		dispatcher.Dispatch(artifact)
		return gst.FlowOK
	}

	ex, err := stream.NewExtractor(stream.Config{
		StreamName: a.cfg.Stream.Name,
		Region:     a.cfg.Region,
		IntervalS:  a.cfg.Sample.IntervalS,
	}, handler)
	if err != nil {
		return err
	}

	return a.runSource(ctx, ex, func() {
		stats := ex.Stats()
		dstats := dispatcher.Stats()
		slog.Info("archiver: progress",
			"frames_extracted", stats.FramesExtracted,
			"frames_dropped", stats.FramesDropped,
			"actual_rate", fmt.Sprintf("%.2f", stats.ActualRate),
			"uploaded", dstats.Uploaded,
			"upload_failures", dstats.Failed,
			"queue_drops", dstats.Dropped,
		)
	})
}

// runDevice captures frames from a local camera on a paced loop
func (a *Archiver) runDevice(ctx context.Context) error {
	if err := a.setupOffload(); err != nil {
		return err
	}

	cam, err := device.Open(device.Config{
		Index:  a.cfg.Device.Index,
		Width:  a.cfg.Device.Width,
		Height: a.cfg.Device.Height,
	})
	if err != nil {
		return err
	}
	defer cam.Close()

	stager, err := stage.NewStager(
		a.area.Dir(),
		a.cfg.Sample.Format,
		a.cfg.Sample.Quality,
		a.cfg.Storage.Prefix,
		cam.Source(),
	)
	if err != nil {
		return err
	}

	if err := a.life.advance(StateRunning); err != nil {
		return err
	}

	pacer := cadence.NewPacer(time.Duration(a.cfg.Sample.IntervalS * float64(time.Second)))
	tracker := cadence.NewTracker()

	slog.Info("archiver: device capture started",
		"source", cam.Source(),
		"interval_s", a.cfg.Sample.IntervalS,
	)

	for {
		if ctx.Err() != nil {
			slog.Info("archiver: shutdown requested")
			return nil
		}

		pacer.Begin()

		frame, err := cam.Capture()
		if err != nil {
			slog.Warn("archiver: capture miss", "error", err)
		} else {
			artifact, err := stager.Stage(frame)
			if err != nil {
				slog.Warn("archiver: failed to stage frame",
					"seq", frame.Seq,
					"error", err,
				)
			} else {
				a.dispatcher.Dispatch(artifact)
			}

			if n := tracker.Tick(); n%10 == 0 {
				dstats := a.dispatcher.Stats()
				slog.Info("archiver: progress",
					"frames", n,
					"rate", fmt.Sprintf("%.2f", tracker.Rate()),
					"uploaded", dstats.Uploaded,
					"queue_drops", dstats.Dropped,
				)
			}
		}

		if err := pacer.Wait(ctx); err != nil {
			slog.Info("archiver: shutdown requested")
			return nil
		}
	}
}

// runWatch uploads image files dropped into a local directory. Uploads
// run inline, so there is no dispatcher to drain afterwards.
func (a *Archiver) runWatch(ctx context.Context) error {
	store, err := offload.NewS3Store(a.cfg.Region)
	if err != nil {
		return err
	}
	a.uploader = offload.NewUploader(store, a.cfg.Storage.Bucket, a.cfg.Storage.KeepFiles)

	w, err := watch.New(watch.Config{
		Dir:     a.cfg.Watch.Dir,
		Prefix:  a.cfg.Storage.Prefix,
		Subpath: a.cfg.Watch.Subpath,
	}, a.uploader, dedup.NewSet())
	if err != nil {
		return err
	}

	if err := a.life.advance(StateRunning); err != nil {
		return err
	}
	return w.Run(ctx)
}

// runForward publishes a local camera to a Kinesis Video stream
func (a *Archiver) runForward(ctx context.Context) error {
	fw, err := forward.NewForwarder(forward.Config{
		StreamName:  a.cfg.Stream.Name,
		Region:      a.cfg.Region,
		DeviceIndex: a.cfg.Device.Index,
		Width:       a.cfg.Device.Width,
		Height:      a.cfg.Device.Height,
		FPS:         a.cfg.Forward.FPS,
	})
	if err != nil {
		return err
	}

	return a.runSource(ctx, fw, func() {
		slog.Info("archiver: progress", "uptime_s", fmt.Sprintf("%.0f", fw.Uptime().Seconds()))
	})
}

// runSource drives a pipeline-backed source until cancellation or its
// terminal result, logging progress along the way
func (a *Archiver) runSource(ctx context.Context, src Source, logStats func()) error {
	if err := src.Start(ctx); err != nil {
		return err
	}
	if err := a.life.advance(StateRunning); err != nil {
		src.Stop()
		return err
	}

	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("archiver: shutdown requested")
			return src.Stop()
		case err := <-src.Done():
			src.Stop()
			if err != nil {
				return err
			}
			slog.Info("archiver: source reached end of stream")
			return nil
		case <-ticker.C:
			if logStats != nil {
				logStats()
			}
		}
	}
}

func (a *Archiver) mustAdvance(next State) {
	if err := a.life.advance(next); err != nil {
		slog.Error("archiver: lifecycle error", "error", err)
	}
}

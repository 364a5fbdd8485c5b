// Archiverd samples video frames and offloads them to S3.
//
// It runs in one of four modes: extract frames from a Kinesis Video
// stream (stream), capture frames from a local camera (device), upload
// image files dropped into a directory (watch), or publish a local
// camera to a Kinesis Video stream (forward).
//
// Settings resolve in order: built-in defaults, then the YAML file
// given with -config, then environment variables, then flags. Flags
// win.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/e7canasta/frame-archiver/internal/archiver"
	"github.com/e7canasta/frame-archiver/internal/config"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML config file")
		mode       = flag.String("mode", "", "operating mode: stream, device, watch or forward")
		streamName = flag.String("stream", "", "Kinesis Video stream name")
		region     = flag.String("region", "", "AWS region")
		interval   = flag.Float64("interval", 0, "seconds between samples")
		format     = flag.String("format", "", "image format: jpg or png")
		quality    = flag.Int("quality", 0, "JPEG quality (1-100)")
		bucket     = flag.String("bucket", "", "S3 bucket for uploads")
		prefix     = flag.String("prefix", "", "S3 key prefix")
		keepFiles  = flag.Bool("keep-files", false, "keep local files after successful upload")
		workers    = flag.Int("workers", 0, "upload worker count")
		camera     = flag.Int("camera", 0, "camera device index")
		width      = flag.Int("width", 0, "capture width in pixels")
		height     = flag.Int("height", 0, "capture height in pixels")
		fps        = flag.Int("fps", 0, "publish framerate for forward mode")
		dir        = flag.String("dir", "", "directory to watch")
		subpath    = flag.String("subpath", "", "key subpath for watched files")
		debug      = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	cfg.ApplyEnv()

	// Only flags the user actually set override the file and the
	// environment
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "mode":
			cfg.Mode = *mode
		case "stream":
			cfg.Stream.Name = *streamName
		case "region":
			cfg.Region = *region
		case "interval":
			cfg.Sample.IntervalS = *interval
		case "format":
			cfg.Sample.Format = *format
		case "quality":
			cfg.Sample.Quality = *quality
		case "bucket":
			cfg.Storage.Bucket = *bucket
		case "prefix":
			cfg.Storage.Prefix = *prefix
		case "keep-files":
			cfg.Storage.KeepFiles = *keepFiles
		case "workers":
			cfg.Storage.Workers = *workers
		case "camera":
			cfg.Device.Index = *camera
		case "width":
			cfg.Device.Width = *width
		case "height":
			cfg.Device.Height = *height
		case "fps":
			cfg.Forward.FPS = *fps
		case "dir":
			cfg.Watch.Dir = *dir
		case "subpath":
			cfg.Watch.Subpath = *subpath
		case "debug":
			cfg.Log.Level = "debug"
		}
	})

	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	setupLogging(cfg, *debug)

	slog.Info("archiverd starting",
		"mode", cfg.Mode,
		"region", cfg.Region,
	)

	arch, err := archiver.New(cfg)
	if err != nil {
		slog.Error("failed to create archiver", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- arch.Run(ctx)
	}()

	var runErr error
	select {
	case sig := <-sigChan:
		slog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
		runErr = <-errChan
	case runErr = <-errChan:
	}

	if runErr != nil {
		slog.Error("archiverd exited with error", "error", runErr)
		os.Exit(1)
	}
	slog.Info("archiverd exited cleanly")
}

// setupLogging installs the process-wide logger per the configuration.
// The -debug flag forces debug level regardless of the config.
func setupLogging(cfg *config.Config, debug bool) {
	level := slog.LevelInfo
	switch cfg.Log.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Log.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

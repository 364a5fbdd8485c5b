package config

import (
	"fmt"
	"strings"
)

// Validate checks if the configuration is valid and fills the remaining
// mode-dependent defaults
func Validate(cfg *Config) error {
	// Validate mode
	switch cfg.Mode {
	case ModeStream, ModeDevice, ModeWatch, ModeForward:
	case "":
		cfg.Mode = ModeStream
	default:
		return fmt.Errorf("unknown mode %q (must be stream, device, watch or forward)", cfg.Mode)
	}

	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	// Validate sampling settings
	if cfg.Sample.IntervalS <= 0 {
		return fmt.Errorf("sample.interval_s must be > 0, got %v", cfg.Sample.IntervalS)
	}
	cfg.Sample.Format = strings.ToLower(cfg.Sample.Format)
	if cfg.Sample.Format == "jpeg" {
		cfg.Sample.Format = "jpg"
	}
	if cfg.Sample.Format != "jpg" && cfg.Sample.Format != "png" {
		return fmt.Errorf("sample.format must be jpg or png, got %q", cfg.Sample.Format)
	}
	// JPEG quality outside 1-100 is clamped by the encoder, not rejected here

	// Per-mode required settings
	switch cfg.Mode {
	case ModeStream:
		if cfg.Stream.Name == "" {
			return fmt.Errorf("stream.name is required in stream mode")
		}
		if cfg.Storage.Bucket == "" {
			return fmt.Errorf("storage.bucket is required in stream mode")
		}
	case ModeDevice:
		if cfg.Storage.Bucket == "" {
			return fmt.Errorf("storage.bucket is required in device mode")
		}
		if cfg.Device.Index < 0 {
			return fmt.Errorf("device.index must be >= 0, got %d", cfg.Device.Index)
		}
	case ModeWatch:
		if cfg.Storage.Bucket == "" {
			return fmt.Errorf("storage.bucket is required in watch mode")
		}
		if cfg.Watch.Dir == "" {
			return fmt.Errorf("watch.dir is required in watch mode")
		}
	case ModeForward:
		if cfg.Stream.Name == "" {
			return fmt.Errorf("stream.name is required in forward mode")
		}
	}

	// Fill the mode-dependent prefix default, then normalize to a single
	// trailing slash
	if cfg.Storage.Prefix == "" {
		if cfg.Mode == ModeStream {
			cfg.Storage.Prefix = "frames/"
		} else {
			cfg.Storage.Prefix = "uploads/images/temp/"
		}
	}
	cfg.Storage.Prefix = strings.TrimRight(cfg.Storage.Prefix, "/") + "/"

	// Dispatcher sizing defaults
	if cfg.Storage.Workers <= 0 {
		cfg.Storage.Workers = 4
	}
	if cfg.Storage.QueueDepth <= 0 {
		cfg.Storage.QueueDepth = 16
	}

	// Device capture defaults
	if cfg.Device.Width <= 0 {
		cfg.Device.Width = 640
	}
	if cfg.Device.Height <= 0 {
		cfg.Device.Height = 480
	}

	if cfg.Forward.FPS <= 0 {
		cfg.Forward.FPS = 15
	}

	cfg.Watch.Subpath = strings.Trim(cfg.Watch.Subpath, "/")
	if cfg.Watch.Subpath == "" {
		cfg.Watch.Subpath = "snapshots"
	}

	// Logging defaults
	switch cfg.Log.Level {
	case "":
		cfg.Log.Level = "info"
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", cfg.Log.Level)
	}
	switch cfg.Log.Format {
	case "":
		cfg.Log.Format = "json"
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text, got %q", cfg.Log.Format)
	}

	return nil
}

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Mode != ModeStream {
		t.Errorf("default mode = %q, want %q", cfg.Mode, ModeStream)
	}
	if cfg.Region != "us-east-1" {
		t.Errorf("default region = %q, want us-east-1", cfg.Region)
	}
	if cfg.Sample.IntervalS != 1.0 {
		t.Errorf("default interval = %v, want 1.0", cfg.Sample.IntervalS)
	}
	if cfg.Sample.Format != "jpg" {
		t.Errorf("default format = %q, want jpg", cfg.Sample.Format)
	}
	if cfg.Sample.Quality != 85 {
		t.Errorf("default quality = %d, want 85", cfg.Sample.Quality)
	}
	if cfg.Storage.Workers != 4 {
		t.Errorf("default workers = %d, want 4", cfg.Storage.Workers)
	}
	if cfg.Storage.QueueDepth != 16 {
		t.Errorf("default queue depth = %d, want 16", cfg.Storage.QueueDepth)
	}
	if cfg.Device.Width != 640 || cfg.Device.Height != 480 {
		t.Errorf("default resolution = %dx%d, want 640x480", cfg.Device.Width, cfg.Device.Height)
	}
	if cfg.Forward.FPS != 15 {
		t.Errorf("default forward fps = %d, want 15", cfg.Forward.FPS)
	}
	if cfg.Watch.Dir != "/tmp" {
		t.Errorf("default watch dir = %q, want /tmp", cfg.Watch.Dir)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "archiver.yaml")

	content := `
mode: device
region: eu-west-1
sample:
  interval_s: 2.5
  format: png
storage:
  bucket: my-bucket
  workers: 8
device:
  index: 1
  width: 1280
  height: 720
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Mode != ModeDevice {
		t.Errorf("mode = %q, want device", cfg.Mode)
	}
	if cfg.Region != "eu-west-1" {
		t.Errorf("region = %q, want eu-west-1", cfg.Region)
	}
	if cfg.Sample.IntervalS != 2.5 {
		t.Errorf("interval = %v, want 2.5", cfg.Sample.IntervalS)
	}
	if cfg.Sample.Format != "png" {
		t.Errorf("format = %q, want png", cfg.Sample.Format)
	}
	if cfg.Storage.Bucket != "my-bucket" {
		t.Errorf("bucket = %q, want my-bucket", cfg.Storage.Bucket)
	}
	if cfg.Storage.Workers != 8 {
		t.Errorf("workers = %d, want 8", cfg.Storage.Workers)
	}
	if cfg.Device.Width != 1280 || cfg.Device.Height != 720 {
		t.Errorf("resolution = %dx%d, want 1280x720", cfg.Device.Width, cfg.Device.Height)
	}

	// Fields absent from the file keep their defaults
	if cfg.Sample.Quality != 85 {
		t.Errorf("quality = %d, want default 85", cfg.Sample.Quality)
	}
	if cfg.Forward.FPS != 15 {
		t.Errorf("forward fps = %d, want default 15", cfg.Forward.FPS)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/archiver.yaml")
	if err == nil {
		t.Error("expected error for missing config file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("mode: [unclosed"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	_, err := Load(path)
	if err == nil {
		t.Error("expected error for invalid YAML, got nil")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("KVS_STREAM_NAME", "env-stream")
	t.Setenv("S3_BUCKET_NAME", "env-bucket")
	t.Setenv("AWS_REGION", "ap-southeast-1")
	t.Setenv("IMAGE_INTERVAL", "0.5")
	t.Setenv("IMAGE_FORMAT", "png")
	t.Setenv("IMAGE_QUALITY", "70")
	t.Setenv("S3_PREFIX", "custom/prefix/")

	cfg := Default()
	cfg.ApplyEnv()

	if cfg.Stream.Name != "env-stream" {
		t.Errorf("stream name = %q, want env-stream", cfg.Stream.Name)
	}
	if cfg.Storage.Bucket != "env-bucket" {
		t.Errorf("bucket = %q, want env-bucket", cfg.Storage.Bucket)
	}
	if cfg.Region != "ap-southeast-1" {
		t.Errorf("region = %q, want ap-southeast-1", cfg.Region)
	}
	if cfg.Sample.IntervalS != 0.5 {
		t.Errorf("interval = %v, want 0.5", cfg.Sample.IntervalS)
	}
	if cfg.Sample.Format != "png" {
		t.Errorf("format = %q, want png", cfg.Sample.Format)
	}
	if cfg.Sample.Quality != 70 {
		t.Errorf("quality = %d, want 70", cfg.Sample.Quality)
	}
	if cfg.Storage.Prefix != "custom/prefix/" {
		t.Errorf("prefix = %q, want custom/prefix/", cfg.Storage.Prefix)
	}
}

func TestApplyEnv_InvalidValuesKeepDefaults(t *testing.T) {
	t.Setenv("IMAGE_INTERVAL", "not-a-number")
	t.Setenv("IMAGE_QUALITY", "high")

	cfg := Default()
	cfg.ApplyEnv()

	if cfg.Sample.IntervalS != 1.0 {
		t.Errorf("interval = %v, want default 1.0 for unparseable env", cfg.Sample.IntervalS)
	}
	if cfg.Sample.Quality != 85 {
		t.Errorf("quality = %d, want default 85 for unparseable env", cfg.Sample.Quality)
	}
}

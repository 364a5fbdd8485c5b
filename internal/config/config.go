package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Operating modes
const (
	ModeStream  = "stream"  // sample frames from a Kinesis Video Stream
	ModeDevice  = "device"  // sample frames from a local camera
	ModeWatch   = "watch"   // offload files dropped into a directory
	ModeForward = "forward" // publish a local camera to a Kinesis Video Stream
)

// Config represents the complete archiver configuration
type Config struct {
	Mode    string        `yaml:"mode"`   // stream, device, watch, forward
	Region  string        `yaml:"region"` // AWS region for KVS and S3
	Stream  StreamConfig  `yaml:"stream"`
	Sample  SampleConfig  `yaml:"sample"`
	Storage StorageConfig `yaml:"storage"`
	Device  DeviceConfig  `yaml:"device"`
	Forward ForwardConfig `yaml:"forward"`
	Watch   WatchConfig   `yaml:"watch"`
	Log     LogConfig     `yaml:"log"`
}

// StreamConfig contains Kinesis Video Stream settings
type StreamConfig struct {
	Name string `yaml:"name"` // stream name (required for stream/forward modes)
}

// SampleConfig contains frame sampling settings
type SampleConfig struct {
	IntervalS float64 `yaml:"interval_s"` // seconds between samples
	Format    string  `yaml:"format"`     // jpg or png
	Quality   int     `yaml:"quality"`    // JPEG quality 1-100 (encoder clamps out-of-range)
}

// StorageConfig contains S3 offload settings
type StorageConfig struct {
	Bucket     string `yaml:"bucket"`      // bucket name (required except forward mode)
	Prefix     string `yaml:"prefix"`      // key prefix, normalized to end with "/"
	KeepFiles  bool   `yaml:"keep_files"`  // keep local files after successful upload
	Workers    int    `yaml:"workers"`     // upload worker count
	QueueDepth int    `yaml:"queue_depth"` // pending upload queue size
}

// DeviceConfig contains local camera settings
type DeviceConfig struct {
	Index  int `yaml:"index"`  // camera device index
	Width  int `yaml:"width"`  // requested capture width
	Height int `yaml:"height"` // requested capture height
}

// ForwardConfig contains device-to-stream publishing settings
type ForwardConfig struct {
	FPS int `yaml:"fps"` // target publish framerate
}

// WatchConfig contains directory watch settings
type WatchConfig struct {
	Dir     string `yaml:"dir"`     // directory to watch (non-recursive)
	Subpath string `yaml:"subpath"` // fixed key subpath under the prefix
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or text
}

// Default returns a configuration populated with default values
func Default() *Config {
	return &Config{
		Mode:   ModeStream,
		Region: "us-east-1",
		Sample: SampleConfig{
			IntervalS: 1.0,
			Format:    "jpg",
			Quality:   85,
		},
		Storage: StorageConfig{
			Workers:    4,
			QueueDepth: 16,
		},
		Device: DeviceConfig{
			Index:  0,
			Width:  640,
			Height: 480,
		},
		Forward: ForwardConfig{
			FPS: 15,
		},
		Watch: WatchConfig{
			Dir:     "/tmp",
			Subpath: "snapshots",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads and parses a YAML configuration file over the defaults.
//
// The result is not validated; callers apply environment and flag
// overrides first, then call Validate.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overlays settings from environment variables.
//
// The variable names match the legacy deployment surface, so an
// environment written for it keeps working unchanged.
func (c *Config) ApplyEnv() {
	c.Stream.Name = getEnvString("KVS_STREAM_NAME", c.Stream.Name)
	c.Storage.Bucket = getEnvString("S3_BUCKET_NAME", c.Storage.Bucket)
	c.Region = getEnvString("AWS_REGION", c.Region)
	c.Sample.IntervalS = getEnvFloat("IMAGE_INTERVAL", c.Sample.IntervalS)
	c.Sample.Format = getEnvString("IMAGE_FORMAT", c.Sample.Format)
	c.Sample.Quality = getEnvInt("IMAGE_QUALITY", c.Sample.Quality)
	c.Storage.Prefix = getEnvString("S3_PREFIX", c.Storage.Prefix)
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

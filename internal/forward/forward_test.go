package forward

import (
	"strings"
	"testing"
)

func validConfig() Config {
	return Config{
		StreamName:  "front-door",
		Region:      "us-east-1",
		DeviceIndex: 0,
		Width:       640,
		Height:      480,
		FPS:         15,
	}
}

func TestNewForwarder_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{
			name:   "empty stream name",
			mutate: func(c *Config) { c.StreamName = "" },
			errMsg: "stream name is required",
		},
		{
			name:   "empty region",
			mutate: func(c *Config) { c.Region = "" },
			errMsg: "region is required",
		},
		{
			name:   "negative device index",
			mutate: func(c *Config) { c.DeviceIndex = -1 },
			errMsg: "invalid camera index",
		},
		{
			name:   "zero width",
			mutate: func(c *Config) { c.Width = 0 },
			errMsg: "invalid capture size",
		},
		{
			name:   "zero height",
			mutate: func(c *Config) { c.Height = 0 },
			errMsg: "invalid capture size",
		},
		{
			name:   "zero fps",
			mutate: func(c *Config) { c.FPS = 0 },
			errMsg: "invalid fps",
		},
		{
			name:   "fps too high",
			mutate: func(c *Config) { c.FPS = 200 },
			errMsg: "invalid fps",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			_, err := NewForwarder(cfg)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.errMsg)
			}
		})
	}
}

func TestNewForwarder_ValidConfig(t *testing.T) {
	fw, err := NewForwarder(validConfig())
	if err != nil {
		// Validation passed, so the only remaining failure is the
		// GStreamer probe
		t.Skipf("GStreamer not available: %v", err)
	}
	if fw == nil {
		t.Fatal("expected forwarder, got nil")
	}
}

func TestForwarder_StopWithoutStart(t *testing.T) {
	fw, err := NewForwarder(validConfig())
	if err != nil {
		t.Skipf("GStreamer not available: %v", err)
	}

	if err := fw.Stop(); err != nil {
		t.Errorf("Stop before Start returned error: %v", err)
	}
	if err := fw.Stop(); err != nil {
		t.Errorf("second Stop returned error: %v", err)
	}
}

func TestForwarder_StartStop(t *testing.T) {
	t.Skip("integration test: requires a V4L2 camera and the KVS GStreamer plugin")
}

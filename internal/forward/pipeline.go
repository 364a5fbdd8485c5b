package forward

import (
	"fmt"
	"log/slog"

	"github.com/tinyzimmer/go-gst/gst"

	"github.com/e7canasta/frame-archiver/internal/pipeline"
)

// buildPipeline wires the forwarding graph:
//
//	v4l2src → videoconvert → videorate → capsfilter(I420, WxH, fps) →
//	x264enc → h264parse → kvssink
//
// Every element has static pads, so the whole chain links up front.
// The pipeline is configured but not started.
func buildPipeline(cfg Config) (*gst.Pipeline, error) {
	// Initialize GStreamer (safe to call multiple times)
	gst.Init(nil)

	p, err := gst.NewPipeline("")
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	src, err := gst.NewElement("v4l2src")
	if err != nil {
		return nil, fmt.Errorf("failed to create v4l2src: %w", err)
	}
	src.SetProperty("device", fmt.Sprintf("/dev/video%d", cfg.DeviceIndex))

	converter, err := gst.NewElement("videoconvert")
	if err != nil {
		return nil, fmt.Errorf("failed to create videoconvert: %w", err)
	}

	videorate, err := gst.NewElement("videorate")
	if err != nil {
		return nil, fmt.Errorf("failed to create videorate: %w", err)
	}

	capsfilter, err := gst.NewElement("capsfilter")
	if err != nil {
		return nil, fmt.Errorf("failed to create capsfilter: %w", err)
	}
	capsStr := pipeline.I420Caps(cfg.Width, cfg.Height, cfg.FPS)
	capsfilter.SetProperty("caps", gst.NewCapsFromString(capsStr))

	encoder, err := gst.NewElement("x264enc")
	if err != nil {
		return nil, fmt.Errorf("failed to create x264enc: %w", err)
	}
	// Live-streaming profile: no B-frames, a keyframe every 45 frames,
	// modest bitrate
	encoder.SetProperty("bframes", 0)
	encoder.SetProperty("key-int-max", 45)
	encoder.SetProperty("bitrate", 500)
	encoder.SetProperty("tune", 4) // zerolatency

	parser, err := gst.NewElement("h264parse")
	if err != nil {
		return nil, fmt.Errorf("failed to create h264parse: %w", err)
	}

	sink, err := gst.NewElement("kvssink")
	if err != nil {
		return nil, fmt.Errorf("failed to create kvssink (KVS GStreamer plugin required): %w", err)
	}
	sink.SetProperty("stream-name", cfg.StreamName)
	sink.SetProperty("aws-region", cfg.Region)
	sink.SetProperty("storage-size", 512)

	p.AddMany(src, converter, videorate, capsfilter, encoder, parser, sink)

	if err := gst.ElementLinkMany(src, converter, videorate, capsfilter, encoder, parser, sink); err != nil {
		return nil, fmt.Errorf("failed to link forwarding chain: %w", err)
	}

	slog.Debug("forward: pipeline created",
		"device", cfg.DeviceIndex,
		"stream", cfg.StreamName,
		"caps", capsStr,
	)

	return p, nil
}

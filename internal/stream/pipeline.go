package stream

import (
	"fmt"
	"log/slog"

	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"

	"github.com/e7canasta/frame-archiver/internal/cadence"
	"github.com/e7canasta/frame-archiver/internal/pipeline"
)

// pipelineParts holds the element references the extractor needs after
// construction
type pipelineParts struct {
	pipeline  *gst.Pipeline
	appSink   *app.Sink
	kvsSrc    *gst.Element
	h264Parse *gst.Element
}

// buildPipeline wires the extraction graph:
//
//	kvssrc → h264parse → avdec_h264 → videoconvert → videorate →
//	capsfilter(RGB, framerate=num/den) → tee ─→ queue → fakesink
//	                                         └→ queue → appsink
//
// The fakesink branch consumes the stream continuously so the appsink
// branch can sample at its reduced rate without stalling the source.
// The pipeline is configured but not started; kvssrc pads are dynamic
// and get linked to h264parse from the pad-added callback.
func buildPipeline(streamName, region string, intervalS float64) (*pipelineParts, error) {
	// Initialize GStreamer (safe to call multiple times)
	gst.Init(nil)

	p, err := gst.NewPipeline("")
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	kvssrc, err := gst.NewElement("kvssrc")
	if err != nil {
		return nil, fmt.Errorf("failed to create kvssrc (KVS GStreamer plugin required): %w", err)
	}
	kvssrc.SetProperty("stream-name", streamName)
	kvssrc.SetProperty("aws-region", region)

	h264parse, err := gst.NewElement("h264parse")
	if err != nil {
		return nil, fmt.Errorf("failed to create h264parse: %w", err)
	}

	decoder, err := gst.NewElement("avdec_h264")
	if err != nil {
		return nil, fmt.Errorf("failed to create avdec_h264: %w", err)
	}

	converter, err := gst.NewElement("videoconvert")
	if err != nil {
		return nil, fmt.Errorf("failed to create videoconvert: %w", err)
	}

	videorate, err := gst.NewElement("videorate")
	if err != nil {
		return nil, fmt.Errorf("failed to create videorate: %w", err)
	}
	videorate.SetProperty("drop-only", true) // only drop frames, never duplicate

	capsfilter, err := gst.NewElement("capsfilter")
	if err != nil {
		return nil, fmt.Errorf("failed to create capsfilter: %w", err)
	}
	num, den := cadence.Fraction(intervalS)
	capsStr := pipeline.RGBCaps(num, den)
	capsfilter.SetProperty("caps", gst.NewCapsFromString(capsStr))

	tee, err := gst.NewElement("tee")
	if err != nil {
		return nil, fmt.Errorf("failed to create tee: %w", err)
	}

	queueKeep, err := gst.NewElement("queue")
	if err != nil {
		return nil, fmt.Errorf("failed to create keep-alive queue: %w", err)
	}

	fakesink, err := gst.NewElement("fakesink")
	if err != nil {
		return nil, fmt.Errorf("failed to create fakesink: %w", err)
	}
	fakesink.SetProperty("sync", false)

	queueTap, err := gst.NewElement("queue")
	if err != nil {
		return nil, fmt.Errorf("failed to create extraction queue: %w", err)
	}

	appsink, err := app.NewAppSink()
	if err != nil {
		return nil, fmt.Errorf("failed to create appsink: %w", err)
	}
	appsink.SetProperty("sync", false)    // no sync with clock (real-time)
	appsink.SetProperty("max-buffers", 1) // keep only the latest frame
	appsink.SetProperty("drop", true)     // drop old frames

	p.AddMany(
		kvssrc,
		h264parse,
		decoder,
		converter,
		videorate,
		capsfilter,
		tee,
		queueKeep,
		fakesink,
		queueTap,
		appsink.Element,
	)

	// Static chain up to the tee (kvssrc links in pad-added)
	if err := gst.ElementLinkMany(
		h264parse,
		decoder,
		converter,
		videorate,
		capsfilter,
		tee,
	); err != nil {
		return nil, fmt.Errorf("failed to link extraction chain: %w", err)
	}

	if err := gst.ElementLinkMany(queueKeep, fakesink); err != nil {
		return nil, fmt.Errorf("failed to link keep-alive branch: %w", err)
	}
	if err := gst.ElementLinkMany(queueTap, appsink.Element); err != nil {
		return nil, fmt.Errorf("failed to link extraction branch: %w", err)
	}

	// Tee branches hang off request pads
	if err := linkTeeBranch(tee, queueKeep); err != nil {
		return nil, fmt.Errorf("failed to link tee keep-alive branch: %w", err)
	}
	if err := linkTeeBranch(tee, queueTap); err != nil {
		return nil, fmt.Errorf("failed to link tee extraction branch: %w", err)
	}

	slog.Debug("stream: pipeline created",
		"stream", streamName,
		"caps", capsStr,
	)

	return &pipelineParts{
		pipeline:  p,
		appSink:   appsink,
		kvsSrc:    kvssrc,
		h264Parse: h264parse,
	}, nil
}

// linkTeeBranch requests a tee src pad and links it to the branch queue
func linkTeeBranch(tee, queue *gst.Element) error {
	srcPad := tee.GetRequestPad("src_%u")
	if srcPad == nil {
		return fmt.Errorf("failed to request tee src pad")
	}
	sinkPad := queue.GetStaticPad("sink")
	if sinkPad == nil {
		return fmt.Errorf("failed to get queue sink pad")
	}
	if ret := srcPad.Link(sinkPad); ret != gst.PadLinkOK {
		return fmt.Errorf("failed to link tee pad: %v", ret)
	}
	return nil
}

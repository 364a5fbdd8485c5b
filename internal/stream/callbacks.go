package stream

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"

	"github.com/e7canasta/frame-archiver/internal/types"
)

// FrameHandler consumes one decoded frame. It runs on the GStreamer
// streaming thread: return gst.FlowOK to keep extracting, gst.FlowError
// to stop the pipeline.
type FrameHandler func(frame *types.Frame) gst.FlowReturn

// sampleContext carries the state shared with the appsink callback
type sampleContext struct {
	handler FrameHandler
	source  string

	frameCount    *atomic.Uint64
	framesDropped *atomic.Uint64
	bytesRead     *atomic.Uint64
}

// onNewSample pulls a decoded RGB frame from the appsink and hands it
// to the registered handler. Recoverable problems (failed pull, empty
// buffer, missing caps) drop the frame and return gst.FlowOK so the
// pipeline keeps running.
func onNewSample(sink *app.Sink, ctx *sampleContext) gst.FlowReturn {
	sample := sink.PullSample()
	if sample == nil {
		slog.Warn("stream: failed to pull sample from appsink, skipping frame")
		return gst.FlowOK
	}

	buffer := sample.GetBuffer()
	if buffer == nil {
		slog.Warn("stream: failed to get buffer from sample, skipping frame")
		return gst.FlowOK
	}

	mapInfo := buffer.Map(gst.MapRead)
	defer buffer.Unmap()

	data := mapInfo.Bytes()
	if data == nil || len(data) == 0 {
		ctx.framesDropped.Add(1)
		slog.Warn("stream: unmappable or empty buffer, dropping frame")
		return gst.FlowOK
	}

	width, height, ok := sampleDimensions(sample)
	if !ok {
		ctx.framesDropped.Add(1)
		slog.Warn("stream: sample caps missing dimensions, dropping frame")
		return gst.FlowOK
	}

	// Copy before Unmap: the mapped memory belongs to the buffer
	frameData := make([]byte, len(data))
	copy(frameData, data)

	seq := ctx.frameCount.Add(1)
	ctx.bytesRead.Add(uint64(len(frameData)))

	frame := &types.Frame{
		Seq:       seq,
		Timestamp: time.Now(),
		Width:     width,
		Height:    height,
		Data:      frameData,
		Source:    ctx.source,
		TraceID:   uuid.New().String(),
	}

	slog.Debug("stream: frame extracted",
		"seq", seq,
		"width", width,
		"height", height,
		"bytes", len(frameData),
	)

	return ctx.handler(frame)
}

// sampleDimensions reads the negotiated width and height from the
// sample caps. The graph leaves geometry unconstrained, so this is the
// only place the decoded size is known.
func sampleDimensions(sample *gst.Sample) (width, height int, ok bool) {
	caps := sample.GetCaps()
	if caps == nil {
		return 0, 0, false
	}
	structure := caps.GetStructureAt(0)
	if structure == nil {
		return 0, 0, false
	}
	w, err := structure.GetValue("width")
	if err != nil {
		return 0, 0, false
	}
	h, err := structure.GetValue("height")
	if err != nil {
		return 0, 0, false
	}
	width, wOK := w.(int)
	height, hOK := h.(int)
	if !wOK || !hOK || width <= 0 || height <= 0 {
		return 0, 0, false
	}
	return width, height, true
}

// onPadAdded links the kvssrc dynamic pad to h264parse once the stream
// metadata arrives
func onPadAdded(srcPad *gst.Pad, parser *gst.Element) {
	slog.Debug("stream: pad added", "pad", srcPad.GetName())

	sinkPad := parser.GetStaticPad("sink")
	if sinkPad == nil {
		slog.Error("stream: failed to get h264parse sink pad")
		return
	}

	if sinkPad.IsLinked() {
		slog.Debug("stream: h264parse sink pad already linked")
		return
	}

	if ret := srcPad.Link(sinkPad); ret != gst.PadLinkOK {
		slog.Error("stream: failed to link source pad", "result", ret)
		return
	}

	slog.Debug("stream: source linked to h264parse")
}

// Package stream extracts decoded RGB frames from an Amazon Kinesis
// Video stream at a fixed cadence.
//
// # Pipeline
//
// The extractor builds one GStreamer pipeline per stream:
//
//	kvssrc → h264parse → avdec_h264 → videoconvert → videorate →
//	capsfilter(RGB, framerate=num/den) → tee ─→ queue → fakesink
//	                                         └→ queue → appsink
//
// videorate drops frames down to the configured cadence and the
// capsfilter pins the output format, so the appsink only ever sees the
// frames worth keeping. The fakesink branch keeps consuming the source
// at full rate, which prevents the reduced-rate branch from stalling
// upstream buffering.
//
// # Usage
//
//	ex, err := stream.NewExtractor(stream.Config{
//		StreamName: "front-door",
//		Region:     "us-east-1",
//		IntervalS:  1.0,
//	}, func(frame *types.Frame) gst.FlowReturn {
//		// runs on the streaming thread, keep it short
//		return gst.FlowOK
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := ex.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
//	defer ex.Stop()
//
//	if err := <-ex.Done(); err != nil {
//		// fatal pipeline error, already classified and logged
//	}
//
// The handler runs synchronously on the GStreamer streaming thread:
// blocking there blocks the pipeline, so hand frames off to a queue and
// return immediately.
//
// Frames arrive at the size the decoder negotiated. Credentials come
// from the ambient AWS chain used by the kvssrc plugin.
package stream

// Package pipeline holds the GStreamer glue shared by the stream and
// forward modes: initialization, availability probing, caps construction,
// bus monitoring and error classification.
package pipeline

import (
	"fmt"

	"github.com/tinyzimmer/go-gst/gst"
)

// CheckAvailable verifies GStreamer is installed and functional.
//
// Fail-fast probe for constructors: initializes the library and creates
// a throwaway element.
func CheckAvailable() error {
	// Initialize GStreamer (safe to call multiple times)
	gst.Init(nil)

	elem, err := gst.NewElement("fakesrc")
	if err != nil {
		return fmt.Errorf("GStreamer not available or not properly installed: %w", err)
	}
	elem.SetState(gst.StateNull)

	return nil
}

// RGBCaps builds raw RGB caps constraining only the framerate.
//
// Width and height stay unconstrained so the decoder's native geometry
// negotiates through. The fraction comes reduced from cadence.Fraction.
func RGBCaps(num, den int) string {
	return fmt.Sprintf("video/x-raw,format=RGB,framerate=%d/%d", num, den)
}

// I420Caps builds raw caps with fixed geometry for the encode side
func I420Caps(width, height, fps int) string {
	return fmt.Sprintf("video/x-raw,format=I420,width=%d,height=%d,framerate=%d/1",
		width, height, fps)
}

// Destroy sets the pipeline to NULL state, releasing its resources.
// Safe to call on a nil pipeline.
func Destroy(p *gst.Pipeline) error {
	if p == nil {
		return nil
	}
	if err := p.SetState(gst.StateNull); err != nil {
		return fmt.Errorf("failed to set pipeline to NULL: %w", err)
	}
	return nil
}

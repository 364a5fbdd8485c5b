package types

import "time"

// Frame is a single decoded video frame with metadata
type Frame struct {
	// Seq is the monotonic sequence number
	Seq uint64
	// Timestamp is when the frame was captured/decoded
	Timestamp time.Time
	// Width in pixels
	Width int
	// Height in pixels
	Height int
	// Data contains the raw pixel data (RGB, 3 bytes per pixel)
	Data []byte
	// Source identifies the producer (stream name or camera index)
	Source string
	// TraceID is a unique identifier for correlating logs across stages
	TraceID string
}

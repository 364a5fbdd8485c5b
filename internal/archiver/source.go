package archiver

import "context"

// Source is a pipeline-backed producer with its own lifetime. The
// stream extractor and the camera forwarder both satisfy it; the
// archiver drives either one through the same loop.
type Source interface {
	// Start begins production. The context governs the whole run:
	// cancelling it ends production cleanly.
	Start(ctx context.Context) error

	// Done reports the terminal result exactly once: nil after a clean
	// end (cancellation or end of stream), an error after a fatal
	// pipeline failure.
	Done() <-chan error

	// Stop halts production and releases the pipeline. Idempotent and
	// safe to call before Start.
	Stop() error
}

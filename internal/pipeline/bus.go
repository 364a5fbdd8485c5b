package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tinyzimmer/go-gst/gst"
)

// BusError is a fatal pipeline error with its bus classification
type BusError struct {
	// Category is the classified failure kind
	Category ErrorCategory
	// Message is the GStreamer error message
	Message string
	// Debug is the GStreamer debug string
	Debug string
}

func (e *BusError) Error() string {
	return fmt.Sprintf("pipeline error [%s]: %s", e.Category.String(), e.Message)
}

// Monitor polls the pipeline bus until the context is cancelled, the
// stream ends, or the pipeline reports an error.
//
// Cancellation and end-of-stream both end input cleanly and return nil;
// a bus error returns a *BusError. State changes of the pipeline itself
// are logged at debug level.
func Monitor(ctx context.Context, p *gst.Pipeline, source string) error {
	bus := p.GetPipelineBus()

	for {
		select {
		case <-ctx.Done():
			slog.Debug("pipeline: context cancelled, stopping bus monitor", "source", source)
			return nil

		default:
			// Poll with a short timeout for responsive shutdown
			msg := bus.TimedPop(50 * time.Millisecond)
			if msg == nil {
				continue
			}

			switch msg.Type() {
			case gst.MessageEOS:
				slog.Info("pipeline: end of stream received", "source", source)
				return nil

			case gst.MessageError:
				gerr := msg.ParseError()
				category := Classify(gerr)

				slog.Error("pipeline: error",
					"error", gerr.Error(),
					"debug", gerr.DebugString(),
					"category", category.String(),
					"source", source,
				)
				return &BusError{
					Category: category,
					Message:  gerr.Error(),
					Debug:    gerr.DebugString(),
				}

			case gst.MessageStateChanged:
				if msg.Source() == p.GetName() {
					oldState, newState := msg.ParseStateChanged()
					if newState == gst.StatePlaying {
						slog.Info("pipeline: reached PLAYING state", "source", source)
					} else {
						slog.Debug("pipeline: state changed",
							"source", source,
							"from", oldState,
							"to", newState,
						)
					}
				}
			}
		}
	}
}

// Package cadence provides the sampling-rate primitives: imperative
// pacing for synchronous capture loops and the framerate fraction used
// by declarative pipeline rate conversion.
package cadence

import (
	"context"
	"time"
)

// Pacer spaces loop iterations a fixed interval apart.
//
// The interval measures start-to-start: Begin marks the cycle start before
// the work, Wait sleeps for whatever remains of the interval after it. A
// cycle that overruns the interval proceeds immediately; the cadence is a
// soft target, overruns are never repaid.
type Pacer struct {
	interval   time.Duration
	cycleStart time.Time
}

// NewPacer creates a pacer with the given cycle interval
func NewPacer(interval time.Duration) *Pacer {
	return &Pacer{interval: interval}
}

// Interval returns the configured cycle interval
func (p *Pacer) Interval() time.Duration {
	return p.interval
}

// Begin marks the start of a cycle
func (p *Pacer) Begin() {
	p.cycleStart = time.Now()
}

// Wait sleeps until the interval since Begin has elapsed.
//
// The sleep is never negative: a cycle that already overran the interval
// proceeds immediately. Returns the context error when ctx is cancelled
// during the sleep.
func (p *Pacer) Wait(ctx context.Context) error {
	remaining := p.interval - time.Since(p.cycleStart)
	if remaining <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(remaining)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

package cadence

import (
	"math"
	"sync/atomic"
	"time"
)

// Fraction converts a sampling interval in seconds to the framerate
// fraction num/den that yields one frame per interval.
//
// The interval is taken at microsecond resolution and the fraction is
// reduced, so fractional intervals stay exact: 1.5s becomes 2/3, not a
// truncated integer rate.
func Fraction(intervalS float64) (num, den int) {
	us := int(math.Round(intervalS * 1e6))
	if us <= 0 {
		us = 1
	}
	d := gcd(1000000, us)
	return 1000000 / d, us / d
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// Tracker measures the observed rate of a repeating event.
//
// Safe for concurrent use: the producer ticks, any goroutine reads.
type Tracker struct {
	started time.Time
	count   atomic.Uint64
}

// NewTracker starts measuring from now
func NewTracker() *Tracker {
	return &Tracker{started: time.Now()}
}

// Tick records one event and returns the running count
func (t *Tracker) Tick() uint64 {
	return t.count.Add(1)
}

// Count returns the number of events recorded so far
func (t *Tracker) Count() uint64 {
	return t.count.Load()
}

// Elapsed returns the time since tracking started
func (t *Tracker) Elapsed() time.Duration {
	return time.Since(t.started)
}

// Rate returns events per second since tracking started
func (t *Tracker) Rate() float64 {
	elapsed := time.Since(t.started).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(t.count.Load()) / elapsed
}

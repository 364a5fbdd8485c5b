package cadence

import (
	"context"
	"testing"
	"time"
)

func TestPacer_WaitsOutTheRemainder(t *testing.T) {
	interval := 100 * time.Millisecond
	p := NewPacer(interval)

	p.Begin()
	time.Sleep(30 * time.Millisecond) // simulated work
	start := time.Now()

	if err := p.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() failed: %v", err)
	}

	// Work (30ms) plus the remainder must cover the full interval
	slept := time.Since(start)
	if slept < 50*time.Millisecond {
		t.Errorf("Wait() slept only %v, expected roughly the 70ms remainder", slept)
	}
}

func TestPacer_CycleStartsSpacedByInterval(t *testing.T) {
	interval := 60 * time.Millisecond
	p := NewPacer(interval)

	var starts []time.Time
	for i := 0; i < 3; i++ {
		p.Begin()
		starts = append(starts, time.Now())
		if err := p.Wait(context.Background()); err != nil {
			t.Fatalf("Wait() failed: %v", err)
		}
	}

	for i := 1; i < len(starts); i++ {
		gap := starts[i].Sub(starts[i-1])
		// Allow a little scheduler slack below the target
		if gap < interval-10*time.Millisecond {
			t.Errorf("cycle %d started %v after previous, want >= %v", i, gap, interval)
		}
	}
}

func TestPacer_OverrunProceedsImmediately(t *testing.T) {
	p := NewPacer(50 * time.Millisecond)

	p.Begin()
	time.Sleep(80 * time.Millisecond) // work overran the interval

	start := time.Now()
	if err := p.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 20*time.Millisecond {
		t.Errorf("Wait() after overrun took %v, expected immediate return", elapsed)
	}
}

func TestPacer_ContextCancelled(t *testing.T) {
	p := NewPacer(10 * time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	p.Begin()
	start := time.Now()
	err := p.Wait(ctx)
	if err == nil {
		t.Fatal("Wait() returned nil after cancellation, want context error")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Wait() took %v to honor cancellation", elapsed)
	}
}

func TestFraction(t *testing.T) {
	tests := []struct {
		name      string
		intervalS float64
		wantNum   int
		wantDen   int
	}{
		{"one second", 1.0, 1, 1},
		{"half second", 0.5, 2, 1},
		{"two seconds", 2.0, 1, 2},
		{"one and a half seconds", 1.5, 2, 3},
		{"tenth of a second", 0.1, 10, 1},
		{"quarter second", 0.25, 4, 1},
		{"two and a half seconds", 2.5, 2, 5},
		{"three seconds", 3.0, 1, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			num, den := Fraction(tt.intervalS)
			if num != tt.wantNum || den != tt.wantDen {
				t.Errorf("Fraction(%v) = %d/%d, want %d/%d",
					tt.intervalS, num, den, tt.wantNum, tt.wantDen)
			}
		})
	}
}

func TestFraction_IsReduced(t *testing.T) {
	num, den := Fraction(1.5)
	if g := gcd(num, den); g != 1 {
		t.Errorf("Fraction(1.5) = %d/%d not reduced (gcd %d)", num, den, g)
	}
}

func TestTracker(t *testing.T) {
	tr := NewTracker()

	for i := 0; i < 5; i++ {
		tr.Tick()
	}

	if got := tr.Count(); got != 5 {
		t.Errorf("Count() = %d, want 5", got)
	}
	if tr.Elapsed() <= 0 {
		t.Error("Elapsed() must be positive")
	}
	if tr.Rate() <= 0 {
		t.Error("Rate() must be positive after ticks")
	}
}

func TestTracker_TickReturnsRunningCount(t *testing.T) {
	tr := NewTracker()
	if n := tr.Tick(); n != 1 {
		t.Errorf("first Tick() = %d, want 1", n)
	}
	if n := tr.Tick(); n != 2 {
		t.Errorf("second Tick() = %d, want 2", n)
	}
}

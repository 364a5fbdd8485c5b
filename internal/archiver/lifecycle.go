package archiver

import (
	"fmt"
	"log/slog"
	"sync"
)

// State tracks the archiver through one run
type State int

const (
	// StateUninitialized is the state before any resource exists
	StateUninitialized State = iota
	// StateScratchReady means the staging area is on disk
	StateScratchReady
	// StateRunning means the capture loop is active
	StateRunning
	// StateDraining means intake stopped and queued work is finishing
	StateDraining
	// StateTerminated means everything is torn down
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateScratchReady:
		return "scratch_ready"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// transitions lists the legal successor states. Draining is reachable
// from ScratchReady so a startup failure still walks the teardown path.
// Terminated has no successors: it is entered exactly once.
var transitions = map[State][]State{
	StateUninitialized: {StateScratchReady},
	StateScratchReady:  {StateRunning, StateDraining},
	StateRunning:       {StateDraining},
	StateDraining:      {StateTerminated},
	StateTerminated:    {},
}

// lifecycle enforces the forward-only state progression
type lifecycle struct {
	mu    sync.Mutex
	state State
}

// advance moves to next if the transition table allows it
func (l *lifecycle) advance(next State) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, allowed := range transitions[l.state] {
		if next == allowed {
			l.state = next
			slog.Debug("archiver: state changed", "state", next.String())
			return nil
		}
	}
	return fmt.Errorf("illegal lifecycle transition: %s -> %s", l.state, next)
}

// current returns the state at the time of the call
func (l *lifecycle) current() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// boot_status.go - host-side boot health tracker

package main

type BootState int

const (
	BootBooting BootState = iota
	BootReady
	BootStalled
	BootFailed
)

func (s BootState) String() string {
	switch s {
	case BootBooting:
		return "BOOTING"
	case BootReady:
		return "READY"
	case BootStalled:
		return "STALLED"
	case BootFailed:
		return "FAILED"
	}
	return "?"
}

const bootWindowMs = 250

// BootTracker watches T-state progress and framebuffer liveness in 250 ms
// windows: a stuck clock means STALLED, and outside BASIC execution a dark
// framebuffer across two consecutive windows does too.
type BootTracker struct {
	state        BootState
	windowEndMs  int64
	lastTStates  uint64
	darkWindows  int
	sawFirstTick bool
}

func NewBootTracker() *BootTracker {
	return &BootTracker{state: BootBooting}
}

func (bt *BootTracker) State() BootState { return bt.state }

func (bt *BootTracker) Fail() { bt.state = BootFailed }

// Observe feeds one host poll: current wall time, the CPU T-state counter,
// whether the framebuffer has any lit pixel, and whether a BASIC program is
// running.
func (bt *BootTracker) Observe(nowMs int64, tstates uint64, framebufferLit bool, basicRunning bool) BootState {
	if bt.state == BootFailed {
		return bt.state
	}
	if !bt.sawFirstTick {
		bt.sawFirstTick = true
		bt.windowEndMs = nowMs + bootWindowMs
		bt.lastTStates = tstates
		return bt.state
	}
	if nowMs < bt.windowEndMs {
		return bt.state
	}

	advanced := tstates != bt.lastTStates
	bt.lastTStates = tstates
	bt.windowEndMs = nowMs + bootWindowMs

	if !advanced {
		bt.state = BootStalled
		return bt.state
	}

	if basicRunning || framebufferLit {
		// The boot completes once the clock runs and something shows
		// on screen (or a program is driving the machine).
		bt.darkWindows = 0
		if bt.state == BootBooting || bt.state == BootStalled {
			bt.state = BootReady
		}
		return bt.state
	}

	bt.darkWindows++
	if bt.darkWindows >= 2 {
		bt.state = BootStalled
	}
	return bt.state
}

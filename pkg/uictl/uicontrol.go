// Package uictl defines the control interfaces TUI components read
// capture and recording state through, keeping views decoupled from
// the audio internals behind them.
package uictl

import "golang.org/x/exp/constraints"

type Number interface {
	constraints.Integer | constraints.Float
}

// Knob is a simple on/off toggle control, e.g. a capture device's
// running state.
type Knob interface {
	Read() bool
	On()
	Off()
	Toggle()
}

// Dial is a control that reads a single value, e.g. bytes written by
// a recorder.
type Dial[N Number] interface {
	Read() N
}

// CappedDial is a Dial with a maximum cap value, e.g. bytes written
// against a recording budget.
type CappedDial[N Number] interface {
	Dial[N]
	Cap() (num, max N)
}

// Levels is a control that reads a window of recent samples, e.g. the
// ring buffer feeding a live waveform.
type Levels[N Number] interface {
	Read() []N
}

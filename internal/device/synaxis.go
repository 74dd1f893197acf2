package device

import (
	"time"
)

// SynAxis is a synthetic motor: a settable position with an optional
// settle delay simulating motion. It stands in for real hardware when
// scanning against a remote simulation.
type SynAxis struct {
	name      string
	delay     time.Duration
	position  float64
	timestamp time.Time
}

// NewSynAxis creates a synthetic axis. delay is applied on every Set
// before the move is reported complete; zero means instantaneous.
func NewSynAxis(name string, delay time.Duration) *SynAxis {
	return &SynAxis{name: name, delay: delay, timestamp: time.Now()}
}

// Name returns the axis field name.
func (a *SynAxis) Name() string { return a.name }

// Set moves the axis to position and blocks for the settle delay.
func (a *SynAxis) Set(position float64) Status {
	if a.delay > 0 {
		time.Sleep(a.delay)
	}
	a.position = position
	a.timestamp = time.Now()
	return NullStatus()
}

// Position returns the current position without a full Read.
func (a *SynAxis) Position() float64 { return a.position }

// Read reports the current position keyed by the axis name.
func (a *SynAxis) Read() map[string]Reading {
	return map[string]Reading{
		a.name: {Value: a.position, Timestamp: a.timestamp},
	}
}

// Describe returns the axis field metadata.
func (a *SynAxis) Describe() map[string]FieldDescription {
	return map[string]FieldDescription{
		a.name: {Source: "SIM:" + a.name, Dtype: "number", Shape: []int{}},
	}
}

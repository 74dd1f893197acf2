package device

import (
	"time"
)

// Reading is a single timestamped observation of a named field.
type Reading struct {
	Value     any       `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// FieldDescription describes one field returned by Read.
// External marks fields whose value is a reference into externally
// stored data rather than the data itself.
type FieldDescription struct {
	Source   string `json:"source"`
	Dtype    string `json:"dtype"`
	Shape    []int  `json:"shape"`
	External string `json:"external,omitempty"`
}

// Readable is anything that can report its current field values.
// Motors and detectors both satisfy it.
type Readable interface {
	// Read returns the current value of every field, keyed by field name.
	Read() map[string]Reading
}

// Device defines the acquisition-framework lifecycle contract.
// The host framework serializes calls on a given device; implementations
// are not required to be safe for concurrent use.
type Device interface {
	Readable

	// Name returns the unique identifier for this device.
	Name() string

	// Stage prepares the device for a run.
	Stage() error

	// Unstage releases per-run state. It must be safe to call on an
	// already-unstaged device.
	Unstage() error

	// Trigger starts one acquisition and blocks until it completes.
	// The returned Status is done when Trigger returns.
	Trigger() (Status, error)

	// Describe returns metadata for every field Read reports.
	Describe() map[string]FieldDescription
}

// Status is the completion marker handed back to the host framework.
type Status interface {
	// Done reports whether the operation has finished.
	Done() bool
	// Err returns the terminal error, if any.
	Err() error
}

type nullStatus struct{}

func (nullStatus) Done() bool { return true }
func (nullStatus) Err() error { return nil }

// NullStatus returns a Status that is already complete and successful.
// Synchronous devices return it from Trigger.
func NullStatus() Status { return nullStatus{} }

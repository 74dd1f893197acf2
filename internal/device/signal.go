package device

import (
	"time"
)

// Signal is a named holder for one scalar or small-array value.
// It carries no transport of its own; devices put derived values into
// their signals and the host framework reads them back out.
type Signal struct {
	name      string
	value     any
	timestamp time.Time
}

// NewSignal creates a signal with the given fully qualified name.
func NewSignal(name string) *Signal {
	return &Signal{name: name, timestamp: time.Now()}
}

// Name returns the signal's field name.
func (s *Signal) Name() string { return s.name }

// Put replaces the signal's value and stamps it with the current time.
func (s *Signal) Put(v any) {
	s.value = v
	s.timestamp = time.Now()
}

// Get returns the last value put, or nil if none.
func (s *Signal) Get() any { return s.value }

// Read returns the signal's current reading keyed by its name.
func (s *Signal) Read() map[string]Reading {
	return map[string]Reading{
		s.name: {Value: s.value, Timestamp: s.timestamp},
	}
}

// Describe returns the signal's field metadata keyed by its name.
func (s *Signal) Describe() map[string]FieldDescription {
	return map[string]FieldDescription{
		s.name: {
			Source: "SIM:" + s.name,
			Dtype:  dtypeOf(s.value),
			Shape:  shapeOf(s.value),
		},
	}
}

func dtypeOf(v any) string {
	switch v.(type) {
	case nil:
		return "object"
	case int, int32, int64:
		return "integer"
	case float32, float64:
		return "number"
	case string:
		return "string"
	case bool:
		return "boolean"
	case [2]int, [2]float64, []int, []float64:
		return "array"
	default:
		return "object"
	}
}

func shapeOf(v any) []int {
	switch v := v.(type) {
	case [2]int:
		return []int{2}
	case [2]float64:
		return []int{2}
	case []int:
		return []int{len(v)}
	case []float64:
		return []int{len(v)}
	default:
		return []int{}
	}
}

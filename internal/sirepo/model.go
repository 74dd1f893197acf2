package sirepo

import (
	"fmt"
)

// structural keys every beamline element carries; everything else is a
// tunable parameter.
var structuralKeys = map[string]bool{
	"title": true,
	"shape": true,
	"type":  true,
	"id":    true,
}

// Element is one optical component in the beamline model. It is the raw
// JSON object from the server; parameters are mutated in place and the
// whole model is posted back on run.
type Element map[string]any

// Title returns the element's display title.
func (e Element) Title() string {
	s, _ := e["title"].(string)
	return s
}

// Type returns the element's type, e.g. "watch" for a watch-point.
func (e Element) Type() string {
	s, _ := e["type"].(string)
	return s
}

// ID returns the element's model id as a decimal string.
func (e Element) ID() string {
	switch v := e["id"].(type) {
	case float64:
		return fmt.Sprintf("%d", int64(v))
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

// IsWatchpoint reports whether the element is a watch-point.
func (e Element) IsWatchpoint() bool { return e.Type() == "watch" }

// Parameters returns the element's tunable parameter names, sorted
// insertion-free (caller sorts if order matters).
func (e Element) Parameters() []string {
	params := make([]string, 0, len(e))
	for k := range e {
		if !structuralKeys[k] {
			params = append(params, k)
		}
	}
	return params
}

// Model is the full simulation payload returned by Auth. It is mutated
// in place (element parameters, report selection) and posted back when
// the simulation runs.
type Model map[string]any

// Beamline returns the model's beamline elements.
func (m Model) Beamline() ([]Element, error) {
	models, ok := m["models"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("model has no models section")
	}
	raw, ok := models["beamline"].([]any)
	if !ok {
		return nil, fmt.Errorf("model has no beamline")
	}
	elements := make([]Element, 0, len(raw))
	for _, item := range raw {
		e, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("beamline entry is not an object: %T", item)
		}
		elements = append(elements, Element(e))
	}
	return elements, nil
}

// SetReport selects which report the next run produces.
func (m Model) SetReport(report string) { m["report"] = report }

// Report returns the currently selected report, if any.
func (m Model) Report() string {
	s, _ := m["report"].(string)
	return s
}

// WatchpointReport names the report produced by the given watch-point.
func WatchpointReport(watch Element) string {
	return "watchpointReport" + watch.ID()
}

// FindElement locates the first element whose key equals value.
func FindElement(elements []Element, key, value string) (Element, error) {
	for _, e := range elements {
		if s, ok := e[key].(string); ok && s == value {
			return e, nil
		}
	}
	return nil, fmt.Errorf("%w: no element with %s=%q", ErrElementNotFound, key, value)
}

// Watchpoints returns every watch-point element in order of appearance.
func Watchpoints(elements []Element) []Element {
	var watches []Element
	for _, e := range elements {
		if e.IsWatchpoint() {
			watches = append(watches, e)
		}
	}
	return watches
}

// Position renders a watch-point position value for display.
func (e Element) Position() string {
	v, ok := e["position"]
	if !ok {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

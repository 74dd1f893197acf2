// Package discover enumerates the tunable surface of a stored Sirepo
// simulation: which beamline elements exist, which of their parameters
// can be scanned, and which watch-points can report results. Operators
// run it once before wiring up a detector.
package discover

import (
	"errors"
	"fmt"
	"sort"

	"srwbridge/internal/sirepo"
)

// ErrNoWatchpoints indicates the beamline has no watch-point elements,
// so no report can ever be fetched from it.
var ErrNoWatchpoints = errors.New("discover: no watchpoints found, this simulation will not work")

// ElementInfo is one beamline element with its tunable parameters.
type ElementInfo struct {
	Title      string
	Type       string
	Parameters []string
}

// Watchpoint is one watch-point element and its beamline position.
type Watchpoint struct {
	Title    string
	Position string
}

// Survey is the tunable surface of one simulation.
type Survey struct {
	Elements    []ElementInfo
	Watchpoints []Watchpoint
}

func (s *Survey) find(title string) *ElementInfo {
	for i := range s.Elements {
		if s.Elements[i].Title == title {
			return &s.Elements[i]
		}
	}
	return nil
}

// HasElement reports whether title names a beamline element.
func (s *Survey) HasElement(title string) bool { return s.find(title) != nil }

// HasParameter reports whether the named element has the parameter.
func (s *Survey) HasParameter(title, param string) bool {
	e := s.find(title)
	if e == nil {
		return false
	}
	for _, p := range e.Parameters {
		if p == param {
			return true
		}
	}
	return false
}

// HasWatchpoint reports whether title names a watch-point.
func (s *Survey) HasWatchpoint(title string) bool {
	for _, w := range s.Watchpoints {
		if w.Title == title {
			return true
		}
	}
	return false
}

// Inspect walks the model's beamline and builds a Survey. It fails if
// the beamline holds no watch-points at all.
func Inspect(model sirepo.Model) (*Survey, error) {
	elements, err := model.Beamline()
	if err != nil {
		return nil, fmt.Errorf("inspect beamline: %w", err)
	}

	survey := &Survey{}
	for _, e := range elements {
		params := e.Parameters()
		sort.Strings(params)
		survey.Elements = append(survey.Elements, ElementInfo{
			Title:      e.Title(),
			Type:       e.Type(),
			Parameters: params,
		})
		if e.IsWatchpoint() {
			survey.Watchpoints = append(survey.Watchpoints, Watchpoint{
				Title:    e.Title(),
				Position: e.Position(),
			})
		}
	}

	if len(survey.Watchpoints) == 0 {
		return nil, ErrNoWatchpoints
	}
	return survey, nil
}

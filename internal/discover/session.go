package discover

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"srwbridge/internal/detector"
	"srwbridge/internal/device"
	"srwbridge/internal/registry"
)

// Session is one interactive discovery run: authenticate, list the
// tunable surface, then prompt for the pieces of a detector. All five
// prompts are sequential and blocking; a failed survey stops the
// session before any further prompt.
type Session struct {
	In       io.Reader
	Out      io.Writer
	Client   detector.SimClient
	Registry registry.Registry

	// Detector construction defaults, carried into the adapter verbatim.
	SimType   string
	Server    string
	DataRoot  string
	UnitScale float64
}

// Run drives the prompts and constructs one detector from the answers.
func (s *Session) Run(ctx context.Context) (*detector.Detector, error) {
	in := bufio.NewScanner(s.In)

	simID, err := s.prompt(in, "Please enter sim ID: ")
	if err != nil {
		return nil, err
	}

	model, err := s.Client.Auth(ctx, s.simType(), simID)
	if err != nil {
		return nil, err
	}

	survey, err := Inspect(model)
	if err != nil {
		return nil, err
	}
	s.printSurvey(survey)

	element, err := s.prompt(in, "Please select optical element: ")
	if err != nil {
		return nil, err
	}
	if !survey.HasElement(element) {
		logrus.Warnf("element %q is not in the surveyed beamline", element)
	}

	param0, err := s.prompt(in, "Please select parameter: ")
	if err != nil {
		return nil, err
	}
	param1, err := s.prompt(in, "Please select another parameter or press ENTER to only use one: ")
	if err != nil {
		return nil, err
	}
	watchName, err := s.prompt(in, "Please select watchpoint: ")
	if err != nil {
		return nil, err
	}

	cfg := detector.Config{
		Element:   element,
		Param0:    param0,
		Motor0:    device.NewSynAxis(element+"_x", 0),
		Field0:    element + "_x",
		Registry:  s.Registry,
		SimID:     simID,
		WatchName: watchName,
		Server:    s.Server,
		Client:    s.Client,
		SimType:   s.simType(),
		DataRoot:  s.DataRoot,
		UnitScale: s.UnitScale,
	}
	if param1 != "" {
		cfg.Param1 = param1
		cfg.Motor1 = device.NewSynAxis(element+"_y", 0)
		cfg.Field1 = element + "_y"
	}

	return detector.New("srw_det", cfg)
}

func (s *Session) simType() string {
	if s.SimType == "" {
		return "srw"
	}
	return s.SimType
}

// prompt writes the question and reads one trimmed line.
func (s *Session) prompt(in *bufio.Scanner, question string) (string, error) {
	fmt.Fprint(s.Out, question)
	if !in.Scan() {
		if err := in.Err(); err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}
		return "", fmt.Errorf("input closed before %q was answered", strings.TrimSpace(question))
	}
	return strings.TrimSpace(in.Text()), nil
}

func (s *Session) printSurvey(survey *Survey) {
	fmt.Fprintln(s.Out, "Tunable parameters for scan:")
	for _, e := range survey.Elements {
		fmt.Fprintf(s.Out, "OPTICAL ELEMENT:    %s\n", e.Title)
		if len(e.Parameters) > 0 {
			fmt.Fprintf(s.Out, "PARAMETERS:         %s\n", strings.Join(e.Parameters, ", "))
		}
	}
	fmt.Fprint(s.Out, "WATCHPOINTS:       ")
	for i, w := range survey.Watchpoints {
		if i > 0 {
			fmt.Fprint(s.Out, ", ")
		}
		fmt.Fprintf(s.Out, "%s (position %s)", w.Title, w.Position)
	}
	fmt.Fprintln(s.Out)
}

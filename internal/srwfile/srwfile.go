// Package srwfile reads SRW ASCII intensity files.
//
// An SRW intensity file starts with header lines of the form
// "#<value> //<label>", nine of which define the photon-energy and
// spatial meshes, followed by one intensity value per line. Leading
// "#C"/"#F" comment lines are tolerated.
package srwfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Result holds the derived fields of one intensity file.
type Result struct {
	// Shape is (vertical points, horizontal points).
	Shape [2]int
	// Mean is the mean intensity over all mesh points.
	Mean float64
	// PhotonEnergy is the initial photon energy of the mesh.
	PhotonEnergy float64
	// HorizontalExtent is (initial, final) horizontal position.
	HorizontalExtent [2]float64
	// VerticalExtent is (initial, final) vertical position.
	VerticalExtent [2]float64
}

// mesh header order as SRW writes it
const (
	idxEnergyStart = iota
	idxEnergyEnd
	idxEnergyPoints
	idxHorizStart
	idxHorizEnd
	idxHorizPoints
	idxVertStart
	idxVertEnd
	idxVertPoints
	meshHeaderLines
)

// Read parses the intensity file at path.
func Read(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open srw file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse parses an intensity file from r.
func Parse(r io.Reader) (*Result, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	header := make([]float64, 0, meshHeaderLines)
	var (
		sum   float64
		count int
	)

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			value, ok := parseHeaderLine(line)
			if !ok {
				// title/format comment, not a mesh line
				continue
			}
			if len(header) < meshHeaderLines {
				header = append(header, value)
			}
			continue
		}

		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return nil, fmt.Errorf("parse intensity value %q: %w", line, err)
		}
		sum += v
		count++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read srw file: %w", err)
	}

	if len(header) < meshHeaderLines {
		return nil, fmt.Errorf("srw header incomplete: got %d of %d mesh lines", len(header), meshHeaderLines)
	}

	nx := int(header[idxHorizPoints])
	ny := int(header[idxVertPoints])
	if nx <= 0 || ny <= 0 {
		return nil, fmt.Errorf("srw header has non-positive mesh size %dx%d", nx, ny)
	}
	if count != nx*ny*max(int(header[idxEnergyPoints]), 1) {
		return nil, fmt.Errorf("srw data has %d values, mesh expects %d", count, nx*ny*max(int(header[idxEnergyPoints]), 1))
	}

	return &Result{
		Shape:            [2]int{ny, nx},
		Mean:             sum / float64(count),
		PhotonEnergy:     header[idxEnergyStart],
		HorizontalExtent: [2]float64{header[idxHorizStart], header[idxHorizEnd]},
		VerticalExtent:   [2]float64{header[idxVertStart], header[idxVertEnd]},
	}, nil
}

// Units extracts the bracketed units string from the first header label
// that carries one, e.g. "[eV]" from "#100.0 //Initial Photon Energy [eV]".
// Returns an error when no header label declares units.
func Units(payload []byte) (string, error) {
	sc := bufio.NewScanner(strings.NewReader(string(payload)))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "#") {
			break
		}
		_, label, ok := strings.Cut(line, "//")
		if !ok {
			continue
		}
		start := strings.Index(label, "[")
		end := strings.Index(label, "]")
		if start >= 0 && end > start {
			return label[start+1 : end], nil
		}
	}
	return "", fmt.Errorf("no units declared in srw header")
}

// parseHeaderLine splits "#<value> //<label>" and returns the value.
// Lines whose leading token is not numeric (e.g. "#C run title") report !ok.
func parseHeaderLine(line string) (float64, bool) {
	body := strings.TrimPrefix(line, "#")
	if i := strings.Index(body, "//"); i >= 0 {
		body = body[:i]
	}
	body = strings.TrimSpace(body)
	v, err := strconv.ParseFloat(body, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

package srwfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sample builds an SRW ASCII payload with a uniform intensity field.
func sample(nx, ny int, energy, value float64) string {
	var b strings.Builder
	b.WriteString("#C Intensity distribution\n")
	fmt.Fprintf(&b, "#%g //Initial Photon Energy [eV]\n", energy)
	fmt.Fprintf(&b, "#%g //Final Photon Energy [eV]\n", energy)
	b.WriteString("#1 //Number of points vs Photon Energy\n")
	b.WriteString("#-1 //Initial Horizontal Position [m]\n")
	b.WriteString("#1 //Final Horizontal Position [m]\n")
	fmt.Fprintf(&b, "#%d //Number of points vs Horizontal Position\n", nx)
	b.WriteString("#-1 //Initial Vertical Position [m]\n")
	b.WriteString("#1 //Final Vertical Position [m]\n")
	fmt.Fprintf(&b, "#%d //Number of points vs Vertical Position\n", ny)
	for i := 0; i < nx*ny; i++ {
		fmt.Fprintf(&b, "%g\n", value)
	}
	return b.String()
}

func TestParse(t *testing.T) {
	res, err := Parse(strings.NewReader(sample(100, 100, 9000, 5.0)))
	require.NoError(t, err)

	assert.Equal(t, [2]int{100, 100}, res.Shape)
	assert.InDelta(t, 5.0, res.Mean, 1e-12)
	assert.Equal(t, 9000.0, res.PhotonEnergy)
	assert.Equal(t, [2]float64{-1, 1}, res.HorizontalExtent)
	assert.Equal(t, [2]float64{-1, 1}, res.VerticalExtent)
}

func TestParseMeanOverValues(t *testing.T) {
	payload := sample(2, 2, 100, 0)
	// replace the four zero values with a known mix
	payload = strings.TrimSuffix(payload, "0\n0\n0\n0\n") + "1\n2\n3\n6\n"

	res, err := Parse(strings.NewReader(payload))
	require.NoError(t, err)
	assert.InDelta(t, 3.0, res.Mean, 1e-12)
	assert.Equal(t, [2]int{2, 2}, res.Shape)
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"empty", ""},
		{"header only comment", "#C just a title\n"},
		{"truncated header", "#100 //Initial Photon Energy [eV]\n#100 //Final Photon Energy [eV]\n"},
		{"bad value", sample(1, 1, 100, 0)[:len(sample(1, 1, 100, 0))-2] + "x\n"},
		{"value count mismatch", strings.TrimSuffix(sample(2, 2, 100, 5), "5\n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.payload))
			assert.Error(t, err)
		})
	}
}

func TestRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watch.dat")
	require.NoError(t, os.WriteFile(path, []byte(sample(4, 2, 1200, 1.5)), 0o644))

	res, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, [2]int{2, 4}, res.Shape)
	assert.Equal(t, 1200.0, res.PhotonEnergy)
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "absent.dat"))
	assert.Error(t, err)
}

func TestUnits(t *testing.T) {
	units, err := Units([]byte(sample(2, 2, 100, 0)))
	require.NoError(t, err)
	assert.Equal(t, "eV", units)

	_, err = Units([]byte("#C no units here\n1.0\n"))
	assert.Error(t, err)
}

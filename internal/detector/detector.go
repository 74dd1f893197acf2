// Package detector bridges the acquisition framework's device contract
// to a remote Sirepo SRW simulation: each trigger pushes the current
// motor positions into the remote beamline model, runs the simulation,
// downloads the watch-point result file and republishes its derived
// fields as device signals.
package detector

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"srwbridge/internal/device"
	"srwbridge/internal/registry"
	"srwbridge/internal/sirepo"
	"srwbridge/internal/srwfile"
)

// ErrNoSimID is returned by New when no simulation id is configured.
var ErrNoSimID = errors.New("detector: simulation id must be provided")

// DefaultUnitScale converts the host framework's SI motor readings to
// the remote model's native scale. The factor is policy, not physics;
// override it per beamline when the remote units differ.
const DefaultUnitScale = 1000.0

// SimClient is the slice of the Sirepo client the detector uses.
type SimClient interface {
	Auth(ctx context.Context, simType, simID string) (sirepo.Model, error)
	RunSimulation(ctx context.Context) error
	Datafile(ctx context.Context) ([]byte, error)
}

var _ SimClient = (*sirepo.Client)(nil)

// Config carries the immutable construction-time wiring of a Detector.
// Motor1/Field1/Param1 are optional; when Motor1 is nil only the first
// parameter is driven.
type Config struct {
	// Element is the title of the beamline element whose parameters
	// the motors drive.
	Element string
	// Param0 is the element parameter receiving motor0's reading.
	Param0 string
	// Motor0 supplies the first reading; Field0 names its field.
	Motor0 device.Readable
	Field0 string
	// Motor1 optionally supplies a second reading for Param1.
	Motor1 device.Readable
	Field1 string
	Param1 string
	// Registry records the resource and datum for every trigger.
	Registry registry.Registry
	// SimID identifies the stored simulation on the server. Required.
	SimID string
	// WatchName is the title of the watch-point whose report is fetched.
	WatchName string
	// Server is the Sirepo server address, used when Client is nil.
	Server string
	// Client overrides the default HTTP client, mainly for tests.
	Client SimClient
	// SimType is the simulation type; defaults to "srw".
	SimType string
	// DataRoot is the directory result files are written under, in
	// YYYY/MM/DD subdirectories which must already exist.
	DataRoot string
	// UnitScale converts motor readings to remote parameter values;
	// defaults to DefaultUnitScale.
	UnitScale float64
}

var _ device.Device = (*Detector)(nil)

// Detector implements device.Device against a remote SRW simulation.
// Not safe for concurrent triggers; the host framework serializes
// calls on a device.
type Detector struct {
	name string
	cfg  Config
	log  *logrus.Entry

	Image            *device.Signal
	Shape            *device.Signal
	Mean             *device.Signal
	PhotonEnergy     *device.Signal
	HorizontalExtent *device.Signal
	VerticalExtent   *device.Signal

	staged     bool
	resourceID string
	result     map[string]any
	hints      []string
}

// New validates cfg and constructs a detector. No network call is made
// here; the first contact with the server happens in Trigger.
func New(name string, cfg Config) (*Detector, error) {
	if cfg.SimID == "" {
		return nil, ErrNoSimID
	}
	if cfg.SimType == "" {
		cfg.SimType = "srw"
	}
	if cfg.DataRoot == "" {
		cfg.DataRoot = "/tmp/data"
	}
	if cfg.UnitScale == 0 {
		cfg.UnitScale = DefaultUnitScale
	}
	if cfg.Client == nil {
		cfg.Client = sirepo.New(cfg.Server)
	}

	return &Detector{
		name:             name,
		cfg:              cfg,
		log:              logrus.WithField("detector", name),
		Image:            device.NewSignal(name + "_image"),
		Shape:            device.NewSignal(name + "_shape"),
		Mean:             device.NewSignal(name + "_mean"),
		PhotonEnergy:     device.NewSignal(name + "_photon_energy"),
		HorizontalExtent: device.NewSignal(name + "_horizontal_extent"),
		VerticalExtent:   device.NewSignal(name + "_vertical_extent"),
		result:           make(map[string]any),
	}, nil
}

// Name returns the detector's device name.
func (d *Detector) Name() string { return d.name }

// Stage marks the detector staged.
func (d *Detector) Stage() error {
	d.staged = true
	return nil
}

// Unstage clears the pending result cache and the resource reference.
// On-disk files and registry entries are left alone.
func (d *Detector) Unstage() error {
	d.staged = false
	d.resourceID = ""
	d.result = make(map[string]any)
	return nil
}

// Hints returns the fields the host framework should plot by default.
func (d *Detector) Hints() []string {
	if d.hints == nil {
		return []string{d.Mean.Name()}
	}
	return d.hints
}

// SetHints overrides the default hints.
func (d *Detector) SetHints(fields []string) {
	d.hints = append([]string(nil), fields...)
}

// Trigger runs one acquisition end to end, blocking until the remote
// simulation completes and the result file is parsed and registered.
// Any failure aborts the trigger: no registry entry is written and no
// signal is updated.
func (d *Detector) Trigger() (device.Status, error) {
	ctx := context.Background()

	x, err := readField(d.cfg.Motor0, d.cfg.Field0)
	if err != nil {
		return nil, fmt.Errorf("read motor0: %w", err)
	}
	var y float64
	if d.cfg.Motor1 != nil {
		if y, err = readField(d.cfg.Motor1, d.cfg.Field1); err != nil {
			return nil, fmt.Errorf("read motor1: %w", err)
		}
	}

	datumID := uuid.NewString()
	path := filepath.Join(d.cfg.DataRoot, time.Now().Format("2006/01/02"), datumID+".dat")

	model, err := d.cfg.Client.Auth(ctx, d.cfg.SimType, d.cfg.SimID)
	if err != nil {
		return nil, err
	}
	elements, err := model.Beamline()
	if err != nil {
		return nil, err
	}

	elem, err := sirepo.FindElement(elements, "title", d.cfg.Element)
	if err != nil {
		return nil, err
	}
	elem[d.cfg.Param0] = x * d.cfg.UnitScale
	if d.cfg.Motor1 != nil && d.cfg.Param1 != "" {
		elem[d.cfg.Param1] = y * d.cfg.UnitScale
	}

	watch, err := sirepo.FindElement(elements, "title", d.cfg.WatchName)
	if err != nil {
		return nil, err
	}
	model.SetReport(sirepo.WatchpointReport(watch))

	if err := d.cfg.Client.RunSimulation(ctx); err != nil {
		return nil, err
	}

	payload, err := d.cfg.Client.Datafile(ctx)
	if err != nil {
		return nil, err
	}

	units, err := srwfile.Units(payload)
	if err != nil {
		d.log.WithError(err).Warn("datafile header declares no units")
	}

	// The date directory must pre-exist; the adapter never creates it.
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return nil, fmt.Errorf("write datafile: %w", err)
	}

	ret, err := srwfile.Read(path)
	if err != nil {
		return nil, err
	}

	resourceID, err := d.cfg.Registry.InsertResource(ctx, d.cfg.SimType, path, map[string]any{"units": units})
	if err != nil {
		return nil, fmt.Errorf("insert resource: %w", err)
	}
	if err := d.cfg.Registry.InsertDatum(ctx, resourceID, datumID, map[string]any{}); err != nil {
		return nil, fmt.Errorf("insert datum: %w", err)
	}
	d.resourceID = resourceID

	d.Image.Put(datumID)
	d.Shape.Put(ret.Shape)
	d.Mean.Put(ret.Mean)
	d.PhotonEnergy.Put(ret.PhotonEnergy)
	d.HorizontalExtent.Put(ret.HorizontalExtent)
	d.VerticalExtent.Put(ret.VerticalExtent)

	d.result = map[string]any{
		"datum_id": datumID,
		"path":     path,
		"units":    units,
	}

	d.log.WithFields(logrus.Fields{
		"datum_id": datumID,
		"resource": resourceID,
		"path":     path,
	}).Info("trigger complete")

	return device.NullStatus(), nil
}

// Read reports all six signal values.
func (d *Detector) Read() map[string]device.Reading {
	out := make(map[string]device.Reading, 6)
	for _, s := range d.signals() {
		for k, v := range s.Read() {
			out[k] = v
		}
	}
	return out
}

// Describe reports field metadata. Exactly the image field is marked
// externally stored: its value is a datum id pointing at a registered
// file, not the data itself.
func (d *Detector) Describe() map[string]device.FieldDescription {
	out := make(map[string]device.FieldDescription, 6)
	for _, s := range d.signals() {
		for k, v := range s.Describe() {
			out[k] = v
		}
	}
	desc := out[d.Image.Name()]
	desc.External = "FILESTORE"
	out[d.Image.Name()] = desc
	return out
}

// ResourceID returns the resource registered by the last trigger, or
// empty after Unstage.
func (d *Detector) ResourceID() string { return d.resourceID }

func (d *Detector) signals() []*device.Signal {
	return []*device.Signal{
		d.Image, d.Shape, d.Mean, d.PhotonEnergy, d.HorizontalExtent, d.VerticalExtent,
	}
}

func readField(m device.Readable, field string) (float64, error) {
	r, ok := m.Read()[field]
	if !ok {
		return 0, fmt.Errorf("field %q not present in motor reading", field)
	}
	switch v := r.Value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("field %q has non-numeric value %T", field, r.Value)
	}
}

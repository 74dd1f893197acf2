package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-process Registry used by tests and dry runs. Nothing
// survives the process.
type Memory struct {
	resources map[string]*Resource
	datums    []Datum
}

// NewMemory creates an empty in-memory registry.
func NewMemory() *Memory {
	return &Memory{resources: make(map[string]*Resource)}
}

// InsertResource registers a resource and returns its generated id.
func (m *Memory) InsertResource(ctx context.Context, kind, path string, meta map[string]any) (string, error) {
	id := uuid.NewString()
	m.resources[id] = &Resource{
		ID:        id,
		Kind:      kind,
		Path:      path,
		Metadata:  meta,
		CreatedAt: time.Now(),
	}
	return id, nil
}

// InsertDatum links datumID to a previously inserted resource.
func (m *Memory) InsertDatum(ctx context.Context, resourceID, datumID string, meta map[string]any) error {
	if _, ok := m.resources[resourceID]; !ok {
		return fmt.Errorf("registry: unknown resource %s", resourceID)
	}
	m.datums = append(m.datums, Datum{
		ID:         datumID,
		ResourceID: resourceID,
		Metadata:   meta,
		CreatedAt:  time.Now(),
	})
	return nil
}

// GetResource returns the resource with the given id, or nil.
func (m *Memory) GetResource(ctx context.Context, id string) (*Resource, error) {
	return m.resources[id], nil
}

// ListDatums returns every datum pointing into the resource.
func (m *Memory) ListDatums(ctx context.Context, resourceID string) ([]Datum, error) {
	var out []Datum
	for _, d := range m.datums {
		if d.ResourceID == resourceID {
			out = append(out, d)
		}
	}
	return out, nil
}

// Package registry records which result files exist and which datum
// ids point into them. A resource is one registered file-backed data
// source; a datum is one reference into a resource, issued per trigger.
package registry

import (
	"context"
	"time"
)

// Resource is a registered file-backed data source.
type Resource struct {
	ID        string         `json:"id"`
	Kind      string         `json:"kind"`
	Path      string         `json:"path"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Datum links an opaque datum id to the resource holding its data.
type Datum struct {
	ID         string         `json:"id"`
	ResourceID string         `json:"resource_id"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Registry is the adapter-facing contract: register a file, then link
// datum ids to it. Implementations own persistence; the adapter never
// reads data back through the registry.
type Registry interface {
	// InsertResource registers path as a data source of the given kind
	// and returns the new resource id.
	InsertResource(ctx context.Context, kind, path string, meta map[string]any) (string, error)

	// InsertDatum links datumID to an existing resource.
	InsertDatum(ctx context.Context, resourceID, datumID string, meta map[string]any) error
}

// Browser is the optional read side, for inspection and tests.
type Browser interface {
	// GetResource returns the resource with the given id, or nil.
	GetResource(ctx context.Context, id string) (*Resource, error)

	// ListDatums returns every datum pointing into the resource.
	ListDatums(ctx context.Context, resourceID string) ([]Datum, error)
}

package sqlite

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "registry.db"))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestInsertResource(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.InsertResource(ctx, "srw", "/tmp/data/2026/08/30/abc.dat", map[string]any{"units": "eV"})
	if err != nil {
		t.Fatalf("InsertResource() error: %v", err)
	}
	if id == "" {
		t.Fatal("InsertResource() returned empty id")
	}

	res, err := s.GetResource(ctx, id)
	if err != nil {
		t.Fatalf("GetResource() error: %v", err)
	}
	if res == nil {
		t.Fatal("GetResource() returned nil for inserted resource")
	}
	if res.Kind != "srw" {
		t.Errorf("Kind = %s, want srw", res.Kind)
	}
	if res.Path != "/tmp/data/2026/08/30/abc.dat" {
		t.Errorf("Path = %s", res.Path)
	}
	if res.Metadata["units"] != "eV" {
		t.Errorf("Metadata[units] = %v, want eV", res.Metadata["units"])
	}
	if res.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestGetResourceAbsent(t *testing.T) {
	s := newTestStore(t)

	res, err := s.GetResource(context.Background(), "no-such-id")
	if err != nil {
		t.Fatalf("GetResource() error: %v", err)
	}
	if res != nil {
		t.Errorf("GetResource() = %v, want nil", res)
	}
}

func TestInsertDatum(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	resID, err := s.InsertResource(ctx, "srw", "/tmp/a.dat", nil)
	if err != nil {
		t.Fatalf("InsertResource() error: %v", err)
	}

	for _, datumID := range []string{"datum-1", "datum-2"} {
		if err := s.InsertDatum(ctx, resID, datumID, nil); err != nil {
			t.Fatalf("InsertDatum(%s) error: %v", datumID, err)
		}
	}

	datums, err := s.ListDatums(ctx, resID)
	if err != nil {
		t.Fatalf("ListDatums() error: %v", err)
	}
	if len(datums) != 2 {
		t.Fatalf("ListDatums() returned %d datums, want 2", len(datums))
	}
	if datums[0].ID != "datum-1" || datums[1].ID != "datum-2" {
		t.Errorf("datum ids = %s, %s", datums[0].ID, datums[1].ID)
	}
	for _, d := range datums {
		if d.ResourceID != resID {
			t.Errorf("ResourceID = %s, want %s", d.ResourceID, resID)
		}
	}
}

func TestInsertDatumUnknownResource(t *testing.T) {
	s := newTestStore(t)

	if err := s.InsertDatum(context.Background(), "missing", "datum-1", nil); err == nil {
		t.Error("InsertDatum with unknown resource should fail")
	}
}

func TestDuplicateDatumID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	resID, err := s.InsertResource(ctx, "srw", "/tmp/a.dat", nil)
	if err != nil {
		t.Fatalf("InsertResource() error: %v", err)
	}
	if err := s.InsertDatum(ctx, resID, "dup", nil); err != nil {
		t.Fatalf("InsertDatum() error: %v", err)
	}
	if err := s.InsertDatum(ctx, resID, "dup", nil); err == nil {
		t.Error("duplicate datum id should fail")
	}
}

func TestResourceIDsDistinct(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, err := s.InsertResource(ctx, "srw", "/tmp/a.dat", nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.InsertResource(ctx, "srw", "/tmp/b.dat", nil)
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Errorf("resource ids should be distinct, both %s", a)
	}
}

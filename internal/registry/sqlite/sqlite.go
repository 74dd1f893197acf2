// Package sqlite persists the resource/datum ledger in a local SQLite
// database so registrations survive the acquisition process.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"srwbridge/internal/registry"
)

// Store implements registry.Registry and registry.Browser on SQLite.
type Store struct {
	db *sql.DB
}

// New opens (creating if needed) the database at dbPath.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS resources (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		path TEXT NOT NULL,
		metadata JSON NOT NULL DEFAULT '{}',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS datums (
		id TEXT PRIMARY KEY,
		resource_id TEXT NOT NULL,
		metadata JSON NOT NULL DEFAULT '{}',
		created_at TEXT NOT NULL,
		FOREIGN KEY (resource_id) REFERENCES resources(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_datums_resource ON datums(resource_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// InsertResource registers a resource and returns its generated id.
func (s *Store) InsertResource(ctx context.Context, kind, path string, meta map[string]any) (string, error) {
	id := uuid.NewString()
	data, err := marshalMeta(meta)
	if err != nil {
		return "", err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO resources (id, kind, path, metadata, created_at) VALUES (?, ?, ?, ?, ?)
	`, id, kind, path, data, now())
	if err != nil {
		return "", fmt.Errorf("failed to insert resource: %w", err)
	}
	return id, nil
}

// InsertDatum links datumID to an existing resource.
func (s *Store) InsertDatum(ctx context.Context, resourceID, datumID string, meta map[string]any) error {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM resources WHERE id = ?`, resourceID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check resource: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("unknown resource %s", resourceID)
	}

	data, err := marshalMeta(meta)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO datums (id, resource_id, metadata, created_at) VALUES (?, ?, ?, ?)
	`, datumID, resourceID, data, now())
	if err != nil {
		return fmt.Errorf("failed to insert datum: %w", err)
	}
	return nil
}

// GetResource returns the resource with the given id, or nil if absent.
func (s *Store) GetResource(ctx context.Context, id string) (*registry.Resource, error) {
	var (
		kind, path, createdAt string
		data                  []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT kind, path, metadata, created_at FROM resources WHERE id = ?
	`, id).Scan(&kind, &path, &data, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query resource: %w", err)
	}

	res := &registry.Resource{ID: id, Kind: kind, Path: path, CreatedAt: parseTime(createdAt)}
	if err := json.Unmarshal(data, &res.Metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal resource metadata: %w", err)
	}
	return res, nil
}

// ListDatums returns every datum pointing into the resource, oldest first.
func (s *Store) ListDatums(ctx context.Context, resourceID string) ([]registry.Datum, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, metadata, created_at FROM datums
		WHERE resource_id = ? ORDER BY created_at, id
	`, resourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query datums: %w", err)
	}
	defer rows.Close()

	var datums []registry.Datum
	for rows.Next() {
		var (
			d         registry.Datum
			data      []byte
			createdAt string
		)
		if err := rows.Scan(&d.ID, &data, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan datum: %w", err)
		}
		d.ResourceID = resourceID
		d.CreatedAt = parseTime(createdAt)
		if err := json.Unmarshal(data, &d.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal datum metadata: %w", err)
		}
		datums = append(datums, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating datums: %w", err)
	}
	return datums, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func marshalMeta(meta map[string]any) ([]byte, error) {
	if meta == nil {
		meta = map[string]any{}
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata: %w", err)
	}
	return data, nil
}

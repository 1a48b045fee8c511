package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// ErrRunNotFound indicates a catalog lookup for an unknown run.
var ErrRunNotFound = errors.New("storage: run not found in catalog")

// CatalogEntry is one catalogued run.
type CatalogEntry struct {
	ID       string
	Folder   string
	Preset   string
	TInitial float64
	TFinal   float64
	Steps    int
	Status   string
	Started  time.Time
	Finished time.Time
}

// Catalog indexes runs in a SQLite database so they can be listed without
// walking every output folder.
type Catalog struct {
	db   *sql.DB
	path string
}

// OpenCatalog opens or creates the catalog at path.
func OpenCatalog(path string) (*Catalog, error) {
	if path == "" {
		path = "bbnsim.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		folder TEXT NOT NULL,
		preset TEXT NOT NULL,
		t_initial REAL NOT NULL,
		t_final REAL NOT NULL,
		steps INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		started INTEGER NOT NULL,
		finished INTEGER NOT NULL DEFAULT 0
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create runs table: %w", err)
	}
	return &Catalog{db: db, path: path}, nil
}

// Record inserts or replaces the entry for e.ID.
func (c *Catalog) Record(ctx context.Context, e CatalogEntry) error {
	var finished int64
	if !e.Finished.IsZero() {
		finished = e.Finished.UnixMilli()
	}
	_, err := c.db.ExecContext(ctx, `INSERT INTO runs(id,folder,preset,t_initial,t_final,steps,status,started,finished)
		VALUES(?,?,?,?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET folder=excluded.folder, preset=excluded.preset,
			t_initial=excluded.t_initial, t_final=excluded.t_final, steps=excluded.steps,
			status=excluded.status, started=excluded.started, finished=excluded.finished`,
		e.ID, e.Folder, e.Preset, e.TInitial, e.TFinal, e.Steps, e.Status, e.Started.UnixMilli(), finished)
	if err != nil {
		return fmt.Errorf("upsert run %s: %w", e.ID, err)
	}
	return nil
}

// Get returns one entry.
func (c *Catalog) Get(ctx context.Context, id string) (CatalogEntry, error) {
	row := c.db.QueryRowContext(ctx, `SELECT id,folder,preset,t_initial,t_final,steps,status,started,finished
		FROM runs WHERE id = ?`, id)
	e, err := scanEntry(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return CatalogEntry{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return e, err
}

// List returns up to limit entries, newest first. A non-positive limit lists everything.
func (c *Catalog) List(ctx context.Context, limit int) ([]CatalogEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := c.db.QueryContext(ctx, `SELECT id,folder,preset,t_initial,t_final,steps,status,started,finished
		FROM runs ORDER BY started DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("select runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []CatalogEntry
	for rows.Next() {
		e, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEntry(scan func(dest ...any) error) (CatalogEntry, error) {
	var (
		e                 CatalogEntry
		started, finished int64
	)
	if err := scan(&e.ID, &e.Folder, &e.Preset, &e.TInitial, &e.TFinal, &e.Steps, &e.Status, &started, &finished); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return e, err
		}
		return e, fmt.Errorf("scan: %w", err)
	}
	e.Started = time.UnixMilli(started)
	if finished != 0 {
		e.Finished = time.UnixMilli(finished)
	}
	return e, nil
}

// Path returns the database path.
func (c *Catalog) Path() string { return c.path }

func (c *Catalog) Close() error { return c.db.Close() }

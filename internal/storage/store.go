package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Sink receives periodic table flushes from a running simulation.
type Sink interface {
	WriteTable(name string, rs *RecordStore) error
}

// Discard is a Sink that drops every table.
var Discard Sink = discard{}

type discard struct{}

func (discard) WriteTable(string, *RecordStore) error { return nil }

// Status of a run.
const (
	StatusRunning     = "running"
	StatusCompleted   = "completed"
	StatusInterrupted = "interrupted"
	StatusFailed      = "failed"
)

// RunMetadata is stored as metadata.json in every run folder.
type RunMetadata struct {
	ID           string             `json:"id"`
	Preset       string             `json:"preset"`
	Started      time.Time          `json:"started"`
	Finished     time.Time          `json:"finished"`
	Status       string             `json:"status"`
	TInitial     float64            `json:"t_initial"`
	TFinal       float64            `json:"t_final"`
	Dy           float64            `json:"dy"`
	Workers      int                `json:"workers"`
	Logarithmic  bool               `json:"logarithmic_timestep"`
	Steps        int                `json:"steps"`
	Particles    []string           `json:"particles"`
	Interactions []string           `json:"interactions"`
	Summary      map[string]float64 `json:"summary,omitempty"`
}

// Store manages run folders below a base directory.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) BaseDir() string { return s.baseDir }

// Create makes a new run folder named after the preset and start time and
// writes its initial metadata.
func (s *Store) Create(meta RunMetadata) (*Run, error) {
	if meta.Started.IsZero() {
		meta.Started = time.Now()
	}
	if meta.ID == "" {
		meta.ID = fmt.Sprintf("%s_%s", meta.Preset, meta.Started.Format("20060102T150405.000"))
	}
	if meta.Status == "" {
		meta.Status = StatusRunning
	}

	dir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	run := &Run{dir: dir, meta: meta}
	if err := run.SaveMetadata(); err != nil {
		return nil, err
	}
	return run, nil
}

// List returns the metadata of every run folder, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Started.After(runs[j].Started) })
	return runs, nil
}

// Load reads the metadata of one run.
func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadTable reads a table written by [Run.WriteTable].
func (s *Store) LoadTable(runID, name string) (*RecordStore, error) {
	return LoadTable(filepath.Join(s.baseDir, runID), name)
}

// LoadTable reads name.txt from a run folder.
func LoadTable(dir, name string) (*RecordStore, error) {
	f, err := os.Open(filepath.Join(dir, name+".txt"))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadText(f)
}

// Run is one run folder. It implements Sink.
type Run struct {
	dir  string
	meta RunMetadata
}

var _ Sink = (*Run)(nil)

func (r *Run) Dir() string { return r.dir }

func (r *Run) ID() string { return r.meta.ID }

// Metadata returns a copy of the current metadata.
func (r *Run) Metadata() RunMetadata { return r.meta }

// Update applies fn to the metadata and saves it.
func (r *Run) Update(fn func(*RunMetadata)) error {
	fn(&r.meta)
	return r.SaveMetadata()
}

func (r *Run) SaveMetadata() error {
	return writeAtomic(r.dir, "metadata.json", func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r.meta)
	})
}

// WriteTable replaces name.txt in the run folder. The previous file stays
// intact until the new one is completely written.
func (r *Run) WriteTable(name string, rs *RecordStore) error {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("storage: invalid table name %q", name)
	}
	return writeAtomic(r.dir, name+".txt", rs.WriteText)
}

func writeAtomic(dir, name string, write func(io.Writer) error) (err error) {
	tmp, err := os.CreateTemp(dir, "."+name+".*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = write(tmp); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(dir, name))
}

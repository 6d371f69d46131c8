package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/san-kum/statesim/internal/config"
	"github.com/san-kum/statesim/internal/dynamo"
	"github.com/san-kum/statesim/internal/metrics"
	"github.com/san-kum/statesim/internal/series"
	"github.com/san-kum/statesim/internal/sim"
)

const (
	metadataFile = "metadata.json"
	signalsFile  = "signals.csv"
	scenarioFile = "scenario.yaml"
)

// Store keeps one directory per saved run under baseDir.
type Store struct {
	baseDir string
	now     func() time.Time
	newID   func() string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now, newID: uuid.NewString}
}

func (s *Store) Init() error {
	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		return &dynamo.IOError{Op: "mkdir", Path: s.baseDir, Err: err}
	}
	return nil
}

func (s *Store) BaseDir() string { return s.baseDir }

type RunMetadata struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	Solver    string    `json:"solver"`
	Dt        float64   `json:"dt"`
	Horizon   float64   `json:"horizon"`
	Samples   int       `json:"samples"`
	Signals   []string  `json:"signals"`

	Metrics map[string]float64 `json:"metrics,omitempty"`
	// Diverged names the metrics that were NaN or infinite and so left out
	// of Metrics.
	Diverged []string `json:"diverged,omitempty"`
}

// Save writes the scenario, its metadata and the recorded signals of s into
// a fresh run directory and returns the run id. On failure the directory is
// removed.
func (s *Store) Save(cfg *config.Config, run *sim.Simulator) (string, error) {
	name := cfg.Name
	if name == "" {
		name = cfg.Model.Kind
	}
	runID := fmt.Sprintf("%s_%s", name, s.newID()[:8])
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", &dynamo.IOError{Op: "mkdir", Path: runDir, Err: err}
	}

	if err := s.writeRun(runDir, runID, name, cfg, run); err != nil {
		os.RemoveAll(runDir)
		return "", err
	}
	return runID, nil
}

func (s *Store) writeRun(runDir, runID, name string, cfg *config.Config, run *sim.Simulator) error {
	values, diverged := splitFinite(metrics.Evaluate(run.Series(), metrics.Defaults(run.SignalNames())))
	meta := RunMetadata{
		ID:        runID,
		Name:      name,
		Kind:      cfg.Model.Kind,
		Timestamp: s.now(),
		Solver:    string(run.Config().Scheme),
		Dt:        run.Config().Dt,
		Horizon:   run.Config().Horizon,
		Samples:   run.Series().Len(),
		Signals:   run.SignalNames(),
		Metrics:   values,
		Diverged:  diverged,
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return err
	}
	if err := config.Save(filepath.Join(runDir, scenarioFile), cfg); err != nil {
		return err
	}
	return run.Export(filepath.Join(runDir, signalsFile))
}

// splitFinite separates the metrics JSON can carry from the names of the
// non-finite ones.
func splitFinite(values map[string]float64) (map[string]float64, []string) {
	finite := make(map[string]float64, len(values))
	var diverged []string
	for _, name := range metrics.SortedNames(values) {
		v := values[name]
		if !(dynamo.State{v}).IsValid() {
			diverged = append(diverged, name)
			continue
		}
		finite[name] = v
	}
	return finite, diverged
}

// List returns the readable runs, newest first. Directories without valid
// metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, &dynamo.IOError{Op: "list", Path: s.baseDir, Err: err}
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

	slices.SortFunc(runs, func(a, b RunMetadata) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	path := filepath.Join(s.baseDir, runID, metadataFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &dynamo.IOError{Op: "read", Path: path, Err: err}
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &meta, nil
}

// LoadSeries reads back the recorded signal table of a run.
func (s *Store) LoadSeries(runID string) (*series.Store, error) {
	path := s.SeriesPath(runID)
	f, err := os.Open(path)
	if err != nil {
		return nil, &dynamo.IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	st, err := series.ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return st, nil
}

// LoadConfig returns the scenario a run was produced from.
func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	return config.Load(filepath.Join(s.baseDir, runID, scenarioFile))
}

// SeriesPath is the location of a run's signal CSV.
func (s *Store) SeriesPath(runID string) string {
	return filepath.Join(s.baseDir, runID, signalsFile)
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return &dynamo.IOError{Op: "create", Path: path, Err: err}
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		f.Close()
		return &dynamo.IOError{Op: "write", Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &dynamo.IOError{Op: "close", Path: path, Err: err}
	}
	return nil
}

// Package store persists relaxation runs: JSON metadata plus a CSV trace of
// the per-step residuals, one directory per run.
package store

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunMetadata summarizes one relaxation run.
type RunMetadata struct {
	ID                string    `json:"id"`
	System            string    `json:"system"`
	Timestamp         time.Time `json:"timestamp"`
	Seed              int64     `json:"seed"`
	Dt                float64   `json:"dt"`
	Steps             int       `json:"steps"`
	Tolerance         float64   `json:"tolerance"`
	MaxIterations     int       `json:"max_iterations"`
	ConvergedFraction float64   `json:"converged_fraction"`
	AvgForceEvals     float64   `json:"avg_force_evaluations"`
	WallsApplied      int64     `json:"walls_applied"`
}

// StepRecord is one MD step of the residual trace.
type StepRecord struct {
	Step       int64
	Iterations int
	Residual   float64
	Potential  float64
	Converged  bool
}

func (s *Store) Save(meta RunMetadata, trace []StepRecord) (string, error) {
	runID := fmt.Sprintf("%s_%d", meta.System, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = time.Now()
	meta.Steps = len(trace)

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "residuals.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	if err := w.Write([]string{"step", "iterations", "residual", "epot", "converged"}); err != nil {
		return "", err
	}
	for _, rec := range trace {
		row := []string{
			strconv.FormatInt(rec.Step, 10),
			strconv.Itoa(rec.Iterations),
			strconv.FormatFloat(rec.Residual, 'e', 8, 64),
			strconv.FormatFloat(rec.Potential, 'e', 8, 64),
			strconv.FormatBool(rec.Converged),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	return runID, nil
}

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
		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), "metadata.json"))
		if err != nil {
			continue
		}
		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}
	return runs, nil
}

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

// LoadTrace reads the residual trace back. Malformed rows are skipped.
func (s *Store) LoadTrace(runID string) ([]StepRecord, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "residuals.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	trace := make([]StepRecord, 0, len(records))
	for i := 1; i < len(records); i++ {
		row := records[i]
		if len(row) < 5 {
			continue
		}
		step, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			continue
		}
		iters, err := strconv.Atoi(row[1])
		if err != nil {
			continue
		}
		residual, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			continue
		}
		epot, err := strconv.ParseFloat(row[3], 64)
		if err != nil {
			continue
		}
		converged, err := strconv.ParseBool(row[4])
		if err != nil {
			continue
		}
		trace = append(trace, StepRecord{
			Step:       step,
			Iterations: iters,
			Residual:   residual,
			Potential:  epot,
			Converged:  converged,
		})
	}
	return trace, nil
}

// ExportJSON writes one run, metadata and trace together, as indented JSON.
func (s *Store) ExportJSON(runID string, w *json.Encoder) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	trace, err := s.LoadTrace(runID)
	if err != nil {
		return err
	}
	return w.Encode(struct {
		Meta  *RunMetadata `json:"meta"`
		Trace []StepRecord `json:"trace"`
	}{meta, trace})
}

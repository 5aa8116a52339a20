package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/bungeesim/internal/dynamo"
	"github.com/san-kum/bungeesim/internal/jump"
	"github.com/san-kum/bungeesim/internal/physics"
)

const (
	metadataFile = "metadata.json"
	statesFile   = "states.csv"
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

type RunMetadata struct {
	ID          string               `json:"id"`
	Timestamp   time.Time            `json:"timestamp"`
	Integrator  string               `json:"integrator"`
	Inputs      jump.Inputs          `json:"inputs"`
	StartHeight float64              `json:"start_height"`
	Duration    float64              `json:"duration"`
	Params      physics.BungeeParams `json:"params"`
	Samples     int                  `json:"samples"`
	Outcome     jump.Outcome         `json:"outcome"`
	ImpactIndex int                  `json:"impact_index"`
	ImpactTime  float64              `json:"impact_time"`
	Diagnostics []string             `json:"diagnostics"`
	Metrics     map[string]float64   `json:"metrics"`
}

func (s *Store) Save(result *jump.Result, integrator string) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("jump_%d", now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:          runID,
		Timestamp:   now,
		Integrator:  integrator,
		Inputs:      result.Inputs,
		StartHeight: result.StartHeight,
		Duration:    result.Duration,
		Params:      result.Params,
		Samples:     len(result.Trajectory),
		Outcome:     result.Outcome,
		ImpactIndex: result.ImpactIndex,
		ImpactTime:  result.ImpactTime,
		Diagnostics: result.Diagnostics,
		Metrics:     result.Metrics,
	}

	if err := writeMetadata(filepath.Join(runDir, metadataFile), &meta); err != nil {
		os.RemoveAll(runDir)
		return "", fmt.Errorf("write metadata: %w", err)
	}
	if err := writeStates(filepath.Join(runDir, statesFile), result); err != nil {
		os.RemoveAll(runDir)
		return "", fmt.Errorf("write states: %w", err)
	}
	return runID, nil
}

func writeMetadata(path string, meta *RunMetadata) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return err
	}
	return f.Close()
}

func writeStates(path string, result *jump.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := WriteCSV(w, result); err != nil {
		return err
	}
	return f.Close()
}

// WriteCSV writes a time,height,velocity table and flushes w.
func WriteCSV(w *csv.Writer, result *jump.Result) error {
	if err := w.Write([]string{"time", "height", "velocity"}); err != nil {
		return err
	}
	for i, x := range result.Trajectory {
		row := []string{
			formatFloat(result.Times[i]),
			formatFloat(x[physics.Height]),
			formatFloat(x[physics.Velocity]),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// List returns stored runs, oldest first.
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

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadStates(runID string) (jump.Trajectory, []float64, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, statesFile))
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = 3

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) < 2 {
		return jump.Trajectory{}, []float64{}, nil
	}

	times := make([]float64, 0, len(records)-1)
	states := make(jump.Trajectory, 0, len(records)-1)

	for i, record := range records[1:] {
		var row [3]float64
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("%s line %d: %w", statesFile, i+2, err)
			}
			row[j] = v
		}
		times = append(times, row[0])
		states = append(states, dynamo.State{row[1], row[2]})
	}

	return states, times, nil
}

// LoadResult rebuilds a result from its metadata and stored trajectory.
func (s *Store) LoadResult(runID string) (*jump.Result, *RunMetadata, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	states, times, err := s.LoadStates(runID)
	if err != nil {
		return nil, nil, err
	}

	return &jump.Result{
		Inputs:      meta.Inputs,
		StartHeight: meta.StartHeight,
		Duration:    meta.Duration,
		Params:      meta.Params,
		Times:       times,
		Trajectory:  states,
		Diagnostics: meta.Diagnostics,
		Outcome:     meta.Outcome,
		ImpactIndex: meta.ImpactIndex,
		ImpactTime:  meta.ImpactTime,
		Metrics:     meta.Metrics,
	}, meta, nil
}

type ExportData struct {
	RunMetadata
	Times  []float64   `json:"times"`
	States [][]float64 `json:"states"`
}

// ExportJSON writes a run's metadata and full trajectory as one document.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	result, meta, err := s.LoadResult(runID)
	if err != nil {
		return err
	}

	data := ExportData{
		RunMetadata: *meta,
		Times:       result.Times,
		States:      make([][]float64, len(result.Trajectory)),
	}
	for i, x := range result.Trajectory {
		data.States[i] = x
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

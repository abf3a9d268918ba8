package operations

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/crypto/blake2b"

	apperrors "ridership/internal/errors"
	"ridership/pkg/contracts/domain"
)

// Run statuses
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusPartial   = "partial"
	RunStatusFailed    = "failed"
)

// Manifest records what a run read, what it produced and how each station
// ended. It is written as JSON next to the outputs.
type Manifest struct {
	mu sync.RWMutex

	RunID     string                 `json:"run_id"`
	StartTime time.Time              `json:"start_time"`
	EndTime   *time.Time             `json:"end_time,omitempty"`
	Status    string                 `json:"status"`
	Config    map[string]interface{} `json:"config,omitempty"`

	Inputs   []InputFile               `json:"inputs"`
	Stations map[string]*StationRecord `json:"stations"`
}

// InputFile identifies an input by content
type InputFile struct {
	Path   string `json:"path"`
	Size   int64  `json:"size"`
	Digest string `json:"blake2b_256"`
}

// StationRecord is the manifest entry of one station job
type StationRecord struct {
	Status    StationStatus      `json:"status"`
	StartTime time.Time          `json:"start_time"`
	EndTime   time.Time          `json:"end_time,omitempty"`
	Duration  string             `json:"duration,omitempty"`
	Steps     []StepExecution    `json:"steps"`
	Outputs   []string           `json:"outputs,omitempty"`
	Metrics   *domain.FitMetrics `json:"metrics,omitempty"`
	Error     string             `json:"error,omitempty"`
	ErrorType string             `json:"error_type,omitempty"`
}

// StepExecution tracks the execution of a single step
type StepExecution struct {
	StepID    string     `json:"step_id"`
	StepName  string     `json:"step_name"`
	StartTime time.Time  `json:"start_time"`
	EndTime   time.Time  `json:"end_time,omitempty"`
	Duration  string     `json:"duration,omitempty"`
	Status    StepStatus `json:"status"`
	Error     string     `json:"error,omitempty"`
}

// NewManifest creates the manifest of a run
func NewManifest(runID string, cfg map[string]interface{}) *Manifest {
	return &Manifest{
		RunID:     runID,
		StartTime: time.Now(),
		Status:    RunStatusRunning,
		Config:    cfg,
		Inputs:    []InputFile{},
		Stations:  make(map[string]*StationRecord),
	}
}

// DigestFile returns the BLAKE2b-256 digest and size of a file
func DigestFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, apperrors.NewStorageError(fmt.Sprintf("failed to open %s", path), err)
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return "", 0, err
	}
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, apperrors.NewStorageError(fmt.Sprintf("failed to read %s", path), err)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// AddInput digests path and records it once
func (m *Manifest) AddInput(path string) error {
	m.mu.RLock()
	for _, in := range m.Inputs {
		if in.Path == path {
			m.mu.RUnlock()
			return nil
		}
	}
	m.mu.RUnlock()

	digest, size, err := DigestFile(path)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Inputs = append(m.Inputs, InputFile{Path: path, Size: size, Digest: digest})
	sort.Slice(m.Inputs, func(i, j int) bool { return m.Inputs[i].Path < m.Inputs[j].Path })
	return nil
}

// StartStation opens the record of a station
func (m *Manifest) StartStation(station string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Stations[station] = &StationRecord{
		Status:    StationStatusRunning,
		StartTime: time.Now(),
		Steps:     []StepExecution{},
	}
}

// RecordStepStart records the start of a step execution
func (m *Manifest) RecordStepStart(station, stepID, stepName string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := m.station(station)
	rec.Steps = append(rec.Steps, StepExecution{
		StepID:    stepID,
		StepName:  stepName,
		StartTime: time.Now(),
		Status:    StepStatusActive,
	})
}

// RecordStepCompletion records the completion of a step
func (m *Manifest) RecordStepCompletion(station, stepID string) {
	m.finishStep(station, stepID, StepStatusCompleted, nil)
}

// RecordStepFailure records a step failure
func (m *Manifest) RecordStepFailure(station, stepID string, err error) {
	m.finishStep(station, stepID, StepStatusFailed, err)
}

// RecordStepSkipped records a step that never ran
func (m *Manifest) RecordStepSkipped(station, stepID, stepName string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := m.station(station)
	rec.Steps = append(rec.Steps, StepExecution{
		StepID:   stepID,
		StepName: stepName,
		Status:   StepStatusSkipped,
	})
}

func (m *Manifest) finishStep(station, stepID string, status StepStatus, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := m.station(station)
	for i := range rec.Steps {
		if rec.Steps[i].StepID != stepID {
			continue
		}
		now := time.Now()
		rec.Steps[i].EndTime = now
		rec.Steps[i].Duration = now.Sub(rec.Steps[i].StartTime).String()
		rec.Steps[i].Status = status
		if err != nil {
			rec.Steps[i].Error = err.Error()
		}
		return
	}
}

// FinishStation closes the record of a station from its final state
func (m *Manifest) FinishStation(state *StationState) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := m.station(state.Station.Name)
	rec.EndTime = time.Now()
	rec.Duration = rec.EndTime.Sub(rec.StartTime).String()
	rec.Status = state.Status
	rec.Outputs = state.GetOutputs()
	if state.Result != nil {
		metrics := state.Result.Metrics
		rec.Metrics = &metrics
	}
	if state.Error != nil {
		rec.Error = state.Error.Error()
		rec.ErrorType = string(apperrors.TypeOf(state.Error))
	}
}

// station returns the record of a station. Callers hold m.mu.
func (m *Manifest) station(name string) *StationRecord {
	rec, ok := m.Stations[name]
	if !ok {
		rec = &StationRecord{Status: StationStatusPending, Steps: []StepExecution{}}
		m.Stations[name] = rec
	}
	return rec
}

// Finish sets the run status from the station outcomes
func (m *Manifest) Finish() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	m.EndTime = &now

	failed := 0
	for _, rec := range m.Stations {
		if rec.Status != StationStatusCompleted {
			failed++
		}
	}
	switch {
	case failed == 0:
		m.Status = RunStatusCompleted
	case failed == len(m.Stations):
		m.Status = RunStatusFailed
	default:
		m.Status = RunStatusPartial
	}
}

// FailedStations returns the stations that did not complete, sorted
func (m *Manifest) FailedStations() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []string
	for name, rec := range m.Stations {
		if rec.Status != StationStatusCompleted {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// SaveToFile writes the manifest as indented JSON. The file is replaced
// atomically.
func (m *Manifest) SaveToFile(path string) error {
	m.mu.RLock()
	data, err := json.MarshalIndent(m, "", "  ")
	m.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace manifest file: %w", err)
	}
	return nil
}

// LoadManifestFromFile loads a manifest from a JSON file
func LoadManifestFromFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file: %w", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to unmarshal manifest: %w", err)
	}
	return &manifest, nil
}

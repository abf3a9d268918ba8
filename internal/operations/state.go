package operations

import (
	"sync"
	"time"

	"ridership/internal/config"
	"ridership/internal/dataset"
	"ridership/internal/features"
	"ridership/internal/regression"
	"ridership/pkg/contracts/domain"
)

// StationStatus represents the overall status of a station job
type StationStatus string

const (
	StationStatusPending   StationStatus = "pending"
	StationStatusRunning   StationStatus = "running"
	StationStatusCompleted StationStatus = "completed"
	StationStatusFailed    StationStatus = "failed"
)

// StationState carries one station through its steps. Each step reads the
// output of the previous one and stores its own.
type StationState struct {
	mu sync.RWMutex

	Station config.StationConfig
	Files   dataset.Files

	Status    StationStatus
	StartTime time.Time
	EndTime   *time.Time
	Steps     map[string]*StepState
	Error     error

	Table    *dataset.Table
	Matrix   *features.Matrix
	Analysis *regression.Analysis
	Result   *domain.StationResult
	Outputs  []string
}

// NewStationState creates the state of a pending station job
func NewStationState(station config.StationConfig, files dataset.Files) *StationState {
	return &StationState{
		Station: station,
		Files:   files,
		Status:  StationStatusPending,
		Steps:   make(map[string]*StepState),
	}
}

// Start marks the station as running
func (s *StationState) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Status = StationStatusRunning
	s.StartTime = time.Now()
}

// Complete marks the station as completed
func (s *StationState) Complete() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.Status = StationStatusCompleted
	s.EndTime = &now
}

// Fail marks the station as failed
func (s *StationState) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.Status = StationStatusFailed
	s.EndTime = &now
	s.Error = err
}

// StepState returns the state of a step, creating it on first use
func (s *StationState) StepState(step Step) *StepState {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.Steps[step.ID()]
	if !ok {
		st = NewStepState(step.ID(), step.Name())
		s.Steps[step.ID()] = st
	}
	return st
}

// AddOutput records a file written for the station
func (s *StationState) AddOutput(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Outputs = append(s.Outputs, path)
}

// GetOutputs returns the files written so far
func (s *StationState) GetOutputs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.Outputs...)
}

// Duration returns how long the station has been running
func (s *StationState) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.EndTime != nil {
		return s.EndTime.Sub(s.StartTime)
	}
	return time.Since(s.StartTime)
}

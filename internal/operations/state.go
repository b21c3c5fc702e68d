package operations

import (
	"sync"
	"time"

	"gridmerge/internal/timeseries"
)

// OperationStatus represents the overall operation status.
type OperationStatus string

const (
	OperationStatusPending   OperationStatus = "pending"
	OperationStatusRunning   OperationStatus = "running"
	OperationStatusCompleted OperationStatus = "completed"
	OperationStatusFailed    OperationStatus = "failed"
	OperationStatusCancelled OperationStatus = "cancelled"
)

// OperationState is the complete state of one combine job execution.
// The artifacts the steps hand to each other are typed fields rather
// than a bag of interface values, so a step reaching for data that an
// earlier step never produced fails loudly at the reach, not three
// steps later.
type OperationState struct {
	mu sync.RWMutex

	ID        string
	Status    OperationStatus
	StartTime time.Time
	EndTime   *time.Time
	Steps     []*StepState
	Err       string

	// Job input and step artifacts.
	Job        *JobSpec
	Grid       timeseries.TimeGrid
	Datasets   map[string]*timeseries.Dataset
	Selectable map[string][]string // per stacked source: columns open for selection
	Combined   *timeseries.CombinedDataset
	Warnings   []timeseries.Warning
}

// NewOperationState creates a pending state for a job.
func NewOperationState(id string, job *JobSpec) *OperationState {
	return &OperationState{
		ID:         id,
		Status:     OperationStatusPending,
		StartTime:  time.Now(),
		Job:        job,
		Datasets:   make(map[string]*timeseries.Dataset),
		Selectable: make(map[string][]string),
	}
}

// Start marks the operation running.
func (o *OperationState) Start() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Status = OperationStatusRunning
	o.StartTime = time.Now()
}

// Complete marks the operation completed.
func (o *OperationState) Complete() {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := time.Now()
	o.EndTime = &now
	o.Status = OperationStatusCompleted
}

// Fail marks the operation failed.
func (o *OperationState) Fail(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := time.Now()
	o.EndTime = &now
	o.Status = OperationStatusFailed
	o.Err = err.Error()
}

// Cancel marks the operation cancelled.
func (o *OperationState) Cancel() {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := time.Now()
	o.EndTime = &now
	o.Status = OperationStatusCancelled
}

// AddStep registers a step's state in pipeline order.
func (o *OperationState) AddStep(s *StepState) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Steps = append(o.Steps, s)
}

// StepByID returns the state of one step.
func (o *OperationState) StepByID(id string) *StepState {
	o.mu.RLock()
	defer o.mu.RUnlock()
	for _, s := range o.Steps {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// AddWarnings appends pipeline warnings.
func (o *OperationState) AddWarnings(ws ...timeseries.Warning) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Warnings = append(o.Warnings, ws...)
}

// Duration returns how long the operation has been running, or ran.
func (o *OperationState) Duration() time.Duration {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.EndTime != nil {
		return o.EndTime.Sub(o.StartTime)
	}
	return time.Since(o.StartTime)
}

// CurrentStatus returns the status under the read lock.
func (o *OperationState) CurrentStatus() OperationStatus {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.Status
}

// Snapshot returns a serialization-safe copy of the observable state.
func (o *OperationState) Snapshot() OperationSnapshot {
	o.mu.RLock()
	defer o.mu.RUnlock()

	snap := OperationSnapshot{
		ID:        o.ID,
		Status:    o.Status,
		StartTime: o.StartTime,
		EndTime:   o.EndTime,
		Error:     o.Err,
		Warnings:  append([]timeseries.Warning(nil), o.Warnings...),
	}
	for _, s := range o.Steps {
		snap.Steps = append(snap.Steps, s.Snapshot())
	}
	return snap
}

// OperationSnapshot is the wire representation of an operation's state.
type OperationSnapshot struct {
	ID        string               `json:"id"`
	Status    OperationStatus      `json:"status"`
	StartTime time.Time            `json:"start_time"`
	EndTime   *time.Time           `json:"end_time,omitempty"`
	Steps     []StepSnapshot       `json:"steps"`
	Error     string               `json:"error,omitempty"`
	Warnings  []timeseries.Warning `json:"warnings,omitempty"`
}

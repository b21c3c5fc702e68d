package operations

import (
	"context"
	"sync"
	"time"
)

// Step is a single stage of the combine pipeline.
type Step interface {
	// ID returns the unique identifier for this step.
	ID() string

	// Name returns the human-readable name for this step.
	Name() string

	// Execute runs the step against the shared operation state.
	Execute(ctx context.Context, state *OperationState) error
}

// StepStatus represents the current status of a step.
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusActive    StepStatus = "active"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
)

// StepState is the runtime state of one step. It is shared between the
// executing pipeline and concurrent snapshot readers; serialization goes
// through StepSnapshot.
type StepState struct {
	mu        sync.RWMutex
	ID        string
	Name      string
	Status    StepStatus
	StartTime *time.Time
	EndTime   *time.Time
	Progress  float64
	Message   string
	Error     string
}

// StepSnapshot is the wire form of a step's state.
type StepSnapshot struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Status    StepStatus `json:"status"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Progress  float64    `json:"progress"`
	Message   string     `json:"message"`
	Error     string     `json:"error,omitempty"`
}

// NewStepState creates a pending step state.
func NewStepState(id, name string) *StepState {
	return &StepState{ID: id, Name: name, Status: StepStatusPending}
}

// Start marks the step active.
func (s *StepState) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.StartTime = &now
	s.Status = StepStatusActive
	s.Progress = 0
}

// Complete marks the step completed.
func (s *StepState) Complete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.EndTime = &now
	s.Status = StepStatusCompleted
	s.Progress = 100
}

// Fail marks the step failed with the given error.
func (s *StepState) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.EndTime = &now
	s.Status = StepStatusFailed
	s.Error = err.Error()
}

// Skip marks the step skipped with a reason.
func (s *StepState) Skip(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.EndTime = &now
	s.Status = StepStatusSkipped
	s.Message = reason
}

// UpdateProgress updates the progress percentage and message.
func (s *StepState) UpdateProgress(progress float64, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Progress = progress
	s.Message = message
}

// Snapshot returns a copy safe for serialization.
func (s *StepState) Snapshot() StepSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StepSnapshot{
		ID:        s.ID,
		Name:      s.Name,
		Status:    s.Status,
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
		Progress:  s.Progress,
		Message:   s.Message,
		Error:     s.Error,
	}
}

// Duration returns how long the step has been running, or ran.
func (s *StepState) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.StartTime == nil {
		return 0
	}
	if s.EndTime != nil {
		return s.EndTime.Sub(*s.StartTime)
	}
	return time.Since(*s.StartTime)
}

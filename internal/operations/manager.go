package operations

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventSink receives operation state transitions. Implementations must
// not block; the manager calls them inline between steps.
type EventSink interface {
	OperationEvent(snapshot OperationSnapshot)
}

// EventSinkFunc adapts a function to the EventSink interface.
type EventSinkFunc func(OperationSnapshot)

func (f EventSinkFunc) OperationEvent(s OperationSnapshot) { f(s) }

// Manager executes combine jobs and retains their observable state so
// callers can inspect finished and in-flight operations.
type Manager struct {
	mu         sync.RWMutex
	operations map[string]*OperationState

	steps  []Step
	sink   EventSink
	logger *slog.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithSteps overrides the default pipeline. Used by tests.
func WithSteps(steps ...Step) ManagerOption {
	return func(m *Manager) { m.steps = steps }
}

// WithEventSink wires a sink for state transitions.
func WithEventSink(sink EventSink) ManagerOption {
	return func(m *Manager) { m.sink = sink }
}

// NewManager creates a manager running the default pipeline.
func NewManager(logger *slog.Logger, opts ...ManagerOption) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		operations: make(map[string]*OperationState),
		steps:      DefaultSteps(),
		logger:     logger.With(slog.String("component", "operations")),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run executes one job synchronously and returns its final state. The
// state is also retained and queryable by ID while and after the run.
// A step failure stops the pipeline; cancellation marks the operation
// cancelled rather than failed.
func (m *Manager) Run(ctx context.Context, job *JobSpec) (*OperationState, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}

	state := NewOperationState(uuid.NewString(), job)
	for _, step := range m.steps {
		state.AddStep(NewStepState(step.ID(), step.Name()))
	}

	m.mu.Lock()
	m.operations[state.ID] = state
	m.mu.Unlock()

	logger := m.logger.With(slog.String("operation_id", state.ID))
	logger.InfoContext(ctx, "operation started",
		slog.Int("sources", len(job.Sources)),
		slog.String("interval", job.Grid.Interval))

	state.Start()
	m.publish(state)

	start := time.Now()
	err := m.runSteps(ctx, state, logger)
	switch {
	case err == nil:
		state.Complete()
		recordOperation("completed", time.Since(start))
		logger.InfoContext(ctx, "operation completed",
			slog.Duration("duration", state.Duration()),
			slog.Int("warnings", len(state.Warnings)))
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		state.Cancel()
		recordOperation("cancelled", time.Since(start))
		logger.WarnContext(ctx, "operation cancelled", slog.Duration("duration", state.Duration()))
	default:
		state.Fail(err)
		recordOperation("failed", time.Since(start))
		logger.ErrorContext(ctx, "operation failed", slog.String("error", err.Error()))
	}
	m.publish(state)

	if err != nil {
		return state, err
	}
	return state, nil
}

func (m *Manager) runSteps(ctx context.Context, state *OperationState, logger *slog.Logger) error {
	for _, step := range m.steps {
		if err := ctx.Err(); err != nil {
			return err
		}

		stepState := state.StepByID(step.ID())
		stepState.Start()
		m.publish(state)
		logger.InfoContext(ctx, "step started", slog.String("step", step.ID()))

		if err := step.Execute(ctx, state); err != nil {
			stepState.Fail(err)
			m.publish(state)
			return err
		}

		// Execute may have skipped itself; don't overwrite that.
		if s := stepState.Snapshot(); s.Status == StepStatusActive {
			stepState.Complete()
		}
		m.publish(state)
		logger.InfoContext(ctx, "step finished",
			slog.String("step", step.ID()),
			slog.Duration("duration", stepState.Duration()))
	}
	return nil
}

// Get returns a retained operation state by ID.
func (m *Manager) Get(id string) (*OperationState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.operations[id]
	return state, ok
}

// List returns snapshots of all retained operations.
func (m *Manager) List() []OperationSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]OperationSnapshot, 0, len(m.operations))
	for _, state := range m.operations {
		out = append(out, state.Snapshot())
	}
	return out
}

func (m *Manager) publish(state *OperationState) {
	if m.sink == nil {
		return
	}
	m.sink.OperationEvent(state.Snapshot())
}

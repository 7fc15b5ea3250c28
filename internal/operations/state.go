package operations

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"ecompulse/internal/config"
)

// RunStatus represents the lifecycle state of a pipeline run.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// RunSnapshot is an immutable copy of a run's state, safe to marshal and
// broadcast to progress subscribers.
type RunSnapshot struct {
	ID         string         `json:"id"`
	Status     RunStatus      `json:"status"`
	DataDir    string         `json:"data_dir"`
	RunDir     string         `json:"run_dir"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
	Progress   float64        `json:"progress"`
	Error      string         `json:"error,omitempty"`
	Steps      []StepSnapshot `json:"steps"`
}

// RunState tracks one pipeline run and the state of each of its steps.
// The run identity (ID, directories) is immutable after construction;
// everything else mutates behind the mutex.
type RunState struct {
	mu sync.RWMutex

	ID        string
	Status    RunStatus
	StartTime time.Time
	EndTime   *time.Time
	Error     string

	dataDir string
	paths   *config.RunPaths
	steps   map[string]*StepState
	order   []string
}

// NewRunState creates the state for a fresh run. The run directory is
// <outputRoot>/<runID> with a UUID run ID.
func NewRunState(dataDir, outputRoot string, steps []Step) *RunState {
	id := uuid.New().String()
	state := &RunState{
		ID:      id,
		Status:  RunStatusPending,
		dataDir: dataDir,
		paths:   config.NewRunPaths(dataDir, outputRoot, id),
		steps:   make(map[string]*StepState, len(steps)),
	}
	for _, step := range steps {
		state.steps[step.ID()] = newStepState(step)
		state.order = append(state.order, step.ID())
	}
	return state
}

// NewRunStateFromManifest rebuilds run state from a persisted manifest so a
// single stage can be re-run against an existing run directory. Steps keep
// the status they had in the manifest; steps the manifest never saw start
// pending.
func NewRunStateFromManifest(m *Manifest, outputRoot string, steps []Step) *RunState {
	state := &RunState{
		ID:        m.RunID,
		Status:    m.Status,
		StartTime: m.StartedAt,
		Error:     m.Error,
		dataDir:   m.DataDir,
		paths:     config.NewRunPaths(m.DataDir, outputRoot, m.RunID),
		steps:     make(map[string]*StepState, len(steps)),
	}
	if m.FinishedAt != nil {
		t := *m.FinishedAt
		state.EndTime = &t
	}

	records := make(map[string]StepRecord, len(m.Steps))
	for _, rec := range m.Steps {
		records[rec.ID] = rec
	}
	for _, step := range steps {
		ss := newStepState(step)
		if rec, ok := records[step.ID()]; ok {
			ss.Status = rec.Status
			ss.Error = rec.Error
			if rec.StartedAt != nil {
				t := *rec.StartedAt
				ss.StartTime = &t
			}
			if rec.FinishedAt != nil {
				t := *rec.FinishedAt
				ss.EndTime = &t
			}
			if ss.Status == StepStatusCompleted {
				ss.Progress = 100
			}
		}
		state.steps[step.ID()] = ss
		state.order = append(state.order, step.ID())
	}
	return state
}

// DataDir returns the directory of the source CSV datasets.
func (r *RunState) DataDir() string {
	return r.dataDir
}

// Paths returns the artifact layout of the run directory.
func (r *RunState) Paths() config.RunPaths {
	return *r.paths
}

// Step returns the state of the step with the given ID, or nil when the run
// does not include it.
func (r *RunState) Step(id string) *StepState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.steps[id]
}

// Steps returns the step states in execution order.
func (r *RunState) Steps() []*StepState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*StepState, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.steps[id])
	}
	return out
}

// Start marks the run as running.
func (r *RunState) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Status = RunStatusRunning
	r.StartTime = time.Now()
	r.EndTime = nil
	r.Error = ""
}

// Complete marks the run as completed.
func (r *RunState) Complete() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	r.Status = RunStatusCompleted
	r.EndTime = &now
}

// Fail marks the run as failed with the given error.
func (r *RunState) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	r.Status = RunStatusFailed
	r.EndTime = &now
	if err != nil {
		r.Error = err.Error()
	}
}

// Cancel marks the run as cancelled with the given cause.
func (r *RunState) Cancel(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	r.Status = RunStatusCancelled
	r.EndTime = &now
	if err != nil {
		r.Error = err.Error()
	}
}

// CurrentStatus returns the run status.
func (r *RunState) CurrentStatus() RunStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.Status
}

// Duration returns how long the run has been going, or took.
func (r *RunState) Duration() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.StartTime.IsZero() {
		return 0
	}
	if r.EndTime == nil {
		return time.Since(r.StartTime)
	}
	return r.EndTime.Sub(r.StartTime)
}

// Progress returns the percentage of steps that completed.
func (r *RunState) Progress() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.progressLocked()
}

func (r *RunState) progressLocked() float64 {
	if len(r.order) == 0 {
		return 0
	}
	completed := 0
	for _, step := range r.steps {
		if step.CurrentStatus() == StepStatusCompleted {
			completed++
		}
	}
	return float64(completed) / float64(len(r.order)) * 100
}

// Snapshot copies the run state, including every step in execution order.
func (r *RunState) Snapshot() RunSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := RunSnapshot{
		ID:        r.ID,
		Status:    r.Status,
		DataDir:   r.dataDir,
		RunDir:    r.paths.RunDir,
		StartedAt: r.StartTime,
		Progress:  r.progressLocked(),
		Error:     r.Error,
	}
	if r.EndTime != nil {
		t := *r.EndTime
		snap.FinishedAt = &t
	}
	for _, id := range r.order {
		snap.Steps = append(snap.Steps, r.steps[id].snapshot(r.paths))
	}
	return snap
}

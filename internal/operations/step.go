package operations

import (
	"context"
	"sync"
	"time"

	"ecompulse/internal/config"
)

// StepStatus represents the lifecycle state of a single step.
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusRunning   StepStatus = "running"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
)

// Step is a single unit of work in the pipeline. Implementations wrap one
// stage engine; they read inputs from disk and persist their outputs into
// the run directory, never passing data to other steps in memory.
type Step interface {
	// ID returns the stage identifier (config.Stage* constant).
	ID() string

	// Name returns a human-readable step name.
	Name() string

	// Execute runs the step against the run's data and output directories.
	Execute(ctx context.Context, state *RunState) error

	// RequiredArtifacts lists run-directory files that must exist before the
	// step can run in isolation. Empty for steps that only read the data dir.
	RequiredArtifacts() []string

	// ProducedArtifacts lists the well-known files the step writes into the
	// run directory, relative to it.
	ProducedArtifacts() []string
}

// StepSnapshot is an immutable copy of a step's state, safe to marshal and
// broadcast.
type StepSnapshot struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Status     StepStatus `json:"status"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Duration   string     `json:"duration,omitempty"`
	Progress   float64    `json:"progress"`
	Message    string     `json:"message,omitempty"`
	Error      string     `json:"error,omitempty"`
	Artifacts  []string   `json:"artifacts,omitempty"`
}

// StepState tracks the runtime state of one step. All mutation goes through
// the methods, which hold the state's mutex.
type StepState struct {
	mu sync.RWMutex

	ID        string
	Name      string
	Status    StepStatus
	StartTime *time.Time
	EndTime   *time.Time
	Progress  float64
	Message   string
	Error     string

	produces []string
}

func newStepState(step Step) *StepState {
	return &StepState{
		ID:       step.ID(),
		Name:     step.Name(),
		Status:   StepStatusPending,
		produces: step.ProducedArtifacts(),
	}
}

// Start marks the step as running.
func (s *StepState) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.Status = StepStatusRunning
	s.StartTime = &now
	s.Progress = 0
	s.Message = "started"
	s.Error = ""
}

// Complete marks the step as completed.
func (s *StepState) Complete() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.Status = StepStatusCompleted
	s.EndTime = &now
	s.Progress = 100
	s.Message = "completed"
}

// Fail marks the step as failed with the given error.
func (s *StepState) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.Status = StepStatusFailed
	s.EndTime = &now
	if err != nil {
		s.Error = err.Error()
		s.Message = err.Error()
	}
}

// Skip marks the step as skipped with a reason.
func (s *StepState) Skip(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Status = StepStatusSkipped
	s.Message = reason
}

// UpdateProgress records step progress as a percentage with a message.
func (s *StepState) UpdateProgress(progress float64, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	s.Progress = progress
	s.Message = message
}

// Duration returns how long the step ran. Zero until started; running steps
// report the elapsed time so far.
func (s *StepState) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.StartTime == nil {
		return 0
	}
	if s.EndTime == nil {
		return time.Since(*s.StartTime)
	}
	return s.EndTime.Sub(*s.StartTime)
}

// CurrentStatus returns the step status.
func (s *StepState) CurrentStatus() StepStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status
}

// snapshot copies the step state. Declared artifacts are filtered to the
// ones actually present in the run directory at snapshot time.
func (s *StepState) snapshot(paths *config.RunPaths) StepSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := StepSnapshot{
		ID:       s.ID,
		Name:     s.Name,
		Status:   s.Status,
		Progress: s.Progress,
		Message:  s.Message,
		Error:    s.Error,
	}
	if s.StartTime != nil {
		t := *s.StartTime
		snap.StartedAt = &t
	}
	if s.EndTime != nil {
		t := *s.EndTime
		snap.FinishedAt = &t
		if s.StartTime != nil {
			snap.Duration = s.EndTime.Sub(*s.StartTime).String()
		}
	}
	for _, name := range s.produces {
		if config.FileExists(paths.Artifact(name)) {
			snap.Artifacts = append(snap.Artifacts, name)
		}
	}
	return snap
}

package operations

import (
	"errors"
	"fmt"
)

var (
	// ErrRunActive is returned when a run is requested while another one is
	// still executing. Runs are single-flight per manager.
	ErrRunActive = errors.New("a pipeline run is already active")

	// ErrRunNotFound is returned when no run with the given ID exists, in
	// memory or on disk.
	ErrRunNotFound = errors.New("run not found")

	// ErrRunNotActive is returned when cancelling a run that is not
	// currently executing.
	ErrRunNotActive = errors.New("run is not active")

	// ErrUnknownStage is returned for stage identifiers outside the fixed
	// pipeline order.
	ErrUnknownStage = errors.New("unknown stage")

	// ErrMissingArtifact is returned when a single-stage run requires an
	// artifact that is not on disk.
	ErrMissingArtifact = errors.New("required artifact missing")
)

// StepError wraps a failure with the step that produced it.
type StepError struct {
	StepID string
	Err    error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s: %v", e.StepID, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

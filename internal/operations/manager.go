package operations

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"go.opentelemetry.io/otel/codes"

	"ecompulse/internal/config"
)

// ProgressHub receives run snapshots on every state transition. The
// websocket package implements it; a nil hub disables broadcasting.
type ProgressHub interface {
	BroadcastRun(snapshot RunSnapshot)
}

// Manager executes pipeline runs. Steps run strictly in order; a step
// failure marks the run failed and halts, with the remaining steps marked
// skipped. Only one run executes at a time.
type Manager struct {
	cfg         config.AnalysisConfig
	outputRoot  string
	stepTimeout time.Duration
	runTimeout  time.Duration
	logger      *slog.Logger
	hub         ProgressHub
	metrics     *pipelineMetrics

	mu       sync.RWMutex
	runs     map[string]*runEntry
	activeID string
}

type runEntry struct {
	state  *RunState
	cancel context.CancelFunc
}

// NewManager creates a pipeline manager writing runs under outputRoot.
// A nil hub disables progress broadcasting; a nil logger falls back to the
// default logger.
func NewManager(cfg config.AnalysisConfig, outputRoot string, hub ProgressHub, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	metrics, err := newPipelineMetrics()
	if err != nil {
		logger.Warn("pipeline metrics disabled", slog.String("error", err.Error()))
	}

	return &Manager{
		cfg:         cfg,
		outputRoot:  outputRoot,
		stepTimeout: config.DefaultStageTimeout,
		runTimeout:  config.DefaultRunTimeout,
		logger:      logger,
		hub:         hub,
		metrics:     metrics,
	}
}

// StepsFor resolves stage identifiers into executable steps. The result is
// always in canonical pipeline order regardless of the input order; an
// empty list selects every stage.
func (m *Manager) StepsFor(stages []string) ([]Step, error) {
	all := m.allSteps()
	if len(stages) == 0 {
		return all, nil
	}

	known := make(map[string]bool, len(all))
	for _, step := range all {
		known[step.ID()] = true
	}

	want := make(map[string]bool, len(stages))
	for _, id := range stages {
		if !known[id] {
			return nil, fmt.Errorf("%w: %s", ErrUnknownStage, id)
		}
		want[id] = true
	}

	steps := make([]Step, 0, len(want))
	for _, step := range all {
		if want[step.ID()] {
			steps = append(steps, step)
		}
	}
	return steps, nil
}

// StageIDs returns the stage identifiers in canonical pipeline order.
func (m *Manager) StageIDs() []string {
	all := m.allSteps()
	ids := make([]string, 0, len(all))
	for _, step := range all {
		ids = append(ids, step.ID())
	}
	return ids
}

func (m *Manager) allSteps() []Step {
	return []Step{
		NewQualityStep(m.cfg, m.logger),
		NewExploreStep(m.cfg, m.logger),
		NewHypothesesStep(m.logger),
		NewVisualizeStep(m.logger),
		NewCodegenStep(m.logger),
		NewReportStep(m.logger),
	}
}

// Run executes the given steps in order against the CSV datasets in dataDir
// and blocks until the run finishes. The returned state carries the run ID
// and the final per-step statuses even when the run failed.
func (m *Manager) Run(ctx context.Context, dataDir string, steps []Step) (*RunState, error) {
	state := NewRunState(dataDir, m.outputRoot, steps)
	if err := m.begin(state, nil); err != nil {
		return nil, err
	}
	defer m.finish(state.ID)

	return state, m.execute(ctx, state, steps)
}

// Launch starts a run on a background goroutine after synchronously
// reserving the single-flight slot, so callers learn about a conflicting
// active run immediately. The run is bounded by the default run timeout
// and can be stopped early with Cancel.
func (m *Manager) Launch(dataDir string, stages []string) (RunSnapshot, error) {
	steps, err := m.StepsFor(stages)
	if err != nil {
		return RunSnapshot{}, err
	}
	return m.launch(dataDir, steps)
}

func (m *Manager) launch(dataDir string, steps []Step) (RunSnapshot, error) {
	state := NewRunState(dataDir, m.outputRoot, steps)
	runCtx, cancel := context.WithTimeout(context.Background(), m.runTimeout)
	if err := m.begin(state, cancel); err != nil {
		cancel()
		return RunSnapshot{}, err
	}

	go func() {
		defer cancel()
		defer m.finish(state.ID)
		if err := m.execute(runCtx, state, steps); err != nil {
			m.logger.Error("pipeline run finished with error",
				slog.String("run_id", state.ID),
				slog.String("error", err.Error()))
		}
	}()

	return state.Snapshot(), nil
}

// RunSingle re-runs one stage of an existing run. The run directory and its
// manifest must already exist, and every artifact the stage requires must be
// on disk, otherwise the run fails validation before executing anything.
func (m *Manager) RunSingle(ctx context.Context, runID, stepID string) (*RunState, error) {
	steps, err := m.StepsFor([]string{stepID})
	if err != nil {
		return nil, err
	}
	return m.runSingle(ctx, runID, steps[0])
}

func (m *Manager) runSingle(ctx context.Context, runID string, step Step) (*RunState, error) {
	manifest, err := LoadManifest(filepath.Join(m.outputRoot, runID, config.RunManifestFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	state := NewRunStateFromManifest(manifest, m.outputRoot, m.allSteps())
	paths := state.Paths()
	for _, artifact := range step.RequiredArtifacts() {
		if !config.FileExists(paths.Artifact(artifact)) {
			return nil, fmt.Errorf("%w: stage %s needs %s", ErrMissingArtifact, step.ID(), artifact)
		}
	}

	if err := m.begin(state, nil); err != nil {
		return nil, err
	}
	defer m.finish(state.ID)

	start := time.Now()
	runCtx, span := startRunSpan(ctx, state.ID, []string{step.ID()})
	defer span.End()

	m.logger.InfoContext(runCtx, "single stage run started",
		slog.String("run_id", state.ID),
		slog.String("step", step.ID()))

	state.Start()
	m.metrics.runStarted(runCtx)
	m.transition(runCtx, state)

	if err := m.executeStep(runCtx, state, step); err != nil {
		state.Fail(err)
		m.metrics.runFinished(runCtx, RunStatusFailed, time.Since(start))
		span.SetStatus(codes.Error, "stage failed")
		m.transition(runCtx, state)
		return state, err
	}

	state.Complete()
	m.metrics.runFinished(runCtx, RunStatusCompleted, time.Since(start))
	span.SetStatus(codes.Ok, "stage completed")
	m.transition(runCtx, state)

	m.logger.InfoContext(runCtx, "single stage run completed",
		slog.String("run_id", state.ID),
		slog.String("step", step.ID()),
		slog.Duration("duration", time.Since(start)))
	return state, nil
}

// Cancel stops an executing background run. Runs driven by a caller-owned
// context are cancelled through that context instead.
func (m *Manager) Cancel(runID string) error {
	m.mu.RLock()
	entry, ok := m.runs[runID]
	active := m.activeID == runID
	m.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if !active || entry.cancel == nil {
		return fmt.Errorf("%w: %s", ErrRunNotActive, runID)
	}

	entry.cancel()
	m.logger.Info("pipeline run cancellation requested", slog.String("run_id", runID))
	return nil
}

// GetRun returns a snapshot of a run this manager executed.
func (m *Manager) GetRun(runID string) (RunSnapshot, bool) {
	m.mu.RLock()
	entry, ok := m.runs[runID]
	m.mu.RUnlock()

	if !ok {
		return RunSnapshot{}, false
	}
	return entry.state.Snapshot(), true
}

// ListRuns returns snapshots of every run this manager executed, most
// recently started first.
func (m *Manager) ListRuns() []RunSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snaps := make([]RunSnapshot, 0, len(m.runs))
	for _, entry := range m.runs {
		snaps = append(snaps, entry.state.Snapshot())
	}
	for i := 0; i < len(snaps); i++ {
		for j := i + 1; j < len(snaps); j++ {
			if snaps[j].StartedAt.After(snaps[i].StartedAt) {
				snaps[i], snaps[j] = snaps[j], snaps[i]
			}
		}
	}
	return snaps
}

// begin reserves the single-flight slot and registers the run.
func (m *Manager) begin(state *RunState, cancel context.CancelFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.activeID != "" {
		return fmt.Errorf("%w: run %s", ErrRunActive, m.activeID)
	}
	if m.runs == nil {
		m.runs = make(map[string]*runEntry)
	}
	m.activeID = state.ID
	m.runs[state.ID] = &runEntry{state: state, cancel: cancel}
	return nil
}

func (m *Manager) finish(runID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.activeID == runID {
		m.activeID = ""
	}
}

// execute drives the steps of one run in order.
func (m *Manager) execute(ctx context.Context, state *RunState, steps []Step) error {
	start := time.Now()
	runCtx, span := startRunSpan(ctx, state.ID, stepIDs(steps))
	defer span.End()

	paths := state.Paths()
	if err := paths.EnsureDirectories(); err != nil {
		state.Fail(err)
		span.SetStatus(codes.Error, "run setup failed")
		return fmt.Errorf("prepare run directory: %w", err)
	}

	m.logger.InfoContext(runCtx, "pipeline run started",
		slog.String("run_id", state.ID),
		slog.String("data_dir", state.DataDir()),
		slog.String("run_dir", paths.RunDir),
		slog.Int("steps", len(steps)))

	state.Start()
	m.metrics.runStarted(runCtx)
	m.transition(runCtx, state)

	for i, step := range steps {
		select {
		case <-runCtx.Done():
			m.haltRun(runCtx, state, steps[i:], runCtx.Err())
			m.metrics.runFinished(runCtx, RunStatusCancelled, time.Since(start))
			span.SetStatus(codes.Error, "run cancelled")
			return fmt.Errorf("pipeline run cancelled: %w", runCtx.Err())
		default:
		}

		if err := m.executeStep(runCtx, state, step); err != nil {
			m.haltRun(runCtx, state, steps[i+1:], err)
			status := state.CurrentStatus()
			m.metrics.runFinished(runCtx, status, time.Since(start))
			span.SetStatus(codes.Error, "run halted")
			return err
		}
	}

	state.Complete()
	m.metrics.runFinished(runCtx, RunStatusCompleted, time.Since(start))
	span.SetStatus(codes.Ok, "run completed")
	m.transition(runCtx, state)

	m.logger.InfoContext(runCtx, "pipeline run completed",
		slog.String("run_id", state.ID),
		slog.Int("steps", len(steps)),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// executeStep runs one step under the step timeout and records the outcome.
func (m *Manager) executeStep(ctx context.Context, state *RunState, step Step) error {
	stepState := state.Step(step.ID())

	stepCtx, cancel := context.WithTimeout(ctx, m.stepTimeout)
	defer cancel()

	stepCtx, span := startStepSpan(stepCtx, state.ID, step.ID())
	defer span.End()

	m.logger.InfoContext(stepCtx, "step started",
		slog.String("run_id", state.ID),
		slog.String("step", step.ID()))

	stepState.Start()
	m.transition(stepCtx, state)

	start := time.Now()
	err := step.Execute(stepCtx, state)
	duration := time.Since(start)

	if err != nil {
		stepState.Fail(err)
		m.metrics.stepFinished(ctx, step.ID(), StepStatusFailed, duration)
		span.RecordError(err)
		span.SetStatus(codes.Error, "step failed")
		m.transition(ctx, state)

		m.logger.ErrorContext(ctx, "step failed",
			slog.String("run_id", state.ID),
			slog.String("step", step.ID()),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return &StepError{StepID: step.ID(), Err: err}
	}

	stepState.Complete()
	m.metrics.stepFinished(ctx, step.ID(), StepStatusCompleted, duration)
	span.SetStatus(codes.Ok, "step completed")
	m.transition(ctx, state)

	m.logger.InfoContext(ctx, "step completed",
		slog.String("run_id", state.ID),
		slog.String("step", step.ID()),
		slog.Duration("duration", duration))
	return nil
}

// haltRun marks the remaining steps skipped and finalizes the run status.
func (m *Manager) haltRun(ctx context.Context, state *RunState, remaining []Step, cause error) {
	reason := "previous step failed"
	if ctx.Err() != nil {
		reason = "run cancelled"
	}

	skipped := make([]string, 0, len(remaining))
	for _, step := range remaining {
		stepState := state.Step(step.ID())
		if stepState == nil || stepState.CurrentStatus() != StepStatusPending {
			continue
		}
		stepState.Skip(reason)
		skipped = append(skipped, step.ID())
	}

	if ctx.Err() != nil {
		state.Cancel(cause)
		m.logger.WarnContext(ctx, "pipeline run cancelled",
			slog.String("run_id", state.ID),
			slog.Any("skipped", skipped),
			slog.String("error", cause.Error()))
	} else {
		state.Fail(cause)
		m.logger.ErrorContext(ctx, "pipeline run failed",
			slog.String("run_id", state.ID),
			slog.Any("skipped", skipped),
			slog.String("error", cause.Error()))
	}
	m.transition(ctx, state)
}

// transition persists the manifest and broadcasts a snapshot. Manifest
// write failures are logged, not fatal: a broken manifest must not lose a
// finished analysis.
func (m *Manager) transition(ctx context.Context, state *RunState) {
	if err := WriteManifest(state, m.cfg); err != nil {
		m.logger.WarnContext(ctx, "manifest write failed",
			slog.String("run_id", state.ID),
			slog.String("error", err.Error()))
	}
	if m.hub != nil {
		m.hub.BroadcastRun(state.Snapshot())
	}
}

func stepIDs(steps []Step) []string {
	ids := make([]string, 0, len(steps))
	for _, step := range steps {
		ids = append(ids, step.ID())
	}
	return ids
}

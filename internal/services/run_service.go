package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ecompulse/internal/config"
	"ecompulse/internal/operations"
)

// RunService exposes pipeline runs to the transport layer. It resolves
// directories against the configured paths and reads run history from the
// manifests the manager persists under the output root.
type RunService struct {
	manager *operations.Manager
	paths   config.PathsConfig
	logger  *slog.Logger
}

// Artifact describes one file a pipeline step produced.
type Artifact struct {
	Name       string    `json:"name"`
	Step       string    `json:"step"`
	SizeBytes  int64     `json:"size_bytes"`
	ModifiedAt time.Time `json:"modified_at"`
}

// NewRunService creates a run service around the pipeline manager.
func NewRunService(manager *operations.Manager, paths config.PathsConfig, logger *slog.Logger) *RunService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RunService{
		manager: manager,
		paths:   paths,
		logger:  logger.With(slog.String("service", "runs")),
	}
}

// Launch starts a pipeline run in the background. An empty dataDir selects
// the configured data directory; an empty stage list selects every stage.
func (s *RunService) Launch(ctx context.Context, dataDir string, stages []string) (operations.RunSnapshot, error) {
	if dataDir == "" {
		dataDir = s.paths.DataDir
	}

	resolved, err := config.ResolveDir(dataDir)
	if err != nil {
		return operations.RunSnapshot{}, err
	}
	info, err := os.Stat(resolved)
	if err != nil || !info.IsDir() {
		return operations.RunSnapshot{}, fmt.Errorf("%w: %s", ErrDataDirNotFound, dataDir)
	}

	snap, err := s.manager.Launch(resolved, stages)
	if err != nil {
		return operations.RunSnapshot{}, err
	}

	s.logger.InfoContext(ctx, "pipeline run launched",
		slog.String("run_id", snap.ID),
		slog.String("data_dir", resolved),
		slog.Int("stages", len(snap.Steps)))
	return snap, nil
}

// RerunStage re-executes one stage of an existing run and blocks until it
// finishes. The returned snapshot carries the final stage statuses even on
// failure.
func (s *RunService) RerunStage(ctx context.Context, runID, stageID string) (operations.RunSnapshot, error) {
	state, err := s.manager.RunSingle(ctx, runID, stageID)
	if state == nil {
		return operations.RunSnapshot{}, err
	}
	return state.Snapshot(), err
}

// Cancel stops an active background run.
func (s *RunService) Cancel(ctx context.Context, runID string) error {
	if err := s.manager.Cancel(runID); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "pipeline run cancelled", slog.String("run_id", runID))
	return nil
}

// ListRuns returns every run manifest under the output root, newest first.
func (s *RunService) ListRuns(ctx context.Context) ([]*operations.Manifest, error) {
	return operations.ListManifests(s.paths.OutputDir)
}

// GetManifest loads the manifest of one run.
func (s *RunService) GetManifest(ctx context.Context, runID string) (*operations.Manifest, error) {
	path := filepath.Join(s.paths.OutputDir, runID, config.RunManifestFile)
	m, err := operations.LoadManifest(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", operations.ErrRunNotFound, runID)
		}
		return nil, err
	}
	return m, nil
}

// Artifacts returns the artifact inventory of a run: every declared output
// recorded in the manifest that still exists on disk.
func (s *RunService) Artifacts(ctx context.Context, runID string) ([]Artifact, error) {
	m, err := s.GetManifest(ctx, runID)
	if err != nil {
		return nil, err
	}

	runDir := filepath.Join(s.paths.OutputDir, runID)
	artifacts := make([]Artifact, 0)
	for _, step := range m.Steps {
		for _, name := range step.Artifacts {
			info, err := os.Stat(filepath.Join(runDir, name))
			if err != nil {
				continue
			}
			artifacts = append(artifacts, Artifact{
				Name:       name,
				Step:       step.ID,
				SizeBytes:  info.Size(),
				ModifiedAt: info.ModTime(),
			})
		}
	}
	return artifacts, nil
}

// ResolveArtifact maps a run-relative artifact name to its absolute path,
// rejecting paths that escape the run directory.
func (s *RunService) ResolveArtifact(runID, name string) (string, error) {
	runDir, err := filepath.Abs(filepath.Join(s.paths.OutputDir, runID))
	if err != nil {
		return "", err
	}

	full, err := filepath.Abs(filepath.Join(runDir, name))
	if err != nil {
		return "", err
	}
	if full != runDir && !strings.HasPrefix(full, runDir+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %s", ErrInvalidArtifactPath, name)
	}

	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrArtifactNotFound, name)
	}
	return full, nil
}

// StageIDs returns the stage identifiers in canonical pipeline order.
func (s *RunService) StageIDs() []string {
	return s.manager.StageIDs()
}

// DataDir returns the configured default data directory.
func (s *RunService) DataDir() string {
	return s.paths.DataDir
}

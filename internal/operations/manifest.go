package operations

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"ecompulse/internal/config"
)

// Manifest is the on-disk record of one pipeline run, kept in
// run_manifest.json inside the run directory. It is rewritten after every
// state transition so the file always reflects the latest one.
type Manifest struct {
	RunID      string                `json:"run_id"`
	Status     RunStatus             `json:"status"`
	DataDir    string                `json:"data_dir"`
	StartedAt  time.Time             `json:"started_at"`
	FinishedAt *time.Time            `json:"finished_at,omitempty"`
	UpdatedAt  time.Time             `json:"updated_at"`
	Config     config.AnalysisConfig `json:"config"`
	Steps      []StepRecord          `json:"steps"`
	Error      string                `json:"error,omitempty"`
}

// StepRecord is the manifest entry for one step. Artifacts lists the
// declared outputs that exist on disk at write time.
type StepRecord struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Status     StepStatus `json:"status"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Duration   string     `json:"duration,omitempty"`
	Artifacts  []string   `json:"artifacts,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// BuildManifest captures the current run state as a manifest.
func BuildManifest(state *RunState, cfg config.AnalysisConfig) *Manifest {
	snap := state.Snapshot()

	m := &Manifest{
		RunID:      snap.ID,
		Status:     snap.Status,
		DataDir:    snap.DataDir,
		StartedAt:  snap.StartedAt,
		FinishedAt: snap.FinishedAt,
		UpdatedAt:  time.Now(),
		Config:     cfg,
		Error:      snap.Error,
	}
	for _, step := range snap.Steps {
		m.Steps = append(m.Steps, StepRecord{
			ID:         step.ID,
			Name:       step.Name,
			Status:     step.Status,
			StartedAt:  step.StartedAt,
			FinishedAt: step.FinishedAt,
			Duration:   step.Duration,
			Artifacts:  step.Artifacts,
			Error:      step.Error,
		})
	}
	return m
}

// WriteManifest persists the current run state into the run directory.
// The write is atomic: a temp file in the same directory is renamed over
// the previous manifest.
func WriteManifest(state *RunState, cfg config.AnalysisConfig) error {
	return BuildManifest(state, cfg).Write(state.Paths().Manifest)
}

// Write saves the manifest to the given path via temp file and rename.
func (m *Manifest) Write(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create run directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".manifest-*.json")
	if err != nil {
		return fmt.Errorf("create temp manifest: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp manifest: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace manifest: %w", err)
	}
	return nil
}

// LoadManifest reads a manifest from disk.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", filepath.Base(path), err)
	}
	return &m, nil
}

// ListManifests loads every run manifest found directly under the output
// root, newest run first. Unreadable manifests are skipped.
func ListManifests(outputRoot string) ([]*Manifest, error) {
	pattern := filepath.Join(outputRoot, "*", config.RunManifestFile)
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("scan output root: %w", err)
	}

	manifests := make([]*Manifest, 0, len(matches))
	for _, path := range matches {
		m, err := LoadManifest(path)
		if err != nil {
			continue
		}
		manifests = append(manifests, m)
	}
	sort.Slice(manifests, func(i, j int) bool {
		return manifests[i].StartedAt.After(manifests[j].StartedAt)
	})
	return manifests, nil
}

package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// RunPaths is the single source of truth for the artifact layout of one
// pipeline run. Every stage resolves its inputs and outputs through it so
// the on-disk contract between stages lives in exactly one place.
type RunPaths struct {
	DataDir      string
	OutputRoot   string
	RunDir       string
	ChartsDir    string
	GeneratedDir string

	// Well-known artifact files inside RunDir
	Manifest           string
	QualityAssessment  string
	QualityCSV         string
	QualityText        string
	IssuesLog          string
	Recommendations    string
	Exploratory        string
	StatisticalCSV     string
	PatternAnalysis    string
	EDAWorkbook        string
	Hypotheses         string
	HypothesesMD       string
	ExperimentalDesign string
	VisualizationIndex string
	Dashboard          string
	GenerationSummary  string
	FinalHTML          string
	FinalMarkdown      string
	AnalysisIndex      string
}

// NewRunPaths lays out the artifact tree for a run. The run directory is
// <outputRoot>/<runID>; charts and generated code live in subdirectories.
func NewRunPaths(dataDir, outputRoot, runID string) *RunPaths {
	runDir := filepath.Join(outputRoot, runID)

	return &RunPaths{
		DataDir:      dataDir,
		OutputRoot:   outputRoot,
		RunDir:       runDir,
		ChartsDir:    filepath.Join(runDir, ChartsDirName),
		GeneratedDir: filepath.Join(runDir, GeneratedDirName),

		Manifest:           filepath.Join(runDir, RunManifestFile),
		QualityAssessment:  filepath.Join(runDir, QualityAssessmentFile),
		QualityCSV:         filepath.Join(runDir, QualitySummaryCSV),
		QualityText:        filepath.Join(runDir, QualitySummaryText),
		IssuesLog:          filepath.Join(runDir, DataIssuesLog),
		Recommendations:    filepath.Join(runDir, RecommendationsFile),
		Exploratory:        filepath.Join(runDir, ExploratoryFile),
		StatisticalCSV:     filepath.Join(runDir, StatisticalSummaryCSV),
		PatternAnalysis:    filepath.Join(runDir, PatternAnalysisFile),
		EDAWorkbook:        filepath.Join(runDir, EDAWorkbookFile),
		Hypotheses:         filepath.Join(runDir, HypothesesFile),
		HypothesesMD:       filepath.Join(runDir, HypothesesMarkdown),
		ExperimentalDesign: filepath.Join(runDir, ExperimentalDesignFile),
		VisualizationIndex: filepath.Join(runDir, VisualizationIndexFile),
		Dashboard:          filepath.Join(runDir, DashboardFile),
		GenerationSummary:  filepath.Join(runDir, GenerationSummaryFile),
		FinalHTML:          filepath.Join(runDir, FinalReportHTML),
		FinalMarkdown:      filepath.Join(runDir, FinalReportMarkdown),
		AnalysisIndex:      filepath.Join(runDir, AnalysisIndexFile),
	}
}

// EnsureDirectories creates the run directory tree if it doesn't exist.
func (p *RunPaths) EnsureDirectories() error {
	directories := []string{
		p.RunDir,
		p.ChartsDir,
		p.GeneratedDir,
	}

	logger := slog.Default()

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		logger.Debug("Ensured directory exists", slog.String("directory", dir))
	}

	return nil
}

// Artifact returns the absolute path of a named artifact inside the run dir.
func (p *RunPaths) Artifact(name string) string {
	return filepath.Join(p.RunDir, name)
}

// ChartPath returns the path of a chart file inside the charts directory.
func (p *RunPaths) ChartPath(name string) string {
	return filepath.Join(p.ChartsDir, name)
}

// ResolveDir turns a possibly relative directory into an absolute one,
// anchored at the current working directory.
func ResolveDir(path string) (string, error) {
	if filepath.IsAbs(path) {
		return path, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return filepath.Join(wd, path), nil
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

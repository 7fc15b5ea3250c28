package operations

import (
	"context"
	"fmt"
	"log/slog"

	"ecompulse/internal/codegen"
	"ecompulse/internal/config"
	"ecompulse/internal/dataset"
	"ecompulse/internal/explore"
	"ecompulse/internal/hypothesis"
	"ecompulse/internal/quality"
	"ecompulse/internal/report"
	"ecompulse/internal/visualize"
)

// QualityStep scores every dataset on the four quality dimensions and
// persists the assessment artifacts.
type QualityStep struct {
	cfg    config.AnalysisConfig
	logger *slog.Logger
}

// NewQualityStep creates the quality assessment step.
func NewQualityStep(cfg config.AnalysisConfig, logger *slog.Logger) *QualityStep {
	return &QualityStep{cfg: cfg, logger: stepLogger(logger, config.StageQuality)}
}

func (s *QualityStep) ID() string   { return config.StageQuality }
func (s *QualityStep) Name() string { return "Data Quality Assessment" }

func (s *QualityStep) RequiredArtifacts() []string { return nil }

func (s *QualityStep) ProducedArtifacts() []string {
	return []string{
		config.QualityAssessmentFile,
		config.QualitySummaryCSV,
		config.QualitySummaryText,
		config.DataIssuesLog,
		config.RecommendationsFile,
	}
}

func (s *QualityStep) Execute(ctx context.Context, state *RunState) error {
	catalog, err := dataset.Load(ctx, state.DataDir(), s.logger)
	if err != nil {
		return fmt.Errorf("load datasets: %w", err)
	}
	updateStep(state, s.ID(), 30, fmt.Sprintf("assessing %d datasets", catalog.Len()))

	assessment, err := quality.NewAssessor(s.cfg, s.logger).Assess(ctx, catalog)
	if err != nil {
		return fmt.Errorf("assess quality: %w", err)
	}
	updateStep(state, s.ID(), 80, "writing quality artifacts")

	return quality.SaveAll(assessment, state.Paths())
}

// ExploreStep computes the statistical summaries, correlations, patterns and
// cross-dataset relationships.
type ExploreStep struct {
	cfg    config.AnalysisConfig
	logger *slog.Logger
}

// NewExploreStep creates the exploratory analysis step.
func NewExploreStep(cfg config.AnalysisConfig, logger *slog.Logger) *ExploreStep {
	return &ExploreStep{cfg: cfg, logger: stepLogger(logger, config.StageExplore)}
}

func (s *ExploreStep) ID() string   { return config.StageExplore }
func (s *ExploreStep) Name() string { return "Exploratory Analysis" }

func (s *ExploreStep) RequiredArtifacts() []string { return nil }

func (s *ExploreStep) ProducedArtifacts() []string {
	return []string{
		config.ExploratoryFile,
		config.StatisticalSummaryCSV,
		config.PatternAnalysisFile,
		config.EDAWorkbookFile,
	}
}

func (s *ExploreStep) Execute(ctx context.Context, state *RunState) error {
	catalog, err := dataset.Load(ctx, state.DataDir(), s.logger)
	if err != nil {
		return fmt.Errorf("load datasets: %w", err)
	}
	updateStep(state, s.ID(), 30, fmt.Sprintf("analyzing %d datasets", catalog.Len()))

	analysis, err := explore.NewAnalyzer(s.cfg, s.logger).Analyze(ctx, catalog)
	if err != nil {
		return fmt.Errorf("exploratory analysis: %w", err)
	}
	updateStep(state, s.ID(), 80, "writing analysis artifacts")

	return explore.SaveAll(analysis, state.Paths())
}

// HypothesesStep derives research hypotheses from the statistical triggers
// in the datasets.
type HypothesesStep struct {
	logger *slog.Logger
}

// NewHypothesesStep creates the hypothesis generation step.
func NewHypothesesStep(logger *slog.Logger) *HypothesesStep {
	return &HypothesesStep{logger: stepLogger(logger, config.StageHypotheses)}
}

func (s *HypothesesStep) ID() string   { return config.StageHypotheses }
func (s *HypothesesStep) Name() string { return "Hypothesis Generation" }

func (s *HypothesesStep) RequiredArtifacts() []string { return nil }

func (s *HypothesesStep) ProducedArtifacts() []string {
	return []string{
		config.HypothesesFile,
		config.HypothesesMarkdown,
		config.ExperimentalDesignFile,
	}
}

func (s *HypothesesStep) Execute(ctx context.Context, state *RunState) error {
	catalog, err := dataset.Load(ctx, state.DataDir(), s.logger)
	if err != nil {
		return fmt.Errorf("load datasets: %w", err)
	}
	updateStep(state, s.ID(), 40, "evaluating hypothesis rules")

	result, err := hypothesis.NewGenerator(s.logger).Generate(ctx, catalog)
	if err != nil {
		return fmt.Errorf("generate hypotheses: %w", err)
	}
	updateStep(state, s.ID(), 80, fmt.Sprintf("writing %d hypotheses", len(result.Hypotheses)))

	return hypothesis.SaveAll(result, state.Paths())
}

// VisualizeStep renders the chart gallery and the standalone dashboard.
type VisualizeStep struct {
	logger *slog.Logger
}

// NewVisualizeStep creates the visualization step.
func NewVisualizeStep(logger *slog.Logger) *VisualizeStep {
	return &VisualizeStep{logger: stepLogger(logger, config.StageVisualize)}
}

func (s *VisualizeStep) ID() string   { return config.StageVisualize }
func (s *VisualizeStep) Name() string { return "Visualization" }

func (s *VisualizeStep) RequiredArtifacts() []string { return nil }

func (s *VisualizeStep) ProducedArtifacts() []string {
	return []string{
		config.VisualizationIndexFile,
		config.DashboardFile,
	}
}

func (s *VisualizeStep) Execute(ctx context.Context, state *RunState) error {
	catalog, err := dataset.Load(ctx, state.DataDir(), s.logger)
	if err != nil {
		return fmt.Errorf("load datasets: %w", err)
	}
	updateStep(state, s.ID(), 30, "rendering charts")

	result, err := visualize.NewRenderer(s.logger).Render(ctx, catalog, state.Paths().ChartsDir)
	if err != nil {
		return fmt.Errorf("render charts: %w", err)
	}
	updateStep(state, s.ID(), 80, fmt.Sprintf("indexing %d charts", len(result.Charts)))

	return visualize.SaveAll(result, state.Paths())
}

// CodegenStep emits the standalone analysis module for the datasets.
type CodegenStep struct {
	logger *slog.Logger
}

// NewCodegenStep creates the code generation step.
func NewCodegenStep(logger *slog.Logger) *CodegenStep {
	return &CodegenStep{logger: stepLogger(logger, config.StageCodegen)}
}

func (s *CodegenStep) ID() string   { return config.StageCodegen }
func (s *CodegenStep) Name() string { return "Code Generation" }

func (s *CodegenStep) RequiredArtifacts() []string { return nil }

func (s *CodegenStep) ProducedArtifacts() []string {
	return []string{config.GenerationSummaryFile}
}

func (s *CodegenStep) Execute(ctx context.Context, state *RunState) error {
	catalog, err := dataset.Load(ctx, state.DataDir(), s.logger)
	if err != nil {
		return fmt.Errorf("load datasets: %w", err)
	}
	updateStep(state, s.ID(), 40, "generating analysis code")

	result, err := codegen.NewGenerator(s.logger).Generate(ctx, catalog, state.Paths().GeneratedDir)
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	updateStep(state, s.ID(), 80, fmt.Sprintf("wrote %d files", len(result.Files)))

	return codegen.SaveSummary(result, state.Paths().GenerationSummary)
}

// ReportStep assembles the executive report from whichever stage artifacts
// the run produced. Every upstream artifact is optional; the step fails only
// when the run directory holds no analysis artifacts at all.
type ReportStep struct {
	logger *slog.Logger
}

// NewReportStep creates the report generation step.
func NewReportStep(logger *slog.Logger) *ReportStep {
	return &ReportStep{logger: stepLogger(logger, config.StageReport)}
}

func (s *ReportStep) ID() string   { return config.StageReport }
func (s *ReportStep) Name() string { return "Report Generation" }

func (s *ReportStep) RequiredArtifacts() []string { return nil }

func (s *ReportStep) ProducedArtifacts() []string {
	return []string{
		config.FinalReportHTML,
		config.FinalReportMarkdown,
		config.AnalysisIndexFile,
	}
}

func (s *ReportStep) Execute(ctx context.Context, state *RunState) error {
	updateStep(state, s.ID(), 20, "loading stage artifacts")

	doc, err := report.NewBuilder(s.logger).Build(ctx, state.Paths())
	if err != nil {
		return fmt.Errorf("assemble report: %w", err)
	}
	updateStep(state, s.ID(), 80, "writing report files")

	return report.SaveAll(doc, state.Paths())
}

func stepLogger(logger *slog.Logger, id string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With(slog.String("step", id))
}

func updateStep(state *RunState, id string, progress float64, message string) {
	if step := state.Step(id); step != nil {
		step.UpdateProgress(progress, message)
	}
}

package report

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"path/filepath"
	"sort"
	"time"

	"ecompulse/internal/config"
	"ecompulse/internal/explore"
	"ecompulse/internal/exporter"
	"ecompulse/internal/hypothesis"
)

const dateLayout = "2006-01-02"

// Strategic recommendations accompany every report. The first slot of the
// final list is reserved for the quality gate verdict.
var strategicRecommendations = []string{
	"Focus on top-performing product categories for inventory optimization",
	"Implement targeted marketing campaigns for high-value customer segments",
	"Optimize logistics based on regional order patterns",
	"Monitor customer satisfaction scores for quality improvement",
	"Analyze payment method preferences to optimize checkout process",
}

// Builder assembles the final report from the artifacts of earlier stages.
type Builder struct {
	logger *slog.Logger
}

// NewBuilder creates a builder. A nil logger falls back to the default.
func NewBuilder(logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{logger: logger}
}

// Build loads whatever upstream artifacts exist under the run directory and
// assembles the report document. Missing or unreadable artifacts become
// notes; only a run with no artifacts at all fails.
func (b *Builder) Build(ctx context.Context, paths config.RunPaths) (*Document, error) {
	start := time.Now()

	b.logger.InfoContext(ctx, "starting report assembly",
		"run_dir", paths.RunDir,
	)

	inputs := b.loadInputs(ctx, paths)
	if inputs.Empty() {
		return nil, fmt.Errorf("no analysis artifacts found in %s", paths.RunDir)
	}

	doc := &Document{
		Summary:     buildSummary(inputs),
		Inputs:      inputs,
		GeneratedAt: time.Now(),
	}

	b.logger.InfoContext(ctx, "report assembled",
		"findings", len(doc.Summary.KeyFindings),
		"notes", len(inputs.Notes),
		"duration", time.Since(start),
	)
	return doc, nil
}

func (b *Builder) loadInputs(ctx context.Context, paths config.RunPaths) Inputs {
	var inputs Inputs

	var qa QualityArtifact
	if b.loadOptional(ctx, paths.QualityAssessment, "quality", &qa, &inputs.Notes) {
		inputs.Quality = &qa
	}

	var ea ExploreArtifact
	if b.loadOptional(ctx, paths.Exploratory, "key statistics", &ea, &inputs.Notes) {
		inputs.Explore = &ea
	}

	var ha HypothesesArtifact
	if b.loadOptional(ctx, paths.Hypotheses, "hypotheses", &ha, &inputs.Notes) {
		inputs.Hypotheses = &ha
	}

	var ca ChartsArtifact
	if b.loadOptional(ctx, paths.VisualizationIndex, "visualizations", &ca, &inputs.Notes) {
		inputs.Charts = &ca
	}

	return inputs
}

// loadOptional reads one artifact into v, appending a note when the file is
// missing or unreadable. Returns true only when the artifact loaded.
func (b *Builder) loadOptional(ctx context.Context, path, section string, v interface{}, notes *[]string) bool {
	err := exporter.ReadJSON(path, v)
	if err == nil {
		return true
	}

	name := filepath.Base(path)
	if errors.Is(err, fs.ErrNotExist) {
		*notes = append(*notes, fmt.Sprintf("%s not found; %s section omitted.", name, section))
		b.logger.InfoContext(ctx, "artifact missing", "file", name)
	} else {
		*notes = append(*notes, fmt.Sprintf("%s could not be parsed; %s section omitted.", name, section))
		b.logger.WarnContext(ctx, "artifact unreadable", "file", name, "error", err)
	}
	return false
}

func buildSummary(inputs Inputs) ExecutiveSummary {
	summary := ExecutiveSummary{
		AnalysisDate:    time.Now().Format(dateLayout),
		KeyFindings:     keyFindings(inputs),
		Recommendations: recommendations(inputs.Quality),
	}

	switch {
	case inputs.Quality != nil:
		summary.DatasetsAnalyzed = inputs.Quality.Summary.DatasetsAssessed
		summary.OverallQuality = inputs.Quality.Summary.AvgOverall
		for _, r := range inputs.Quality.Datasets {
			summary.TotalRows += r.Shape.Rows
		}
	case inputs.Explore != nil:
		summary.DatasetsAnalyzed = len(inputs.Explore.Datasets)
		for _, d := range inputs.Explore.Datasets {
			summary.TotalRows += d.StatisticalSummary.BasicInfo.Rows
		}
	}

	return summary
}

// keyFindings distills one highlight per available artifact: the quality
// verdict, the strongest correlation, the worst outlier column, the top
// priority hypothesis and the chart count.
func keyFindings(inputs Inputs) []Finding {
	var findings []Finding

	if q := inputs.Quality; q != nil {
		verdict := fmt.Sprintf("quality gate (%.0f%%) missed", q.Summary.QualityGate)
		if q.Summary.Acceptable {
			verdict = fmt.Sprintf("quality gate (%.0f%%) passed", q.Summary.QualityGate)
		}
		findings = append(findings, Finding{
			Metric:  "Data Quality Score",
			Value:   fmt.Sprintf("%.1f / 100", q.Summary.AvgOverall),
			Insight: fmt.Sprintf("Average across %d datasets; %s", q.Summary.DatasetsAssessed, verdict),
		})
	}

	if e := inputs.Explore; e != nil {
		if name, c, ok := strongestCorrelation(e); ok {
			findings = append(findings, Finding{
				Metric:  "Strongest Correlation",
				Value:   fmt.Sprintf("%s vs %s (r = %.2f)", c.Variable1, c.Variable2, c.Correlation),
				Insight: fmt.Sprintf("Found in %s", name),
			})
		}
		if name, o, ok := worstOutlier(e); ok {
			findings = append(findings, Finding{
				Metric:  "Highest Outlier Rate",
				Value:   fmt.Sprintf("%.1f%% of %s", o.OutlierPercentage, o.Column),
				Insight: fmt.Sprintf("%d IQR outliers in %s", o.OutlierCount, name),
			})
		}
	}

	if h := inputs.Hypotheses; h != nil && len(h.Hypotheses) > 0 {
		ranked := hypothesis.Result{Hypotheses: h.Hypotheses}
		top := ranked.Prioritized(1)[0]
		findings = append(findings, Finding{
			Metric:  "Top Research Hypothesis",
			Value:   fmt.Sprintf("%s: %s", top.ID, top.Title),
			Insight: top.Hypothesis,
		})
	}

	if c := inputs.Charts; c != nil && len(c.Charts) > 0 {
		findings = append(findings, Finding{
			Metric:  "Visualizations",
			Value:   fmt.Sprintf("%d charts", len(c.Charts)),
			Insight: "Chart gallery and standalone dashboard rendered",
		})
	}

	return findings
}

// recommendations returns the action list, the gate verdict first and the
// strategic items after it.
func recommendations(q *QualityArtifact) []string {
	recs := make([]string, 0, len(strategicRecommendations)+1)

	switch {
	case q == nil:
		recs = append(recs, "Re-run the data quality assessment to obtain a quality gate verdict")
	case q.Summary.Acceptable:
		recs = append(recs, fmt.Sprintf("Data quality passed the %.0f%% gate; proceed with hypothesis validation", q.Summary.QualityGate))
	default:
		recs = append(recs, fmt.Sprintf("Data quality fell below the %.0f%% gate; remediate flagged datasets before hypothesis validation", q.Summary.QualityGate))
	}

	return append(recs, strategicRecommendations...)
}

// strongestCorrelation finds the highest-magnitude pair across every
// dataset, preferring the strong bucket and falling back to moderate.
func strongestCorrelation(art *ExploreArtifact) (string, explore.Correlation, bool) {
	names := sortedAnalysisNames(art.Datasets)

	var (
		bestName string
		best     explore.Correlation
		found    bool
	)
	for _, name := range names {
		for _, c := range art.Datasets[name].Correlations.Strong {
			if !found || math.Abs(c.Correlation) > math.Abs(best.Correlation) {
				bestName, best, found = name, c, true
			}
		}
	}
	if found {
		return bestName, best, true
	}

	for _, name := range names {
		for _, c := range art.Datasets[name].Correlations.Moderate {
			if !found || math.Abs(c.Correlation) > math.Abs(best.Correlation) {
				bestName, best, found = name, c, true
			}
		}
	}
	return bestName, best, found
}

// worstOutlier finds the column with the highest IQR outlier share.
func worstOutlier(art *ExploreArtifact) (string, explore.OutlierReport, bool) {
	var (
		bestName string
		best     explore.OutlierReport
		found    bool
	)
	for _, name := range sortedAnalysisNames(art.Datasets) {
		for _, o := range art.Datasets[name].Anomalies.StatisticalOutliers {
			if !found || o.OutlierPercentage > best.OutlierPercentage {
				bestName, best, found = name, o, true
			}
		}
	}
	return bestName, best, found
}

func sortedAnalysisNames(datasets map[string]*explore.DatasetAnalysis) []string {
	names := make([]string, 0, len(datasets))
	for name := range datasets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

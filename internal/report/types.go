package report

import (
	"time"

	"ecompulse/internal/explore"
	"ecompulse/internal/exporter"
	"ecompulse/internal/hypothesis"
	"ecompulse/internal/quality"
	"ecompulse/internal/visualize"
)

// QualityArtifact mirrors quality_assessment.json on disk.
type QualityArtifact struct {
	Metadata exporter.Meta              `json:"metadata"`
	Datasets map[string]*quality.Report `json:"datasets"`
	Summary  quality.Summary            `json:"summary"`
}

// ExploreArtifact mirrors exploratory_analysis.json on disk.
type ExploreArtifact struct {
	Metadata exporter.Meta                       `json:"metadata"`
	Datasets map[string]*explore.DatasetAnalysis `json:"datasets"`
	Cross    explore.CrossDataset                `json:"cross_dataset_analysis"`
}

// HypothesesArtifact mirrors research_hypotheses.json on disk.
type HypothesesArtifact struct {
	Metadata   exporter.Meta           `json:"metadata"`
	Hypotheses []hypothesis.Hypothesis `json:"hypotheses"`
	Categories map[string]int          `json:"categories"`
}

// ChartsArtifact mirrors visualization_index.json on disk.
type ChartsArtifact struct {
	Metadata exporter.Meta          `json:"metadata"`
	Charts   []visualize.Chart      `json:"charts"`
	Metrics  []visualize.MetricCard `json:"metrics"`
}

// Inputs holds whichever upstream artifacts were readable, with one note
// per artifact that was not.
type Inputs struct {
	Quality    *QualityArtifact
	Explore    *ExploreArtifact
	Hypotheses *HypothesesArtifact
	Charts     *ChartsArtifact
	Notes      []string
}

// Empty reports whether no artifact loaded at all.
func (in Inputs) Empty() bool {
	return in.Quality == nil && in.Explore == nil && in.Hypotheses == nil && in.Charts == nil
}

// Finding is one executive summary highlight.
type Finding struct {
	Metric  string `json:"metric"`
	Value   string `json:"value"`
	Insight string `json:"insight"`
}

// ExecutiveSummary is the headline block of the final report.
type ExecutiveSummary struct {
	AnalysisDate     string    `json:"analysis_date"`
	DatasetsAnalyzed int       `json:"datasets_analyzed"`
	TotalRows        int       `json:"total_rows"`
	OverallQuality   float64   `json:"overall_data_quality"`
	KeyFindings      []Finding `json:"key_findings"`
	Recommendations  []string  `json:"recommendations"`
}

// Document is the assembled report, ready to render.
type Document struct {
	Summary     ExecutiveSummary
	Inputs      Inputs
	GeneratedAt time.Time
}

// ArtifactEntry is one row of the analysis index.
type ArtifactEntry struct {
	Stage string `json:"stage"`
	File  string `json:"file"`
	Bytes int64  `json:"bytes"`
}

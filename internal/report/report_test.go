package report

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecompulse/internal/config"
	"ecompulse/internal/dataset"
	"ecompulse/internal/explore"
	"ecompulse/internal/exporter"
	"ecompulse/internal/hypothesis"
	"ecompulse/internal/quality"
	"ecompulse/internal/visualize"
)

func writeCSV(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

// fixtureCatalog loads three datasets: 4 orders, 5 order items whose freight
// tracks price exactly (r = 1.0, one price outlier) and 6 customers.
func fixtureCatalog(t *testing.T) *dataset.Catalog {
	t.Helper()
	dir := t.TempDir()

	writeCSV(t, dir, "Orders.csv",
		"order_id,customer_id,order_purchase_timestamp,order_status\n"+
			"1,C1,2024-01-01 10:00:00,delivered\n"+
			"2,C2,2024-01-02 10:30:00,delivered\n"+
			"3,C1,2024-02-08 14:00:00,shipped\n"+
			"4,C3,2024-02-10 10:00:00,delivered\n")

	writeCSV(t, dir, "Order Items.csv",
		"order_id,order_item_id,price,freight_value\n"+
			"1,1,10.00,1.00\n"+
			"2,1,20.00,2.00\n"+
			"3,1,30.00,3.00\n"+
			"4,1,40.00,4.00\n"+
			"5,1,500.00,50.00\n")

	writeCSV(t, dir, "Customers.csv",
		"customer_id,customer_unique_id,customer_state\n"+
			"C1,U1,SP\n"+
			"C2,U1,SP\n"+
			"C3,U2,RJ\n"+
			"C4,U3,MG\n"+
			"C5,U4,BA\n"+
			"C6,U5,SP\n")

	catalog, err := dataset.Load(context.Background(), dir, nil)
	require.NoError(t, err)
	return catalog
}

// fixtureRun executes the upstream stages for real so the builder reads
// artifacts with exactly the shapes those stages write.
func fixtureRun(t *testing.T) *config.RunPaths {
	t.Helper()
	ctx := context.Background()
	catalog := fixtureCatalog(t)
	cfg := config.DefaultAnalysis()

	paths := config.NewRunPaths(t.TempDir(), t.TempDir(), "run-report")
	require.NoError(t, paths.EnsureDirectories())

	assessment, err := quality.NewAssessor(cfg, nil).Assess(ctx, catalog)
	require.NoError(t, err)
	require.NoError(t, quality.SaveJSON(assessment, paths.QualityAssessment))

	analysis, err := explore.NewAnalyzer(cfg, nil).Analyze(ctx, catalog)
	require.NoError(t, err)
	require.NoError(t, explore.SaveJSON(analysis, paths.Exploratory))

	hyps, err := hypothesis.NewGenerator(nil).Generate(ctx, catalog)
	require.NoError(t, err)
	require.NoError(t, hypothesis.SaveJSON(hyps, paths.Hypotheses))

	charts, err := visualize.NewRenderer(nil).Render(ctx, catalog, paths.ChartsDir)
	require.NoError(t, err)
	require.NoError(t, visualize.SaveIndex(charts, paths.VisualizationIndex))

	return paths
}

func buildFixture(t *testing.T) (*Document, *config.RunPaths) {
	t.Helper()
	paths := fixtureRun(t)
	doc, err := NewBuilder(nil).Build(context.Background(), *paths)
	require.NoError(t, err)
	return doc, paths
}

func TestBuildFullRun(t *testing.T) {
	doc, _ := buildFixture(t)

	assert.Empty(t, doc.Inputs.Notes)
	require.NotNil(t, doc.Inputs.Quality)
	require.NotNil(t, doc.Inputs.Explore)
	require.NotNil(t, doc.Inputs.Hypotheses)
	require.NotNil(t, doc.Inputs.Charts)
	assert.False(t, doc.GeneratedAt.IsZero())

	assert.Equal(t, 3, doc.Summary.DatasetsAnalyzed)
	assert.Equal(t, 15, doc.Summary.TotalRows)
	assert.Greater(t, doc.Summary.OverallQuality, 90.0)

	metrics := make([]string, len(doc.Summary.KeyFindings))
	for i, f := range doc.Summary.KeyFindings {
		metrics[i] = f.Metric
	}
	assert.Equal(t, []string{
		"Data Quality Score", "Strongest Correlation", "Highest Outlier Rate",
		"Top Research Hypothesis", "Visualizations",
	}, metrics)

	assert.Contains(t, doc.Summary.KeyFindings[0].Insight, "quality gate (75%) passed")
	assert.Equal(t, "price vs freight_value (r = 1.00)", doc.Summary.KeyFindings[1].Value)
	assert.Equal(t, "20.0% of price", doc.Summary.KeyFindings[2].Value)
	assert.Contains(t, doc.Summary.KeyFindings[3].Value, "HYP_001")
	assert.Equal(t, "7 charts", doc.Summary.KeyFindings[4].Value)

	require.Len(t, doc.Summary.Recommendations, 6)
	assert.Contains(t, doc.Summary.Recommendations[0], "passed the 75% gate")
}

func TestBuildQualityOnly(t *testing.T) {
	ctx := context.Background()
	catalog := fixtureCatalog(t)

	paths := config.NewRunPaths(t.TempDir(), t.TempDir(), "run-partial")
	require.NoError(t, paths.EnsureDirectories())

	assessment, err := quality.NewAssessor(config.DefaultAnalysis(), nil).Assess(ctx, catalog)
	require.NoError(t, err)
	require.NoError(t, quality.SaveJSON(assessment, paths.QualityAssessment))

	doc, err := NewBuilder(nil).Build(ctx, *paths)
	require.NoError(t, err)

	require.NotNil(t, doc.Inputs.Quality)
	assert.Nil(t, doc.Inputs.Explore)
	assert.Nil(t, doc.Inputs.Hypotheses)
	assert.Nil(t, doc.Inputs.Charts)
	assert.Len(t, doc.Inputs.Notes, 3)

	require.Len(t, doc.Summary.KeyFindings, 1)
	assert.Equal(t, "Data Quality Score", doc.Summary.KeyFindings[0].Metric)
	assert.Equal(t, 3, doc.Summary.DatasetsAnalyzed)
	assert.Equal(t, 15, doc.Summary.TotalRows)
}

func TestBuildCorruptArtifact(t *testing.T) {
	paths := fixtureRun(t)
	require.NoError(t, os.WriteFile(paths.Hypotheses, []byte("{not json"), 0644))

	doc, err := NewBuilder(nil).Build(context.Background(), *paths)
	require.NoError(t, err)

	assert.Nil(t, doc.Inputs.Hypotheses)
	require.Len(t, doc.Inputs.Notes, 1)
	assert.Equal(t, "research_hypotheses.json could not be parsed; hypotheses section omitted.", doc.Inputs.Notes[0])

	for _, f := range doc.Summary.KeyFindings {
		assert.NotEqual(t, "Top Research Hypothesis", f.Metric)
	}
}

func TestBuildEmptyRun(t *testing.T) {
	paths := config.NewRunPaths(t.TempDir(), t.TempDir(), "run-empty")
	require.NoError(t, paths.EnsureDirectories())

	_, err := NewBuilder(nil).Build(context.Background(), *paths)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no analysis artifacts")
}

func TestRenderHTML(t *testing.T) {
	doc, _ := buildFixture(t)

	raw, err := RenderHTML(doc)
	require.NoError(t, err)
	html := string(raw)

	assert.Contains(t, html, "<html")
	assert.Contains(t, html, "E-Commerce Data Analysis Report")
	assert.Contains(t, html, "Executive Summary")
	assert.Contains(t, html, "Data Quality")
	assert.Contains(t, html, "Key Statistics")
	assert.Contains(t, html, "Research Hypotheses")
	assert.Contains(t, html, "Recommendations")
	assert.Contains(t, html, "Methodology")
	assert.Contains(t, html, ">PASS</span>")
	assert.Contains(t, html, `href="charts/daily_orders_trend.png"`)
	assert.Contains(t, html, `href="dashboard.html"`)
	assert.NotContains(t, html, "ZgotmplZ")
}

func TestRenderHTMLOmitsMissingSections(t *testing.T) {
	ctx := context.Background()
	paths := config.NewRunPaths(t.TempDir(), t.TempDir(), "run-partial")
	require.NoError(t, paths.EnsureDirectories())

	assessment, err := quality.NewAssessor(config.DefaultAnalysis(), nil).Assess(ctx, fixtureCatalog(t))
	require.NoError(t, err)
	require.NoError(t, quality.SaveJSON(assessment, paths.QualityAssessment))

	doc, err := NewBuilder(nil).Build(ctx, *paths)
	require.NoError(t, err)

	raw, err := RenderHTML(doc)
	require.NoError(t, err)
	html := string(raw)

	assert.Contains(t, html, "Data Quality")
	assert.NotContains(t, html, "Key Statistics")
	assert.NotContains(t, html, "Priority Experiments")
	assert.Contains(t, html, "not found; key statistics section omitted.")
}

func TestRenderMarkdown(t *testing.T) {
	doc, _ := buildFixture(t)

	raw, err := RenderMarkdown(doc)
	require.NoError(t, err)
	md := string(raw)

	assert.Contains(t, md, "# E-Commerce Data Analysis Report")
	assert.Contains(t, md, "## Executive Summary")
	assert.Contains(t, md, "- Total rows: 15\n")
	assert.Contains(t, md, "## Data Quality")
	assert.Contains(t, md, "| Order Items.csv | 5 | 4 | ")
	assert.Contains(t, md, "| price vs freight_value | 1.000 | Strong Positive |")
	assert.Contains(t, md, "### Cross-Dataset Relationships")
	assert.Contains(t, md, "Orders.csv + Order Items.csv joined on order_id: 4 records")
	assert.Contains(t, md, "[Daily Orders Trend](charts/daily_orders_trend.png)")
	assert.Contains(t, md, "- Total Revenue: 660.00")
	assert.Contains(t, md, "1. Data quality passed the 75% gate")
	assert.Contains(t, md, "## Methodology")
}

func TestRenderNilDocument(t *testing.T) {
	_, err := RenderHTML(nil)
	require.Error(t, err)

	_, err = RenderMarkdown(nil)
	require.Error(t, err)
}

func TestSaveAll(t *testing.T) {
	doc, paths := buildFixture(t)
	require.NoError(t, SaveAll(doc, *paths))

	for _, file := range []string{paths.FinalHTML, paths.FinalMarkdown, paths.AnalysisIndex} {
		info, err := os.Stat(file)
		require.NoError(t, err, "expected %s", file)
		assert.Greater(t, info.Size(), int64(0))
	}

	var index struct {
		Metadata  exporter.Meta   `json:"metadata"`
		Artifacts []ArtifactEntry `json:"artifacts"`
	}
	require.NoError(t, exporter.ReadJSON(paths.AnalysisIndex, &index))

	assert.Equal(t, "report-generator", index.Metadata.Generator)
	assert.Equal(t, len(index.Artifacts), index.Metadata.RecordCount)

	// 7 charts + 4 stage artifacts + the two report files; the index
	// excludes itself.
	require.Len(t, index.Artifacts, 13)

	stages := make(map[string]string, len(index.Artifacts))
	for _, entry := range index.Artifacts {
		assert.Greater(t, entry.Bytes, int64(0), "artifact %s should not be empty", entry.File)
		stages[entry.File] = entry.Stage
	}
	assert.Equal(t, config.StageQuality, stages[config.QualityAssessmentFile])
	assert.Equal(t, config.StageExplore, stages[config.ExploratoryFile])
	assert.Equal(t, config.StageHypotheses, stages[config.HypothesesFile])
	assert.Equal(t, config.StageVisualize, stages["charts/daily_orders_trend.png"])
	assert.Equal(t, config.StageReport, stages[config.FinalReportHTML])
	assert.NotContains(t, stages, config.AnalysisIndexFile)

	// Entries are sorted by path, so the chart files come first.
	assert.Equal(t, config.StageVisualize, index.Artifacts[0].Stage)
}

func TestStageForArtifact(t *testing.T) {
	cases := []struct {
		rel  string
		want string
	}{
		{"charts/daily_orders_trend.png", config.StageVisualize},
		{"generated_code/pipeline.go", config.StageCodegen},
		{"quality_assessment.json", config.StageQuality},
		{"data_issues.log", config.StageQuality},
		{"quality_improvement_recommendations.md", config.StageQuality},
		{"eda_workbook.xlsx", config.StageExplore},
		{"research_hypotheses.md", config.StageHypotheses},
		{"dashboard.html", config.StageVisualize},
		{"generation_summary.json", config.StageCodegen},
		{"final_report.md", config.StageReport},
		{"run_manifest.json", "run"},
		{"notes.txt", "other"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, stageForArtifact(tc.rel), "stage for %s", tc.rel)
	}
}

func TestTitleWords(t *testing.T) {
	assert.Equal(t, "Needs Improvement", titleWords("needs_improvement"))
	assert.Equal(t, "Strong Positive", titleWords("strong_positive"))
	assert.Equal(t, "High", titleWords("high"))
	assert.Equal(t, "", titleWords(""))
}

func TestFormatCount(t *testing.T) {
	assert.Equal(t, "0", formatCount(0))
	assert.Equal(t, "999", formatCount(999))
	assert.Equal(t, "1,000", formatCount(1000))
	assert.Equal(t, "1,234,567", formatCount(1234567))
}

func TestRecommendationsWithoutQuality(t *testing.T) {
	recs := recommendations(nil)
	require.Len(t, recs, 6)
	assert.Contains(t, recs[0], "Re-run the data quality assessment")
}

func TestRecommendationsGateMissed(t *testing.T) {
	art := &QualityArtifact{Summary: quality.Summary{QualityGate: 75, Acceptable: false}}
	recs := recommendations(art)
	require.Len(t, recs, 6)
	assert.Contains(t, recs[0], "fell below the 75% gate")
}

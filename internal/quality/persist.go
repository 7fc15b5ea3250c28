package quality

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"ecompulse/internal/config"
	"ecompulse/internal/exporter"
)

const textRule = "======================================================================"
const mdRule = "----------------------------------------------------------------------"

// SaveAll writes every quality artifact for the run: the JSON assessment,
// the CSV and text summaries, the issues log and the recommendations.
func SaveAll(assessment *Assessment, paths config.RunPaths) error {
	if err := SaveJSON(assessment, paths.QualityAssessment); err != nil {
		return fmt.Errorf("save quality JSON: %w", err)
	}
	if err := SaveSummaryCSV(assessment, paths.QualityCSV); err != nil {
		return fmt.Errorf("save quality summary CSV: %w", err)
	}
	if err := SaveSummaryText(assessment, paths.QualityText); err != nil {
		return fmt.Errorf("save quality summary text: %w", err)
	}
	if err := SaveIssuesLog(assessment, paths.IssuesLog); err != nil {
		return fmt.Errorf("save issues log: %w", err)
	}
	if err := SaveRecommendations(assessment, paths.Recommendations); err != nil {
		return fmt.Errorf("save recommendations: %w", err)
	}
	return nil
}

// SaveJSON writes the nested assessment document: dataset name to report,
// plus the run summary, under the standard metadata envelope.
func SaveJSON(assessment *Assessment, outputPath string) error {
	if assessment == nil || len(assessment.Reports) == 0 {
		return fmt.Errorf("no assessment results to save")
	}

	datasets := make(map[string]*Report, len(assessment.Reports))
	for _, r := range assessment.Reports {
		datasets[r.DatasetName] = r
	}

	writer := exporter.NewJSONWriter()
	meta := exporter.NewMeta("quality-assessor", config.AppVersion, len(assessment.Reports))
	return writer.WriteWithMeta(outputPath, meta, map[string]interface{}{
		"datasets": datasets,
		"summary":  assessment.Summary,
	})
}

// SaveSummaryCSV writes one row per dataset, best overall score first.
func SaveSummaryCSV(assessment *Assessment, outputPath string) error {
	if assessment == nil || len(assessment.Reports) == 0 {
		return fmt.Errorf("no assessment results to save")
	}

	headers := []string{
		"Dataset",
		"Rows",
		"Columns",
		"Completeness",
		"Accuracy",
		"Consistency",
		"Timeliness",
		"Overall_Score",
		"Tier",
	}

	records := make([][]string, 0, len(assessment.Reports))
	for _, r := range sortedByScore(assessment.Reports) {
		records = append(records, []string{
			r.DatasetName,
			exporter.FormatInt(int64(r.Shape.Rows)),
			exporter.FormatInt(int64(r.Shape.Columns)),
			exporter.FormatFloat2(r.Completeness.CompletenessScore),
			exporter.FormatFloat2(r.Accuracy.AccuracyScore),
			exporter.FormatFloat2(r.Consistency.ConsistencyScore),
			exporter.FormatFloat2(r.Timeliness.TimelinessScore),
			exporter.FormatFloat2(r.OverallQualityScore),
			r.Tier,
		})
	}

	writer := exporter.NewCSVWriter()
	return writer.WriteCSV(outputPath, exporter.WriteOptions{
		Headers:   headers,
		Records:   records,
		BOMPrefix: true,
	})
}

// SaveSummaryText writes the human-readable run summary.
func SaveSummaryText(assessment *Assessment, outputPath string) error {
	if assessment == nil || len(assessment.Reports) == 0 {
		return fmt.Errorf("no assessment results to save")
	}

	s := assessment.Summary
	var b strings.Builder

	b.WriteString(textRule + "\n")
	b.WriteString("DATA QUALITY SUMMARY\n")
	b.WriteString(textRule + "\n\n")
	fmt.Fprintf(&b, "Generated: %s\n", assessment.GeneratedAt.Format(timestampLayout))
	fmt.Fprintf(&b, "Datasets assessed: %d\n\n", s.DatasetsAssessed)

	b.WriteString("Average Scores Across All Datasets:\n")
	fmt.Fprintf(&b, "  - Overall Quality: %.2f/100\n", s.AvgOverall)
	fmt.Fprintf(&b, "  - Completeness: %.2f%%\n", s.AvgCompleteness)
	fmt.Fprintf(&b, "  - Accuracy: %.2f%%\n", s.AvgAccuracy)
	fmt.Fprintf(&b, "  - Consistency: %.2f%%\n", s.AvgConsistency)
	fmt.Fprintf(&b, "  - Timeliness: %.2f%%\n\n", s.AvgTimeliness)

	b.WriteString("Per-Dataset Scores:\n")
	for _, r := range sortedByScore(assessment.Reports) {
		fmt.Fprintf(&b, "  %-32s %6.2f/100  %s\n", r.DatasetName, r.OverallQualityScore, r.Tier)
	}
	b.WriteString("\n")

	b.WriteString("Quality Distribution:\n")
	fmt.Fprintf(&b, "  - Excellent (>=90): %d datasets\n", s.Excellent)
	fmt.Fprintf(&b, "  - Good (75-89): %d datasets\n", s.Good)
	fmt.Fprintf(&b, "  - Needs Improvement (<75): %d datasets\n\n", s.NeedsImprovement)

	b.WriteString("Quality Gate:\n")
	if s.Acceptable {
		fmt.Fprintf(&b, "  Mean overall score %.2f >= %.2f: data quality is ACCEPTABLE for analysis\n", s.AvgOverall, s.QualityGate)
	} else {
		fmt.Fprintf(&b, "  Mean overall score %.2f < %.2f: data quality NEEDS IMPROVEMENT before analysis\n", s.AvgOverall, s.QualityGate)
	}
	b.WriteString(textRule + "\n")

	return writeTextFile(outputPath, b.String())
}

// SaveIssuesLog writes per-dataset blocks listing critical columns,
// accuracy issues and consistency issues.
func SaveIssuesLog(assessment *Assessment, outputPath string) error {
	if assessment == nil || len(assessment.Reports) == 0 {
		return fmt.Errorf("no assessment results to save")
	}

	var b strings.Builder
	for _, r := range assessment.Reports {
		b.WriteString("\n" + textRule + "\n")
		fmt.Fprintf(&b, "Dataset: %s\n", r.DatasetName)
		b.WriteString(textRule + "\n")

		if len(r.Completeness.CriticalColumns) > 0 {
			b.WriteString("\nCRITICAL: Columns with >20% missing data:\n")
			for _, col := range sortedKeys(r.Completeness.CriticalColumns) {
				fmt.Fprintf(&b, "    - %s: %.2f%% missing\n", col, r.Completeness.CriticalColumns[col])
			}
		}

		if len(r.Accuracy.DataIssues) > 0 {
			b.WriteString("\nData Accuracy Issues:\n")
			for _, issue := range r.Accuracy.DataIssues {
				fmt.Fprintf(&b, "    - %s\n", issue)
			}
		}

		if len(r.Consistency.ConsistencyIssues) > 0 {
			b.WriteString("\nConsistency Issues:\n")
			for _, issue := range r.Consistency.ConsistencyIssues {
				fmt.Fprintf(&b, "    - %s\n", issue)
			}
		}
	}

	return writeTextFile(outputPath, b.String())
}

// SaveRecommendations writes the Markdown improvement plan. Sections only
// appear for datasets whose scores warrant them.
func SaveRecommendations(assessment *Assessment, outputPath string) error {
	if assessment == nil || len(assessment.Reports) == 0 {
		return fmt.Errorf("no assessment results to save")
	}

	var b strings.Builder
	b.WriteString("# Data Quality Improvement Recommendations\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", assessment.GeneratedAt.Format(timestampLayout))

	for _, r := range assessment.Reports {
		fmt.Fprintf(&b, "## %s\n\n", r.DatasetName)
		fmt.Fprintf(&b, "**Overall Quality Score**: %.2f/100\n\n", r.OverallQualityScore)

		if r.Completeness.CompletenessScore < 95 {
			b.WriteString("### Completeness Improvements\n\n")
			for _, col := range sortedKeys(r.Completeness.ColumnsWithMissing) {
				pct := r.Completeness.ColumnsWithMissing[col]
				if pct <= 0 {
					continue
				}
				advice := "Minor missing values acceptable"
				if pct > criticalMissingPct {
					advice = "Consider imputation or data collection"
				}
				fmt.Fprintf(&b, "- **%s**: %.2f%% missing - %s\n", col, pct, advice)
			}
		}

		if r.Accuracy.AccuracyScore < 90 && len(r.Accuracy.DataIssues) > 0 {
			b.WriteString("\n### Accuracy Improvements\n\n")
			for _, issue := range r.Accuracy.DataIssues {
				fmt.Fprintf(&b, "- Address: %s\n", issue)
			}
		}

		if r.Consistency.DuplicateRows > 0 {
			b.WriteString("\n### Consistency Improvements\n\n")
			fmt.Fprintf(&b, "- Remove %d duplicate rows\n", r.Consistency.DuplicateRows)
			for _, issue := range r.Consistency.ConsistencyIssues {
				fmt.Fprintf(&b, "- Address: %s\n", issue)
			}
		}

		b.WriteString("\n" + mdRule + "\n\n")
	}

	return writeTextFile(outputPath, b.String())
}

// sortedByScore orders reports best first, name breaking ties.
func sortedByScore(reports []*Report) []*Report {
	out := make([]*Report, len(reports))
	copy(out, reports)
	sort.Slice(out, func(i, j int) bool {
		if out[i].OverallQualityScore == out[j].OverallQualityScore {
			return out[i].DatasetName < out[j].DatasetName
		}
		return out[i].OverallQualityScore > out[j].OverallQualityScore
	})
	return out
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func writeTextFile(outputPath, content string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(outputPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(outputPath), err)
	}
	return nil
}

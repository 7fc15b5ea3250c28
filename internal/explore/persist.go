package explore

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"ecompulse/internal/config"
	"ecompulse/internal/exporter"
)

// Markdown digest caps.
const (
	reportTrendCap       = 3
	reportCorrelationCap = 5
	reportOutlierCap     = 3
)

// SaveAll writes the four exploratory artifacts for the run.
func SaveAll(analysis *Analysis, paths config.RunPaths) error {
	if err := SaveJSON(analysis, paths.Exploratory); err != nil {
		return fmt.Errorf("save exploratory JSON: %w", err)
	}
	if err := SaveSummaryCSV(analysis, paths.StatisticalCSV); err != nil {
		return fmt.Errorf("save statistical summary CSV: %w", err)
	}
	if err := SaveMarkdown(analysis, paths.PatternAnalysis); err != nil {
		return fmt.Errorf("save pattern analysis: %w", err)
	}
	if err := SaveWorkbook(analysis, paths.EDAWorkbook); err != nil {
		return fmt.Errorf("save EDA workbook: %w", err)
	}
	return nil
}

// SaveJSON writes the nested analysis document under the metadata envelope.
func SaveJSON(analysis *Analysis, outputPath string) error {
	if analysis == nil || len(analysis.Datasets) == 0 {
		return fmt.Errorf("no analysis results to save")
	}

	writer := exporter.NewJSONWriter()
	meta := exporter.NewMeta("exploratory-analyzer", config.AppVersion, len(analysis.Datasets))
	return writer.WriteWithMeta(outputPath, meta, map[string]interface{}{
		"datasets":               analysis.Datasets,
		"cross_dataset_analysis": analysis.Cross,
	})
}

// SaveSummaryCSV streams every computed statistic in long form: one row per
// dataset, column and metric.
func SaveSummaryCSV(analysis *Analysis, outputPath string) error {
	if analysis == nil || len(analysis.Datasets) == 0 {
		return fmt.Errorf("no analysis results to save")
	}

	csvWriter := exporter.NewCSVWriter()
	stream, err := csvWriter.CreateStreamWriter(outputPath, []string{"Dataset", "Column", "Metric", "Value"})
	if err != nil {
		return fmt.Errorf("create summary stream: %w", err)
	}
	defer stream.Close()

	write := func(dataset, column, metric, value string) error {
		return stream.WriteRecord([]string{dataset, column, metric, value})
	}

	for _, name := range analysis.Names {
		result := analysis.Datasets[name]
		if result == nil {
			continue
		}
		summary := result.StatisticalSummary

		for _, col := range sortedStatKeys(summary.NumericStats) {
			stats := summary.NumericStats[col]
			rows := []struct {
				metric string
				value  string
			}{
				{"count", exporter.FormatInt(int64(stats.Count))},
				{"missing", exporter.FormatInt(int64(stats.Missing))},
				{"mean", exporter.FormatFloat4(stats.Mean)},
				{"median", exporter.FormatFloat4(stats.Median)},
				{"std", exporter.FormatFloat4(stats.Std)},
				{"min", exporter.FormatFloat4(stats.Min)},
				{"max", exporter.FormatFloat4(stats.Max)},
				{"q25", exporter.FormatFloat4(stats.Q25)},
				{"q75", exporter.FormatFloat4(stats.Q75)},
				{"skewness", exporter.FormatFloat4(stats.Skewness)},
				{"kurtosis", exporter.FormatFloat4(stats.Kurtosis)},
			}
			for _, row := range rows {
				if err := write(name, col, row.metric, row.value); err != nil {
					return fmt.Errorf("write numeric stat: %w", err)
				}
			}
		}

		categoricalCols := make([]string, 0, len(summary.CategoricalStats))
		for col := range summary.CategoricalStats {
			categoricalCols = append(categoricalCols, col)
		}
		sort.Strings(categoricalCols)
		for _, col := range categoricalCols {
			stats := summary.CategoricalStats[col]
			if err := write(name, col, "unique_count", exporter.FormatInt(int64(stats.UniqueCount))); err != nil {
				return fmt.Errorf("write categorical stat: %w", err)
			}
			if err := write(name, col, "missing", exporter.FormatInt(int64(stats.Missing))); err != nil {
				return fmt.Errorf("write categorical stat: %w", err)
			}
		}

		temporalCols := make([]string, 0, len(summary.TemporalStats))
		for col := range summary.TemporalStats {
			temporalCols = append(temporalCols, col)
		}
		sort.Strings(temporalCols)
		for _, col := range temporalCols {
			stats := summary.TemporalStats[col]
			if err := write(name, col, "span_days", exporter.FormatInt(int64(stats.SpanDays))); err != nil {
				return fmt.Errorf("write temporal stat: %w", err)
			}
			if err := write(name, col, "missing_count", exporter.FormatInt(int64(stats.MissingCount))); err != nil {
				return fmt.Errorf("write temporal stat: %w", err)
			}
		}
	}

	return stream.Close()
}

// SaveMarkdown writes the pattern digest: dimensions, top trends, strongest
// correlations and notable outliers per dataset, then cross-dataset
// insights.
func SaveMarkdown(analysis *Analysis, outputPath string) error {
	if analysis == nil || len(analysis.Datasets) == 0 {
		return fmt.Errorf("no analysis results to save")
	}

	var b strings.Builder
	b.WriteString("# Exploratory Data Analysis Report\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", analysis.GeneratedAt.Format(timestampLayout))

	b.WriteString("## Overview\n\n")
	fmt.Fprintf(&b, "This report presents comprehensive exploratory analysis of %d e-commerce datasets.\n\n", len(analysis.Datasets))

	for _, name := range analysis.Names {
		result := analysis.Datasets[name]
		if result == nil {
			continue
		}

		fmt.Fprintf(&b, "## %s\n\n", name)
		info := result.StatisticalSummary.BasicInfo
		fmt.Fprintf(&b, "**Dimensions**: %d rows x %d columns\n\n", info.Rows, info.Columns)

		if len(result.Patterns.Trends) > 0 {
			b.WriteString("### Key Trends\n\n")
			for i, trend := range result.Patterns.Trends {
				if i >= reportTrendCap {
					break
				}
				direction := "up"
				if trend.GrowthRate < 0 {
					direction = "down"
				}
				fmt.Fprintf(&b, "- %s: %.1f%% growth (%s)\n", trend.Column, trend.GrowthRate, direction)
			}
			b.WriteString("\n")
		}

		if len(result.Correlations.Strong) > 0 {
			b.WriteString("### Strong Correlations\n\n")
			for i, corr := range result.Correlations.Strong {
				if i >= reportCorrelationCap {
					break
				}
				direction := "positive"
				if corr.Correlation < 0 {
					direction = "negative"
				}
				fmt.Fprintf(&b, "- **%s** <-> **%s**: %.3f (%s)\n", corr.Variable1, corr.Variable2, corr.Correlation, direction)
			}
			b.WriteString("\n")
		}

		if len(result.Anomalies.StatisticalOutliers) > 0 {
			b.WriteString("### Notable Outliers\n\n")
			for i, outlier := range result.Anomalies.StatisticalOutliers {
				if i >= reportOutlierCap {
					break
				}
				fmt.Fprintf(&b, "- **%s**: %.1f%% outliers (range: %.2f - %.2f)\n",
					outlier.Column, outlier.OutlierPercentage, outlier.LowerBound, outlier.UpperBound)
			}
			b.WriteString("\n")
		}

		b.WriteString("---\n\n")
	}

	if len(analysis.Cross.Relationships) > 0 {
		b.WriteString("## Cross-Dataset Insights\n\n")
		for _, rel := range analysis.Cross.Relationships {
			fmt.Fprintf(&b, "### %s + %s\n\n", rel.Datasets[0], rel.Datasets[1])
			keys := make([]string, 0, len(rel.Insights))
			for k := range rel.Insights {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(&b, "- **%s**: %.2f\n", k, rel.Insights[k])
			}
			b.WriteString("\n")
		}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(outputPath, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(outputPath), err)
	}
	return nil
}

// SaveWorkbook writes one sheet per dataset with its numeric summary table.
func SaveWorkbook(analysis *Analysis, outputPath string) error {
	if analysis == nil || len(analysis.Datasets) == 0 {
		return fmt.Errorf("no analysis results to save")
	}

	headers := []string{
		"Column", "Count", "Missing", "Mean", "Median", "Std",
		"Min", "Max", "Q25", "Q75", "Skewness", "Kurtosis",
	}

	sheets := make([]exporter.Sheet, 0, len(analysis.Datasets))
	for _, name := range analysis.Names {
		result := analysis.Datasets[name]
		if result == nil {
			continue
		}

		stats := result.StatisticalSummary.NumericStats
		rows := make([][]interface{}, 0, len(stats))
		for _, col := range sortedStatKeys(stats) {
			s := stats[col]
			rows = append(rows, []interface{}{
				col, s.Count, s.Missing, s.Mean, s.Median, s.Std,
				s.Min, s.Max, s.Q25, s.Q75, s.Skewness, s.Kurtosis,
			})
		}

		sheets = append(sheets, exporter.Sheet{
			Name:    exporter.SanitizeSheetName(name),
			Headers: headers,
			Rows:    rows,
		})
	}

	writer := exporter.NewExcelWriter()
	return writer.WriteWorkbook(outputPath, sheets)
}

func sortedStatKeys(m map[string]NumericStats) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

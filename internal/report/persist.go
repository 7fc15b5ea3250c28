package report

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"ecompulse/internal/config"
	"ecompulse/internal/exporter"
)

// SaveAll writes the HTML report, the Markdown mirror and the artifact
// index. The index is written last so it lists both report files.
func SaveAll(doc *Document, paths config.RunPaths) error {
	if err := SaveHTML(doc, paths.FinalHTML); err != nil {
		return fmt.Errorf("save HTML report: %w", err)
	}
	if err := SaveMarkdown(doc, paths.FinalMarkdown); err != nil {
		return fmt.Errorf("save markdown report: %w", err)
	}
	if err := SaveIndex(paths); err != nil {
		return fmt.Errorf("save analysis index: %w", err)
	}
	return nil
}

// SaveHTML renders and writes the standalone HTML report.
func SaveHTML(doc *Document, outputPath string) error {
	html, err := RenderHTML(doc)
	if err != nil {
		return err
	}
	return writeReportFile(outputPath, html)
}

// SaveMarkdown renders and writes the Markdown mirror.
func SaveMarkdown(doc *Document, outputPath string) error {
	md, err := RenderMarkdown(doc)
	if err != nil {
		return err
	}
	return writeReportFile(outputPath, md)
}

// SaveIndex walks the run directory and writes an index of every artifact
// the run produced, tagged with the stage that wrote it. The index file
// itself is excluded.
func SaveIndex(paths config.RunPaths) error {
	var entries []ArtifactEntry

	err := filepath.WalkDir(paths.RunDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(paths.RunDir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == config.AnalysisIndexFile {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		entries = append(entries, ArtifactEntry{
			Stage: stageForArtifact(rel),
			File:  rel,
			Bytes: info.Size(),
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk run directory: %w", err)
	}
	if len(entries) == 0 {
		return fmt.Errorf("no artifacts found in %s", paths.RunDir)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].File < entries[j].File })

	writer := exporter.NewJSONWriter()
	meta := exporter.NewMeta("report-generator", config.AppVersion, len(entries))
	return writer.WriteWithMeta(paths.AnalysisIndex, meta, map[string]interface{}{
		"artifacts": entries,
	})
}

// stageForArtifact maps a run-relative artifact path onto the stage that
// produced it.
func stageForArtifact(rel string) string {
	if strings.HasPrefix(rel, config.ChartsDirName+"/") {
		return config.StageVisualize
	}
	if strings.HasPrefix(rel, config.GeneratedDirName+"/") {
		return config.StageCodegen
	}

	switch rel {
	case config.QualityAssessmentFile, config.QualitySummaryCSV, config.QualitySummaryText,
		config.DataIssuesLog, config.RecommendationsFile:
		return config.StageQuality
	case config.ExploratoryFile, config.StatisticalSummaryCSV, config.PatternAnalysisFile,
		config.EDAWorkbookFile:
		return config.StageExplore
	case config.HypothesesFile, config.HypothesesMarkdown, config.ExperimentalDesignFile:
		return config.StageHypotheses
	case config.VisualizationIndexFile, config.DashboardFile:
		return config.StageVisualize
	case config.GenerationSummaryFile:
		return config.StageCodegen
	case config.FinalReportHTML, config.FinalReportMarkdown:
		return config.StageReport
	case config.RunManifestFile:
		return "run"
	default:
		return "other"
	}
}

func writeReportFile(outputPath string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(outputPath, content, 0644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(outputPath), err)
	}
	return nil
}

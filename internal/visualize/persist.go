package visualize

import (
	"fmt"
	"os"
	"path/filepath"

	"ecompulse/internal/config"
	"ecompulse/internal/exporter"
)

// SaveAll writes the visualization index and the HTML dashboard.
func SaveAll(result *Result, paths config.RunPaths) error {
	if err := SaveIndex(result, paths.VisualizationIndex); err != nil {
		return fmt.Errorf("save visualization index: %w", err)
	}
	if err := SaveDashboard(result, paths.ChartsDir, paths.Dashboard); err != nil {
		return fmt.Errorf("save dashboard: %w", err)
	}
	return nil
}

// SaveIndex writes the chart catalog and headline metrics under the
// standard metadata envelope.
func SaveIndex(result *Result, outputPath string) error {
	if result == nil || len(result.Charts) == 0 {
		return fmt.Errorf("no visualizations to save")
	}

	writer := exporter.NewJSONWriter()
	meta := exporter.NewMeta("visualization-creator", config.AppVersion, len(result.Charts))
	return writer.WriteWithMeta(outputPath, meta, map[string]interface{}{
		"charts":  result.Charts,
		"metrics": result.Metrics,
	})
}

// SaveDashboard renders the dashboard HTML against the charts directory
// and writes it to outputPath.
func SaveDashboard(result *Result, chartsDir, outputPath string) error {
	html, err := RenderDashboard(result, chartsDir)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(outputPath, html, 0644); err != nil {
		return fmt.Errorf("write dashboard: %w", err)
	}
	return nil
}

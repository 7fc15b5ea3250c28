package codegen

import (
	"fmt"

	"ecompulse/internal/config"
	"ecompulse/internal/exporter"
)

// SaveSummary writes generation_summary.json: the emitted files, their
// sizes and the target module name, under the standard metadata envelope.
func SaveSummary(result *Result, outputPath string) error {
	if result == nil || len(result.Files) == 0 {
		return fmt.Errorf("no generated files to save")
	}

	writer := exporter.NewJSONWriter()
	meta := exporter.NewMeta("code-generator", config.AppVersion, len(result.Files))
	return writer.WriteWithMeta(outputPath, meta, map[string]interface{}{
		"module":      result.Module,
		"files":       result.Files,
		"total_bytes": result.TotalBytes(),
	})
}

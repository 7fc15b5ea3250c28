// Package exporter provides the artifact writers shared by the pipeline stages.
//
// This package contains three main components:
//
// CSVWriter: Core CSV writing functionality with support for headers, streaming,
// and UTF-8 BOM for Excel compatibility.
//
// JSONWriter: Writes indented JSON artifacts atomically (temp file + rename)
// with the standard metadata envelope carrying generated_at, generator and
// record counts.
//
// ExcelWriter: Builds multi-sheet XLSX workbooks from tabular summaries, one
// sheet per dataset.
//
// Example usage:
//
//	csvw := exporter.NewCSVWriter()
//	err := csvw.WriteSimpleCSV(path, headers, records)
//
//	jsonw := exporter.NewJSONWriter()
//	err = jsonw.WriteWithMeta(path, exporter.NewMeta("ecompulse", "1.2.0", len(rows)),
//		map[string]interface{}{"datasets": rows})
package exporter

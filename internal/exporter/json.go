package exporter

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Meta is the metadata envelope prepended to every JSON artifact.
type Meta struct {
	GeneratedAt string `json:"generated_at"`
	Generator   string `json:"generator"`
	Version     string `json:"version"`
	RecordCount int    `json:"record_count"`
}

// NewMeta builds the standard envelope for an artifact with n records.
func NewMeta(generator, version string, n int) Meta {
	return Meta{
		GeneratedAt: time.Now().Format(time.RFC3339),
		Generator:   generator,
		Version:     version,
		RecordCount: n,
	}
}

// JSONWriter persists structured artifacts as indented JSON.
type JSONWriter struct{}

// NewJSONWriter creates a new JSON writer instance
func NewJSONWriter() *JSONWriter {
	return &JSONWriter{}
}

// Write marshals v and writes it atomically to outputPath. The temp file is
// written in the destination directory so the rename never crosses devices.
func (w *JSONWriter) Write(outputPath string, v interface{}) error {
	slog.Info("Writing JSON artifact", slog.String("file_path", outputPath))

	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".artifact-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	encoder := json.NewEncoder(tmp)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(v); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("encode JSON: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, outputPath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}

// WriteWithMeta wraps payload fields under the standard metadata envelope.
// Keys in payload become top-level keys next to "metadata".
func (w *JSONWriter) WriteWithMeta(outputPath string, meta Meta, payload map[string]interface{}) error {
	output := make(map[string]interface{}, len(payload)+1)
	output["metadata"] = meta
	for k, v := range payload {
		output[k] = v
	}
	return w.Write(outputPath, output)
}

// ReadJSON loads a JSON artifact into v.
func ReadJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read JSON artifact: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse JSON artifact %s: %w", filepath.Base(path), err)
	}
	return nil
}

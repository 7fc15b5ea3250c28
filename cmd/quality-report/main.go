package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"ecompulse/internal/config"
	"ecompulse/internal/dataset"
	"ecompulse/internal/quality"
)

func main() {
	dataDir := flag.String("data", "", "directory of source CSV datasets (defaults to configured data dir)")
	outputDir := flag.String("out", "", "output directory for quality artifacts (defaults to configured output dir)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	if *dataDir == "" {
		*dataDir = cfg.Paths.DataDir
	}
	if *outputDir == "" {
		*outputDir = cfg.Paths.OutputDir
	}

	// Load CSV datasets
	slog.Info("Loading datasets", "path", *dataDir)
	if _, err := os.Stat(*dataDir); os.IsNotExist(err) {
		slog.Error("Data directory not found",
			"path", *dataDir,
			"hint", "Pass -data or set ECOMPULSE_PATHS_DATA_DIR")
		os.Exit(1)
	}

	ctx := context.Background()
	catalog, err := dataset.Load(ctx, *dataDir, slog.Default())
	if err != nil {
		slog.Error("Failed to load datasets", "error", err)
		os.Exit(1)
	}
	if catalog.Len() == 0 {
		slog.Error("No CSV datasets found",
			"path", *dataDir,
			"hint", "Check the directory contains .csv files")
		os.Exit(1)
	}
	slog.Info("Loaded datasets", "datasets", catalog.Len(), "rows", catalog.TotalRows())

	// Assess quality
	slog.Info("Assessing data quality...")
	assessor := quality.NewAssessor(cfg.Analysis, slog.Default())
	assessment, err := assessor.Assess(ctx, catalog)
	if err != nil {
		slog.Error("Failed to assess data quality", "error", err)
		os.Exit(1)
	}
	slog.Info("Assessed data quality", "datasets", len(assessment.Reports))

	// Save artifacts into a timestamped run directory
	runID := fmt.Sprintf("quality_%s", time.Now().Format("20060102_150405"))
	paths := config.NewRunPaths(*dataDir, *outputDir, runID)
	if err := os.MkdirAll(paths.RunDir, 0755); err != nil {
		slog.Error("Failed to create run directory", "error", err)
		os.Exit(1)
	}

	slog.Info("Saving quality report", "path", paths.RunDir)
	if err := quality.SaveAll(assessment, *paths); err != nil {
		slog.Error("Failed to save quality report", "error", err)
		os.Exit(1)
	}

	slog.Info("Quality report generated successfully",
		"assessment", paths.QualityAssessment,
		"summary", paths.QualityText,
		"datasets", len(assessment.Reports))

	printSummaryStats(assessment)
}

func printSummaryStats(assessment *quality.Assessment) {
	if len(assessment.Reports) == 0 {
		return
	}

	fmt.Println("\n=== DATASET QUALITY SCORES ===")
	fmt.Println("Dataset              | Overall | Complete | Accurate | Consistent | Timely | Tier")
	fmt.Println("---------------------|---------|----------|----------|------------|--------|-----")

	for _, r := range assessment.Reports {
		fmt.Printf("%-20s | %7.1f | %8.1f | %8.1f | %10.1f | %6.1f | %s\n",
			r.DatasetName, r.OverallQualityScore,
			r.Completeness.CompletenessScore, r.Accuracy.AccuracyScore,
			r.Consistency.ConsistencyScore, r.Timeliness.TimelinessScore,
			r.Tier)
	}

	s := assessment.Summary
	fmt.Println("\n=== QUALITY GATE ===")
	fmt.Printf("Average overall score: %.1f (gate %.0f)\n", s.AvgOverall, s.QualityGate)
	if s.Acceptable {
		fmt.Println("Verdict: PASS - data quality is acceptable for analysis")
	} else {
		fmt.Println("Verdict: FAIL - review the issues log before trusting downstream results")
	}
	fmt.Printf("Tiers: %d excellent, %d good, %d needing improvement\n",
		s.Excellent, s.Good, s.NeedsImprovement)
}

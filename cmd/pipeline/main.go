package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"ecompulse/internal/config"
	"ecompulse/internal/infrastructure"
	"ecompulse/internal/operations"
)

func main() {
	dataDir := flag.String("data", "", "directory of source CSV datasets (defaults to configured data dir)")
	outputDir := flag.String("out", "", "output root for run directories (defaults to configured output dir)")
	stagesArg := flag.String("stages", "", "comma-separated stage IDs to run (defaults to the full pipeline)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	if *dataDir == "" {
		*dataDir = cfg.Paths.DataDir
	}
	if *outputDir == "" {
		*outputDir = cfg.Paths.OutputDir
	}

	if _, err := os.Stat(*dataDir); err != nil {
		logger.Error("Data directory not accessible",
			"path", *dataDir,
			"hint", "Pass -data or set ECOMPULSE_PATHS_DATA_DIR")
		os.Exit(1)
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		logger.Error("Failed to create output directory", "path", *outputDir, "error", err)
		os.Exit(1)
	}

	manager := operations.NewManager(cfg.Analysis, *outputDir, nil, logger)

	var stages []string
	if *stagesArg != "" {
		for _, s := range strings.Split(*stagesArg, ",") {
			if s = strings.TrimSpace(s); s != "" {
				stages = append(stages, s)
			}
		}
	}
	steps, err := manager.StepsFor(stages)
	if err != nil {
		logger.Error("Invalid stage selection",
			"stages", *stagesArg,
			"valid", strings.Join(manager.StageIDs(), ", "),
			"error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting pipeline run",
		"data_dir", *dataDir,
		"output_dir", *outputDir,
		"stages", len(steps))

	state, err := manager.Run(ctx, *dataDir, steps)
	if state != nil {
		printRunSummary(state)
	}
	if err != nil {
		logger.Error("Pipeline run failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Pipeline run completed",
		"run_id", state.ID,
		"run_dir", state.Paths().RunDir,
		"duration", state.Duration().Round(time.Millisecond).String())
}

func printRunSummary(state *operations.RunState) {
	snap := state.Snapshot()

	fmt.Printf("\nRun %s (%s)\n", snap.ID, snap.Status)
	fmt.Printf("Output: %s\n\n", snap.RunDir)
	fmt.Println("Stage      | Status    | Duration     | Error")
	fmt.Println("-----------|-----------|--------------|------")
	for _, step := range snap.Steps {
		duration := step.Duration
		if duration == "" {
			duration = "-"
		}
		errMsg := step.Error
		if errMsg == "" {
			errMsg = "-"
		}
		fmt.Printf("%-10s | %-9s | %12s | %s\n",
			step.ID, step.Status, duration, errMsg)
	}
	fmt.Println()
}

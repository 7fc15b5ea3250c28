// Package config provides centralized configuration management for the
// ecompulse analysis pipeline. It handles loading configuration from multiple
// sources, validation, and provides a type-safe API for accessing
// configuration values throughout the application.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. Configuration file (config.yaml)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern ECOMPULSE_* for namespacing:
//
//	ECOMPULSE_SERVER_PORT=8080
//	ECOMPULSE_PATHS_DATA_DIR=data_storage
//	ECOMPULSE_ANALYSIS_QUALITY_GATE=75
//	ECOMPULSE_LOGGING_LEVEL=info
//
// # Analysis Parameters
//
// The statistical parameters used by every pipeline stage (IQR fence
// multiplier, correlation cutoffs, quality gate, dimension weights) live in
// AnalysisConfig. The defaults reproduce the standard methodology; stages
// never hardcode these values.
//
// # Path Management
//
// RunPaths lays out the artifact tree of a single run and is the only place
// that knows artifact file names:
//
//	paths := config.NewRunPaths(dataDir, outputRoot, runID)
//	if err := paths.EnsureDirectories(); err != nil { ... }
//	writeTo := paths.QualityAssessment
//
// # Usage
//
// Load configuration at application startup:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
package config

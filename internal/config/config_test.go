package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NotNil(t, cfg)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "data_storage", cfg.Paths.DataDir)
	assert.Equal(t, "analysis_output", cfg.Paths.OutputDir)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestDefaultAnalysis(t *testing.T) {
	a := DefaultAnalysis()

	assert.Equal(t, 1.5, a.IQRMultiplier)
	assert.Equal(t, 0.7, a.StrongCorrelation)
	assert.Equal(t, 0.4, a.ModerateCorrelation)
	assert.Equal(t, 3.0, a.ExtremeZScore)
	assert.Equal(t, 75.0, a.QualityGate)
	assert.Equal(t, 10, a.MaxNumericColumns)
	assert.Equal(t, 8, a.MaxCategoricalColumns)
}

func TestQualityWeights(t *testing.T) {
	tests := []struct {
		name    string
		weights QualityWeights
		valid   bool
	}{
		{
			name:    "default weights",
			weights: QualityWeights{Completeness: 0.35, Accuracy: 0.30, Consistency: 0.20, Timeliness: 0.15},
			valid:   true,
		},
		{
			name:    "within tolerance",
			weights: QualityWeights{Completeness: 0.35, Accuracy: 0.30, Consistency: 0.20, Timeliness: 0.155},
			valid:   true,
		},
		{
			name:    "sum too low",
			weights: QualityWeights{Completeness: 0.25, Accuracy: 0.25, Consistency: 0.20, Timeliness: 0.15},
			valid:   false,
		},
		{
			name:    "sum too high",
			weights: QualityWeights{Completeness: 0.5, Accuracy: 0.4, Consistency: 0.3, Timeliness: 0.2},
			valid:   false,
		},
		{
			name:    "zero weights",
			weights: QualityWeights{},
			valid:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.weights.IsValid())
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults pass",
			mutate: func(c *Config) {},
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "Port",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "Level",
		},
		{
			name:    "bad weights",
			mutate:  func(c *Config) { c.Analysis.Weights.Completeness = 0.9 },
			wantErr: "weights must sum to 1.0",
		},
		{
			name: "moderate cutoff above strong",
			mutate: func(c *Config) {
				c.Analysis.ModerateCorrelation = 0.8
			},
			wantErr: "must be below strong cutoff",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestMergeConfigs(t *testing.T) {
	fileCfg := *Default()
	fileCfg.Server.Port = 9090
	fileCfg.Paths.DataDir = "from_file"

	var envCfg Config // everything zero, file values should win

	merged := mergeConfigs(fileCfg, envCfg)

	assert.Equal(t, 9090, merged.Server.Port)
	assert.Equal(t, "from_file", merged.Paths.DataDir)

	// Env value takes precedence when set
	envCfg.Server.Port = 7070
	merged = mergeConfigs(fileCfg, envCfg)
	assert.Equal(t, 7070, merged.Server.Port)
	assert.Equal(t, "from_file", merged.Paths.DataDir)
}

func TestNewRunPaths(t *testing.T) {
	p := NewRunPaths("/data", "/out", "run-123")

	assert.Equal(t, filepath.Join("/out", "run-123"), p.RunDir)
	assert.Equal(t, filepath.Join("/out", "run-123", "charts"), p.ChartsDir)
	assert.Equal(t, filepath.Join("/out", "run-123", "generated_code"), p.GeneratedDir)
	assert.Equal(t, filepath.Join("/out", "run-123", "quality_assessment.json"), p.QualityAssessment)
	assert.Equal(t, filepath.Join("/out", "run-123", "run_manifest.json"), p.Manifest)
	assert.Equal(t, filepath.Join("/out", "run-123", "final_report.html"), p.FinalHTML)
}

func TestRunPathsEnsureDirectories(t *testing.T) {
	tmp := t.TempDir()
	p := NewRunPaths(tmp, filepath.Join(tmp, "out"), "r1")

	require.NoError(t, p.EnsureDirectories())

	assert.True(t, FileExists(p.RunDir))
	assert.True(t, FileExists(p.ChartsDir))
	assert.True(t, FileExists(p.GeneratedDir))
}

func TestRunPathsHelpers(t *testing.T) {
	p := NewRunPaths("/data", "/out", "r1")

	assert.Equal(t, filepath.Join("/out", "r1", "extra.json"), p.Artifact("extra.json"))
	assert.Equal(t, filepath.Join("/out", "r1", "charts", "prices.png"), p.ChartPath("prices.png"))
}

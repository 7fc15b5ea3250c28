package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Analysis  AnalysisConfig  `yaml:"analysis" envconfig:"ANALYSIS"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string          `yaml:"host" envconfig:"HOST" default:"0.0.0.0"`
	Port            int             `yaml:"port" envconfig:"PORT" default:"8080" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"5s"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"20"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"40"`
}

// AnalysisConfig contains the statistical parameters used by the pipeline stages.
// Defaults reproduce the standard methodology; overriding them changes every
// stage consistently because stages read them from here, never hardcode.
type AnalysisConfig struct {
	IQRMultiplier         float64        `yaml:"iqr_multiplier" json:"iqr_multiplier" envconfig:"IQR_MULTIPLIER" default:"1.5" validate:"gt=0"`
	StrongCorrelation     float64        `yaml:"strong_correlation" json:"strong_correlation" envconfig:"STRONG_CORRELATION" default:"0.7" validate:"gt=0,lte=1"`
	ModerateCorrelation   float64        `yaml:"moderate_correlation" json:"moderate_correlation" envconfig:"MODERATE_CORRELATION" default:"0.4" validate:"gt=0,lte=1"`
	ExtremeZScore         float64        `yaml:"extreme_zscore" json:"extreme_zscore" envconfig:"EXTREME_ZSCORE" default:"3.0" validate:"gt=0"`
	QualityGate           float64        `yaml:"quality_gate" json:"quality_gate" envconfig:"QUALITY_GATE" default:"75" validate:"gte=0,lte=100"`
	MaxNumericColumns     int            `yaml:"max_numeric_columns" json:"max_numeric_columns" envconfig:"MAX_NUMERIC_COLUMNS" default:"10" validate:"gte=1"`
	MaxCategoricalColumns int            `yaml:"max_categorical_columns" json:"max_categorical_columns" envconfig:"MAX_CATEGORICAL_COLUMNS" default:"8" validate:"gte=1"`
	Weights               QualityWeights `yaml:"weights" json:"weights" envconfig:"WEIGHTS"`
}

// QualityWeights blends the four quality dimensions into the overall score.
type QualityWeights struct {
	Completeness float64 `yaml:"completeness" json:"completeness" envconfig:"COMPLETENESS" default:"0.35" validate:"gte=0,lte=1"`
	Accuracy     float64 `yaml:"accuracy" json:"accuracy" envconfig:"ACCURACY" default:"0.30" validate:"gte=0,lte=1"`
	Consistency  float64 `yaml:"consistency" json:"consistency" envconfig:"CONSISTENCY" default:"0.20" validate:"gte=0,lte=1"`
	Timeliness   float64 `yaml:"timeliness" json:"timeliness" envconfig:"TIMELINESS" default:"0.15" validate:"gte=0,lte=1"`
}

// Sum returns the total of all four weights.
func (w QualityWeights) Sum() float64 {
	return w.Completeness + w.Accuracy + w.Consistency + w.Timeliness
}

// IsValid checks that weights sum to 1.0 within tolerance.
func (w QualityWeights) IsValid() bool {
	sum := w.Sum()
	return sum >= 0.99 && sum <= 1.01
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"stdout" validate:"oneof=stdout file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/ecompulse.log"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir   string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data_storage"`
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR" default:"analysis_output"`
	LogsDir   string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
}

// WebSocketConfig contains progress stream configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE" default:"1024"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE" default:"1024"`
	WriteWait       time.Duration `yaml:"write_wait" envconfig:"WRITE_WAIT" default:"10s"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD" default:"30s"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT" default:"60s"`
}

// Load loads configuration from environment variables and config file.
// Precedence: env > YAML file > struct defaults.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("ECOMPULSE", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	configFile := getConfigFilePath()
	if configFile != "" {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs merges file config with env config (env takes precedence).
// Zero-valued env fields fall back to the file values.
func mergeConfigs(fileConfig, envConfig Config) Config {
	if envConfig.Server.Port == 0 {
		envConfig.Server.Port = fileConfig.Server.Port
	}
	if envConfig.Server.Host == "" {
		envConfig.Server.Host = fileConfig.Server.Host
	}
	if envConfig.Server.ReadTimeout == 0 {
		envConfig.Server.ReadTimeout = fileConfig.Server.ReadTimeout
	}
	if envConfig.Server.WriteTimeout == 0 {
		envConfig.Server.WriteTimeout = fileConfig.Server.WriteTimeout
	}
	if envConfig.Paths.DataDir == "" {
		envConfig.Paths.DataDir = fileConfig.Paths.DataDir
	}
	if envConfig.Paths.OutputDir == "" {
		envConfig.Paths.OutputDir = fileConfig.Paths.OutputDir
	}
	if envConfig.Logging.Level == "" {
		envConfig.Logging.Level = fileConfig.Logging.Level
	}
	if envConfig.Analysis.IQRMultiplier == 0 {
		envConfig.Analysis.IQRMultiplier = fileConfig.Analysis.IQRMultiplier
	}
	if envConfig.Analysis.Weights.Sum() == 0 {
		envConfig.Analysis.Weights = fileConfig.Analysis.Weights
	}

	return envConfig
}

// Validate checks structural constraints plus the weight-sum invariant.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return err
	}

	if !c.Analysis.Weights.IsValid() {
		return fmt.Errorf("quality weights must sum to 1.0, got %.4f", c.Analysis.Weights.Sum())
	}

	if c.Analysis.ModerateCorrelation >= c.Analysis.StrongCorrelation {
		return fmt.Errorf("moderate correlation cutoff %.2f must be below strong cutoff %.2f",
			c.Analysis.ModerateCorrelation, c.Analysis.StrongCorrelation)
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 5 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     20,
				Burst:   40,
			},
		},
		Analysis: DefaultAnalysis(),
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "stdout",
			FilePath: "logs/ecompulse.log",
		},
		Paths: PathsConfig{
			DataDir:   "data_storage",
			OutputDir: "analysis_output",
			LogsDir:   "logs",
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			WriteWait:       10 * time.Second,
			PingPeriod:      30 * time.Second,
			PongWait:        60 * time.Second,
		},
	}
}

// DefaultAnalysis returns the standard analysis parameters.
func DefaultAnalysis() AnalysisConfig {
	return AnalysisConfig{
		IQRMultiplier:         1.5,
		StrongCorrelation:     0.7,
		ModerateCorrelation:   0.4,
		ExtremeZScore:         3.0,
		QualityGate:           75,
		MaxNumericColumns:     10,
		MaxCategoricalColumns: 8,
		Weights: QualityWeights{
			Completeness: 0.35,
			Accuracy:     0.30,
			Consistency:  0.20,
			Timeliness:   0.15,
		},
	}
}

package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Analysis AnalysisConfig `yaml:"analysis" envconfig:"ANALYSIS"`
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
}

// AnalysisConfig contains the analyst-chosen parameters of a run
type AnalysisConfig struct {
	// BaseYear and BaseQuarter anchor the deflation. The run aborts when the
	// base period is absent from the price index.
	BaseYear    int `yaml:"base_year" envconfig:"BASE_YEAR" validate:"required,min=1990"`
	BaseQuarter int `yaml:"base_quarter" envconfig:"BASE_QUARTER" validate:"required,min=1,max=4"`

	// TargetRegions restricts the analysis to the listed region codes.
	// Empty means all regions are retained.
	TargetRegions []int `yaml:"target_regions" envconfig:"TARGET_REGIONS"`

	// RegionNames maps region codes to display names for API responses.
	RegionNames map[int]string `yaml:"region_names" envconfig:"REGION_NAMES"`

	// MinAge is the working-age lower bound for rate and income cohorts.
	MinAge int `yaml:"min_age" envconfig:"MIN_AGE" validate:"min=0"`

	// OutlierPercentile trims real incomes above this percentile of the
	// already-valid cohort.
	OutlierPercentile float64 `yaml:"outlier_percentile" envconfig:"OUTLIER_PERCENTILE" validate:"gt=0,lte=1"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// ServerConfig contains the results API server configuration
type ServerConfig struct {
	Port           int     `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	RateLimitRPS   float64 `yaml:"rate_limit_rps" envconfig:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `yaml:"rate_limit_burst" envconfig:"RATE_LIMIT_BURST"`
}

// DefaultConfig returns the built-in defaults. File and environment values
// overlay these in Load.
func DefaultConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			BaseYear:      2025,
			BaseQuarter:   2,
			TargetRegions: []int{31, 34},
			RegionNames: map[int]string{
				31: "Ushuaia – Río Grande",
				34: "Mar del Plata – Batán",
			},
			MinAge:            18,
			OutlierPercentile: 0.995,
		},
		Paths: PathsConfig{
			RawDir:    "data/raw",
			DataDir:   "data",
			OutputDir: "output",
			IndexFile: "data/price_index.csv",
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/ephcli.log",
		},
		Server: ServerConfig{
			Port:           8080,
			RateLimitRPS:   50,
			RateLimitBurst: 25,
		},
	}
}

// Load builds the configuration in three layers: built-in defaults, then
// the YAML config file when present, then EPH_* environment variables.
// Later layers win.
func Load(configFile string) (*Config, error) {
	cfg := DefaultConfig()

	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			data, err := os.ReadFile(configFile)
			if err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	if err := envconfig.Process("EPH", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	cfg.Paths.resolve()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration against its struct tags.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// BasePeriodKey returns the canonical key of the deflation base period.
func (a AnalysisConfig) BasePeriodKey() string {
	return fmt.Sprintf("%d-T%d", a.BaseYear, a.BaseQuarter)
}

// RegionName returns the configured display name for a region code, falling
// back to "Region <code>" for unmapped codes.
func (a AnalysisConfig) RegionName(code int) string {
	if name, ok := a.RegionNames[code]; ok {
		return name
	}
	return fmt.Sprintf("Region %d", code)
}

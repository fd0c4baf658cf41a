// =============================================================================
// Sales & Receivables Analytics - Configuration Module
// =============================================================================
//
// This module loads and manages the application configuration. Alongside the
// usual directory and logging settings it carries the analytics policy: the
// aging bucket collection weights, the write-off customer adjustment, and the
// long-overdue KPI target. The exact business calibration of those values is
// operator-owned, so they live in configuration with documented defaults
// rather than in code.
//
// CONFIGURATION FILE:
//   A single YAML file (config.yaml by default). Every field is optional;
//   defaults are applied on load and a missing file yields the defaults.
//
// =============================================================================

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the full application configuration.
type Config struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is the directory scanned for ERP export files.
	// Default: "./input"
	InputDir string `yaml:"input_dir"`

	// OutputDir is the directory where generated report documents are placed.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// OutputArchiveDir is where generated reports are archived for long-term
	// storage. Default: "./output_archive"
	OutputArchiveDir string `yaml:"output_archive_dir"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls logging verbosity.
	// Valid values: "debug", "info", "warn", "error". Default: "info"
	LogLevel string `yaml:"log_level"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputNamePattern defines the output file name.
	// Placeholders:
	//   {run_id}    - The report run id (UUID)
	//   {timestamp} - Generation timestamp (YYYYMMDD_HHMMSS)
	//   {end}       - The report period end date (YYYY-MM-DD)
	// Default: "receivables_report_{end}_{run_id}.xml"
	OutputNamePattern string `yaml:"output_name_pattern"`

	// =========================================================================
	// INGESTION SETTINGS
	// =========================================================================

	// CSV contains settings for parsing CSV exports.
	CSV CSVSettings `yaml:"csv_settings"`

	// Excel contains settings for reading XLSX exports.
	Excel ExcelSettings `yaml:"excel_settings"`

	// =========================================================================
	// ANALYTICS POLICY
	// =========================================================================

	// Aging contains the collection-probability policy for aging buckets.
	Aging AgingPolicy `yaml:"aging_policy"`

	// TopOverdueCount is the number of customers listed in the worst-overdue
	// table. Default: 20
	TopOverdueCount int `yaml:"top_overdue_count"`

	// LongOverdueTargetRatio is the KPI ceiling for the share of total
	// outstanding sitting in the 90+ bucket. The run logs a warning and flags
	// the payload when the computed ratio exceeds it. Default: 0.10
	LongOverdueTargetRatio float64 `yaml:"long_overdue_target_ratio"`
}

// CSVSettings contains settings for parsing CSV exports.
type CSVSettings struct {
	// Delimiter separates fields. Common values: "," "|" "\t". Default: ","
	Delimiter string `yaml:"delimiter"`

	// HeaderRows is the number of header rows. Default: 1
	HeaderRows int `yaml:"header_rows"`
}

// ExcelSettings contains settings for reading XLSX exports.
type ExcelSettings struct {
	// SheetFilter limits reading to sheets whose name contains any of these
	// substrings. Empty means every sheet is read.
	SheetFilter []string `yaml:"sheet_filter"`

	// TotalRowLabels marks summary rows the ERP appends below the data.
	// A row whose first cell equals one of these labels is skipped.
	// Default: ["TOTAL", "SUBTOTAL"]
	TotalRowLabels []string `yaml:"total_row_labels"`
}

// AgingPolicy holds the collection-probability calibration.
//
// The defaults below are a documented baseline, not a derived truth: 0-30 day
// receivables are assumed 90% collectible, degrading monotonically to 10% for
// 90+ days, and customers with written-off history have their weight halved.
type AgingPolicy struct {
	// BucketWeights maps bucket labels to baseline collection weights.
	BucketWeights map[string]float64 `yaml:"bucket_weights"`

	// WriteoffAdjustmentFactor multiplies the weight for customers that have
	// a written_off receivable in the batch. Clamped to [0, 1] on load.
	WriteoffAdjustmentFactor float64 `yaml:"writeoff_adjustment_factor"`
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the configuration from a YAML file and applies defaults.
// A missing file is not an error; the defaults are returned.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyDefaults(&cfg)
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

// applyDefaults sets default values for any unset option.
func applyDefaults(cfg *Config) {
	if cfg.InputDir == "" {
		cfg.InputDir = "./input"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./output"
	}
	if cfg.OutputArchiveDir == "" {
		cfg.OutputArchiveDir = "./output_archive"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.OutputNamePattern == "" {
		cfg.OutputNamePattern = "receivables_report_{end}_{run_id}.xml"
	}

	if cfg.CSV.Delimiter == "" {
		cfg.CSV.Delimiter = ","
	}
	if cfg.CSV.HeaderRows == 0 {
		cfg.CSV.HeaderRows = 1
	}

	if len(cfg.Excel.TotalRowLabels) == 0 {
		cfg.Excel.TotalRowLabels = []string{"TOTAL", "SUBTOTAL"}
	}

	if cfg.Aging.BucketWeights == nil {
		cfg.Aging.BucketWeights = map[string]float64{
			"0-30":  0.9,
			"31-60": 0.7,
			"61-90": 0.4,
			"90+":   0.1,
		}
	}
	if cfg.Aging.WriteoffAdjustmentFactor == 0 {
		cfg.Aging.WriteoffAdjustmentFactor = 0.5
	}
	if cfg.Aging.WriteoffAdjustmentFactor < 0 {
		cfg.Aging.WriteoffAdjustmentFactor = 0
	}
	if cfg.Aging.WriteoffAdjustmentFactor > 1 {
		cfg.Aging.WriteoffAdjustmentFactor = 1
	}

	if cfg.TopOverdueCount == 0 {
		cfg.TopOverdueCount = 20
	}
	if cfg.LongOverdueTargetRatio == 0 {
		cfg.LongOverdueTargetRatio = 0.10
	}
}

// validate checks the loaded configuration for values the pipeline cannot
// work with.
func validate(cfg *Config) error {
	for label, w := range cfg.Aging.BucketWeights {
		if w < 0 || w > 1 {
			return fmt.Errorf("bucket weight for %q must be in [0, 1], got %v", label, w)
		}
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", cfg.LogLevel)
	}

	if cfg.TopOverdueCount < 0 {
		return fmt.Errorf("top_overdue_count must not be negative")
	}

	return nil
}

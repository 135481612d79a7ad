// Package config loads urlcluster configuration.
//
// Values are layered, lowest precedence first: built-in defaults, the
// urlcluster.yaml file, URLCLUSTER_* environment variables and finally the
// CLI flags that were explicitly set.
package config

import (
	"github.com/leapstack-labs/urlcluster/internal/lookup"
	"github.com/leapstack-labs/urlcluster/pkg/core"
)

// TargetConfig is an alias for the shared target configuration.
type TargetConfig = core.TargetConfig

// Config holds all CLI configuration options.
type Config struct {
	SourceTable      string               `koanf:"source_table"`
	DestinationTable string               `koanf:"destination_table"`
	Mode             string               `koanf:"mode"`
	SummaryLimit     int                  `koanf:"summary_limit"`
	StatePath        string               `koanf:"state_path"`
	Environment      string               `koanf:"environment"`
	Verbose          bool                 `koanf:"verbose"`
	OutputFormat     string               `koanf:"output"`
	Target           *TargetConfig        `koanf:"target"`
	Metrics          MetricsConfig        `koanf:"metrics"`
	Environments     map[string]EnvConfig `koanf:"environments"`

	// ConfigDir is the directory of the loaded config file, or the working
	// directory when none was found.
	ConfigDir string `koanf:"-"`
}

// EnvConfig holds environment-specific overrides.
type EnvConfig struct {
	SourceTable      string        `koanf:"source_table"`
	DestinationTable string        `koanf:"destination_table"`
	Target           *TargetConfig `koanf:"target"`
}

// MetricsConfig configures the Pushgateway metrics backend.
type MetricsConfig struct {
	PushgatewayURL string `koanf:"pushgateway_url"`
	Job            string `koanf:"job"`
}

// Default configuration values.
const (
	DefaultStateFile  = ".urlcluster/state.db"
	DefaultEnv        = "dev"
	DefaultOutput     = "auto"
	DefaultTargetType = "duckdb"
	DefaultMetricsJob = "urlcluster"
)

// Defaults returns the configuration used when nothing else is set.
func Defaults() *Config {
	return &Config{
		SourceTable:      lookup.DefaultSourceTable,
		DestinationTable: lookup.DefaultDestinationTable,
		Mode:             string(lookup.ModeLocal),
		SummaryLimit:     lookup.DefaultSummaryLimit,
		StatePath:        DefaultStateFile,
		Environment:      DefaultEnv,
		OutputFormat:     DefaultOutput,
		Target:           &TargetConfig{Type: DefaultTargetType, Schema: "main"},
		Metrics:          MetricsConfig{Job: DefaultMetricsJob},
	}
}

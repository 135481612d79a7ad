package config

import (
	"fmt"

	"github.com/leapstack-labs/urlcluster/internal/cli/output"
	"github.com/leapstack-labs/urlcluster/internal/lookup"
	"github.com/leapstack-labs/urlcluster/pkg/adapter"
	"github.com/leapstack-labs/urlcluster/pkg/core"
)

// DefaultSchemaForType returns the default schema for a database type.
func DefaultSchemaForType(dbType string) string {
	if dbType == "postgres" {
		return "public"
	}
	return "main"
}

// ApplyTargetDefaults fills in type-specific defaults.
func ApplyTargetDefaults(t *TargetConfig) {
	if t.Schema == "" {
		t.Schema = DefaultSchemaForType(t.Type)
	}
	if t.Type == "postgres" && t.Port == 0 {
		t.Port = 5432
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if err := core.ValidateTableName(c.SourceTable); err != nil {
		return fmt.Errorf("source_table: %w", err)
	}
	if err := core.ValidateTableName(c.DestinationTable); err != nil {
		return fmt.Errorf("destination_table: %w", err)
	}
	if c.SourceTable == c.DestinationTable {
		return fmt.Errorf("destination_table must differ from source_table (%s)", c.SourceTable)
	}
	if _, err := lookup.ParseMode(c.Mode); err != nil {
		return err
	}
	if c.SummaryLimit <= 0 {
		return fmt.Errorf("summary_limit must be positive, got %d", c.SummaryLimit)
	}
	if _, err := output.ParseMode(c.OutputFormat); err != nil {
		return err
	}
	if c.Target == nil || c.Target.Type == "" {
		return fmt.Errorf("target type is required")
	}
	if !adapter.IsRegistered(c.Target.Type) {
		return &adapter.UnknownAdapterError{Type: c.Target.Type, Available: adapter.ListAdapters()}
	}
	return nil
}

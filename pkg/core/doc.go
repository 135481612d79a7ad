// Package core defines the shared language of the urlcluster system.
//
// This package contains:
//   - Engine connection types (AdapterConfig, Column, TableMetadata, Rows)
//   - The SQL dialect descriptor used to render engine-side statements
//   - Target configuration shared by the CLI and the adapters
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core

// Package lookup builds the URL cluster lookup table.
//
// A build reads the distinct qualifying URLs of the source table, classifies
// them, normalizes the keyword list into one row per keyword and replaces the
// destination table in a single transaction. It then reads the destination
// back and returns a Summary. Two modes produce the same table:
//
//   - ModeLocal classifies in process and writes the rows.
//   - ModePushdown renders the rule table to SQL and lets the engine build the
//     table with CREATE TABLE AS.
//
// Every failure is returned immediately; nothing is retried.
package lookup

import (
	"context"
	"errors"
	"fmt"

	"github.com/leapstack-labs/urlcluster/internal/classify"
)

// Mode selects where classification runs.
type Mode string

// Build modes.
const (
	ModeLocal    Mode = "local"
	ModePushdown Mode = "pushdown"
)

// ParseMode validates a mode name. The empty string selects ModeLocal.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeLocal:
		return ModeLocal, nil
	case ModePushdown:
		return ModePushdown, nil
	}
	return "", fmt.Errorf("unknown build mode %q (expected %q or %q)", s, ModeLocal, ModePushdown)
}

// Default table names and summary size.
const (
	DefaultSourceTable      = "DCIS_Staging_Lakehouse.searchdata_url_impression"
	DefaultDestinationTable = "DCIS_Staging_Lakehouse.url_cluster_lookup"
	DefaultSummaryLimit     = 10
)

// ErrSourceNotFound is returned when the source table is missing or lacks a url column.
var ErrSourceNotFound = errors.New("source table not found")

// WriteError reports a failed destination write. The destination is left as
// it was before the build.
type WriteError struct {
	Table string
	Err   error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Table, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Row is one row of the lookup table.
type Row = classify.Row

// Group is one (cluster, sub-cluster) line of the verification summary.
type Group struct {
	Cluster    string `json:"url_cluster"`
	SubCluster string `json:"url_sub_cluster"`
	URLs       int64  `json:"url_count"`
	Keywords   int64  `json:"keyword_count"`
}

// Summary is the read-back verification of a written lookup table.
type Summary struct {
	Table  string  `json:"table"`
	Rows   int64   `json:"rows"`
	URLs   int64   `json:"urls"`
	Groups []Group `json:"groups"`
}

// Engine is the query engine a build runs against.
type Engine interface {
	// Name identifies the engine (e.g. "duckdb").
	Name() string

	// DistinctURLs returns the distinct non-null source URLs containing
	// substr, in ascending order.
	DistinctURLs(ctx context.Context, source, substr string) ([]string, error)

	// Overwrite replaces destination and its schema with rows, atomically.
	Overwrite(ctx context.Context, destination string, rows []Row) error

	// Pushdown rebuilds destination from source inside the engine, atomically.
	Pushdown(ctx context.Context, source, destination string) error

	// Verify reads back row counts and the top limit cluster groups.
	Verify(ctx context.Context, destination string, limit int) (*Summary, error)
}

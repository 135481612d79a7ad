package core

import (
	"fmt"
	"regexp"
	"strings"
)

// PlaceholderStyle defines how query parameters are formatted.
type PlaceholderStyle int

const (
	// PlaceholderQuestion uses ? for all parameters (DuckDB, SQLite).
	PlaceholderQuestion PlaceholderStyle = iota
	// PlaceholderDollar uses $1, $2, etc. for parameters (PostgreSQL).
	PlaceholderDollar
)

// Dialect holds the static SQL surface of an engine.
// This is pure data plus formatting helpers; adapters return one from Dialect().
type Dialect struct {
	// Name is the dialect identifier (e.g., "duckdb", "postgres")
	Name string

	// DefaultSchema is the default schema name ("main" for DuckDB, "public" for Postgres)
	DefaultSchema string

	// Placeholder defines how query parameters are formatted
	Placeholder PlaceholderStyle

	// TextType is the column type used for string columns.
	TextType string

	// SplitFunc is the function splitting a string into an array, called as SplitFunc(str, sep).
	SplitFunc string

	// RegexpExtract renders a first-capture-group extraction. It receives the column
	// expression and a quoted pattern literal. A non-matching input must yield NULL or ''.
	RegexpExtract func(expr, pattern string) string

	// Catalog, when set, prefixes every rendered table and schema reference.
	// DuckDB names its catalog after the database file, so a schema with the
	// same name is ambiguous unless the catalog is spelled out.
	Catalog string
}

// QualifyTable renders a [schema.]table reference for use in SQL. With a
// catalog set, the result is catalog.schema.table and a missing schema
// defaults to DefaultSchema.
func (d *Dialect) QualifyTable(name string) string {
	if d.Catalog == "" {
		return name
	}
	schema, table := SplitTableName(name)
	if schema == "" {
		schema = d.DefaultSchema
	}
	return QuoteIdent(d.Catalog) + "." + schema + "." + table
}

// QualifySchema renders a schema reference for CREATE SCHEMA.
func (d *Dialect) QualifySchema(schema string) string {
	if d.Catalog == "" {
		return schema
	}
	return QuoteIdent(d.Catalog) + "." + schema
}

// FormatPlaceholder returns the placeholder for the n-th (1-based) parameter.
func (d *Dialect) FormatPlaceholder(n int) string {
	if d.Placeholder == PlaceholderDollar {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// QuoteString renders s as a single-quoted SQL string literal.
func QuoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// QuoteIdent renders s as a double-quoted SQL identifier.
func QuoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// ValidateTableName checks that name is a plain or schema-qualified identifier
// that can be interpolated into SQL unquoted.
func ValidateTableName(name string) error {
	if !tableNamePattern.MatchString(name) {
		return fmt.Errorf("invalid table name %q: expected [schema.]table of letters, digits and underscores", name)
	}
	return nil
}

// SplitTableName splits a table reference into schema and name.
// The schema is empty when the reference is unqualified.
func SplitTableName(name string) (schema, table string) {
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}

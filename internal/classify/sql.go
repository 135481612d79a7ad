package classify

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/urlcluster/pkg/core"
)

// renderCase renders a rule set as a CASE expression over the url column.
// strpos is used instead of LIKE so that '%' and '_' inside a rule substring
// stay literal.
func renderCase(d *core.Dialect, rs RuleSet) string {
	var b strings.Builder
	b.WriteString("CASE")
	for _, r := range rs.Rules {
		fmt.Fprintf(&b, "\n      WHEN strpos(%s, %s) > 0 THEN %s",
			ColumnURL, core.QuoteString(r.Contains), core.QuoteString(r.Value))
	}
	if rs.Default.Valid {
		fmt.Fprintf(&b, "\n      ELSE %s", core.QuoteString(rs.Default.String))
	} else {
		fmt.Fprintf(&b, "\n      ELSE CAST(NULL AS %s)", d.TextType)
	}
	b.WriteString("\n    END")
	return b.String()
}

// renderLocale renders the locale extraction. Engines that return '' for a
// non-matching regex are normalized to NULL.
func renderLocale(d *core.Dialect) string {
	return fmt.Sprintf("NULLIF(%s, '')", d.RegexpExtract(ColumnURL, core.QuoteString(LocalePattern)))
}

// RenderSelect renders the query producing the lookup rows for source. The
// result has the same rows as Build over the same input.
func RenderSelect(d *core.Dialect, source string) (string, error) {
	if err := core.ValidateTableName(source); err != nil {
		return "", err
	}

	cols := []string{ColumnURL, ColumnCluster, ColumnSubCluster, ColumnCountryLanguage}
	carried := strings.Join(cols, ", ")

	var b strings.Builder
	b.WriteString("WITH classified AS (\n  SELECT DISTINCT\n    ")
	b.WriteString(ColumnURL)
	fmt.Fprintf(&b, ",\n    %s AS %s", renderCase(d, ClusterRules), ColumnCluster)
	fmt.Fprintf(&b, ",\n    %s AS %s", renderCase(d, SubClusterRules), ColumnSubCluster)
	fmt.Fprintf(&b, ",\n    %s AS %s", renderLocale(d), ColumnCountryLanguage)
	fmt.Fprintf(&b, ",\n    %s AS %s", renderCase(d, KeywordRules), columnTargetKeywords)
	fmt.Fprintf(&b, "\n  FROM %s\n  WHERE %s IS NOT NULL AND strpos(%s, %s) > 0\n)\n",
		d.QualifyTable(source), ColumnURL, ColumnURL, core.QuoteString(Domain))

	fmt.Fprintf(&b, "SELECT %s, lower(trim(keyword)) AS %s\nFROM (\n", carried, ColumnTargetKeyword)
	fmt.Fprintf(&b, "  SELECT %s, unnest(%s(%s, ',')) AS keyword\n  FROM classified\n  WHERE %s IS NOT NULL\n) exploded\n",
		carried, d.SplitFunc, columnTargetKeywords, columnTargetKeywords)
	b.WriteString("UNION ALL\n")
	fmt.Fprintf(&b, "SELECT %s, CAST(NULL AS %s) AS %s\nFROM classified\nWHERE %s IS NULL",
		carried, d.TextType, ColumnTargetKeyword, columnTargetKeywords)

	return b.String(), nil
}

// RenderBuild renders the statements that rebuild destination from source
// entirely inside the engine. They are meant to run in one transaction.
func RenderBuild(d *core.Dialect, source, destination string) ([]string, error) {
	if err := core.ValidateTableName(destination); err != nil {
		return nil, err
	}
	query, err := RenderSelect(d, source)
	if err != nil {
		return nil, err
	}

	stmts := DropStatements(d, destination)
	return append(stmts, fmt.Sprintf("CREATE TABLE %s AS\n%s", d.QualifyTable(destination), query)), nil
}

// DropStatements renders the statements that create the destination's schema
// when missing and drop the destination table.
func DropStatements(d *core.Dialect, destination string) []string {
	var stmts []string
	if schema, _ := core.SplitTableName(destination); schema != "" {
		stmts = append(stmts, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", d.QualifySchema(schema)))
	}
	return append(stmts, fmt.Sprintf("DROP TABLE IF EXISTS %s", d.QualifyTable(destination)))
}

// TableDDL renders the CREATE TABLE statement for the lookup table.
func TableDDL(d *core.Dialect, destination string) string {
	return fmt.Sprintf("CREATE TABLE %s (\n  %s %s NOT NULL,\n  %s %s NOT NULL,\n  %s %s NOT NULL,\n  %s %s,\n  %s %s\n)",
		d.QualifyTable(destination),
		ColumnURL, d.TextType,
		ColumnCluster, d.TextType,
		ColumnSubCluster, d.TextType,
		ColumnCountryLanguage, d.TextType,
		ColumnTargetKeyword, d.TextType,
	)
}

package classify

import (
	"strings"
	"testing"

	"github.com/leapstack-labs/urlcluster/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDialect = &core.Dialect{
	Name:          "test",
	DefaultSchema: "main",
	TextType:      "VARCHAR",
	SplitFunc:     "string_split",
	RegexpExtract: func(expr, pattern string) string {
		return "regexp_extract(" + expr + ", " + pattern + ", 1)"
	},
}

func TestRenderSelect(t *testing.T) {
	query, err := RenderSelect(testDialect, "staging.impressions")
	require.NoError(t, err)

	assert.Contains(t, query, "FROM staging.impressions")
	assert.Contains(t, query, "WHERE url IS NOT NULL AND strpos(url, 'dhl.com') > 0")
	assert.Contains(t, query, "WHEN strpos(url, '/express/shipping') > 0 THEN 'Shipping Services'")
	assert.Contains(t, query, "ELSE 'Other'")
	assert.Contains(t, query, "ELSE 'General'")
	assert.Contains(t, query, "ELSE CAST(NULL AS VARCHAR)")
	assert.Contains(t, query, `NULLIF(regexp_extract(url, 'dhl\.com/([a-z]{2}-[a-z]{2})/', 1), '')`)
	assert.Contains(t, query, "unnest(string_split(target_keywords, ','))")
	assert.Contains(t, query, "lower(trim(keyword)) AS target_keyword")
	assert.Contains(t, query, "UNION ALL")

	// Rule order is preserved in the rendered CASE.
	assert.Less(t,
		strings.Index(query, "'/express/shipping') > 0 THEN 'Shipping Services'"),
		strings.Index(query, "'/express/quote') > 0 THEN 'Quote & Pricing'"))
}

func TestRenderSelect_InvalidSource(t *testing.T) {
	_, err := RenderSelect(testDialect, "impressions; DROP TABLE x")
	assert.ErrorContains(t, err, "invalid table name")
}

func TestRenderBuild(t *testing.T) {
	stmts, err := RenderBuild(testDialect, "staging.impressions", "lake.url_cluster_lookup")
	require.NoError(t, err)
	require.Len(t, stmts, 3)
	assert.Equal(t, "CREATE SCHEMA IF NOT EXISTS lake", stmts[0])
	assert.Equal(t, "DROP TABLE IF EXISTS lake.url_cluster_lookup", stmts[1])
	assert.Contains(t, stmts[2], "CREATE TABLE lake.url_cluster_lookup AS\nWITH classified AS")

	stmts, err = RenderBuild(testDialect, "impressions", "lookup")
	require.NoError(t, err)
	assert.Len(t, stmts, 2, "no schema statement for unqualified destination")

	_, err = RenderBuild(testDialect, "impressions", "a.b.c")
	assert.Error(t, err)
}

func TestRenderBuild_WithCatalog(t *testing.T) {
	d := *testDialect
	d.Catalog = "lake"

	stmts, err := RenderBuild(&d, "staging.impressions", "lake.url_cluster_lookup")
	require.NoError(t, err)
	require.Len(t, stmts, 3)
	assert.Equal(t, `CREATE SCHEMA IF NOT EXISTS "lake".lake`, stmts[0])
	assert.Equal(t, `DROP TABLE IF EXISTS "lake".lake.url_cluster_lookup`, stmts[1])
	assert.Contains(t, stmts[2], `CREATE TABLE "lake".lake.url_cluster_lookup AS`)
	assert.Contains(t, stmts[2], `FROM "lake".staging.impressions`)

	assert.Contains(t, TableDDL(&d, "lookup"), `CREATE TABLE "lake".main.lookup (`)
}

func TestRenderCase_QuotesValues(t *testing.T) {
	rs := RuleSet{Column: "c", Rules: []Rule{{"/o'brien", "It's"}}}
	assert.Equal(t,
		"CASE\n      WHEN strpos(url, '/o''brien') > 0 THEN 'It''s'\n      ELSE CAST(NULL AS VARCHAR)\n    END",
		renderCase(testDialect, rs))
}

func TestTableDDL(t *testing.T) {
	ddl := TableDDL(testDialect, "lookup")
	assert.Contains(t, ddl, "CREATE TABLE lookup (")
	assert.Contains(t, ddl, "url VARCHAR NOT NULL")
	assert.Contains(t, ddl, "target_keyword VARCHAR\n)")
}

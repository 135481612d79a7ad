package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leapstack-labs/urlcluster/pkg/adapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPostgresDSN(t *testing.T) {
	tests := []struct {
		name     string
		config   adapter.Config
		expected string
	}{
		{
			name: "basic connection",
			config: adapter.Config{
				Host:     "warehouse.internal",
				Port:     5432,
				Database: "analytics",
				Username: "etl",
				Password: "secret",
			},
			expected: "host=warehouse.internal port=5432 dbname=analytics sslmode=disable user=etl password=secret",
		},
		{
			name: "custom sslmode",
			config: adapter.Config{
				Host:     "warehouse.internal",
				Database: "analytics",
				Options:  map[string]string{"sslmode": "require"},
			},
			expected: "host=warehouse.internal port=5432 dbname=analytics sslmode=require",
		},
		{
			name:     "defaults",
			config:   adapter.Config{Database: "analytics"},
			expected: "host=localhost port=5432 dbname=analytics sslmode=disable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, buildPostgresDSN(tt.config))
		})
	}
}

func TestSanitizeIdentifier(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"url", "url"},
		{"Page URL", "page_url"},
		{"search-impressions", "search_impressions"},
		{"user", `"user"`},
		{"Order", `"order"`},
		{"ctr(%)", `"ctr(%)"`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeIdentifier(tt.input))
		})
	}
}

func TestCreateTextTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec("CREATE SCHEMA IF NOT EXISTS staging").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DROP TABLE IF EXISTS staging.impressions").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE staging.impressions \(url TEXT, impressions TEXT\)`).WillReturnResult(sqlmock.NewResult(0, 0))

	adp := New(nil)
	adp.DB = db

	require.NoError(t, adp.createTextTable(context.Background(), "staging.impressions", []string{"url", "impressions"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTableMetadata_FoldsCase(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("information_schema.columns").
		WithArgs("dcis_staging_lakehouse", "searchdata_url_impression").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable", "ordinal_position"}).
			AddRow("url", "text", "YES", 1))
	mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	adp := New(nil)
	adp.DB = db

	meta, err := adp.GetTableMetadata(context.Background(), "DCIS_Staging_Lakehouse.searchdata_url_impression")
	require.NoError(t, err)
	assert.True(t, meta.HasColumn("url"))
	assert.Equal(t, int64(7), meta.RowCount)
}

func TestAdapter_NotConnected(t *testing.T) {
	ctx := context.Background()
	adp := New(nil)

	assert.ErrorContains(t, adp.Exec(ctx, "SELECT 1"), "not established")
	_, err := adp.Query(ctx, "SELECT 1")
	assert.ErrorContains(t, err, "not established")
	_, err = adp.GetTableMetadata(ctx, "impressions")
	assert.ErrorContains(t, err, "not established")
	assert.ErrorContains(t, adp.LoadCSV(ctx, "impressions", "/tmp/impressions.csv"), "not established")
	assert.NoError(t, adp.Close())
}

func TestAdapter_Registry(t *testing.T) {
	factory, ok := adapter.Get("postgres")
	require.True(t, ok, "postgres adapter should be registered")

	pg, ok := factory(nil).(*Adapter)
	require.True(t, ok, "factory should return *Adapter")
	assert.Equal(t, "postgres", pg.Dialect().Name)
	assert.Equal(t, "public", pg.Dialect().DefaultSchema)
	assert.Equal(t, "$2", pg.Dialect().FormatPlaceholder(2))
	assert.Equal(t, "substring(url from 'p')", pg.Dialect().RegexpExtract("url", "'p'"))
}

package state

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/urlcluster/internal/testutil"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenStore(context.Background(), ":memory:", testutil.NewTestLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testParams() RunParams {
	return RunParams{
		Mode:        "local",
		Engine:      "duckdb",
		Source:      "DCIS_Staging_Lakehouse.searchdata_url_impression",
		Destination: "DCIS_Staging_Lakehouse.url_cluster_lookup",
	}
}

func TestSQLiteStore_Migrate(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	version, err := store.MigrationVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	// Migrating again is a no-op.
	require.NoError(t, store.Migrate(ctx))
}

func TestSQLiteStore_NotOpened(t *testing.T) {
	ctx := context.Background()
	store := NewSQLiteStore(nil)

	assert.ErrorContains(t, store.Migrate(ctx), "database not opened")
	_, err := store.CreateRun(ctx, testParams())
	assert.ErrorContains(t, err, "database not opened")
	_, err = store.ListRuns(ctx, 10)
	assert.ErrorContains(t, err, "database not opened")
	assert.NoError(t, store.Close())
}

func TestSQLiteStore_RunLifecycle(t *testing.T) {
	tests := []struct {
		name       string
		result     RunResult
		wantStatus RunStatus
		wantError  string
	}{
		{
			name:       "completed",
			result:     RunResult{Rows: 12, URLs: 5},
			wantStatus: RunStatusCompleted,
		},
		{
			name:       "failed",
			result:     RunResult{Err: errors.New("source table not found")},
			wantStatus: RunStatusFailed,
			wantError:  "source table not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := setupTestStore(t)

			run, err := store.CreateRun(ctx, testParams())
			require.NoError(t, err)
			assert.Equal(t, RunStatusRunning, run.Status)
			assert.NotEmpty(t, run.ID)

			got, err := store.GetRun(ctx, run.ID)
			require.NoError(t, err)
			assert.Equal(t, RunStatusRunning, got.Status)
			assert.Nil(t, got.CompletedAt)
			assert.Equal(t, time.Duration(0), got.Duration())
			assert.True(t, run.StartedAt.Equal(got.StartedAt))

			require.NoError(t, store.CompleteRun(ctx, run.ID, tt.result))

			got, err = store.GetRun(ctx, run.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.wantError, got.Error)
			assert.Equal(t, tt.result.Rows, got.Rows)
			assert.Equal(t, tt.result.URLs, got.URLs)
			require.NotNil(t, got.CompletedAt)
			assert.GreaterOrEqual(t, got.Duration(), time.Duration(0))
			assert.Equal(t, "local", got.Mode)
			assert.Equal(t, "duckdb", got.Engine)
		})
	}
}

func TestSQLiteStore_UnknownRun(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	_, err := store.GetRun(ctx, "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)

	err = store.CompleteRun(ctx, "missing", RunResult{})
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestSQLiteStore_ListRuns(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	var ids []string
	for range 3 {
		run, err := store.CreateRun(ctx, testParams())
		require.NoError(t, err)
		ids = append(ids, run.ID)
		time.Sleep(2 * time.Millisecond)
	}

	runs, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, ids[2], runs[0].ID, "newest first")
	assert.Equal(t, ids[0], runs[2].ID)

	runs, err = store.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestSQLiteStore_FilePersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "state.db")

	store, err := OpenStore(ctx, path, nil)
	require.NoError(t, err)
	run, err := store.CreateRun(ctx, testParams())
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = OpenStore(ctx, path, nil)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	got, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
}

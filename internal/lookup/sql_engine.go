package lookup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/urlcluster/internal/classify"
	"github.com/leapstack-labs/urlcluster/pkg/adapter"
	"github.com/leapstack-labs/urlcluster/pkg/core"
)

// SQLEngine implements Engine on top of a connected adapter.
type SQLEngine struct {
	adp    adapter.Adapter
	logger *slog.Logger
}

// NewSQLEngine wraps a connected adapter.
// If logger is nil, a discard logger is used.
func NewSQLEngine(adp adapter.Adapter, logger *slog.Logger) *SQLEngine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLEngine{adp: adp, logger: logger}
}

// Name returns the adapter's dialect name.
func (e *SQLEngine) Name() string {
	return e.adp.Dialect().Name
}

// checkSource fails with ErrSourceNotFound unless source exists with a url column.
func (e *SQLEngine) checkSource(ctx context.Context, source string) error {
	if err := core.ValidateTableName(source); err != nil {
		return err
	}
	meta, err := e.adp.GetTableMetadata(ctx, source)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSourceNotFound, source, err)
	}
	if !meta.HasColumn(classify.ColumnURL) {
		return fmt.Errorf("%w: %s has no %q column", ErrSourceNotFound, source, classify.ColumnURL)
	}
	return nil
}

// DistinctURLs implements Engine.
func (e *SQLEngine) DistinctURLs(ctx context.Context, source, substr string) ([]string, error) {
	if err := e.checkSource(ctx, source); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		"SELECT DISTINCT url FROM %s WHERE url IS NOT NULL AND strpos(url, %s) > 0 ORDER BY url",
		e.adp.Dialect().QualifyTable(source), core.QuoteString(substr))
	e.logger.Debug("reading distinct urls", slog.String("source", source))

	rows, err := e.adp.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", source, err)
	}
	defer func() { _ = rows.Close() }()

	var urls []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("failed to scan url: %w", err)
		}
		urls = append(urls, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating urls: %w", err)
	}
	return urls, nil
}

// Overwrite implements Engine. Schema creation, drop, create and inserts run in
// one transaction, so a failure leaves the previous table in place.
func (e *SQLEngine) Overwrite(ctx context.Context, destination string, rows []Row) error {
	if err := core.ValidateTableName(destination); err != nil {
		return &WriteError{Table: destination, Err: err}
	}
	d := e.adp.Dialect()

	e.logger.Debug("overwriting destination", slog.String("table", destination), slog.Int("rows", len(rows)))

	err := e.adp.WithTx(ctx, func(tx *sql.Tx) error {
		if err := execAll(ctx, tx, prepareStatements(d, destination)); err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}

		placeholders := make([]string, 5)
		for i := range placeholders {
			placeholders[i] = d.FormatPlaceholder(i + 1)
		}
		insert := fmt.Sprintf("INSERT INTO %s (%s, %s, %s, %s, %s) VALUES (%s)", d.QualifyTable(destination),
			classify.ColumnURL, classify.ColumnCluster, classify.ColumnSubCluster,
			classify.ColumnCountryLanguage, classify.ColumnTargetKeyword,
			strings.Join(placeholders, ", "))

		stmt, err := tx.PrepareContext(ctx, insert)
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, r := range rows {
			if _, err := stmt.ExecContext(ctx, r.URL, r.Cluster, r.SubCluster, r.CountryLanguage, r.TargetKeyword); err != nil {
				return fmt.Errorf("insert %s: %w", r.URL, err)
			}
		}
		return nil
	})
	if err != nil {
		return &WriteError{Table: destination, Err: err}
	}
	return nil
}

// Pushdown implements Engine.
func (e *SQLEngine) Pushdown(ctx context.Context, source, destination string) error {
	if err := e.checkSource(ctx, source); err != nil {
		return err
	}

	stmts, err := classify.RenderBuild(e.adp.Dialect(), source, destination)
	if err != nil {
		return &WriteError{Table: destination, Err: err}
	}

	e.logger.Debug("running pushdown build", slog.String("source", source), slog.String("table", destination))

	if err := e.adp.WithTx(ctx, func(tx *sql.Tx) error {
		return execAll(ctx, tx, stmts)
	}); err != nil {
		return &WriteError{Table: destination, Err: err}
	}
	return nil
}

// Verify implements Engine.
func (e *SQLEngine) Verify(ctx context.Context, destination string, limit int) (*Summary, error) {
	if err := core.ValidateTableName(destination); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultSummaryLimit
	}

	summary := &Summary{Table: destination, Groups: []Group{}}
	table := e.adp.Dialect().QualifyTable(destination)

	rows, err := e.adp.Query(ctx, fmt.Sprintf("SELECT COUNT(*), COUNT(DISTINCT url) FROM %s", table))
	if err != nil {
		return nil, fmt.Errorf("failed to count %s: %w", destination, err)
	}
	if rows.Next() {
		err = rows.Scan(&summary.Rows, &summary.URLs)
	}
	if err == nil {
		err = rows.Err()
	}
	_ = rows.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read counts: %w", err)
	}

	//nolint:gosec // table name is validated above
	groupSQL := fmt.Sprintf(`SELECT url_cluster, url_sub_cluster,
       COUNT(DISTINCT url) AS url_count,
       COUNT(DISTINCT target_keyword) AS keyword_count
FROM %s
GROUP BY url_cluster, url_sub_cluster
ORDER BY url_count DESC, url_cluster, url_sub_cluster
LIMIT %d`, table, limit)

	rows, err = e.adp.Query(ctx, groupSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize %s: %w", destination, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.Cluster, &g.SubCluster, &g.URLs, &g.Keywords); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		summary.Groups = append(summary.Groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating groups: %w", err)
	}
	return summary, nil
}

// prepareStatements recreates the empty destination table.
func prepareStatements(d *core.Dialect, destination string) []string {
	return append(classify.DropStatements(d, destination), classify.TableDDL(d, destination))
}

func execAll(ctx context.Context, tx *sql.Tx, stmts []string) error {
	for _, s := range stmts {
		if _, err := tx.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("%s: %w", firstLine(s), err)
		}
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

var _ Engine = (*SQLEngine)(nil)

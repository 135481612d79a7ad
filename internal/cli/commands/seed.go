package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/urlcluster/internal/cli/output"
	"github.com/leapstack-labs/urlcluster/pkg/core"
)

// NewSeedCommand creates the seed command.
func NewSeedCommand() *cobra.Command {
	var table string
	cmd := &cobra.Command{
		Use:   "seed <file.csv>",
		Short: "Load a CSV of impressions into the source table",
		Long: `Load a CSV file into a table of the configured target, replacing the table
if it exists. The table defaults to the configured source table; the CSV must
have a header row including a url column for builds to read it.`,
		Example: `  urlcluster seed testdata/impressions.csv
  urlcluster seed impressions.csv --table staging.impressions`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c := NewCommandContext(cmd)
			if table == "" {
				table = c.Cfg.SourceTable
			}
			if err := core.ValidateTableName(table); err != nil {
				return err
			}
			if _, err := os.Stat(args[0]); err != nil {
				return fmt.Errorf("seed file: %w", err)
			}

			adp, cleanup, err := c.OpenAdapter(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			c.Logger.Info("loading seed", slog.String("file", args[0]), slog.String("table", table))
			if err := adp.LoadCSV(ctx, table, args[0]); err != nil {
				return fmt.Errorf("failed to load %s into %s: %w", args[0], table, err)
			}

			meta, err := adp.GetTableMetadata(ctx, table)
			if err != nil {
				return err
			}

			r := c.Renderer
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(map[string]any{"table": table, "file": args[0], "rows": meta.RowCount})
			}
			r.Success(fmt.Sprintf("loaded %d rows from %s into %s", meta.RowCount, args[0], table))
			return nil
		},
	}
	cmd.Flags().StringVar(&table, "table", "", "Destination table (default: source_table)")
	return cmd
}

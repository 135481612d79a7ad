package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/urlcluster/internal/cli/output"
	"github.com/leapstack-labs/urlcluster/internal/lookup"
	"github.com/leapstack-labs/urlcluster/internal/state"
)

// BuildOptions holds options for the build command.
type BuildOptions struct {
	NoHistory bool
}

// buildOutput is the JSON shape of a build.
type buildOutput struct {
	RunID      string          `json:"run_id,omitempty"`
	Engine     string          `json:"engine"`
	Mode       lookup.Mode     `json:"mode"`
	Source     string          `json:"source"`
	DurationMS int64           `json:"duration_ms"`
	Summary    *lookup.Summary `json:"summary"`
}

// NewBuildCommand creates the build command.
func NewBuildCommand() *cobra.Command {
	opts := &BuildOptions{}
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Rebuild the URL cluster lookup table",
		Long: `Rebuild the URL cluster lookup table from the source impressions table.

Distinct dhl.com URLs are classified into cluster, sub-cluster, locale and
candidate keywords, expanded to one row per keyword, and written over the
destination table in a single transaction. The table is then read back and a
summary of the largest cluster groups is printed.

Modes:
  local     classify in urlcluster and write the rows (default)
  pushdown  render the rules to SQL and build the table inside the engine`,
		Example: `  # Build with the defaults from urlcluster.yaml
  urlcluster build

  # Build inside the engine against the prod target
  urlcluster build --mode pushdown -t prod

  # Machine-readable summary
  urlcluster build -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.NoHistory, "no-history", false, "Do not record the run in the state database")
	return cmd
}

func runBuild(cmd *cobra.Command, opts *BuildOptions) error {
	ctx := cmd.Context()
	c := NewCommandContext(cmd)
	cfg := c.Cfg

	mode, err := lookup.ParseMode(cfg.Mode)
	if err != nil {
		return err
	}

	flush, err := c.SetupMetrics()
	if err != nil {
		return err
	}
	defer flush()

	var (
		store *state.SQLiteStore
		run   *state.Run
	)
	if !opts.NoHistory {
		store, err = c.OpenState(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		run, err = store.CreateRun(ctx, state.RunParams{
			Mode:        string(mode),
			Engine:      cfg.Target.Type,
			Source:      cfg.SourceTable,
			Destination: cfg.DestinationTable,
		})
		if err != nil {
			return err
		}
	}

	res, err := executeBuild(ctx, c, mode)
	if store != nil {
		rr := state.RunResult{Err: err}
		if res != nil {
			rr.Rows, rr.URLs = res.Summary.Rows, res.Summary.URLs
		}
		if cerr := store.CompleteRun(ctx, run.ID, rr); cerr != nil {
			c.Logger.Warn("failed to record run", slog.String("id", run.ID), slog.Any("error", cerr))
		} else if err != nil && c.Renderer.EffectiveMode() != output.ModeJSON {
			c.Renderer.Error(fmt.Sprintf("run %s recorded as failed", run.ID))
		}
	}
	if err != nil {
		return err
	}

	out := buildOutput{
		Engine:     cfg.Target.Type,
		Mode:       res.Mode,
		Source:     cfg.SourceTable,
		DurationMS: res.Duration.Milliseconds(),
		Summary:    res.Summary,
	}
	if run != nil {
		out.RunID = run.ID
	}
	return printBuild(c.Renderer, out)
}

func executeBuild(ctx context.Context, c *CommandContext, mode lookup.Mode) (*lookup.Result, error) {
	adp, cleanup, err := c.OpenAdapter(ctx)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	b := lookup.NewBuilder(lookup.NewSQLEngine(adp, c.Logger), c.Logger)
	return b.Build(ctx, lookup.Options{
		Source:       c.Cfg.SourceTable,
		Destination:  c.Cfg.DestinationTable,
		Mode:         mode,
		SummaryLimit: c.Cfg.SummaryLimit,
	})
}

func printBuild(r *output.Renderer, out buildOutput) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(out)
	}

	s := out.Summary
	r.Header(1, "URL Cluster Lookup")
	r.KeyValue("Table", s.Table)
	r.KeyValue("Source", out.Source)
	r.KeyValue("Engine", out.Engine)
	r.KeyValue("Mode", out.Mode)
	r.KeyValue("Rows", s.Rows)
	r.KeyValue("Unique URLs", s.URLs)
	r.KeyValue("Duration", (time.Duration(out.DurationMS) * time.Millisecond).String())
	if out.RunID != "" {
		r.KeyValue("Run", out.RunID)
	}
	r.Println("")

	if len(s.Groups) == 0 {
		r.Println(r.Muted("No qualifying URLs found."))
		return nil
	}

	r.Header(2, "Top Cluster Groups")
	rows := make([][]any, 0, len(s.Groups))
	for _, g := range s.Groups {
		rows = append(rows, []any{g.Cluster, g.SubCluster, g.URLs, g.Keywords})
	}
	r.Table([]string{"Cluster", "Sub-cluster", "URLs", "Keywords"}, rows)
	return nil
}

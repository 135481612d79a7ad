package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/urlcluster/internal/cli/output"
	"github.com/leapstack-labs/urlcluster/internal/state"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded builds",
		Long:  `List recent builds from the state database, newest first, or show one run in detail.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c := NewCommandContext(cmd)

			store, err := c.OpenState(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if len(args) == 1 {
				run, err := store.GetRun(ctx, args[0])
				if err != nil {
					return err
				}
				return printRun(c.Renderer, run)
			}

			runs, err := store.ListRuns(ctx, limit)
			if err != nil {
				return err
			}
			return printRuns(c.Renderer, runs)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show (0 for all)")
	return cmd
}

func printRuns(r *output.Renderer, runs []*state.Run) error {
	if r.EffectiveMode() == output.ModeJSON {
		if runs == nil {
			runs = []*state.Run{}
		}
		return r.JSON(runs)
	}
	if len(runs) == 0 {
		r.Println(r.Muted("No runs recorded."))
		return nil
	}

	rows := make([][]any, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []any{
			run.ID, run.StartedAt.Local().Format(time.DateTime), string(run.Status),
			run.Mode, run.Destination, run.Rows, run.URLs, run.Duration().Round(time.Millisecond),
		})
	}
	r.Table([]string{"Run", "Started", "Status", "Mode", "Destination", "Rows", "URLs", "Duration"}, rows)
	return nil
}

func printRun(r *output.Renderer, run *state.Run) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(run)
	}
	r.Header(1, "Run "+run.ID)
	r.KeyValue("Status", run.Status)
	r.KeyValue("Mode", run.Mode)
	r.KeyValue("Engine", run.Engine)
	r.KeyValue("Source", run.Source)
	r.KeyValue("Destination", run.Destination)
	r.KeyValue("Started", run.StartedAt.Local().Format(time.RFC3339))
	if run.CompletedAt != nil {
		r.KeyValue("Duration", run.Duration().Round(time.Millisecond))
		r.KeyValue("Rows", run.Rows)
		r.KeyValue("Unique URLs", run.URLs)
	}
	if run.Error != "" {
		r.KeyValue("Error", run.Error)
	}
	return nil
}

package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/urlcluster/internal/classify"
	"github.com/leapstack-labs/urlcluster/internal/cli/output"
	"github.com/leapstack-labs/urlcluster/pkg/adapter"
)

// NewRenderCommand creates the render command.
func NewRenderCommand() *cobra.Command {
	var dialectName string
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Print the SQL of a pushdown build",
		Long: `Print the statements a pushdown build runs, without connecting to the engine.

The dialect defaults to the configured target type.`,
		Example: `  urlcluster render
  urlcluster render --dialect postgres > build.sql`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := NewCommandContext(cmd)
			if dialectName == "" {
				dialectName = c.Cfg.Target.Type
			}
			factory, ok := adapter.Get(dialectName)
			if !ok {
				return &adapter.UnknownAdapterError{Type: dialectName, Available: adapter.ListAdapters()}
			}

			stmts, err := classify.RenderBuild(factory(nil).Dialect(), c.Cfg.SourceTable, c.Cfg.DestinationTable)
			if err != nil {
				return err
			}

			r := c.Renderer
			switch r.EffectiveMode() {
			case output.ModeJSON:
				return r.JSON(map[string]any{"dialect": dialectName, "statements": stmts})
			case output.ModeMarkdown:
				r.Println("```sql")
				r.Println(joinStatements(stmts))
				r.Println("```")
			default:
				r.Println(joinStatements(stmts))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dialectName, "dialect", "", "SQL dialect (duckdb, postgres)")
	return cmd
}

func joinStatements(stmts []string) string {
	var b strings.Builder
	for i, s := range stmts {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "%s;", s)
	}
	return b.String()
}

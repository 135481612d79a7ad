package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/urlcluster/internal/classify"
	"github.com/leapstack-labs/urlcluster/internal/cli/output"
)

// ruleOutput is the JSON shape of a rule set.
type ruleOutput struct {
	Column  string          `json:"column"`
	Rules   []classify.Rule `json:"rules"`
	Default *string         `json:"default"`
}

// NewRulesCommand creates the rules command.
func NewRulesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the classification rules",
		Long: `List the classification rules in evaluation order.

Each column is evaluated on its own: the first rule whose substring occurs in
the URL sets the value, otherwise the default applies.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := NewCommandContext(cmd).Renderer
			sets := classify.RuleSets()

			if r.EffectiveMode() == output.ModeJSON {
				out := make([]ruleOutput, 0, len(sets))
				for _, rs := range sets {
					out = append(out, ruleOutput{Column: rs.Column, Rules: rs.Rules, Default: nullablePtr(rs.Default)})
				}
				return r.JSON(out)
			}

			for _, rs := range sets {
				r.Header(2, rs.Column)
				rows := make([][]any, 0, len(rs.Rules)+1)
				for i, rule := range rs.Rules {
					rows = append(rows, []any{i + 1, rule.Contains, rule.Value})
				}
				rows = append(rows, []any{"", "(no match)", output.Nullable(rs.Default.String, rs.Default.Valid)})
				r.Table([]string{"#", "URL contains", "Value"}, rows)
				r.Println("")
			}
			return nil
		},
	}
}

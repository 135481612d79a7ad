package commands

import (
	"database/sql"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/urlcluster/internal/classify"
	"github.com/leapstack-labs/urlcluster/internal/cli/output"
)

// classifyRow is the JSON shape of one lookup row.
type classifyRow struct {
	URL             string  `json:"url"`
	Cluster         string  `json:"url_cluster"`
	SubCluster      string  `json:"url_sub_cluster"`
	CountryLanguage *string `json:"country_language"`
	TargetKeyword   *string `json:"target_keyword"`
}

func nullablePtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

// NewClassifyCommand creates the classify command.
func NewClassifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <url>...",
		Short: "Classify URLs and print their lookup rows",
		Long: `Classify URLs with the same rules the build uses and print the lookup rows
they would produce. URLs outside dhl.com are reported and skipped.`,
		Example: `  urlcluster classify https://www.dhl.com/de-de/express/shipping/quote`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := NewCommandContext(cmd).Renderer

			var rows []classify.Row
			for _, u := range args {
				if !classify.Qualifies(sql.NullString{String: u, Valid: true}) {
					r.Warning("skipping " + u + ": not a " + classify.Domain + " URL")
					continue
				}
				rows = append(rows, classify.Classify(u).Rows()...)
			}

			if r.EffectiveMode() == output.ModeJSON {
				out := make([]classifyRow, 0, len(rows))
				for _, row := range rows {
					out = append(out, classifyRow{
						URL:             row.URL,
						Cluster:         row.Cluster,
						SubCluster:      row.SubCluster,
						CountryLanguage: nullablePtr(row.CountryLanguage),
						TargetKeyword:   nullablePtr(row.TargetKeyword),
					})
				}
				return r.JSON(out)
			}

			if len(rows) == 0 {
				return nil
			}
			table := make([][]any, 0, len(rows))
			for _, row := range rows {
				table = append(table, []any{
					row.URL, row.Cluster, row.SubCluster,
					output.Nullable(row.CountryLanguage.String, row.CountryLanguage.Valid),
					output.Nullable(row.TargetKeyword.String, row.TargetKeyword.Valid),
				})
			}
			r.Table([]string{"URL", "Cluster", "Sub-cluster", "Locale", "Keyword"}, table)
			return nil
		},
	}
}

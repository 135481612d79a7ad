package output

import "github.com/jedib0t/go-pretty/v6/table"

// Table writes rows under headers: a box table in text mode and a pipe table
// in markdown mode. Callers handle JSON themselves.
func (r *Renderer) Table(headers []string, rows [][]any) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	t.AppendHeader(header)
	for _, row := range rows {
		t.AppendRow(table.Row(row))
	}

	if r.EffectiveMode() == ModeMarkdown {
		t.RenderMarkdown()
		r.Println("")
		return
	}
	t.SetStyle(table.StyleLight)
	t.Render()
}

// Nullable renders a possibly missing value, using "NULL" when absent.
func Nullable(s string, valid bool) string {
	if !valid {
		return "NULL"
	}
	return s
}

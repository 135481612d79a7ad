package classify

import (
	"database/sql"
	"strings"
)

// SplitKeywords normalizes a comma-separated keyword list into trimmed,
// lower-cased tokens in their original order. A NULL list yields exactly one
// NULL token so that every URL keeps at least one lookup row.
func SplitKeywords(list sql.NullString) []sql.NullString {
	if !list.Valid {
		return []sql.NullString{{}}
	}
	parts := strings.Split(list.String, ",")
	out := make([]sql.NullString, 0, len(parts))
	for _, p := range parts {
		out = append(out, sql.NullString{
			String: strings.ToLower(strings.TrimSpace(p)),
			Valid:  true,
		})
	}
	return out
}

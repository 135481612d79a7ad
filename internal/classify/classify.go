package classify

import (
	"database/sql"
	"sort"
	"strings"
)

// Classification is the derived view of one distinct URL.
type Classification struct {
	URL             string
	Cluster         string
	SubCluster      string
	CountryLanguage sql.NullString
	TargetKeywords  sql.NullString
}

// Row is one row of the lookup table. A URL yields one row per keyword, or a
// single row with a NULL keyword when it has none.
type Row struct {
	URL             string
	Cluster         string
	SubCluster      string
	CountryLanguage sql.NullString
	TargetKeyword   sql.NullString
}

// Qualifies reports whether a source URL belongs in the lookup table.
func Qualifies(url sql.NullString) bool {
	return url.Valid && contains(url.String, Domain)
}

// Classify evaluates every rule set against url. It is a pure function and
// never fails: malformed URLs fall through to the defaults.
func Classify(url string) Classification {
	return Classification{
		URL:             url,
		Cluster:         ClusterRules.Match(url).String,
		SubCluster:      SubClusterRules.Match(url).String,
		CountryLanguage: ExtractLocale(url),
		TargetKeywords:  KeywordRules.Match(url),
	}
}

// Rows expands the classification into lookup rows, one per keyword.
func (c Classification) Rows() []Row {
	keywords := SplitKeywords(c.TargetKeywords)
	rows := make([]Row, 0, len(keywords))
	for _, kw := range keywords {
		rows = append(rows, Row{
			URL:             c.URL,
			Cluster:         c.Cluster,
			SubCluster:      c.SubCluster,
			CountryLanguage: c.CountryLanguage,
			TargetKeyword:   kw,
		})
	}
	return rows
}

// Build produces the full lookup table for a set of source URLs. Non-qualifying
// URLs are dropped, duplicates collapse to one classification, and the output is
// ordered by URL with keywords in rule order, so identical input always yields
// identical rows.
func Build(urls []sql.NullString) []Row {
	seen := make(map[string]struct{}, len(urls))
	distinct := make([]string, 0, len(urls))
	for _, u := range urls {
		if !Qualifies(u) {
			continue
		}
		if _, ok := seen[u.String]; ok {
			continue
		}
		seen[u.String] = struct{}{}
		distinct = append(distinct, u.String)
	}
	sort.Strings(distinct)

	var rows []Row
	for _, u := range distinct {
		rows = append(rows, Classify(u).Rows()...)
	}
	return rows
}

func contains(s, substr string) bool {
	return strings.Contains(s, substr)
}

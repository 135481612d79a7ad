package classify

import (
	"database/sql"
	"regexp"
)

// LocalePattern captures the language-country segment directly after the domain.
// It is written in the RE2/POSIX subset shared by Go, DuckDB and PostgreSQL.
const LocalePattern = `dhl\.com/([a-z]{2}-[a-z]{2})/`

var localeRe = regexp.MustCompile(LocalePattern)

// ExtractLocale returns the xx-xx locale segment of url, or NULL when the URL
// carries none. The value is not checked against any list of real locales.
func ExtractLocale(url string) sql.NullString {
	m := localeRe.FindStringSubmatch(url)
	if m == nil || m[1] == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: m[1], Valid: true}
}

package sqlstore

import (
	"strconv"
	"strings"
)

// Dialect identifies the SQL database behind a Store.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// sqlitePragmas are appended to every SQLite DSN so that each pooled
// connection enforces foreign keys.
const sqlitePragmas = "_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL&_synchronous=NORMAL"

// ParseDSN picks the dialect and returns the driver name and data source.
//
//   - postgres://... and postgresql://... use lib/pq unchanged
//   - sqlite://path and sqlite3://path strip the scheme
//   - anything else is a SQLite file path
func ParseDSN(dsn string) (Dialect, string, string) {
	lower := strings.ToLower(dsn)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return DialectPostgres, "postgres", dsn
	}

	path := dsn
	for _, scheme := range []string{"sqlite3://", "sqlite://"} {
		if strings.HasPrefix(lower, scheme) {
			path = dsn[len(scheme):]
			break
		}
	}

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return DialectSQLite, "sqlite3", path + sep + sqlitePragmas
}

// rebind converts ? placeholders to the dialect's bind syntax.
func rebind(d Dialect, query string) string {
	if d != DialectPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

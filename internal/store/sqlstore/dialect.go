package sqlstore

import (
	"errors"
	"regexp"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

const pqUniqueViolation = "23505"

var placeholderRegex = regexp.MustCompile(`\$\d+`)

// Dialect carries the SQL differences between supported databases. Queries are written
// with $n placeholders whose numbers follow argument order.
type Dialect struct {
	Name              string
	Schema            string
	bindQuestionMarks bool
	uniqueViolation   func(err error) bool
}

// Postgres is the dialect for github.com/lib/pq.
var Postgres = Dialect{
	Name: "postgres",
	Schema: `
		CREATE TABLE IF NOT EXISTS kv_store (
			key     TEXT PRIMARY KEY,
			value   BYTEA NOT NULL,
			version BIGINT NOT NULL
		)
	`,
	uniqueViolation: isPostgresUniqueViolation,
}

// SQLite is the dialect for github.com/mattn/go-sqlite3.
var SQLite = Dialect{
	Name: "sqlite3",
	Schema: `
		CREATE TABLE IF NOT EXISTS kv_store (
			key     TEXT PRIMARY KEY,
			value   BLOB NOT NULL,
			version INTEGER NOT NULL
		)
	`,
	bindQuestionMarks: true,
	uniqueViolation:   isSQLiteUniqueViolation,
}

// Bind rewrites $n placeholders for the dialect.
func (d Dialect) Bind(query string) string {
	if !d.bindQuestionMarks {
		return query
	}
	return placeholderRegex.ReplaceAllString(query, "?")
}

// IsUniqueViolation reports whether err is a primary key or unique constraint violation.
func (d Dialect) IsUniqueViolation(err error) bool {
	return d.uniqueViolation != nil && d.uniqueViolation(err)
}

func isPostgresUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return string(pqErr.Code) == pqUniqueViolation
}

func isSQLiteUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code == sqlite3.ErrConstraint
}

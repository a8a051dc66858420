// Package postgres provides the PostgreSQL dialect and binds it to the
// pgx stdlib driver (plus the pgx and lib/pq package prefixes).
package postgres

import (
	"database/sql"
	"strconv"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/leapstack-labs/sqlbind/pkg/dialect"
	"github.com/leapstack-labs/sqlbind/pkg/dialects/standard"
)

func init() {
	dialect.RegisterFor(&stdlib.Driver{}, New)
	dialect.Register("github.com/jackc/pgx", New)
	dialect.Register("github.com/lib/pq", New)
}

// Dialect is the PostgreSQL dialect.
type Dialect struct {
	standard.Dialect
}

// New creates a PostgreSQL dialect instance.
func New() dialect.Dialect {
	return &Dialect{}
}

// Name returns the dialect name.
func (d *Dialect) Name() string { return "postgres" }

// Configure is a no-op; pgx connections need no session setup here.
func (d *Dialect) Configure(_ *sql.DB) error { return nil }

// SupportsMerge reports true; Postgres supports INSERT ... ON CONFLICT.
func (d *Dialect) SupportsMerge() bool { return true }

// Placeholder returns the dollar-numbered placeholder ($1, $2, ...).
func (d *Dialect) Placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

// MergeSQL builds an ON CONFLICT upsert.
func (d *Dialect) MergeSQL(table string, columns, keys []string) (string, error) {
	return standard.UpsertSQL(d, table, columns, keys)
}

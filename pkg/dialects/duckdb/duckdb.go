// Package duckdb provides the DuckDB dialect and binds it to the
// marcboeker/go-duckdb driver.
package duckdb

import (
	"database/sql"

	"github.com/leapstack-labs/sqlbind/pkg/dialect"
	"github.com/leapstack-labs/sqlbind/pkg/dialects/standard"
	mbduckdb "github.com/marcboeker/go-duckdb"
)

func init() {
	dialect.RegisterFor(&mbduckdb.Driver{}, New)
	dialect.Register("github.com/marcboeker/go-duckdb", New)
}

// Dialect is the DuckDB dialect.
type Dialect struct {
	standard.Dialect
}

// New creates a DuckDB dialect instance.
func New() dialect.Dialect {
	return &Dialect{}
}

// Name returns the dialect name.
func (d *Dialect) Name() string { return "duckdb" }

// Configure is a no-op; DuckDB connections need no session setup here.
func (d *Dialect) Configure(_ *sql.DB) error { return nil }

// SupportsMerge reports true; DuckDB supports INSERT ... ON CONFLICT.
func (d *Dialect) SupportsMerge() bool { return true }

// MergeSQL builds an ON CONFLICT upsert.
func (d *Dialect) MergeSQL(table string, columns, keys []string) (string, error) {
	return standard.UpsertSQL(d, table, columns, keys)
}

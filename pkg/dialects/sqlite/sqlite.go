// Package sqlite provides the SQLite dialect and binds it to the pure-Go
// modernc.org/sqlite driver (plus the mattn/go-sqlite3 package prefix, so
// CGO builds resolve to the same dialect without importing the driver).
package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/leapstack-labs/sqlbind/pkg/dialect"
	"github.com/leapstack-labs/sqlbind/pkg/dialects/standard"
	modsqlite "modernc.org/sqlite"
)

func init() {
	dialect.RegisterFor(&modsqlite.Driver{}, New)
	dialect.Register("modernc.org/sqlite", New)
	dialect.Register("github.com/mattn/go-sqlite3", New)
}

// Dialect is the SQLite dialect.
type Dialect struct {
	standard.Dialect
}

// New creates a SQLite dialect instance.
func New() dialect.Dialect {
	return &Dialect{}
}

// Name returns the dialect name.
func (d *Dialect) Name() string { return "sqlite" }

// Configure enables foreign-key enforcement, which SQLite ships disabled.
func (d *Dialect) Configure(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("configure sqlite connection: %w", err)
	}
	return nil
}

// SupportsMerge reports true; SQLite supports INSERT ... ON CONFLICT.
func (d *Dialect) SupportsMerge() bool { return true }

// MergeSQL builds an ON CONFLICT upsert.
func (d *Dialect) MergeSQL(table string, columns, keys []string) (string, error) {
	return standard.UpsertSQL(d, table, columns, keys)
}

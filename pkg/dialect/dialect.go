// Package dialect provides the SQL dialect contract and the process-wide
// binding registry that maps database driver identities to dialects.
//
// This package contains the public contract only. Concrete dialect
// implementations live in pkg/dialects/*/ packages and register themselves
// in their init() functions.
package dialect

import (
	"database/sql"
	"fmt"
	"reflect"
)

// Dialect encapsulates the SQL-syntax differences between database products.
// A dialect instance is resolved once per session and never changes for the
// session's lifetime.
type Dialect interface {
	// Name returns the dialect name (e.g. "postgres", "sqlite").
	Name() string

	// Configure runs any dialect-specific setup against a freshly opened
	// connection. Called once by the session at open time.
	Configure(db *sql.DB) error

	// SupportsMerge reports whether the dialect can emit a MERGE/UPSERT
	// statement. Sessions must check this before attempting a merge.
	SupportsMerge() bool

	// Quote quotes a schema, table, or column identifier.
	Quote(identifier string) string

	// Placeholder returns the bind-parameter placeholder for the n-th
	// argument (1-based), e.g. "?" or "$1".
	Placeholder(n int) string

	// MergeSQL builds a merge (insert-or-update) statement for the given
	// table, full column list, and key column subset. Dialects that do not
	// support merge return an error.
	MergeSQL(table string, columns, keys []string) (string, error)
}

// Factory constructs a new dialect instance.
type Factory func() Dialect

// DriverIdentity returns the fully qualified type identity of a database
// driver, e.g. "github.com/jackc/pgx/v5/stdlib.Driver". Pointer types are
// dereferenced so *T and T yield the same identity.
func DriverIdentity(driver any) string {
	t := reflect.TypeOf(driver)
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

// Identity returns the identity string used to resolve a dialect for an
// open database handle.
func Identity(db *sql.DB) string {
	return DriverIdentity(db.Driver())
}

// ConfigurationError is returned when a dialect cannot be constructed or
// configured for a connection. It is fatal and never retried.
type ConfigurationError struct {
	Identity string
	Err      error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("dialect configuration failed for %q: %v", e.Identity, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

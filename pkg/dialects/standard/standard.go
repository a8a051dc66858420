// Package standard provides the universal default SQL dialect.
//
// It emits conservative ANSI SQL: double-quoted identifiers, "?"
// placeholders, and no merge support. Every other dialect embeds it and
// overrides what differs.
package standard

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqlbind/pkg/dialect"
)

func init() {
	dialect.SetDefault(New)
}

// Dialect is the universal fallback dialect.
type Dialect struct{}

// New creates a standard dialect instance.
func New() dialect.Dialect {
	return &Dialect{}
}

// Name returns the dialect name.
func (d *Dialect) Name() string { return "standard" }

// Configure is a no-op for the standard dialect.
func (d *Dialect) Configure(_ *sql.DB) error { return nil }

// SupportsMerge reports false; plain ANSI SQL has no portable upsert.
func (d *Dialect) SupportsMerge() bool { return false }

// Quote double-quotes an identifier, escaping embedded quotes.
func (d *Dialect) Quote(identifier string) string {
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}

// Placeholder returns the positional "?" placeholder.
func (d *Dialect) Placeholder(_ int) string { return "?" }

// MergeSQL always fails for the standard dialect.
func (d *Dialect) MergeSQL(table string, _, _ []string) (string, error) {
	return "", fmt.Errorf("dialect %q does not support merge (table %s)", d.Name(), table)
}

package standard

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqlbind/pkg/dialect"
)

// UpsertSQL builds an ANSI-ish "INSERT ... ON CONFLICT" upsert using the
// given dialect's quoting and placeholder style. SQLite, Postgres, and
// DuckDB all share this syntax.
func UpsertSQL(d dialect.Dialect, table string, columns, keys []string) (string, error) {
	if len(columns) == 0 {
		return "", fmt.Errorf("merge into %s: no columns", table)
	}
	if len(keys) == 0 {
		return "", fmt.Errorf("merge into %s: no key columns", table)
	}

	quoted := make([]string, len(columns))
	marks := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = d.Quote(c)
		marks[i] = d.Placeholder(i + 1)
	}

	keySet := make(map[string]bool, len(keys))
	quotedKeys := make([]string, len(keys))
	for i, k := range keys {
		keySet[k] = true
		quotedKeys[i] = d.Quote(k)
	}

	var sets []string
	for _, c := range columns {
		if keySet[c] {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = excluded.%s", d.Quote(c), d.Quote(c)))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s)",
		table, strings.Join(quoted, ", "), strings.Join(marks, ", "), strings.Join(quotedKeys, ", "))
	if len(sets) == 0 {
		b.WriteString(" DO NOTHING")
	} else {
		fmt.Fprintf(&b, " DO UPDATE SET %s", strings.Join(sets, ", "))
	}
	return b.String(), nil
}

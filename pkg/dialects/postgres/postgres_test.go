package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlbind/pkg/dialect"
)

func TestPlaceholderNumbering(t *testing.T) {
	d := &Dialect{}
	assert.Equal(t, "$1", d.Placeholder(1))
	assert.Equal(t, "$12", d.Placeholder(12))
}

func TestMergeSQLUsesDollarPlaceholders(t *testing.T) {
	d := &Dialect{}
	require.True(t, d.SupportsMerge())

	stmt, err := d.MergeSQL(`"products"`, []string{"id", "name"}, []string{"id"})
	require.NoError(t, err)
	assert.Equal(t,
		`INSERT INTO "products" ("id", "name") VALUES ($1, $2) `+
			`ON CONFLICT ("id") DO UPDATE SET "name" = excluded."name"`,
		stmt)
}

func TestDriverBindingRegistered(t *testing.T) {
	bindings := dialect.Bindings()
	assert.Contains(t, bindings, "github.com/jackc/pgx")
	assert.Contains(t, bindings, "github.com/jackc/pgx/v5/stdlib.Driver")
}

package standard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuote(t *testing.T) {
	d := &Dialect{}
	tests := []struct {
		in   string
		want string
	}{
		{"orders", `"orders"`},
		{`weird"name`, `"weird""name"`},
		{"", `""`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, d.Quote(tt.in))
	}
}

func TestMergeUnsupported(t *testing.T) {
	d := &Dialect{}
	assert.False(t, d.SupportsMerge())
	_, err := d.MergeSQL(`"orders"`, []string{"id"}, []string{"id"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not support merge")
}

func TestUpsertSQL(t *testing.T) {
	d := &Dialect{}

	t.Run("update non-key columns", func(t *testing.T) {
		stmt, err := UpsertSQL(d, `"products"`, []string{"id", "name", "price"}, []string{"id"})
		require.NoError(t, err)
		assert.Equal(t,
			`INSERT INTO "products" ("id", "name", "price") VALUES (?, ?, ?) `+
				`ON CONFLICT ("id") DO UPDATE SET "name" = excluded."name", "price" = excluded."price"`,
			stmt)
	})

	t.Run("all columns are keys", func(t *testing.T) {
		stmt, err := UpsertSQL(d, `"pairs"`, []string{"a", "b"}, []string{"a", "b"})
		require.NoError(t, err)
		assert.Contains(t, stmt, "DO NOTHING")
	})

	t.Run("no key columns", func(t *testing.T) {
		_, err := UpsertSQL(d, `"t"`, []string{"a"}, nil)
		require.Error(t, err)
	})

	t.Run("no columns", func(t *testing.T) {
		_, err := UpsertSQL(d, `"t"`, nil, []string{"a"})
		require.Error(t, err)
	})
}

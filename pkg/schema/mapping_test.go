package schema

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Product struct {
	ID        int64   `sqlbind:"id,pk,autoinc"`
	Name      string  `sqlbind:"product_name"`
	UnitPrice float64 `sqlbind:"unit_price"`
	Notes     *string `sqlbind:"notes"`
	internal  int     //nolint:unused // unexported fields are skipped
}

type Order struct {
	OrderID   int64 `sqlbind:"order_id,pk"`
	LineNo    int   `sqlbind:"line_no,pk"`
	CreatedAt time.Time
	Amount    float64 `sqlbind:"amount,type=DECIMAL(10;2)"`
	Skipped   string  `sqlbind:"-"`
}

func (Order) TableName() string  { return "orders" }
func (Order) TableVersion() int  { return 2 }
func (Order) SchemaName() string { return "sales" }

// Account uses declarative configuration; the callback overrides what the
// tags say for the same fields.
type Account struct {
	ID   int64  `sqlbind:"id"`
	Name string `sqlbind:"wrong_name"`
}

func (a *Account) DefineTable(b *Builder) {
	b.Table("accounts").Version(3)
	b.PrimaryKey(&a.ID)
	b.AutoIncrement(&a.ID)
	b.ColumnName(&a.Name, "account_name")
	b.SQLType(&a.Name, "VARCHAR(64)")
}

func TestMapTypeFromTags(t *testing.T) {
	def, err := MapType(reflect.TypeOf(Product{}))
	require.NoError(t, err)

	assert.Equal(t, "product", def.TableName)
	assert.Equal(t, "", def.SchemaName)
	assert.Equal(t, 0, def.Version)
	require.Len(t, def.Fields, 4, "unexported fields are not mapped")

	id := def.Fields[0]
	assert.Equal(t, "id", id.Column)
	assert.True(t, id.PrimaryKey)
	assert.True(t, id.AutoIncrement)
	assert.False(t, id.Nullable)

	notes := def.Fields[3]
	assert.Equal(t, "notes", notes.Column)
	assert.True(t, notes.Nullable, "pointer fields default to nullable")
}

func TestMapTypeInterfaces(t *testing.T) {
	def, err := MapType(reflect.TypeOf(Order{}))
	require.NoError(t, err)

	assert.Equal(t, "orders", def.TableName)
	assert.Equal(t, "sales", def.SchemaName)
	assert.Equal(t, 2, def.Version)
	require.Len(t, def.Fields, 4, `fields tagged "-" are skipped`)
	assert.Equal(t, "created_at", def.Fields[2].Column, "untagged fields map to snake_case")
	assert.Equal(t, "DECIMAL(10;2)", def.Fields[3].SQLType)

	keys := def.PrimaryKeys()
	require.Len(t, keys, 2)
	assert.Equal(t, "order_id", keys[0].Column)
	assert.Equal(t, "line_no", keys[1].Column)
}

func TestDefinerTakesPrecedenceOverTags(t *testing.T) {
	def, err := MapType(reflect.TypeOf(Account{}))
	require.NoError(t, err)

	assert.Equal(t, "accounts", def.TableName)
	assert.Equal(t, 3, def.Version)

	id := def.Fields[0]
	assert.True(t, id.PrimaryKey)
	assert.True(t, id.AutoIncrement)

	name := def.Fields[1]
	assert.Equal(t, "account_name", name.Column, "callback overrides the tag column name")
	assert.Equal(t, "VARCHAR(64)", name.SQLType)
}

func TestMapObjectDereferencesPointers(t *testing.T) {
	var p **Product
	pp := &Product{}
	p = &pp
	def, err := MapObject(p)
	require.NoError(t, err)
	assert.Equal(t, "product", def.TableName)
}

func TestMapTypeErrors(t *testing.T) {
	tests := []struct {
		name  string
		model any
	}{
		{"non-struct", 42},
		{"nil", nil},
		{"no mappable fields", struct{ hidden int }{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MapObject(tt.model)
			assert.Error(t, err)
		})
	}
}

type badTag struct {
	ID int64 `sqlbind:"id,bogus"`
}

func TestMapTypeUnknownTagOption(t *testing.T) {
	_, err := MapType(reflect.TypeOf(badTag{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus")
}

type badDefiner struct {
	ID int64
}

func (d *badDefiner) DefineTable(b *Builder) {
	other := struct{ X int64 }{}
	b.PrimaryKey(&other.X) // not a field of the instance being defined
}

func TestBuilderRejectsForeignPointer(t *testing.T) {
	_, err := MapType(reflect.TypeOf(badDefiner{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not address a mapped field")
}

func TestToSnake(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"UnitPrice", "unit_price"},
		{"OrderID", "order_id"},
		{"ID", "id"},
		{"HTTPStatus", "http_status"},
		{"Name", "name"},
		{"already", "already"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, toSnake(tt.in))
		})
	}
}

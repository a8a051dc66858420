// Package schema compiles model types into table definitions.
//
// A definition is built once per session and model type, either from
// `sqlbind` struct tags or from a model's declarative DefineTable callback
// (the callback wins when a model has both). Definitions are immutable after
// construction.
package schema

import (
	"reflect"
	"sync"
)

// Field describes how one struct field maps to a column.
type Field struct {
	Name          string // struct field name
	Column        string
	Index         int // field index within the struct
	Offset        uintptr
	Type          reflect.Type
	PrimaryKey    bool
	AutoIncrement bool
	Nullable      bool
	SQLType       string // explicit column type override, "" = derived
}

// TableDefinition is the compiled mapping metadata for one model type.
// Version 0 means the table does not use version tracking.
type TableDefinition struct {
	Type       reflect.Type
	SchemaName string
	TableName  string
	Version    int
	Fields     []Field

	// ensureOnce guards lazy table creation, once per definition.
	ensureOnce sync.Once
	ensureErr  error
}

// EnsureOnce runs fn at most once for this definition, caching its error.
// The session uses it to create the model's table on first use.
func (td *TableDefinition) EnsureOnce(fn func() error) error {
	td.ensureOnce.Do(func() {
		td.ensureErr = fn()
	})
	return td.ensureErr
}

// PrimaryKeys returns the primary-key fields in declaration order.
func (td *TableDefinition) PrimaryKeys() []Field {
	var keys []Field
	for _, f := range td.Fields {
		if f.PrimaryKey {
			keys = append(keys, f)
		}
	}
	return keys
}

// FieldByOffset returns the field at the given byte offset within the
// struct, used to resolve field pointers handed to the Builder.
func (td *TableDefinition) FieldByOffset(offset uintptr) (*Field, bool) {
	for i := range td.Fields {
		if td.Fields[i].Offset == offset {
			return &td.Fields[i], true
		}
	}
	return nil, false
}

// Optional interfaces a model type may implement to refine its mapping.
// All are probed on a zero instance of the model at definition time.
type (
	// TableNamer overrides the derived table name.
	TableNamer interface {
		TableName() string
	}

	// SchemaNamer places the table in a named schema.
	SchemaNamer interface {
		SchemaName() string
	}

	// Versioned declares the model's table version for upgrade tracking.
	Versioned interface {
		TableVersion() int
	}

	// Definer configures the mapping declaratively. When a model implements
	// Definer, the callback takes precedence over struct tags.
	Definer interface {
		DefineTable(b *Builder)
	}
)

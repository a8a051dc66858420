package schema

import (
	"fmt"
	"reflect"
)

// Builder is handed to a model's DefineTable callback. Column methods take a
// pointer to a field of the instance being mapped, so the configuration is
// checked by the compiler rather than written as column-name strings:
//
//	func (p *Product) DefineTable(b *schema.Builder) {
//		b.Table("products").Version(2)
//		b.PrimaryKey(&p.ID)
//		b.AutoIncrement(&p.ID)
//		b.ColumnName(&p.UnitPrice, "price")
//	}
type Builder struct {
	def  *TableDefinition
	base uintptr
	err  error
}

func newBuilder(def *TableDefinition, instance any) *Builder {
	return &Builder{def: def, base: reflect.ValueOf(instance).Pointer()}
}

// Schema sets the schema name.
func (b *Builder) Schema(name string) *Builder {
	b.def.SchemaName = name
	return b
}

// Table sets the table name.
func (b *Builder) Table(name string) *Builder {
	b.def.TableName = name
	return b
}

// Version declares the table version for upgrade tracking.
func (b *Builder) Version(v int) *Builder {
	b.def.Version = v
	return b
}

// PrimaryKey marks the given fields as the primary key.
func (b *Builder) PrimaryKey(fieldPtrs ...any) *Builder {
	for _, p := range fieldPtrs {
		if f := b.field(p); f != nil {
			f.PrimaryKey = true
		}
	}
	return b
}

// AutoIncrement marks a field as database-generated.
func (b *Builder) AutoIncrement(fieldPtr any) *Builder {
	if f := b.field(fieldPtr); f != nil {
		f.AutoIncrement = true
	}
	return b
}

// Nullable marks a field as nullable.
func (b *Builder) Nullable(fieldPtr any) *Builder {
	if f := b.field(fieldPtr); f != nil {
		f.Nullable = true
	}
	return b
}

// ColumnName overrides the column name for a field.
func (b *Builder) ColumnName(fieldPtr any, name string) *Builder {
	if f := b.field(fieldPtr); f != nil {
		f.Column = name
	}
	return b
}

// SQLType overrides the column type for a field.
func (b *Builder) SQLType(fieldPtr any, sqlType string) *Builder {
	if f := b.field(fieldPtr); f != nil {
		f.SQLType = sqlType
	}
	return b
}

// Err returns the first field-resolution failure, if any.
func (b *Builder) Err() error {
	return b.err
}

func (b *Builder) field(fieldPtr any) *Field {
	rv := reflect.ValueOf(fieldPtr)
	if !rv.IsValid() || rv.Kind() != reflect.Pointer || rv.IsNil() {
		b.fail(fmt.Errorf("builder expects a pointer to a field of the instance being defined, got %T", fieldPtr))
		return nil
	}
	offset := rv.Pointer() - b.base
	f, ok := b.def.FieldByOffset(offset)
	if !ok {
		b.fail(fmt.Errorf("pointer %T does not address a mapped field of %s", fieldPtr, b.def.Type.Name()))
		return nil
	}
	return f
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

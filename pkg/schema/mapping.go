package schema

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"
)

// TagKey is the struct tag consulted for column mapping.
const TagKey = "sqlbind"

// MapObject compiles a definition from a model instance, dereferencing
// pointers to reach the struct type.
func MapObject(model any) (*TableDefinition, error) {
	return MapType(ModelType(model))
}

// ModelType normalizes a model value to its underlying struct type.
func ModelType(model any) reflect.Type {
	t := reflect.TypeOf(model)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// MapType compiles the table definition for a model struct type: fields and
// flags from `sqlbind` tags, names and version from the optional interfaces,
// then a DefineTable pass when the model is a Definer.
func MapType(t reflect.Type) (*TableDefinition, error) {
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("model must be a struct type, got %v", t)
	}

	td := &TableDefinition{
		Type:      t,
		TableName: toSnake(t.Name()),
	}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		f, skip, err := parseField(sf, i)
		if err != nil {
			return nil, fmt.Errorf("map %s.%s: %w", t.Name(), sf.Name, err)
		}
		if skip {
			continue
		}
		td.Fields = append(td.Fields, f)
	}
	if len(td.Fields) == 0 {
		return nil, fmt.Errorf("model %s has no mappable fields", t.Name())
	}

	// Probe the optional interfaces on a zero instance. The same instance
	// receives the DefineTable callback so its field addresses line up with
	// the builder's offset resolution.
	inst := reflect.New(t).Interface()
	if n, ok := inst.(TableNamer); ok {
		td.TableName = n.TableName()
	}
	if n, ok := inst.(SchemaNamer); ok {
		td.SchemaName = n.SchemaName()
	}
	if v, ok := inst.(Versioned); ok {
		td.Version = v.TableVersion()
	}
	if d, ok := inst.(Definer); ok {
		b := newBuilder(td, inst)
		d.DefineTable(b)
		if b.err != nil {
			return nil, fmt.Errorf("define table %s: %w", td.TableName, b.err)
		}
	}
	return td, nil
}

func parseField(sf reflect.StructField, index int) (Field, bool, error) {
	f := Field{
		Name:     sf.Name,
		Column:   toSnake(sf.Name),
		Index:    index,
		Offset:   sf.Offset,
		Type:     sf.Type,
		Nullable: sf.Type.Kind() == reflect.Pointer,
	}
	tag, ok := sf.Tag.Lookup(TagKey)
	if !ok {
		return f, false, nil
	}
	if tag == "-" {
		return f, true, nil
	}
	for i, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		switch {
		case part == "":
		case i == 0 && !strings.Contains(part, "="):
			f.Column = part
		case part == "pk":
			f.PrimaryKey = true
		case part == "autoinc":
			f.AutoIncrement = true
		case part == "nullable":
			f.Nullable = true
		case strings.HasPrefix(part, "type="):
			f.SQLType = strings.TrimPrefix(part, "type=")
		default:
			return f, false, fmt.Errorf("unknown tag option %q", part)
		}
	}
	return f, false, nil
}

// toSnake converts CamelCase names to snake_case, keeping acronym runs
// together (UnitPrice -> unit_price, OrderID -> order_id).
func toSnake(name string) string {
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			prevLower := i > 0 && unicode.IsLower(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if i > 0 && (prevLower || nextLower) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

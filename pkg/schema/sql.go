package schema

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/leapstack-labs/sqlbind/pkg/dialect"
)

// SQL emission consumed by the session facade. The session guarantees the
// definition is upgrade-checked before any of these run; this file is plain
// translation from the compiled mapping to statements.

// QualifiedName returns the quoted, optionally schema-qualified table name.
func (td *TableDefinition) QualifiedName(d dialect.Dialect) string {
	if td.SchemaName != "" {
		return d.Quote(td.SchemaName) + "." + d.Quote(td.TableName)
	}
	return d.Quote(td.TableName)
}

// writableFields returns the fields included in INSERT/MERGE statements,
// excluding database-generated columns.
func (td *TableDefinition) writableFields() []Field {
	fields := make([]Field, 0, len(td.Fields))
	for _, f := range td.Fields {
		if f.AutoIncrement {
			continue
		}
		fields = append(fields, f)
	}
	return fields
}

// InsertSQL builds an INSERT statement and returns the fields supplying its
// arguments, in placeholder order.
func (td *TableDefinition) InsertSQL(d dialect.Dialect) (string, []Field) {
	fields := td.writableFields()
	cols := make([]string, len(fields))
	marks := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = d.Quote(f.Column)
		marks[i] = d.Placeholder(i + 1)
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		td.QualifiedName(d), strings.Join(cols, ", "), strings.Join(marks, ", "))
	return stmt, fields
}

// UpdateSQL builds an UPDATE ... WHERE <primary key> statement. Argument
// order is the SET fields followed by the key fields.
func (td *TableDefinition) UpdateSQL(d dialect.Dialect) (string, []Field, error) {
	keys := td.PrimaryKeys()
	if len(keys) == 0 {
		return "", nil, fmt.Errorf("update %s: no primary key defined", td.TableName)
	}
	var sets []string
	var args []Field
	n := 0
	for _, f := range td.Fields {
		if f.PrimaryKey {
			continue
		}
		n++
		sets = append(sets, fmt.Sprintf("%s = %s", d.Quote(f.Column), d.Placeholder(n)))
		args = append(args, f)
	}
	if len(sets) == 0 {
		return "", nil, fmt.Errorf("update %s: every column is part of the primary key", td.TableName)
	}
	where := make([]string, len(keys))
	for i, k := range keys {
		n++
		where[i] = fmt.Sprintf("%s = %s", d.Quote(k.Column), d.Placeholder(n))
		args = append(args, k)
	}
	stmt := fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		td.QualifiedName(d), strings.Join(sets, ", "), strings.Join(where, " AND "))
	return stmt, args, nil
}

// DeleteSQL builds a DELETE ... WHERE <primary key> statement.
func (td *TableDefinition) DeleteSQL(d dialect.Dialect) (string, []Field, error) {
	keys := td.PrimaryKeys()
	if len(keys) == 0 {
		return "", nil, fmt.Errorf("delete from %s: no primary key defined", td.TableName)
	}
	where := make([]string, len(keys))
	for i, k := range keys {
		where[i] = fmt.Sprintf("%s = %s", d.Quote(k.Column), d.Placeholder(i+1))
	}
	stmt := fmt.Sprintf("DELETE FROM %s WHERE %s", td.QualifiedName(d), strings.Join(where, " AND "))
	return stmt, keys, nil
}

// MergeSQL builds the dialect's insert-or-update statement keyed on the
// primary key. The session checks SupportsMerge before calling this.
func (td *TableDefinition) MergeSQL(d dialect.Dialect) (string, []Field, error) {
	keys := td.PrimaryKeys()
	if len(keys) == 0 {
		return "", nil, fmt.Errorf("merge into %s: no primary key defined", td.TableName)
	}
	fields := td.writableFields()
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Column
	}
	keyCols := make([]string, len(keys))
	for i, k := range keys {
		keyCols[i] = k.Column
	}
	stmt, err := d.MergeSQL(td.QualifiedName(d), cols, keyCols)
	if err != nil {
		return "", nil, err
	}
	return stmt, fields, nil
}

// SelectSQL builds a SELECT of every mapped column, in field order, matching
// what ScanRow expects.
func (td *TableDefinition) SelectSQL(d dialect.Dialect) string {
	cols := make([]string, len(td.Fields))
	for i, f := range td.Fields {
		cols[i] = d.Quote(f.Column)
	}
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(cols, ", "), td.QualifiedName(d))
}

// CreateTableSQL builds a CREATE TABLE IF NOT EXISTS statement.
func (td *TableDefinition) CreateTableSQL(d dialect.Dialect) string {
	keys := td.PrimaryKeys()
	singleKey := len(keys) == 1

	defs := make([]string, 0, len(td.Fields)+1)
	for _, f := range td.Fields {
		col := d.Quote(f.Column) + " " + f.columnType()
		if f.PrimaryKey && singleKey {
			col += " PRIMARY KEY"
		} else if !f.Nullable {
			col += " NOT NULL"
		}
		defs = append(defs, col)
	}
	if len(keys) > 1 {
		cols := make([]string, len(keys))
		for i, k := range keys {
			cols[i] = d.Quote(k.Column)
		}
		defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(cols, ", ")))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", td.QualifiedName(d), strings.Join(defs, ", "))
}

// FieldValues extracts the given fields' values from a model instance, in
// order, for use as statement arguments.
func (td *TableDefinition) FieldValues(instance any, fields []Field) ([]any, error) {
	rv, err := td.structValue(instance)
	if err != nil {
		return nil, err
	}
	args := make([]any, len(fields))
	for i, f := range fields {
		args[i] = rv.Field(f.Index).Interface()
	}
	return args, nil
}

// Scanner is the single-row scanning surface of *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// ScanRow hydrates one row into a model instance, column order matching
// SelectSQL.
func (td *TableDefinition) ScanRow(instance any, row Scanner) error {
	rv := reflect.ValueOf(instance)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Type() != td.Type {
		return fmt.Errorf("scan into %s: need non-nil *%s, got %T", td.TableName, td.Type.Name(), instance)
	}
	elem := rv.Elem()
	dest := make([]any, len(td.Fields))
	for i, f := range td.Fields {
		dest[i] = elem.Field(f.Index).Addr().Interface()
	}
	return row.Scan(dest...)
}

func (td *TableDefinition) structValue(instance any) (reflect.Value, error) {
	rv := reflect.ValueOf(instance)
	if !rv.IsValid() {
		return reflect.Value{}, fmt.Errorf("%s: nil model instance", td.TableName)
	}
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return reflect.Value{}, fmt.Errorf("%s: nil model instance", td.TableName)
		}
		rv = rv.Elem()
	}
	if rv.Type() != td.Type {
		return reflect.Value{}, fmt.Errorf("%s: instance type %s does not match definition type %s",
			td.TableName, rv.Type(), td.Type)
	}
	return rv, nil
}

var timeType = reflect.TypeOf(time.Time{})

// columnType derives the column type, honoring an explicit tag override.
func (f Field) columnType() string {
	if f.SQLType != "" {
		return f.SQLType
	}
	t := f.Type
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch {
	case t == timeType:
		return "TIMESTAMP"
	case t.Kind() == reflect.Bool:
		return "BOOLEAN"
	case t.Kind() >= reflect.Int && t.Kind() <= reflect.Uint64:
		return "INTEGER"
	case t.Kind() == reflect.Float32 || t.Kind() == reflect.Float64:
		return "REAL"
	case t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8:
		return "BLOB"
	default:
		return "TEXT"
	}
}

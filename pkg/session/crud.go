package session

import (
	"database/sql"
	"errors"
	"fmt"
	"reflect"

	"github.com/leapstack-labs/sqlbind/pkg/schema"
)

// CRUD entry points. Each ensures the model's definition is compiled,
// upgrade-checked, and its table present, then delegates to the emission in
// pkg/schema. The algorithmic weight lives in define.go and upgrade.go;
// everything here is plain translation.

// UnsupportedError is returned when an operation is requested against a
// dialect that cannot express it. It is raised before any statement is
// prepared.
type UnsupportedError struct {
	Op      string
	Dialect string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s is not supported by the %s dialect", e.Op, e.Dialect)
}

// Insert inserts one model instance.
func (s *Session) Insert(model any) error {
	_, err := s.exec(model, buildInsert)
	return err
}

// InsertAndGetKey inserts one model instance and returns the generated key.
func (s *Session) InsertAndGetKey(model any) (int64, error) {
	def, err := s.ready(model)
	if err != nil {
		return 0, err
	}
	stmt, fields := def.InsertSQL(s.dialect)
	args, err := def.FieldValues(model, fields)
	if err != nil {
		return 0, err
	}
	res, err := s.db.Exec(stmt, args...)
	if err != nil {
		return 0, &IOError{Op: "insert into " + def.TableName, Err: err}
	}
	key, err := res.LastInsertId()
	if err != nil {
		return 0, &IOError{Op: "insert into " + def.TableName + ": generated key", Err: err}
	}
	return key, nil
}

// Update updates one model instance by primary key.
func (s *Session) Update(model any) error {
	_, err := s.exec(model, func(def *schema.TableDefinition, s *Session) (string, []schema.Field, error) {
		return def.UpdateSQL(s.dialect)
	})
	return err
}

// Delete deletes one model instance by primary key.
func (s *Session) Delete(model any) error {
	_, err := s.exec(model, func(def *schema.TableDefinition, s *Session) (string, []schema.Field, error) {
		return def.DeleteSQL(s.dialect)
	})
	return err
}

// Merge inserts the model if no row with its primary key exists, otherwise
// updates it. Dialect support is checked before anything else so the
// failure surfaces before any definition or statement work.
func (s *Session) Merge(model any) error {
	if !s.dialect.SupportsMerge() {
		return &UnsupportedError{Op: "merge", Dialect: s.dialect.Name()}
	}
	_, err := s.exec(model, func(def *schema.TableDefinition, s *Session) (string, []schema.Field, error) {
		return def.MergeSQL(s.dialect)
	})
	return err
}

// InsertAll inserts every model in the list.
func (s *Session) InsertAll(models []any) error {
	for _, m := range models {
		if err := s.Insert(m); err != nil {
			return err
		}
	}
	return nil
}

// InsertAllAndGetKeys inserts every model and returns the generated keys.
func (s *Session) InsertAllAndGetKeys(models []any) ([]int64, error) {
	keys := make([]int64, 0, len(models))
	for _, m := range models {
		key, err := s.InsertAndGetKey(m)
		if err != nil {
			return keys, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// UpdateAll updates every model in the list.
func (s *Session) UpdateAll(models []any) error {
	for _, m := range models {
		if err := s.Update(m); err != nil {
			return err
		}
	}
	return nil
}

// DeleteAll deletes every model in the list.
func (s *Session) DeleteAll(models []any) error {
	for _, m := range models {
		if err := s.Delete(m); err != nil {
			return err
		}
	}
	return nil
}

// Select hydrates every row of the model's table into dest, a pointer to a
// slice of models (values or pointers).
func (s *Session) Select(dest any) error {
	def, err := s.defineDest(dest)
	if err != nil {
		return err
	}
	if err := s.ensureTable(def); err != nil {
		return err
	}
	rows, err := s.db.Query(def.SelectSQL(s.dialect))
	if err != nil {
		return &IOError{Op: "select from " + def.TableName, Err: err}
	}
	defer rows.Close()
	return s.buildObjects(def, dest, rows)
}

// SelectFirst hydrates the first row of the model's table into model, or
// returns sql.ErrNoRows when the table is empty.
func (s *Session) SelectFirst(model any) error {
	def, err := s.ready(model)
	if err != nil {
		return err
	}
	row := s.db.QueryRow(def.SelectSQL(s.dialect))
	if err := def.ScanRow(model, row); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return err
		}
		return &IOError{Op: "select from " + def.TableName, Err: err}
	}
	return nil
}

type stmtBuilder func(*schema.TableDefinition, *Session) (string, []schema.Field, error)

func buildInsert(def *schema.TableDefinition, s *Session) (string, []schema.Field, error) {
	stmt, fields := def.InsertSQL(s.dialect)
	return stmt, fields, nil
}

func (s *Session) exec(model any, build stmtBuilder) (int64, error) {
	def, err := s.ready(model)
	if err != nil {
		return 0, err
	}
	stmt, fields, err := build(def, s)
	if err != nil {
		return 0, err
	}
	args, err := def.FieldValues(model, fields)
	if err != nil {
		return 0, err
	}
	res, err := s.db.Exec(stmt, args...)
	if err != nil {
		return 0, &IOError{Op: def.TableName, Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, &IOError{Op: def.TableName + ": rows affected", Err: err}
	}
	return n, nil
}

// buildObjects appends one hydrated model per row to dest.
func (s *Session) buildObjects(def *schema.TableDefinition, dest any, rows *sql.Rows) error {
	slice := reflect.ValueOf(dest).Elem()
	elemType := slice.Type().Elem()
	pointerElems := elemType.Kind() == reflect.Pointer

	for rows.Next() {
		item := reflect.New(def.Type)
		if err := def.ScanRow(item.Interface(), rows); err != nil {
			return &IOError{Op: "scan row from " + def.TableName, Err: err}
		}
		if pointerElems {
			slice.Set(reflect.Append(slice, item))
		} else {
			slice.Set(reflect.Append(slice, item.Elem()))
		}
	}
	if err := rows.Err(); err != nil {
		return &IOError{Op: "iterate rows from " + def.TableName, Err: err}
	}
	return nil
}

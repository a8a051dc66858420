package session

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/leapstack-labs/sqlbind/pkg/schema"
)

// VersionRecord is the persisted row tracking the applied version for one
// upgrade key. The pair ("", "") is reserved for the whole-database marker;
// records are created on first registration and never deleted.
type VersionRecord struct {
	Schema  string `sqlbind:"schema_name,pk"`
	Table   string `sqlbind:"table_name,pk"`
	Version int    `sqlbind:"version"`
}

// TableName places version records in the library's own tracking table.
func (VersionRecord) TableName() string { return "sqlbind_versions" }

// versionRecordDef resolves the VersionRecord definition for this session.
// It runs while the database-level check is underway (the marked-before-run
// guard in checkDatabase keeps the recursion finite) and possibly inside a
// definition flight for another model, so it bypasses the flight group. A
// definition already compiled through the normal Define path is adopted
// rather than rebuilt; exactly one instance per type holds either way.
func (s *Session) versionRecordDef() (*schema.TableDefinition, error) {
	s.versionOnce.Do(func() {
		t := schema.ModelType(VersionRecord{})
		if cached, ok := s.defs.Load(t); ok {
			s.versionDef = cached.(*schema.TableDefinition)
			return
		}
		def, err := schema.MapType(t)
		if err != nil {
			s.versionErr = fmt.Errorf("define %s: %w", t, err)
			return
		}
		cached, _ := s.defs.LoadOrStore(t, def)
		s.versionDef = cached.(*schema.TableDefinition)
	})
	return s.versionDef, s.versionErr
}

// readVersion returns the stored version for an upgrade key, with found
// false when no record exists.
func (s *Session) readVersion(schemaName, table string) (int, bool, error) {
	vdef, err := s.versionRecordDef()
	if err != nil {
		return 0, false, err
	}
	if err := s.ensureTable(vdef); err != nil {
		return 0, false, err
	}
	d := s.dialect
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s AND %s = %s",
		d.Quote("version"), vdef.QualifiedName(d),
		d.Quote("schema_name"), d.Placeholder(1),
		d.Quote("table_name"), d.Placeholder(2))

	var version int
	err = s.db.QueryRow(query, schemaName, table).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, &IOError{Op: fmt.Sprintf("read version record (%q, %q)", schemaName, table), Err: err}
	}
	return version, true, nil
}

func (s *Session) insertVersion(schemaName, table string, version int) error {
	if err := s.Insert(&VersionRecord{Schema: schemaName, Table: table, Version: version}); err != nil {
		return fmt.Errorf("register version record (%q, %q): %w", schemaName, table, err)
	}
	return nil
}

func (s *Session) updateVersion(schemaName, table string, version int) error {
	if err := s.Update(&VersionRecord{Schema: schemaName, Table: table, Version: version}); err != nil {
		return fmt.Errorf("update version record (%q, %q): %w", schemaName, table, err)
	}
	return nil
}

// Versions lists every version record, database marker first. Used by the
// sqlbind CLI.
func (s *Session) Versions() ([]VersionRecord, error) {
	vdef, err := s.ready(&VersionRecord{})
	if err != nil {
		return nil, err
	}
	query := vdef.SelectSQL(s.dialect) + " ORDER BY " +
		s.dialect.Quote("schema_name") + ", " + s.dialect.Quote("table_name")

	var records []VersionRecord
	if err := s.QuerySQL(&records, query); err != nil {
		return nil, err
	}
	return records, nil
}

package session

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/leapstack-labs/sqlbind/pkg/schema"
)

// Upgrader performs the actual migration steps when a stored version lags
// the declared one. The session guarantees at most one invocation per key
// per session lifetime (a new session restarts the check), so hooks must be
// safe to re-invoke across sessions.
type Upgrader interface {
	// DatabaseVersion declares the whole-database target version.
	// 0 disables database-level tracking.
	DatabaseVersion() int

	// UpgradeDatabase migrates the database from fromVersion to toVersion.
	// Returning false leaves the version record unchanged; the next session
	// will attempt again.
	UpgradeDatabase(s *Session, fromVersion, toVersion int) bool

	// UpgradeTable migrates one table from fromVersion to toVersion.
	UpgradeTable(s *Session, schemaName, table string, fromVersion, toVersion int) bool
}

// DefaultUpgrader declares no database version and accepts every table
// upgrade without doing anything. It is the upgrader of a fresh session.
type DefaultUpgrader struct{}

func (DefaultUpgrader) DatabaseVersion() int { return 0 }

func (DefaultUpgrader) UpgradeDatabase(_ *Session, _, _ int) bool { return true }

func (DefaultUpgrader) UpgradeTable(_ *Session, _, _ string, _, _ int) bool { return true }

// ErrNilUpgrader is returned by SetUpgrader(nil).
var ErrNilUpgrader = errors.New("upgrader must not be nil")

// UpgradeError reports that an upgrade hook declined a migration. The
// stored version is left unchanged and the check will not re-run in this
// session; a new session attempts again.
type UpgradeError struct {
	Schema string
	Table  string // "" together with Schema "" means the database marker
	From   int
	To     int
}

func (e *UpgradeError) Error() string {
	if e.Schema == "" && e.Table == "" {
		return fmt.Sprintf("database upgrade from version %d to %d failed", e.From, e.To)
	}
	return fmt.Sprintf("table %s upgrade from version %d to %d failed", e.qualified(), e.From, e.To)
}

func (e *UpgradeError) qualified() string {
	if e.Schema == "" {
		return e.Table
	}
	return e.Schema + "." + e.Table
}

// SetUpgrader replaces the active upgrade hook and clears the checked set,
// so every key is re-evaluated against the new hook on next use.
func (s *Session) SetUpgrader(u Upgrader) error {
	if u == nil {
		return ErrNilUpgrader
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upgrader = u
	s.checked = make(map[any]struct{})
	s.blocked = make(map[reflect.Type]*UpgradeError)
	s.dbBlocked = nil
	return nil
}

// databaseKey is the checked-set sentinel for the database-level check.
type databaseKey struct{}

// checkDatabase runs the database-level upgrade check at most once per
// session lifetime. The guard is marked before the check body runs: the
// body defines and queries the version-tracking model through this same
// session, and that nested define must see the check as already underway.
func (s *Session) checkDatabase() error {
	s.mu.Lock()
	if _, done := s.checked[databaseKey{}]; done {
		blocked := s.dbBlocked
		s.mu.Unlock()
		if blocked != nil {
			s.logger.Warn("operating on database whose upgrade previously failed",
				"session", s.id, "from", blocked.From, "to", blocked.To)
		}
		return nil
	}
	s.checked[databaseKey{}] = struct{}{}
	upgrader := s.upgrader
	s.mu.Unlock()

	declared := upgrader.DatabaseVersion()
	if declared <= 0 {
		return nil
	}
	err := s.applyUpgrade("", "", declared, func(from int) bool {
		return upgrader.UpgradeDatabase(s, from, declared)
	})
	var ue *UpgradeError
	if errors.As(err, &ue) {
		s.mu.Lock()
		s.dbBlocked = ue
		s.mu.Unlock()
	}
	return err
}

// checkTable runs the table-level upgrade check for a definition declaring
// a nonzero version, at most once per model type per session lifetime.
func (s *Session) checkTable(t reflect.Type, def *schema.TableDefinition) error {
	s.mu.Lock()
	if _, done := s.checked[t]; done {
		s.mu.Unlock()
		return nil
	}
	s.checked[t] = struct{}{}
	upgrader := s.upgrader
	s.mu.Unlock()

	err := s.applyUpgrade(def.SchemaName, def.TableName, def.Version, func(from int) bool {
		return upgrader.UpgradeTable(s, def.SchemaName, def.TableName, from, def.Version)
	})
	var ue *UpgradeError
	if errors.As(err, &ue) {
		s.mu.Lock()
		s.blocked[t] = ue
		s.mu.Unlock()
	}
	return err
}

// applyUpgrade compares the persisted version for a key against the
// declared target and transitions accordingly: no record inserts the
// declared version without invoking the hook, a lagging record invokes the
// hook and persists the new version only on success, an up-to-date record
// is a no-op. Versions never decrease.
func (s *Session) applyUpgrade(schemaName, table string, declared int, run func(from int) bool) error {
	stored, found, err := s.readVersion(schemaName, table)
	if err != nil {
		return err
	}
	switch {
	case !found:
		if err := s.insertVersion(schemaName, table, declared); err != nil {
			return err
		}
		s.logger.Info("version record registered",
			"session", s.id, "schema", schemaName, "table", table, "version", declared)
		return nil
	case stored >= declared:
		return nil
	default:
		if !run(stored) {
			s.logger.Warn("upgrade hook failed",
				"session", s.id, "schema", schemaName, "table", table, "from", stored, "to", declared)
			return &UpgradeError{Schema: schemaName, Table: table, From: stored, To: declared}
		}
		if err := s.updateVersion(schemaName, table, declared); err != nil {
			return err
		}
		s.logger.Info("upgrade applied",
			"session", s.id, "schema", schemaName, "table", table, "from", stored, "to", declared)
		return nil
	}
}

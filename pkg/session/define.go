package session

import (
	"fmt"
	"reflect"

	"github.com/leapstack-labs/sqlbind/pkg/schema"
)

// Define returns the table definition for a model's type, compiling it on
// first use for this session.
//
// On a miss the protocol is: run the database-level upgrade check, compile
// the definition, cache it, then run the table-level check if the model
// declares a version. Concurrent calls for one type share a single build
// and a single upgrade check; calls for distinct types do not contend.
func (s *Session) Define(model any) (*schema.TableDefinition, error) {
	t := schema.ModelType(model)
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("define: model must be a struct or pointer to struct, got %T", model)
	}
	return s.defineType(t)
}

func (s *Session) defineType(t reflect.Type) (*schema.TableDefinition, error) {
	if cached, ok := s.defs.Load(t); ok {
		def := cached.(*schema.TableDefinition)
		// Normally a no-op behind the checked guard; after SetUpgrader the
		// guard is clear and the key is re-evaluated against the new hook.
		if err := s.recheck(t, def); err != nil {
			return nil, err
		}
		s.warnIfBlocked(t, def)
		return def, nil
	}

	v, err, _ := s.defineGroup.Do(typeKey(t), func() (any, error) {
		// Re-check under the flight: a concurrent caller may have stored
		// the definition between our Load and Do.
		if cached, ok := s.defs.Load(t); ok {
			return cached.(*schema.TableDefinition), nil
		}
		return s.buildDefinition(t)
	})
	if err != nil {
		return nil, err
	}
	return v.(*schema.TableDefinition), nil
}

// buildDefinition implements the cache-miss protocol. The database-level
// check runs before any definition is compiled so schema-wide upgrades are
// applied before any table is touched; the check itself defines the version
// tracking model, which re-enters defineType on a different key.
func (s *Session) buildDefinition(t reflect.Type) (any, error) {
	if err := s.checkDatabase(); err != nil {
		return nil, err
	}

	// The database-level check compiles the version-tracking model itself;
	// when t is that model the definition already exists.
	if cached, ok := s.defs.Load(t); ok {
		return cached.(*schema.TableDefinition), nil
	}

	def, err := schema.MapType(t)
	if err != nil {
		return nil, fmt.Errorf("define %s: %w", t, err)
	}
	s.defs.Store(t, def)
	s.logger.Debug("table definition compiled",
		"session", s.id, "model", t.String(), "table", def.TableName, "version", def.Version)

	if def.Version > 0 {
		if err := s.checkTable(t, def); err != nil {
			// The definition stays cached; the triggering caller gets the
			// blocking error, later callers proceed with a warning.
			return nil, err
		}
	}
	return def, nil
}

func (s *Session) recheck(t reflect.Type, def *schema.TableDefinition) error {
	if err := s.checkDatabase(); err != nil {
		return err
	}
	if def.Version > 0 {
		return s.checkTable(t, def)
	}
	return nil
}

// ready defines the model and lazily creates its table, the path every CRUD
// entry point goes through.
func (s *Session) ready(model any) (*schema.TableDefinition, error) {
	def, err := s.Define(model)
	if err != nil {
		return nil, err
	}
	if err := s.ensureTable(def); err != nil {
		return nil, err
	}
	return def, nil
}

// ensureTable creates the definition's table if it does not exist yet,
// once per definition.
func (s *Session) ensureTable(def *schema.TableDefinition) error {
	return def.EnsureOnce(func() error {
		stmt := def.CreateTableSQL(s.dialect)
		if _, err := s.db.Exec(stmt); err != nil {
			return &IOError{Op: "create table " + def.TableName, Err: err}
		}
		return nil
	})
}

// defineDest resolves the model type behind a *[]T or *[]*T destination.
func (s *Session) defineDest(dest any) (*schema.TableDefinition, error) {
	t := reflect.TypeOf(dest)
	if t == nil || t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Slice {
		return nil, fmt.Errorf("destination must be a pointer to a slice of models, got %T", dest)
	}
	elem := t.Elem().Elem()
	for elem.Kind() == reflect.Pointer {
		elem = elem.Elem()
	}
	if elem.Kind() != reflect.Struct {
		return nil, fmt.Errorf("destination element must be a struct, got %s", elem)
	}
	return s.defineType(elem)
}

func (s *Session) warnIfBlocked(t reflect.Type, def *schema.TableDefinition) {
	s.mu.Lock()
	blocked := s.blocked[t]
	s.mu.Unlock()
	if blocked != nil {
		s.logger.Warn("using table definition whose upgrade previously failed",
			"session", s.id, "table", def.TableName,
			"from", blocked.From, "to", blocked.To)
	}
}

func typeKey(t reflect.Type) string {
	// Anonymous struct types all have an empty name; their String form
	// carries the field list and stays distinct per type.
	if t.Name() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

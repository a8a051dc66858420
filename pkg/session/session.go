// Package session provides the connection-owning facade of sqlbind.
//
// A Session owns exactly one database handle and one dialect, resolved once
// from the driver's identity at open time. Every data operation first
// ensures the model's table definition is compiled, cached, and
// upgrade-checked, then delegates to the SQL emission in pkg/schema.
package session

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/leapstack-labs/sqlbind/pkg/capture"
	"github.com/leapstack-labs/sqlbind/pkg/dialect"
	"github.com/leapstack-labs/sqlbind/pkg/schema"

	// The universal fallback dialect must always be installed.
	_ "github.com/leapstack-labs/sqlbind/pkg/dialects/standard"
)

// IOError wraps a failure surfaced by the underlying database/sql layer.
// Every driver, connection, and statement error propagates as this kind;
// Unwrap exposes the driver error for errors.Is/As checks.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Session is a connection to a database. It is the sole owner of the
// underlying handle; Close closes it.
type Session struct {
	id      string
	db      *sql.DB
	dialect dialect.Dialect
	logger  *slog.Logger

	// Definition cache: one *schema.TableDefinition per model type for the
	// session's lifetime. The singleflight group serializes concurrent
	// builds of the same type without blocking builds of other types.
	defs        sync.Map // reflect.Type -> *schema.TableDefinition
	defineGroup singleflight.Group

	mu        sync.Mutex
	upgrader  Upgrader
	checked   map[any]struct{}
	blocked   map[reflect.Type]*UpgradeError
	dbBlocked *UpgradeError

	// The version-tracking model is compiled outside the singleflight
	// group: the database-level check needs it while a flight for another
	// model (or for VersionRecord itself) is in progress.
	versionOnce sync.Once
	versionDef  *schema.TableDefinition
	versionErr  error
}

// Option configures a session at open time.
type Option func(*Session)

// WithLogger sets the session logger. Nil (the default) discards logs.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithUpgrader installs the upgrade hook before the first operation runs.
func WithUpgrader(u Upgrader) Option {
	return func(s *Session) {
		if u != nil {
			s.upgrader = u
		}
	}
}

// New wraps an already opened database handle. The dialect is resolved from
// the handle's driver identity and configured immediately; a dialect that
// cannot be resolved or configured is a fatal configuration error.
func New(db *sql.DB, opts ...Option) (*Session, error) {
	identity := dialect.Identity(db)
	d, err := dialect.Resolve(identity)
	if err != nil {
		return nil, &dialect.ConfigurationError{Identity: identity, Err: err}
	}
	if err := d.Configure(db); err != nil {
		return nil, &dialect.ConfigurationError{Identity: identity, Err: err}
	}

	s := &Session{
		id:       uuid.New().String(),
		db:       db,
		dialect:  d,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		upgrader: DefaultUpgrader{},
		checked:  make(map[any]struct{}),
		blocked:  make(map[reflect.Type]*UpgradeError),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger.Debug("session opened",
		"session", s.id, "dialect", d.Name(), "driver", identity)
	return s, nil
}

// Open opens a new database handle for the driver and DSN and wraps it in a
// session.
func Open(driverName, dsn string, opts ...Option) (*Session, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, &IOError{Op: "open " + driverName + " database", Err: err}
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, &IOError{Op: "ping " + driverName + " database", Err: err}
	}
	s, err := New(db, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// ID returns the session's identifier, used in log correlation.
func (s *Session) ID() string { return s.id }

// Dialect returns the dialect resolved for this session. It never changes
// for the session's lifetime.
func (s *Session) Dialect() dialect.Dialect { return s.dialect }

// DB exposes the underlying handle for operations outside this facade.
func (s *Session) DB() *sql.DB { return s.db }

// Close closes the session and its connection.
func (s *Session) Close() error {
	s.logger.Debug("session closed", "session", s.id)
	if err := s.db.Close(); err != nil {
		return &IOError{Op: "close session", Err: err}
	}
	return nil
}

// LookupToken returns the capture token for a value produced by an
// expression helper, or false if the value is a plain literal. See
// capture.Capture for the registration side.
func (s *Session) LookupToken(x any) (capture.Token, bool) {
	return capture.Lookup(x)
}

// ExecSQL runs a SQL statement directly against the database and returns
// the affected row count.
func (s *Session) ExecSQL(query string, args ...any) (int64, error) {
	res, err := s.db.Exec(query, args...)
	if err != nil {
		return 0, &IOError{Op: fmt.Sprintf("exec %q", query), Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, &IOError{Op: fmt.Sprintf("exec %q: rows affected", query), Err: err}
	}
	return n, nil
}

// QuerySQL runs a SQL query directly against the database and hydrates the
// rows into dest, which must be a pointer to a slice of models (values or
// pointers). Column order must match the model's field order.
func (s *Session) QuerySQL(dest any, query string, args ...any) error {
	def, err := s.defineDest(dest)
	if err != nil {
		return err
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return &IOError{Op: fmt.Sprintf("query %q", query), Err: err}
	}
	defer rows.Close()
	return s.buildObjects(def, dest, rows)
}

package session_test

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/sqlbind/pkg/session"
)

type call struct {
	schema string
	table  string
	from   int
	to     int
}

// recordingUpgrader counts hook invocations and succeeds or fails on demand.
type recordingUpgrader struct {
	dbVersion int
	succeed   bool

	mu         sync.Mutex
	dbCalls    []call
	tableCalls []call
}

func (u *recordingUpgrader) DatabaseVersion() int { return u.dbVersion }

func (u *recordingUpgrader) UpgradeDatabase(_ *session.Session, from, to int) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.dbCalls = append(u.dbCalls, call{from: from, to: to})
	return u.succeed
}

func (u *recordingUpgrader) UpgradeTable(_ *session.Session, schemaName, table string, from, to int) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.tableCalls = append(u.tableCalls, call{schema: schemaName, table: table, from: from, to: to})
	return u.succeed
}

func (u *recordingUpgrader) calls() (db, table []call) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]call(nil), u.dbCalls...), append([]call(nil), u.tableCalls...)
}

func findRecord(t *testing.T, s *session.Session, schemaName, table string) (session.VersionRecord, bool) {
	t.Helper()
	records, err := s.Versions()
	require.NoError(t, err)
	for _, r := range records {
		if r.Schema == schemaName && r.Table == table {
			return r, true
		}
	}
	return session.VersionRecord{}, false
}

// Scenario A: declared database version, no record yet: the record is
// registered at the declared version and the hook is never invoked.
func TestDatabaseBootstrapRegistersVersion(t *testing.T) {
	u := &recordingUpgrader{dbVersion: 3, succeed: true}
	s := openMem(t, session.WithUpgrader(u))

	_, err := s.Define(&Item{})
	require.NoError(t, err)

	rec, found := findRecord(t, s, "", "")
	require.True(t, found)
	assert.Equal(t, 3, rec.Version)

	db, table := u.calls()
	assert.Empty(t, db, "nothing to upgrade from on first registration")
	assert.Empty(t, table)
}

// Scenario B: stored 1, declared 3, hook succeeds: record moves to 3 and
// the hook ran exactly once with (1, 3).
func TestDatabaseUpgradeApplied(t *testing.T) {
	path := filepath.Join(t.TempDir(), "upgrade.db")

	s1 := openFile(t, path, session.WithUpgrader(&recordingUpgrader{dbVersion: 1, succeed: true}))
	_, err := s1.Define(&Item{})
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	u := &recordingUpgrader{dbVersion: 3, succeed: true}
	s2 := openFile(t, path, session.WithUpgrader(u))
	_, err = s2.Define(&Item{})
	require.NoError(t, err)

	rec, found := findRecord(t, s2, "", "")
	require.True(t, found)
	assert.Equal(t, 3, rec.Version)

	db, _ := u.calls()
	require.Len(t, db, 1)
	assert.Equal(t, call{from: 1, to: 3}, db[0])
}

// Scenario C: hook fails: the record is untouched, the same session never
// re-invokes the hook, and a fresh session attempts again.
func TestDatabaseUpgradeFailureRetriesNextSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "failing.db")

	s1 := openFile(t, path, session.WithUpgrader(&recordingUpgrader{dbVersion: 1, succeed: true}))
	_, err := s1.Define(&Item{})
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	u := &recordingUpgrader{dbVersion: 3, succeed: false}
	s2 := openFile(t, path, session.WithUpgrader(u))

	_, err = s2.Define(&Item{})
	var ue *session.UpgradeError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, 1, ue.From)
	assert.Equal(t, 3, ue.To)

	rec, found := findRecord(t, s2, "", "")
	require.True(t, found)
	assert.Equal(t, 1, rec.Version, "failed upgrade leaves the stored version unchanged")

	// Guard already set: the second define in this session proceeds
	// without re-invoking the hook.
	_, err = s2.Define(&Item{})
	require.NoError(t, err)
	db, _ := u.calls()
	assert.Len(t, db, 1)
	require.NoError(t, s2.Close())

	u3 := &recordingUpgrader{dbVersion: 3, succeed: true}
	s3 := openFile(t, path, session.WithUpgrader(u3))
	_, err = s3.Define(&Item{})
	require.NoError(t, err)
	db3, _ := u3.calls()
	assert.Len(t, db3, 1, "a new session re-attempts the upgrade")

	rec, found = findRecord(t, s3, "", "")
	require.True(t, found)
	assert.Equal(t, 3, rec.Version)
}

// Scenario D: a model declaring version 0 never touches version tracking.
func TestUnversionedTableHasNoRecord(t *testing.T) {
	s := openMem(t)

	require.NoError(t, s.Insert(&Order{ID: 1, Status: "new"}))

	_, found := findRecord(t, s, "", "orders")
	assert.False(t, found)
}

func TestTableBootstrapRegistersVersion(t *testing.T) {
	u := &recordingUpgrader{succeed: true}
	s := openMem(t, session.WithUpgrader(u))

	require.NoError(t, s.Insert(&InventoryV1{SKU: "a-1", Count: 5}))

	rec, found := findRecord(t, s, "", "inventory")
	require.True(t, found)
	assert.Equal(t, 1, rec.Version)

	_, table := u.calls()
	assert.Empty(t, table)
}

func TestTableUpgradeApplied(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.db")

	s1 := openFile(t, path, session.WithUpgrader(&recordingUpgrader{succeed: true}))
	require.NoError(t, s1.Insert(&InventoryV1{SKU: "a-1", Count: 5}))
	require.NoError(t, s1.Close())

	u := &recordingUpgrader{succeed: true}
	s2 := openFile(t, path, session.WithUpgrader(u))
	_, err := s2.Define(&InventoryV2{})
	require.NoError(t, err)

	rec, found := findRecord(t, s2, "", "inventory")
	require.True(t, found)
	assert.Equal(t, 2, rec.Version)

	_, table := u.calls()
	require.Len(t, table, 1)
	assert.Equal(t, call{table: "inventory", from: 1, to: 2}, table[0])
}

func TestConcurrentDefineRunsUpgradeOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "concurrent.db")

	s1 := openFile(t, path, session.WithUpgrader(&recordingUpgrader{succeed: true}))
	require.NoError(t, s1.Insert(&InventoryV1{SKU: "a-1", Count: 5}))
	require.NoError(t, s1.Close())

	u := &recordingUpgrader{succeed: true}
	s2 := openFile(t, path, session.WithUpgrader(u))

	var g errgroup.Group
	for i := 0; i < 16; i++ {
		g.Go(func() error {
			_, err := s2.Define(&InventoryV2{})
			return err
		})
	}
	require.NoError(t, g.Wait())

	_, table := u.calls()
	assert.Len(t, table, 1, "concurrent defines share one upgrade check")
}

// Versions never decrease: a failed attempt followed by a successful one
// only ever moves the record forward.
func TestVersionMonotonicity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "monotonic.db")

	s1 := openFile(t, path, session.WithUpgrader(&recordingUpgrader{succeed: true}))
	require.NoError(t, s1.Insert(&InventoryV1{SKU: "a-1", Count: 5}))
	require.NoError(t, s1.Close())

	failing := &recordingUpgrader{succeed: false}
	s2 := openFile(t, path, session.WithUpgrader(failing))
	_, err := s2.Define(&InventoryV2{})
	var ue *session.UpgradeError
	require.ErrorAs(t, err, &ue)

	rec, found := findRecord(t, s2, "", "inventory")
	require.True(t, found)
	assert.Equal(t, 1, rec.Version)

	// Replacing the hook clears the checked set; the same session then
	// re-evaluates and applies the upgrade.
	ok := &recordingUpgrader{succeed: true}
	require.NoError(t, s2.SetUpgrader(ok))
	_, err = s2.Define(&InventoryV2{})
	require.NoError(t, err)

	rec, found = findRecord(t, s2, "", "inventory")
	require.True(t, found)
	assert.Equal(t, 2, rec.Version)

	// A session opened against the already-current database is a no-op.
	stale := &recordingUpgrader{succeed: true}
	require.NoError(t, s2.Close())
	s3 := openFile(t, path, session.WithUpgrader(stale))
	_, err = s3.Define(&InventoryV2{})
	require.NoError(t, err)
	_, table := stale.calls()
	assert.Empty(t, table)

	rec, found = findRecord(t, s3, "", "inventory")
	require.True(t, found)
	assert.Equal(t, 2, rec.Version)
}

// Defining the version-tracking model before an upgrader is installed must
// not leave the session with two definition instances for it: the database
// check that runs later adopts the cached definition instead of rebuilding.
func TestVersionRecordDefinitionStableAcrossUpgraderChange(t *testing.T) {
	s := openMem(t)

	first, err := s.Define(&session.VersionRecord{})
	require.NoError(t, err)

	require.NoError(t, s.SetUpgrader(&recordingUpgrader{dbVersion: 1, succeed: true}))
	_, err = s.Define(&Item{})
	require.NoError(t, err)

	second, err := s.Define(&session.VersionRecord{})
	require.NoError(t, err)
	assert.Same(t, first, second)

	rec, found := findRecord(t, s, "", "")
	require.True(t, found)
	assert.Equal(t, 1, rec.Version)
}

func TestSetUpgraderNil(t *testing.T) {
	s := openMem(t)
	assert.ErrorIs(t, s.SetUpgrader(nil), session.ErrNilUpgrader)
}

func TestDefaultUpgraderIsInert(t *testing.T) {
	s := openMem(t)
	_, err := s.Define(&Item{})
	require.NoError(t, err)

	records, err := s.Versions()
	require.NoError(t, err)
	assert.Empty(t, records, "no declared versions, no records")
}

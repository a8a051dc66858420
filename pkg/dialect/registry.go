package dialect

import (
	"errors"
	"sort"
	"strings"
	"sync"
)

// Binding registry
var (
	bindingsMu     sync.RWMutex
	bindings       = make(map[string]Factory)
	defaultFactory Factory
)

// ErrNoDefaultDialect is returned when resolution falls through every
// registered binding and no universal default has been installed.
var ErrNoDefaultDialect = errors.New("no default dialect registered")

// Register binds a dialect factory to a driver identity or identity prefix.
// Registering a prefix (e.g. "github.com/jackc/pgx") covers every driver
// under that package. Later registrations overwrite earlier ones; sessions
// that already resolved a dialect are unaffected.
func Register(identity string, factory Factory) {
	bindingsMu.Lock()
	defer bindingsMu.Unlock()
	bindings[identity] = factory
}

// RegisterFor binds a dialect factory to the identity of a concrete driver
// value, e.g. RegisterFor(&stdlib.Driver{}, New).
func RegisterFor(driver any, factory Factory) {
	Register(DriverIdentity(driver), factory)
}

// SetDefault installs the universal fallback dialect used when no binding
// matches. Called by the standard dialect's init().
func SetDefault(factory Factory) {
	bindingsMu.Lock()
	defer bindingsMu.Unlock()
	defaultFactory = factory
}

// Bindings returns all registered identities and prefixes (sorted).
func Bindings() []string {
	bindingsMu.RLock()
	defer bindingsMu.RUnlock()
	ids := make([]string, 0, len(bindings))
	for id := range bindings {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Resolve returns a new dialect instance for a driver identity.
//
// Lookup is exact-match first, then the identity is truncated one segment
// at a time from the most specific component toward the root, so a binding
// for an exact driver type beats a binding for its package, and a package
// binding beats the default. Segments are delimited by '.' or '/' since Go
// driver identities are slash-delimited package paths with a dotted type
// name. If nothing matches, the universal default is returned.
func Resolve(identity string) (Dialect, error) {
	bindingsMu.RLock()
	defer bindingsMu.RUnlock()

	for probe := identity; probe != ""; {
		if factory, ok := bindings[probe]; ok {
			return factory(), nil
		}
		cut := strings.LastIndexAny(probe, "./")
		if cut < 0 {
			break
		}
		probe = probe[:cut]
	}
	if defaultFactory == nil {
		return nil, ErrNoDefaultDialect
	}
	return defaultFactory(), nil
}

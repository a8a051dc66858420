// Package capture provides the process-wide token registry that associates
// values produced by query-expression helpers with a descriptor of the
// expression that produced them.
//
// The query-building API lets callers write expressions with ordinary field
// values of an alias model instance. There is no way to intercept "which
// expression produced this value" after the fact, so helpers register the
// runtime identity of each produced value here at the moment the expression
// is evaluated. The query builder later looks the value up; a miss means the
// value is a plain literal, which is a normal outcome, not an error.
//
// Associations are keyed by pointer identity, not equality, and hold the
// captured value weakly: an entry never keeps its value alive, and once the
// value is collected the entry is removed by a runtime cleanup.
package capture

import (
	"reflect"
	"runtime"
	"sync"
	"unsafe"
	"weak"
)

type entry struct {
	token Token
	// alive returns the captured value's address while it is still
	// reachable, 0 once it has been collected. Guards against a recycled
	// allocation address resolving to a stale token.
	alive func() uintptr
}

var (
	tokensMu sync.RWMutex
	tokens   = make(map[uintptr]entry)
)

// Capture records that the value at x originated from tok and returns x
// unchanged so it can be used transparently inside an expression. Safe for
// concurrent use across sessions.
//
// Collection of the association tracks the allocation x points into. The
// expression helpers allocate their result cells so each is collected on
// its own; a pointer into a larger object (a model field, a shared block)
// stays registered for as long as that object lives.
func Capture[T any](x *T, tok Token) *T {
	if x == nil {
		return x
	}
	wp := weak.Make(x)
	key := uintptr(unsafe.Pointer(x))

	tokensMu.Lock()
	tokens[key] = entry{
		token: tok,
		alive: func() uintptr {
			if p := wp.Value(); p != nil {
				return uintptr(unsafe.Pointer(p))
			}
			return 0
		},
	}
	tokensMu.Unlock()

	runtime.AddCleanup(x, expire, key)
	return x
}

// Lookup returns the token previously captured for this exact value
// identity. The second result is false if the value was never captured, is
// not a pointer, or the association was collected.
func Lookup(x any) (Token, bool) {
	rv := reflect.ValueOf(x)
	if !rv.IsValid() || rv.Kind() != reflect.Pointer || rv.IsNil() {
		return nil, false
	}
	key := rv.Pointer()

	tokensMu.RLock()
	e, ok := tokens[key]
	tokensMu.RUnlock()
	if !ok || e.alive() != key {
		return nil, false
	}
	return e.token, true
}

// expire runs after a captured value is collected. The slot may meanwhile
// hold a capture for a new value at the recycled address, so only dead
// entries are dropped.
func expire(key uintptr) {
	tokensMu.Lock()
	defer tokensMu.Unlock()
	if e, ok := tokens[key]; ok && e.alive() == 0 {
		delete(tokens, key)
	}
}

// size reports the live entry count. Test hook.
func size() int {
	tokensMu.RLock()
	defer tokensMu.RUnlock()
	return len(tokens)
}

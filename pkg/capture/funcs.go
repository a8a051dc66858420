package capture

// Number covers the field types aggregate helpers accept.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// cell backs a helper's result value. The pointer field makes the
// allocation scannable, which keeps it out of the runtime's tiny allocator:
// tiny blocks are shared between objects, so a co-resident allocation could
// pin the value and its registry entry indefinitely. A scannable cell is
// collected on its own, so the cleanup registered by Capture runs as soon
// as the caller drops the result.
type cell[T any] struct {
	value T
	_     *cell[T]
}

func newCell[T any]() *T {
	return &new(cell[T]).value
}

// Expression helpers. Each allocates a fresh result cell, captures the
// function token against its identity, and returns the cell for use inside
// a query expression, e.g.
//
//	q.Select(capture.Sum(&p.UnitPrice))

// Count captures COUNT(x).
func Count(x any) *int64 {
	return Capture(newCell[int64](), FuncToken{Op: "COUNT", Args: []any{x}})
}

// Sum captures SUM(x).
func Sum[T Number](x *T) *T {
	return Capture(newCell[T](), FuncToken{Op: "SUM", Args: []any{x}})
}

// Avg captures AVG(x).
func Avg[T Number](x *T) *float64 {
	return Capture(newCell[float64](), FuncToken{Op: "AVG", Args: []any{x}})
}

// Min captures MIN(x).
func Min[T any](x *T) *T {
	return Capture(newCell[T](), FuncToken{Op: "MIN", Args: []any{x}})
}

// Max captures MAX(x).
func Max[T any](x *T) *T {
	return Capture(newCell[T](), FuncToken{Op: "MAX", Args: []any{x}})
}

// Length captures LENGTH(x).
func Length(x *string) *int64 {
	return Capture(newCell[int64](), FuncToken{Op: "LENGTH", Args: []any{x}})
}

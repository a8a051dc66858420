package capture

import (
	"fmt"
	"strings"
)

// Token describes the expression that produced a captured value. Tokens are
// opaque to this package; the query builder interprets them when emitting
// SQL.
type Token interface {
	fmt.Stringer
}

// FuncToken is a SQL function application, e.g. SUM(p.UnitPrice). Args hold
// the operand values as captured, so nested expressions and column
// references resolve through further Lookup calls.
type FuncToken struct {
	Op   string
	Args []any
}

func (t FuncToken) String() string {
	args := make([]string, len(t.Args))
	for i, a := range t.Args {
		if tok, ok := Lookup(a); ok {
			args[i] = tok.String()
		} else {
			args[i] = fmt.Sprintf("%v", a)
		}
	}
	return fmt.Sprintf("%s(%s)", t.Op, strings.Join(args, ", "))
}

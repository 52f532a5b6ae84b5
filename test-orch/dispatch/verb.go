package dispatch

import (
	"fmt"
	"strings"
)

// Verb represents intrinsic verbosity level v0..v3.
type Verb int

const (
	V0 Verb = 0 // critical/summary, command echo
	V1 Verb = 1 // default lifecycle
	V2 Verb = 2 // verbose
	V3 Verb = 3 // very verbose / trace
)

// ClampVerb maps any integer onto the v0..v3 ladder.
func ClampVerb(lvl int) Verb {
	if lvl < 0 {
		return V0
	}
	if lvl > 3 {
		return V3
	}
	return Verb(lvl)
}

// Allowed reports whether a message at level lvl is printed when selected is active.
func Allowed(selected, lvl Verb) bool { return lvl <= selected }

// Prefix builds a canonical prefix string: "[vN][SCOPE]".
// Scope may be "" (omitted) to yield "[vN]".
func Prefix(lvl Verb, scope string) string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "[v%d]", int(lvl))
	if scope != "" {
		fmt.Fprintf(b, "[%s]", strings.Trim(scope, "[]"))
	}
	return b.String()
}

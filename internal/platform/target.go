// Package platform evaluates conditional namespace clauses against the target
// the markup is compiled for.
package platform

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"markc/internal/markup"
)

// ErrUnknownCondition is returned for clause functions Eval does not know.
var ErrUnknownCondition = errors.New("unknown platform condition")

// Target describes the platform the markup is compiled for.
type Target struct {
	Name string
	// Contracts maps an API contract name to the highest version available.
	// Names match either in full or by their last dotted component.
	Contracts map[string]int
	// Types lists the full names of types present on the target.
	Types map[string]bool
}

// Windows returns a target with no optional contracts or types.
func Windows() Target {
	return Target{Name: "windows"}
}

func (t Target) contractVersion(name string) (int, bool) {
	if v, ok := t.Contracts[name]; ok {
		return v, true
	}
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		v, ok := t.Contracts[name[i+1:]]
		return v, ok
	}
	return 0, false
}

// Eval evaluates one clause.
func (t Target) Eval(c markup.Clause) (bool, error) {
	switch c.Func {
	case "IsApiContractPresent", "IsApiContractNotPresent":
		if len(c.Args) == 0 {
			return false, fmt.Errorf("%s: missing contract name", c.Func)
		}
		want := 1
		if len(c.Args) > 1 {
			n, err := strconv.Atoi(c.Args[1])
			if err != nil {
				return false, fmt.Errorf("%s: bad version %q: %w", c.Func, c.Args[1], err)
			}
			want = n
		}
		have, ok := t.contractVersion(c.Args[0])
		present := ok && have >= want
		return present == (c.Func == "IsApiContractPresent"), nil
	case "IsTypePresent", "IsTypeNotPresent":
		if len(c.Args) == 0 {
			return false, fmt.Errorf("%s: missing type name", c.Func)
		}
		present := t.Types[c.Args[0]]
		return present == (c.Func == "IsTypePresent"), nil
	}
	return false, fmt.Errorf("%w: %s", ErrUnknownCondition, c.Func)
}

// DisabledClauses returns the clauses of a conditional URI that do not hold.
// Malformed clauses are left to CheckConditional and hold here.
func (t Target) DisabledClauses(uri string) []markup.Clause {
	_, clauses := markup.SplitConditional(uri)
	var out []markup.Clause
	for _, c := range clauses {
		if ok, err := t.Eval(c); err == nil && !ok {
			out = append(out, c)
		}
	}
	return out
}

// Enabled reports whether every clause of uri holds.
func (t Target) Enabled(uri string) bool {
	return len(t.DisabledClauses(uri)) == 0
}

// ElementDisabled reports whether el lives in a disabled namespace.
func (t Target) ElementDisabled(el *markup.Element) bool {
	return el.Conditional != "" && !t.Enabled(el.Conditional)
}

// AttrDisabled reports whether a lives in a disabled namespace.
func (t Target) AttrDisabled(a *markup.Attribute) bool {
	return a.Conditional != "" && !t.Enabled(a.Conditional)
}

package symsolve

import (
	"fmt"
	"strings"
)

// RootStatus records how a root was checked against the equation.
type RootStatus int

const (
	// RootVerified: no radical was squared away, or substituting the
	// root simplifies the equation to exactly zero.
	RootVerified RootStatus = iota
	// RootNumeric: the root satisfies the equation numerically, either
	// because it is a closed number or at the solver's branch point.
	RootNumeric
	// RootUnverified: the root solves the squared equation but could
	// not be checked against the original one.
	RootUnverified
)

func (s RootStatus) String() string {
	switch s {
	case RootVerified:
		return "verified"
	case RootNumeric:
		return "numeric"
	case RootUnverified:
		return "unverified"
	}
	return fmt.Sprintf("RootStatus(%d)", int(s))
}

// MarshalText lets reports and JSON carry the status by name.
func (s RootStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

type Root struct {
	Value  Expr
	Status RootStatus
}

// SolutionSet is the ordered result of Solve. The order is stable: the
// root 0 first, then rational roots ascending, then the roots of the
// closed-form formulas in formula order.
type SolutionSet struct {
	Symbol *Sym
	Roots  []Root
	// Discarded holds candidates rejected as extraneous or as poles.
	Discarded []Expr
	// Squared is set when radicals in the unknown were squared away.
	Squared bool
}

func (ss *SolutionSet) Len() int { return len(ss.Roots) }

// Exprs returns the root values.
func (ss *SolutionSet) Exprs() []Expr {
	out := make([]Expr, len(ss.Roots))
	for i, r := range ss.Roots {
		out[i] = r.Value
	}
	return out
}

// Select returns the roots accepted by pred, in order.
func (ss *SolutionSet) Select(pred func(Expr) bool) []Expr {
	var out []Expr
	for _, r := range ss.Roots {
		if pred(r.Value) {
			out = append(out, r.Value)
		}
	}
	return out
}

// Unique returns the single root accepted by pred and fails when none
// or several are.
func (ss *SolutionSet) Unique(pred func(Expr) bool) (Expr, error) {
	sel := ss.Select(pred)
	switch len(sel) {
	case 1:
		return sel[0], nil
	case 0:
		return nil, fmt.Errorf("symsolve: no root of %s satisfies the criterion", ss.Symbol.name)
	}
	return nil, fmt.Errorf("symsolve: %d roots of %s satisfy the criterion", len(sel), ss.Symbol.name)
}

// Contains reports whether some root is structurally equal to e after
// simplification.
func (ss *SolutionSet) Contains(e Expr) bool {
	want := Simplify(e)
	for _, r := range ss.Roots {
		if r.Value.Equal(want) {
			return true
		}
	}
	return false
}

func (ss *SolutionSet) String() string {
	parts := make([]string, len(ss.Roots))
	for i, r := range ss.Roots {
		parts[i] = r.Value.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

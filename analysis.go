package symsolve

import (
	"sort"
)

// ============================================================
// Structural queries
// ============================================================

// FreeSymbols returns the names of the symbols occurring in e.
func FreeSymbols(e Expr) map[string]struct{} {
	out := map[string]struct{}{}
	collectSymbols(e, out)
	return out
}

// SortedSymbols returns the free symbol names of e in sorted order.
func SortedSymbols(e Expr) []string {
	set := FreeSymbols(e)
	out := make([]string, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func collectSymbols(e Expr, out map[string]struct{}) {
	switch v := e.(type) {
	case *Sym:
		out[v.name] = struct{}{}
	case *Add:
		for _, t := range v.terms {
			collectSymbols(t, out)
		}
	case *Mul:
		for _, f := range v.factors {
			collectSymbols(f, out)
		}
	case *Pow:
		collectSymbols(v.base, out)
		collectSymbols(v.exp, out)
	case *Func:
		collectSymbols(v.arg, out)
	}
}

// FreeOf reports whether the symbol varName does not occur in e.
func FreeOf(e Expr, varName string) bool {
	switch v := e.(type) {
	case *Sym:
		return v.name != varName
	case *Add:
		for _, t := range v.terms {
			if !FreeOf(t, varName) {
				return false
			}
		}
	case *Mul:
		for _, f := range v.factors {
			if !FreeOf(f, varName) {
				return false
			}
		}
	case *Pow:
		return FreeOf(v.base, varName) && FreeOf(v.exp, varName)
	case *Func:
		return FreeOf(v.arg, varName)
	}
	return true
}

func containsUndefined(e Expr) bool {
	switch v := e.(type) {
	case *Undefined:
		return true
	case *Add:
		for _, t := range v.terms {
			if containsUndefined(t) {
				return true
			}
		}
	case *Mul:
		for _, f := range v.factors {
			if containsUndefined(f) {
				return true
			}
		}
	case *Pow:
		return containsUndefined(v.base) || containsUndefined(v.exp)
	case *Func:
		return containsUndefined(v.arg)
	}
	return false
}

// Sub replaces varName by value throughout expr.
func Sub(expr Expr, varName string, value Expr) Expr { return expr.Sub(varName, value) }

// Diff returns d(expr)/d(varName).
func Diff(expr Expr, varName string) Expr { return expr.Diff(varName) }

// DiffN returns the n-th derivative.
func DiffN(expr Expr, varName string, n int) Expr {
	for i := 0; i < n; i++ {
		expr = expr.Diff(varName)
	}
	return expr
}

// Degree returns the degree of the expanded expr as a polynomial in
// varName, or -1 when it is not a polynomial in varName.
func Degree(expr Expr, varName string) int {
	coeffs, ok := PolyCoeffs(expr, varName)
	if !ok {
		return -1
	}
	d := 0
	for k := range coeffs {
		if k > d {
			d = k
		}
	}
	return d
}

// PolyCoeffsResult maps a power of the variable to its coefficient.
type PolyCoeffsResult map[int]Expr

// PolyCoeffs collects the expanded expr by powers of varName. It
// reports false when expr is not a polynomial in varName.
func PolyCoeffs(expr Expr, varName string) (PolyCoeffsResult, bool) {
	out := PolyCoeffsResult{}
	buckets := map[int][]Expr{}
	for _, t := range termsOf(expand(expr)) {
		deg, coeff, ok := splitMonomial(t, varName)
		if !ok {
			return nil, false
		}
		buckets[deg] = append(buckets[deg], coeff)
	}
	for d, cs := range buckets {
		if c := AddOf(cs...); !isZero(c) {
			out[d] = c
		}
	}
	return out, true
}

// splitMonomial splits a term into deg and coeff with term = coeff*x^deg.
func splitMonomial(t Expr, x string) (int, Expr, bool) {
	deg := 0
	var rest []Expr
	for _, f := range factorsOf(t) {
		if FreeOf(f, x) {
			rest = append(rest, f)
			continue
		}
		b, e := baseExp(f)
		s, ok := b.(*Sym)
		n, isNum := e.(*Num)
		if !ok || s.name != x || !isNum || !n.IsInteger() || n.IsNegative() || !n.val.Num().IsInt64() {
			return 0, nil, false
		}
		deg += int(n.val.Num().Int64())
	}
	return deg, MulOf(rest...), true
}

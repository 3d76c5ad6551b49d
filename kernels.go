package symsolve

import (
	"math/big"
	"sort"

	"github.com/njchilds90/symsolve/internal/poly"
)

// ============================================================
// Kernels: the bridge between expanded expressions and poly
// ============================================================

// A kernel is a polynomial variable. Each base b gets one kernel
// standing for b^(1/unit), where unit is the lcm of the denominators of
// every rational exponent b carries. Powers with symbolic exponents are
// kernels as a whole.
type kernelSet struct {
	bases []Expr
	units []int64
	index map[string]int
}

// kernelOf returns the base of a factor and its exponent as a rational,
// or the factor itself with exponent 1 when the exponent is symbolic.
func kernelOf(f Expr) (Expr, *big.Rat) {
	b, e := baseExp(f)
	if n, ok := e.(*Num); ok {
		return b, n.val
	}
	return f, big.NewRat(1, 1)
}

func newKernelSet(exprs ...Expr) *kernelSet {
	units := map[string]int64{}
	bases := map[string]Expr{}
	for _, e := range exprs {
		for _, t := range termsOf(e) {
			for _, f := range factorsOf(t) {
				if _, ok := f.(*Num); ok {
					continue
				}
				b, r := kernelOf(f)
				k := b.key()
				d := r.Denom().Int64()
				if u, ok := units[k]; ok {
					units[k] = lcm64(u, d)
				} else {
					units[k] = d
					bases[k] = b
				}
			}
		}
	}
	keys := make([]string, 0, len(bases))
	for k := range bases {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ks := &kernelSet{index: map[string]int{}}
	for i, k := range keys {
		ks.bases = append(ks.bases, bases[k])
		ks.units = append(ks.units, units[k])
		ks.index[k] = i
	}
	return ks
}

func (ks *kernelSet) size() int { return len(ks.bases) }

// lookup returns the index of the kernel with base b.
func (ks *kernelSet) lookup(b Expr) (int, bool) {
	i, ok := ks.index[b.key()]
	return i, ok
}

// toPoly converts an expanded expression. It fails when a kernel power
// is negative or fractional in kernel units.
func (ks *kernelSet) toPoly(e Expr) (*poly.Poly, bool) {
	n := ks.size()
	var terms []poly.Term
	for _, t := range termsOf(e) {
		exp := make([]int, n)
		coef := big.NewRat(1, 1)
		for _, f := range factorsOf(t) {
			if c, ok := f.(*Num); ok {
				coef.Mul(coef, c.val)
				continue
			}
			b, r := kernelOf(f)
			i, ok := ks.lookup(b)
			if !ok {
				return nil, false
			}
			scaled := new(big.Rat).Mul(r, big.NewRat(ks.units[i], 1))
			if !scaled.IsInt() || scaled.Sign() < 0 || !scaled.Num().IsInt64() {
				return nil, false
			}
			exp[i] += int(scaled.Num().Int64())
		}
		terms = append(terms, poly.Term{Exp: exp, Coef: coef})
	}
	return poly.FromTerms(n, terms), true
}

// fromPoly converts back and expands, so that kernel powers reaching a
// whole power of a sum are multiplied out again.
func (ks *kernelSet) fromPoly(p *poly.Poly) Expr {
	terms := make([]Expr, 0, len(p.Terms()))
	for _, t := range p.Terms() {
		factors := []Expr{NRat(t.Coef)}
		for i, e := range t.Exp {
			if e == 0 {
				continue
			}
			factors = append(factors, ks.power(i, int64(e)))
		}
		terms = append(terms, MulOf(factors...))
	}
	return expand(AddOf(terms...))
}

// power returns kernel i raised to e kernel units.
func (ks *kernelSet) power(i int, e int64) Expr {
	return PowOf(ks.bases[i], &Num{val: big.NewRat(e, ks.units[i])})
}

// monomial builds the product of kernel powers for an exponent vector.
func (ks *kernelSet) monomial(exp []int) Expr {
	factors := make([]Expr, 0, len(exp))
	for i, e := range exp {
		if e != 0 {
			factors = append(factors, ks.power(i, int64(e)))
		}
	}
	return MulOf(factors...)
}

func termsOf(e Expr) []Expr {
	if a, ok := e.(*Add); ok {
		return a.terms
	}
	if isZero(e) {
		return nil
	}
	return []Expr{e}
}

func factorsOf(e Expr) []Expr {
	if m, ok := e.(*Mul); ok {
		return m.factors
	}
	return []Expr{e}
}

func lcm64(a, b int64) int64 {
	x, y := a, b
	for y != 0 {
		x, y = y, x%y
	}
	return a / x * b
}

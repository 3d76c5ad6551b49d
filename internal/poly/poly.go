// Package poly implements sparse multivariate polynomials with exact
// rational coefficients.
//
// Variables are referred to by index. Terms are kept in lexicographic
// order (variable 0 most significant), highest first, with no zero
// coefficients and no repeated exponent vectors.
package poly

import (
	"math/big"
	"sort"
)

// Term is a single monomial Coef * x0^Exp[0] * x1^Exp[1] * ...
type Term struct {
	Exp  []int
	Coef *big.Rat
}

// Poly is an immutable polynomial in a fixed number of variables.
type Poly struct {
	n     int
	terms []Term
}

// Zero returns the zero polynomial in n variables.
func Zero(n int) *Poly { return &Poly{n: n} }

// Const returns the constant polynomial c.
func Const(n int, c *big.Rat) *Poly {
	if c.Sign() == 0 {
		return Zero(n)
	}
	return &Poly{n: n, terms: []Term{{Exp: make([]int, n), Coef: new(big.Rat).Set(c)}}}
}

// One returns the constant polynomial 1.
func One(n int) *Poly { return Const(n, big.NewRat(1, 1)) }

// Var returns the polynomial x_i.
func Var(n, i int) *Poly {
	exp := make([]int, n)
	exp[i] = 1
	return &Poly{n: n, terms: []Term{{Exp: exp, Coef: big.NewRat(1, 1)}}}
}

// FromTerms builds a polynomial from terms in any order. Like exponents
// are merged and zero coefficients dropped. The input is not retained.
func FromTerms(n int, terms []Term) *Poly {
	cp := make([]Term, 0, len(terms))
	for _, t := range terms {
		if t.Coef.Sign() == 0 {
			continue
		}
		exp := make([]int, n)
		copy(exp, t.Exp)
		cp = append(cp, Term{Exp: exp, Coef: new(big.Rat).Set(t.Coef)})
	}
	return normalize(n, cp)
}

// normalize sorts and merges in place. It takes ownership of terms.
func normalize(n int, terms []Term) *Poly {
	sort.Slice(terms, func(i, j int) bool { return cmpExp(terms[i].Exp, terms[j].Exp) > 0 })
	out := terms[:0]
	for _, t := range terms {
		if len(out) > 0 && cmpExp(out[len(out)-1].Exp, t.Exp) == 0 {
			last := &out[len(out)-1]
			last.Coef = new(big.Rat).Add(last.Coef, t.Coef)
			continue
		}
		out = append(out, t)
	}
	kept := out[:0]
	for _, t := range out {
		if t.Coef.Sign() != 0 {
			kept = append(kept, t)
		}
	}
	return &Poly{n: n, terms: kept}
}

func cmpExp(a, b []int) int {
	for i := range a {
		switch {
		case a[i] > b[i]:
			return 1
		case a[i] < b[i]:
			return -1
		}
	}
	return 0
}

// NVars reports the number of variables.
func (p *Poly) NVars() int { return p.n }

// Terms returns the terms, highest first. Callers must not modify them.
func (p *Poly) Terms() []Term { return p.terms }

func (p *Poly) IsZero() bool { return len(p.terms) == 0 }

// IsConst reports whether p has no variable of positive degree.
func (p *Poly) IsConst() bool {
	if len(p.terms) == 0 {
		return true
	}
	if len(p.terms) > 1 {
		return false
	}
	for _, e := range p.terms[0].Exp {
		if e != 0 {
			return false
		}
	}
	return true
}

// Lead returns the leading term. p must be non-zero.
func (p *Poly) Lead() Term { return p.terms[0] }

func (p *Poly) Equal(q *Poly) bool {
	if len(p.terms) != len(q.terms) {
		return false
	}
	for i := range p.terms {
		if cmpExp(p.terms[i].Exp, q.terms[i].Exp) != 0 || p.terms[i].Coef.Cmp(q.terms[i].Coef) != 0 {
			return false
		}
	}
	return true
}

func (p *Poly) Add(q *Poly) *Poly {
	terms := make([]Term, 0, len(p.terms)+len(q.terms))
	terms = append(terms, p.terms...)
	terms = append(terms, q.terms...)
	return normalize(p.n, copyTerms(terms))
}

func (p *Poly) Sub(q *Poly) *Poly { return p.Add(q.Neg()) }

func (p *Poly) Neg() *Poly {
	out := make([]Term, len(p.terms))
	for i, t := range p.terms {
		out[i] = Term{Exp: t.Exp, Coef: new(big.Rat).Neg(t.Coef)}
	}
	return &Poly{n: p.n, terms: out}
}

// Scale multiplies every coefficient by c.
func (p *Poly) Scale(c *big.Rat) *Poly {
	if c.Sign() == 0 {
		return Zero(p.n)
	}
	out := make([]Term, len(p.terms))
	for i, t := range p.terms {
		out[i] = Term{Exp: t.Exp, Coef: new(big.Rat).Mul(t.Coef, c)}
	}
	return &Poly{n: p.n, terms: out}
}

func (p *Poly) Mul(q *Poly) *Poly {
	terms := make([]Term, 0, len(p.terms)*len(q.terms))
	for _, a := range p.terms {
		for _, b := range q.terms {
			terms = append(terms, Term{Exp: addExp(a.Exp, b.Exp), Coef: new(big.Rat).Mul(a.Coef, b.Coef)})
		}
	}
	return normalize(p.n, terms)
}

// MulTerm multiplies p by a single monomial.
func (p *Poly) MulTerm(t Term) *Poly {
	out := make([]Term, 0, len(p.terms))
	for _, a := range p.terms {
		out = append(out, Term{Exp: addExp(a.Exp, t.Exp), Coef: new(big.Rat).Mul(a.Coef, t.Coef)})
	}
	return normalize(p.n, out)
}

func addExp(a, b []int) []int {
	out := make([]int, len(a))
	for i := range a {
		out[i] = a[i] + b[i]
	}
	return out
}

func copyTerms(ts []Term) []Term {
	out := make([]Term, len(ts))
	copy(out, ts)
	return out
}

// Degree returns the degree of p in variable v, or -1 for the zero
// polynomial.
func (p *Poly) Degree(v int) int {
	if p.IsZero() {
		return -1
	}
	d := 0
	for _, t := range p.terms {
		if t.Exp[v] > d {
			d = t.Exp[v]
		}
	}
	return d
}

// CoeffsIn splits p as a univariate polynomial in v. Element k is the
// coefficient of v^k; the coefficients do not contain v.
func (p *Poly) CoeffsIn(v int) []*Poly {
	d := p.Degree(v)
	if d < 0 {
		return nil
	}
	buckets := make([][]Term, d+1)
	for _, t := range p.terms {
		exp := make([]int, p.n)
		copy(exp, t.Exp)
		k := exp[v]
		exp[v] = 0
		buckets[k] = append(buckets[k], Term{Exp: exp, Coef: t.Coef})
	}
	out := make([]*Poly, d+1)
	for k, b := range buckets {
		out[k] = normalize(p.n, b)
	}
	return out
}

// leadIn returns the coefficient of the highest power of v.
func (p *Poly) leadIn(v int) *Poly {
	cs := p.CoeffsIn(v)
	return cs[len(cs)-1]
}

func (p *Poly) mulVarPow(v, k int) *Poly {
	if k == 0 {
		return p
	}
	exp := make([]int, p.n)
	exp[v] = k
	return p.MulTerm(Term{Exp: exp, Coef: big.NewRat(1, 1)})
}

// DivExact returns p/q when q divides p exactly.
func DivExact(p, q *Poly) (*Poly, bool) {
	if q.IsZero() {
		return nil, false
	}
	if p.IsZero() {
		return Zero(p.n), true
	}
	lq := q.terms[0]
	inv := new(big.Rat).Inv(lq.Coef)
	r := p
	var quo []Term
	for !r.IsZero() {
		lr := r.terms[0]
		exp := make([]int, p.n)
		for i := range exp {
			exp[i] = lr.Exp[i] - lq.Exp[i]
			if exp[i] < 0 {
				return nil, false
			}
		}
		t := Term{Exp: exp, Coef: new(big.Rat).Mul(lr.Coef, inv)}
		quo = append(quo, t)
		r = r.Sub(q.MulTerm(t))
	}
	return normalize(p.n, quo), true
}

// Primitive splits p into c * pp where pp has coprime integer
// coefficients and a positive leading coefficient. The zero polynomial
// gives (0, 0).
func (p *Poly) Primitive() (*big.Rat, *Poly) {
	if p.IsZero() {
		return new(big.Rat), p
	}
	g := new(big.Int)
	l := big.NewInt(1)
	for _, t := range p.terms {
		g.GCD(nil, nil, g, new(big.Int).Abs(t.Coef.Num()))
		d := t.Coef.Denom()
		l.Mul(l, new(big.Int).Quo(d, new(big.Int).GCD(nil, nil, l, d)))
	}
	c := new(big.Rat).SetFrac(g, l)
	if p.terms[0].Coef.Sign() < 0 {
		c.Neg(c)
	}
	return c, p.Scale(new(big.Rat).Inv(c))
}

// MonomialContent returns the largest monomial dividing every term.
func (p *Poly) MonomialContent() []int {
	out := make([]int, p.n)
	for i, t := range p.terms {
		for v, e := range t.Exp {
			if i == 0 || e < out[v] {
				out[v] = e
			}
		}
	}
	return out
}

// DivMonomial divides every term by the monomial exp, which must divide
// each term.
func (p *Poly) DivMonomial(exp []int) *Poly {
	out := make([]Term, len(p.terms))
	for i, t := range p.terms {
		e := make([]int, p.n)
		for v := range e {
			e[v] = t.Exp[v] - exp[v]
		}
		out[i] = Term{Exp: e, Coef: t.Coef}
	}
	return &Poly{n: p.n, terms: out}
}

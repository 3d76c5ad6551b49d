package poly

import "math/big"

// GCD returns the greatest common divisor of p and q, normalised to a
// primitive polynomial with positive leading coefficient. The gcd of a
// non-zero constant with anything is 1.
//
// It uses the recursive primitive polynomial remainder sequence: the
// first variable that occurs is the main variable and contents are
// taken over the remaining ones.
func GCD(p, q *Poly) *Poly {
	n := p.n
	if p.IsZero() && q.IsZero() {
		return Zero(n)
	}
	if p.IsZero() {
		_, pp := q.Primitive()
		return pp
	}
	if q.IsZero() {
		_, pp := p.Primitive()
		return pp
	}
	if p.IsConst() || q.IsConst() {
		return One(n)
	}

	v := mainVar(p, q)
	if p.Degree(v) == 0 {
		return GCD(p, contentIn(q, v))
	}
	if q.Degree(v) == 0 {
		return GCD(contentIn(p, v), q)
	}

	cp, cq := contentIn(p, v), contentIn(q, v)
	a, _ := DivExact(p, cp)
	b, _ := DivExact(q, cq)
	c := GCD(cp, cq)

	if a.Degree(v) < b.Degree(v) {
		a, b = b, a
	}
	for {
		r := pseudoRem(a, b, v)
		if r.IsZero() {
			break
		}
		if r.Degree(v) == 0 {
			b = One(n)
			break
		}
		a = b
		b, _ = DivExact(r, contentIn(r, v))
	}
	if b.Degree(v) > 0 {
		b, _ = DivExact(b, contentIn(b, v))
	}
	_, g := c.Mul(b).Primitive()
	return g
}

func mainVar(p, q *Poly) int {
	for v := 0; v < p.n; v++ {
		if p.Degree(v) > 0 || q.Degree(v) > 0 {
			return v
		}
	}
	return 0
}

// contentIn is the gcd of the coefficients of p seen as a polynomial in v.
func contentIn(p *Poly, v int) *Poly {
	var g *Poly
	for _, c := range p.CoeffsIn(v) {
		if c.IsZero() {
			continue
		}
		if g == nil {
			_, g = c.Primitive()
		} else {
			g = GCD(g, c)
		}
		if g.IsConst() {
			return One(p.n)
		}
	}
	if g == nil {
		return One(p.n)
	}
	return g
}

// pseudoRem returns a multiple of the remainder of a divided by b in
// the variable v, scaled by a power of the leading coefficient of b so
// that no fractions in the other variables appear.
func pseudoRem(a, b *Poly, v int) *Poly {
	db := b.Degree(v)
	lb := b.leadIn(v)
	r := a
	for !r.IsZero() && r.Degree(v) >= db {
		dr := r.Degree(v)
		lr := r.leadIn(v)
		r = lb.Mul(r).Sub(lr.Mul(b).mulVarPow(v, dr-db))
	}
	return r
}

// Sqrt returns r with r*r == p and a positive leading coefficient, when
// p is the square of a polynomial.
func Sqrt(p *Poly) (*Poly, bool) {
	if p.IsZero() {
		return p, true
	}
	lead := p.terms[0]
	if lead.Coef.Sign() < 0 {
		return nil, false
	}
	half := make([]int, p.n)
	for i, e := range lead.Exp {
		if e%2 != 0 {
			return nil, false
		}
		half[i] = e / 2
	}
	c, ok := ratSqrt(lead.Coef)
	if !ok {
		return nil, false
	}
	twoC := new(big.Rat).Add(c, c)
	r := FromTerms(p.n, []Term{{Exp: half, Coef: c}})
	last := half
	for i := 0; i <= 2*len(p.terms)+2; i++ {
		d := p.Sub(r.Mul(r))
		if d.IsZero() {
			return r, true
		}
		ld := d.terms[0]
		exp := make([]int, p.n)
		for v := range exp {
			exp[v] = ld.Exp[v] - half[v]
			if exp[v] < 0 {
				return nil, false
			}
		}
		if cmpExp(exp, last) >= 0 {
			return nil, false
		}
		last = exp
		r = r.Add(FromTerms(p.n, []Term{{Exp: exp, Coef: new(big.Rat).Quo(ld.Coef, twoC)}}))
	}
	return nil, false
}

// ratSqrt returns the exact square root of a non-negative rational.
func ratSqrt(r *big.Rat) (*big.Rat, bool) {
	if r.Sign() < 0 {
		return nil, false
	}
	n, ok := intSqrt(r.Num())
	if !ok {
		return nil, false
	}
	d, ok := intSqrt(r.Denom())
	if !ok {
		return nil, false
	}
	return new(big.Rat).SetFrac(n, d), true
}

func intSqrt(x *big.Int) (*big.Int, bool) {
	s := new(big.Int).Sqrt(x)
	return s, new(big.Int).Mul(s, s).Cmp(x) == 0
}

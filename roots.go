package symsolve

import (
	"math/big"
	"sort"

	"github.com/njchilds90/symsolve/internal/poly"
)

// ============================================================
// Polynomial roots
// ============================================================

// maxRationalSearch bounds the constant and leading coefficients for
// which rational-root candidates are enumerated.
const maxRationalSearch = 1_000_000_000_000

// polyRoots returns the candidate roots of the polynomial p in x.
func (s *Solver) polyRoots(p Expr, x string) ([]Expr, error) {
	ks := newKernelSet(p)
	xi, ok := ks.index[x]
	if !ok {
		return nil, polyErr("%s only occurs inside non-polynomial terms", x)
	}
	if ks.units[xi] != 1 {
		return nil, polyErr("fractional powers of %s remain", x)
	}
	for i, b := range ks.bases {
		if i != xi && !FreeOf(b, x) {
			return nil, polyErr("%s is not polynomial in %s", b.String(), x)
		}
	}
	pp, ok := ks.toPoly(p)
	if !ok {
		return nil, polyErr("cannot collect powers of %s", x)
	}
	cs := pp.CoeffsIn(xi)
	if deg := len(cs) - 1; deg > s.maxDegree {
		return nil, polyErr("degree %d exceeds the cap of %d", deg, s.maxDegree)
	}

	// Divide out the common factor of the coefficients.
	var g *poly.Poly
	for _, c := range cs {
		if c.IsZero() {
			continue
		}
		if g == nil {
			_, g = c.Primitive()
		} else {
			g = poly.GCD(g, c)
		}
	}
	for i, c := range cs {
		q, ok := poly.DivExact(c, g)
		if !ok {
			return nil, polyErr("coefficient gcd does not divide the polynomial in %s", x)
		}
		cs[i] = q
	}

	var roots []Expr
	low := 0
	for cs[low].IsZero() {
		low++
	}
	if low > 0 {
		roots = append(roots, N(0))
		cs = cs[low:]
	}

	coeffs := make([]Expr, len(cs))
	numeric := true
	for i, c := range cs {
		coeffs[i] = ks.fromPoly(c)
		if _, ok := coeffs[i].(*Num); !ok {
			numeric = false
		}
	}
	if numeric {
		rs := make([]*big.Rat, len(coeffs))
		for i, c := range coeffs {
			rs[i] = c.(*Num).val
		}
		found, rest := rationalRoots(rs)
		for _, r := range found {
			roots = append(roots, &Num{val: r})
		}
		coeffs = make([]Expr, len(rest))
		for i, r := range rest {
			coeffs[i] = &Num{val: r}
		}
	}
	more, err := formulaRoots(coeffs)
	if err != nil {
		return nil, err
	}
	return append(roots, more...), nil
}

// formulaRoots applies the closed-form formulas; coeffs[k] multiplies
// x^k.
func formulaRoots(coeffs []Expr) ([]Expr, error) {
	deg := len(coeffs) - 1
	if deg >= 4 && deg%2 == 0 && oddCoeffsVanish(coeffs) {
		half := make([]Expr, 0, deg/2+1)
		for k := 0; k <= deg; k += 2 {
			half = append(half, coeffs[k])
		}
		ys, err := formulaRoots(half)
		if err != nil {
			return nil, err
		}
		out := make([]Expr, 0, 2*len(ys))
		for _, y := range ys {
			r := SqrtOf(y)
			out = append(out, r, Neg(r))
		}
		return out, nil
	}
	switch deg {
	case -1, 0:
		return nil, nil
	case 1:
		return []Expr{Neg(Quo(coeffs[0], coeffs[1]))}, nil
	case 2:
		return quadraticRoots(coeffs[2], coeffs[1], coeffs[0]), nil
	case 3:
		return cubicRoots(coeffs[3], coeffs[2], coeffs[1], coeffs[0]), nil
	}
	return nil, polyErr("no formula for degree %d", deg)
}

func oddCoeffsVanish(coeffs []Expr) bool {
	for k := 1; k < len(coeffs); k += 2 {
		if !isZero(coeffs[k]) {
			return false
		}
	}
	return true
}

// quadraticRoots returns (-b + sqrt(D))/(2a) then (-b - sqrt(D))/(2a).
func quadraticRoots(a, b, c Expr) []Expr {
	disc := expand(Minus(PowOf(b, N(2)), MulOf(N(4), a, c)))
	twoA := MulOf(N(2), a)
	if isZero(disc) {
		return []Expr{Neg(Quo(b, twoA))}
	}
	sq := sqrtSimplify(disc)
	return []Expr{
		Quo(AddOf(Neg(b), sq), twoA),
		Quo(Minus(Neg(b), sq), twoA),
	}
}

// cubicRoots is Cardano's formula with C^3 = (D1 + sqrt(D1^2 - 4 D0^3))/2
// and x_k = -(b + w^k C + D0/(w^k C))/(3a) over the cube roots of unity.
func cubicRoots(a, b, c, d Expr) []Expr {
	d0 := expand(Minus(PowOf(b, N(2)), MulOf(N(3), a, c)))
	d1 := expand(AddOf(
		MulOf(N(2), PowOf(b, N(3))),
		MulOf(N(-9), a, b, c),
		MulOf(N(27), PowOf(a, N(2)), d),
	))
	threeA := MulOf(N(3), a)
	if isZero(d0) && isZero(d1) {
		return []Expr{Neg(Quo(b, threeA))}
	}
	sq := sqrtSimplify(Minus(PowOf(d1, N(2)), MulOf(N(4), PowOf(d0, N(3)))))
	inner := MulOf(F(1, 2), AddOf(d1, sq))
	if v, err := simplifyRational(inner); err == nil && isZero(v) {
		inner = MulOf(F(1, 2), Minus(d1, sq))
	}
	cc := PowOf(inner, F(1, 3))
	sqrtM3 := SqrtOf(N(-3))
	unity := []Expr{
		N(1),
		MulOf(F(1, 2), AddOf(N(-1), sqrtM3)),
		MulOf(F(1, 2), Minus(N(-1), sqrtM3)),
	}
	out := make([]Expr, len(unity))
	for k, w := range unity {
		ck := MulOf(w, cc)
		out[k] = Neg(Quo(AddOf(b, ck, Quo(d0, ck)), threeA))
	}
	return out
}

// sqrtSimplify returns some s with s^2 = d, pulling numeric, monomial
// and perfect-square polynomial factors out of the radical. The sign of
// s is unspecified; the root formulas only depend on the pair ±s.
func sqrtSimplify(d Expr) Expr {
	d = expand(d)
	if n, ok := d.(*Num); ok {
		return powRat(n.val, big.NewRat(1, 2))
	}
	ks := newKernelSet(d)
	p, ok := ks.toPoly(d)
	if !ok {
		return SqrtOf(d)
	}
	c, pp := p.Primitive()
	mono := pp.MonomialContent()
	halfExp := make([]int, len(mono))
	odd := make([]int, len(mono))
	for i, e := range mono {
		halfExp[i] = e / 2
		odd[i] = e % 2
	}
	core := pp.DivMonomial(mono)

	outside := []Expr{powRat(new(big.Rat).Abs(c), big.NewRat(1, 2)), ks.monomial(halfExp)}
	inside := []Expr{ks.monomial(odd)}
	if c.Sign() < 0 {
		inside = append(inside, N(-1))
	}
	if r, ok := poly.Sqrt(core); ok {
		outside = append(outside, ks.fromPoly(r))
	} else {
		inside = append(inside, ks.fromPoly(core))
	}
	return MulOf(append(outside, SqrtOf(expand(MulOf(inside...))))...)
}

// rationalRoots finds the rational roots of a numeric polynomial and
// deflates them out. Roots come back ascending with multiplicity; rest
// is the remaining factor.
func rationalRoots(cs []*big.Rat) ([]*big.Rat, []*big.Rat) {
	// Clear denominators.
	l := big.NewInt(1)
	for _, c := range cs {
		d := c.Denom()
		l.Mul(l, new(big.Int).Quo(d, new(big.Int).GCD(nil, nil, l, d)))
	}
	cur := make([]*big.Rat, len(cs))
	for i, c := range cs {
		cur[i] = new(big.Rat).Mul(c, new(big.Rat).SetInt(l))
	}

	var found []*big.Rat
	for len(cur) > 1 {
		a0 := new(big.Int).Abs(cur[0].Num())
		an := new(big.Int).Abs(cur[len(cur)-1].Num())
		if a0.Sign() == 0 {
			found = append(found, new(big.Rat))
			cur = cur[1:]
			continue
		}
		if !cur[0].IsInt() || !cur[len(cur)-1].IsInt() ||
			a0.Cmp(big.NewInt(maxRationalSearch)) > 0 || an.Cmp(big.NewInt(maxRationalSearch)) > 0 {
			break
		}
		hit := false
		for _, r := range rootCandidates(a0.Int64(), an.Int64()) {
			if hornerRat(cur, r).Sign() == 0 {
				found = append(found, r)
				cur = deflate(cur, r)
				hit = true
				break
			}
		}
		if !hit {
			break
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].Cmp(found[j]) < 0 })
	return found, cur
}

// rootCandidates lists ±p/q for p | a0 and q | an, ascending.
func rootCandidates(a0, an int64) []*big.Rat {
	seen := map[string]bool{}
	var out []*big.Rat
	for _, p := range divisors(a0) {
		for _, q := range divisors(an) {
			for _, sign := range []int64{1, -1} {
				r := big.NewRat(sign*p, q)
				if k := r.RatString(); !seen[k] {
					seen[k] = true
					out = append(out, r)
				}
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Cmp(out[j]) < 0 })
	return out
}

func divisors(n int64) []int64 {
	var small, large []int64
	for i := int64(1); i*i <= n; i++ {
		if n%i == 0 {
			small = append(small, i)
			if i != n/i {
				large = append(large, n/i)
			}
		}
	}
	for i := len(large) - 1; i >= 0; i-- {
		small = append(small, large[i])
	}
	return small
}

func hornerRat(cs []*big.Rat, x *big.Rat) *big.Rat {
	acc := new(big.Rat)
	for i := len(cs) - 1; i >= 0; i-- {
		acc.Mul(acc, x)
		acc.Add(acc, cs[i])
	}
	return acc
}

// deflate divides the polynomial by (x - r) for a root r.
func deflate(cs []*big.Rat, r *big.Rat) []*big.Rat {
	n := len(cs) - 1
	out := make([]*big.Rat, n)
	out[n-1] = new(big.Rat).Set(cs[n])
	for i := n - 1; i >= 1; i-- {
		out[i-1] = new(big.Rat).Add(cs[i], new(big.Rat).Mul(r, out[i]))
	}
	return out
}

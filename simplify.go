package symsolve

import (
	"math/big"
	"sort"
	"strings"
)

// ============================================================
// Automatic simplification
// ============================================================

const (
	maxExactPower = 4096   // largest integer exponent evaluated exactly
	maxTrialRoot  = 100000 // trial-division bound for perfect-power extraction
)

// baseExp splits a factor into base and exponent; non-powers have
// exponent 1.
func baseExp(f Expr) (Expr, Expr) {
	if p, ok := f.(*Pow); ok {
		return p.base, p.exp
	}
	return f, N(1)
}

// splitCoeff splits a term into its numeric coefficient and the rest.
// A bare number returns (n, nil).
func splitCoeff(t Expr) (*Num, Expr) {
	switch v := t.(type) {
	case *Num:
		return v, nil
	case *Mul:
		if c, ok := v.factors[0].(*Num); ok {
			if len(v.factors) == 2 {
				return c, v.factors[1]
			}
			return c, newMul(v.factors[1:])
		}
	}
	return N(1), t
}

func compareTerms(u, v Expr) int {
	cu, ru := splitCoeff(u)
	cv, rv := splitCoeff(v)
	if c := strings.Compare(restKey(ru), restKey(rv)); c != 0 {
		return c
	}
	return cu.val.Cmp(cv.val)
}

func restKey(e Expr) string {
	if e == nil {
		return ""
	}
	return e.key()
}

func compareFactors(u, v Expr) int {
	_, un := u.(*Num)
	_, vn := v.(*Num)
	switch {
	case un && !vn:
		return -1
	case vn && !un:
		return 1
	}
	bu, eu := baseExp(u)
	bv, ev := baseExp(v)
	if c := strings.Compare(bu.key(), bv.key()); c != 0 {
		return c
	}
	return strings.Compare(eu.key(), ev.key())
}

// simplifySum flattens nested sums, folds numbers and merges like terms.
func simplifySum(terms []Expr) Expr {
	flat := make([]Expr, 0, len(terms))
	for _, t := range terms {
		switch v := t.(type) {
		case *Undefined:
			return undefined
		case *Add:
			flat = append(flat, v.terms...)
		default:
			flat = append(flat, t)
		}
	}

	constant := new(big.Rat)
	type group struct {
		rest  Expr
		coeff *big.Rat
	}
	groups := map[string]*group{}
	var order []string
	for _, t := range flat {
		c, rest := splitCoeff(t)
		if rest == nil {
			constant.Add(constant, c.val)
			continue
		}
		k := rest.key()
		g, ok := groups[k]
		if !ok {
			g = &group{rest: rest, coeff: new(big.Rat)}
			groups[k] = g
			order = append(order, k)
		}
		g.coeff.Add(g.coeff, c.val)
	}

	out := make([]Expr, 0, len(order)+1)
	for _, k := range order {
		g := groups[k]
		if g.coeff.Sign() == 0 {
			continue
		}
		out = append(out, withCoeff(g.coeff, g.rest))
	}
	sort.SliceStable(out, func(i, j int) bool { return compareTerms(out[i], out[j]) < 0 })
	if constant.Sign() != 0 {
		out = append(out, &Num{val: constant})
	}
	switch len(out) {
	case 0:
		return N(0)
	case 1:
		return out[0]
	}
	return newAdd(out)
}

// withCoeff rebuilds c*rest for a rest that carries no coefficient.
func withCoeff(c *big.Rat, rest Expr) Expr {
	if c.Cmp(big.NewRat(1, 1)) == 0 {
		return rest
	}
	coeff := &Num{val: new(big.Rat).Set(c)}
	if m, ok := rest.(*Mul); ok {
		return newMul(append([]Expr{coeff}, m.factors...))
	}
	return newMul([]Expr{coeff, rest})
}

// simplifyProduct flattens nested products, folds numbers and merges
// factors with a common base by adding exponents. Merged powers can
// produce new products, so grouping runs until nothing changes.
func simplifyProduct(factors []Expr) Expr {
	for _, f := range factors {
		if IsUndefined(f) {
			return undefined
		}
	}

	coeff := big.NewRat(1, 1)
	pending := factors
	var out []Expr
	for pass := 0; ; pass++ {
		type group struct {
			base  Expr
			exps  []Expr
			first Expr
		}
		groups := map[string]*group{}
		var order []string
		var push func(f Expr)
		push = func(f Expr) {
			switch v := f.(type) {
			case *Num:
				coeff.Mul(coeff, v.val)
			case *Mul:
				for _, g := range v.factors {
					push(g)
				}
			default:
				b, e := baseExp(f)
				k := b.key()
				g, ok := groups[k]
				if !ok {
					g = &group{base: b, first: f}
					groups[k] = g
					order = append(order, k)
				}
				g.exps = append(g.exps, e)
			}
		}
		for _, f := range pending {
			push(f)
		}

		out = make([]Expr, 0, len(order))
		changed := false
		for _, k := range order {
			g := groups[k]
			var r Expr
			if len(g.exps) == 1 {
				r = g.first
			} else {
				r = simplifyPow(g.base, simplifySum(g.exps))
			}
			switch v := r.(type) {
			case *Undefined:
				return undefined
			case *Num:
				coeff.Mul(coeff, v.val)
			case *Mul:
				out = append(out, v.factors...)
				changed = true
			default:
				out = append(out, r)
			}
		}
		if !changed || pass == 15 {
			break
		}
		pending = out
	}

	if coeff.Sign() == 0 {
		return N(0)
	}
	// Any numeric factors left by the last Mul flattening fold in here.
	rest := out[:0:0]
	for _, f := range out {
		if n, ok := f.(*Num); ok {
			coeff.Mul(coeff, n.val)
			continue
		}
		rest = append(rest, f)
	}
	if coeff.Sign() == 0 {
		return N(0)
	}
	switch len(rest) {
	case 0:
		return &Num{val: coeff}
	case 1:
		if coeff.Cmp(big.NewRat(1, 1)) == 0 {
			return rest[0]
		}
		// A number times a sum distributes.
		if a, ok := rest[0].(*Add); ok {
			terms := make([]Expr, len(a.terms))
			for i, t := range a.terms {
				c, r := splitCoeff(t)
				prod := new(big.Rat).Mul(c.val, coeff)
				if r == nil {
					terms[i] = &Num{val: prod}
				} else {
					terms[i] = withCoeff(prod, r)
				}
			}
			return simplifySum(terms)
		}
	}
	sort.SliceStable(rest, func(i, j int) bool { return compareFactors(rest[i], rest[j]) < 0 })
	if coeff.Cmp(big.NewRat(1, 1)) == 0 {
		return newMul(rest)
	}
	return newMul(append([]Expr{&Num{val: coeff}}, rest...))
}

// simplifyPow applies the exact power rules.
func simplifyPow(b, e Expr) Expr {
	if IsUndefined(b) || IsUndefined(e) {
		return undefined
	}
	en, eNum := e.(*Num)
	bn, bNum := b.(*Num)
	if eNum {
		if en.IsZero() {
			return N(1)
		}
		if en.IsOne() {
			return b
		}
	}
	if bNum {
		if bn.IsZero() {
			if eNum {
				if en.IsNegative() {
					return undefined
				}
				return N(0)
			}
			return newPow(b, e)
		}
		if bn.IsOne() {
			return N(1)
		}
		if eNum {
			return powRat(bn.val, en.val)
		}
		return newPow(b, e)
	}
	if !eNum {
		return newPow(b, e)
	}

	if en.IsInteger() {
		switch v := b.(type) {
		case *Pow:
			return simplifyPow(v.base, simplifyProduct([]Expr{v.exp, e}))
		case *Mul:
			out := make([]Expr, len(v.factors))
			for i, f := range v.factors {
				out[i] = simplifyPow(f, e)
			}
			return simplifyProduct(out)
		}
		return newPow(b, e)
	}

	switch v := b.(type) {
	case *Mul:
		if c, ok := v.factors[0].(*Num); ok && new(big.Rat).Abs(c.val).Cmp(big.NewRat(1, 1)) != 0 {
			// (c*m)^e = |c|^e * (sign(c)*m)^e for real |c| > 0.
			abs := new(big.Rat).Abs(c.val)
			sign := N(1)
			if c.IsNegative() {
				sign = N(-1)
			}
			rest := simplifyProduct(append([]Expr{sign}, v.factors[1:]...))
			return simplifyProduct([]Expr{powRat(abs, en.val), simplifyPow(rest, e)})
		}
		if whole, frac, ok := splitExponent(en.val); ok {
			return simplifyProduct([]Expr{simplifyPow(b, whole), simplifyPow(b, frac)})
		}
	case *Pow:
		// (z^a)^e = z^(a*e) holds for -1 < a <= 1.
		if a, ok := v.exp.(*Num); ok && a.val.Cmp(big.NewRat(-1, 1)) > 0 && a.val.Cmp(big.NewRat(1, 1)) <= 0 {
			return simplifyPow(v.base, simplifyProduct([]Expr{a, e}))
		}
	}
	return newPow(b, e)
}

// splitExponent splits p/q with |p| > q into an integer part and a
// proper fraction of the same sign.
func splitExponent(r *big.Rat) (*Num, *Num, bool) {
	if r.IsInt() || new(big.Rat).Abs(r).Cmp(big.NewRat(1, 1)) < 0 {
		return nil, nil, false
	}
	whole := new(big.Int).Quo(r.Num(), r.Denom()) // truncates toward zero
	frac := new(big.Rat).Sub(r, new(big.Rat).SetInt(whole))
	return &Num{val: new(big.Rat).SetInt(whole)}, &Num{val: frac}, true
}

// powRat evaluates b^e for rationals. Integer exponents are exact;
// fractional ones extract perfect powers and rationalise the
// denominator, leaving an integer radicand free of q-th powers.
func powRat(b, e *big.Rat) Expr {
	if e.IsInt() {
		n := e.Num()
		if !n.IsInt64() || n.Int64() > maxExactPower || n.Int64() < -maxExactPower {
			return newPow(&Num{val: new(big.Rat).Set(b)}, &Num{val: new(big.Rat).Set(e)})
		}
		return &Num{val: ratPowInt(b, int(n.Int64()))}
	}

	q64 := e.Denom()
	if !q64.IsInt64() || q64.Int64() > 64 {
		return newPow(&Num{val: new(big.Rat).Set(b)}, &Num{val: new(big.Rat).Set(e)})
	}
	q := int(q64.Int64())
	p := new(big.Int).Set(e.Num())
	// p = k*q + r with 0 < r < q.
	k, r := new(big.Int).DivMod(p, big.NewInt(int64(q)), new(big.Int))
	if !k.IsInt64() || k.Int64() > maxExactPower || k.Int64() < -maxExactPower {
		return newPow(&Num{val: new(big.Rat).Set(b)}, &Num{val: new(big.Rat).Set(e)})
	}
	ri := int(r.Int64())

	// b^(r/q) = (n*d^(q-1))^(r/q) / d^r for b = n/d, d > 0.
	num, den := b.Num(), b.Denom()
	m := new(big.Int).Mul(num, new(big.Int).Exp(den, big.NewInt(int64(q-1)), nil))
	outside, radicand := extractPower(m, q)

	coeff := ratPowInt(b, int(k.Int64()))
	scale := new(big.Rat).SetFrac(new(big.Int).Exp(outside, big.NewInt(int64(ri)), nil),
		new(big.Int).Exp(den, big.NewInt(int64(ri)), nil))
	coeff.Mul(coeff, scale)
	if radicand.Cmp(big.NewInt(1)) == 0 {
		return &Num{val: coeff}
	}
	leaf := newPow(&Num{val: new(big.Rat).SetInt(radicand)}, &Num{val: big.NewRat(int64(ri), int64(q))})
	if coeff.Cmp(big.NewRat(1, 1)) == 0 {
		return leaf
	}
	return newMul([]Expr{&Num{val: coeff}, leaf})
}

func ratPowInt(b *big.Rat, n int) *big.Rat {
	if n == 0 {
		return big.NewRat(1, 1)
	}
	abs := n
	if abs < 0 {
		abs = -abs
	}
	e := big.NewInt(int64(abs))
	num := new(big.Int).Exp(b.Num(), e, nil)
	den := new(big.Int).Exp(b.Denom(), e, nil)
	if n < 0 {
		num, den = den, num
		if den.Sign() < 0 {
			num.Neg(num)
			den.Neg(den)
		}
	}
	return new(big.Rat).SetFrac(num, den)
}

// extractPower writes m = f^q * g with g free of q-th powers (within the
// trial-division bound). The sign of m stays in g.
func extractPower(m *big.Int, q int) (*big.Int, *big.Int) {
	f := big.NewInt(1)
	g := big.NewInt(1)
	rest := new(big.Int).Abs(m)
	qq := big.NewInt(int64(q))
	for i := int64(2); i <= maxTrialRoot; i++ {
		bi := big.NewInt(i)
		if new(big.Int).Exp(bi, qq, nil).Cmp(rest) > 0 {
			break
		}
		count := 0
		for {
			quo, mod := new(big.Int).QuoRem(rest, bi, new(big.Int))
			if mod.Sign() != 0 {
				break
			}
			rest = quo
			count++
		}
		for ; count >= q; count -= q {
			f.Mul(f, bi)
		}
		for ; count > 0; count-- {
			g.Mul(g, bi)
		}
	}
	g.Mul(g, rest)
	if m.Sign() < 0 {
		g.Neg(g)
	}
	return f, g
}

// simplifyFunc applies exact special values and inverse pairs.
func simplifyFunc(name string, arg Expr) Expr {
	if IsUndefined(arg) {
		return undefined
	}
	if n, ok := arg.(*Num); ok {
		if n.IsZero() {
			switch name {
			case "sin", "tan", "asin", "atan", "sinh", "tanh":
				return N(0)
			case "cos", "exp", "cosh":
				return N(1)
			}
		}
		if n.IsOne() && name == "ln" {
			return N(0)
		}
	}
	if f, ok := arg.(*Func); ok {
		if name == "ln" && f.name == "exp" {
			return f.arg
		}
		if name == "exp" && f.name == "ln" {
			return f.arg
		}
	}
	return newFunc(name, arg)
}

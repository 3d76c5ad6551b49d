package symsolve

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/njchilds90/symsolve/internal/poly"
)

// ============================================================
// Rational normal form
// ============================================================

// denom is a denominator kept in factored form: a positive integer and
// a multiset of bases with positive rational exponents.
type denom struct {
	num   *big.Int
	bases map[string]Expr
	exps  map[string]*big.Rat
}

func newDenom() *denom {
	return &denom{num: big.NewInt(1), bases: map[string]Expr{}, exps: map[string]*big.Rat{}}
}

func (d *denom) isOne() bool { return d.num.Cmp(big.NewInt(1)) == 0 && len(d.exps) == 0 }

func (d *denom) keys() []string {
	keys := make([]string, 0, len(d.exps))
	for k := range d.exps {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (d *denom) expr() Expr {
	factors := []Expr{&Num{val: new(big.Rat).SetInt(d.num)}}
	for _, k := range d.keys() {
		factors = append(factors, PowOf(d.bases[k], &Num{val: d.exps[k]}))
	}
	return MulOf(factors...)
}

func (d *denom) addBase(b Expr, e *big.Rat) {
	k := b.key()
	if cur, ok := d.exps[k]; ok {
		d.exps[k] = new(big.Rat).Add(cur, e)
		return
	}
	d.bases[k] = b
	d.exps[k] = new(big.Rat).Set(e)
}

func (d *denom) mul(o *denom) {
	d.num.Mul(d.num, o.num)
	for _, k := range o.keys() {
		d.addBase(o.bases[k], o.exps[k])
	}
}

// lcmDenom is the factor-wise least common multiple.
func lcmDenom(a, b *denom) *denom {
	out := newDenom()
	g := new(big.Int).GCD(nil, nil, a.num, b.num)
	out.num.Mul(a.num, new(big.Int).Quo(b.num, g))
	for _, src := range []*denom{a, b} {
		for _, k := range src.keys() {
			e := src.exps[k]
			if cur, ok := out.exps[k]; !ok || cur.Cmp(e) < 0 {
				out.bases[k] = src.bases[k]
				out.exps[k] = new(big.Rat).Set(e)
			}
		}
	}
	return out
}

// cofactor returns l/d for a d dividing l.
func cofactor(l, d *denom) Expr {
	factors := []Expr{&Num{val: new(big.Rat).SetInt(new(big.Int).Quo(l.num, d.num))}}
	for _, k := range l.keys() {
		e := new(big.Rat).Set(l.exps[k])
		if de, ok := d.exps[k]; ok {
			e.Sub(e, de)
		}
		if e.Sign() != 0 {
			factors = append(factors, PowOf(l.bases[k], &Num{val: e}))
		}
	}
	return MulOf(factors...)
}

// divide records f^k in the denominator, returning the numerator
// multiplier needed to keep the denominator's numeric part a positive
// integer and its sum factors primitive.
func (d *denom) divide(f Expr, k *big.Rat) (Expr, error) {
	integral := k.IsInt()
	switch v := f.(type) {
	case *Num:
		if v.IsZero() {
			return nil, ErrDivisionByZero
		}
		if !integral {
			d.addBase(f, k)
			return N(1), nil
		}
		kn := int(k.Num().Int64())
		r := ratPowInt(v.val, kn)
		d.num.Mul(d.num, new(big.Int).Abs(r.Num()))
		mult := new(big.Rat).SetInt(r.Denom())
		if r.Sign() < 0 {
			mult.Neg(mult)
		}
		return &Num{val: mult}, nil
	case *Mul:
		if !integral {
			d.addBase(f, k)
			return N(1), nil
		}
		out := []Expr{}
		for _, g := range v.factors {
			b, e := baseExp(g)
			en, ok := e.(*Num)
			if !ok {
				m, err := d.divide(g, k)
				if err != nil {
					return nil, err
				}
				out = append(out, m)
				continue
			}
			m, err := d.divide(b, new(big.Rat).Mul(en.val, k))
			if err != nil {
				return nil, err
			}
			out = append(out, m)
		}
		return MulOf(out...), nil
	case *Add:
		if !integral {
			d.addBase(f, k)
			return N(1), nil
		}
		ex := expand(f)
		if isZero(ex) {
			return nil, ErrDivisionByZero
		}
		a, ok := ex.(*Add)
		if !ok {
			return d.divide(ex, k)
		}
		c := numericContent(a)
		base := simplifyProduct([]Expr{&Num{val: new(big.Rat).Inv(c)}, a})
		d.addBase(base, k)
		m, err := d.divide(&Num{val: c}, k)
		if err != nil {
			return nil, err
		}
		return m, nil
	case *Pow:
		if en, ok := v.exp.(*Num); ok && integral {
			return d.divide(v.base, new(big.Rat).Mul(en.val, k))
		}
	}
	d.addBase(f, k)
	return N(1), nil
}

// numericContent is the rational gcd of the coefficients of a sum, signed
// so that dividing by it leaves a positive first term.
func numericContent(a *Add) *big.Rat {
	g := new(big.Int)
	l := big.NewInt(1)
	for _, t := range a.terms {
		c, _ := splitCoeff(t)
		g.GCD(nil, nil, g, new(big.Int).Abs(c.val.Num()))
		d := c.val.Denom()
		l.Mul(l, new(big.Int).Quo(d, new(big.Int).GCD(nil, nil, l, d)))
	}
	out := new(big.Rat).SetFrac(g, l)
	if c, _ := splitCoeff(a.terms[0]); c.IsNegative() {
		out.Neg(out)
	}
	return out
}

// numden splits u into a numerator and a factored denominator.
func numden(u Expr) (Expr, *denom, error) {
	switch v := u.(type) {
	case *Undefined:
		return nil, nil, ErrDivisionByZero
	case *Num:
		d := newDenom()
		d.num.Set(v.val.Denom())
		return &Num{val: new(big.Rat).SetInt(v.val.Num())}, d, nil
	case *Pow:
		en, ok := v.exp.(*Num)
		if !ok {
			return u, newDenom(), nil
		}
		if en.IsNegative() {
			k := new(big.Rat).Neg(en.val)
			if !k.IsInt() {
				d := newDenom()
				if _, err := d.divide(v.base, k); err != nil {
					return nil, nil, err
				}
				return N(1), d, nil
			}
			bn, bd, err := numden(v.base)
			if err != nil {
				return nil, nil, err
			}
			d := newDenom()
			mult, err := d.divide(bn, k)
			if err != nil {
				return nil, nil, err
			}
			return MulOf(mult, PowOf(bd.expr(), &Num{val: k})), d, nil
		}
		if en.IsInteger() {
			bn, bd, err := numden(v.base)
			if err != nil {
				return nil, nil, err
			}
			if bd.isOne() {
				return u, bd, nil
			}
			d := newDenom()
			mult, err := d.divide(bd.expr(), en.val)
			if err != nil {
				return nil, nil, err
			}
			return MulOf(mult, PowOf(bn, en)), d, nil
		}
		return u, newDenom(), nil
	case *Mul:
		nums := make([]Expr, 0, len(v.factors))
		d := newDenom()
		for _, f := range v.factors {
			n, fd, err := numden(f)
			if err != nil {
				return nil, nil, err
			}
			nums = append(nums, n)
			d.mul(fd)
		}
		return MulOf(nums...), d, nil
	case *Add:
		nums := make([]Expr, len(v.terms))
		dens := make([]*denom, len(v.terms))
		l := newDenom()
		for i, t := range v.terms {
			n, d, err := numden(t)
			if err != nil {
				return nil, nil, err
			}
			nums[i], dens[i] = n, d
			l = lcmDenom(l, d)
		}
		terms := make([]Expr, len(v.terms))
		for i := range v.terms {
			terms[i] = MulOf(nums[i], cofactor(l, dens[i]))
		}
		return AddOf(terms...), l, nil
	}
	return u, newDenom(), nil
}

// normalizeAtoms simplifies radicands and function arguments so that
// equal radicals become structurally equal kernels.
func normalizeAtoms(u Expr) (Expr, error) {
	switch v := u.(type) {
	case *Undefined:
		return nil, ErrDivisionByZero
	case *Add:
		terms := make([]Expr, len(v.terms))
		for i, t := range v.terms {
			n, err := normalizeAtoms(t)
			if err != nil {
				return nil, err
			}
			terms[i] = n
		}
		return AddOf(terms...), nil
	case *Mul:
		factors := make([]Expr, len(v.factors))
		for i, f := range v.factors {
			n, err := normalizeAtoms(f)
			if err != nil {
				return nil, err
			}
			factors[i] = n
		}
		return MulOf(factors...), nil
	case *Pow:
		b, err := normalizeAtoms(v.base)
		if err != nil {
			return nil, err
		}
		if en, ok := v.exp.(*Num); ok && en.IsInteger() {
			return checkDefined(PowOf(b, en))
		}
		b, err = simplifyRational(b)
		if err != nil {
			return nil, err
		}
		e, err := normalizeAtoms(v.exp)
		if err != nil {
			return nil, err
		}
		return checkDefined(PowOf(b, e))
	case *Func:
		a, err := simplifyRational(v.arg)
		if err != nil {
			return nil, err
		}
		return checkDefined(simplifyFunc(v.name, a))
	}
	return u, nil
}

func checkDefined(e Expr) (Expr, error) {
	if IsUndefined(e) {
		return nil, ErrDivisionByZero
	}
	return e, nil
}

// together rewrites u as num/den with expanded, coprime numerator and
// denominator. The denominator is primitive with a positive leading
// coefficient; the numerator carries the rational content.
func together(u Expr) (Expr, Expr, error) {
	u, err := normalizeAtoms(u)
	if err != nil {
		return nil, nil, err
	}
	n, d, err := numden(u)
	if err != nil {
		return nil, nil, err
	}
	num := expand(n)
	den := expand(d.expr())
	if isZero(den) {
		return nil, nil, ErrDivisionByZero
	}
	if IsUndefined(num) || IsUndefined(den) {
		return nil, nil, ErrDivisionByZero
	}
	if isZero(num) {
		return N(0), N(1), nil
	}

	ks := newKernelSet(num, den)
	pn, ok1 := ks.toPoly(num)
	pd, ok2 := ks.toPoly(den)
	if !ok1 || !ok2 {
		return num, den, nil
	}
	if pd.IsZero() {
		return nil, nil, ErrDivisionByZero
	}
	g := poly.GCD(pn, pd)
	if !g.IsConst() {
		pn, _ = poly.DivExact(pn, g)
		pd, _ = poly.DivExact(pd, g)
	}
	c, pd := pd.Primitive()
	pn = pn.Scale(new(big.Rat).Inv(c))
	return ks.fromPoly(pn), ks.fromPoly(pd), nil
}

// simplifyRational is the full simplification behind Simplify.
func simplifyRational(u Expr) (Expr, error) {
	num, den, err := together(u)
	if err != nil {
		return nil, err
	}
	if isOne(den) {
		return num, nil
	}
	return MulOf(num, PowOf(den, N(-1))), nil
}

// Simplify returns the canonical rational form of e: a single fraction
// whose numerator and denominator are expanded and share no common
// factor. It returns the undefined value when e divides by an
// expression that is identically zero.
func Simplify(e Expr) Expr {
	out, err := simplifyRational(e)
	if err != nil {
		return undefined
	}
	return out
}

// Together returns the numerator and denominator of Simplify(e).
func Together(e Expr) (num, den Expr, err error) {
	num, den, err = together(e)
	if err != nil {
		return nil, nil, fmt.Errorf("together: %w", err)
	}
	return num, den, nil
}

package symsolve

import "math/big"

// ============================================================
// Expand: distribute products over sums
// ============================================================

// maxExpandPower bounds the integer powers of sums that Expand
// multiplies out.
const maxExpandPower = 64

// Expand distributes products over sums, multiplies out positive
// integer powers of sums and expands radicands and function arguments.
// Fractional powers of sums with exponent above one are split into an
// integer power, which is expanded, and a proper fractional power.
func Expand(e Expr) Expr { return expand(e) }

func expand(u Expr) Expr {
	switch v := u.(type) {
	case *Add:
		terms := make([]Expr, len(v.terms))
		for i, t := range v.terms {
			terms[i] = expand(t)
		}
		return simplifySum(terms)
	case *Mul:
		var result Expr = N(1)
		for _, f := range v.factors {
			result = expandProduct(result, expand(f))
		}
		return result
	case *Pow:
		b := expand(v.base)
		en, ok := v.exp.(*Num)
		if !ok {
			return simplifyPow(b, expand(v.exp))
		}
		sum, isSum := b.(*Add)
		if !isSum {
			r := simplifyPow(b, en)
			if needsExpand(r) {
				return expand(r)
			}
			return r
		}
		if en.IsInteger() {
			n := en.val.Num()
			if n.Sign() > 0 && n.IsInt64() && n.Int64() <= maxExpandPower {
				return expandPower(sum, int(n.Int64()))
			}
			return simplifyPow(b, en)
		}
		if en.val.Sign() > 0 && en.val.Cmp(big.NewRat(1, 1)) > 0 {
			whole, frac, _ := splitExponent(en.val)
			w := whole.val.Num()
			if w.IsInt64() && w.Int64() <= maxExpandPower {
				return expandProduct(expandPower(sum, int(w.Int64())), simplifyPow(b, frac))
			}
		}
		return simplifyPow(b, en)
	case *Func:
		return simplifyFunc(v.name, expand(v.arg))
	}
	return u
}

func expandPower(b *Add, n int) Expr {
	var result Expr = N(1)
	for i := 0; i < n; i++ {
		result = expandProduct(result, b)
	}
	return result
}

// expandProduct multiplies two expanded expressions and distributes.
func expandProduct(r, s Expr) Expr {
	if a, ok := r.(*Add); ok {
		terms := make([]Expr, len(a.terms))
		for i, t := range a.terms {
			terms[i] = expandProduct(t, s)
		}
		return simplifySum(terms)
	}
	if a, ok := s.(*Add); ok {
		terms := make([]Expr, len(a.terms))
		for i, t := range a.terms {
			terms[i] = expandProduct(r, t)
		}
		return simplifySum(terms)
	}
	p := simplifyProduct([]Expr{r, s})
	if needsExpand(p) {
		return expand(p)
	}
	return p
}

// needsExpand reports whether merging radicals left a sum, or a power of
// a sum that expand would multiply out, inside a product.
func needsExpand(e Expr) bool {
	switch v := e.(type) {
	case *Add:
		return true
	case *Mul:
		for _, f := range v.factors {
			if isExpandablePower(f) {
				return true
			}
			if _, ok := f.(*Add); ok {
				return true
			}
		}
	case *Pow:
		return isExpandablePower(v)
	}
	return false
}

func isExpandablePower(f Expr) bool {
	p, ok := f.(*Pow)
	if !ok {
		return false
	}
	if _, ok := p.base.(*Add); !ok {
		return false
	}
	n, ok := p.exp.(*Num)
	return ok && n.val.Sign() > 0 && n.val.Cmp(big.NewRat(1, 1)) > 0
}

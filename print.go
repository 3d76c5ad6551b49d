package symsolve

import (
	"math/big"
	"strings"
)

// ============================================================
// Display: text and LaTeX
// ============================================================

// String returns the canonical text form of e.
func String(e Expr) string { return e.String() }

// ToDisplayString is the canonical textual serialization handed to
// rendering layers.
func ToDisplayString(e Expr) string { return e.String() }

// LaTeX returns e typeset for LaTeX.
func LaTeX(e Expr) string { return e.LaTeX() }

// negated reports whether a term prints with a leading minus, and
// returns its absolute value.
func negated(t Expr) (Expr, bool) {
	c, rest := splitCoeff(t)
	if !c.IsNegative() {
		return t, false
	}
	if rest == nil {
		return numNeg(c), true
	}
	return withCoeff(new(big.Rat).Neg(c.val), rest), true
}

func (a *Add) String() string {
	var sb strings.Builder
	for i, t := range a.terms {
		abs, neg := negated(t)
		switch {
		case i == 0 && neg:
			sb.WriteString("-" + abs.String())
		case i == 0:
			sb.WriteString(t.String())
		case neg:
			sb.WriteString(" - " + abs.String())
		default:
			sb.WriteString(" + " + t.String())
		}
	}
	return sb.String()
}

func (a *Add) LaTeX() string {
	var sb strings.Builder
	for i, t := range a.terms {
		abs, neg := negated(t)
		switch {
		case i == 0 && neg:
			sb.WriteString("-" + abs.LaTeX())
		case i == 0:
			sb.WriteString(t.LaTeX())
		case neg:
			sb.WriteString(" - " + abs.LaTeX())
		default:
			sb.WriteString(" + " + t.LaTeX())
		}
	}
	return sb.String()
}

// fraction splits a product into numerator and denominator factors.
// The coefficient's numerator and denominator are returned separately.
func (m *Mul) fraction() (coeff *big.Rat, num, den []Expr) {
	coeff = big.NewRat(1, 1)
	for _, f := range m.factors {
		if n, ok := f.(*Num); ok {
			coeff = n.val
			continue
		}
		if p, ok := f.(*Pow); ok {
			if e, ok := p.exp.(*Num); ok && e.IsNegative() {
				den = append(den, PowOf(p.base, numNeg(e)))
				continue
			}
		}
		num = append(num, f)
	}
	return coeff, num, den
}

func (m *Mul) String() string {
	coeff, num, den := m.fraction()
	var sb strings.Builder
	if coeff.Sign() < 0 {
		sb.WriteString("-")
	}
	p := new(big.Int).Abs(coeff.Num())
	parts := make([]string, 0, len(num)+1)
	if p.Cmp(big.NewInt(1)) != 0 || len(num) == 0 {
		parts = append(parts, p.String())
	}
	for _, f := range num {
		parts = append(parts, factorString(f, len(num)+len(parts) > 1 || len(den) > 0))
	}
	sb.WriteString(strings.Join(parts, "*"))

	q := coeff.Denom()
	dparts := make([]string, 0, len(den)+1)
	if q.Cmp(big.NewInt(1)) != 0 {
		dparts = append(dparts, q.String())
	}
	for _, f := range den {
		dparts = append(dparts, factorString(f, true))
	}
	switch len(dparts) {
	case 0:
	case 1:
		sb.WriteString("/" + dparts[0])
	default:
		sb.WriteString("/(" + strings.Join(dparts, "*") + ")")
	}
	return sb.String()
}

// factorString parenthesizes sums and, inside a longer product, other
// products.
func factorString(f Expr, inProduct bool) string {
	switch f.(type) {
	case *Add:
		return "(" + f.String() + ")"
	case *Mul:
		if inProduct {
			return "(" + f.String() + ")"
		}
	}
	return f.String()
}

func (m *Mul) LaTeX() string {
	coeff, num, den := m.fraction()
	sign := ""
	if coeff.Sign() < 0 {
		sign = "-"
	}
	p := new(big.Int).Abs(coeff.Num())
	numParts := make([]string, 0, len(num)+1)
	if p.Cmp(big.NewInt(1)) != 0 {
		numParts = append(numParts, p.String())
	}
	for _, f := range num {
		numParts = append(numParts, factorLaTeX(f))
	}
	numStr := strings.Join(numParts, ` \cdot `)
	if numStr == "" {
		numStr = "1"
	}
	q := coeff.Denom()
	denParts := make([]string, 0, len(den)+1)
	if q.Cmp(big.NewInt(1)) != 0 {
		denParts = append(denParts, q.String())
	}
	for _, f := range den {
		denParts = append(denParts, factorLaTeX(f))
	}
	if len(denParts) == 0 {
		return sign + numStr
	}
	return sign + `\frac{` + numStr + `}{` + strings.Join(denParts, ` \cdot `) + `}`
}

func factorLaTeX(f Expr) string {
	if _, ok := f.(*Add); ok {
		return `\left(` + f.LaTeX() + `\right)`
	}
	return f.LaTeX()
}

func (p *Pow) String() string {
	if e, ok := p.exp.(*Num); ok {
		if e.val.Cmp(big.NewRat(1, 2)) == 0 {
			return "sqrt(" + p.base.String() + ")"
		}
		if e.IsNegative() {
			return "1/" + factorString(PowOf(p.base, numNeg(e)), true)
		}
	}
	return baseString(p.base) + "^" + expString(p.exp)
}

func baseString(b Expr) string {
	switch v := b.(type) {
	case *Add, *Mul, *Pow:
		return "(" + b.String() + ")"
	case *Num:
		if !v.IsInteger() || v.IsNegative() {
			return "(" + b.String() + ")"
		}
	}
	return b.String()
}

func expString(e Expr) string {
	switch v := e.(type) {
	case *Sym:
		return v.String()
	case *Num:
		if v.IsInteger() && !v.IsNegative() {
			return v.String()
		}
	}
	return "(" + e.String() + ")"
}

func (p *Pow) LaTeX() string {
	if e, ok := p.exp.(*Num); ok {
		if e.val.Cmp(big.NewRat(1, 2)) == 0 {
			return `\sqrt{` + p.base.LaTeX() + `}`
		}
		if e.IsNegative() {
			return `\frac{1}{` + PowOf(p.base, numNeg(e)).LaTeX() + `}`
		}
		if !e.IsInteger() && e.val.Num().Cmp(big.NewInt(1)) == 0 {
			return `\sqrt[` + e.val.Denom().String() + `]{` + p.base.LaTeX() + `}`
		}
	}
	base := p.base.LaTeX()
	switch p.base.(type) {
	case *Add, *Mul, *Pow:
		base = `\left(` + base + `\right)`
	}
	return base + "^{" + p.exp.LaTeX() + "}"
}

func (f *Func) String() string { return f.name + "(" + f.arg.String() + ")" }

func (f *Func) LaTeX() string {
	arg := f.arg.LaTeX()
	switch f.name {
	case "exp":
		return "e^{" + arg + "}"
	case "ln":
		return `\ln\left(` + arg + `\right)`
	case "asin", "acos", "atan":
		return `\arc` + f.name[1:] + `\left(` + arg + `\right)`
	}
	return `\` + f.name + `\left(` + arg + `\right)`
}

var greekLaTeX = map[string]string{
	"α": `\alpha`, "β": `\beta`, "γ": `\gamma`, "δ": `\delta`, "ε": `\epsilon`,
	"κ": `\kappa`, "λ": `\lambda`, "μ": `\mu`, "ν": `\nu`, "π": `\pi`,
	"ρ": `\rho`, "σ": `\sigma`, "τ": `\tau`, "φ": `\phi`, "ω": `\omega`,
	"Γ": `\Gamma`, "Δ": `\Delta`, "Φ": `\Phi`,
}

// latexName maps Greek letters to their commands and braces subscripts,
// so "φ_Rb" becomes \phi_{Rb}.
func latexName(name string) string {
	head, sub, hasSub := strings.Cut(name, "_")
	for g, cmd := range greekLaTeX {
		if head == g {
			head = cmd
			break
		}
	}
	if !hasSub {
		return head
	}
	return head + "_{" + sub + "}"
}

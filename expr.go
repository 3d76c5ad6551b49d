// Package symsolve is an exact symbolic solver for closed-form algebraic
// expressions in named real-valued unknowns.
//
// Expressions are immutable trees. Constructors apply automatic
// simplification, so two expressions built from the same value in any
// order are structurally equal. On top of that the package offers exact
// differentiation, substitution, rational simplification and a solver
// for polynomial, rational and square-root equations that reports every
// closed-form root together with its verification status.
package symsolve

import (
	"fmt"
	"math/big"
	"strings"
)

// ============================================================
// Expr: the core interface
// ============================================================

// Expr is an immutable symbolic expression.
type Expr interface {
	String() string
	LaTeX() string
	// Sub replaces every occurrence of the symbol varName by value.
	Sub(varName string, value Expr) Expr
	// Diff is the exact derivative with respect to varName.
	Diff(varName string) Expr
	Equal(other Expr) bool
	key() string
	exprType() string
	toJSON() map[string]interface{}
}

// ============================================================
// Num: exact rational number
// ============================================================

type Num struct{ val *big.Rat }

func N(n int64) *Num { return &Num{val: new(big.Rat).SetInt64(n)} }

// F returns the rational p/q. It panics if q is zero.
func F(p, q int64) *Num {
	if q == 0 {
		panic("symsolve: F: zero denominator")
	}
	return &Num{val: big.NewRat(p, q)}
}

// NRat returns a number holding a copy of r.
func NRat(r *big.Rat) *Num { return &Num{val: new(big.Rat).Set(r)} }

func (n *Num) Sub(string, Expr) Expr { return n }
func (n *Num) Diff(string) Expr      { return N(0) }
func (n *Num) Equal(other Expr) bool { o, ok := other.(*Num); return ok && n.val.Cmp(o.val) == 0 }
func (n *Num) exprType() string      { return "num" }
func (n *Num) key() string           { return "#" + n.val.RatString() }
func (n *Num) Rat() *big.Rat         { return new(big.Rat).Set(n.val) }
func (n *Num) Float64() float64      { f, _ := n.val.Float64(); return f }
func (n *Num) IsZero() bool          { return n.val.Sign() == 0 }
func (n *Num) IsOne() bool           { return n.val.IsInt() && n.val.Num().IsInt64() && n.val.Num().Int64() == 1 }
func (n *Num) IsInteger() bool       { return n.val.IsInt() }
func (n *Num) IsNegative() bool      { return n.val.Sign() < 0 }

func (n *Num) String() string { return n.val.RatString() }

func (n *Num) LaTeX() string {
	if n.val.IsInt() {
		return n.val.Num().String()
	}
	num, den := n.val.Num(), n.val.Denom()
	if num.Sign() < 0 {
		return fmt.Sprintf(`-\frac{%s}{%s}`, new(big.Int).Neg(num).String(), den.String())
	}
	return fmt.Sprintf(`\frac{%s}{%s}`, num.String(), den.String())
}

func (n *Num) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "num", "value": n.val.RatString()}
}

func numAdd(a, b *Num) *Num { return &Num{val: new(big.Rat).Add(a.val, b.val)} }
func numMul(a, b *Num) *Num { return &Num{val: new(big.Rat).Mul(a.val, b.val)} }
func numNeg(a *Num) *Num    { return &Num{val: new(big.Rat).Neg(a.val)} }

// ============================================================
// Sym: named unknown or parameter
// ============================================================

type Sym struct{ name string }

// S returns the symbol called name. It panics on an empty name.
func S(name string) *Sym {
	if name == "" {
		panic("symsolve: S: empty symbol name")
	}
	return &Sym{name: name}
}

// Symbols declares one symbol per name, in order.
func Symbols(names ...string) []*Sym {
	out := make([]*Sym, len(names))
	for i, n := range names {
		out[i] = S(n)
	}
	return out
}

func (s *Sym) Name() string          { return s.name }
func (s *Sym) String() string        { return s.name }
func (s *Sym) LaTeX() string         { return latexName(s.name) }
func (s *Sym) Equal(other Expr) bool { o, ok := other.(*Sym); return ok && s.name == o.name }
func (s *Sym) exprType() string      { return "sym" }
func (s *Sym) key() string           { return s.name }
func (s *Sym) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "sym", "name": s.name}
}

func (s *Sym) Sub(varName string, value Expr) Expr {
	if s.name == varName {
		return value
	}
	return s
}

func (s *Sym) Diff(varName string) Expr {
	if s.name == varName {
		return N(1)
	}
	return N(0)
}

// ============================================================
// Add: canonical sum
// ============================================================

// Add holds at least two terms, no nested sums, at most one numeric
// term (last) and no two terms that differ only by coefficient.
type Add struct {
	terms []Expr
	k     string
}

// AddOf returns the simplified sum of terms.
func AddOf(terms ...Expr) Expr { return simplifySum(terms) }

func newAdd(terms []Expr) *Add {
	keys := make([]string, len(terms))
	for i, t := range terms {
		keys[i] = t.key()
	}
	return &Add{terms: terms, k: "(+ " + strings.Join(keys, " ") + ")"}
}

func (a *Add) Terms() []Expr    { return append([]Expr(nil), a.terms...) }
func (a *Add) key() string      { return a.k }
func (a *Add) exprType() string { return "add" }
func (a *Add) Equal(other Expr) bool {
	o, ok := other.(*Add)
	return ok && a.k == o.k
}

func (a *Add) Sub(varName string, value Expr) Expr {
	out := make([]Expr, len(a.terms))
	for i, t := range a.terms {
		out[i] = t.Sub(varName, value)
	}
	return AddOf(out...)
}

func (a *Add) Diff(varName string) Expr {
	out := make([]Expr, len(a.terms))
	for i, t := range a.terms {
		out[i] = t.Diff(varName)
	}
	return AddOf(out...)
}

func (a *Add) toJSON() map[string]interface{} {
	terms := make([]interface{}, len(a.terms))
	for i, t := range a.terms {
		terms[i] = t.toJSON()
	}
	return map[string]interface{}{"type": "add", "terms": terms}
}

// ============================================================
// Mul: canonical product
// ============================================================

// Mul holds at least two factors, no nested products, an optional
// numeric coefficient first and no two factors with the same base.
type Mul struct {
	factors []Expr
	k       string
}

// MulOf returns the simplified product of factors.
func MulOf(factors ...Expr) Expr { return simplifyProduct(factors) }

func newMul(factors []Expr) *Mul {
	keys := make([]string, len(factors))
	for i, f := range factors {
		keys[i] = f.key()
	}
	return &Mul{factors: factors, k: "(* " + strings.Join(keys, " ") + ")"}
}

func (m *Mul) Factors() []Expr  { return append([]Expr(nil), m.factors...) }
func (m *Mul) key() string      { return m.k }
func (m *Mul) exprType() string { return "mul" }
func (m *Mul) Equal(other Expr) bool {
	o, ok := other.(*Mul)
	return ok && m.k == o.k
}

func (m *Mul) Sub(varName string, value Expr) Expr {
	out := make([]Expr, len(m.factors))
	for i, f := range m.factors {
		out[i] = f.Sub(varName, value)
	}
	return MulOf(out...)
}

// Diff applies the product rule over all factors.
func (m *Mul) Diff(varName string) Expr {
	terms := make([]Expr, 0, len(m.factors))
	for i, f := range m.factors {
		df := f.Diff(varName)
		if isZero(df) {
			continue
		}
		rest := make([]Expr, 0, len(m.factors))
		for j, g := range m.factors {
			if j != i {
				rest = append(rest, g)
			}
		}
		terms = append(terms, MulOf(append(rest, df)...))
	}
	return AddOf(terms...)
}

func (m *Mul) toJSON() map[string]interface{} {
	factors := make([]interface{}, len(m.factors))
	for i, f := range m.factors {
		factors[i] = f.toJSON()
	}
	return map[string]interface{}{"type": "mul", "factors": factors}
}

// ============================================================
// Pow: base^exp
// ============================================================

type Pow struct {
	base, exp Expr
	k         string
}

// PowOf returns the simplified power base^exp.
func PowOf(base, exp Expr) Expr { return simplifyPow(base, exp) }

// SqrtOf is the principal square root, arg^(1/2).
func SqrtOf(arg Expr) Expr { return PowOf(arg, F(1, 2)) }

func newPow(base, exp Expr) *Pow {
	return &Pow{base: base, exp: exp, k: "(^ " + base.key() + " " + exp.key() + ")"}
}

func (p *Pow) Base() Expr       { return p.base }
func (p *Pow) ExpExpr() Expr    { return p.exp }
func (p *Pow) key() string      { return p.k }
func (p *Pow) exprType() string { return "pow" }
func (p *Pow) Equal(other Expr) bool {
	o, ok := other.(*Pow)
	return ok && p.k == o.k
}

func (p *Pow) Sub(varName string, value Expr) Expr {
	return PowOf(p.base.Sub(varName, value), p.exp.Sub(varName, value))
}

func (p *Pow) Diff(varName string) Expr {
	du := p.base.Diff(varName)
	dv := p.exp.Diff(varName)
	if isZero(dv) {
		if isZero(du) {
			return N(0)
		}
		// d/dx u^n = n * u^(n-1) * u'
		return MulOf(p.exp, PowOf(p.base, AddOf(p.exp, N(-1))), du)
	}
	if isZero(du) {
		// d/dx a^v = a^v * ln(a) * v'
		return MulOf(p, LnOf(p.base), dv)
	}
	// d/dx u^v = u^v * (v' ln u + v u'/u)
	return MulOf(p, AddOf(
		MulOf(dv, LnOf(p.base)),
		MulOf(p.exp, du, PowOf(p.base, N(-1))),
	))
}

func (p *Pow) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "pow", "base": p.base.toJSON(), "exp": p.exp.toJSON()}
}

// ============================================================
// Func: elementary function application
// ============================================================

type Func struct {
	name string
	arg  Expr
	k    string
}

func SinOf(arg Expr) Expr  { return simplifyFunc("sin", arg) }
func CosOf(arg Expr) Expr  { return simplifyFunc("cos", arg) }
func TanOf(arg Expr) Expr  { return simplifyFunc("tan", arg) }
func ExpOf(arg Expr) Expr  { return simplifyFunc("exp", arg) }
func LnOf(arg Expr) Expr   { return simplifyFunc("ln", arg) }
func AsinOf(arg Expr) Expr { return simplifyFunc("asin", arg) }
func AcosOf(arg Expr) Expr { return simplifyFunc("acos", arg) }
func AtanOf(arg Expr) Expr { return simplifyFunc("atan", arg) }
func SinhOf(arg Expr) Expr { return simplifyFunc("sinh", arg) }
func CoshOf(arg Expr) Expr { return simplifyFunc("cosh", arg) }
func TanhOf(arg Expr) Expr { return simplifyFunc("tanh", arg) }

var knownFuncs = map[string]bool{
	"sin": true, "cos": true, "tan": true, "exp": true, "ln": true,
	"asin": true, "acos": true, "atan": true, "sinh": true, "cosh": true, "tanh": true,
}

func newFunc(name string, arg Expr) *Func {
	return &Func{name: name, arg: arg, k: "(" + name + " " + arg.key() + ")"}
}

func (f *Func) FuncName() string { return f.name }
func (f *Func) Arg() Expr        { return f.arg }
func (f *Func) key() string      { return f.k }
func (f *Func) exprType() string { return "func" }
func (f *Func) Equal(other Expr) bool {
	o, ok := other.(*Func)
	return ok && f.k == o.k
}

func (f *Func) Sub(varName string, value Expr) Expr {
	return simplifyFunc(f.name, f.arg.Sub(varName, value))
}

// Diff applies the chain rule.
func (f *Func) Diff(varName string) Expr {
	du := f.arg.Diff(varName)
	if isZero(du) {
		return N(0)
	}
	u := f.arg
	var outer Expr
	switch f.name {
	case "sin":
		outer = CosOf(u)
	case "cos":
		outer = Neg(SinOf(u))
	case "tan":
		outer = PowOf(CosOf(u), N(-2))
	case "exp":
		outer = f
	case "ln":
		outer = PowOf(u, N(-1))
	case "asin":
		outer = PowOf(Minus(N(1), PowOf(u, N(2))), F(-1, 2))
	case "acos":
		outer = Neg(PowOf(Minus(N(1), PowOf(u, N(2))), F(-1, 2)))
	case "atan":
		outer = PowOf(AddOf(N(1), PowOf(u, N(2))), N(-1))
	case "sinh":
		outer = CoshOf(u)
	case "cosh":
		outer = SinhOf(u)
	case "tanh":
		outer = Minus(N(1), PowOf(TanhOf(u), N(2)))
	}
	return MulOf(outer, du)
}

func (f *Func) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "func", "name": f.name, "arg": f.arg.toJSON()}
}

// ============================================================
// Undefined: result of dividing by a literal zero
// ============================================================

// Undefined is absorbing: any expression containing it is Undefined.
type Undefined struct{}

var undefined = &Undefined{}

func (u *Undefined) String() string        { return "zoo" }
func (u *Undefined) LaTeX() string         { return `\tilde{\infty}` }
func (u *Undefined) Sub(string, Expr) Expr { return u }
func (u *Undefined) Diff(string) Expr      { return u }
func (u *Undefined) Equal(other Expr) bool { _, ok := other.(*Undefined); return ok }
func (u *Undefined) key() string           { return "zoo" }
func (u *Undefined) exprType() string      { return "undefined" }
func (u *Undefined) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "undefined"}
}

// ============================================================
// Arithmetic helpers
// ============================================================

// Neg returns -e.
func Neg(e Expr) Expr { return MulOf(N(-1), e) }

// Minus returns a - b.
func Minus(a, b Expr) Expr { return AddOf(a, Neg(b)) }

// Quo returns a / b.
func Quo(a, b Expr) Expr { return MulOf(a, PowOf(b, N(-1))) }

func isZero(e Expr) bool {
	n, ok := e.(*Num)
	return ok && n.IsZero()
}

func isOne(e Expr) bool {
	n, ok := e.(*Num)
	return ok && n.IsOne()
}

// IsUndefined reports whether e is the undefined value produced by a
// division by zero.
func IsUndefined(e Expr) bool {
	_, ok := e.(*Undefined)
	return ok
}

// ============================================================
// Equation
// ============================================================

type Equation struct{ LHS, RHS Expr }

func Eq(lhs, rhs Expr) *Equation { return &Equation{LHS: lhs, RHS: rhs} }

func (e *Equation) String() string { return e.LHS.String() + " = " + e.RHS.String() }
func (e *Equation) LaTeX() string  { return e.LHS.LaTeX() + " = " + e.RHS.LaTeX() }

// Residual returns LHS - RHS.
func (e *Equation) Residual() Expr { return Minus(e.LHS, e.RHS) }

package symsolve

import (
	"fmt"
	"math"
	"math/cmplx"
)

// ============================================================
// Numeric evaluation
// ============================================================

// Point assigns numeric values to symbols by name.
type Point map[string]float64

// realTol is the largest imaginary part still treated as real.
const realTol = 1e-9

// Evaluate computes e at the point with principal branches for
// fractional powers and logarithms.
func Evaluate(e Expr, at Point) (complex128, error) {
	switch v := e.(type) {
	case *Num:
		return complex(v.Float64(), 0), nil
	case *Sym:
		x, ok := at[v.name]
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrUnboundSymbol, v.name)
		}
		return complex(x, 0), nil
	case *Add:
		var sum complex128
		for _, t := range v.terms {
			x, err := Evaluate(t, at)
			if err != nil {
				return 0, err
			}
			sum += x
		}
		return sum, nil
	case *Mul:
		prod := complex(1, 0)
		for _, f := range v.factors {
			x, err := Evaluate(f, at)
			if err != nil {
				return 0, err
			}
			prod *= x
		}
		return prod, nil
	case *Pow:
		b, err := Evaluate(v.base, at)
		if err != nil {
			return 0, err
		}
		if n, ok := v.exp.(*Num); ok && n.IsInteger() && n.val.Num().IsInt64() {
			return intPow(b, n.val.Num().Int64())
		}
		x, err := Evaluate(v.exp, at)
		if err != nil {
			return 0, err
		}
		if b == 0 {
			if real(x) > 0 {
				return 0, nil
			}
			return 0, ErrDivisionByZero
		}
		return cmplx.Pow(b, x), nil
	case *Func:
		x, err := Evaluate(v.arg, at)
		if err != nil {
			return 0, err
		}
		return evalFunc(v.name, x)
	case *Undefined:
		return 0, ErrDivisionByZero
	}
	return 0, fmt.Errorf("symsolve: cannot evaluate %T", e)
}

func intPow(b complex128, n int64) (complex128, error) {
	if n < 0 {
		if b == 0 {
			return 0, ErrDivisionByZero
		}
		b = 1 / b
		n = -n
	}
	out := complex(1, 0)
	for n > 0 {
		if n&1 == 1 {
			out *= b
		}
		b *= b
		n >>= 1
	}
	return out, nil
}

func evalFunc(name string, x complex128) (complex128, error) {
	switch name {
	case "sin":
		return cmplx.Sin(x), nil
	case "cos":
		return cmplx.Cos(x), nil
	case "tan":
		return cmplx.Tan(x), nil
	case "exp":
		return cmplx.Exp(x), nil
	case "ln":
		if x == 0 {
			return 0, ErrDivisionByZero
		}
		return cmplx.Log(x), nil
	case "asin":
		return cmplx.Asin(x), nil
	case "acos":
		return cmplx.Acos(x), nil
	case "atan":
		return cmplx.Atan(x), nil
	case "sinh":
		return cmplx.Sinh(x), nil
	case "cosh":
		return cmplx.Cosh(x), nil
	case "tanh":
		return cmplx.Tanh(x), nil
	}
	return 0, fmt.Errorf("symsolve: unknown function %q", name)
}

// EvaluateReal evaluates e and fails unless the value is real.
func EvaluateReal(e Expr, at Point) (float64, error) {
	z, err := Evaluate(e, at)
	if err != nil {
		return 0, err
	}
	if math.Abs(imag(z)) > realTol*math.Max(1, math.Abs(real(z))) {
		return 0, fmt.Errorf("symsolve: %s is not real at the point (%v)", e.String(), z)
	}
	return real(z), nil
}

// ============================================================
// Root selection predicates
// ============================================================

// RealAt accepts roots that evaluate to a real number at the point.
func RealAt(at Point) func(Expr) bool {
	return func(e Expr) bool {
		_, err := EvaluateReal(e, at)
		return err == nil
	}
}

// PositiveAt accepts roots that are real and strictly positive at the
// point.
func PositiveAt(at Point) func(Expr) bool {
	return func(e Expr) bool {
		x, err := EvaluateReal(e, at)
		return err == nil && x > 0
	}
}

// InIntervalAt accepts roots that are real and lie in [lo, hi] at the
// point.
func InIntervalAt(at Point, lo, hi float64) func(Expr) bool {
	return func(e Expr) bool {
		x, err := EvaluateReal(e, at)
		return err == nil && x >= lo && x <= hi
	}
}

// With returns a copy of the point with extra assignments.
func (p Point) With(name string, value float64) Point {
	out := make(Point, len(p)+1)
	for k, v := range p {
		out[k] = v
	}
	out[name] = value
	return out
}

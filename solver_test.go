package symsolve_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/symsolve"
)

// ============================================================
// Simplify
// ============================================================

func TestSimplify_CancelsCommonFactors(t *testing.T) {
	e := symsolve.Quo(symsolve.Minus(symsolve.PowOf(x, symsolve.N(2)), symsolve.N(1)), symsolve.AddOf(x, symsolve.N(1)))
	assert.Equal(t, "x - 1", symsolve.Simplify(e).String())

	e = symsolve.AddOf(symsolve.Quo(symsolve.N(1), x), symsolve.Quo(symsolve.N(1), y))
	assert.True(t, symsolve.Simplify(e).Equal(symsolve.Quo(symsolve.AddOf(x, y), symsolve.MulOf(x, y))))
}

func TestSimplify_Idempotent(t *testing.T) {
	exprs := []symsolve.Expr{
		symsolve.Quo(symsolve.Minus(symsolve.PowOf(x, symsolve.N(2)), symsolve.N(1)), symsolve.AddOf(x, symsolve.N(1))),
		symsolve.AddOf(symsolve.Quo(a, b), symsolve.Quo(b, a)),
		symsolve.MulOf(symsolve.SqrtOf(x), symsolve.SqrtOf(x), y),
		symsolve.Quo(symsolve.AddOf(symsolve.Neg(b), symsolve.SqrtOf(symsolve.Minus(symsolve.PowOf(b, symsolve.N(2)), symsolve.MulOf(symsolve.N(4), a, c)))), symsolve.MulOf(symsolve.N(2), a)),
	}
	for _, e := range exprs {
		once := symsolve.Simplify(e)
		assert.True(t, symsolve.Simplify(once).Equal(once), "not idempotent: %s", e)
	}
}

func TestSolverSimplify_DivisionByZero(t *testing.T) {
	_, err := symsolve.NewSolver().Simplify(symsolve.Quo(x, symsolve.Minus(y, y)))
	assert.ErrorIs(t, err, symsolve.ErrDivisionByZero)
}

// ============================================================
// Solve: polynomials
// ============================================================

func TestSolve_Linear(t *testing.T) {
	set, err := symsolve.NewSolver().Solve(symsolve.AddOf(symsolve.MulOf(symsolve.N(3), x), symsolve.N(-6)), x)
	require.NoError(t, err)
	require.Equal(t, 1, set.Len())
	assert.Equal(t, "2", set.Roots[0].Value.String())
	assert.Equal(t, symsolve.RootVerified, set.Roots[0].Status)
}

func TestSolve_GeneralQuadratic(t *testing.T) {
	e := symsolve.AddOf(symsolve.MulOf(a, symsolve.PowOf(x, symsolve.N(2))), symsolve.MulOf(b, x), c)
	set, err := symsolve.NewSolver().Solve(e, x)
	require.NoError(t, err)
	require.Equal(t, 2, set.Len())

	disc := symsolve.SqrtOf(symsolve.Minus(symsolve.PowOf(b, symsolve.N(2)), symsolve.MulOf(symsolve.N(4), a, c)))
	assert.True(t, set.Contains(symsolve.Quo(symsolve.AddOf(symsolve.Neg(b), disc), symsolve.MulOf(symsolve.N(2), a))))
	assert.True(t, set.Contains(symsolve.Quo(symsolve.Minus(symsolve.Neg(b), disc), symsolve.MulOf(symsolve.N(2), a))))
	for _, r := range set.Exprs() {
		assert.Equal(t, "0", symsolve.Simplify(e.Sub("x", r)).String())
	}
}

func TestSolve_RationalRootsAscending(t *testing.T) {
	e := symsolve.Expand(symsolve.MulOf(symsolve.Minus(x, symsolve.N(1)), symsolve.Minus(x, symsolve.N(2)), symsolve.AddOf(x, symsolve.N(3))))
	set, err := symsolve.NewSolver().Solve(e, x)
	require.NoError(t, err)
	assert.Equal(t, "{-3, 1, 2}", set.String())
	for _, r := range set.Exprs() {
		assert.Equal(t, "0", symsolve.Simplify(e.Sub("x", r)).String())
	}
}

func TestSolve_IrrationalPair(t *testing.T) {
	set, err := symsolve.NewSolver().Solve(symsolve.Minus(symsolve.PowOf(x, symsolve.N(2)), symsolve.N(2)), x)
	require.NoError(t, err)
	require.Equal(t, 2, set.Len())
	assert.Equal(t, "sqrt(2)", set.Roots[0].Value.String())
	assert.Equal(t, "-sqrt(2)", set.Roots[1].Value.String())
	for _, r := range set.Exprs() {
		assert.True(t, isZeroExpr(symsolve.Minus(symsolve.PowOf(r, symsolve.N(2)), symsolve.N(2))))
	}
}

func TestSolve_ZeroRootFirst(t *testing.T) {
	set, err := symsolve.NewSolver().Solve(symsolve.Minus(symsolve.PowOf(x, symsolve.N(3)), symsolve.MulOf(symsolve.N(4), x)), x)
	require.NoError(t, err)
	assert.Equal(t, "{0, -2, 2}", set.String())
}

func TestSolve_Biquadratic(t *testing.T) {
	// x^4 - 5x^2 + 6 = (x^2 - 2)(x^2 - 3)
	e := symsolve.AddOf(symsolve.PowOf(x, symsolve.N(4)), symsolve.MulOf(symsolve.N(-5), symsolve.PowOf(x, symsolve.N(2))), symsolve.N(6))
	set, err := symsolve.NewSolver().Solve(e, x)
	require.NoError(t, err)
	assert.Equal(t, 4, set.Len())
	assert.True(t, set.Contains(symsolve.SqrtOf(symsolve.N(3))))
	assert.True(t, set.Contains(symsolve.Neg(symsolve.SqrtOf(symsolve.N(2)))))
}

func TestSolve_CubicWithOneRealRoot(t *testing.T) {
	e := symsolve.AddOf(symsolve.PowOf(x, symsolve.N(3)), x, symsolve.N(1))
	set, err := symsolve.NewSolver().Solve(e, x)
	require.NoError(t, err)
	require.Equal(t, 3, set.Len())

	reals := set.Select(symsolve.RealAt(symsolve.Point{}))
	require.Len(t, reals, 1)
	v, err := symsolve.EvaluateReal(reals[0], symsolve.Point{})
	require.NoError(t, err)
	assert.InDelta(t, -0.6823278, v, 1e-6)

	for _, r := range set.Exprs() {
		assert.Equal(t, "0", symsolve.Simplify(e.Sub("x", r)).String())
	}
}

func TestSolve_RationalEquationCancelsPole(t *testing.T) {
	// x/(x - 1) - 1/(x - 1) cancels to 1; x = 1 is never a root.
	eq := symsolve.Eq(symsolve.Quo(x, symsolve.Minus(x, symsolve.N(1))), symsolve.Quo(symsolve.N(1), symsolve.Minus(x, symsolve.N(1))))
	set, err := symsolve.NewSolver().SolveEquation(eq, x)
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())
}

func TestSolve_RationalEquation(t *testing.T) {
	// 1/x + 1/(x + 1) = 1/2  gives x^2 - 3x - 2 = 0
	eq := symsolve.Eq(symsolve.AddOf(symsolve.Quo(symsolve.N(1), x), symsolve.Quo(symsolve.N(1), symsolve.AddOf(x, symsolve.N(1)))), symsolve.F(1, 2))
	set, err := symsolve.NewSolver().SolveEquation(eq, x)
	require.NoError(t, err)
	assert.Equal(t, 2, set.Len())
	assert.True(t, set.Contains(symsolve.Quo(symsolve.AddOf(symsolve.N(3), symsolve.SqrtOf(symsolve.N(17))), symsolve.N(2))))
}

// ============================================================
// Solve: radicals
// ============================================================

func TestSolve_RadicalDiscardsExtraneousRoot(t *testing.T) {
	set, err := symsolve.NewSolver().SolveEquation(symsolve.Eq(symsolve.SqrtOf(x), symsolve.Minus(x, symsolve.N(2))), x)
	require.NoError(t, err)
	assert.True(t, set.Squared)
	require.Equal(t, 1, set.Len())
	assert.Equal(t, "4", set.Roots[0].Value.String())
	assert.Equal(t, symsolve.RootVerified, set.Roots[0].Status)
	require.Len(t, set.Discarded, 1)
	assert.Equal(t, "1", set.Discarded[0].String())
}

func TestSolve_RadicalAmbiguousWithoutBranchPoint(t *testing.T) {
	eq := symsolve.Eq(symsolve.SqrtOf(x), symsolve.Minus(x, a))
	set, err := symsolve.NewSolver().SolveEquation(eq, x)
	require.Error(t, err)
	assert.True(t, symsolve.IsAmbiguous(err))
	assert.ErrorIs(t, err, symsolve.ErrExtraneousRootAmbiguity)
	require.NotNil(t, set)
	assert.Equal(t, 2, set.Len())
	for _, r := range set.Roots {
		assert.Equal(t, symsolve.RootUnverified, r.Status)
	}
}

func TestSolve_RadicalResolvedAtBranchPoint(t *testing.T) {
	s := symsolve.NewSolver(symsolve.WithBranchPoint(symsolve.Point{"a": 2}))
	set, err := s.SolveEquation(symsolve.Eq(symsolve.SqrtOf(x), symsolve.Minus(x, a)), x)
	require.NoError(t, err)
	require.Equal(t, 1, set.Len())
	assert.Equal(t, symsolve.RootNumeric, set.Roots[0].Status)

	v, err := symsolve.EvaluateReal(set.Roots[0].Value, symsolve.Point{"a": 2})
	require.NoError(t, err)
	assert.InDelta(t, 4.0, v, 1e-12)
}

func TestSolve_RadicalSquaringLeavesNoUnknown(t *testing.T) {
	// sqrt(x^2 - 1) + x = 0 squares to 1 = 0.
	e := symsolve.AddOf(symsolve.SqrtOf(symsolve.Minus(symsolve.PowOf(x, symsolve.N(2)), symsolve.N(1))), x)
	set, err := symsolve.NewSolver().Solve(e, x)
	require.NoError(t, err)
	assert.True(t, set.Squared)
	assert.Equal(t, 0, set.Len())
	assert.Empty(t, set.Discarded)
}

func TestSolve_RadicalSquaringCancelsEveryTerm(t *testing.T) {
	// sqrt(x^2) - x = 0 squares to 0 = 0.
	e := symsolve.Minus(symsolve.SqrtOf(symsolve.PowOf(x, symsolve.N(2))), x)
	set, err := symsolve.NewSolver().Solve(e, x)
	require.Error(t, err)
	assert.ErrorIs(t, err, symsolve.ErrExtraneousRootAmbiguity)
	assert.True(t, symsolve.IsAmbiguous(err))
	assert.NotErrorIs(t, err, symsolve.ErrClosedFormUnsolvable)

	var se *symsolve.SolveError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "x", se.Symbol)

	require.NotNil(t, set)
	assert.True(t, set.Squared)
	assert.Equal(t, 0, set.Len())
}

func TestSolve_OptimalAllocationClosedForm(t *testing.T) {
	nu, gamma, k := symsolve.S("ν"), symsolve.S("γ"), symsolve.S("K")
	phiO, phiR := symsolve.S("φ_O"), symsolve.S("φ_R")

	flux := symsolve.MulOf(nu, symsolve.AddOf(symsolve.N(1), symsolve.Neg(phiO), symsolve.Neg(phiR)))
	trans := symsolve.MulOf(gamma, phiR)
	sum := symsolve.AddOf(flux, trans)
	oneMinusK := symsolve.Minus(symsolve.N(1), k)
	disc := symsolve.Minus(symsolve.PowOf(sum, symsolve.N(2)), symsolve.MulOf(symsolve.N(4), oneMinusK, flux, trans))
	lam := symsolve.Quo(symsolve.AddOf(symsolve.Neg(sum), symsolve.SqrtOf(disc)), symsolve.MulOf(symsolve.N(2), oneMinusK))

	// (φ_O - 1)(-ν(-2Kγ + γ + ν) + sqrt(Kγν)(ν - γ)) / (γ^2 + 2γν + ν^2 - 4Kγν)
	published := symsolve.Quo(
		symsolve.MulOf(
			symsolve.Minus(phiO, symsolve.N(1)),
			symsolve.AddOf(
				symsolve.Neg(symsolve.MulOf(nu, symsolve.AddOf(symsolve.MulOf(symsolve.N(-2), k, gamma), gamma, nu))),
				symsolve.MulOf(symsolve.SqrtOf(symsolve.MulOf(k, gamma, nu)), symsolve.Minus(nu, gamma)),
			),
		),
		symsolve.AddOf(
			symsolve.PowOf(gamma, symsolve.N(2)),
			symsolve.MulOf(symsolve.N(2), gamma, nu),
			symsolve.PowOf(nu, symsolve.N(2)),
			symsolve.MulOf(symsolve.N(-4), k, gamma, nu),
		),
	)

	s := symsolve.NewSolver()
	dl, err := s.Differentiate(lam, phiR)
	require.NoError(t, err)
	set, err := s.Solve(dl, phiR)

	// Without a branch point neither squared root can be checked.
	assert.ErrorIs(t, err, symsolve.ErrExtraneousRootAmbiguity)
	require.NotNil(t, set)
	require.Equal(t, 2, set.Len())
	for _, r := range set.Roots {
		assert.Equal(t, symsolve.RootUnverified, r.Status)
	}

	found := false
	for _, r := range set.Exprs() {
		if isZeroExpr(symsolve.Minus(r, published)) {
			found = true
		}
	}
	assert.True(t, found, "no root equals the published optimum exactly")
	assert.True(t, set.Contains(published))
}

// ============================================================
// Solve: errors
// ============================================================

func TestSolve_Errors(t *testing.T) {
	s := symsolve.NewSolver()
	tests := []struct {
		name string
		e    symsolve.Expr
		want error
	}{
		{"unknown absent", symsolve.AddOf(y, symsolve.N(1)), symsolve.ErrUnknownNotPresent},
		{"identity", symsolve.Minus(symsolve.PowOf(symsolve.AddOf(x, symsolve.N(1)), symsolve.N(2)), symsolve.AddOf(symsolve.PowOf(x, symsolve.N(2)), symsolve.MulOf(symsolve.N(2), x), symsolve.N(1))), symsolve.ErrIdentity},
		{"quintic", symsolve.AddOf(symsolve.PowOf(x, symsolve.N(5)), symsolve.Neg(x), symsolve.N(-1)), symsolve.ErrClosedFormUnsolvable},
		{"transcendental", symsolve.Minus(symsolve.SinOf(x), x), symsolve.ErrClosedFormUnsolvable},
		{"division by zero", symsolve.Quo(x, symsolve.N(0)), symsolve.ErrDivisionByZero},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := s.Solve(tt.e, x)
			require.Error(t, err)
			assert.Nil(t, set)
			assert.ErrorIs(t, err, tt.want)

			var se *symsolve.SolveError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, "solve", se.Op)
			assert.Equal(t, "x", se.Symbol)
		})
	}
}

func TestSolve_DegreeCap(t *testing.T) {
	s := symsolve.NewSolver(symsolve.WithMaxDegree(2))
	_, err := s.Solve(symsolve.AddOf(symsolve.PowOf(x, symsolve.N(3)), x, symsolve.N(1)), x)
	assert.ErrorIs(t, err, symsolve.ErrClosedFormUnsolvable)
}

func TestSolve_ConstantNumeratorHasNoRoots(t *testing.T) {
	set, err := symsolve.NewSolver().Solve(symsolve.Quo(symsolve.N(1), x), x)
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())
}

// ============================================================
// Selection
// ============================================================

func TestSolutionSet_Unique(t *testing.T) {
	set, err := symsolve.NewSolver().Solve(symsolve.Minus(symsolve.PowOf(x, symsolve.N(2)), symsolve.N(4)), x)
	require.NoError(t, err)

	r, err := set.Unique(symsolve.PositiveAt(symsolve.Point{}))
	require.NoError(t, err)
	assert.Equal(t, "2", r.String())

	_, err = set.Unique(symsolve.RealAt(symsolve.Point{}))
	assert.Error(t, err)
	_, err = set.Unique(symsolve.InIntervalAt(symsolve.Point{}, 5, 10))
	assert.Error(t, err)
}

func TestEvaluate_UnboundSymbol(t *testing.T) {
	_, err := symsolve.Evaluate(x, symsolve.Point{})
	assert.ErrorIs(t, err, symsolve.ErrUnboundSymbol)

	v, err := symsolve.EvaluateReal(symsolve.AddOf(symsolve.PowOf(x, symsolve.N(2)), y), symsolve.Point{"x": 3, "y": 1})
	require.NoError(t, err)
	assert.InDelta(t, 10.0, v, 1e-12)
}

func TestSolver_WithCopiesOptions(t *testing.T) {
	base := symsolve.NewSolver(symsolve.WithMaxDegree(2))
	wide := base.With(symsolve.WithMaxDegree(8))
	e := symsolve.AddOf(symsolve.PowOf(x, symsolve.N(3)), symsolve.Neg(x))

	_, err := base.Solve(e, x)
	assert.ErrorIs(t, err, symsolve.ErrClosedFormUnsolvable)
	set, err := wide.Solve(e, x)
	require.NoError(t, err)
	assert.Equal(t, 3, set.Len())
}

func isZeroExpr(e symsolve.Expr) bool { return symsolve.Simplify(e).Equal(symsolve.N(0)) }

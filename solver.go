package symsolve

import (
	"errors"
	"fmt"
	"math/big"
	"math/cmplx"

	"go.uber.org/zap"
)

// ============================================================
// Solver
// ============================================================

const (
	defaultMaxDegree = 64
	maxRadicalPasses = 4
	residualTol      = 1e-9
)

var bigTwo = big.NewInt(2)

// Solver differentiates, simplifies, substitutes and solves. It holds
// configuration only and is safe for concurrent use.
type Solver struct {
	logger      *zap.Logger
	maxDegree   int
	branchPoint Point
}

// Option configures a Solver.
type Option func(*Solver)

// WithLogger sets the logger; the default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *Solver) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxDegree caps the degree of polynomials handed to the root
// formulas.
func WithMaxDegree(n int) Option {
	return func(s *Solver) {
		if n > 0 {
			s.maxDegree = n
		}
	}
}

// WithBranchPoint sets a numeric reference point. Roots introduced by
// clearing radicals that cannot be decided symbolically are checked
// against the original equation at this point.
func WithBranchPoint(p Point) Option {
	return func(s *Solver) { s.branchPoint = p }
}

func NewSolver(opts ...Option) *Solver {
	s := &Solver{logger: zap.NewNop(), maxDegree: defaultMaxDegree}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// With returns a copy of s with opts applied.
func (s *Solver) With(opts ...Option) *Solver {
	c := *s
	for _, opt := range opts {
		opt(&c)
	}
	return &c
}

// Differentiate returns the exact derivative of e with respect to wrt.
// The result is the literal 0 when wrt does not occur in e.
func (s *Solver) Differentiate(e Expr, wrt *Sym) (Expr, error) {
	if containsUndefined(e) {
		return nil, &SolveError{Op: "differentiate", Symbol: wrt.name, Err: ErrDivisionByZero}
	}
	return e.Diff(wrt.name), nil
}

// Simplify returns the canonical rational form of e.
func (s *Solver) Simplify(e Expr) (Expr, error) {
	out, err := simplifyRational(e)
	if err != nil {
		return nil, &SolveError{Op: "simplify", Err: err}
	}
	return out, nil
}

// Substitute replaces every occurrence of sym in e by replacement.
func (s *Solver) Substitute(e Expr, sym *Sym, replacement Expr) (Expr, error) {
	out := e.Sub(sym.name, replacement)
	if IsUndefined(out) {
		return nil, &SolveError{Op: "substitute", Symbol: sym.name, Err: ErrDivisionByZero}
	}
	return out, nil
}

// SolveEquation solves LHS = RHS for x.
func (s *Solver) SolveEquation(eq *Equation, x *Sym) (*SolutionSet, error) {
	return s.Solve(eq.Residual(), x)
}

// Solve returns every closed-form root of e = 0 in x.
//
// When radicals had to be squared away and some root could be checked
// neither exactly nor numerically, the returned set is complete but
// the error is ErrExtraneousRootAmbiguity.
func (s *Solver) Solve(e Expr, x *Sym) (*SolutionSet, error) {
	fail := func(err error) (*SolutionSet, error) {
		return nil, &SolveError{Op: "solve", Symbol: x.name, Err: err}
	}
	if containsUndefined(e) {
		return fail(ErrDivisionByZero)
	}
	if FreeOf(e, x.name) {
		return fail(ErrUnknownNotPresent)
	}
	num, den, err := together(e)
	if err != nil {
		return fail(err)
	}
	if isZero(num) {
		return fail(ErrIdentity)
	}
	set := &SolutionSet{Symbol: x}
	if FreeOf(num, x.name) {
		return set, nil
	}

	cleared, squared, err := clearRadicals(num, x.name)
	if err != nil {
		return fail(err)
	}
	set.Squared = squared
	if squared {
		s.logger.Debug("cleared radicals", zap.String("symbol", x.name), zap.Int("terms", len(termsOf(cleared))))
	}
	if squared && FreeOf(cleared, x.name) {
		if isZero(cleared) {
			// Squaring cancelled every term; the original may or may not vanish.
			err := fmt.Errorf("%w: squaring cancelled every term in %s", ErrExtraneousRootAmbiguity, x.name)
			return set, &SolveError{Op: "solve", Symbol: x.name, Err: err}
		}
		s.logger.Debug("no roots after clearing radicals", zap.String("symbol", x.name), zap.String("residual", cleared.String()))
		return set, nil
	}

	cands, err := s.polyRoots(cleared, x.name)
	if err != nil {
		return fail(err)
	}

	rs, dropped := s.normalizeCandidates(cands)
	set.Discarded = append(set.Discarded, dropped...)
	ambiguous := false
	for _, r := range rs {
		if vanishes(den, x.name, r) {
			s.logger.Debug("discarded pole", zap.String("root", r.String()))
			set.Discarded = append(set.Discarded, r)
			continue
		}
		status := RootVerified
		if squared {
			var keep bool
			status, keep = s.checkRoot(num, x.name, r)
			if !keep {
				s.logger.Debug("discarded extraneous root", zap.String("root", r.String()))
				set.Discarded = append(set.Discarded, r)
				continue
			}
			if status == RootUnverified {
				ambiguous = true
			}
		}
		set.Roots = append(set.Roots, Root{Value: r, Status: status})
	}
	s.logger.Debug("solved", zap.String("symbol", x.name), zap.Int("roots", len(set.Roots)), zap.Int("discarded", len(set.Discarded)))
	if ambiguous {
		return set, &SolveError{Op: "solve", Symbol: x.name, Err: ErrExtraneousRootAmbiguity}
	}
	return set, nil
}

// normalizeCandidates simplifies each candidate root and drops
// duplicates. Candidates that cannot be simplified are returned
// separately.
func (s *Solver) normalizeCandidates(cands []Expr) (roots, dropped []Expr) {
	seen := map[string]bool{}
	for _, c := range cands {
		r, err := simplifyRational(c)
		if err != nil {
			s.logger.Debug("discarded candidate", zap.String("root", c.String()), zap.Error(err))
			dropped = append(dropped, c)
			continue
		}
		if seen[r.key()] {
			continue
		}
		seen[r.key()] = true
		roots = append(roots, r)
	}
	return roots, dropped
}

// vanishes reports whether e is identically zero (or undefined) at x = r.
func vanishes(e Expr, x string, r Expr) bool {
	if FreeOf(e, x) {
		return false
	}
	v, err := simplifyRational(e.Sub(x, r))
	return err != nil || isZero(v)
}

// checkRoot decides whether a candidate from a squared equation solves
// the original numerator.
func (s *Solver) checkRoot(num Expr, x string, r Expr) (RootStatus, bool) {
	if vanishes(num, x, r) {
		return RootVerified, true
	}
	subst := num.Sub(x, r)
	if len(FreeSymbols(subst)) == 0 {
		ok, err := residualVanishes(num, x, r, Point{})
		if err == nil {
			return RootNumeric, ok
		}
	}
	if s.branchPoint != nil {
		ok, err := residualVanishes(num, x, r, s.branchPoint)
		if err == nil {
			return RootNumeric, ok
		}
		s.logger.Debug("branch point evaluation failed", zap.Error(err))
	}
	return RootUnverified, true
}

// residualVanishes evaluates num at x = r term by term and compares the
// sum against the magnitude of the terms.
func residualVanishes(num Expr, x string, r Expr, at Point) (bool, error) {
	var sum complex128
	var scale float64
	for _, t := range termsOf(num) {
		v, err := Evaluate(t.Sub(x, r), at)
		if err != nil {
			return false, err
		}
		sum += v
		scale += cmplx.Abs(v)
	}
	if scale == 0 {
		return true, nil
	}
	return cmplx.Abs(sum) <= residualTol*scale, nil
}

// clearRadicals squares away square roots of expressions in x until
// the numerator is polynomial in x.
func clearRadicals(num Expr, x string) (Expr, bool, error) {
	cur := expand(num)
	squared := false
	for pass := 0; pass <= maxRadicalPasses; pass++ {
		rad, found, err := findRadical(cur, x)
		if err != nil {
			return nil, false, err
		}
		if !found {
			return cur, squared, nil
		}
		if pass == maxRadicalPasses {
			break
		}
		a, b := splitRadical(cur, rad)
		cur = expand(Minus(MulOf(a, a), MulOf(b, b, rad)))
		squared = true
	}
	return nil, false, fmt.Errorf("%w: too many nested radicals", ErrClosedFormUnsolvable)
}

// findRadical returns the radicand of the first square root that
// depends on x. Any other non-polynomial dependence is unsupported.
func findRadical(e Expr, x string) (Expr, bool, error) {
	for _, t := range termsOf(e) {
		for _, f := range factorsOf(t) {
			if FreeOf(f, x) {
				continue
			}
			b, ex := baseExp(f)
			n, ok := ex.(*Num)
			if s, isSym := b.(*Sym); isSym && s.name == x && ok && n.IsInteger() && !n.IsNegative() {
				continue
			}
			if ok && n.val.Denom().Cmp(bigTwo) == 0 && n.val.Sign() > 0 {
				return b, true, nil
			}
			return nil, false, fmt.Errorf("%w: %s is not algebraic of degree two in %s", ErrClosedFormUnsolvable, f.String(), x)
		}
	}
	return nil, false, nil
}

// splitRadical writes e = a + b*sqrt(rad).
func splitRadical(e, rad Expr) (Expr, Expr) {
	var as, bs []Expr
	rk := rad.key()
	for _, t := range termsOf(e) {
		var rest []Expr
		hit := false
		for _, f := range factorsOf(t) {
			b, ex := baseExp(f)
			n, ok := ex.(*Num)
			if !hit && ok && b.key() == rk && n.val.Denom().Cmp(bigTwo) == 0 {
				hit = true
				// rad^(p/2) = rad^((p-1)/2) * sqrt(rad) for odd p.
				whole := new(big.Rat).Sub(n.val, big.NewRat(1, 2))
				rest = append(rest, PowOf(rad, &Num{val: whole}))
				continue
			}
			rest = append(rest, f)
		}
		if hit {
			bs = append(bs, MulOf(rest...))
		} else {
			as = append(as, t)
		}
	}
	return AddOf(as...), AddOf(bs...)
}

// polyErr wraps a degree failure.
func polyErr(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrClosedFormUnsolvable}, args...)...)
}

// IsAmbiguous reports whether err only flags roots that squaring left
// undecided, so the accompanying SolutionSet is usable.
func IsAmbiguous(err error) bool { return errors.Is(err, ErrExtraneousRootAmbiguity) }

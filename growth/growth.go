// Package growth derives the steady-state quantities of the flux-parity
// allocation model: growth rate, optimal ribosomal allocation, precursor
// pool and translation rate.
//
// Every derivation follows the same pattern: build the expression,
// differentiate where needed, solve for the unknown and pick the
// physical root by an explicit criterion evaluated at a numeric
// reference point.
package growth

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/njchilds90/symsolve"
)

// Symbols is the symbol set of one derivation.
type Symbols struct {
	Lambda   *symsolve.Sym // steady-state growth rate
	PhiRb    *symsolve.Sym // ribosomal allocation
	PhiO     *symsolve.Sym // allocation to other proteins
	NuMax    *symsolve.Sym // maximal metabolic rate
	GammaMax *symsolve.Sym // maximal translation rate
	Kd       *symsolve.Sym // precursor dissociation constant
	Cpc      *symsolve.Sym // precursor concentration
}

func NewSymbols() *Symbols {
	return &Symbols{
		Lambda:   symsolve.S("λ"),
		PhiRb:    symsolve.S("φ_Rb"),
		PhiO:     symsolve.S("φ_O"),
		NuMax:    symsolve.S("ν_max"),
		GammaMax: symsolve.S("γ_max"),
		Kd:       symsolve.S("K_D"),
		Cpc:      symsolve.S("c_pc"),
	}
}

// Reference is the parameter point used to select roots and to report
// numeric values.
type Reference struct {
	GammaMax float64 `json:"gamma_max" yaml:"gamma_max" koanf:"gamma_max" validate:"gt=0"`
	NuMax    float64 `json:"nu_max" yaml:"nu_max" koanf:"nu_max" validate:"gt=0"`
	Kd       float64 `json:"kd" yaml:"kd" koanf:"kd" validate:"gt=0,lt=1"`
	PhiO     float64 `json:"phi_o" yaml:"phi_o" koanf:"phi_o" validate:"gte=0,lt=1"`
	PhiRb    float64 `json:"phi_rb" yaml:"phi_rb" koanf:"phi_rb" validate:"gt=0,lt=1"`
}

func DefaultReference() Reference {
	return Reference{GammaMax: 9.65, NuMax: 4.5, Kd: 0.03, PhiO: 0.55, PhiRb: 0.2}
}

var validate = newValidator()

// newValidator reports fields by their json names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (r Reference) Validate() error {
	if err := validate.Struct(r); err != nil {
		return formatValidationError(err)
	}
	if r.PhiO+r.PhiRb >= 1 {
		return fmt.Errorf("phi_o + phi_rb must be below 1, got %g", r.PhiO+r.PhiRb)
	}
	return nil
}

func formatValidationError(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s", e.Field(), e.Tag(), e.Param()))
	}
	return fmt.Errorf("invalid reference: %s", strings.Join(msgs, "; "))
}

// Point binds the parameters to the symbols of sy.
func (r Reference) Point(sy *Symbols) symsolve.Point {
	return symsolve.Point{
		sy.GammaMax.Name(): r.GammaMax,
		sy.NuMax.Name():    r.NuMax,
		sy.Kd.Name():       r.Kd,
		sy.PhiO.Name():     r.PhiO,
		sy.PhiRb.Name():    r.PhiRb,
	}
}

// Derivation is the outcome of one derivation.
type Derivation struct {
	Name   string        `json:"name" yaml:"name"`
	Symbol string        `json:"symbol" yaml:"symbol"`
	Expr   symsolve.Expr `json:"-" yaml:"-"`
	String string        `json:"expr" yaml:"expr"`
	LaTeX  string        `json:"latex" yaml:"latex"`
	// Value is Expr evaluated at the reference point.
	Value float64 `json:"value" yaml:"value"`
	// Candidates counts the roots the solver returned before selection.
	Candidates int `json:"candidates,omitempty" yaml:"candidates,omitempty"`
	// Check is a residual that must vanish at the reference point.
	Check float64 `json:"check,omitempty" yaml:"check,omitempty"`
}

func newDerivation(name string, sym *symsolve.Sym, e symsolve.Expr, at symsolve.Point) (*Derivation, error) {
	v, err := symsolve.EvaluateReal(e, at)
	if err != nil {
		return nil, fmt.Errorf("%s: evaluate at reference: %w", name, err)
	}
	return &Derivation{
		Name:   name,
		Symbol: sym.Name(),
		Expr:   e,
		String: symsolve.ToDisplayString(e),
		LaTeX:  symsolve.LaTeX(e),
		Value:  v,
	}, nil
}

// ============================================================
// Model expressions
// ============================================================

// metabolicFlux is Nu = ν_max (1 - φ_O - φ_Rb).
func metabolicFlux(sy *Symbols) symsolve.Expr {
	return symsolve.MulOf(sy.NuMax, symsolve.AddOf(symsolve.N(1), symsolve.Neg(sy.PhiO), symsolve.Neg(sy.PhiRb)))
}

// translationalFlux is Γ = γ_max φ_Rb.
func translationalFlux(sy *Symbols) symsolve.Expr {
	return symsolve.MulOf(sy.GammaMax, sy.PhiRb)
}

// PrecursorBalance is c_pc = Nu/λ - 1, the steady state of the
// precursor pool.
func PrecursorBalance(sy *Symbols) symsolve.Expr {
	return symsolve.Minus(symsolve.Quo(metabolicFlux(sy), sy.Lambda), symsolve.N(1))
}

// FluxBalance is λ (c_pc + K_D) - γ_max φ_Rb c_pc with c_pc eliminated.
func FluxBalance(sy *Symbols) symsolve.Expr {
	cpc := PrecursorBalance(sy)
	return symsolve.Minus(
		symsolve.MulOf(sy.Lambda, symsolve.AddOf(cpc, sy.Kd)),
		symsolve.MulOf(translationalFlux(sy), cpc),
	)
}

// ClosedFormGrowthRate is
// (Nu + Γ - sqrt((Nu + Γ)^2 - 4 (1 - K_D) Nu Γ)) / (2 (1 - K_D)).
func ClosedFormGrowthRate(sy *Symbols) symsolve.Expr {
	nu, gamma := metabolicFlux(sy), translationalFlux(sy)
	sum := symsolve.AddOf(nu, gamma)
	oneMinusK := symsolve.Minus(symsolve.N(1), sy.Kd)
	disc := symsolve.Minus(
		symsolve.PowOf(sum, symsolve.N(2)),
		symsolve.MulOf(symsolve.N(4), oneMinusK, nu, gamma),
	)
	return symsolve.Quo(
		symsolve.Minus(sum, symsolve.SqrtOf(disc)),
		symsolve.MulOf(symsolve.N(2), oneMinusK),
	)
}

// ClosedFormOptimalAllocation is the published optimum
// (φ_O - 1)(-ν(-2Kγ + γ + ν) + sqrt(Kγν)(ν - γ)) / (γ² + 2γν + ν² - 4Kγν).
func ClosedFormOptimalAllocation(sy *Symbols) symsolve.Expr {
	g, n, k := sy.GammaMax, sy.NuMax, sy.Kd
	num := symsolve.MulOf(
		symsolve.Minus(sy.PhiO, symsolve.N(1)),
		symsolve.AddOf(
			symsolve.Neg(symsolve.MulOf(n, symsolve.AddOf(symsolve.MulOf(symsolve.N(-2), k, g), g, n))),
			symsolve.MulOf(symsolve.SqrtOf(symsolve.MulOf(k, g, n)), symsolve.Minus(n, g)),
		),
	)
	den := symsolve.AddOf(
		symsolve.PowOf(g, symsolve.N(2)),
		symsolve.MulOf(symsolve.N(2), g, n),
		symsolve.PowOf(n, symsolve.N(2)),
		symsolve.MulOf(symsolve.N(-4), k, g, n),
	)
	return symsolve.Quo(num, den)
}

// ============================================================
// Derivations
// ============================================================

// GrowthRate solves flux balance for λ and keeps the root whose
// precursor pool is non-negative at the reference point.
func GrowthRate(s *symsolve.Solver, ref Reference) (*Derivation, error) {
	sy := NewSymbols()
	at := ref.Point(sy)
	set, err := s.Solve(FluxBalance(sy), sy.Lambda)
	if err != nil {
		return nil, fmt.Errorf("growth rate: %w", err)
	}
	cpc := PrecursorBalance(sy)
	root, err := set.Unique(func(r symsolve.Expr) bool {
		c, err := symsolve.EvaluateReal(cpc.Sub(sy.Lambda.Name(), r), at)
		return err == nil && c >= 0
	})
	if err != nil {
		return nil, fmt.Errorf("growth rate: %w", err)
	}
	d, err := newDerivation("growth rate", sy.Lambda, root, at)
	if err != nil {
		return nil, err
	}
	d.Candidates = set.Len()
	return d, nil
}

// OptimalAllocation solves dλ/dφ_Rb = 0 for φ_Rb. Candidates introduced
// by squaring are checked at the reference point.
func OptimalAllocation(s *symsolve.Solver, ref Reference) (*Derivation, error) {
	sy := NewSymbols()
	at := ref.Point(sy)
	s = s.With(symsolve.WithBranchPoint(at))
	dl, err := s.Differentiate(ClosedFormGrowthRate(sy), sy.PhiRb)
	if err != nil {
		return nil, fmt.Errorf("optimal allocation: %w", err)
	}
	set, err := s.Solve(dl, sy.PhiRb)
	if err != nil && !symsolve.IsAmbiguous(err) {
		return nil, fmt.Errorf("optimal allocation: %w", err)
	}
	root, err := set.Unique(symsolve.InIntervalAt(at, 0, 1-ref.PhiO))
	if err != nil {
		return nil, fmt.Errorf("optimal allocation: %w", err)
	}
	d, err := newDerivation("optimal allocation", sy.PhiRb, root, at)
	if err != nil {
		return nil, err
	}
	d.Candidates = set.Len() + len(set.Discarded)
	return d, nil
}

// Precursors is c_pc at the steady-state growth rate.
func Precursors(s *symsolve.Solver, ref Reference) (*Derivation, error) {
	lam, err := GrowthRate(s, ref)
	if err != nil {
		return nil, err
	}
	return precursorsAt(s, ref, lam)
}

// precursorsAt substitutes an already derived growth rate into the
// precursor balance.
func precursorsAt(s *symsolve.Solver, ref Reference, lam *Derivation) (*Derivation, error) {
	sy := NewSymbols()
	e, err := s.Substitute(PrecursorBalance(sy), sy.Lambda, lam.Expr)
	if err != nil {
		return nil, fmt.Errorf("precursors: %w", err)
	}
	if e, err = s.Simplify(e); err != nil {
		return nil, fmt.Errorf("precursors: %w", err)
	}
	return newDerivation("precursors", sy.Cpc, e, ref.Point(sy))
}

// TranslationRate is γ = γ_max c_pc/(c_pc + K_D) at the steady state.
// Check holds γ φ_Rb - λ, which vanishes by flux balance.
func TranslationRate(s *symsolve.Solver, ref Reference) (*Derivation, error) {
	lam, err := GrowthRate(s, ref)
	if err != nil {
		return nil, err
	}
	cpc, err := precursorsAt(s, ref, lam)
	if err != nil {
		return nil, err
	}
	return translationRateAt(s, ref, lam, cpc)
}

func translationRateAt(s *symsolve.Solver, ref Reference, lam, cpc *Derivation) (*Derivation, error) {
	sy := NewSymbols()
	at := ref.Point(sy)
	gamma := symsolve.Quo(symsolve.MulOf(sy.GammaMax, cpc.Expr), symsolve.AddOf(cpc.Expr, sy.Kd))
	gamma, err := s.Simplify(gamma)
	if err != nil {
		return nil, fmt.Errorf("translation rate: %w", err)
	}
	d, err := newDerivation("translation rate", symsolve.S("γ"), gamma, at)
	if err != nil {
		return nil, err
	}
	balance, err := symsolve.EvaluateReal(symsolve.Minus(symsolve.MulOf(gamma, sy.PhiRb), lam.Expr), at)
	if err != nil {
		return nil, fmt.Errorf("translation rate: flux balance: %w", err)
	}
	if math.Abs(balance) > 1e-9*math.Max(1, lam.Value) {
		return nil, fmt.Errorf("translation rate: flux balance violated by %g", balance)
	}
	d.Check = balance
	return d, nil
}

// steadyState derives the growth rate once and builds the precursor
// pool and translation rate on top of it, stopping between steps when
// ctx is done.
func steadyState(ctx context.Context, s *symsolve.Solver, ref Reference) (lam, cpc, gamma *Derivation, err error) {
	if err = ctx.Err(); err != nil {
		return nil, nil, nil, err
	}
	if lam, err = GrowthRate(s, ref); err != nil {
		return nil, nil, nil, err
	}
	if err = ctx.Err(); err != nil {
		return nil, nil, nil, err
	}
	if cpc, err = precursorsAt(s, ref, lam); err != nil {
		return nil, nil, nil, err
	}
	if err = ctx.Err(); err != nil {
		return nil, nil, nil, err
	}
	if gamma, err = translationRateAt(s, ref, lam, cpc); err != nil {
		return nil, nil, nil, err
	}
	return lam, cpc, gamma, nil
}

// Run computes every derivation and returns them in a fixed order:
// growth rate, optimal allocation, precursors, translation rate. The
// optimal allocation runs alongside the steady-state chain.
func Run(ctx context.Context, s *symsolve.Solver, ref Reference) ([]*Derivation, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	out := make([]*Derivation, 4)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lam, cpc, gamma, err := steadyState(ctx, s, ref)
		if err != nil {
			return err
		}
		out[0], out[2], out[3] = lam, cpc, gamma
		return nil
	})
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		d, err := OptimalAllocation(s, ref)
		if err != nil {
			return err
		}
		out[1] = d
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

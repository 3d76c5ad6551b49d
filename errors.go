package symsolve

import (
	"errors"
	"fmt"
)

// Error kinds reported by the solver. Match them with errors.Is.
var (
	// ErrUnknownNotPresent: the symbol to solve for does not occur.
	ErrUnknownNotPresent = errors.New("symsolve: unknown not present in equation")
	// ErrClosedFormUnsolvable: no supported rule gives a closed form.
	ErrClosedFormUnsolvable = errors.New("symsolve: no closed-form solution")
	// ErrDivisionByZero: a denominator is identically zero.
	ErrDivisionByZero = errors.New("symsolve: division by zero")
	// ErrExtraneousRootAmbiguity: squaring away a radical introduced
	// candidates that could not be checked against the original equation.
	ErrExtraneousRootAmbiguity = errors.New("symsolve: extraneous roots could not be ruled out")
	// ErrIdentity: the equation holds for every value of the unknown.
	ErrIdentity = errors.New("symsolve: equation is an identity")
	// ErrUnboundSymbol: numeric evaluation met a symbol with no value.
	ErrUnboundSymbol = errors.New("symsolve: unbound symbol")
)

// SolveError records the operation and symbol a solver error came from.
type SolveError struct {
	Op     string
	Symbol string
	Err    error
}

func (e *SolveError) Error() string {
	if e.Symbol == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Symbol, e.Err)
}

func (e *SolveError) Unwrap() error { return e.Err }

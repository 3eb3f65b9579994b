package calculation

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrFormulaUnsupported is returned by evaluators that cannot handle a formula
var ErrFormulaUnsupported = errors.New("formula evaluation not supported")

// FormulaEvaluator resolves Formula-type amounts against the current state
type FormulaEvaluator interface {
	Evaluate(formula string, state SimulationState) (decimal.Decimal, error)
}

// ZeroFormulaEvaluator is the default evaluator: every formula resolves to zero.
type ZeroFormulaEvaluator struct{}

func (ZeroFormulaEvaluator) Evaluate(formula string, state SimulationState) (decimal.Decimal, error) {
	return decimal.Zero, ErrFormulaUnsupported
}

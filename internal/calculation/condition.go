package calculation

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SimulationState is the read-only snapshot conditions and formula amounts are evaluated against
type SimulationState struct {
	NetWorth             decimal.Decimal
	TotalAssets          decimal.Decimal
	TotalLiabilities     decimal.Decimal
	Age                  int
	CurrentDate          time.Time
	MonthsElapsed        int
	TotalMonthlyIncome   decimal.Decimal
	TotalMonthlyExpenses decimal.Decimal
	AccountBalances      map[string]decimal.Decimal
}

// Variable names a numeric field of SimulationState
type Variable int

const (
	VarUnknown Variable = iota
	VarNetWorth
	VarTotalAssets
	VarTotalLiabilities
	VarAge
	VarMonthsElapsed
	VarMonthlyIncome
	VarMonthlyExpenses
)

var variableNames = map[string]Variable{
	"networth":          VarNetWorth,
	"net_worth":         VarNetWorth,
	"net-worth":         VarNetWorth,
	"assets":            VarTotalAssets,
	"totalassets":       VarTotalAssets,
	"total_assets":      VarTotalAssets,
	"liabilities":       VarTotalLiabilities,
	"totalliabilities":  VarTotalLiabilities,
	"total_liabilities": VarTotalLiabilities,
	"age":               VarAge,
	"months":            VarMonthsElapsed,
	"monthselapsed":     VarMonthsElapsed,
	"months_elapsed":    VarMonthsElapsed,
	"income":            VarMonthlyIncome,
	"monthlyincome":     VarMonthlyIncome,
	"monthly_income":    VarMonthlyIncome,
	"expenses":          VarMonthlyExpenses,
	"monthlyexpenses":   VarMonthlyExpenses,
	"monthly_expenses":  VarMonthlyExpenses,
}

// LookupVariable resolves a (case-insensitive) variable name or synonym.
func LookupVariable(name string) (Variable, bool) {
	v, ok := variableNames[strings.ToLower(strings.TrimSpace(name))]
	return v, ok
}

// Value returns the state's value for a variable.
func (s SimulationState) Value(v Variable) decimal.Decimal {
	switch v {
	case VarNetWorth:
		return s.NetWorth
	case VarTotalAssets:
		return s.TotalAssets
	case VarTotalLiabilities:
		return s.TotalLiabilities
	case VarAge:
		return decimal.NewFromInt(int64(s.Age))
	case VarMonthsElapsed:
		return decimal.NewFromInt(int64(s.MonthsElapsed))
	case VarMonthlyIncome:
		return s.TotalMonthlyIncome
	case VarMonthlyExpenses:
		return s.TotalMonthlyExpenses
	default:
		return decimal.Zero
	}
}

// Operator is a comparison operator
type Operator string

const (
	OpGreaterEqual Operator = ">="
	OpLessEqual    Operator = "<="
	OpNotEqual     Operator = "!="
	OpEqual        Operator = "=="
	OpAssignEqual  Operator = "="
	OpGreater      Operator = ">"
	OpLess         Operator = "<"
)

// Two-character operators must be tried before their one-character prefixes.
var operatorOrder = []Operator{OpGreaterEqual, OpLessEqual, OpNotEqual, OpEqual, OpAssignEqual, OpGreater, OpLess}

// Comparison is a parsed `variable operator literal` expression
type Comparison struct {
	Variable Variable
	Operator Operator
	Literal  decimal.Decimal
}

// ParseCondition parses an expression into a Comparison. For each operator in
// precedence order the expression is split on its first occurrence; the first split
// that yields a known variable and a numeric literal wins.
func ParseCondition(expr string) (Comparison, bool) {
	expr = strings.ToLower(strings.TrimSpace(expr))
	if expr == "" {
		return Comparison{}, false
	}
	for _, op := range operatorOrder {
		left, right, found := strings.Cut(expr, string(op))
		if !found {
			continue
		}
		v, ok := LookupVariable(left)
		if !ok {
			continue
		}
		lit, err := parseLiteral(right)
		if err != nil {
			continue
		}
		return Comparison{Variable: v, Operator: op, Literal: lit}, true
	}
	return Comparison{}, false
}

func parseLiteral(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer(",", "", "_", "").Replace(s)
	return decimal.NewFromString(s)
}

// Evaluate applies the comparison to a state.
func (c Comparison) Evaluate(state SimulationState) bool {
	left := state.Value(c.Variable)
	switch c.Operator {
	case OpGreaterEqual:
		return left.GreaterThanOrEqual(c.Literal)
	case OpLessEqual:
		return left.LessThanOrEqual(c.Literal)
	case OpNotEqual:
		return !left.Equal(c.Literal)
	case OpEqual, OpAssignEqual:
		return left.Equal(c.Literal)
	case OpGreater:
		return left.GreaterThan(c.Literal)
	case OpLess:
		return left.LessThan(c.Literal)
	default:
		return false
	}
}

// EvaluateCondition parses and evaluates an expression. Anything that does not parse
// evaluates to false.
func EvaluateCondition(expr string, state SimulationState) bool {
	c, ok := ParseCondition(expr)
	if !ok {
		return false
	}
	return c.Evaluate(state)
}

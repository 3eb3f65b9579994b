package output

import (
	"fmt"

	"github.com/lifeplan/projection-engine/internal/domain"
	"github.com/shopspring/decimal"
)

// DefaultAssumptions lists the modeling rules rendered in detailed outputs.
var DefaultAssumptions = []string{
	"Projection steps one calendar month at a time",
	"Accounts without their own rate grow at the scenario default rate, compounded monthly",
	"Liabilities accrue interest on the amount owed",
	"Pre-tax income is taxed on its annualized amount, then spread back over the payment frequency",
}

// GenerateAssumptions creates the assumptions list from a scenario's actual values
func GenerateAssumptions(assumptions domain.Assumptions) []string {
	return append([]string{
		fmt.Sprintf("Inflation: %.1f%% annually (inflation-adjusted expenses)", assumptions.InflationRate.Mul(decimalHundred).InexactFloat64()),
		fmt.Sprintf("Default growth: %.1f%% annually", assumptions.DefaultGrowthRate.Mul(decimalHundred).InexactFloat64()),
	}, DefaultAssumptions...)
}

var decimalHundred = decimal.NewFromInt(100)

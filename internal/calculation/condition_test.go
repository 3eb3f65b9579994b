package calculation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateCondition(t *testing.T) {
	tests := []struct {
		name  string
		expr  string
		state SimulationState
		want  bool
	}{
		{"net worth reached", "netWorth >= 1000000", SimulationState{NetWorth: decimal.NewFromInt(1000000)}, true},
		{"net worth short", "netWorth >= 1000000", SimulationState{NetWorth: decimal.NewFromInt(999999)}, false},
		{"age", "age >= 40", SimulationState{Age: 40}, true},
		{"assets synonym", "assets > 200000", SimulationState{TotalAssets: decimal.NewFromInt(500000)}, true},
		{"liabilities synonym", "total_liabilities < 1", SimulationState{TotalLiabilities: decimal.Zero}, true},
		{"underscore separators", "net_worth >= 1_000_000", SimulationState{NetWorth: decimal.NewFromInt(1500000)}, true},
		{"comma separators", "net-worth >= 1,000,000", SimulationState{NetWorth: decimal.NewFromInt(1500000)}, true},
		{"less than true", "age < 40", SimulationState{Age: 35}, true},
		{"less than false", "age < 35", SimulationState{Age: 35}, false},
		{"double equals", "months == 12", SimulationState{MonthsElapsed: 12}, true},
		{"single equals", "months = 12", SimulationState{MonthsElapsed: 12}, true},
		{"equals false", "months_elapsed == 13", SimulationState{MonthsElapsed: 12}, false},
		{"not equals true", "age != 40", SimulationState{Age: 35}, true},
		{"not equals false", "age != 35", SimulationState{Age: 35}, false},
		{"less or equal", "expenses <= 30000", SimulationState{TotalMonthlyExpenses: decimal.NewFromInt(30000)}, true},
		{"income", "income >= 50000", SimulationState{TotalMonthlyIncome: decimal.NewFromInt(50000)}, true},
		{"monthly income", "monthly_income >= 50000", SimulationState{TotalMonthlyIncome: decimal.NewFromInt(50000)}, true},
		{"monthly expenses", "monthlyExpenses >= 30000", SimulationState{TotalMonthlyExpenses: decimal.NewFromInt(30000)}, true},
		{"upper case", "NETWORTH >= 1000000", SimulationState{NetWorth: decimal.NewFromInt(1000000)}, true},
		{"mixed case", "NetWorth >= 1000000", SimulationState{NetWorth: decimal.NewFromInt(1000000)}, true},
		{"decimal literal", "networth > 10.5", SimulationState{NetWorth: decimal.NewFromFloat(10.75)}, true},
		{"empty", "", SimulationState{}, false},
		{"whitespace", "   ", SimulationState{}, false},
		{"unknown variable", "unknownVar >= 1000000", SimulationState{NetWorth: decimal.NewFromInt(1000000)}, false},
		{"non numeric literal", "assets > liabilities", SimulationState{TotalAssets: decimal.NewFromInt(5)}, false},
		{"no operator", "networth 5", SimulationState{NetWorth: decimal.NewFromInt(5)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EvaluateCondition(tt.expr, tt.state))
		})
	}
}

func TestParseCondition(t *testing.T) {
	c, ok := ParseCondition("  Age >= 65 ")
	require.True(t, ok)
	assert.Equal(t, VarAge, c.Variable)
	assert.Equal(t, OpGreaterEqual, c.Operator)
	assert.True(t, c.Literal.Equal(decimal.NewFromInt(65)))

	c, ok = ParseCondition("months>12")
	require.True(t, ok)
	assert.Equal(t, OpGreater, c.Operator)

	_, ok = ParseCondition("age >= forty")
	assert.False(t, ok)
}

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/lifeplan/projection-engine/internal/calculation"
	"github.com/lifeplan/projection-engine/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ calculation.Repository = (*SQLiteStore)(nil)
	_ calculation.Repository = (*MemoryStore)(nil)
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func date(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func datep(y int, m time.Month, day int) *time.Time {
	t := date(y, m, day)
	return &t
}

func sampleHousehold() *domain.Household {
	age := 65
	return &domain.Household{
		User: domain.User{ID: "u1", Name: "Ada", DateOfBirth: datep(1990, time.March, 15), HomeCurrency: "USD"},
		Accounts: []domain.Account{
			{ID: "chk", Name: "Checking", Type: domain.AccountBank, Currency: "USD", CurrentBalance: d("5000"),
				InterestCompounding: domain.CompoundingNone},
			{ID: "brk", Name: "Brokerage", Type: domain.AccountInvestment, Currency: "USD", CurrentBalance: d("10000"),
				InterestRateAnnual: dp("0.07"), InterestCompounding: domain.CompoundingMonthly},
			{ID: "car", Name: "Car Loan", Type: domain.AccountLoan, Currency: "USD", CurrentBalance: d("8000"),
				IsLiability: true, InterestRateAnnual: dp("0.05"), InterestCompounding: domain.CompoundingMonthly},
			{ID: "old", Name: "Closed", Type: domain.AccountBank, Currency: "USD", CurrentBalance: d("1"),
				InterestCompounding: domain.CompoundingNone, Disabled: true},
		},
		IncomeSources: []domain.IncomeSource{
			{ID: "sal", Name: "Salary", BaseAmount: d("6000"), Frequency: domain.FrequencyMonthly,
				AnnualIncreaseRate: dp("0.03"), TaxProfileID: "tax", IsPreTax: true, TargetAccountID: "chk"},
		},
		Expenses: []domain.ExpenseDefinition{
			{ID: "rent", Name: "Rent", AmountType: domain.AmountFixed, AmountValue: dp("1500"),
				Frequency: domain.FrequencyMonthly, InflationAdjusted: true, LinkedAccountID: "chk",
				EndCondition: domain.EndCondition{Type: domain.EndUntilDate, EndDate: datep(2030, time.January, 1)}},
		},
		Contributions: []domain.InvestmentContribution{
			{ID: "loanpay", Name: "Loan payment", Amount: d("400"), Frequency: domain.FrequencyMonthly,
				SourceAccountID: "chk", TargetAccountID: "car",
				EndCondition: domain.EndCondition{Type: domain.EndUntilAccountSettled, AccountID: "car"}},
		},
		TaxProfiles: []domain.TaxProfile{
			{ID: "tax", Name: "Default", Brackets: []domain.TaxBracket{
				{Min: d("0"), Max: dp("50000"), Rate: d("0.1")},
				{Min: d("50000"), Rate: d("0.2"), BaseTax: d("5000")},
			}, Rebates: map[string]decimal.Decimal{"primary": d("1000")}},
		},
		Scenarios: []domain.Scenario{
			{ID: "base", Name: "Baseline", StartDate: date(2025, time.January, 1), EndDate: datep(2025, time.December, 1),
				Assumptions: domain.DefaultAssumptions(), IsBaseline: true,
				Events: []domain.SimulationEvent{
					{ID: "e2", Name: "Retire", TriggerType: domain.TriggerAge, TriggerAge: &age, EventType: "expense_change",
						AmountType: domain.AmountFixed, AmountValue: dp("100"), AppliesOnce: true, SortOrder: 2},
					{ID: "e1", Name: "Bonus", TriggerType: domain.TriggerDate, TriggerDate: datep(2025, time.June, 1),
						EventType: "one_off", AmountType: domain.AmountFixed, AmountValue: dp("50000"),
						AffectedAccountID: "brk", AppliesOnce: true, SortOrder: 1},
				}},
		},
	}
}

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "lifeplan.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_HouseholdRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.SaveHousehold(ctx, sampleHousehold()))

	u, err := s.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", u.Name)
	require.NotNil(t, u.DateOfBirth)
	assert.True(t, u.DateOfBirth.Equal(date(1990, time.March, 15)))

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "u1", users[0].ID)

	accounts, err := s.ListAccounts(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, accounts, 3, "disabled accounts are not listed")
	assert.Equal(t, []string{"chk", "brk", "car"}, []string{accounts[0].ID, accounts[1].ID, accounts[2].ID})
	assert.Nil(t, accounts[0].InterestRateAnnual)
	require.NotNil(t, accounts[1].InterestRateAnnual)
	assert.True(t, accounts[1].InterestRateAnnual.Equal(d("0.07")))
	assert.True(t, accounts[2].IsLiability)
	assert.True(t, accounts[2].CurrentBalance.Equal(d("8000")))

	names, err := s.AccountNames(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Closed", names["old"])

	income, err := s.ListIncomeSources(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, income, 1)
	assert.True(t, income[0].IsPreTax)
	assert.Equal(t, domain.FrequencyMonthly, income[0].Frequency)

	expenses, err := s.ListExpenses(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.Equal(t, domain.EndUntilDate, expenses[0].EndCondition.Type)
	require.NotNil(t, expenses[0].EndCondition.EndDate)
	assert.True(t, expenses[0].EndCondition.EndDate.Equal(date(2030, time.January, 1)))

	contribs, err := s.ListContributions(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, contribs, 1)
	assert.Equal(t, domain.EndUntilAccountSettled, contribs[0].EndCondition.Type)
	assert.Equal(t, "car", contribs[0].EndCondition.AccountID)

	profiles, err := s.ListTaxProfiles(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.False(t, profiles[0].MalformedBrackets)
	require.Len(t, profiles[0].Brackets, 2)
	assert.True(t, profiles[0].TotalRebates().Equal(d("1000")))

	sc, err := s.GetScenario(ctx, "u1", "base")
	require.NoError(t, err)
	assert.False(t, sc.MalformedAssumptions)
	assert.True(t, sc.Assumptions.InflationRate.Equal(d("0.05")))
	require.Len(t, sc.Events, 2)
	assert.Equal(t, "Bonus", sc.Events[0].Name, "events load in sort order")
	require.NotNil(t, sc.Events[1].TriggerAge)
	assert.Equal(t, 65, *sc.Events[1].TriggerAge)
}

func TestSQLiteStore_GetScenarioOwnership(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.SaveHousehold(ctx, sampleHousehold()))

	_, err := s.GetScenario(ctx, "someone-else", "base")
	assert.ErrorIs(t, err, domain.ErrScenarioNotFound)

	_, err = s.GetScenario(ctx, "u1", "missing")
	assert.ErrorIs(t, err, domain.ErrScenarioNotFound)

	_, err = s.GetUser(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestSQLiteStore_DuplicateSortOrderRejected(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	h := sampleHousehold()
	h.Scenarios[0].Events[0].SortOrder = 1
	assert.Error(t, s.SaveHousehold(ctx, h))
}

func TestSQLiteStore_MalformedAssumptionsFlagged(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.SaveHousehold(ctx, sampleHousehold()))

	_, err := s.db.ExecContext(ctx, "UPDATE simulation_scenarios SET base_assumptions = '{not json' WHERE id = 'base'")
	require.NoError(t, err)
	_, err = s.db.ExecContext(ctx, "UPDATE tax_profiles SET brackets = 'oops' WHERE id = 'tax'")
	require.NoError(t, err)

	sc, err := s.GetScenario(ctx, "u1", "base")
	require.NoError(t, err)
	assert.True(t, sc.MalformedAssumptions)
	assert.True(t, sc.Assumptions.DefaultGrowthRate.Equal(d("0.07")))

	profiles, err := s.ListTaxProfiles(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.True(t, profiles[0].MalformedBrackets)
}

func testBatch(scenarioID string, start time.Time, months int, replace bool) domain.ProjectionBatch {
	b := domain.ProjectionBatch{ScenarioID: scenarioID, Replace: replace, RunAt: date(2025, time.February, 3)}
	for i := 0; i < months; i++ {
		p := start.AddDate(0, i, 0)
		nw := decimal.NewFromInt(int64(10000 + i*100))
		b.AccountRows = append(b.AccountRows, domain.AccountProjection{
			ScenarioID: scenarioID, AccountID: "chk", PeriodDate: p, Balance: nw, BalanceHomeCurrency: nw,
			PeriodIncome: d("100"), PeriodExpenses: decimal.Zero, PeriodInterest: decimal.Zero,
		})
		row := domain.NetWorthProjection{
			ScenarioID: scenarioID, PeriodDate: p, TotalAssets: nw, TotalLiabilities: decimal.Zero, NetWorth: nw,
			BreakdownByType:     map[string]decimal.Decimal{"bank": nw},
			BreakdownByCurrency: map[string]decimal.Decimal{"USD": nw},
		}
		if i == 0 {
			row.MilestonesReached = []string{"netWorth >= 10000"}
		}
		b.NetWorthRows = append(b.NetWorthRows, row)
	}
	return b
}

func TestSQLiteStore_SaveProjectionsReplaceAndAppend(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.SaveHousehold(ctx, sampleHousehold()))
	start := date(2025, time.January, 1)

	require.NoError(t, s.SaveProjections(ctx, testBatch("base", start, 12, true)))
	require.NoError(t, s.SaveProjections(ctx, testBatch("base", start, 12, true)))
	accounts, netWorth, err := s.ProjectionCounts(ctx, "base")
	require.NoError(t, err)
	assert.Equal(t, 12, accounts)
	assert.Equal(t, 12, netWorth)

	require.NoError(t, s.SaveProjections(ctx, testBatch("base", start, 12, false)))
	_, netWorth, err = s.ProjectionCounts(ctx, "base")
	require.NoError(t, err)
	assert.Equal(t, 24, netWorth)

	sc, err := s.GetScenario(ctx, "u1", "base")
	require.NoError(t, err)
	require.NotNil(t, sc.LastRunAt)
	assert.True(t, sc.LastRunAt.Equal(date(2025, time.February, 3)))
}

func TestSQLiteStore_ListProjectionsFiltered(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.SaveHousehold(ctx, sampleHousehold()))
	require.NoError(t, s.SaveProjections(ctx, testBatch("base", date(2025, time.January, 1), 6, true)))

	rows, err := s.ListNetWorthProjections(ctx, "base", datep(2025, time.February, 1), datep(2025, time.April, 1))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.True(t, rows[0].PeriodDate.Equal(date(2025, time.February, 1)))
	assert.True(t, rows[0].BreakdownByType["bank"].Equal(d("10100")))
	assert.Empty(t, rows[0].MilestonesReached)

	all, err := s.ListNetWorthProjections(ctx, "base", nil, nil)
	require.NoError(t, err)
	require.Len(t, all, 6)
	assert.Equal(t, []string{"netWorth >= 10000"}, all[0].MilestonesReached)

	acc, err := s.ListAccountProjections(ctx, "base", nil, nil, "chk")
	require.NoError(t, err)
	assert.Len(t, acc, 6)

	none, err := s.ListAccountProjections(ctx, "base", nil, nil, "brk")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLiteStore_ReimportKeepsProjections(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.SaveHousehold(ctx, sampleHousehold()))
	require.NoError(t, s.SaveProjections(ctx, testBatch("base", date(2025, time.January, 1), 3, true)))

	h := sampleHousehold()
	h.Scenarios[0].Name = "Baseline v2"
	require.NoError(t, s.SaveHousehold(ctx, h))

	_, netWorth, err := s.ProjectionCounts(ctx, "base")
	require.NoError(t, err)
	assert.Equal(t, 3, netWorth)

	list, err := s.ListScenarios(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Baseline v2", list[0].Name)
}

func TestSQLiteStore_DeleteScenarioCascades(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.SaveHousehold(ctx, sampleHousehold()))
	require.NoError(t, s.SaveProjections(ctx, testBatch("base", date(2025, time.January, 1), 3, true)))

	require.NoError(t, s.DeleteScenario(ctx, "u1", "base"))
	accounts, netWorth, err := s.ProjectionCounts(ctx, "base")
	require.NoError(t, err)
	assert.Zero(t, accounts)
	assert.Zero(t, netWorth)

	assert.ErrorIs(t, s.DeleteScenario(ctx, "u1", "base"), domain.ErrScenarioNotFound)
}

func TestSQLiteStore_SaveProjectionsUnknownScenarioRollsBack(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.SaveHousehold(ctx, sampleHousehold()))

	err := s.SaveProjections(ctx, testBatch("ghost", date(2025, time.January, 1), 2, true))
	require.Error(t, err)

	accounts, netWorth, err := s.ProjectionCounts(ctx, "ghost")
	require.NoError(t, err)
	assert.Zero(t, accounts)
	assert.Zero(t, netWorth)
}

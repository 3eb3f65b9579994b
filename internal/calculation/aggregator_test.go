package calculation

import (
	"testing"
	"time"

	"github.com/lifeplan/projection-engine/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func netWorthRows(start time.Time, values ...int64) []domain.NetWorthProjection {
	rows := make([]domain.NetWorthProjection, 0, len(values))
	for i, v := range values {
		nw := decimal.NewFromInt(v)
		rows = append(rows, domain.NetWorthProjection{
			ScenarioID: "sc", PeriodDate: start.AddDate(0, i, 0),
			TotalAssets: nw, TotalLiabilities: decimal.Zero, NetWorth: nw,
		})
	}
	return rows
}

func TestPeriodKey(t *testing.T) {
	tests := []struct {
		date time.Time
		g    domain.Granularity
		want string
	}{
		{month(2025, time.March), domain.GranularityMonthly, "2025-03"},
		{month(2025, time.March), domain.GranularityQuarterly, "2025-Q1"},
		{month(2025, time.April), domain.GranularityQuarterly, "2025-Q2"},
		{month(2025, time.December), domain.GranularityQuarterly, "2025-Q4"},
		{month(2025, time.December), domain.GranularityYearly, "2025"},
		{month(2025, time.July), "", "2025-07"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PeriodKey(tt.date, tt.g))
	}
}

func TestAggregatePeriods(t *testing.T) {
	rows := netWorthRows(month(2024, time.November), 100, 200, 300, 400, 500)
	// Out of order input is sorted by date.
	rows[0], rows[4] = rows[4], rows[0]

	accountRows := []domain.AccountProjection{
		{AccountID: "a1", PeriodDate: month(2024, time.December), Balance: decimal.NewFromInt(150)},
		{AccountID: "gone", PeriodDate: month(2024, time.December), Balance: decimal.NewFromInt(50)},
		{AccountID: "a1", PeriodDate: month(2025, time.March), Balance: decimal.NewFromInt(500)},
	}
	names := map[string]string{"a1": "Checking"}

	yearly := AggregatePeriods(rows, accountRows, domain.GranularityYearly, names)
	require.Len(t, yearly, 2)
	assert.Equal(t, "2024", yearly[0].Period)
	assert.True(t, yearly[0].NetWorth.Equal(decimal.NewFromInt(200)))
	require.Len(t, yearly[0].Accounts, 2)
	assert.Equal(t, "Checking", yearly[0].Accounts[0].AccountName)
	assert.Equal(t, UnknownAccountName, yearly[0].Accounts[1].AccountName)
	assert.Equal(t, "2025", yearly[1].Period)
	assert.True(t, yearly[1].NetWorth.Equal(decimal.NewFromInt(500)))
	require.Len(t, yearly[1].Accounts, 1)

	monthly := AggregatePeriods(rows, nil, domain.GranularityMonthly, names)
	require.Len(t, monthly, 5)
	assert.Equal(t, "2024-11", monthly[0].Period)
	assert.Empty(t, monthly[0].Accounts)
}

func TestExtractMilestones(t *testing.T) {
	start := month(2025, time.January)
	rows := netWorthRows(start, 90000, 120000, 80000, 600000, 700000)

	got := ExtractMilestones(rows, start, DefaultMilestoneTargets())
	require.Len(t, got, 2)
	assert.True(t, got[0].Date.Equal(month(2025, time.February)))
	assert.True(t, got[0].YearsAway.Equal(YearsAway(1)))
	assert.True(t, got[1].Value.Equal(decimal.NewFromInt(500000)))
	assert.True(t, got[1].Date.Equal(month(2025, time.April)), "dips do not re-trigger reached targets")

	assert.NotNil(t, ExtractMilestones(nil, start, DefaultMilestoneTargets()))
}

func TestSummarize(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		s := Summarize(nil)
		assert.Zero(t, s.TotalMonths)
		assert.True(t, s.AnnualizedReturn.IsZero())
	})

	t.Run("constant net worth", func(t *testing.T) {
		s := Summarize(netWorthRows(month(2025, time.January), 1000, 1000, 1000, 1000))
		assert.True(t, s.TotalGrowth.IsZero())
		assert.True(t, s.AnnualizedReturn.IsZero())
		assert.True(t, s.AvgMonthlyGrowthRate.IsZero())
		assert.Equal(t, 4, s.TotalMonths)
	})

	t.Run("doubling over a year", func(t *testing.T) {
		values := make([]int64, 12)
		for i := range values {
			values[i] = 1000
		}
		values[11] = 2000
		s := Summarize(netWorthRows(month(2025, time.January), values...))
		assert.True(t, s.TotalGrowth.Equal(decimal.NewFromInt(1000)))
		assert.True(t, s.AnnualizedReturn.Equal(decimal.NewFromInt(1)), "got %s", s.AnnualizedReturn)
		// One 100% step averaged over eleven transitions.
		assert.True(t, s.AvgMonthlyGrowthRate.Equal(decimal.RequireFromString("0.090909")), "got %s", s.AvgMonthlyGrowthRate)
	})

	t.Run("non-positive start has no CAGR", func(t *testing.T) {
		s := Summarize(netWorthRows(month(2025, time.January), -100, 0, 500))
		assert.True(t, s.AnnualizedReturn.IsZero())
		// Only the -100 -> 0 step counts; the step from zero is skipped.
		assert.True(t, s.AvgMonthlyGrowthRate.Equal(decimal.NewFromInt(1)))
		assert.True(t, s.TotalGrowth.Equal(decimal.NewFromInt(600)))
	})

	t.Run("single row", func(t *testing.T) {
		s := Summarize(netWorthRows(month(2025, time.January), 5000))
		assert.True(t, s.AnnualizedReturn.IsZero())
		assert.Equal(t, 1, s.TotalMonths)
	})
}

func TestFilterRows(t *testing.T) {
	rows := netWorthRows(month(2025, time.January), 1, 2, 3, 4)
	from, to := month(2025, time.February), month(2025, time.March)
	assert.Len(t, FilterNetWorthRows(rows, &from, &to), 2)
	assert.Len(t, FilterNetWorthRows(rows, nil, &from), 2)
	assert.Len(t, FilterNetWorthRows(rows, nil, nil), 4)

	acc := []domain.AccountProjection{
		{AccountID: "a", PeriodDate: month(2025, time.January)},
		{AccountID: "b", PeriodDate: month(2025, time.February)},
		{AccountID: "a", PeriodDate: month(2025, time.February)},
	}
	assert.Len(t, FilterAccountRows(acc, &from, nil, ""), 2)
	assert.Len(t, FilterAccountRows(acc, nil, nil, "a"), 2)
	assert.Len(t, FilterAccountRows(acc, &from, nil, "a"), 1)
}

func TestMilestoneTracker(t *testing.T) {
	tracker := newMilestoneTracker([]decimal.Decimal{
		decimal.NewFromInt(500), decimal.NewFromInt(100), decimal.NewFromInt(100),
	})
	require.Len(t, tracker.targets, 2, "duplicates collapse")

	results, labels := tracker.observe(month(2025, time.January), decimal.NewFromInt(600), 0)
	require.Len(t, results, 2)
	assert.Equal(t, []string{"netWorth >= 100", "netWorth >= 500"}, labels)
	assert.Equal(t, "Net worth reaches $100", results[0].Description)

	results, labels = tracker.observe(month(2025, time.February), decimal.NewFromInt(700), 1)
	assert.Empty(t, results)
	assert.Empty(t, labels)
}

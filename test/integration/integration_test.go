package integration

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/lifeplan/projection-engine/internal/calculation"
	"github.com/lifeplan/projection-engine/internal/config"
	"github.com/lifeplan/projection-engine/internal/domain"
	"github.com/lifeplan/projection-engine/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const householdFile = "../testdata/steady_household.yaml"

func month(y int, m time.Month) time.Time { return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC) }

func loadHousehold(t *testing.T) *domain.Household {
	t.Helper()
	h, err := config.NewInputParser().LoadFromFile(householdFile)
	require.NoError(t, err)
	return h
}

func TestEndToEndCalculation(t *testing.T) {
	ctx := context.Background()
	h := loadHousehold(t)
	assert.Equal(t, "EUR", h.User.HomeCurrency)
	assert.Len(t, h.Scenarios, 2)

	repo := store.NewMemoryStore()
	require.NoError(t, repo.SaveHousehold(ctx, h))
	engine := calculation.NewSimulationEngine(repo)

	res, err := engine.RunSimulation(ctx, h.User.ID, "steady", true)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, res.Status)
	assert.Equal(t, 12, res.PeriodsCalculated)
	assert.Equal(t, month(2025, time.December), res.EndDate)
	assert.Empty(t, res.Warnings)

	data, err := engine.GetProjections(ctx, h.User.ID, "steady", domain.ProjectionQuery{Granularity: domain.GranularityMonthly})
	require.NoError(t, err)
	require.Len(t, data.Periods, 12)

	// Each month adds 300: 200 kept in the wallet and 100 off the loan.
	for i, p := range data.Periods {
		want := decimal.NewFromInt(int64(-200 + 300*(i+1)))
		assert.True(t, want.Equal(p.NetWorth), "%s: net worth %s, want %s", p.Period, p.NetWorth, want)
	}

	last := data.Periods[11]
	assert.True(t, decimal.NewFromInt(3400).Equal(last.TotalAssets), last.TotalAssets.String())
	assert.True(t, last.TotalLiabilities.IsZero(), last.TotalLiabilities.String())
	balances := map[string]decimal.Decimal{}
	for _, a := range last.Accounts {
		balances[a.AccountID] = a.Balance
	}
	assert.True(t, decimal.NewFromInt(2900).Equal(balances["wallet"]), balances["wallet"].String())
	assert.True(t, decimal.NewFromInt(500).Equal(balances["savings"]), balances["savings"].String())
	assert.True(t, balances["loan"].IsZero(), balances["loan"].String())
}

func TestConditionTriggeredTransferFiresOnce(t *testing.T) {
	ctx := context.Background()
	h := loadHousehold(t)
	repo := store.NewMemoryStore()
	require.NoError(t, repo.SaveHousehold(ctx, h))
	engine := calculation.NewSimulationEngine(repo)

	_, err := engine.RunSimulation(ctx, h.User.ID, "steady", true)
	require.NoError(t, err)

	rows, err := repo.ListAccountProjections(ctx, "steady", nil, nil, "savings")
	require.NoError(t, err)
	require.Len(t, rows, 12)
	for _, r := range rows {
		// Net worth is 1000 at the start of May, so the transfer lands then.
		if r.PeriodDate.Before(month(2025, time.May)) {
			assert.True(t, r.Balance.IsZero(), "%s: %s", r.PeriodDate.Format("2006-01"), r.Balance)
			continue
		}
		assert.True(t, decimal.NewFromInt(500).Equal(r.Balance), "%s: %s", r.PeriodDate.Format("2006-01"), r.Balance)
		if r.PeriodDate.Equal(month(2025, time.May)) {
			assert.Equal(t, []string{"Move to savings"}, r.EventsApplied)
			assert.True(t, decimal.NewFromInt(500).Equal(r.PeriodIncome))
		} else {
			assert.Empty(t, r.EventsApplied)
		}
	}
}

func TestEndConditionStopsAfterTriggeringPeriod(t *testing.T) {
	ctx := context.Background()
	h := loadHousehold(t)
	repo := store.NewMemoryStore()
	require.NoError(t, repo.SaveHousehold(ctx, h))
	engine := calculation.NewSimulationEngine(repo)

	res, err := engine.RunSimulation(ctx, h.User.ID, "windfall", true)
	require.NoError(t, err)
	assert.Equal(t, 5, res.PeriodsCalculated)
	assert.Equal(t, month(2025, time.May), res.EndDate)

	data, err := engine.GetProjections(ctx, h.User.ID, "windfall", domain.ProjectionQuery{Granularity: domain.GranularityYearly})
	require.NoError(t, err)
	require.Len(t, data.Periods, 1)
	assert.Equal(t, "2025", data.Periods[0].Period)
	assert.True(t, decimal.NewFromInt(2300).Equal(data.Summary.EndNetWorth), data.Summary.EndNetWorth.String())
}

func TestCalculateMilestones(t *testing.T) {
	ctx := context.Background()
	h := loadHousehold(t)
	repo := store.NewMemoryStore()
	require.NoError(t, repo.SaveHousehold(ctx, h))
	engine := calculation.NewSimulationEngine(repo)
	_, err := engine.RunSimulation(ctx, h.User.ID, "steady", true)
	require.NoError(t, err)

	got, err := engine.CalculateMilestones(ctx, h.User.ID, "steady",
		[]decimal.Decimal{decimal.NewFromInt(3000), decimal.NewFromInt(1000), decimal.NewFromInt(99999)})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, month(2025, time.May), got[0].Date)
	assert.Equal(t, month(2025, time.November), got[1].Date)
	assert.True(t, decimal.NewFromInt(3000).Equal(got[1].Value), got[1].Value.String())
	assert.Equal(t, "Net worth reaches $3,000", got[1].Description)
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "lifeplan.db")
	h := loadHousehold(t)

	db, err := store.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, db.SaveHousehold(ctx, h))
	res, err := calculation.NewSimulationEngine(db).RunSimulation(ctx, h.User.ID, "steady", true)
	require.NoError(t, err)
	require.Equal(t, 12, res.PeriodsCalculated)
	require.NoError(t, db.Close())

	// Re-importing the same file keeps the stored projections.
	db, err = store.Open(dbPath)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.SaveHousehold(ctx, loadHousehold(t)))

	data, err := calculation.NewSimulationEngine(db).GetProjections(ctx, h.User.ID, "steady",
		domain.ProjectionQuery{Granularity: domain.GranularityQuarterly})
	require.NoError(t, err)
	require.Len(t, data.Periods, 4)
	assert.Equal(t, "2025-Q4", data.Periods[3].Period)
	assert.True(t, decimal.NewFromInt(3400).Equal(data.Periods[3].NetWorth), data.Periods[3].NetWorth.String())
}

func TestCancelledRunStoresNothing(t *testing.T) {
	h := loadHousehold(t)
	repo := store.NewMemoryStore()
	require.NoError(t, repo.SaveHousehold(context.Background(), h))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := calculation.NewSimulationEngine(repo).RunSimulation(ctx, h.User.ID, "steady", true)
	require.ErrorIs(t, err, context.Canceled)

	rows, err := repo.ListNetWorthProjections(context.Background(), "steady", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

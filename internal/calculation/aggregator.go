package calculation

import (
	"math"
	"sort"
	"time"

	"github.com/lifeplan/projection-engine/internal/domain"
	"github.com/lifeplan/projection-engine/pkg/dateutil"
	"github.com/shopspring/decimal"
)

// UnknownAccountName labels account rows whose account no longer exists
const UnknownAccountName = "Unknown"

// PeriodKey returns the bucket key of a date at the given granularity.
func PeriodKey(date time.Time, g domain.Granularity) string {
	switch g {
	case domain.GranularityYearly:
		return dateutil.YearKey(date)
	case domain.GranularityQuarterly:
		return dateutil.QuarterKey(date)
	default:
		return dateutil.MonthKey(date)
	}
}

func sortNetWorthRows(rows []domain.NetWorthProjection) []domain.NetWorthProjection {
	out := append([]domain.NetWorthProjection(nil), rows...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].PeriodDate.Before(out[j].PeriodDate) })
	return out
}

// AggregatePeriods groups net-worth rows into buckets. The last row of each bucket is
// authoritative; account detail comes from account rows sharing that row's date.
func AggregatePeriods(netRows []domain.NetWorthProjection, accountRows []domain.AccountProjection,
	g domain.Granularity, accountNames map[string]string) []domain.PeriodProjection {

	ordered := sortNetWorthRows(netRows)
	var keys []string
	last := make(map[string]domain.NetWorthProjection)
	for _, row := range ordered {
		key := PeriodKey(row.PeriodDate, g)
		if _, ok := last[key]; !ok {
			keys = append(keys, key)
		}
		last[key] = row
	}

	byDate := make(map[time.Time][]domain.AccountProjection)
	for _, ar := range accountRows {
		d := ar.PeriodDate.UTC()
		byDate[d] = append(byDate[d], ar)
	}

	periods := make([]domain.PeriodProjection, 0, len(keys))
	for _, key := range keys {
		row := last[key]
		var items []domain.AccountProjectionItem
		for _, ar := range byDate[row.PeriodDate.UTC()] {
			name, ok := accountNames[ar.AccountID]
			if !ok {
				name = UnknownAccountName
			}
			items = append(items, domain.AccountProjectionItem{
				AccountID:           ar.AccountID,
				AccountName:         name,
				Balance:             ar.Balance,
				BalanceHomeCurrency: ar.BalanceHomeCurrency,
				PeriodIncome:        ar.PeriodIncome,
				PeriodExpenses:      ar.PeriodExpenses,
				PeriodInterest:      ar.PeriodInterest,
			})
		}
		periods = append(periods, domain.PeriodProjection{
			Period:              key,
			PeriodDate:          row.PeriodDate,
			NetWorth:            row.NetWorth,
			TotalAssets:         row.TotalAssets,
			TotalLiabilities:    row.TotalLiabilities,
			BreakdownByType:     row.BreakdownByType,
			BreakdownByCurrency: row.BreakdownByCurrency,
			Accounts:            items,
		})
	}
	return periods
}

// ExtractMilestones re-scans rows in date order and records the first crossing of each
// target. Years away are measured in whole months from the scenario start.
func ExtractMilestones(rows []domain.NetWorthProjection, start time.Time, targets []decimal.Decimal) []domain.MilestoneResult {
	tracker := newMilestoneTracker(targets)
	results := []domain.MilestoneResult{}
	for _, row := range sortNetWorthRows(rows) {
		reached, _ := tracker.observe(row.PeriodDate, row.NetWorth, dateutil.MonthsBetween(start, row.PeriodDate))
		results = append(results, reached...)
	}
	return results
}

// Summarize computes trajectory statistics over the rows.
//
// AnnualizedReturn is the CAGR (end/start)^(1/years) - 1 with years = rows/12, only when
// the start is positive and there is more than one row; rounded to 4 places.
// AvgMonthlyGrowthRate is the mean of (cur - prev)/|prev| over rows with prev != 0,
// rounded to 6 places.
func Summarize(rows []domain.NetWorthProjection) domain.ProjectionSummary {
	if len(rows) == 0 {
		return domain.ProjectionSummary{}
	}
	ordered := sortNetWorthRows(rows)
	first, last := ordered[0].NetWorth, ordered[len(ordered)-1].NetWorth
	n := len(ordered)

	annualized := decimal.Zero
	if first.IsPositive() && n > 1 {
		years := float64(n) / 12
		ratio := last.Div(first).InexactFloat64()
		if ratio >= 0 {
			annualized = decimal.NewFromFloat(math.Pow(ratio, 1/years) - 1)
		}
	}

	avg := decimal.Zero
	if n > 1 {
		sum := decimal.Zero
		count := 0
		for i := 1; i < n; i++ {
			prev := ordered[i-1].NetWorth
			if prev.IsZero() {
				continue
			}
			sum = sum.Add(ordered[i].NetWorth.Sub(prev).Div(prev.Abs()))
			count++
		}
		if count > 0 {
			avg = sum.Div(decimal.NewFromInt(int64(count)))
		}
	}

	return domain.ProjectionSummary{
		StartNetWorth:        first,
		EndNetWorth:          last,
		TotalGrowth:          last.Sub(first),
		AnnualizedReturn:     annualized.Round(4),
		AvgMonthlyGrowthRate: avg.Round(6),
		TotalMonths:          n,
	}
}

// FilterNetWorthRows keeps rows within the optional inclusive date bounds.
func FilterNetWorthRows(rows []domain.NetWorthProjection, from, to *time.Time) []domain.NetWorthProjection {
	var out []domain.NetWorthProjection
	for _, r := range rows {
		if inRange(r.PeriodDate, from, to) {
			out = append(out, r)
		}
	}
	return out
}

// FilterAccountRows keeps rows within the optional date bounds and, when set, for one account.
func FilterAccountRows(rows []domain.AccountProjection, from, to *time.Time, accountID string) []domain.AccountProjection {
	var out []domain.AccountProjection
	for _, r := range rows {
		if !inRange(r.PeriodDate, from, to) {
			continue
		}
		if accountID != "" && r.AccountID != accountID {
			continue
		}
		out = append(out, r)
	}
	return out
}

func inRange(d time.Time, from, to *time.Time) bool {
	if from != nil && d.Before(*from) {
		return false
	}
	if to != nil && d.After(*to) {
		return false
	}
	return true
}

package output

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Recommendation encapsulates the selection result of the best scenario.
type Recommendation struct {
	ScenarioName     string
	EndNetWorth      decimal.Decimal
	BaselineName     string
	NetWorthChange   decimal.Decimal
	PercentageChange decimal.Decimal
}

func endNetWorth(r *Report) (decimal.Decimal, bool) {
	if r.Projections == nil || len(r.Projections.Periods) == 0 {
		return decimal.Zero, false
	}
	return r.Projections.Periods[len(r.Projections.Periods)-1].NetWorth, true
}

// AnalyzeScenarios picks the scenario with the highest ending net worth and compares it
// with the baseline scenario (or the first report when none is marked baseline).
// Reports without projections are ignored.
func AnalyzeScenarios(reports []*Report) Recommendation {
	type ranked struct {
		name  string
		value decimal.Decimal
	}
	var ranks []ranked
	var baseline *ranked
	for _, r := range reports {
		v, ok := endNetWorth(r)
		if !ok {
			continue
		}
		ranks = append(ranks, ranked{r.Scenario.Name, v})
		if r.Scenario.IsBaseline && baseline == nil {
			baseline = &ranked{r.Scenario.Name, v}
		}
	}
	if len(ranks) == 0 {
		return Recommendation{}
	}
	if baseline == nil {
		first := ranks[0]
		baseline = &first
	}
	sort.SliceStable(ranks, func(i, j int) bool { return ranks[i].value.GreaterThan(ranks[j].value) })
	best := ranks[0]
	delta := best.value.Sub(baseline.value)
	pct := decimal.Zero
	if !baseline.value.IsZero() {
		pct = delta.Div(baseline.value.Abs()).Mul(decimalHundred)
	}
	return Recommendation{
		ScenarioName:     best.name,
		EndNetWorth:      best.value,
		BaselineName:     baseline.name,
		NetWorthChange:   delta,
		PercentageChange: pct,
	}
}

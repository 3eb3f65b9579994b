package output

import (
	"testing"

	"github.com/lifeplan/projection-engine/internal/domain"
	"github.com/shopspring/decimal"
)

func reportEndingAt(name string, baseline bool, netWorth int64) *Report {
	return &Report{
		Scenario: domain.Scenario{Name: name, IsBaseline: baseline},
		Projections: &domain.ProjectionData{Periods: []domain.PeriodProjection{
			{Period: "2025-01", NetWorth: decimal.NewFromInt(1)},
			{Period: "2025-02", NetWorth: decimal.NewFromInt(netWorth)},
		}},
	}
}

func TestAnalyzeScenarios_SelectsHighestEndingNetWorth(t *testing.T) {
	rec := AnalyzeScenarios([]*Report{
		reportEndingAt("Scenario A", false, 90000),
		reportEndingAt("Baseline", true, 100000),
		reportEndingAt("Scenario B", false, 125000),
		{Scenario: domain.Scenario{Name: "Never run"}},
	})

	if rec.ScenarioName != "Scenario B" {
		t.Fatalf("expected Scenario B, got %q", rec.ScenarioName)
	}
	if rec.BaselineName != "Baseline" {
		t.Fatalf("expected baseline comparison, got %q", rec.BaselineName)
	}
	if !rec.NetWorthChange.Equal(decimal.NewFromInt(25000)) {
		t.Fatalf("NetWorthChange = %s", rec.NetWorthChange)
	}
	if !rec.PercentageChange.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("PercentageChange = %s", rec.PercentageChange)
	}
}

func TestAnalyzeScenarios_NoBaselineUsesFirst(t *testing.T) {
	rec := AnalyzeScenarios([]*Report{
		reportEndingAt("First", false, 200),
		reportEndingAt("Second", false, 100),
	})
	if rec.ScenarioName != "First" || rec.BaselineName != "First" || !rec.NetWorthChange.IsZero() {
		t.Fatalf("unexpected recommendation: %+v", rec)
	}
}

func TestAnalyzeScenarios_Empty(t *testing.T) {
	if rec := AnalyzeScenarios(nil); rec.ScenarioName != "" {
		t.Fatalf("expected empty recommendation, got %+v", rec)
	}
}

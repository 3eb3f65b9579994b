package integration

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lifeplan/projection-engine/internal/calculation"
	"github.com/lifeplan/projection-engine/internal/domain"
	"github.com/lifeplan/projection-engine/internal/output"
	"github.com/lifeplan/projection-engine/internal/store"
)

// runReports simulates every scenario of the test household and returns one report each.
func runReports(t *testing.T) []*output.Report {
	t.Helper()
	ctx := context.Background()
	h := loadHousehold(t)
	repo := store.NewMemoryStore()
	if err := repo.SaveHousehold(ctx, h); err != nil {
		t.Fatalf("SaveHousehold: %v", err)
	}
	engine := calculation.NewSimulationEngine(repo)

	var reports []*output.Report
	for _, sc := range h.Scenarios {
		res, err := engine.RunSimulation(ctx, h.User.ID, sc.ID, true)
		if err != nil {
			t.Fatalf("RunSimulation(%s): %v", sc.Name, err)
		}
		data, err := engine.GetProjections(ctx, h.User.ID, sc.ID, domain.ProjectionQuery{Granularity: domain.GranularityMonthly})
		if err != nil {
			t.Fatalf("GetProjections(%s): %v", sc.Name, err)
		}
		reports = append(reports, &output.Report{Scenario: sc, Run: res, Projections: data})
	}
	return reports
}

func TestOutputGeneration(t *testing.T) {
	reports := runReports(t)
	dir := t.TempDir()

	for _, format := range []string{"console", "console-lite", "csv", "detailed-csv", "json"} {
		files, err := output.GenerateReport(reports[0], format, dir)
		if err != nil {
			t.Fatalf("GenerateReport(%s): %v", format, err)
		}
		if len(files) != 1 {
			t.Fatalf("GenerateReport(%s) wrote %d files", format, len(files))
		}
		fi, err := os.Stat(files[0])
		if err != nil || fi.Size() == 0 {
			t.Fatalf("GenerateReport(%s): expected non-empty %s (err %v)", format, files[0], err)
		}
	}

	files, err := output.GenerateReport(reports[1], "all", dir)
	if err != nil {
		t.Fatalf("GenerateReport(all): %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("expected verbose, summary and detailed files, got %v", files)
	}
	for _, f := range files {
		if !strings.Contains(filepath.Base(f), "windfall") {
			t.Fatalf("file %s is not named after the scenario", f)
		}
	}
}

func TestSummaryCSVMatchesSimulation(t *testing.T) {
	reports := runReports(t)
	out, err := output.CSVSummarizer{}.Format(reports[0])
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) != 13 {
		t.Fatalf("expected header plus 12 months, got %d lines", len(lines))
	}
	if want := "Steady,2025-12,2025-12-01,3400.00,0.00,3400.00"; lines[12] != want {
		t.Fatalf("last row = %q, want %q", lines[12], want)
	}
}

func TestAnalyzeScenarios(t *testing.T) {
	rec := output.AnalyzeScenarios(runReports(t))
	if rec.ScenarioName != "Steady" || rec.BaselineName != "Steady" {
		t.Fatalf("unexpected recommendation: %+v", rec)
	}
	if !rec.NetWorthChange.IsZero() {
		t.Fatalf("best scenario is the baseline, change = %s", rec.NetWorthChange)
	}
}

func TestSaveHousehold_WritesLoadableFile(t *testing.T) {
	h := loadHousehold(t)
	out := filepath.Join(t.TempDir(), "household.yaml")
	if err := output.SaveHousehold(h, out); err != nil {
		t.Fatalf("SaveHousehold error: %v", err)
	}
	fi, err := os.Stat(out)
	if err != nil {
		t.Fatalf("expected file exists, err: %v", err)
	}
	if fi.Size() == 0 {
		t.Fatalf("expected non-empty file")
	}
}
